package types

import (
	"fmt"
	"math/big"
	"net/url"
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Canonical in-memory representations per PropertyType:
//
//	INT int64      FLT float64    BLN bool       STR/TXT/CLB string
//	BGI *big.Int   BGF *big.Float DAT time.Time  URI *url.URL
//	UID uuid.UUID  BLB []byte
//
// Coerce converts value to the canonical representation of target. A nil
// value passes through unchanged. A []byte targeting TypeBlob is a single
// scalar; any other slice coerces element-wise to []any. All failures
// return a *CoercionError naming the source value and target type.
func Coerce(value any, target PropertyType) (any, error) {
	if value == nil {
		return nil, nil
	}
	if !target.Valid() {
		return nil, &CoercionError{Value: value, Target: target, Reason: ErrUnknownPropertyType}
	}

	// Byte slices are scalars for the byte-stream type only.
	if b, ok := value.([]byte); ok && target == TypeBlob {
		return b, nil
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Slice && !isByteSlice(value, target) {
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			elem, err := Coerce(rv.Index(i).Interface(), target)
			if err != nil {
				return nil, err
			}
			out[i] = elem
		}
		return out, nil
	}

	return coerceScalar(value, target)
}

// CoerceList coerces value into a []any of target elements. A nil value
// yields nil; a scalar yields a single-element list.
func CoerceList(value any, target PropertyType) ([]any, error) {
	if value == nil {
		return nil, nil
	}
	coerced, err := Coerce(value, target)
	if err != nil {
		return nil, err
	}
	if list, ok := coerced.([]any); ok {
		return list, nil
	}
	return []any{coerced}, nil
}

func isByteSlice(value any, target PropertyType) bool {
	_, ok := value.([]byte)
	return ok && target == TypeBlob
}

func coerceScalar(value any, target PropertyType) (any, error) {
	switch target {
	case TypeInteger:
		return coerceInt(value)
	case TypeFloat:
		return coerceFloat(value)
	case TypeBoolean:
		return coerceBool(value)
	case TypeString, TypeText, TypeClob:
		return coerceString(value)
	case TypeBigInt:
		return coerceBigInt(value)
	case TypeBigDec:
		return coerceBigDec(value)
	case TypeDateTime:
		return coerceDateTime(value)
	case TypeURI:
		return coerceURI(value)
	case TypeUUID:
		return coerceUUID(value)
	case TypeBlob:
		return coerceBlob(value)
	}
	return nil, &CoercionError{Value: value, Target: target}
}

func coerceInt(value any) (any, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	case float32:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case *big.Int:
		if !v.IsInt64() {
			return nil, &CoercionError{Value: value, Target: TypeInteger, Reason: fmt.Errorf("out of int64 range")}
		}
		return v.Int64(), nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, &CoercionError{Value: value, Target: TypeInteger, Reason: err}
		}
		return n, nil
	}
	return nil, &CoercionError{Value: value, Target: TypeInteger}
}

func coerceFloat(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int8:
		return float64(v), nil
	case int16:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint8:
		return float64(v), nil
	case uint16:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case *big.Float:
		f, _ := v.Float64()
		return f, nil
	case *big.Int:
		f, _ := new(big.Float).SetInt(v).Float64()
		return f, nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, &CoercionError{Value: value, Target: TypeFloat, Reason: err}
		}
		return f, nil
	}
	return nil, &CoercionError{Value: value, Target: TypeFloat}
}

func coerceBool(value any) (any, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, &CoercionError{Value: value, Target: TypeBoolean, Reason: err}
		}
		return b, nil
	}
	return nil, &CoercionError{Value: value, Target: TypeBoolean}
}

func coerceString(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case time.Time:
		// time.Time satisfies fmt.Stringer, so it must be matched first to
		// get the canonical RFC 3339 form.
		return v.UTC().Format(time.RFC3339Nano), nil
	case fmt.Stringer:
		return v.String(), nil
	case bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return fmt.Sprint(v), nil
	}
	return nil, &CoercionError{Value: value, Target: TypeString}
}

func coerceBigInt(value any) (any, error) {
	switch v := value.(type) {
	case *big.Int:
		return v, nil
	case int:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	case int32:
		return big.NewInt(int64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case float64:
		n, _ := big.NewFloat(v).Int(nil)
		return n, nil
	case string:
		n, ok := new(big.Int).SetString(v, 10)
		if !ok {
			return nil, &CoercionError{Value: value, Target: TypeBigInt, Reason: fmt.Errorf("not a base-10 integer")}
		}
		return n, nil
	}
	return nil, &CoercionError{Value: value, Target: TypeBigInt}
}

func coerceBigDec(value any) (any, error) {
	switch v := value.(type) {
	case *big.Float:
		return v, nil
	case *big.Int:
		return new(big.Float).SetInt(v), nil
	case float64:
		return big.NewFloat(v), nil
	case float32:
		return big.NewFloat(float64(v)), nil
	case int:
		return new(big.Float).SetInt64(int64(v)), nil
	case int64:
		return new(big.Float).SetInt64(v), nil
	case string:
		f, ok := new(big.Float).SetString(v)
		if !ok {
			return nil, &CoercionError{Value: value, Target: TypeBigDec, Reason: fmt.Errorf("not a decimal number")}
		}
		return f, nil
	}
	return nil, &CoercionError{Value: value, Target: TypeBigDec}
}

func coerceDateTime(value any) (any, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, v); err == nil {
				return t, nil
			}
		}
		return nil, &CoercionError{Value: value, Target: TypeDateTime, Reason: fmt.Errorf("unrecognized date-time format")}
	}
	return nil, &CoercionError{Value: value, Target: TypeDateTime}
}

func coerceURI(value any) (any, error) {
	switch v := value.(type) {
	case *url.URL:
		return v, nil
	case string:
		u, err := url.Parse(v)
		if err != nil {
			return nil, &CoercionError{Value: value, Target: TypeURI, Reason: err}
		}
		return u, nil
	}
	return nil, &CoercionError{Value: value, Target: TypeURI}
}

func coerceUUID(value any) (any, error) {
	switch v := value.(type) {
	case uuid.UUID:
		return v, nil
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, &CoercionError{Value: value, Target: TypeUUID, Reason: err}
		}
		return id, nil
	case [16]byte:
		return uuid.UUID(v), nil
	}
	return nil, &CoercionError{Value: value, Target: TypeUUID}
}

func coerceBlob(value any) (any, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	}
	return nil, &CoercionError{Value: value, Target: TypeBlob}
}
