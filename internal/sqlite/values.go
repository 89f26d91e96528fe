// Value adapter: converts canonical in-memory property values to and from
// their stored encodings. The EAV path stores every scalar as TEXT; the
// mapped-table path stores native column values. Date-times are formatted
// RFC 3339 with nanoseconds in UTC in both directions.
package sqlite

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/facets/pkg/types"
)

// timeLayout is the stored date-time format.
const timeLayout = time.RFC3339Nano

// encodeText converts a canonical value to its TEXT encoding for the EAV
// path. The value must already be canonical for t (the aspect runtime
// coerces on write).
func encodeText(t types.PropertyType, value any) (string, error) {
	switch t {
	case types.TypeInteger:
		v, ok := value.(int64)
		if !ok {
			return "", encodeError(t, value)
		}
		return strconv.FormatInt(v, 10), nil
	case types.TypeFloat:
		v, ok := value.(float64)
		if !ok {
			return "", encodeError(t, value)
		}
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case types.TypeBoolean:
		v, ok := value.(bool)
		if !ok {
			return "", encodeError(t, value)
		}
		return strconv.FormatBool(v), nil
	case types.TypeString, types.TypeText, types.TypeClob:
		v, ok := value.(string)
		if !ok {
			return "", encodeError(t, value)
		}
		return v, nil
	case types.TypeBigInt:
		v, ok := value.(*big.Int)
		if !ok {
			return "", encodeError(t, value)
		}
		return v.Text(10), nil
	case types.TypeBigDec:
		v, ok := value.(*big.Float)
		if !ok {
			return "", encodeError(t, value)
		}
		return v.Text('g', -1), nil
	case types.TypeDateTime:
		v, ok := value.(time.Time)
		if !ok {
			return "", encodeError(t, value)
		}
		return v.UTC().Format(timeLayout), nil
	case types.TypeURI:
		v, ok := value.(*url.URL)
		if !ok {
			return "", encodeError(t, value)
		}
		return v.String(), nil
	case types.TypeUUID:
		v, ok := value.(uuid.UUID)
		if !ok {
			return "", encodeError(t, value)
		}
		return v.String(), nil
	case types.TypeBlob:
		v, ok := value.([]byte)
		if !ok {
			return "", encodeError(t, value)
		}
		return base64.StdEncoding.EncodeToString(v), nil
	}
	return "", encodeError(t, value)
}

// decodeText converts a stored TEXT encoding back to the canonical value.
func decodeText(t types.PropertyType, s string) (any, error) {
	switch t {
	case types.TypeInteger:
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, decodeError(t, s, err)
		}
		return v, nil
	case types.TypeFloat:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, decodeError(t, s, err)
		}
		return v, nil
	case types.TypeBoolean:
		v, err := strconv.ParseBool(s)
		if err != nil {
			return nil, decodeError(t, s, err)
		}
		return v, nil
	case types.TypeString, types.TypeText, types.TypeClob:
		return s, nil
	case types.TypeBigInt:
		v, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, decodeError(t, s, nil)
		}
		return v, nil
	case types.TypeBigDec:
		v, ok := new(big.Float).SetString(s)
		if !ok {
			return nil, decodeError(t, s, nil)
		}
		return v, nil
	case types.TypeDateTime:
		v, err := time.Parse(timeLayout, s)
		if err != nil {
			return nil, decodeError(t, s, err)
		}
		return v, nil
	case types.TypeURI:
		v, err := url.Parse(s)
		if err != nil {
			return nil, decodeError(t, s, err)
		}
		return v, nil
	case types.TypeUUID:
		v, err := uuid.Parse(s)
		if err != nil {
			return nil, decodeError(t, s, err)
		}
		return v, nil
	case types.TypeBlob:
		v, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, decodeError(t, s, err)
		}
		return v, nil
	}
	return nil, decodeError(t, s, types.ErrUnknownPropertyType)
}

// encodeColumn converts a canonical value into a driver value for a mapped
// table column. Multivalued values are stored as a JSON array of their TEXT
// encodings.
func encodeColumn(prop types.PropertyDef, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	if prop.Multivalued {
		list, ok := value.([]any)
		if !ok {
			list = []any{value}
		}
		encoded := make([]string, len(list))
		for i, elem := range list {
			s, err := encodeText(prop.Type, elem)
			if err != nil {
				return nil, err
			}
			encoded[i] = s
		}
		out, err := json.Marshal(encoded)
		if err != nil {
			return nil, fmt.Errorf("encoding multivalued %s column: %w", prop.Name, err)
		}
		return string(out), nil
	}

	switch prop.Type {
	case types.TypeInteger:
		return value, nil
	case types.TypeFloat:
		return value, nil
	case types.TypeBoolean:
		v, ok := value.(bool)
		if !ok {
			return nil, encodeError(prop.Type, value)
		}
		if v {
			return int64(1), nil
		}
		return int64(0), nil
	case types.TypeBlob:
		v, ok := value.([]byte)
		if !ok {
			return nil, encodeError(prop.Type, value)
		}
		return v, nil
	default:
		return encodeText(prop.Type, value)
	}
}

// decodeColumn converts a scanned driver value back to the canonical value.
func decodeColumn(prop types.PropertyDef, stored any) (any, error) {
	if stored == nil {
		return nil, nil
	}
	if prop.Multivalued {
		raw, err := storedString(stored)
		if err != nil {
			return nil, decodeError(prop.Type, stored, err)
		}
		var encoded []string
		if err := json.Unmarshal([]byte(raw), &encoded); err != nil {
			return nil, decodeError(prop.Type, stored, err)
		}
		list := make([]any, len(encoded))
		for i, s := range encoded {
			elem, err := decodeText(prop.Type, s)
			if err != nil {
				return nil, err
			}
			list[i] = elem
		}
		return list, nil
	}

	switch prop.Type {
	case types.TypeInteger:
		v, ok := stored.(int64)
		if !ok {
			return nil, decodeError(prop.Type, stored, nil)
		}
		return v, nil
	case types.TypeFloat:
		switch v := stored.(type) {
		case float64:
			return v, nil
		case int64:
			return float64(v), nil
		}
		return nil, decodeError(prop.Type, stored, nil)
	case types.TypeBoolean:
		v, ok := stored.(int64)
		if !ok {
			return nil, decodeError(prop.Type, stored, nil)
		}
		return v != 0, nil
	case types.TypeBlob:
		v, ok := stored.([]byte)
		if !ok {
			return nil, decodeError(prop.Type, stored, nil)
		}
		return v, nil
	default:
		raw, err := storedString(stored)
		if err != nil {
			return nil, decodeError(prop.Type, stored, err)
		}
		return decodeText(prop.Type, raw)
	}
}

func storedString(stored any) (string, error) {
	switch v := stored.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	}
	return "", fmt.Errorf("stored value is %T, not text", stored)
}

func encodeError(t types.PropertyType, value any) error {
	return fmt.Errorf("value %T is not canonical for %s: %w", value, t, types.ErrCannotCoerce)
}

func decodeError(t types.PropertyType, stored any, cause error) error {
	if cause != nil {
		return fmt.Errorf("decoding stored %v as %s: %v: %w", stored, t, cause, types.ErrPersistence)
	}
	return fmt.Errorf("decoding stored %v as %s: %w", stored, t, types.ErrPersistence)
}
