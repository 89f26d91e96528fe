package types

import (
	"errors"
	"fmt"
)

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
)

// Model and schema errors.
var (
	ErrNotFound                = errors.New("not found")
	ErrSchemaViolation         = errors.New("schema violation")
	ErrNullViolation           = errors.New("null value for non-nullable property")
	ErrCannotCoerce            = errors.New("cannot coerce value")
	ErrPersistence             = errors.New("persistence failure")
	ErrStructuralInconsistency = errors.New("structural inconsistency")
	ErrDuplicateName           = errors.New("duplicate name")
	ErrUnknownPropertyType     = errors.New("unknown property type code")
	ErrUnknownHierarchyType    = errors.New("unknown hierarchy type code")
	ErrUnknownSpecies          = errors.New("unknown catalog species")
	ErrAspectDefMismatch       = errors.New("aspect def does not match")
)

// CoercionError reports a value that cannot convert to a target
// PropertyType. It unwraps to ErrCannotCoerce.
type CoercionError struct {
	Value  any
	Target PropertyType
	Reason error
}

func (e *CoercionError) Error() string {
	if e.Reason != nil {
		return fmt.Sprintf("cannot coerce %T value to %s: %v", e.Value, e.Target, e.Reason)
	}
	return fmt.Sprintf("cannot coerce %T value to %s", e.Value, e.Target)
}

func (e *CoercionError) Unwrap() error { return ErrCannotCoerce }

// SchemaViolationError reports a read, write, add, or remove attempt that the
// schema does not permit. It unwraps to ErrSchemaViolation.
type SchemaViolationError struct {
	AspectDef string
	Property  string
	Operation string
}

func (e *SchemaViolationError) Error() string {
	if e.Property == "" {
		return fmt.Sprintf("aspect def %q does not permit %s", e.AspectDef, e.Operation)
	}
	return fmt.Sprintf("aspect def %q does not permit %s of property %q", e.AspectDef, e.Operation, e.Property)
}

func (e *SchemaViolationError) Unwrap() error { return ErrSchemaViolation }

// schemaViolation is a construction shorthand used throughout the runtime.
func schemaViolation(def, property, op string) error {
	return &SchemaViolationError{AspectDef: def, Property: property, Operation: op}
}
