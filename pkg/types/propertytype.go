package types

// PropertyType identifies one of the canonical value types a property can
// hold. The string value is the 3-letter storage code used on the wire and
// in the database.
type PropertyType string

// Canonical property types and their storage codes.
const (
	TypeInteger  PropertyType = "INT" // signed 64-bit integer
	TypeFloat    PropertyType = "FLT" // double-precision float
	TypeBoolean  PropertyType = "BLN" // tri-state boolean (true, false, null)
	TypeString   PropertyType = "STR" // bounded string
	TypeText     PropertyType = "TXT" // unbounded text
	TypeBigInt   PropertyType = "BGI" // arbitrary-precision integer
	TypeBigDec   PropertyType = "BGF" // arbitrary-precision decimal
	TypeDateTime PropertyType = "DAT" // timezone-aware date-time
	TypeURI      PropertyType = "URI" // URI reference
	TypeUUID     PropertyType = "UID" // UUID
	TypeClob     PropertyType = "CLB" // character stream
	TypeBlob     PropertyType = "BLB" // byte stream
)

// PropertyTypes lists every canonical type in declaration order.
var PropertyTypes = []PropertyType{
	TypeInteger, TypeFloat, TypeBoolean, TypeString, TypeText,
	TypeBigInt, TypeBigDec, TypeDateTime, TypeURI, TypeUUID,
	TypeClob, TypeBlob,
}

var validPropertyTypes = func() map[PropertyType]bool {
	m := make(map[PropertyType]bool, len(PropertyTypes))
	for _, t := range PropertyTypes {
		m[t] = true
	}
	return m
}()

// Code returns the 3-letter storage code.
func (t PropertyType) Code() string { return string(t) }

// Valid reports whether t is one of the canonical types.
func (t PropertyType) Valid() bool { return validPropertyTypes[t] }

// ParsePropertyType converts a stored 3-letter code back to a PropertyType.
// Returns ErrUnknownPropertyType if the code is not recognized.
func ParsePropertyType(code string) (PropertyType, error) {
	t := PropertyType(code)
	if !t.Valid() {
		return "", ErrUnknownPropertyType
	}
	return t, nil
}
