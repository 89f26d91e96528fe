// Bidirectional mapping between canonical PropertyTypes and SQLite column
// types. Used to generate mapped-table DDL and kept alongside the value
// adapter that decodes query results.
package sqlite

import "github.com/mesh-intelligence/facets/pkg/types"

// columnTypes maps each PropertyType to its SQLite column type.
var columnTypes = map[types.PropertyType]string{
	types.TypeInteger:  "INTEGER",
	types.TypeFloat:    "REAL",
	types.TypeBoolean:  "INTEGER",
	types.TypeString:   "TEXT",
	types.TypeText:     "TEXT",
	types.TypeBigInt:   "TEXT",
	types.TypeBigDec:   "TEXT",
	types.TypeDateTime: "TEXT",
	types.TypeURI:      "TEXT",
	types.TypeUUID:     "TEXT",
	types.TypeClob:     "TEXT",
	types.TypeBlob:     "BLOB",
}

// columnType returns the SQLite column type for a PropertyDef. Multivalued
// properties store a JSON array and are always TEXT.
func columnType(prop types.PropertyDef) string {
	if prop.Multivalued {
		return "TEXT"
	}
	if ct, ok := columnTypes[prop.Type]; ok {
		return ct
	}
	return "TEXT"
}
