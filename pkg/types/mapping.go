package types

import "fmt"

// TableMapping registers an alternate storage strategy for one AspectDef:
// its properties stored as native columns of a dedicated table instead of
// EAV rows. The two key flags select one of four key shapes: no key,
// catalog-id only, entity-id only, or composite (catalog id + entity id).
type TableMapping struct {
	AspectDef    *AspectDef
	TableName    string
	HasCatalogID bool
	HasEntityID  bool

	// Columns maps property names to column names. Empty means every
	// property maps to a column of the same name.
	Columns map[string]string
}

// Validate checks the mapping against its AspectDef. A column referencing
// an unknown property is a structural inconsistency.
func (m TableMapping) Validate() error {
	if m.AspectDef == nil {
		return fmt.Errorf("table mapping has no aspect def: %w", ErrStructuralInconsistency)
	}
	if m.TableName == "" {
		return fmt.Errorf("table mapping for aspect def %q has no table name: %w", m.AspectDef.Name, ErrStructuralInconsistency)
	}
	for property := range m.Columns {
		if !m.AspectDef.HasProperty(property) {
			return fmt.Errorf("table mapping column references unknown property %q of aspect def %q: %w",
				property, m.AspectDef.Name, ErrStructuralInconsistency)
		}
	}
	return nil
}

// ColumnFor returns the column name storing the named property.
func (m TableMapping) ColumnFor(property string) string {
	if col, ok := m.Columns[property]; ok {
		return col
	}
	return property
}
