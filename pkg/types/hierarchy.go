package types

// HierarchyType identifies one of the five hierarchy shapes. The string
// value is the 2-letter storage code.
type HierarchyType string

// Hierarchy type codes.
const (
	HierarchyEntityList      HierarchyType = "EL"
	HierarchyEntitySet       HierarchyType = "ES"
	HierarchyEntityDirectory HierarchyType = "ED"
	HierarchyEntityTree      HierarchyType = "ET"
	HierarchyAspectMap       HierarchyType = "AM"
)

// HierarchyTypes lists every hierarchy type.
var HierarchyTypes = []HierarchyType{
	HierarchyEntityList,
	HierarchyEntitySet,
	HierarchyEntityDirectory,
	HierarchyEntityTree,
	HierarchyAspectMap,
}

var validHierarchyTypes = func() map[HierarchyType]bool {
	m := make(map[HierarchyType]bool, len(HierarchyTypes))
	for _, t := range HierarchyTypes {
		m[t] = true
	}
	return m
}()

// Code returns the 2-letter storage code.
func (t HierarchyType) Code() string { return string(t) }

// Valid reports whether t is one of the five shapes.
func (t HierarchyType) Valid() bool { return validHierarchyTypes[t] }

// ParseHierarchyType converts a stored 2-letter code back to a
// HierarchyType. Returns ErrUnknownHierarchyType if unrecognized.
func ParseHierarchyType(code string) (HierarchyType, error) {
	t := HierarchyType(code)
	if !t.Valid() {
		return "", ErrUnknownHierarchyType
	}
	return t, nil
}

// HierarchyDef names a hierarchy and fixes its shape.
type HierarchyDef struct {
	Name string
	Type HierarchyType
}

// Hierarchy is the closed interface over the five container shapes. The
// concrete type is always one of *EntityList, *EntitySet, *EntityDirectory,
// *EntityTree, or *AspectMap; dispatch is by Type.
type Hierarchy interface {
	// Name returns the catalog-scoped hierarchy name.
	Name() string
	// Type returns the shape tag driving dispatch.
	Type() HierarchyType
	// Version returns the modification counter.
	Version() uint64
}

// hierarchyBase carries the fields shared by all five shapes.
type hierarchyBase struct {
	name    string
	typ     HierarchyType
	version uint64
}

func (h *hierarchyBase) Name() string        { return h.name }
func (h *hierarchyBase) Type() HierarchyType { return h.typ }
func (h *hierarchyBase) Version() uint64     { return h.version }

// SetVersion overwrites the modification counter; used when reloading a
// persisted hierarchy.
func (h *hierarchyBase) SetVersion(v uint64) { h.version = v }

func (h *hierarchyBase) bump() { h.version++ }

// Def returns the HierarchyDef describing this hierarchy.
func (h *hierarchyBase) Def() HierarchyDef {
	return HierarchyDef{Name: h.name, Type: h.typ}
}
