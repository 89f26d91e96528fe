package types

import (
	"fmt"
	"hash/fnv"
)

// PropertyDef describes one property of an AspectDef: its name, value type,
// and behavioral flags. PropertyDefs are value objects; once attached to an
// AspectDef they are never mutated.
type PropertyDef struct {
	Name        string
	Type        PropertyType
	Nullable    bool
	Removable   bool
	Multivalued bool
	HasDefault  bool
	Default     any
}

// Equals reports identity for structural comparison, which is name only.
func (p PropertyDef) Equals(o PropertyDef) bool {
	return p.Name == o.Name
}

// FullyEquals compares every field.
func (p PropertyDef) FullyEquals(o PropertyDef) bool {
	if p.Name != o.Name || p.Type != o.Type {
		return false
	}
	if p.Nullable != o.Nullable || p.Removable != o.Removable ||
		p.Multivalued != o.Multivalued || p.HasDefault != o.HasDefault {
		return false
	}
	return fmt.Sprint(p.Default) == fmt.Sprint(o.Default)
}

// Hash folds the def into a stable 64-bit structural hash. The field order
// is fixed (flags, default, type code, name) so two structurally identical
// defs hash identically regardless of how they were built.
func (p PropertyDef) Hash() uint64 {
	h := fnv.New64a()
	p.hashInto(h)
	return h.Sum64()
}

type hashWriter interface {
	Write(p []byte) (int, error)
}

func (p PropertyDef) hashInto(h hashWriter) {
	h.Write([]byte{
		hashBool(p.Nullable),
		hashBool(p.Removable),
		hashBool(p.Multivalued),
		hashBool(p.HasDefault),
	})
	if p.HasDefault {
		fmt.Fprint(h, p.Default)
	}
	h.Write([]byte(p.Type.Code()))
	h.Write([]byte(p.Name))
}

func hashBool(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// DefaultValue returns the value a freshly populated property carries: the
// declared default when HasDefault is set, an empty list for multivalued
// properties, nil otherwise.
func (p PropertyDef) DefaultValue() any {
	if p.HasDefault {
		return p.Default
	}
	if p.Multivalued {
		return []any{}
	}
	return nil
}
