package types

import (
	"hash/fnv"
	"sort"

	"github.com/google/uuid"
)

// AspectDef describes one aspect shape: a named, ordered collection of
// PropertyDefs plus access and capability flags. The capability flags select
// one of three mutability shapes (neither set is immutable, both set is
// fully mutable, one set is mixed) and govern instance-level add/remove of
// property values; they never alter the def itself.
type AspectDef struct {
	ID       uuid.UUID
	Name     string
	Readable bool
	Writable bool

	CanAddProperties    bool
	CanRemoveProperties bool

	order []string
	props map[string]PropertyDef
}

// NewAspectDef creates a readable, writable, instance-immutable AspectDef
// with a fresh id.
func NewAspectDef(name string) *AspectDef {
	return NewAspectDefWithCapabilities(name, false, false)
}

// NewMutableAspectDef creates an AspectDef whose instances accept both
// property adds and removes.
func NewMutableAspectDef(name string) *AspectDef {
	return NewAspectDefWithCapabilities(name, true, true)
}

// NewAspectDefWithCapabilities creates an AspectDef with an explicit
// (can-add, can-remove) capability pair.
func NewAspectDefWithCapabilities(name string, canAdd, canRemove bool) *AspectDef {
	return &AspectDef{
		ID:                  uuid.New(),
		Name:                name,
		Readable:            true,
		Writable:            true,
		CanAddProperties:    canAdd,
		CanRemoveProperties: canRemove,
		props:               make(map[string]PropertyDef),
	}
}

// DefineProperty attaches a PropertyDef during schema construction. It is
// always permitted; the capability flags gate instance mutation, not schema
// construction. Returns ErrDuplicateName if the name is taken and
// ErrUnknownPropertyType if the def's type is not canonical.
func (a *AspectDef) DefineProperty(def PropertyDef) error {
	if !def.Type.Valid() {
		return ErrUnknownPropertyType
	}
	if _, ok := a.props[def.Name]; ok {
		return ErrDuplicateName
	}
	a.order = append(a.order, def.Name)
	a.props[def.Name] = def
	return nil
}

// MustDefineProperty is DefineProperty for construction sites where the
// inputs are static.
func (a *AspectDef) MustDefineProperty(def PropertyDef) *AspectDef {
	if err := a.DefineProperty(def); err != nil {
		panic(err)
	}
	return a
}

// Property returns the PropertyDef with the given name.
func (a *AspectDef) Property(name string) (PropertyDef, bool) {
	def, ok := a.props[name]
	return def, ok
}

// HasProperty reports whether a property with the given name is defined.
func (a *AspectDef) HasProperty(name string) bool {
	_, ok := a.props[name]
	return ok
}

// Properties returns the PropertyDefs in declaration order.
func (a *AspectDef) Properties() []PropertyDef {
	out := make([]PropertyDef, 0, len(a.order))
	for _, name := range a.order {
		out = append(out, a.props[name])
	}
	return out
}

// PropertyNames returns the property names in declaration order.
func (a *AspectDef) PropertyNames() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// Len returns the number of defined properties.
func (a *AspectDef) Len() int { return len(a.props) }

// FullyEquals compares name, flags, and every PropertyDef. Declaration
// order does not participate: two defs with the same properties declared in
// different orders are fully equal.
func (a *AspectDef) FullyEquals(o *AspectDef) bool {
	if a == nil || o == nil {
		return a == o
	}
	if a.Name != o.Name ||
		a.Readable != o.Readable || a.Writable != o.Writable ||
		a.CanAddProperties != o.CanAddProperties ||
		a.CanRemoveProperties != o.CanRemoveProperties ||
		len(a.props) != len(o.props) {
		return false
	}
	for name, def := range a.props {
		other, ok := o.props[name]
		if !ok || !def.FullyEquals(other) {
			return false
		}
	}
	return true
}

// Hash folds the def and every PropertyDef into a stable 64-bit structural
// hash. Properties are folded in canonical name order, never declaration or
// map iteration order, so construction path cannot affect the result.
func (a *AspectDef) Hash() uint64 {
	h := fnv.New64a()
	h.Write([]byte{
		hashBool(a.Readable),
		hashBool(a.Writable),
		hashBool(a.CanAddProperties),
		hashBool(a.CanRemoveProperties),
	})
	h.Write([]byte(a.Name))

	names := make([]string, 0, len(a.props))
	for name := range a.props {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		def := a.props[name]
		def.hashInto(h)
	}
	return h.Sum64()
}
