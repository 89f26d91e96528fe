package types

import "fmt"

// Aspect binds one AspectDef's properties to one Entity. Checked operations
// (Get, Set, Add, Remove) enforce the def's access flags, the individual
// PropertyDef flags, and value coercion; UnsafeGet and UnsafeSet are the
// unchecked primitives the checked operations are built on.
type Aspect struct {
	entity *Entity
	def    *AspectDef
	values map[string]any
}

// NewAspect creates an empty aspect for the given entity and def.
func NewAspect(entity *Entity, def *AspectDef) *Aspect {
	return &Aspect{
		entity: entity,
		def:    def,
		values: make(map[string]any),
	}
}

// Entity returns the owning entity.
func (a *Aspect) Entity() *Entity { return a.entity }

// Def returns the governing AspectDef.
func (a *Aspect) Def() *AspectDef { return a.def }

// Has reports whether the named property has been populated on this
// instance. An explicitly stored empty list counts as populated; a property
// never written does not.
func (a *Aspect) Has(name string) bool {
	_, ok := a.values[name]
	return ok
}

// Names returns the populated property names in def declaration order.
func (a *Aspect) Names() []string {
	out := make([]string, 0, len(a.values))
	for _, name := range a.def.PropertyNames() {
		if _, ok := a.values[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

// Get reads a property value. Requires the def to be readable. An unset
// single-valued property yields its declared default, or nil; an unset
// multivalued property yields nil.
func (a *Aspect) Get(name string) (any, error) {
	if !a.def.Readable {
		return nil, schemaViolation(a.def.Name, name, "read")
	}
	prop, ok := a.def.Property(name)
	if !ok {
		return nil, fmt.Errorf("property %q: %w", name, ErrNotFound)
	}
	value, ok := a.values[name]
	if !ok {
		if prop.Multivalued {
			return nil, nil
		}
		return prop.DefaultValue(), nil
	}
	return value, nil
}

// Set writes a property value, coercing it to the declared type. Requires
// the def to be writable. Writing nil to a non-nullable property fails with
// ErrNullViolation.
func (a *Aspect) Set(name string, value any) error {
	if !a.def.Writable {
		return schemaViolation(a.def.Name, name, "write")
	}
	prop, ok := a.def.Property(name)
	if !ok {
		return fmt.Errorf("property %q: %w", name, ErrNotFound)
	}
	coerced, err := a.coerceFor(prop, value)
	if err != nil {
		return err
	}
	a.values[name] = coerced
	return nil
}

// Add populates a property that is not currently present on the instance.
// Requires the def's can-add capability in addition to Set's checks.
func (a *Aspect) Add(name string, value any) error {
	if !a.def.CanAddProperties {
		return schemaViolation(a.def.Name, name, "add")
	}
	if a.Has(name) {
		return schemaViolation(a.def.Name, name, "add of populated property")
	}
	return a.Set(name, value)
}

// Remove unpopulates a property and returns its prior value. Requires the
// def's can-remove capability and the property's removable flag.
func (a *Aspect) Remove(name string) (any, error) {
	if !a.def.CanRemoveProperties {
		return nil, schemaViolation(a.def.Name, name, "remove")
	}
	prop, ok := a.def.Property(name)
	if !ok {
		return nil, fmt.Errorf("property %q: %w", name, ErrNotFound)
	}
	if !prop.Removable {
		return nil, schemaViolation(a.def.Name, name, "remove")
	}
	value, ok := a.values[name]
	if !ok {
		return nil, fmt.Errorf("property %q not populated: %w", name, ErrNotFound)
	}
	delete(a.values, name)
	return value, nil
}

// UnsafeGet reads a raw stored value with no permission checks. The second
// return reports whether the property is populated.
func (a *Aspect) UnsafeGet(name string) (any, bool) {
	value, ok := a.values[name]
	return value, ok
}

// UnsafeSet stores a value with no permission checks and no coercion. The
// caller is responsible for the value already being canonical.
func (a *Aspect) UnsafeSet(name string, value any) {
	a.values[name] = value
}

// coerceFor applies the null rule and type coercion for one PropertyDef.
func (a *Aspect) coerceFor(prop PropertyDef, value any) (any, error) {
	if value == nil {
		if !prop.Nullable && !prop.Multivalued {
			return nil, fmt.Errorf("property %q: %w", prop.Name, ErrNullViolation)
		}
		if prop.Multivalued {
			return []any{}, nil
		}
		return nil, nil
	}
	if prop.Multivalued {
		list, err := CoerceList(value, prop.Type)
		if err != nil {
			return nil, err
		}
		if list == nil {
			list = []any{}
		}
		return list, nil
	}
	return Coerce(value, prop.Type)
}
