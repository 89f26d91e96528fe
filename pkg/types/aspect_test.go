// Tests for Aspect value access, coercion, and capability enforcement.
package types

import (
	"errors"
	"testing"
)

func personDef() *AspectDef {
	def := NewAspectDef("person")
	def.MustDefineProperty(PropertyDef{Name: "name", Type: TypeString})
	def.MustDefineProperty(PropertyDef{Name: "age", Type: TypeInteger, Nullable: true})
	def.MustDefineProperty(PropertyDef{Name: "tags", Type: TypeString, Multivalued: true})
	def.MustDefineProperty(PropertyDef{Name: "rank", Type: TypeInteger, HasDefault: true, Default: int64(10)})
	return def
}

func TestAspect_SetGet(t *testing.T) {
	a := NewAspect(NewEntity(), personDef())

	if err := a.Set("name", "Ada"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := a.Get("name")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "Ada" {
		t.Errorf("Get(name) = %v, want Ada", got)
	}

	// Set coerces to the canonical representation.
	if err := a.Set("age", 37); err != nil {
		t.Fatalf("Set(age, int): %v", err)
	}
	got, _ = a.Get("age")
	if got != int64(37) {
		t.Errorf("Get(age) = %v (%T), want int64(37)", got, got)
	}

	if _, err := a.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(undefined) error = %v, want ErrNotFound", err)
	}
	if err := a.Set("missing", 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Set(undefined) error = %v, want ErrNotFound", err)
	}
}

func TestAspect_UnsetReads(t *testing.T) {
	a := NewAspect(NewEntity(), personDef())

	// Unset single-valued without default reads nil.
	got, err := a.Get("name")
	if err != nil || got != nil {
		t.Errorf("Get(unset name) = %v, %v, want nil, nil", got, err)
	}

	// Unset single-valued with default reads the default.
	got, _ = a.Get("rank")
	if got != int64(10) {
		t.Errorf("Get(unset rank) = %v, want declared default 10", got)
	}

	// Unset multivalued reads nil, distinct from an explicit empty list.
	got, _ = a.Get("tags")
	if got != nil {
		t.Errorf("Get(unset tags) = %v, want nil", got)
	}
	if a.Has("tags") {
		t.Error("unset property must not count as populated")
	}
}

func TestAspect_Multivalued(t *testing.T) {
	a := NewAspect(NewEntity(), personDef())

	if err := a.Set("tags", []string{"x", "y"}); err != nil {
		t.Fatalf("Set multivalued: %v", err)
	}
	got, _ := a.Get("tags")
	list, ok := got.([]any)
	if !ok || len(list) != 2 || list[0] != "x" || list[1] != "y" {
		t.Errorf("Get(tags) = %v, want [x y]", got)
	}

	// A scalar set on a multivalued property wraps into a list.
	if err := a.Set("tags", "solo"); err != nil {
		t.Fatalf("Set scalar on multivalued: %v", err)
	}
	got, _ = a.Get("tags")
	if list := got.([]any); len(list) != 1 || list[0] != "solo" {
		t.Errorf("Get(tags) = %v, want [solo]", got)
	}

	// nil on a multivalued property stores an empty populated list.
	if err := a.Set("tags", nil); err != nil {
		t.Fatalf("Set nil on multivalued: %v", err)
	}
	got, _ = a.Get("tags")
	if list := got.([]any); len(list) != 0 {
		t.Errorf("Get(tags) after nil set = %v, want []", got)
	}
	if !a.Has("tags") {
		t.Error("explicitly emptied multivalued property must count as populated")
	}
}

func TestAspect_NullRule(t *testing.T) {
	a := NewAspect(NewEntity(), personDef())

	if err := a.Set("name", nil); !errors.Is(err, ErrNullViolation) {
		t.Errorf("nil on non-nullable error = %v, want ErrNullViolation", err)
	}
	if err := a.Set("age", nil); err != nil {
		t.Errorf("nil on nullable property: %v", err)
	}
	got, _ := a.Get("age")
	if got != nil {
		t.Errorf("Get(age) after null set = %v, want nil", got)
	}
	if !a.Has("age") {
		t.Error("explicit null must count as populated")
	}
}

func TestAspect_AccessFlags(t *testing.T) {
	def := personDef()
	def.Readable = false
	a := NewAspect(NewEntity(), def)
	if _, err := a.Get("name"); !errors.Is(err, ErrSchemaViolation) {
		t.Errorf("Get on unreadable def error = %v, want ErrSchemaViolation", err)
	}

	def = personDef()
	def.Writable = false
	a = NewAspect(NewEntity(), def)
	if err := a.Set("name", "x"); !errors.Is(err, ErrSchemaViolation) {
		t.Errorf("Set on unwritable def error = %v, want ErrSchemaViolation", err)
	}

	// UnsafeGet and UnsafeSet bypass the flags.
	a.UnsafeSet("name", "raw")
	if got, ok := a.UnsafeGet("name"); !ok || got != "raw" {
		t.Errorf("UnsafeGet = %v, %v", got, ok)
	}
}

func TestAspect_AddRemove(t *testing.T) {
	def := NewMutableAspectDef("doc")
	def.MustDefineProperty(PropertyDef{Name: "title", Type: TypeString, Removable: true})
	def.MustDefineProperty(PropertyDef{Name: "pinned", Type: TypeBoolean})
	a := NewAspect(NewEntity(), def)

	if err := a.Add("title", "intro"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := a.Add("title", "again"); !errors.Is(err, ErrSchemaViolation) {
		t.Errorf("Add on populated property error = %v, want ErrSchemaViolation", err)
	}

	prior, err := a.Remove("title")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if prior != "intro" {
		t.Errorf("Remove returned %v, want prior value", prior)
	}
	if a.Has("title") {
		t.Error("removed property must be unpopulated")
	}

	// Non-removable property refuses removal even on a can-remove def.
	if err := a.Set("pinned", true); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := a.Remove("pinned"); !errors.Is(err, ErrSchemaViolation) {
		t.Errorf("Remove of non-removable error = %v, want ErrSchemaViolation", err)
	}

	// Immutable defs refuse instance adds and removes outright.
	frozen := NewAspect(NewEntity(), personDef())
	if err := frozen.Add("name", "x"); !errors.Is(err, ErrSchemaViolation) {
		t.Errorf("Add on immutable def error = %v, want ErrSchemaViolation", err)
	}
	if _, err := frozen.Remove("name"); !errors.Is(err, ErrSchemaViolation) {
		t.Errorf("Remove on immutable def error = %v, want ErrSchemaViolation", err)
	}
}

func TestAspect_Names(t *testing.T) {
	a := NewAspect(NewEntity(), personDef())
	a.Set("tags", []string{"t"})
	a.Set("name", "Ada")

	// Names come back in declaration order, not write order.
	names := a.Names()
	if len(names) != 2 || names[0] != "name" || names[1] != "tags" {
		t.Errorf("Names() = %v, want [name tags]", names)
	}
}
