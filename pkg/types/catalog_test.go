// Tests for Catalog registration, species tags, and schema hashing.
package types

import (
	"errors"
	"testing"
)

func TestParseSpecies(t *testing.T) {
	for _, s := range AllSpecies {
		got, err := ParseSpecies(string(s))
		if err != nil || got != s {
			t.Errorf("ParseSpecies(%q) = %v, %v", s, got, err)
		}
	}
	if _, err := ParseSpecies("SWAMP"); err != ErrUnknownSpecies {
		t.Errorf("ParseSpecies(SWAMP) error = %v, want ErrUnknownSpecies", err)
	}
}

func TestCatalog_AddAspectDef(t *testing.T) {
	c := NewCatalog(SpeciesSink)
	def := NewAspectDef("person")

	if err := c.AddAspectDef(def); err != nil {
		t.Fatalf("AddAspectDef: %v", err)
	}
	if err := c.AddAspectDef(NewAspectDef("person")); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("duplicate def error = %v, want ErrDuplicateName", err)
	}

	got, ok := c.AspectDef("person")
	if !ok || got != def {
		t.Errorf("AspectDef(person) = %v, %v", got, ok)
	}
	if _, ok := c.AspectDef("missing"); ok {
		t.Error("lookup of missing def must report absence")
	}
}

func TestCatalog_AddHierarchy(t *testing.T) {
	c := NewCatalog(SpeciesSink)
	l := NewEntityList("queue")

	if err := c.AddHierarchy(l); err != nil {
		t.Fatalf("AddHierarchy: %v", err)
	}
	if err := c.AddHierarchy(NewEntitySet("queue")); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("duplicate hierarchy error = %v, want ErrDuplicateName", err)
	}

	got, ok := c.Hierarchy("queue")
	if !ok || got != Hierarchy(l) {
		t.Errorf("Hierarchy(queue) = %v, %v", got, ok)
	}

	// Registration order is preserved.
	c.AddHierarchy(NewEntityDirectory("index"))
	hiers := c.Hierarchies()
	if len(hiers) != 2 || hiers[0].Name() != "queue" || hiers[1].Name() != "index" {
		t.Errorf("Hierarchies() order wrong: %v", hiers)
	}
}

func TestCatalog_SchemaHash(t *testing.T) {
	build := func(names ...string) *Catalog {
		c := NewCatalog(SpeciesSink)
		for _, name := range names {
			def := NewAspectDef(name)
			def.MustDefineProperty(PropertyDef{Name: "p", Type: TypeString})
			c.AddAspectDef(def)
		}
		return c
	}

	// Registration order must not matter.
	forward := build("alpha", "beta")
	backward := build("beta", "alpha")
	if forward.SchemaHash() != backward.SchemaHash() {
		t.Error("def registration order must not change SchemaHash")
	}

	// Content must.
	other := build("alpha", "gamma")
	if forward.SchemaHash() == other.SchemaHash() {
		t.Error("different schemas must hash differently")
	}

	// Hierarchies do not participate in the schema hash.
	withHier := build("alpha", "beta")
	withHier.AddHierarchy(NewEntityList("queue"))
	if forward.SchemaHash() != withHier.SchemaHash() {
		t.Error("hierarchies must not change SchemaHash")
	}
}
