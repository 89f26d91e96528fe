// Tests for the flat hierarchy shapes: list, set, directory, aspect map.
package types

import (
	"errors"
	"testing"
)

func TestHierarchyType_Parse(t *testing.T) {
	for _, ht := range HierarchyTypes {
		got, err := ParseHierarchyType(ht.Code())
		if err != nil || got != ht {
			t.Errorf("ParseHierarchyType(%q) = %v, %v", ht.Code(), got, err)
		}
	}
	if _, err := ParseHierarchyType("XX"); err != ErrUnknownHierarchyType {
		t.Errorf("ParseHierarchyType(XX) error = %v, want ErrUnknownHierarchyType", err)
	}
}

func TestEntityList(t *testing.T) {
	l := NewEntityList("queue")
	if l.Type() != HierarchyEntityList {
		t.Errorf("Type() = %v", l.Type())
	}

	a, b, c := NewEntity(), NewEntity(), NewEntity()
	l.Append(a)
	l.Append(c)
	if err := l.Insert(1, b); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if l.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", l.Len())
	}
	for i, want := range []*Entity{a, b, c} {
		got, err := l.At(i)
		if err != nil || got != want {
			t.Errorf("At(%d) = %v, %v, want %v", i, got, err, want)
		}
	}

	// Duplicates are allowed.
	l.Append(a)
	if l.Len() != 4 {
		t.Errorf("Len() after duplicate append = %d, want 4", l.Len())
	}

	removed, err := l.RemoveAt(1)
	if err != nil || removed != b {
		t.Errorf("RemoveAt(1) = %v, %v, want %v", removed, err, b)
	}
	if _, err := l.At(10); !errors.Is(err, ErrNotFound) {
		t.Errorf("At(out of range) error = %v, want ErrNotFound", err)
	}
	if err := l.Insert(-1, a); !errors.Is(err, ErrNotFound) {
		t.Errorf("Insert(-1) error = %v, want ErrNotFound", err)
	}
}

func TestEntityList_Version(t *testing.T) {
	l := NewEntityList("queue")
	if l.Version() != 0 {
		t.Fatalf("fresh hierarchy version = %d, want 0", l.Version())
	}
	l.Append(NewEntity())
	l.Append(NewEntity())
	l.RemoveAt(0)
	if l.Version() != 3 {
		t.Errorf("version after three mutations = %d, want 3", l.Version())
	}
}

func TestEntitySet(t *testing.T) {
	s := NewEntitySet("members")
	a, b := NewEntity(), NewEntity()

	if !s.Add(a) || !s.Add(b) {
		t.Fatal("Add of new members must report change")
	}
	if s.Add(a) {
		t.Error("Add of existing member must report no change")
	}
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	if !s.Contains(a) || s.Contains(NewEntity()) {
		t.Error("Contains mismatch")
	}

	// Insertion order is preserved.
	members := s.Entities()
	if members[0] != a || members[1] != b {
		t.Errorf("Entities() = %v, want insertion order", members)
	}

	if !s.Remove(a) || s.Remove(a) {
		t.Error("Remove must report change exactly once")
	}
	if s.Contains(a) {
		t.Error("removed member still present")
	}
}

func TestEntityDirectory(t *testing.T) {
	d := NewEntityDirectory("index")
	a, b, c := NewEntity(), NewEntity(), NewEntity()

	d.Put("first", a)
	d.Put("second", b)

	got, ok := d.Get("first")
	if !ok || got != a {
		t.Errorf("Get(first) = %v, %v", got, ok)
	}
	if _, ok := d.Get("missing"); ok {
		t.Error("Get of missing key must report absence")
	}

	// Overwrite replaces the entity but keeps the key's position.
	d.Put("first", c)
	got, _ = d.Get("first")
	if got != c {
		t.Errorf("Get(first) after overwrite = %v, want replacement", got)
	}
	keys := d.Keys()
	if len(keys) != 2 || keys[0] != "first" || keys[1] != "second" {
		t.Errorf("Keys() = %v, want [first second]", keys)
	}

	if !d.Delete("first") || d.Delete("first") {
		t.Error("Delete must report change exactly once")
	}
	if d.Len() != 1 {
		t.Errorf("Len() = %d, want 1", d.Len())
	}
}

func TestAspectMap(t *testing.T) {
	def := personDef()
	m := NewAspectMap("people", def)

	e1, e2 := NewEntity(), NewEntity()
	a1 := NewAspect(e1, def)
	a2 := NewAspect(e2, def)

	if err := m.Put(a1); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := m.Put(a2); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok := m.Get(e1)
	if !ok || got != a1 {
		t.Errorf("Get(e1) = %v, %v", got, ok)
	}

	// Re-putting an entity replaces its aspect, keeps its position.
	replacement := NewAspect(e1, def)
	if err := m.Put(replacement); err != nil {
		t.Fatalf("Put replacement: %v", err)
	}
	if m.Len() != 2 {
		t.Errorf("Len() after replacement = %d, want 2", m.Len())
	}
	members := m.Entities()
	if members[0] != e1 || members[1] != e2 {
		t.Errorf("Entities() = %v, want original order", members)
	}

	// Aspects of a foreign def are rejected.
	foreign := NewAspect(NewEntity(), personDef())
	if err := m.Put(foreign); !errors.Is(err, ErrAspectDefMismatch) {
		t.Errorf("Put of foreign-def aspect error = %v, want ErrAspectDefMismatch", err)
	}

	if !m.Remove(e1) || m.Remove(e1) {
		t.Error("Remove must report change exactly once")
	}
}
