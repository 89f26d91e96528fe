// Round-trip tests for the flat hierarchy shapes.
package sqlite

import (
	"testing"

	"github.com/mesh-intelligence/facets/pkg/types"
)

func TestEntityList_RoundTrip(t *testing.T) {
	b := newAttachedBackend(t)

	c := types.NewCatalog(types.SpeciesSink)
	l := types.NewEntityList("queue")
	a, x, y := types.NewEntity(), types.NewEntity(), types.NewEntity()
	l.Append(a)
	l.Append(x)
	l.Append(y)
	l.Append(a) // duplicates survive
	c.AddHierarchy(l)

	if err := b.SaveCatalog(c); err != nil {
		t.Fatalf("SaveCatalog: %v", err)
	}
	loaded, err := b.LoadCatalog(c.ID)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}

	h, ok := loaded.Hierarchy("queue")
	if !ok {
		t.Fatal("hierarchy lost")
	}
	got := h.(*types.EntityList)
	if got.Version() != l.Version() {
		t.Errorf("version = %d, want %d", got.Version(), l.Version())
	}

	want := []*types.Entity{a, x, y, a}
	if got.Len() != len(want) {
		t.Fatalf("Len() = %d, want %d", got.Len(), len(want))
	}
	for i, w := range want {
		e, _ := got.At(i)
		if e.ID != w.ID {
			t.Errorf("position %d = %v, want %v", i, e.ID, w.ID)
		}
	}

	// Duplicate positions reload as the same *Entity.
	first, _ := got.At(0)
	last, _ := got.At(3)
	if first != last {
		t.Error("duplicate entries must dedupe to one *Entity on load")
	}
}

func TestEntityList_ShrinkOnResave(t *testing.T) {
	b := newAttachedBackend(t)

	c := types.NewCatalog(types.SpeciesSink)
	l := types.NewEntityList("queue")
	for i := 0; i < 4; i++ {
		l.Append(types.NewEntity())
	}
	c.AddHierarchy(l)
	if err := b.SaveCatalog(c); err != nil {
		t.Fatalf("SaveCatalog: %v", err)
	}

	l.RemoveAt(3)
	l.RemoveAt(2)
	if err := b.SaveCatalog(c); err != nil {
		t.Fatalf("re-SaveCatalog: %v", err)
	}

	loaded, err := b.LoadCatalog(c.ID)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	h, _ := loaded.Hierarchy("queue")
	if h.(*types.EntityList).Len() != 2 {
		t.Errorf("Len() after shrink = %d, want 2", h.(*types.EntityList).Len())
	}
}

func TestEntitySet_RoundTrip(t *testing.T) {
	b := newAttachedBackend(t)

	c := types.NewCatalog(types.SpeciesSink)
	s := types.NewEntitySet("members")
	e1, e2, e3 := types.NewEntity(), types.NewEntity(), types.NewEntity()
	s.Add(e1)
	s.Add(e2)
	s.Add(e3)
	s.Remove(e2)
	c.AddHierarchy(s)

	if err := b.SaveCatalog(c); err != nil {
		t.Fatalf("SaveCatalog: %v", err)
	}
	loaded, err := b.LoadCatalog(c.ID)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}

	got := mustHierarchy(t, loaded, "members").(*types.EntitySet)
	if got.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", got.Len())
	}
	members := got.Entities()
	if members[0].ID != e1.ID || members[1].ID != e3.ID {
		t.Errorf("insertion order lost: %v", members)
	}
}

func TestEntitySet_StaleMemberRemoval(t *testing.T) {
	b := newAttachedBackend(t)

	c := types.NewCatalog(types.SpeciesSink)
	s := types.NewEntitySet("members")
	e1, e2 := types.NewEntity(), types.NewEntity()
	s.Add(e1)
	s.Add(e2)
	c.AddHierarchy(s)
	if err := b.SaveCatalog(c); err != nil {
		t.Fatalf("SaveCatalog: %v", err)
	}

	s.Remove(e1)
	if err := b.SaveCatalog(c); err != nil {
		t.Fatalf("re-SaveCatalog: %v", err)
	}

	loaded, err := b.LoadCatalog(c.ID)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	got := mustHierarchy(t, loaded, "members").(*types.EntitySet)
	if got.Len() != 1 || got.Entities()[0].ID != e2.ID {
		t.Errorf("stale member survived: %v", got.Entities())
	}
}

func TestEntityDirectory_RoundTrip(t *testing.T) {
	b := newAttachedBackend(t)

	c := types.NewCatalog(types.SpeciesSink)
	d := types.NewEntityDirectory("index")
	e1, e2 := types.NewEntity(), types.NewEntity()
	d.Put("zulu", e1)
	d.Put("alpha", e2)
	c.AddHierarchy(d)

	if err := b.SaveCatalog(c); err != nil {
		t.Fatalf("SaveCatalog: %v", err)
	}
	loaded, err := b.LoadCatalog(c.ID)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}

	got := mustHierarchy(t, loaded, "index").(*types.EntityDirectory)
	if got.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", got.Len())
	}

	// Key insertion order survives, not sorted order.
	keys := got.Keys()
	if keys[0] != "zulu" || keys[1] != "alpha" {
		t.Errorf("Keys() = %v, want [zulu alpha]", keys)
	}
	e, ok := got.Get("zulu")
	if !ok || e.ID != e1.ID {
		t.Errorf("Get(zulu) = %v, %v", e, ok)
	}
}

func TestEntityDirectory_DeleteOnResave(t *testing.T) {
	b := newAttachedBackend(t)

	c := types.NewCatalog(types.SpeciesSink)
	d := types.NewEntityDirectory("index")
	d.Put("stay", types.NewEntity())
	d.Put("go", types.NewEntity())
	c.AddHierarchy(d)
	if err := b.SaveCatalog(c); err != nil {
		t.Fatalf("SaveCatalog: %v", err)
	}

	d.Delete("go")
	if err := b.SaveCatalog(c); err != nil {
		t.Fatalf("re-SaveCatalog: %v", err)
	}

	loaded, err := b.LoadCatalog(c.ID)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	got := mustHierarchy(t, loaded, "index").(*types.EntityDirectory)
	if got.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", got.Len())
	}
	if _, ok := got.Get("go"); ok {
		t.Error("deleted key survived the re-save")
	}
}

// An entity referenced by several hierarchies reloads as one *Entity.
func TestHierarchies_SharedEntityIdentity(t *testing.T) {
	b := newAttachedBackend(t)

	c := types.NewCatalog(types.SpeciesSink)
	e := types.NewEntity()

	l := types.NewEntityList("queue")
	l.Append(e)
	s := types.NewEntitySet("members")
	s.Add(e)
	d := types.NewEntityDirectory("index")
	d.Put("it", e)
	c.AddHierarchy(l)
	c.AddHierarchy(s)
	c.AddHierarchy(d)

	if err := b.SaveCatalog(c); err != nil {
		t.Fatalf("SaveCatalog: %v", err)
	}
	loaded, err := b.LoadCatalog(c.ID)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}

	fromList, _ := mustHierarchy(t, loaded, "queue").(*types.EntityList).At(0)
	fromSet := mustHierarchy(t, loaded, "members").(*types.EntitySet).Entities()[0]
	fromDir, _ := mustHierarchy(t, loaded, "index").(*types.EntityDirectory).Get("it")

	if fromList != fromSet || fromSet != fromDir {
		t.Error("the same entity id must load as one *Entity across hierarchies")
	}
	if fromList.ID != e.ID {
		t.Errorf("entity id = %v, want %v", fromList.ID, e.ID)
	}
}

func mustHierarchy(t *testing.T, c *types.Catalog, name string) types.Hierarchy {
	t.Helper()
	h, ok := c.Hierarchy(name)
	if !ok {
		t.Fatalf("hierarchy %q lost", name)
	}
	return h
}
