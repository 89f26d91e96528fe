// Tests for the mapped-table strategy across its four key shapes.
package sqlite

import (
	"errors"
	"strings"
	"testing"

	"github.com/mesh-intelligence/facets/pkg/types"
)

// pointDef is a small def used by the mapped-table tests.
func pointDef() *types.AspectDef {
	def := types.NewAspectDef("point")
	def.MustDefineProperty(types.PropertyDef{Name: "x", Type: types.TypeFloat})
	def.MustDefineProperty(types.PropertyDef{Name: "y", Type: types.TypeFloat})
	def.MustDefineProperty(types.PropertyDef{Name: "label", Type: types.TypeString, Nullable: true})
	def.MustDefineProperty(types.PropertyDef{Name: "tags", Type: types.TypeString, Multivalued: true})
	return def
}

// saveMappedCatalog builds a catalog with n member aspects under the
// mapped def and saves it.
func saveMappedCatalog(t *testing.T, b *Backend, def *types.AspectDef, n int) *types.Catalog {
	t.Helper()
	c := types.NewCatalog(types.SpeciesSink)
	c.AddAspectDef(def)
	m := types.NewAspectMap("points", def)
	c.AddHierarchy(m)
	for i := 0; i < n; i++ {
		a := types.NewAspect(types.NewEntity(), def)
		a.Set("x", float64(i))
		a.Set("y", float64(i)*2)
		a.Set("tags", []string{"t"})
		m.Put(a)
	}
	if err := b.SaveCatalog(c); err != nil {
		t.Fatalf("SaveCatalog: %v", err)
	}
	return c
}

// checkMappedRoundTrip reloads the catalog and verifies the member values.
func checkMappedRoundTrip(t *testing.T, b *Backend, c *types.Catalog, n int) {
	t.Helper()
	loaded, err := b.LoadCatalog(c.ID)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	got := mustHierarchy(t, loaded, "points").(*types.AspectMap)
	if got.Len() != n {
		t.Fatalf("Len() = %d, want %d", got.Len(), n)
	}
	orig := mustHierarchy(t, c, "points").(*types.AspectMap)
	for i, e := range got.Entities() {
		if e.ID != orig.Entities()[i].ID {
			t.Fatalf("member %d = %v, want %v", i, e.ID, orig.Entities()[i].ID)
		}
		aspect, _ := got.Get(e)
		x, err := aspect.Get("x")
		if err != nil {
			t.Fatalf("Get(x): %v", err)
		}
		if x != float64(i) {
			t.Errorf("member %d x = %v, want %v", i, x, float64(i))
		}
		tags, _ := aspect.Get("tags")
		if list, ok := tags.([]any); !ok || len(list) != 1 || list[0] != "t" {
			t.Errorf("member %d tags = %v, want [t]", i, tags)
		}
		// label was never set; single-valued NULL reloads unpopulated.
		if aspect.Has("label") {
			t.Errorf("member %d label should reload unpopulated", i)
		}
	}
}

func TestMapped_CompositeKey(t *testing.T) {
	b := newAttachedBackend(t)
	def := pointDef()
	err := b.CreateAspectTable(def, types.TableMapping{
		TableName: "points_composite", HasCatalogID: true, HasEntityID: true,
	})
	if err != nil {
		t.Fatalf("CreateAspectTable: %v", err)
	}
	c := saveMappedCatalog(t, b, def, 3)
	checkMappedRoundTrip(t, b, c, 3)
}

func TestMapped_EntityKey(t *testing.T) {
	b := newAttachedBackend(t)
	def := pointDef()
	err := b.CreateAspectTable(def, types.TableMapping{
		TableName: "points_entity", HasEntityID: true,
	})
	if err != nil {
		t.Fatalf("CreateAspectTable: %v", err)
	}
	c := saveMappedCatalog(t, b, def, 3)
	checkMappedRoundTrip(t, b, c, 3)

	// Re-save upserts by primary key rather than duplicating rows.
	if err := b.SaveCatalog(c); err != nil {
		t.Fatalf("re-SaveCatalog: %v", err)
	}
	db, _ := b.handle()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM points_entity").Scan(&n); err != nil {
		t.Fatalf("counting rows: %v", err)
	}
	if n != 3 {
		t.Errorf("points_entity holds %d rows after re-save, want 3", n)
	}

	// Removing a member removes its row on the next save.
	m := mustHierarchy(t, c, "points").(*types.AspectMap)
	removed := m.Entities()[0]
	m.Remove(removed)
	if err := b.SaveCatalog(c); err != nil {
		t.Fatalf("SaveCatalog after Remove: %v", err)
	}
	if err := db.QueryRow("SELECT COUNT(*) FROM points_entity").Scan(&n); err != nil {
		t.Fatalf("counting rows: %v", err)
	}
	if n != 2 {
		t.Errorf("points_entity holds %d rows after member removal, want 2", n)
	}
	err = db.QueryRow("SELECT COUNT(*) FROM points_entity WHERE entity_id = ?",
		removed.ID.String()).Scan(&n)
	if err != nil {
		t.Fatalf("counting removed member rows: %v", err)
	}
	if n != 0 {
		t.Errorf("%d rows linger for removed member", n)
	}
}

func TestMapped_CatalogKey(t *testing.T) {
	b := newAttachedBackend(t)
	def := pointDef()
	err := b.CreateAspectTable(def, types.TableMapping{
		TableName: "points_catalog", HasCatalogID: true,
	})
	if err != nil {
		t.Fatalf("CreateAspectTable: %v", err)
	}
	first := saveMappedCatalog(t, b, def, 2)
	second := saveMappedCatalog(t, b, def, 4)

	// The clear on re-save is catalog-scoped: saving one catalog must not
	// disturb the other's rows.
	if err := b.SaveCatalog(first); err != nil {
		t.Fatalf("re-SaveCatalog: %v", err)
	}
	checkMappedRoundTrip(t, b, first, 2)
	checkMappedRoundTrip(t, b, second, 4)
}

func TestMapped_Keyless(t *testing.T) {
	b := newAttachedBackend(t)
	def := pointDef()
	err := b.CreateAspectTable(def, types.TableMapping{TableName: "points_bare"})
	if err != nil {
		t.Fatalf("CreateAspectTable: %v", err)
	}
	c := saveMappedCatalog(t, b, def, 3)
	checkMappedRoundTrip(t, b, c, 3)

	// Keyless re-save truncates and rewrites.
	if err := b.SaveCatalog(c); err != nil {
		t.Fatalf("re-SaveCatalog: %v", err)
	}
	checkMappedRoundTrip(t, b, c, 3)
}

func TestMapped_KeylessCountMismatch(t *testing.T) {
	b := newAttachedBackend(t)
	def := pointDef()
	if err := b.CreateAspectTable(def, types.TableMapping{TableName: "points_bad"}); err != nil {
		t.Fatalf("CreateAspectTable: %v", err)
	}
	c := saveMappedCatalog(t, b, def, 3)

	// Remove one row behind the engine's back; the zip can no longer
	// associate rows with members.
	db, _ := b.handle()
	if _, err := db.Exec("DELETE FROM points_bad WHERE rowid = (SELECT MIN(rowid) FROM points_bad)"); err != nil {
		t.Fatalf("deleting row: %v", err)
	}
	if _, err := b.LoadCatalog(c.ID); !errors.Is(err, types.ErrStructuralInconsistency) {
		t.Errorf("LoadCatalog error = %v, want ErrStructuralInconsistency", err)
	}
}

func TestMapped_RenamedColumns(t *testing.T) {
	b := newAttachedBackend(t)
	def := types.NewAspectDef("reading")
	def.MustDefineProperty(types.PropertyDef{Name: "value", Type: types.TypeFloat})
	err := b.CreateAspectTable(def, types.TableMapping{
		TableName: "readings", HasEntityID: true,
		Columns: map[string]string{"value": "reading_value"},
	})
	if err != nil {
		t.Fatalf("CreateAspectTable: %v", err)
	}

	c := types.NewCatalog(types.SpeciesSink)
	c.AddAspectDef(def)
	m := types.NewAspectMap("readings", def)
	c.AddHierarchy(m)
	a := types.NewAspect(types.NewEntity(), def)
	a.Set("value", 1.5)
	m.Put(a)
	if err := b.SaveCatalog(c); err != nil {
		t.Fatalf("SaveCatalog: %v", err)
	}

	// The renamed column is really in the table.
	db, _ := b.handle()
	var v float64
	if err := db.QueryRow("SELECT reading_value FROM readings").Scan(&v); err != nil {
		t.Fatalf("reading renamed column: %v", err)
	}
	if v != 1.5 {
		t.Errorf("reading_value = %v, want 1.5", v)
	}

	loaded, err := b.LoadCatalog(c.ID)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	aspect, _ := mustHierarchy(t, loaded, "readings").(*types.AspectMap).Get(m.Entities()[0])
	if got, _ := aspect.Get("value"); got != 1.5 {
		t.Errorf("Get(value) = %v, want 1.5", got)
	}
}

func TestMappedTableDDL_KeyShapes(t *testing.T) {
	def := types.NewAspectDef("point")
	def.MustDefineProperty(types.PropertyDef{Name: "x", Type: types.TypeFloat})

	tests := []struct {
		name        string
		mapping     types.TableMapping
		wantPK      string
		wantColumns []string
	}{
		{
			"composite",
			types.TableMapping{AspectDef: def, TableName: "t", HasCatalogID: true, HasEntityID: true},
			"PRIMARY KEY (catalog_id, entity_id)",
			[]string{"catalog_id TEXT NOT NULL", "entity_id TEXT NOT NULL"},
		},
		{
			"entity only",
			types.TableMapping{AspectDef: def, TableName: "t", HasEntityID: true},
			"PRIMARY KEY (entity_id)",
			[]string{"entity_id TEXT NOT NULL"},
		},
		{
			"catalog only",
			types.TableMapping{AspectDef: def, TableName: "t", HasCatalogID: true},
			"",
			[]string{"catalog_id TEXT NOT NULL"},
		},
		{
			"keyless",
			types.TableMapping{AspectDef: def, TableName: "t"},
			"",
			nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ddl, err := mappedTableDDL(tt.mapping)
			if err != nil {
				t.Fatalf("mappedTableDDL: %v", err)
			}
			if tt.wantPK != "" && !strings.Contains(ddl, tt.wantPK) {
				t.Errorf("DDL missing %q:\n%s", tt.wantPK, ddl)
			}
			if tt.wantPK == "" && strings.Contains(ddl, "PRIMARY KEY") {
				t.Errorf("DDL has unexpected primary key:\n%s", ddl)
			}
			for _, col := range tt.wantColumns {
				if !strings.Contains(ddl, col) {
					t.Errorf("DDL missing column %q:\n%s", col, ddl)
				}
			}
			if !strings.Contains(ddl, "x ") {
				t.Errorf("DDL missing property column:\n%s", ddl)
			}
		})
	}
}
