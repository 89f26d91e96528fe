// Package integration provides shared test helpers for integration tests
// exercising the public facets API end to end.
package integration

import (
	"testing"

	"github.com/mesh-intelligence/facets/pkg/sqlite"
	"github.com/mesh-intelligence/facets/pkg/types"
)

// setupStore creates a store attached to an isolated temp directory. Each
// test case gets its own store instance for isolation.
func setupStore(t *testing.T) (types.Store, string) {
	t.Helper()
	dir := t.TempDir()
	store := sqlite.NewBackend()
	if err := store.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	t.Cleanup(func() { store.Detach() })
	return store, dir
}

// reopenStore attaches a fresh store over an existing data directory.
func reopenStore(t *testing.T, dir string) types.Store {
	t.Helper()
	store := sqlite.NewBackend()
	if err := store.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}); err != nil {
		t.Fatalf("re-Attach: %v", err)
	}
	t.Cleanup(func() { store.Detach() })
	return store
}

// personDef builds the aspect def shared by the lifecycle scenarios.
func personDef(t *testing.T) *types.AspectDef {
	t.Helper()
	def := types.NewAspectDef("person")
	def.MustDefineProperty(types.PropertyDef{Name: "name", Type: types.TypeString})
	def.MustDefineProperty(types.PropertyDef{Name: "age", Type: types.TypeInteger, Nullable: true})
	def.MustDefineProperty(types.PropertyDef{Name: "tags", Type: types.TypeString, Multivalued: true})
	return def
}
