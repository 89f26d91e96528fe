package types

import "github.com/google/uuid"

// Store is the backend-agnostic persistence interface. Callers attach to a
// backend, save and load whole catalogs, and detach when done. A save or
// load uses one connection for its full duration and either completes
// fully or leaves no trace: the outcomes are a reconstructed catalog, a
// NotFound absence signal, or an error, never a partial result.
type Store interface {
	// Attach connects the store to the backend described by config.
	// Returns ErrAlreadyAttached if called while attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent.
	Detach() error

	// SaveCatalog persists the catalog, its schema, and every hierarchy in
	// one transaction. Any failure rolls the whole save back.
	SaveCatalog(c *Catalog) error

	// LoadCatalog reconstructs a catalog by id. Returns ErrNotFound when no
	// such catalog is stored.
	LoadCatalog(id uuid.UUID) (*Catalog, error)

	// CatalogExists reports whether a catalog row exists for id.
	CatalogExists(id uuid.UUID) (bool, error)

	// DeleteCatalog removes the catalog and all of its dependent rows.
	// Returns false when no such catalog was stored.
	DeleteCatalog(id uuid.UUID) (bool, error)

	// ListCatalogs enumerates stored catalogs.
	ListCatalogs() ([]CatalogInfo, error)

	// CreateAspectTable creates the mapped table described by mapping and
	// registers the mapping.
	CreateAspectTable(def *AspectDef, mapping TableMapping) error

	// AddAspectTableMapping registers a mapping for an existing table.
	// Returns ErrStructuralInconsistency on conflicting registrations.
	AddAspectTableMapping(mapping TableMapping) error
}
