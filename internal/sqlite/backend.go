// Package sqlite implements the SQLite storage backend for Facets: the
// persistence engine that serializes catalogs, schemas, and hierarchies
// into relational rows and reconstructs them.
// See docs/ARCHITECTURE.md § Persistence Engine.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/facets/pkg/types"
)

// Compile-time interface check: Backend must implement Store.
var _ types.Store = (*Backend)(nil)

// Backend implements the Store interface over a single SQLite database
// file. Table mappings registered on the backend select the mapped-table
// strategy for their AspectDefs; everything else persists through the
// default EAV strategy.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	logger   *zap.SugaredLogger

	// mappings is keyed by AspectDef id. Concurrent structural changes are
	// not serialized beyond this lock; callers coordinate conflicting
	// registrations.
	mappings map[uuid.UUID]types.TableMapping
}

// NewBackend creates an unattached backend. Call Attach with a Config to
// initialize.
func NewBackend() *Backend {
	return &Backend{
		logger:   zap.NewNop().Sugar(),
		mappings: make(map[uuid.UUID]types.TableMapping),
	}
}

// Attach opens (or creates) the database under config.DataDir and ensures
// the engine schema exists. Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "facets.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return fmt.Errorf("enabling foreign keys: %w", err)
	}
	if err := createSchema(db); err != nil {
		db.Close()
		return fmt.Errorf("creating schema: %w", err)
	}

	logger := zap.NewNop()
	if config.Debug {
		logger, err = zap.NewDevelopment()
		if err != nil {
			db.Close()
			return fmt.Errorf("creating logger: %w", err)
		}
	}

	b.db = db
	b.config = config
	b.logger = logger.Sugar()
	b.attached = true
	b.logger.Debugw("backend attached", "path", dbPath)
	return nil
}

// Detach closes the database. Idempotent; after Detach all operations
// return ErrStoreDetached.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}
	b.attached = false
	b.mappings = make(map[uuid.UUID]types.TableMapping)
	return nil
}

// handle returns the database handle while attached.
func (b *Backend) handle() (*sql.DB, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrStoreDetached
	}
	return b.db, nil
}

// mappingFor returns the registered table mapping for an AspectDef id.
func (b *Backend) mappingFor(defID uuid.UUID) (types.TableMapping, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	m, ok := b.mappings[defID]
	return m, ok
}

// AddAspectTableMapping registers a mapped-table strategy for the
// mapping's AspectDef. A second registration for the same def must agree
// with the first; a conflicting one is a structural inconsistency.
func (b *Backend) AddAspectTableMapping(mapping types.TableMapping) error {
	if err := mapping.Validate(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.ErrStoreDetached
	}
	if existing, ok := b.mappings[mapping.AspectDef.ID]; ok {
		if existing.TableName != mapping.TableName ||
			existing.HasCatalogID != mapping.HasCatalogID ||
			existing.HasEntityID != mapping.HasEntityID {
			return fmt.Errorf("conflicting table mapping for aspect def %q: %w",
				mapping.AspectDef.Name, types.ErrStructuralInconsistency)
		}
	}
	b.mappings[mapping.AspectDef.ID] = mapping
	return nil
}

// CreateAspectTable creates the mapped table for def per mapping, then
// registers the mapping.
func (b *Backend) CreateAspectTable(def *types.AspectDef, mapping types.TableMapping) error {
	if mapping.AspectDef == nil {
		mapping.AspectDef = def
	}
	if mapping.AspectDef != def {
		return fmt.Errorf("mapping bound to a different aspect def: %w", types.ErrStructuralInconsistency)
	}
	if err := mapping.Validate(); err != nil {
		return err
	}

	db, err := b.handle()
	if err != nil {
		return err
	}
	ddl, err := mappedTableDDL(mapping)
	if err != nil {
		return err
	}
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("creating aspect table %s: %w", mapping.TableName, err)
	}
	b.logger.Debugw("created aspect table", "table", mapping.TableName, "aspect_def", def.Name)
	return b.AddAspectTableMapping(mapping)
}
