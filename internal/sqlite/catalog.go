// Catalog save/load orchestration. A save acquires one transaction, writes
// the catalog row, schema, and every hierarchy, and commits; any failure
// rolls the whole save back so no partial catalog is ever persisted. A load
// either returns a fully reconstructed catalog, ErrNotFound, or an error,
// never a partial graph.
package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/facets/pkg/types"
)

// loadContext carries per-load state: the entity registry deduplicating
// entity references across hierarchies. It is not shared across loads.
type loadContext struct {
	registry *types.EntityRegistry
}

// SaveCatalog persists the catalog in one transaction.
func (b *Backend) SaveCatalog(c *types.Catalog) error {
	db, err := b.handle()
	if err != nil {
		return err
	}
	if !c.Species.Valid() {
		return fmt.Errorf("catalog %s: %w", c.ID, types.ErrUnknownSpecies)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("saving catalog %s: beginning transaction: %w", c.ID, err)
	}
	defer tx.Rollback()

	if err := b.saveCatalogTx(tx, c); err != nil {
		return fmt.Errorf("saving catalog %s: %w", c.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("saving catalog %s: committing: %w", c.ID, err)
	}
	c.Version++
	b.logger.Debugw("saved catalog", "catalog", c.ID, "version", c.Version)
	return nil
}

func (b *Backend) saveCatalogTx(tx *sql.Tx, c *types.Catalog) error {
	var upstream any
	if c.Upstream != uuid.Nil {
		upstream = c.Upstream.String()
	}
	_, err := tx.Exec(
		`INSERT INTO catalog (catalog_id, species, upstream_id, version) VALUES (?, ?, ?, ?)
		 ON CONFLICT(catalog_id) DO UPDATE SET species = excluded.species,
		 upstream_id = excluded.upstream_id, version = excluded.version`,
		c.ID.String(), string(c.Species), upstream, c.Version+1,
	)
	if err != nil {
		return fmt.Errorf("writing catalog row: %w", err)
	}

	if err := saveAspectDefs(tx, c); err != nil {
		return err
	}
	if err := b.saveHierarchies(tx, c); err != nil {
		return err
	}
	return nil
}

// saveHierarchies writes the hierarchy rows and dispatches each hierarchy
// to its shape-specific saver, then removes rows of hierarchies no longer
// present on the catalog.
func (b *Backend) saveHierarchies(tx *sql.Tx, c *types.Catalog) error {
	hierarchies := c.Hierarchies()
	current := make(map[string]bool, len(hierarchies))

	for ordinal, h := range hierarchies {
		current[h.Name()] = true
		var defID any
		if m, ok := h.(*types.AspectMap); ok {
			defID = m.AspectDef().ID.String()
		}
		_, err := tx.Exec(
			`INSERT INTO hierarchy (catalog_id, name, hierarchy_type, version, ordinal, aspect_def_id)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(catalog_id, name) DO UPDATE SET hierarchy_type = excluded.hierarchy_type,
			 version = excluded.version, ordinal = excluded.ordinal,
			 aspect_def_id = excluded.aspect_def_id`,
			c.ID.String(), h.Name(), h.Type().Code(), h.Version(), ordinal, defID,
		)
		if err != nil {
			return fmt.Errorf("writing hierarchy row %q: %w", h.Name(), err)
		}

		switch v := h.(type) {
		case *types.EntityList:
			err = saveEntityList(tx, c, v)
		case *types.EntitySet:
			err = saveEntitySet(tx, c, v)
		case *types.EntityDirectory:
			err = saveEntityDirectory(tx, c, v)
		case *types.EntityTree:
			err = saveEntityTree(tx, c, v)
		case *types.AspectMap:
			err = b.saveAspectMap(tx, c, v)
		default:
			err = fmt.Errorf("hierarchy %q has unsupported shape %T: %w", h.Name(), h, types.ErrUnknownHierarchyType)
		}
		if err != nil {
			return fmt.Errorf("saving hierarchy %q: %w", h.Name(), err)
		}
	}

	return deleteStaleHierarchies(tx, c, current)
}

// deleteStaleHierarchies removes persisted hierarchies dropped from the
// catalog since the last save, content rows first.
func deleteStaleHierarchies(tx *sql.Tx, c *types.Catalog, current map[string]bool) error {
	rows, err := tx.Query("SELECT name FROM hierarchy WHERE catalog_id = ?", c.ID.String())
	if err != nil {
		return fmt.Errorf("listing persisted hierarchies: %w", err)
	}
	var stale []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return fmt.Errorf("scanning hierarchy name: %w", err)
		}
		if !current[name] {
			stale = append(stale, name)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, name := range stale {
		for _, table := range []string{
			"property_value", "aspect", "hierarchy_aspect_map",
			"hierarchy_entity_tree_node", "hierarchy_entity_directory",
			"hierarchy_entity_set", "hierarchy_entity_list",
		} {
			if _, err := tx.Exec(
				"DELETE FROM "+table+" WHERE catalog_id = ? AND hierarchy_name = ?",
				c.ID.String(), name,
			); err != nil {
				return fmt.Errorf("clearing %s for stale hierarchy %q: %w", table, name, err)
			}
		}
		if _, err := tx.Exec(
			"DELETE FROM hierarchy WHERE catalog_id = ? AND name = ?",
			c.ID.String(), name,
		); err != nil {
			return fmt.Errorf("deleting stale hierarchy %q: %w", name, err)
		}
	}
	return nil
}

// LoadCatalog reconstructs a catalog by id.
func (b *Backend) LoadCatalog(id uuid.UUID) (*types.Catalog, error) {
	db, err := b.handle()
	if err != nil {
		return nil, err
	}

	row := db.QueryRow(
		"SELECT species, upstream_id, version FROM catalog WHERE catalog_id = ?",
		id.String(),
	)
	var speciesTag string
	var upstream sql.NullString
	var version uint64
	if err := row.Scan(&speciesTag, &upstream, &version); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("catalog %s: %w", id, types.ErrNotFound)
		}
		return nil, fmt.Errorf("loading catalog %s: %w", id, err)
	}
	species, err := types.ParseSpecies(speciesTag)
	if err != nil {
		return nil, fmt.Errorf("loading catalog %s: %w", id, err)
	}

	c := types.NewCatalog(species)
	c.ID = id
	c.Version = version
	if upstream.Valid {
		up, err := uuid.Parse(upstream.String)
		if err != nil {
			return nil, fmt.Errorf("loading catalog %s: upstream id: %w", id, err)
		}
		c.Upstream = up
	}

	if err := loadAspectDefs(db, c); err != nil {
		return nil, fmt.Errorf("loading catalog %s: %w", id, err)
	}

	lc := &loadContext{registry: types.NewEntityRegistry(b.config.CacheSize)}
	if err := b.loadHierarchies(db, c, lc); err != nil {
		return nil, fmt.Errorf("loading catalog %s: %w", id, err)
	}

	b.logger.Debugw("loaded catalog", "catalog", id, "version", version,
		"aspect_defs", len(c.AspectDefs()), "hierarchies", len(c.Hierarchies()))
	return c, nil
}

// loadHierarchies loads each hierarchy by catalog-scoped name, dispatching
// on the stored type code.
func (b *Backend) loadHierarchies(db *sql.DB, c *types.Catalog, lc *loadContext) error {
	rows, err := db.Query(
		"SELECT name, hierarchy_type, version, aspect_def_id FROM hierarchy WHERE catalog_id = ? ORDER BY ordinal",
		c.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("listing hierarchies: %w", err)
	}
	type hierarchyRow struct {
		name    string
		code    string
		version uint64
		defID   sql.NullString
	}
	var hrows []hierarchyRow
	for rows.Next() {
		var hr hierarchyRow
		if err := rows.Scan(&hr.name, &hr.code, &hr.version, &hr.defID); err != nil {
			rows.Close()
			return fmt.Errorf("scanning hierarchy row: %w", err)
		}
		hrows = append(hrows, hr)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, hr := range hrows {
		typ, err := types.ParseHierarchyType(hr.code)
		if err != nil {
			return fmt.Errorf("hierarchy %q: %w", hr.name, err)
		}

		var h types.Hierarchy
		switch typ {
		case types.HierarchyEntityList:
			h, err = loadEntityList(db, c, hr.name, lc)
		case types.HierarchyEntitySet:
			h, err = loadEntitySet(db, c, hr.name, lc)
		case types.HierarchyEntityDirectory:
			h, err = loadEntityDirectory(db, c, hr.name, lc)
		case types.HierarchyEntityTree:
			h, err = loadEntityTree(db, c, hr.name, lc)
		case types.HierarchyAspectMap:
			h, err = b.loadAspectMap(db, c, hr.name, hr.defID.String, lc)
		}
		if err != nil {
			return fmt.Errorf("loading hierarchy %q: %w", hr.name, err)
		}

		switch v := h.(type) {
		case *types.EntityList:
			v.SetVersion(hr.version)
		case *types.EntitySet:
			v.SetVersion(hr.version)
		case *types.EntityDirectory:
			v.SetVersion(hr.version)
		case *types.EntityTree:
			v.SetVersion(hr.version)
		case *types.AspectMap:
			v.SetVersion(hr.version)
		}
		if err := c.AddHierarchy(h); err != nil {
			return fmt.Errorf("registering hierarchy %q: %w", hr.name, err)
		}
	}
	return nil
}

// CatalogExists reports whether a catalog row exists for id.
func (b *Backend) CatalogExists(id uuid.UUID) (bool, error) {
	db, err := b.handle()
	if err != nil {
		return false, err
	}
	var one int
	err = db.QueryRow("SELECT 1 FROM catalog WHERE catalog_id = ?", id.String()).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking catalog %s: %w", id, err)
	}
	return true, nil
}

// DeleteCatalog removes the catalog and every dependent row, children
// first. Returns false when no catalog row existed.
func (b *Backend) DeleteCatalog(id uuid.UUID) (bool, error) {
	db, err := b.handle()
	if err != nil {
		return false, err
	}

	exists, err := b.CatalogExists(id)
	if err != nil || !exists {
		return false, err
	}

	tx, err := db.Begin()
	if err != nil {
		return false, fmt.Errorf("deleting catalog %s: beginning transaction: %w", id, err)
	}
	defer tx.Rollback()

	for _, table := range []string{
		"property_value", "aspect", "hierarchy_aspect_map",
		"hierarchy_entity_tree_node", "hierarchy_entity_directory",
		"hierarchy_entity_set", "hierarchy_entity_list",
		"hierarchy", "catalog_aspect_def",
	} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE catalog_id = ?", id.String()); err != nil {
			return false, fmt.Errorf("deleting catalog %s: clearing %s: %w", id, table, err)
		}
	}
	if _, err := tx.Exec("DELETE FROM catalog WHERE catalog_id = ?", id.String()); err != nil {
		return false, fmt.Errorf("deleting catalog %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("deleting catalog %s: committing: %w", id, err)
	}
	b.logger.Debugw("deleted catalog", "catalog", id)
	return true, nil
}

// ListCatalogs enumerates stored catalogs with schema and hierarchy counts.
func (b *Backend) ListCatalogs() ([]types.CatalogInfo, error) {
	db, err := b.handle()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(`
		SELECT c.catalog_id, c.species, c.version,
		       (SELECT COUNT(*) FROM catalog_aspect_def cad WHERE cad.catalog_id = c.catalog_id),
		       (SELECT COUNT(*) FROM hierarchy h WHERE h.catalog_id = c.catalog_id)
		FROM catalog c ORDER BY c.catalog_id`)
	if err != nil {
		return nil, fmt.Errorf("listing catalogs: %w", err)
	}
	defer rows.Close()

	infos := []types.CatalogInfo{}
	for rows.Next() {
		var rawID, speciesTag string
		var info types.CatalogInfo
		if err := rows.Scan(&rawID, &speciesTag, &info.Version, &info.AspectDefs, &info.Hierarchies); err != nil {
			return nil, fmt.Errorf("scanning catalog row: %w", err)
		}
		id, err := uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("catalog id %q: %w", rawID, err)
		}
		info.ID = id
		info.Species = types.Species(speciesTag)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// ensureEntity records an entity id in the entity table.
func ensureEntity(tx *sql.Tx, e *types.Entity) error {
	_, err := tx.Exec("INSERT OR IGNORE INTO entity (entity_id) VALUES (?)", e.ID.String())
	if err != nil {
		return fmt.Errorf("writing entity %s: %w", e.ID, err)
	}
	return nil
}
