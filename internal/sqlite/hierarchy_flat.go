// Persistence for the three flat hierarchy shapes: entity-list, entity-set,
// and entity-directory. Order survives through an explicit per-row order
// column; re-saves upsert rather than duplicate, then remove stale rows.
package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/facets/pkg/types"
)

func saveEntityList(tx *sql.Tx, c *types.Catalog, l *types.EntityList) error {
	entities := l.Entities()
	for position, e := range entities {
		if err := ensureEntity(tx, e); err != nil {
			return err
		}
		_, err := tx.Exec(
			`INSERT INTO hierarchy_entity_list (catalog_id, hierarchy_name, position, entity_id)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT(catalog_id, hierarchy_name, position) DO UPDATE SET entity_id = excluded.entity_id`,
			c.ID.String(), l.Name(), position, e.ID.String(),
		)
		if err != nil {
			return fmt.Errorf("writing list row %d: %w", position, err)
		}
	}
	// Positions beyond the current length are leftovers from a longer save.
	_, err := tx.Exec(
		"DELETE FROM hierarchy_entity_list WHERE catalog_id = ? AND hierarchy_name = ? AND position >= ?",
		c.ID.String(), l.Name(), len(entities),
	)
	if err != nil {
		return fmt.Errorf("trimming list rows: %w", err)
	}
	return nil
}

func loadEntityList(db *sql.DB, c *types.Catalog, name string, lc *loadContext) (*types.EntityList, error) {
	rows, err := db.Query(
		"SELECT entity_id FROM hierarchy_entity_list WHERE catalog_id = ? AND hierarchy_name = ? ORDER BY position",
		c.ID.String(), name,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	l := types.NewEntityList(name)
	for rows.Next() {
		var rawID string
		if err := rows.Scan(&rawID); err != nil {
			return nil, fmt.Errorf("scanning list row: %w", err)
		}
		id, err := uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("entity id %q: %w", rawID, err)
		}
		l.Append(lc.registry.Entity(id))
	}
	return l, rows.Err()
}

func saveEntitySet(tx *sql.Tx, c *types.Catalog, s *types.EntitySet) error {
	entities := s.Entities()
	current := make(map[string]bool, len(entities))
	for ordinal, e := range entities {
		current[e.ID.String()] = true
		if err := ensureEntity(tx, e); err != nil {
			return err
		}
		_, err := tx.Exec(
			`INSERT INTO hierarchy_entity_set (catalog_id, hierarchy_name, entity_id, ordinal)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT(catalog_id, hierarchy_name, entity_id) DO UPDATE SET ordinal = excluded.ordinal`,
			c.ID.String(), s.Name(), e.ID.String(), ordinal,
		)
		if err != nil {
			return fmt.Errorf("writing set row for %s: %w", e.ID, err)
		}
	}
	return deleteStaleRows(tx, "hierarchy_entity_set", "entity_id", c.ID, s.Name(), current)
}

func loadEntitySet(db *sql.DB, c *types.Catalog, name string, lc *loadContext) (*types.EntitySet, error) {
	rows, err := db.Query(
		"SELECT entity_id FROM hierarchy_entity_set WHERE catalog_id = ? AND hierarchy_name = ? ORDER BY ordinal",
		c.ID.String(), name,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	s := types.NewEntitySet(name)
	for rows.Next() {
		var rawID string
		if err := rows.Scan(&rawID); err != nil {
			return nil, fmt.Errorf("scanning set row: %w", err)
		}
		id, err := uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("entity id %q: %w", rawID, err)
		}
		s.Add(lc.registry.Entity(id))
	}
	return s, rows.Err()
}

func saveEntityDirectory(tx *sql.Tx, c *types.Catalog, d *types.EntityDirectory) error {
	keys := d.Keys()
	current := make(map[string]bool, len(keys))
	for ordinal, key := range keys {
		current[key] = true
		e, _ := d.Get(key)
		if err := ensureEntity(tx, e); err != nil {
			return err
		}
		_, err := tx.Exec(
			`INSERT INTO hierarchy_entity_directory (catalog_id, hierarchy_name, dir_key, entity_id, ordinal)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(catalog_id, hierarchy_name, dir_key) DO UPDATE SET entity_id = excluded.entity_id,
			 ordinal = excluded.ordinal`,
			c.ID.String(), d.Name(), key, e.ID.String(), ordinal,
		)
		if err != nil {
			return fmt.Errorf("writing directory row %q: %w", key, err)
		}
	}
	return deleteStaleRows(tx, "hierarchy_entity_directory", "dir_key", c.ID, d.Name(), current)
}

func loadEntityDirectory(db *sql.DB, c *types.Catalog, name string, lc *loadContext) (*types.EntityDirectory, error) {
	rows, err := db.Query(
		"SELECT dir_key, entity_id FROM hierarchy_entity_directory WHERE catalog_id = ? AND hierarchy_name = ? ORDER BY ordinal",
		c.ID.String(), name,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	d := types.NewEntityDirectory(name)
	for rows.Next() {
		var key, rawID string
		if err := rows.Scan(&key, &rawID); err != nil {
			return nil, fmt.Errorf("scanning directory row: %w", err)
		}
		id, err := uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("entity id %q: %w", rawID, err)
		}
		d.Put(key, lc.registry.Entity(id))
	}
	return d, rows.Err()
}

// deleteStaleRows removes hierarchy content rows whose key column value is
// no longer present in the in-memory hierarchy.
func deleteStaleRows(tx *sql.Tx, table, keyColumn string, catalogID uuid.UUID, hierarchyName string, current map[string]bool) error {
	rows, err := tx.Query(
		"SELECT "+keyColumn+" FROM "+table+" WHERE catalog_id = ? AND hierarchy_name = ?",
		catalogID.String(), hierarchyName,
	)
	if err != nil {
		return fmt.Errorf("listing %s rows: %w", table, err)
	}
	var stale []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			rows.Close()
			return fmt.Errorf("scanning %s key: %w", table, err)
		}
		if !current[key] {
			stale = append(stale, key)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, key := range stale {
		if _, err := tx.Exec(
			"DELETE FROM "+table+" WHERE catalog_id = ? AND hierarchy_name = ? AND "+keyColumn+" = ?",
			catalogID.String(), hierarchyName, key,
		); err != nil {
			return fmt.Errorf("deleting stale %s row %q: %w", table, key, err)
		}
	}
	return nil
}
