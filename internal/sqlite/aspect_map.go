// Aspect-map persistence, default (EAV) strategy: one aspect link row per
// entry plus one property_value row per scalar. A single-valued property
// stores exactly one row (a NULL row when the value is null); a multivalued
// property stores one row per element ordered by the idx column, so an
// empty list stores zero rows. On load, the set of property names actually
// observed in storage separates never-stored from empty: a def property
// absent from the observed set reloads as an empty list when multivalued
// and as unpopulated (null/default on read) when single-valued. That makes
// a never-set multivalued property indistinguishable from an explicitly
// emptied one after a reload; both come back as a populated empty list.
// This is intentional, not a fidelity bug.
package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/facets/pkg/types"
)

// saveAspectMap dispatches one aspect-map hierarchy to its strategy.
func (b *Backend) saveAspectMap(tx *sql.Tx, c *types.Catalog, m *types.AspectMap) error {
	if err := saveAspectMapMembers(tx, c, m); err != nil {
		return err
	}
	if mapping, ok := b.mappingFor(m.AspectDef().ID); ok {
		return saveAspectMapMapped(tx, c, m, mapping)
	}
	return saveAspectMapEAV(tx, c, m)
}

// saveAspectMapMembers maintains the membership rows shared by both
// strategies: one hierarchy_aspect_map row per entry, ordered by ordinal.
func saveAspectMapMembers(tx *sql.Tx, c *types.Catalog, m *types.AspectMap) error {
	def := m.AspectDef()
	entities := m.Entities()
	current := make(map[string]bool, len(entities))
	for ordinal, e := range entities {
		current[e.ID.String()] = true
		if err := ensureEntity(tx, e); err != nil {
			return err
		}
		_, err := tx.Exec(
			`INSERT INTO hierarchy_aspect_map (catalog_id, hierarchy_name, aspect_def_id, entity_id, ordinal)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(catalog_id, hierarchy_name, entity_id) DO UPDATE SET
			 aspect_def_id = excluded.aspect_def_id, ordinal = excluded.ordinal`,
			c.ID.String(), m.Name(), def.ID.String(), e.ID.String(), ordinal,
		)
		if err != nil {
			return fmt.Errorf("writing aspect map row for %s: %w", e.ID, err)
		}
	}
	return deleteStaleRows(tx, "hierarchy_aspect_map", "entity_id", c.ID, m.Name(), current)
}

func saveAspectMapEAV(tx *sql.Tx, c *types.Catalog, m *types.AspectMap) error {
	for _, e := range m.Entities() {
		aspect, _ := m.Get(e)
		if err := saveAspectEAV(tx, c, m.Name(), aspect); err != nil {
			return fmt.Errorf("entity %s: %w", e.ID, err)
		}
	}

	// Aspect link rows for entities no longer in the map.
	if err := deleteStaleAspectLinks(tx, c, m); err != nil {
		return err
	}
	return nil
}

// saveAspectEAV writes the aspect link row and rewrites the aspect's
// property_value rows.
func saveAspectEAV(tx *sql.Tx, c *types.Catalog, hierarchyName string, a *types.Aspect) error {
	def := a.Def()
	entityID := a.Entity().ID.String()

	_, err := tx.Exec(
		`INSERT OR IGNORE INTO aspect (entity_id, aspect_def_id, catalog_id, hierarchy_name)
		 VALUES (?, ?, ?, ?)`,
		entityID, def.ID.String(), c.ID.String(), hierarchyName,
	)
	if err != nil {
		return fmt.Errorf("writing aspect link row: %w", err)
	}

	_, err = tx.Exec(
		`DELETE FROM property_value WHERE entity_id = ? AND aspect_def_id = ? AND catalog_id = ? AND hierarchy_name = ?`,
		entityID, def.ID.String(), c.ID.String(), hierarchyName,
	)
	if err != nil {
		return fmt.Errorf("clearing property values: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO property_value (entity_id, aspect_def_id, catalog_id, hierarchy_name, property_name, idx, value)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("preparing property value insert: %w", err)
	}
	defer stmt.Close()

	for _, prop := range def.Properties() {
		value, populated := a.UnsafeGet(prop.Name)
		if !populated {
			continue
		}
		if prop.Multivalued {
			list, _ := value.([]any)
			for i, elem := range list {
				var stored any
				if elem != nil {
					s, err := encodeText(prop.Type, elem)
					if err != nil {
						return fmt.Errorf("property %q[%d]: %w", prop.Name, i, err)
					}
					stored = s
				}
				if _, err := stmt.Exec(entityID, def.ID.String(), c.ID.String(), hierarchyName, prop.Name, i, stored); err != nil {
					return fmt.Errorf("writing property %q[%d]: %w", prop.Name, i, err)
				}
			}
			continue
		}

		var stored any
		if value != nil {
			s, err := encodeText(prop.Type, value)
			if err != nil {
				return fmt.Errorf("property %q: %w", prop.Name, err)
			}
			stored = s
		}
		if _, err := stmt.Exec(entityID, def.ID.String(), c.ID.String(), hierarchyName, prop.Name, 0, stored); err != nil {
			return fmt.Errorf("writing property %q: %w", prop.Name, err)
		}
	}
	return nil
}

func deleteStaleAspectLinks(tx *sql.Tx, c *types.Catalog, m *types.AspectMap) error {
	current := make(map[string]bool, m.Len())
	for _, e := range m.Entities() {
		current[e.ID.String()] = true
	}
	rows, err := tx.Query(
		"SELECT entity_id FROM aspect WHERE catalog_id = ? AND hierarchy_name = ?",
		c.ID.String(), m.Name(),
	)
	if err != nil {
		return fmt.Errorf("listing aspect links: %w", err)
	}
	var stale []string
	for rows.Next() {
		var entityID string
		if err := rows.Scan(&entityID); err != nil {
			rows.Close()
			return fmt.Errorf("scanning aspect link: %w", err)
		}
		if !current[entityID] {
			stale = append(stale, entityID)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, entityID := range stale {
		for _, table := range []string{"property_value", "aspect"} {
			if _, err := tx.Exec(
				"DELETE FROM "+table+" WHERE catalog_id = ? AND hierarchy_name = ? AND entity_id = ?",
				c.ID.String(), m.Name(), entityID,
			); err != nil {
				return fmt.Errorf("deleting stale %s rows for %s: %w", table, entityID, err)
			}
		}
	}
	return nil
}

// loadAspectMap reconstructs one aspect-map hierarchy, dispatching to the
// mapped strategy when the def has a registered table mapping.
func (b *Backend) loadAspectMap(db *sql.DB, c *types.Catalog, name, defID string, lc *loadContext) (*types.AspectMap, error) {
	if defID == "" {
		return nil, fmt.Errorf("aspect map %q has no aspect def: %w", name, types.ErrStructuralInconsistency)
	}
	id, err := uuid.Parse(defID)
	if err != nil {
		return nil, fmt.Errorf("aspect def id %q: %w", defID, err)
	}
	def, ok := findAspectDef(c, id)
	if !ok {
		return nil, fmt.Errorf("aspect map %q references aspect def %s not on catalog: %w",
			name, defID, types.ErrStructuralInconsistency)
	}

	members, err := loadAspectMapMembers(db, c, name, lc)
	if err != nil {
		return nil, err
	}

	m := types.NewAspectMap(name, def)
	if mapping, ok := b.mappingFor(def.ID); ok {
		err = loadAspectMapMapped(db, c, m, members, mapping, lc)
	} else {
		err = b.loadAspectMapEAV(db, c, m, members, lc)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func findAspectDef(c *types.Catalog, id uuid.UUID) (*types.AspectDef, bool) {
	for _, def := range c.AspectDefs() {
		if def.ID == id {
			return def, true
		}
	}
	return nil, false
}

func loadAspectMapMembers(db *sql.DB, c *types.Catalog, name string, lc *loadContext) ([]*types.Entity, error) {
	rows, err := db.Query(
		"SELECT entity_id FROM hierarchy_aspect_map WHERE catalog_id = ? AND hierarchy_name = ? ORDER BY ordinal",
		c.ID.String(), name,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*types.Entity
	for rows.Next() {
		var rawID string
		if err := rows.Scan(&rawID); err != nil {
			return nil, fmt.Errorf("scanning aspect map member: %w", err)
		}
		id, err := uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("entity id %q: %w", rawID, err)
		}
		members = append(members, lc.registry.Entity(id))
	}
	return members, rows.Err()
}

func (b *Backend) loadAspectMapEAV(db *sql.DB, c *types.Catalog, m *types.AspectMap, members []*types.Entity, lc *loadContext) error {
	def := m.AspectDef()
	for _, e := range members {
		aspect := types.NewAspect(e, def)
		if err := b.loadAspectEAV(db, c, m.Name(), aspect); err != nil {
			return fmt.Errorf("entity %s: %w", e.ID, err)
		}
		if err := m.Put(aspect); err != nil {
			return err
		}
		lc.registry.CacheAspect(aspect)
	}
	return nil
}

// loadAspectEAV populates one aspect from its property_value rows, then
// applies the observed-set rule to the def properties that had no rows.
func (b *Backend) loadAspectEAV(db *sql.DB, c *types.Catalog, hierarchyName string, a *types.Aspect) error {
	def := a.Def()
	rows, err := db.Query(
		`SELECT property_name, idx, value FROM property_value
		 WHERE entity_id = ? AND aspect_def_id = ? AND catalog_id = ? AND hierarchy_name = ?
		 ORDER BY property_name, idx`,
		a.Entity().ID.String(), def.ID.String(), c.ID.String(), hierarchyName,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	observed := make(map[string]bool)
	lists := make(map[string][]any)
	for rows.Next() {
		var name string
		var idx int
		var stored sql.NullString
		if err := rows.Scan(&name, &idx, &stored); err != nil {
			return fmt.Errorf("scanning property value: %w", err)
		}

		prop, ok := def.Property(name)
		if !ok {
			// Stored under a property the current def no longer declares.
			b.logger.Debugw("skipping stored property absent from aspect def",
				"aspect_def", def.Name, "property", name)
			continue
		}
		observed[name] = true

		var value any
		if stored.Valid {
			value, err = decodeText(prop.Type, stored.String)
			if err != nil {
				return fmt.Errorf("property %q: %w", name, err)
			}
		}
		if prop.Multivalued {
			lists[name] = append(lists[name], value)
		} else {
			a.UnsafeSet(name, value)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for name, list := range lists {
		a.UnsafeSet(name, list)
	}
	// Properties with no stored rows: multivalued reload as an empty list,
	// single-valued stay unpopulated and read as null/default.
	for _, prop := range def.Properties() {
		if prop.Multivalued && !observed[prop.Name] {
			a.UnsafeSet(prop.Name, []any{})
		}
	}
	return nil
}
