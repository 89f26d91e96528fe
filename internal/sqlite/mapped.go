// Mapped-table strategy: a registered per-AspectDef mapping stores aspect
// properties as native columns of a dedicated table. The two key flags
// yield four key shapes (no key, catalog-id only, entity-id only, and
// composite), each with its own DDL, upsert, and clear-on-resave behavior.
// Tables without an entity id key preserve per-entity association through
// sqlite rowid insertion order zipped against the membership rows.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/facets/pkg/types"
)

// mappedTableDDL generates the CREATE TABLE statement for a mapping.
func mappedTableDDL(m types.TableMapping) (string, error) {
	var cols []string
	if m.HasCatalogID {
		cols = append(cols, "catalog_id TEXT NOT NULL")
	}
	if m.HasEntityID {
		cols = append(cols, "entity_id TEXT NOT NULL")
	}
	for _, prop := range m.AspectDef.Properties() {
		cols = append(cols, fmt.Sprintf("%s %s", m.ColumnFor(prop.Name), columnType(prop)))
	}

	switch {
	case m.HasCatalogID && m.HasEntityID:
		cols = append(cols, "PRIMARY KEY (catalog_id, entity_id)")
	case m.HasEntityID:
		cols = append(cols, "PRIMARY KEY (entity_id)")
	}
	// Catalog-only and keyless shapes carry no primary key.

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n    %s\n);",
		m.TableName, strings.Join(cols, ",\n    ")), nil
}

// clearMappedRows applies the shape-specific clear-on-resave rule. The
// entity-only shape clears nothing here; it upserts by primary key and
// removes stale rows after the write.
func clearMappedRows(tx *sql.Tx, c *types.Catalog, m types.TableMapping) error {
	switch {
	case !m.HasCatalogID && !m.HasEntityID:
		if _, err := tx.Exec("DELETE FROM " + m.TableName); err != nil {
			return fmt.Errorf("truncating %s: %w", m.TableName, err)
		}
	case m.HasCatalogID:
		if _, err := tx.Exec("DELETE FROM "+m.TableName+" WHERE catalog_id = ?", c.ID.String()); err != nil {
			return fmt.Errorf("clearing %s for catalog: %w", m.TableName, err)
		}
	}
	return nil
}

func saveAspectMapMapped(tx *sql.Tx, c *types.Catalog, am *types.AspectMap, m types.TableMapping) error {
	if err := clearMappedRows(tx, c, m); err != nil {
		return err
	}

	props := m.AspectDef.Properties()
	var cols []string
	if m.HasCatalogID {
		cols = append(cols, "catalog_id")
	}
	if m.HasEntityID {
		cols = append(cols, "entity_id")
	}
	for _, prop := range props {
		cols = append(cols, m.ColumnFor(prop.Name))
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")

	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", m.TableName, strings.Join(cols, ", "), placeholders)
	if m.HasEntityID && !m.HasCatalogID {
		// Entity-only shape was not cleared above; replace by primary key.
		insertSQL = strings.Replace(insertSQL, "INSERT INTO", "INSERT OR REPLACE INTO", 1)
	}
	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		return fmt.Errorf("preparing %s insert: %w", m.TableName, err)
	}
	defer stmt.Close()

	for _, e := range am.Entities() {
		aspect, _ := am.Get(e)
		args := make([]any, 0, len(cols))
		if m.HasCatalogID {
			args = append(args, c.ID.String())
		}
		if m.HasEntityID {
			args = append(args, e.ID.String())
		}
		for _, prop := range props {
			value, populated := aspect.UnsafeGet(prop.Name)
			if !populated {
				args = append(args, nil)
				continue
			}
			stored, err := encodeColumn(prop, value)
			if err != nil {
				return fmt.Errorf("entity %s property %q: %w", e.ID, prop.Name, err)
			}
			args = append(args, stored)
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("writing %s row for %s: %w", m.TableName, e.ID, err)
		}
	}

	if m.HasEntityID && !m.HasCatalogID {
		return deleteStaleMappedRows(tx, am, m)
	}
	return nil
}

// deleteStaleMappedRows removes entity-keyed rows whose entity is no longer
// in the aspect map. The other shapes clear before writing instead.
func deleteStaleMappedRows(tx *sql.Tx, am *types.AspectMap, m types.TableMapping) error {
	current := make(map[string]bool, am.Len())
	for _, e := range am.Entities() {
		current[e.ID.String()] = true
	}
	rows, err := tx.Query("SELECT entity_id FROM " + m.TableName)
	if err != nil {
		return fmt.Errorf("listing %s rows: %w", m.TableName, err)
	}
	var stale []string
	for rows.Next() {
		var entityID string
		if err := rows.Scan(&entityID); err != nil {
			rows.Close()
			return fmt.Errorf("scanning %s row: %w", m.TableName, err)
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
		if _, err := tx.Exec("DELETE FROM "+m.TableName+" WHERE entity_id = ?", entityID); err != nil {
			return fmt.Errorf("deleting stale %s row for %s: %w", m.TableName, entityID, err)
		}
	}
	return nil
}

// loadAspectMapMapped reconstructs aspects from a mapped table. Entity-
// keyed shapes select per member; keyless shapes read rows in insertion
// order and zip them against the ordered membership.
func loadAspectMapMapped(db *sql.DB, c *types.Catalog, am *types.AspectMap, members []*types.Entity, m types.TableMapping, lc *loadContext) error {
	props := m.AspectDef.Properties()
	colNames := make([]string, len(props))
	for i, prop := range props {
		colNames[i] = m.ColumnFor(prop.Name)
	}
	selectCols := strings.Join(colNames, ", ")

	if m.HasEntityID {
		query := fmt.Sprintf("SELECT %s FROM %s WHERE entity_id = ?", selectCols, m.TableName)
		if m.HasCatalogID {
			query += " AND catalog_id = ?"
		}
		for _, e := range members {
			args := []any{e.ID.String()}
			if m.HasCatalogID {
				args = append(args, c.ID.String())
			}
			aspect := types.NewAspect(e, am.AspectDef())
			if err := scanMappedRow(db.QueryRow(query, args...), props, aspect); err != nil {
				return fmt.Errorf("entity %s: %w", e.ID, err)
			}
			if err := am.Put(aspect); err != nil {
				return err
			}
			lc.registry.CacheAspect(aspect)
		}
		return nil
	}

	query := fmt.Sprintf("SELECT %s FROM %s", selectCols, m.TableName)
	var args []any
	if m.HasCatalogID {
		query += " WHERE catalog_id = ?"
		args = append(args, c.ID.String())
	}
	query += " ORDER BY rowid"

	rows, err := db.Query(query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	i := 0
	for rows.Next() {
		if i >= len(members) {
			return fmt.Errorf("%s holds more rows than aspect map members: %w",
				m.TableName, types.ErrStructuralInconsistency)
		}
		aspect := types.NewAspect(members[i], am.AspectDef())
		if err := scanMappedValues(rows, props, aspect); err != nil {
			return fmt.Errorf("entity %s: %w", members[i].ID, err)
		}
		if err := am.Put(aspect); err != nil {
			return err
		}
		lc.registry.CacheAspect(aspect)
		i++
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if i != len(members) {
		return fmt.Errorf("%s holds %d rows for %d aspect map members: %w",
			m.TableName, i, len(members), types.ErrStructuralInconsistency)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMappedRow(row *sql.Row, props []types.PropertyDef, aspect *types.Aspect) error {
	if err := scanMappedValues(row, props, aspect); err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("no mapped row: %w", types.ErrStructuralInconsistency)
		}
		return err
	}
	return nil
}

func scanMappedValues(s scanner, props []types.PropertyDef, aspect *types.Aspect) error {
	raw := make([]any, len(props))
	dest := make([]any, len(props))
	for i := range raw {
		dest[i] = &raw[i]
	}
	if err := s.Scan(dest...); err != nil {
		return err
	}
	for i, prop := range props {
		if raw[i] == nil {
			if prop.Multivalued {
				aspect.UnsafeSet(prop.Name, []any{})
			}
			// Single-valued NULL columns stay unpopulated.
			continue
		}
		value, err := decodeColumn(prop, raw[i])
		if err != nil {
			return fmt.Errorf("property %q: %w", prop.Name, err)
		}
		aspect.UnsafeSet(prop.Name, value)
	}
	return nil
}
