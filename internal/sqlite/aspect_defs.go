// AspectDef and PropertyDef persistence. Reconstruction restores the exact
// mutability shape encoded by the stored capability flags.
package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/facets/pkg/types"
)

// saveAspectDefs writes every AspectDef, its PropertyDefs, and the catalog
// link rows, then unlinks defs dropped from the catalog.
func saveAspectDefs(tx *sql.Tx, c *types.Catalog) error {
	defs := c.AspectDefs()
	current := make(map[string]bool, len(defs))

	for ordinal, def := range defs {
		current[def.ID.String()] = true
		if err := saveAspectDef(tx, def); err != nil {
			return err
		}
		_, err := tx.Exec(
			`INSERT INTO catalog_aspect_def (catalog_id, aspect_def_id, ordinal) VALUES (?, ?, ?)
			 ON CONFLICT(catalog_id, aspect_def_id) DO UPDATE SET ordinal = excluded.ordinal`,
			c.ID.String(), def.ID.String(), ordinal,
		)
		if err != nil {
			return fmt.Errorf("linking aspect def %q: %w", def.Name, err)
		}
	}

	rows, err := tx.Query("SELECT aspect_def_id FROM catalog_aspect_def WHERE catalog_id = ?", c.ID.String())
	if err != nil {
		return fmt.Errorf("listing linked aspect defs: %w", err)
	}
	var stale []string
	for rows.Next() {
		var defID string
		if err := rows.Scan(&defID); err != nil {
			rows.Close()
			return fmt.Errorf("scanning aspect def link: %w", err)
		}
		if !current[defID] {
			stale = append(stale, defID)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, defID := range stale {
		if _, err := tx.Exec(
			"DELETE FROM catalog_aspect_def WHERE catalog_id = ? AND aspect_def_id = ?",
			c.ID.String(), defID,
		); err != nil {
			return fmt.Errorf("unlinking stale aspect def %s: %w", defID, err)
		}
	}
	return nil
}

// saveAspectDef upserts one aspect_def row and rewrites its property_def
// rows in declaration order.
func saveAspectDef(tx *sql.Tx, def *types.AspectDef) error {
	_, err := tx.Exec(
		`INSERT INTO aspect_def (aspect_def_id, name, readable, writable, can_add_properties, can_remove_properties)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(aspect_def_id) DO UPDATE SET name = excluded.name,
		 readable = excluded.readable, writable = excluded.writable,
		 can_add_properties = excluded.can_add_properties,
		 can_remove_properties = excluded.can_remove_properties`,
		def.ID.String(), def.Name,
		boolInt(def.Readable), boolInt(def.Writable),
		boolInt(def.CanAddProperties), boolInt(def.CanRemoveProperties),
	)
	if err != nil {
		return fmt.Errorf("writing aspect def %q: %w", def.Name, err)
	}

	if _, err := tx.Exec("DELETE FROM property_def WHERE aspect_def_id = ?", def.ID.String()); err != nil {
		return fmt.Errorf("clearing property defs of %q: %w", def.Name, err)
	}
	for ordinal, prop := range def.Properties() {
		defaultValue, err := encodeDefault(prop)
		if err != nil {
			return fmt.Errorf("encoding default of %q.%q: %w", def.Name, prop.Name, err)
		}
		_, err = tx.Exec(
			`INSERT INTO property_def (aspect_def_id, name, property_type, nullable, removable,
			 multivalued, has_default, default_value, ordinal) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			def.ID.String(), prop.Name, prop.Type.Code(),
			boolInt(prop.Nullable), boolInt(prop.Removable),
			boolInt(prop.Multivalued), boolInt(prop.HasDefault),
			defaultValue, ordinal,
		)
		if err != nil {
			return fmt.Errorf("writing property def %q.%q: %w", def.Name, prop.Name, err)
		}
	}
	return nil
}

// loadAspectDefs extends the catalog with its linked AspectDefs in link
// order, each rebuilt into the exact mutability shape its stored capability
// flags encode.
func loadAspectDefs(db *sql.DB, c *types.Catalog) error {
	rows, err := db.Query(`
		SELECT ad.aspect_def_id, ad.name, ad.readable, ad.writable,
		       ad.can_add_properties, ad.can_remove_properties
		FROM aspect_def ad
		JOIN catalog_aspect_def cad ON cad.aspect_def_id = ad.aspect_def_id
		WHERE cad.catalog_id = ? ORDER BY cad.ordinal`,
		c.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("listing aspect defs: %w", err)
	}
	var defs []*types.AspectDef
	for rows.Next() {
		var rawID, name string
		var readable, writable, canAdd, canRemove int64
		if err := rows.Scan(&rawID, &name, &readable, &writable, &canAdd, &canRemove); err != nil {
			rows.Close()
			return fmt.Errorf("scanning aspect def row: %w", err)
		}
		id, err := uuid.Parse(rawID)
		if err != nil {
			rows.Close()
			return fmt.Errorf("aspect def id %q: %w", rawID, err)
		}
		def := types.NewAspectDefWithCapabilities(name, canAdd != 0, canRemove != 0)
		def.ID = id
		def.Readable = readable != 0
		def.Writable = writable != 0
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, def := range defs {
		if err := loadPropertyDefs(db, def); err != nil {
			return fmt.Errorf("loading property defs of %q: %w", def.Name, err)
		}
		if err := c.AddAspectDef(def); err != nil {
			return fmt.Errorf("registering aspect def %q: %w", def.Name, err)
		}
	}
	return nil
}

func loadPropertyDefs(db *sql.DB, def *types.AspectDef) error {
	rows, err := db.Query(`
		SELECT name, property_type, nullable, removable, multivalued, has_default, default_value
		FROM property_def WHERE aspect_def_id = ? ORDER BY ordinal`,
		def.ID.String(),
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name, typeCode string
		var nullable, removable, multivalued, hasDefault int64
		var defaultValue sql.NullString
		if err := rows.Scan(&name, &typeCode, &nullable, &removable, &multivalued, &hasDefault, &defaultValue); err != nil {
			return fmt.Errorf("scanning property def row: %w", err)
		}
		propType, err := types.ParsePropertyType(typeCode)
		if err != nil {
			return fmt.Errorf("property %q: %w", name, err)
		}
		prop := types.PropertyDef{
			Name:        name,
			Type:        propType,
			Nullable:    nullable != 0,
			Removable:   removable != 0,
			Multivalued: multivalued != 0,
			HasDefault:  hasDefault != 0,
		}
		if prop.HasDefault && defaultValue.Valid {
			value, err := decodeDefault(prop, defaultValue.String)
			if err != nil {
				return fmt.Errorf("property %q: %w", name, err)
			}
			prop.Default = value
		}
		if err := def.DefineProperty(prop); err != nil {
			return fmt.Errorf("property %q: %w", name, err)
		}
	}
	return rows.Err()
}

// encodeDefault stores a declared default as TEXT: the scalar encoding for
// single-valued properties, a JSON array of encodings for multivalued ones.
func encodeDefault(prop types.PropertyDef) (any, error) {
	if !prop.HasDefault || prop.Default == nil {
		return nil, nil
	}
	if prop.Multivalued {
		list, err := types.CoerceList(prop.Default, prop.Type)
		if err != nil {
			return nil, err
		}
		return encodeColumn(prop, list)
	}
	coerced, err := types.Coerce(prop.Default, prop.Type)
	if err != nil {
		return nil, err
	}
	s, err := encodeText(prop.Type, coerced)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func decodeDefault(prop types.PropertyDef, stored string) (any, error) {
	if prop.Multivalued {
		return decodeColumn(prop, stored)
	}
	return decodeText(prop.Type, stored)
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
