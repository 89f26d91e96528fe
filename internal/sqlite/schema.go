// Engine schema DDL. Table names and column shapes are part of the storage
// contract; drop order is child-tables-first to respect foreign keys.
package sqlite

import (
	"database/sql"
	"fmt"
)

const (
	createEntity = `CREATE TABLE IF NOT EXISTS entity (
    entity_id TEXT PRIMARY KEY
);`

	createCatalog = `CREATE TABLE IF NOT EXISTS catalog (
    catalog_id TEXT PRIMARY KEY,
    species TEXT NOT NULL,
    upstream_id TEXT,
    version INTEGER NOT NULL
);`

	createAspectDef = `CREATE TABLE IF NOT EXISTS aspect_def (
    aspect_def_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    readable INTEGER NOT NULL,
    writable INTEGER NOT NULL,
    can_add_properties INTEGER NOT NULL,
    can_remove_properties INTEGER NOT NULL
);`

	createCatalogAspectDef = `CREATE TABLE IF NOT EXISTS catalog_aspect_def (
    catalog_id TEXT NOT NULL,
    aspect_def_id TEXT NOT NULL,
    ordinal INTEGER NOT NULL,
    PRIMARY KEY (catalog_id, aspect_def_id),
    FOREIGN KEY (catalog_id) REFERENCES catalog(catalog_id),
    FOREIGN KEY (aspect_def_id) REFERENCES aspect_def(aspect_def_id)
);`

	createPropertyDef = `CREATE TABLE IF NOT EXISTS property_def (
    aspect_def_id TEXT NOT NULL,
    name TEXT NOT NULL,
    property_type TEXT NOT NULL,
    nullable INTEGER NOT NULL,
    removable INTEGER NOT NULL,
    multivalued INTEGER NOT NULL,
    has_default INTEGER NOT NULL,
    default_value TEXT,
    ordinal INTEGER NOT NULL,
    PRIMARY KEY (aspect_def_id, name),
    FOREIGN KEY (aspect_def_id) REFERENCES aspect_def(aspect_def_id)
);`

	createHierarchy = `CREATE TABLE IF NOT EXISTS hierarchy (
    catalog_id TEXT NOT NULL,
    name TEXT NOT NULL,
    hierarchy_type TEXT NOT NULL,
    version INTEGER NOT NULL,
    ordinal INTEGER NOT NULL,
    aspect_def_id TEXT,
    PRIMARY KEY (catalog_id, name),
    FOREIGN KEY (catalog_id) REFERENCES catalog(catalog_id)
);`

	createHierarchyEntityList = `CREATE TABLE IF NOT EXISTS hierarchy_entity_list (
    catalog_id TEXT NOT NULL,
    hierarchy_name TEXT NOT NULL,
    position INTEGER NOT NULL,
    entity_id TEXT NOT NULL,
    PRIMARY KEY (catalog_id, hierarchy_name, position),
    FOREIGN KEY (catalog_id) REFERENCES catalog(catalog_id),
    FOREIGN KEY (entity_id) REFERENCES entity(entity_id)
);`

	createHierarchyEntitySet = `CREATE TABLE IF NOT EXISTS hierarchy_entity_set (
    catalog_id TEXT NOT NULL,
    hierarchy_name TEXT NOT NULL,
    entity_id TEXT NOT NULL,
    ordinal INTEGER NOT NULL,
    PRIMARY KEY (catalog_id, hierarchy_name, entity_id),
    FOREIGN KEY (catalog_id) REFERENCES catalog(catalog_id),
    FOREIGN KEY (entity_id) REFERENCES entity(entity_id)
);`

	createHierarchyEntityDirectory = `CREATE TABLE IF NOT EXISTS hierarchy_entity_directory (
    catalog_id TEXT NOT NULL,
    hierarchy_name TEXT NOT NULL,
    dir_key TEXT NOT NULL,
    entity_id TEXT NOT NULL,
    ordinal INTEGER NOT NULL,
    PRIMARY KEY (catalog_id, hierarchy_name, dir_key),
    FOREIGN KEY (catalog_id) REFERENCES catalog(catalog_id),
    FOREIGN KEY (entity_id) REFERENCES entity(entity_id)
);`

	createHierarchyEntityTreeNode = `CREATE TABLE IF NOT EXISTS hierarchy_entity_tree_node (
    node_id TEXT PRIMARY KEY,
    catalog_id TEXT NOT NULL,
    hierarchy_name TEXT NOT NULL,
    parent_node_id TEXT,
    child_key TEXT,
    entity_id TEXT,
    path TEXT NOT NULL,
    ordinal INTEGER NOT NULL,
    FOREIGN KEY (catalog_id) REFERENCES catalog(catalog_id),
    FOREIGN KEY (entity_id) REFERENCES entity(entity_id)
);`

	createHierarchyAspectMap = `CREATE TABLE IF NOT EXISTS hierarchy_aspect_map (
    catalog_id TEXT NOT NULL,
    hierarchy_name TEXT NOT NULL,
    aspect_def_id TEXT NOT NULL,
    entity_id TEXT NOT NULL,
    ordinal INTEGER NOT NULL,
    PRIMARY KEY (catalog_id, hierarchy_name, entity_id),
    FOREIGN KEY (catalog_id) REFERENCES catalog(catalog_id),
    FOREIGN KEY (aspect_def_id) REFERENCES aspect_def(aspect_def_id),
    FOREIGN KEY (entity_id) REFERENCES entity(entity_id)
);`

	createAspect = `CREATE TABLE IF NOT EXISTS aspect (
    entity_id TEXT NOT NULL,
    aspect_def_id TEXT NOT NULL,
    catalog_id TEXT NOT NULL,
    hierarchy_name TEXT NOT NULL,
    PRIMARY KEY (entity_id, aspect_def_id, catalog_id, hierarchy_name),
    FOREIGN KEY (entity_id) REFERENCES entity(entity_id),
    FOREIGN KEY (aspect_def_id) REFERENCES aspect_def(aspect_def_id),
    FOREIGN KEY (catalog_id) REFERENCES catalog(catalog_id)
);`

	createPropertyValue = `CREATE TABLE IF NOT EXISTS property_value (
    entity_id TEXT NOT NULL,
    aspect_def_id TEXT NOT NULL,
    catalog_id TEXT NOT NULL,
    hierarchy_name TEXT NOT NULL,
    property_name TEXT NOT NULL,
    idx INTEGER NOT NULL DEFAULT 0,
    value TEXT,
    PRIMARY KEY (entity_id, aspect_def_id, catalog_id, hierarchy_name, property_name, idx),
    FOREIGN KEY (entity_id) REFERENCES entity(entity_id),
    FOREIGN KEY (aspect_def_id) REFERENCES aspect_def(aspect_def_id),
    FOREIGN KEY (catalog_id) REFERENCES catalog(catalog_id)
);`
)

// createStatements lists DDL in parent-tables-first order.
var createStatements = []string{
	createEntity,
	createCatalog,
	createAspectDef,
	createCatalogAspectDef,
	createPropertyDef,
	createHierarchy,
	createHierarchyEntityList,
	createHierarchyEntitySet,
	createHierarchyEntityDirectory,
	createHierarchyEntityTreeNode,
	createHierarchyAspectMap,
	createAspect,
	createPropertyValue,
}

// dropOrder lists table names child-tables-first so drops respect foreign
// keys.
var dropOrder = []string{
	"property_value",
	"aspect",
	"hierarchy_aspect_map",
	"hierarchy_entity_tree_node",
	"hierarchy_entity_directory",
	"hierarchy_entity_set",
	"hierarchy_entity_list",
	"hierarchy",
	"property_def",
	"catalog_aspect_def",
	"aspect_def",
	"catalog",
	"entity",
}

// createSchema ensures every engine table exists.
func createSchema(db *sql.DB) error {
	for _, stmt := range createStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("executing DDL: %w", err)
		}
	}
	return nil
}

// DropSchema removes every engine table, children first. Mapped aspect
// tables are caller-owned and are not touched.
func (b *Backend) DropSchema() error {
	db, err := b.handle()
	if err != nil {
		return err
	}
	for _, table := range dropOrder {
		if _, err := db.Exec("DROP TABLE IF EXISTS " + table); err != nil {
			return fmt.Errorf("dropping %s: %w", table, err)
		}
	}
	return nil
}
