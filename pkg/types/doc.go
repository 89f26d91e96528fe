// Package types defines the Facets data model: the property type system,
// schema descriptors (PropertyDef, AspectDef, HierarchyDef), the entity and
// aspect runtime, the five hierarchy variants, the Catalog container, the
// Store interface, and standard errors.
// See docs/ARCHITECTURE.md § Data Model.
package types
