package types

import (
	"fmt"
	"hash/fnv"
	"sort"

	"github.com/google/uuid"
)

// Species tags a catalog with its caching relationship to an upstream
// source. The tag describes the relationship; nothing in this layer
// enforces synchronization.
type Species string

// Catalog species.
const (
	SpeciesSource Species = "SOURCE" // read-only cache of an external source
	SpeciesSink   Species = "SINK"   // read-write working copy
	SpeciesMirror Species = "MIRROR" // cached read-only view of another catalog
	SpeciesCache  Species = "CACHE"  // write-through view
	SpeciesClone  Species = "CLONE"  // manually-synced working copy
	SpeciesFork   Species = "FORK"   // transient, severable copy
)

// AllSpecies lists every species tag.
var AllSpecies = []Species{
	SpeciesSource, SpeciesSink, SpeciesMirror,
	SpeciesCache, SpeciesClone, SpeciesFork,
}

var validSpecies = func() map[Species]bool {
	m := make(map[Species]bool, len(AllSpecies))
	for _, s := range AllSpecies {
		m[s] = true
	}
	return m
}()

// Valid reports whether s is a recognized species tag.
func (s Species) Valid() bool { return validSpecies[s] }

// ParseSpecies converts a stored species tag back to a Species. Returns
// ErrUnknownSpecies if unrecognized.
func ParseSpecies(tag string) (Species, error) {
	s := Species(tag)
	if !s.Valid() {
		return "", ErrUnknownSpecies
	}
	return s, nil
}

// Catalog is the top-level container: named AspectDefs and hierarchies,
// tagged with a species and an optional upstream catalog reference. A
// catalog is created, populated, persisted, and reloaded as a unit.
type Catalog struct {
	ID       uuid.UUID
	Species  Species
	Upstream uuid.UUID // uuid.Nil when the catalog has no upstream
	Version  uint64

	defOrder  []string
	defs      map[string]*AspectDef
	hierOrder []string
	hiers     map[string]Hierarchy
}

// NewCatalog creates an empty catalog with a fresh id.
func NewCatalog(species Species) *Catalog {
	return &Catalog{
		ID:      uuid.New(),
		Species: species,
		defs:    make(map[string]*AspectDef),
		hiers:   make(map[string]Hierarchy),
	}
}

// AddAspectDef registers an AspectDef under its name. Returns
// ErrDuplicateName if the name is taken.
func (c *Catalog) AddAspectDef(def *AspectDef) error {
	if _, ok := c.defs[def.Name]; ok {
		return fmt.Errorf("aspect def %q: %w", def.Name, ErrDuplicateName)
	}
	c.defOrder = append(c.defOrder, def.Name)
	c.defs[def.Name] = def
	return nil
}

// AspectDef returns the def registered under name.
func (c *Catalog) AspectDef(name string) (*AspectDef, bool) {
	def, ok := c.defs[name]
	return def, ok
}

// AspectDefs returns the registered defs in registration order.
func (c *Catalog) AspectDefs() []*AspectDef {
	out := make([]*AspectDef, 0, len(c.defOrder))
	for _, name := range c.defOrder {
		out = append(out, c.defs[name])
	}
	return out
}

// AddHierarchy registers a hierarchy under its name. Returns
// ErrDuplicateName if the name is taken.
func (c *Catalog) AddHierarchy(h Hierarchy) error {
	if _, ok := c.hiers[h.Name()]; ok {
		return fmt.Errorf("hierarchy %q: %w", h.Name(), ErrDuplicateName)
	}
	c.hierOrder = append(c.hierOrder, h.Name())
	c.hiers[h.Name()] = h
	return nil
}

// Hierarchy returns the hierarchy registered under name.
func (c *Catalog) Hierarchy(name string) (Hierarchy, bool) {
	h, ok := c.hiers[name]
	return h, ok
}

// Hierarchies returns the registered hierarchies in registration order.
func (c *Catalog) Hierarchies() []Hierarchy {
	out := make([]Hierarchy, 0, len(c.hierOrder))
	for _, name := range c.hierOrder {
		out = append(out, c.hiers[name])
	}
	return out
}

// SchemaHash folds every AspectDef hash in canonical name order into one
// stable 64-bit hash of the catalog's schema.
func (c *Catalog) SchemaHash() uint64 {
	names := make([]string, 0, len(c.defs))
	for name := range c.defs {
		names = append(names, name)
	}
	sort.Strings(names)

	h := fnv.New64a()
	for _, name := range names {
		def := c.defs[name]
		fmt.Fprintf(h, "%s:%016x;", name, def.Hash())
	}
	return h.Sum64()
}

// CatalogInfo is the enumeration row returned by Store.ListCatalogs.
type CatalogInfo struct {
	ID          uuid.UUID
	Species     Species
	Version     uint64
	AspectDefs  int
	Hierarchies int
}
