package types

import (
	"fmt"

	"github.com/google/uuid"
)

// AspectMap maps entity references to aspects that all share one AspectDef,
// preserving insertion order. Re-putting an entity replaces its aspect but
// keeps its position.
type AspectMap struct {
	hierarchyBase
	def     *AspectDef
	order   []*Entity
	entries map[uuid.UUID]*Aspect
}

// NewAspectMap creates an empty aspect-map hierarchy bound to def.
func NewAspectMap(name string, def *AspectDef) *AspectMap {
	return &AspectMap{
		hierarchyBase: hierarchyBase{name: name, typ: HierarchyAspectMap},
		def:           def,
		entries:       make(map[uuid.UUID]*Aspect),
	}
}

// AspectDef returns the def shared by every entry.
func (m *AspectMap) AspectDef() *AspectDef { return m.def }

// Put stores the aspect under its entity. Returns ErrAspectDefMismatch if
// the aspect is governed by a different def.
func (m *AspectMap) Put(a *Aspect) error {
	if a.Def() != m.def {
		return fmt.Errorf("aspect def %q in map bound to %q: %w", a.Def().Name, m.def.Name, ErrAspectDefMismatch)
	}
	id := a.Entity().ID
	if _, ok := m.entries[id]; !ok {
		m.order = append(m.order, a.Entity())
	}
	m.entries[id] = a
	m.bump()
	return nil
}

// Get returns the aspect stored for the entity.
func (m *AspectMap) Get(e *Entity) (*Aspect, bool) {
	if e == nil {
		return nil, false
	}
	a, ok := m.entries[e.ID]
	return a, ok
}

// Remove deletes the entity's entry. Returns true when the map changed.
func (m *AspectMap) Remove(e *Entity) bool {
	if e == nil {
		return false
	}
	if _, ok := m.entries[e.ID]; !ok {
		return false
	}
	delete(m.entries, e.ID)
	for i, member := range m.order {
		if member.ID == e.ID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.bump()
	return true
}

// Entities returns the member entities in insertion order.
func (m *AspectMap) Entities() []*Entity {
	out := make([]*Entity, len(m.order))
	copy(out, m.order)
	return out
}

// Len returns the number of entries.
func (m *AspectMap) Len() int { return len(m.entries) }
