package types

import "github.com/google/uuid"

// EntitySet is a collection of unique entity references preserving
// insertion order.
type EntitySet struct {
	hierarchyBase
	order   []*Entity
	members map[uuid.UUID]bool
}

// NewEntitySet creates an empty entity-set hierarchy.
func NewEntitySet(name string) *EntitySet {
	return &EntitySet{
		hierarchyBase: hierarchyBase{name: name, typ: HierarchyEntitySet},
		members:       make(map[uuid.UUID]bool),
	}
}

// Add appends the entity if not already a member. Returns true when the set
// changed.
func (s *EntitySet) Add(e *Entity) bool {
	if s.members[e.ID] {
		return false
	}
	s.members[e.ID] = true
	s.order = append(s.order, e)
	s.bump()
	return true
}

// Contains reports membership.
func (s *EntitySet) Contains(e *Entity) bool {
	return e != nil && s.members[e.ID]
}

// Remove deletes the entity from the set. Returns true when the set
// changed.
func (s *EntitySet) Remove(e *Entity) bool {
	if e == nil || !s.members[e.ID] {
		return false
	}
	delete(s.members, e.ID)
	for i, m := range s.order {
		if m.ID == e.ID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.bump()
	return true
}

// Len returns the number of members.
func (s *EntitySet) Len() int { return len(s.order) }

// Entities returns the members in insertion order.
func (s *EntitySet) Entities() []*Entity {
	out := make([]*Entity, len(s.order))
	copy(out, s.order)
	return out
}
