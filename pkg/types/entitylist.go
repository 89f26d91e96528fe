package types

import "fmt"

// EntityList is an ordered sequence of entity references. Duplicates are
// allowed; positions are dense from zero.
type EntityList struct {
	hierarchyBase
	items []*Entity
}

// NewEntityList creates an empty entity-list hierarchy.
func NewEntityList(name string) *EntityList {
	return &EntityList{hierarchyBase: hierarchyBase{name: name, typ: HierarchyEntityList}}
}

// Append adds an entity at the end of the list.
func (l *EntityList) Append(e *Entity) {
	l.items = append(l.items, e)
	l.bump()
}

// Insert places an entity at position i, shifting later entries.
func (l *EntityList) Insert(i int, e *Entity) error {
	if i < 0 || i > len(l.items) {
		return fmt.Errorf("position %d out of range [0,%d]: %w", i, len(l.items), ErrNotFound)
	}
	l.items = append(l.items, nil)
	copy(l.items[i+1:], l.items[i:])
	l.items[i] = e
	l.bump()
	return nil
}

// At returns the entity at position i.
func (l *EntityList) At(i int) (*Entity, error) {
	if i < 0 || i >= len(l.items) {
		return nil, fmt.Errorf("position %d out of range [0,%d): %w", i, len(l.items), ErrNotFound)
	}
	return l.items[i], nil
}

// RemoveAt deletes the entry at position i and returns it.
func (l *EntityList) RemoveAt(i int) (*Entity, error) {
	e, err := l.At(i)
	if err != nil {
		return nil, err
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	l.bump()
	return e, nil
}

// Len returns the number of entries.
func (l *EntityList) Len() int { return len(l.items) }

// Entities returns the entries in positional order.
func (l *EntityList) Entities() []*Entity {
	out := make([]*Entity, len(l.items))
	copy(out, l.items)
	return out
}
