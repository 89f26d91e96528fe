package types

import "github.com/google/uuid"

// Entity is a bare globally-unique identifier. All of its data lives in
// attached aspects; equality and hashing are defined by the id alone.
type Entity struct {
	ID uuid.UUID
}

// NewEntity creates an entity with a fresh random id.
func NewEntity() *Entity {
	return &Entity{ID: uuid.New()}
}

// Equals reports id equality.
func (e *Entity) Equals(o *Entity) bool {
	if e == nil || o == nil {
		return e == o
	}
	return e.ID == o.ID
}

func (e *Entity) String() string { return e.ID.String() }
