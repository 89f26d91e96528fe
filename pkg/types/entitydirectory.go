package types

// EntityDirectory maps unique string keys to entity references, preserving
// key insertion order. Re-putting an existing key replaces the entity but
// keeps the key's position.
type EntityDirectory struct {
	hierarchyBase
	keys    []string
	entries map[string]*Entity
}

// NewEntityDirectory creates an empty entity-directory hierarchy.
func NewEntityDirectory(name string) *EntityDirectory {
	return &EntityDirectory{
		hierarchyBase: hierarchyBase{name: name, typ: HierarchyEntityDirectory},
		entries:       make(map[string]*Entity),
	}
}

// Put binds key to entity.
func (d *EntityDirectory) Put(key string, e *Entity) {
	if _, ok := d.entries[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.entries[key] = e
	d.bump()
}

// Get returns the entity bound to key.
func (d *EntityDirectory) Get(key string) (*Entity, bool) {
	e, ok := d.entries[key]
	return e, ok
}

// Delete unbinds key. Returns true when the directory changed.
func (d *EntityDirectory) Delete(key string) bool {
	if _, ok := d.entries[key]; !ok {
		return false
	}
	delete(d.entries, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
	d.bump()
	return true
}

// Keys returns the keys in insertion order.
func (d *EntityDirectory) Keys() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Len returns the number of entries.
func (d *EntityDirectory) Len() int { return len(d.entries) }
