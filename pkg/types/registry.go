package types

import (
	"container/list"
	"sync"

	"github.com/google/uuid"
)

// EntityRegistry deduplicates entities by id and carries the advisory
// aspect cache. During a single load the registry guarantees one *Entity
// per id; the cache is never authoritative, a miss always falls through to
// the owning catalog.
//
// The registry is safe for concurrent reads after a load completes, but a
// single load must not share it across goroutines.
type EntityRegistry struct {
	mu       sync.RWMutex
	entities map[uuid.UUID]*Entity
	cache    *aspectCache
}

// NewEntityRegistry creates a registry whose advisory cache holds at most
// cacheSize aspects; zero selects DefaultCacheSize.
func NewEntityRegistry(cacheSize int) *EntityRegistry {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	return &EntityRegistry{
		entities: make(map[uuid.UUID]*Entity),
		cache:    newAspectCache(cacheSize),
	}
}

// Entity returns the registered entity for id, creating it on first
// reference.
func (r *EntityRegistry) Entity(id uuid.UUID) *Entity {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entities[id]; ok {
		return e
	}
	e := &Entity{ID: id}
	r.entities[id] = e
	return e
}

// Len returns the number of registered entities.
func (r *EntityRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entities)
}

// CacheAspect records an aspect in the advisory cache, evicting the least
// recently used entry when full.
func (r *EntityRegistry) CacheAspect(a *Aspect) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.put(a)
}

// CachedAspect returns a recently-seen aspect for (entity, def) if one is
// still cached.
func (r *EntityRegistry) CachedAspect(e *Entity, def *AspectDef) (*Aspect, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.get(e.ID, def.ID)
}

// aspectCacheKey identifies one cached aspect.
type aspectCacheKey struct {
	entity uuid.UUID
	def    uuid.UUID
}

// aspectCache is a size-bounded LRU over aspects.
type aspectCache struct {
	limit   int
	order   *list.List
	entries map[aspectCacheKey]*list.Element
}

type aspectCacheEntry struct {
	key    aspectCacheKey
	aspect *Aspect
}

func newAspectCache(limit int) *aspectCache {
	return &aspectCache{
		limit:   limit,
		order:   list.New(),
		entries: make(map[aspectCacheKey]*list.Element),
	}
}

func (c *aspectCache) put(a *Aspect) {
	key := aspectCacheKey{entity: a.Entity().ID, def: a.Def().ID}
	if elem, ok := c.entries[key]; ok {
		elem.Value.(*aspectCacheEntry).aspect = a
		c.order.MoveToFront(elem)
		return
	}
	c.entries[key] = c.order.PushFront(&aspectCacheEntry{key: key, aspect: a})
	for c.order.Len() > c.limit {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*aspectCacheEntry).key)
	}
}

func (c *aspectCache) get(entity, def uuid.UUID) (*Aspect, bool) {
	elem, ok := c.entries[aspectCacheKey{entity: entity, def: def}]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*aspectCacheEntry).aspect, true
}
