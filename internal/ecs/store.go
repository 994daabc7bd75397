package ecs

// cell keeps a component next to the tick it was last written at.
type cell[T any] struct {
	value   T
	changed uint32
}

type removal struct {
	entity Entity
	tick   uint32
}

// componentStore is the type-erased view the World needs for despawns and tracker cleanup.
type componentStore interface {
	remove(e Entity) bool
	clearRemovals(before uint32)
}

// Store is a container for one component type.
// Iteration follows insertion order.
type Store[T any] struct {
	world    *World
	cells    map[Entity]*cell[T]
	entities []Entity
	removed  []removal
}

func newStore[T any](w *World) *Store[T] {
	return &Store[T]{
		world:    w,
		cells:    make(map[Entity]*cell[T]),
		entities: make([]Entity, 0, 64),
	}
}

// Set inserts or replaces the component and marks it changed.
func (s *Store[T]) Set(e Entity, v T) {
	if c, ok := s.cells[e]; ok {
		c.value = v
		c.changed = s.world.tick
		return
	}
	s.cells[e] = &cell[T]{value: v, changed: s.world.tick}
	s.entities = append(s.entities, e)
}

// Get returns a copy of the component.
func (s *Store[T]) Get(e Entity) (T, bool) {
	c, ok := s.cells[e]
	if !ok {
		var zero T
		return zero, false
	}
	return c.value, true
}

// Ref returns a read-only pointer. Writes through it are not change-tracked.
func (s *Store[T]) Ref(e Entity) (*T, bool) {
	c, ok := s.cells[e]
	if !ok {
		return nil, false
	}
	return &c.value, true
}

// Mut returns a pointer and marks the component changed.
func (s *Store[T]) Mut(e Entity) (*T, bool) {
	c, ok := s.cells[e]
	if !ok {
		return nil, false
	}
	c.changed = s.world.tick
	return &c.value, true
}

// Has reports whether e carries the component.
func (s *Store[T]) Has(e Entity) bool {
	_, ok := s.cells[e]
	return ok
}

// Remove deletes the component and records the removal.
func (s *Store[T]) Remove(e Entity) bool {
	return s.remove(e)
}

func (s *Store[T]) remove(e Entity) bool {
	if _, ok := s.cells[e]; !ok {
		return false
	}
	delete(s.cells, e)
	for i, other := range s.entities {
		if other == e {
			s.entities = append(s.entities[:i], s.entities[i+1:]...)
			break
		}
	}
	s.removed = append(s.removed, removal{entity: e, tick: s.world.tick})
	return true
}

// Len returns the number of entities carrying the component.
func (s *Store[T]) Len() int {
	return len(s.entities)
}

// Entities returns a copy of the entity list in insertion order.
func (s *Store[T]) Entities() []Entity {
	out := make([]Entity, len(s.entities))
	copy(out, s.entities)
	return out
}

// Each visits every component until fn returns false.
func (s *Store[T]) Each(fn func(Entity, *T) bool) {
	for _, e := range s.entities {
		if !fn(e, &s.cells[e].value) {
			return
		}
	}
}

// EachMut is Each with change marking on every visited component.
func (s *Store[T]) EachMut(fn func(Entity, *T) bool) {
	for _, e := range s.entities {
		c := s.cells[e]
		c.changed = s.world.tick
		if !fn(e, &c.value) {
			return
		}
	}
}

// ChangedSince reports whether the component of e was written after tick.
func (s *Store[T]) ChangedSince(e Entity, tick uint32) bool {
	c, ok := s.cells[e]
	return ok && c.changed > tick
}

// RemovedSince lists entities that lost the component after tick.
func (s *Store[T]) RemovedSince(tick uint32) []Entity {
	var out []Entity
	for _, r := range s.removed {
		if r.tick > tick {
			out = append(out, r.entity)
		}
	}
	return out
}

func (s *Store[T]) clearRemovals(before uint32) {
	keep := s.removed[:0]
	for _, r := range s.removed {
		if r.tick >= before {
			keep = append(keep, r)
		}
	}
	s.removed = keep
}
