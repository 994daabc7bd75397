package ecs

import (
	"reflect"

	"blastview/internal/slotmap"
)

// World contains all entities, their components, singleton resources and event queues.
// It is not safe for concurrent use; the frame runner owns it.
type World struct {
	entities  *slotmap.Map[struct{}]
	stores    map[reflect.Type]componentStore
	order     []componentStore
	resources map[reflect.Type]any
	events    []eventQueue
	tick      uint32
}

// NewWorld creates an empty world.
func NewWorld() *World {
	return &World{
		entities:  slotmap.New[struct{}](),
		stores:    make(map[reflect.Type]componentStore),
		resources: make(map[reflect.Type]any),
		tick:      1,
	}
}

// Spawn allocates a new entity.
func (w *World) Spawn() Entity {
	return Entity(w.entities.Insert(struct{}{}).Bits())
}

// Alive reports whether e is a live entity of this world.
func (w *World) Alive(e Entity) bool {
	return w.entities.Contains(slotmap.KeyFromBits(e.Bits()))
}

// Despawn removes e and every component it carries.
func (w *World) Despawn(e Entity) bool {
	if _, err := w.entities.Remove(slotmap.KeyFromBits(e.Bits())); err != nil {
		return false
	}
	for _, s := range w.order {
		s.remove(e)
	}
	return true
}

// Len returns the number of live entities.
func (w *World) Len() int {
	return w.entities.Len()
}

// Tick is the current change tick.
func (w *World) Tick() uint32 {
	return w.tick
}

// IncrementTick advances the change tick; the runner calls it before every system.
func (w *World) IncrementTick() uint32 {
	w.tick++
	return w.tick
}

// ClearTrackers drops removal records older than before.
func (w *World) ClearTrackers(before uint32) {
	for _, s := range w.order {
		s.clearRemovals(before)
	}
}

// StoreOf returns the store for component type T, creating it on first use.
func StoreOf[T any](w *World) *Store[T] {
	key := reflect.TypeFor[T]()
	if s, ok := w.stores[key]; ok {
		return s.(*Store[T])
	}
	s := newStore[T](w)
	w.stores[key] = s
	w.order = append(w.order, s)
	return s
}

// Insert attaches v to e. Dead entities are ignored.
func Insert[T any](w *World, e Entity, v T) bool {
	if !w.Alive(e) {
		return false
	}
	StoreOf[T](w).Set(e, v)
	return true
}

// Get reads the component T of e.
func Get[T any](w *World, e Entity) (T, bool) {
	return StoreOf[T](w).Get(e)
}

// SetResource installs a singleton, replacing any previous value of the same type.
func SetResource[T any](w *World, v *T) {
	w.resources[reflect.TypeFor[T]()] = v
}

// Resource returns the singleton of type T.
func Resource[T any](w *World) (*T, bool) {
	v, ok := w.resources[reflect.TypeFor[T]()]
	if !ok {
		return nil, false
	}
	return v.(*T), true
}

// RemoveResource takes the singleton out of the world.
func RemoveResource[T any](w *World) (*T, bool) {
	key := reflect.TypeFor[T]()
	v, ok := w.resources[key]
	if !ok {
		return nil, false
	}
	delete(w.resources, key)
	return v.(*T), true
}

// UpdateEvents swaps the buffers of every registered event queue.
func (w *World) UpdateEvents() {
	for _, q := range w.events {
		q.update()
	}
}
