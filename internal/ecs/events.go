package ecs

import "reflect"

type eventQueue interface {
	update()
}

type eventInstance[T any] struct {
	id    uint64
	event T
}

// Events is a double-buffered queue. An event stays readable for two
// calls to Update, so a reader running once per frame never misses one.
type Events[T any] struct {
	older  []eventInstance[T]
	newer  []eventInstance[T]
	nextID uint64
}

// EventsOf returns the queue for T, registering it with the world on first use.
func EventsOf[T any](w *World) *Events[T] {
	if q, ok := Resource[Events[T]](w); ok {
		return q
	}
	q := &Events[T]{}
	w.resources[reflect.TypeFor[Events[T]]()] = q
	w.events = append(w.events, q)
	return q
}

// Send appends an event.
func (q *Events[T]) Send(ev T) {
	q.newer = append(q.newer, eventInstance[T]{id: q.nextID, event: ev})
	q.nextID++
}

// Len returns the number of buffered events.
func (q *Events[T]) Len() int {
	return len(q.older) + len(q.newer)
}

func (q *Events[T]) update() {
	q.older, q.newer = q.newer, q.older[:0]
}

// EventReader tracks what one consumer has already seen.
type EventReader[T any] struct {
	next uint64
}

// Read returns events not yet seen by this reader, oldest first.
func (r *EventReader[T]) Read(q *Events[T]) []T {
	var out []T
	for _, buf := range [2][]eventInstance[T]{q.older, q.newer} {
		for _, inst := range buf {
			if inst.id >= r.next {
				out = append(out, inst.event)
			}
		}
	}
	r.next = q.nextID
	return out
}

// Pending reports whether Read would return anything.
func (r *EventReader[T]) Pending(q *Events[T]) bool {
	if n := len(q.newer); n > 0 {
		return q.newer[n-1].id >= r.next
	}
	if n := len(q.older); n > 0 {
		return q.older[n-1].id >= r.next
	}
	return false
}
