package slotmap

import (
	"errors"
	"math"
)

var (
	// ErrUnknownKey is returned for keys whose index was never handed out.
	ErrUnknownKey = errors.New("slotmap: unknown key")
	// ErrStaleKey is returned for keys whose slot has since been freed or reused.
	ErrStaleKey = errors.New("slotmap: stale key")
)

// Key identifies a slot. Generation starts at 1 so the zero Key is never valid.
type Key struct {
	Index      uint32
	Generation uint32
}

// Bits packs the key as generation<<32 | index.
func (k Key) Bits() uint64 {
	return uint64(k.Generation)<<32 | uint64(k.Index)
}

// KeyFromBits is the inverse of Key.Bits.
func KeyFromBits(bits uint64) Key {
	return Key{Index: uint32(bits), Generation: uint32(bits >> 32)}
}

type slot[T any] struct {
	value      T
	generation uint32
	occupied   bool
}

// Map is a generational arena. Removing a value bumps the slot generation,
// so keys issued before the removal are rejected afterwards.
// Map is not safe for concurrent use.
type Map[T any] struct {
	slots []slot[T]
	free  []uint32
	len   int
}

// New creates an empty map.
func New[T any]() *Map[T] {
	return &Map[T]{}
}

// Insert stores value and returns its key.
func (m *Map[T]) Insert(value T) Key {
	var idx uint32
	if n := len(m.free); n > 0 {
		idx = m.free[n-1]
		m.free = m.free[:n-1]
	} else {
		if len(m.slots) >= math.MaxUint32 {
			panic("slotmap: index space exhausted")
		}
		idx = uint32(len(m.slots))
		m.slots = append(m.slots, slot[T]{generation: 1})
	}
	s := &m.slots[idx]
	s.value = value
	s.occupied = true
	m.len++
	return Key{Index: idx, Generation: s.generation}
}

func (m *Map[T]) lookup(k Key) (*slot[T], error) {
	if int(k.Index) >= len(m.slots) || k.Generation == 0 {
		return nil, ErrUnknownKey
	}
	s := &m.slots[k.Index]
	if !s.occupied || s.generation != k.Generation {
		return nil, ErrStaleKey
	}
	return s, nil
}

// Get returns the value stored under k.
func (m *Map[T]) Get(k Key) (T, error) {
	s, err := m.lookup(k)
	if err != nil {
		var zero T
		return zero, err
	}
	return s.value, nil
}

// Ptr returns a pointer into the arena. It is invalidated by the next Insert.
func (m *Map[T]) Ptr(k Key) (*T, error) {
	s, err := m.lookup(k)
	if err != nil {
		return nil, err
	}
	return &s.value, nil
}

// Contains reports whether k refers to a live value.
func (m *Map[T]) Contains(k Key) bool {
	_, err := m.lookup(k)
	return err == nil
}

// Remove frees the slot and returns the value it held.
func (m *Map[T]) Remove(k Key) (T, error) {
	s, err := m.lookup(k)
	if err != nil {
		var zero T
		return zero, err
	}
	v := s.value
	var zero T
	s.value = zero
	s.occupied = false
	s.generation++
	if s.generation == 0 {
		// wrapped; retire the slot instead of recycling generation 0
		m.len--
		return v, nil
	}
	m.free = append(m.free, k.Index)
	m.len--
	return v, nil
}

// Len returns the number of live values.
func (m *Map[T]) Len() int {
	return m.len
}

// Each visits live values in index order until fn returns false.
func (m *Map[T]) Each(fn func(Key, T) bool) {
	for i := range m.slots {
		s := &m.slots[i]
		if !s.occupied {
			continue
		}
		if !fn(Key{Index: uint32(i), Generation: s.generation}, s.value) {
			return
		}
	}
}
