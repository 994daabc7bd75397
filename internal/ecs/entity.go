package ecs

import (
	"fmt"
	"math"
)

// Entity is an opaque identifier laid out as generation<<32 | index.
// Hosts only ever see it as a uint64 and must round-trip it unchanged.
type Entity uint64

// Placeholder marks "no entity". Its index is never allocated.
const Placeholder Entity = Entity(uint64(1)<<32 | math.MaxUint32)

// FromBits converts a host-supplied value back into an Entity.
func FromBits(bits uint64) Entity {
	return Entity(bits)
}

// Bits returns the raw value handed to hosts.
func (e Entity) Bits() uint64 {
	return uint64(e)
}

// Index is the arena slot of the entity.
func (e Entity) Index() uint32 {
	return uint32(e)
}

// Generation distinguishes reuses of the same slot.
func (e Entity) Generation() uint32 {
	return uint32(uint64(e) >> 32)
}

func (e Entity) String() string {
	if e == Placeholder {
		return "PLACEHOLDER"
	}
	return fmt.Sprintf("%dv%d", e.Index(), e.Generation())
}
