package blast

import (
	"github.com/go-gl/mathgl/mgl32"

	"blastview/internal/geom"
)

// DrillHole is a charged cylinder in the bench. Timing is the elapsed time,
// in seconds, at which it fires.
type DrillHole struct {
	Position mgl32.Vec3
	Radius   float32
	Height   float32
	Timing   float32
}

// DrillHoles is the resource listing every hole of the blast.
type DrillHoles []DrillHole

// Active reports whether the hole is firing at elapsed seconds. A hole
// fires for one second either side of its timing.
func (h DrillHole) Active(elapsed float32) bool {
	return elapsed < h.Timing+1 && elapsed > h.Timing-1
}

// Intersects reports whether box touches the hole's cylinder, which is
// centred on Position with its axis along Y.
func (h DrillHole) Intersects(box geom.AABB) bool {
	half := h.Height / 2
	if box.Max.Y() < h.Position.Y()-half || box.Min.Y() > h.Position.Y()+half {
		return false
	}
	// closest point of the box footprint to the axis
	cx := clamp(h.Position.X(), box.Min.X(), box.Max.X())
	cz := clamp(h.Position.Z(), box.Min.Z(), box.Max.Z())
	dx, dz := cx-h.Position.X(), cz-h.Position.Z()
	return dx*dx+dz*dz <= h.Radius*h.Radius
}

// InFootprint reports whether (x, z) lies within the hole's radius.
func (h DrillHole) InFootprint(x, z float32) bool {
	dx, dz := x-h.Position.X(), z-h.Position.Z()
	return dx*dx+dz*dz <= h.Radius*h.Radius
}

// InsideHoleFootprint reports whether any hole covers (x, z).
func (hs DrillHoles) InsideHoleFootprint(x, z float32) bool {
	for _, h := range hs {
		if h.InFootprint(x, z) {
			return true
		}
	}
	return false
}

// Impulse is the push a body at p receives from the hole: away from the
// hole centre with the given magnitude. A body exactly at the centre gets
// nothing.
func (h DrillHole) Impulse(p mgl32.Vec3, force float32) mgl32.Vec3 {
	d := p.Sub(h.Position)
	l := d.Len()
	if l == 0 {
		return mgl32.Vec3{}
	}
	return d.Mul(force / l)
}

func clamp(v, lo, hi float32) float32 {
	return max(lo, min(v, hi))
}
