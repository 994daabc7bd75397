package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// AABB is an axis-aligned bounding box in world space.
type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// FromCenter builds a box from its center and half extents.
func FromCenter(center, halfSize mgl32.Vec3) AABB {
	return AABB{Min: center.Sub(halfSize), Max: center.Add(halfSize)}
}

// Center returns the midpoint of the box.
func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// HalfSize returns the half extents.
func (b AABB) HalfSize() mgl32.Vec3 {
	return b.Max.Sub(b.Min).Mul(0.5)
}

// Contains reports whether p lies inside or on the box.
func (b AABB) Contains(p mgl32.Vec3) bool {
	return p.X() >= b.Min.X() && p.X() <= b.Max.X() &&
		p.Y() >= b.Min.Y() && p.Y() <= b.Max.Y() &&
		p.Z() >= b.Min.Z() && p.Z() <= b.Max.Z()
}

// Overlaps reports whether the boxes share volume; touching faces do not count.
func (b AABB) Overlaps(o AABB) bool {
	return b.Min.X() < o.Max.X() && b.Max.X() > o.Min.X() &&
		b.Min.Y() < o.Max.Y() && b.Max.Y() > o.Min.Y() &&
		b.Min.Z() < o.Max.Z() && b.Max.Z() > o.Min.Z()
}

// Penetration returns the overlap depth and the axis (0=X, 1=Y, 2=Z) of
// minimum penetration, or (0, -1) when the boxes are apart.
func (b AABB) Penetration(o AABB) (float32, int) {
	depth := float32(math.MaxFloat32)
	axis := -1
	for i := 0; i < 3; i++ {
		overlap := min(b.Max[i], o.Max[i]) - max(b.Min[i], o.Min[i])
		if overlap <= 0 {
			return 0, -1
		}
		if overlap < depth {
			depth = overlap
			axis = i
		}
	}
	return depth, axis
}

// Corners lists the eight corners, bottom face first.
func (b AABB) Corners() [8]mgl32.Vec3 {
	lo, hi := b.Min, b.Max
	return [8]mgl32.Vec3{
		{lo.X(), lo.Y(), lo.Z()}, {hi.X(), lo.Y(), lo.Z()},
		{hi.X(), lo.Y(), hi.Z()}, {lo.X(), lo.Y(), hi.Z()},
		{lo.X(), hi.Y(), lo.Z()}, {hi.X(), hi.Y(), lo.Z()},
		{hi.X(), hi.Y(), hi.Z()}, {lo.X(), hi.Y(), hi.Z()},
	}
}
