package geom

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Epsilon matches single precision machine epsilon.
const Epsilon = 1.1920929e-7

// ErrParallelRay is returned when a ray cannot meet a plane.
var ErrParallelRay = errors.New("geom: ray parallel to plane")

// Ray is a half line with a unit direction.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// NewRay normalises dir.
func NewRay(origin, dir mgl32.Vec3) Ray {
	return Ray{Origin: origin, Direction: dir.Normalize()}
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// IntersectPlane returns the distance to the plane through point with the
// given normal. False when the ray is parallel or the plane is behind.
func (r Ray) IntersectPlane(point, normal mgl32.Vec3) (float32, bool) {
	denom := normal.Dot(r.Direction)
	if abs32(denom) <= Epsilon {
		return 0, false
	}
	d := point.Sub(r.Origin).Dot(normal) / denom
	if d <= Epsilon {
		return 0, false
	}
	return d, true
}

// PlanePoint returns the intersection point with a plane.
func (r Ray) PlanePoint(point, normal mgl32.Vec3) (mgl32.Vec3, error) {
	d, ok := r.IntersectPlane(point, normal)
	if !ok {
		return mgl32.Vec3{}, ErrParallelRay
	}
	return r.At(d), nil
}

// RayCast is a ray limited to MaxDistance.
type RayCast struct {
	Ray         Ray
	MaxDistance float32
	invDir      mgl32.Vec3
}

// NewRayCast precomputes the inverse direction for slab tests.
func NewRayCast(r Ray, maxDistance float32) RayCast {
	inv := mgl32.Vec3{}
	for i := 0; i < 3; i++ {
		inv[i] = 1 / r.Direction[i]
	}
	return RayCast{Ray: r, MaxDistance: maxDistance, invDir: inv}
}

// AABBIntersectionAt returns the time of impact with box, clamped to zero
// when the origin is inside.
func (rc RayCast) AABBIntersectionAt(box AABB) (float32, bool) {
	tmin := float32(0)
	tmax := rc.MaxDistance
	for i := 0; i < 3; i++ {
		o := rc.Ray.Origin[i]
		inv := rc.invDir[i]
		if math.IsInf(float64(inv), 0) {
			// parallel to this slab: inside or never
			if o < box.Min[i] || o > box.Max[i] {
				return 0, false
			}
			continue
		}
		t1 := (box.Min[i] - o) * inv
		t2 := (box.Max[i] - o) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = max(tmin, t1)
		tmax = min(tmax, t2)
		if tmin > tmax {
			return 0, false
		}
	}
	return tmin, true
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
