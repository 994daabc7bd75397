package geom

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Kind enumerates the closed set of primitive shapes.
type Kind uint8

const (
	KindBox Kind = iota
	KindSphere
	KindCylinder
	KindCapsule
	KindTorus
)

func (k Kind) String() string {
	switch k {
	case KindBox:
		return "box"
	case KindSphere:
		return "sphere"
	case KindCylinder:
		return "cylinder"
	case KindCapsule:
		return "capsule"
	case KindTorus:
		return "torus"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Cuboid is a box given by its half extents.
type Cuboid struct {
	HalfSize mgl32.Vec3
}

// CuboidFromSize builds a cuboid from full edge lengths.
func CuboidFromSize(size mgl32.Vec3) Cuboid {
	return Cuboid{HalfSize: size.Mul(0.5)}
}

// UnitCuboid is the 1x1x1 default box.
func UnitCuboid() Cuboid {
	return Cuboid{HalfSize: mgl32.Vec3{0.5, 0.5, 0.5}}
}

// Sphere is centred at the origin.
type Sphere struct {
	Radius float32
}

// Cylinder is aligned with the local Y axis.
type Cylinder struct {
	Radius     float32
	HalfHeight float32
}

// Capsule is a Y-aligned segment swept by a sphere.
type Capsule struct {
	Radius     float32
	HalfLength float32
}

// Torus lies in the local XZ plane.
type Torus struct {
	MinorRadius float32
	MajorRadius float32
}

// Shape is a tagged variant: Kind selects which field is meaningful.
type Shape struct {
	Kind     Kind
	Cuboid   Cuboid
	Sphere   Sphere
	Cylinder Cylinder
	Capsule  Capsule
	Torus    Torus
}

func BoxShape(c Cuboid) Shape        { return Shape{Kind: KindBox, Cuboid: c} }
func SphereShape(s Sphere) Shape     { return Shape{Kind: KindSphere, Sphere: s} }
func CylinderShape(c Cylinder) Shape { return Shape{Kind: KindCylinder, Cylinder: c} }
func CapsuleShape(c Capsule) Shape   { return Shape{Kind: KindCapsule, Capsule: c} }
func TorusShape(t Torus) Shape       { return Shape{Kind: KindTorus, Torus: t} }

// AABB returns the world bounding box of the shape placed at translation with rotation.
func (s Shape) AABB(translation mgl32.Vec3, rotation mgl32.Quat) AABB {
	var half mgl32.Vec3
	switch s.Kind {
	case KindBox:
		half = rotatedExtents(rotation.Mat4().Mat3(), s.Cuboid.HalfSize)
	case KindSphere:
		r := s.Sphere.Radius
		half = mgl32.Vec3{r, r, r}
	case KindCylinder:
		axis := rotation.Rotate(mgl32.Vec3{0, 1, 0})
		for i := 0; i < 3; i++ {
			a := axis[i]
			half[i] = abs32(a)*s.Cylinder.HalfHeight + s.Cylinder.Radius*sqrt32(max(0, 1-a*a))
		}
	case KindCapsule:
		axis := rotation.Rotate(mgl32.Vec3{0, 1, 0})
		for i := 0; i < 3; i++ {
			half[i] = abs32(axis[i])*s.Capsule.HalfLength + s.Capsule.Radius
		}
	case KindTorus:
		axis := rotation.Rotate(mgl32.Vec3{0, 1, 0})
		for i := 0; i < 3; i++ {
			a := axis[i]
			half[i] = s.Torus.MajorRadius*sqrt32(max(0, 1-a*a)) + s.Torus.MinorRadius
		}
	default:
		panic(fmt.Sprintf("geom: unhandled shape %v", s.Kind))
	}
	return FromCenter(translation, half)
}

func sqrt32(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}

// rotatedExtents computes |R| * h, the half extents of a rotated box.
func rotatedExtents(r mgl32.Mat3, h mgl32.Vec3) mgl32.Vec3 {
	var out mgl32.Vec3
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			out[row] += abs32(r.At(row, col)) * h[col]
		}
	}
	return out
}
