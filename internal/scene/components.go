package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"blastview/internal/geom"
)

// MeshKind is the display mesh of an entity. It is independent of the
// picking Shape: a capsule mesh may be picked through a box.
type MeshKind uint8

const (
	MeshCuboid MeshKind = iota
	MeshCapsule
	MeshTorus
	MeshCylinder
	MeshSphere
	MeshPlane
)

func (m MeshKind) String() string {
	switch m {
	case MeshCuboid:
		return "cuboid"
	case MeshCapsule:
		return "capsule"
	case MeshTorus:
		return "torus"
	case MeshCylinder:
		return "cylinder"
	case MeshSphere:
		return "sphere"
	case MeshPlane:
		return "plane"
	}
	return fmt.Sprintf("mesh(%d)", uint8(m))
}

// Mesh names the display mesh and its material colour.
type Mesh struct {
	Kind  MeshKind
	Size  mgl32.Vec2 // plane only
	Color Color
}

// Shape is the pickable bounding shape component.
type Shape struct {
	geom.Shape
}

// CurrentVolume is the world AABB derived from Shape and Transform.
type CurrentVolume struct {
	geom.AABB
}

// PointLight is a light source component.
type PointLight struct {
	Intensity       float32
	Range           float32
	ShadowsEnabled  bool
	ShadowDepthBias float32
}

// Ground marks the floor plane.
type Ground struct{}

// Color is linear RGBA.
type Color [4]float32

// Hex builds an opaque colour from 0xRRGGBB.
func Hex(rgb uint32) Color {
	return Color{
		float32(rgb>>16&0xff) / 255,
		float32(rgb>>8&0xff) / 255,
		float32(rgb&0xff) / 255,
		1,
	}
}

var (
	Blue400        = Hex(0x60A5FA)
	BlanchedAlmond = Hex(0xFFEBCD)
	Silver         = Hex(0xC0C0C0)
	DebugGreen     = Color{0, 1, 0, 1}
)
