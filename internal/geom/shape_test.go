package geom_test

import (
	"math"
	"testing"

	"blastview/internal/geom"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func assertVecNear(t *testing.T, want, got mgl32.Vec3) {
	t.Helper()
	assert.True(t, want.ApproxEqualThreshold(got, 1e-4), "want %v, got %v", want, got)
}

func TestBoxAABBIdentity(t *testing.T) {
	s := geom.BoxShape(geom.CuboidFromSize(mgl32.Vec3{1, 2, 3}))
	box := s.AABB(mgl32.Vec3{1, 1, 1}, mgl32.QuatIdent())
	assertVecNear(t, mgl32.Vec3{0.5, 0, -0.5}, box.Min)
	assertVecNear(t, mgl32.Vec3{1.5, 2, 2.5}, box.Max)
}

func TestBoxAABBRotated(t *testing.T) {
	s := geom.BoxShape(geom.UnitCuboid())
	rot := mgl32.QuatRotate(math.Pi/4, mgl32.Vec3{0, 0, 1})
	box := s.AABB(mgl32.Vec3{}, rot)
	h := float32(math.Sqrt2 / 2)
	assertVecNear(t, mgl32.Vec3{h, h, 0.5}, box.HalfSize())
}

func TestShapeVariants(t *testing.T) {
	tilt := mgl32.QuatRotate(math.Pi/2, mgl32.Vec3{1, 0, 0})
	tests := []struct {
		name  string
		shape geom.Shape
		rot   mgl32.Quat
		half  mgl32.Vec3
	}{
		{"sphere", geom.SphereShape(geom.Sphere{Radius: 2}), tilt, mgl32.Vec3{2, 2, 2}},
		{"cylinder upright", geom.CylinderShape(geom.Cylinder{Radius: 1, HalfHeight: 3}), mgl32.QuatIdent(), mgl32.Vec3{1, 3, 1}},
		{"cylinder on side", geom.CylinderShape(geom.Cylinder{Radius: 1, HalfHeight: 3}), tilt, mgl32.Vec3{1, 1, 3}},
		{"capsule", geom.CapsuleShape(geom.Capsule{Radius: 0.5, HalfLength: 1}), mgl32.QuatIdent(), mgl32.Vec3{0.5, 1.5, 0.5}},
		{"torus", geom.TorusShape(geom.Torus{MinorRadius: 0.25, MajorRadius: 1}), mgl32.QuatIdent(), mgl32.Vec3{1.25, 0.25, 1.25}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			box := tt.shape.AABB(mgl32.Vec3{}, tt.rot)
			assertVecNear(t, tt.half, box.HalfSize())
			assertVecNear(t, mgl32.Vec3{}, box.Center())
		})
	}
}

func TestUnknownKindPanics(t *testing.T) {
	assert.Panics(t, func() {
		geom.Shape{Kind: geom.Kind(200)}.AABB(mgl32.Vec3{}, mgl32.QuatIdent())
	})
}
