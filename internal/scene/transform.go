package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Transform places an entity in world space.
type Transform struct {
	Translation mgl32.Vec3
	Rotation    mgl32.Quat
	Scale       mgl32.Vec3
}

// Identity is the transform that does nothing.
func Identity() Transform {
	return Transform{Rotation: mgl32.QuatIdent(), Scale: mgl32.Vec3{1, 1, 1}}
}

// FromXYZ is an identity transform moved to (x, y, z).
func FromXYZ(x, y, z float32) Transform {
	t := Identity()
	t.Translation = mgl32.Vec3{x, y, z}
	return t
}

// WithRotation returns a copy with the rotation replaced.
func (t Transform) WithRotation(q mgl32.Quat) Transform {
	t.Rotation = q
	return t
}

// LookingAt returns a copy rotated so that its forward (-Z) axis points at target.
func (t Transform) LookingAt(target, up mgl32.Vec3) Transform {
	view := mgl32.LookAtV(t.Translation, target, up)
	t.Rotation = mgl32.Mat4ToQuat(view.Inv()).Normalize()
	return t
}

// RotateY rotates around the world Y axis.
func (t *Transform) RotateY(angle float32) {
	t.Rotation = mgl32.QuatRotate(angle, mgl32.Vec3{0, 1, 0}).Mul(t.Rotation).Normalize()
}

// Forward is the local -Z axis in world space.
func (t Transform) Forward() mgl32.Vec3 {
	return t.Rotation.Rotate(mgl32.Vec3{0, 0, -1})
}

// Matrix is translation * rotation * scale.
func (t Transform) Matrix() mgl32.Mat4 {
	return mgl32.Translate3D(t.Translation.Elem()).
		Mul4(t.Rotation.Mat4()).
		Mul4(mgl32.Scale3D(t.Scale.Elem()))
}
