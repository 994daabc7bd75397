package scene

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"

	"blastview/internal/geom"
)

var (
	// ErrNoRenderTarget means the camera has not been given a size yet.
	ErrNoRenderTarget = errors.New("scene: camera has no render target size")
	// ErrSingularProjection means the view-projection matrix cannot be inverted.
	ErrSingularProjection = errors.New("scene: view-projection not invertible")
)

// Viewport restricts a camera to a sub-rectangle of its target, in target pixels.
type Viewport struct {
	PhysicalPosition mgl32.Vec2
	PhysicalSize     mgl32.Vec2
}

// Camera is a perspective camera component. TargetSize is kept in sync with
// the primary window so cursor coordinates and the projection agree.
type Camera struct {
	FOV        float32 // degrees
	NearPlane  float32
	FarPlane   float32
	Viewport   *Viewport
	TargetSize mgl32.Vec2
}

// NewCamera returns a camera with a 45 degree vertical field of view.
func NewCamera() Camera {
	return Camera{
		FOV:       45.0,
		NearPlane: 0.1,
		FarPlane:  1000.0,
	}
}

// ViewportSize is the size of the area the camera renders to.
func (c Camera) ViewportSize() mgl32.Vec2 {
	if c.Viewport != nil {
		return c.Viewport.PhysicalSize
	}
	return c.TargetSize
}

// AspectRatio of the viewport; 1 when unsized.
func (c Camera) AspectRatio() float32 {
	s := c.ViewportSize()
	if s.X() <= 0 || s.Y() <= 0 {
		return 1
	}
	return s.X() / s.Y()
}

// Projection returns the perspective matrix.
func (c Camera) Projection() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), c.AspectRatio(), c.NearPlane, c.FarPlane)
}

// View returns the world-to-camera matrix for the camera's transform.
func (c Camera) View(t Transform) mgl32.Mat4 {
	return t.Matrix().Inv()
}

// ViewportToWorld casts a ray from the near plane through a viewport pixel
// (origin top-left, Y down).
func (c Camera) ViewportToWorld(t Transform, pos mgl32.Vec2) (geom.Ray, error) {
	size := c.ViewportSize()
	if size.X() <= 0 || size.Y() <= 0 {
		return geom.Ray{}, ErrNoRenderTarget
	}
	vp := c.Projection().Mul4(c.View(t))
	if vp.Det() == 0 {
		return geom.Ray{}, ErrSingularProjection
	}
	inv := vp.Inv()

	ndcX := 2*pos.X()/size.X() - 1
	ndcY := 1 - 2*pos.Y()/size.Y()
	near := unproject(inv, mgl32.Vec4{ndcX, ndcY, -1, 1})
	far := unproject(inv, mgl32.Vec4{ndcX, ndcY, 1, 1})

	dir := far.Sub(near)
	if dir.Len() == 0 {
		return geom.Ray{}, ErrSingularProjection
	}
	return geom.NewRay(near, dir), nil
}

// WorldToViewport projects a world point to viewport pixels. False when the
// point is behind the camera.
func (c Camera) WorldToViewport(t Transform, p mgl32.Vec3) (mgl32.Vec2, bool) {
	size := c.ViewportSize()
	clip := c.Projection().Mul4(c.View(t)).Mul4x1(p.Vec4(1))
	if clip.W() <= 0 {
		return mgl32.Vec2{}, false
	}
	ndc := clip.Vec3().Mul(1 / clip.W())
	return mgl32.Vec2{
		(ndc.X() + 1) / 2 * size.X(),
		(1 - ndc.Y()) / 2 * size.Y(),
	}, true
}

func unproject(inv mgl32.Mat4, ndc mgl32.Vec4) mgl32.Vec3 {
	v := inv.Mul4x1(ndc)
	return v.Vec3().Mul(1 / v.W())
}
