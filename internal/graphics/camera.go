package graphics

import (
	"embed"

	"github.com/go-gl/mathgl/mgl32"

	"blastview/internal/ecs"
	"blastview/internal/pick"
)

// Shaders holds the GLSL sources shipped with the binary.
//
//go:embed shaders/*.vert shaders/*.frag
var Shaders embed.FS

const (
	LineVertShader = "shaders/line.vert"
	LineFragShader = "shaders/line.frag"
)

// CameraMatrices returns the view and projection of the world's only camera.
func CameraMatrices(w *ecs.World) (view, proj mgl32.Mat4, err error) {
	cam, tr, err := pick.SingleCamera(w)
	if err != nil {
		return mgl32.Mat4{}, mgl32.Mat4{}, err
	}
	return cam.View(tr), cam.Projection(), nil
}
