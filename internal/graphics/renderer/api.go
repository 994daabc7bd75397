package renderer

import (
	"github.com/go-gl/mathgl/mgl32"

	"blastview/internal/ecs"
)

// RenderContext provides shared context for all renderables
type RenderContext struct {
	World *ecs.World
	DT    float64
	View  mgl32.Mat4
	Proj  mgl32.Mat4
}

// Renderable interface defines the lifecycle for renderable features
type Renderable interface {
	Init() error
	Render(ctx RenderContext)
	Dispose()
	SetViewport(width, height int)
}
