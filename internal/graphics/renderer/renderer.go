package renderer

import (
	"log/slog"

	"github.com/go-gl/gl/v4.1-core/gl"

	"blastview/internal/ecs"
	"blastview/internal/graphics"
	"blastview/internal/profiling"
)

// Renderer orchestrates rendering via renderable features
type Renderer struct {
	renderables []Renderable
	log         *slog.Logger
	clear       [4]float32

	// the camera warning is logged once per outage
	cameraMissing bool
}

// NewRenderer configures GL and initialises every renderable
func NewRenderer(log *slog.Logger, rs ...Renderable) (*Renderer, error) {
	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.LINE_SMOOTH)

	for _, r := range rs {
		if err := r.Init(); err != nil {
			return nil, err
		}
	}
	return &Renderer{
		renderables: rs,
		log:         log,
		clear:       [4]float32{0.11, 0.11, 0.12, 1},
	}, nil
}

// Render draws the world as seen by its camera
func (r *Renderer) Render(w *ecs.World, dt float64) {
	defer profiling.Track("renderer.Render")()

	gl.ClearColor(r.clear[0], r.clear[1], r.clear[2], r.clear[3])
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	view, proj, err := graphics.CameraMatrices(w)
	if err != nil {
		if !r.cameraMissing {
			r.log.Warn("nothing to render", "err", err)
			r.cameraMissing = true
		}
		return
	}
	r.cameraMissing = false

	ctx := RenderContext{
		World: w,
		DT:    dt,
		View:  view,
		Proj:  proj,
	}
	for _, renderable := range r.renderables {
		renderable.Render(ctx)
	}
}

// Dispose cleans up all renderables in reverse order
func (r *Renderer) Dispose() {
	for i := len(r.renderables) - 1; i >= 0; i-- {
		r.renderables[i].Dispose()
	}
}

// UpdateViewport resizes the GL viewport and tells every renderable
func (r *Renderer) UpdateViewport(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
	for _, renderable := range r.renderables {
		renderable.SetViewport(width, height)
	}
}
