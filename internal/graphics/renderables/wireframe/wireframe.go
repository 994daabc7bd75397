package wireframe

import (
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"blastview/internal/graphics"
	"blastview/internal/graphics/mesh"
	renderer "blastview/internal/graphics/renderer"
	"blastview/internal/profiling"
)

// Source picks which outlines a Wireframe draws each frame.
type Source int

const (
	// SourceShapes draws every mesh of the scene.
	SourceShapes Source = iota
	// SourceGizmos draws the highlight outlines of the frame.
	SourceGizmos
)

// Wireframe draws boxes as unit cube lines
type Wireframe struct {
	source Source
	shader *graphics.Shader
	vao    uint32
	vbo    uint32
}

// NewShapes outlines every mesh in the scene
func NewShapes() *Wireframe {
	return &Wireframe{source: SourceShapes}
}

// NewGizmos outlines highlighted pickables on top of the scene
func NewGizmos() *Wireframe {
	return &Wireframe{source: SourceGizmos}
}

// Init compiles the line shader and uploads the cube edges
func (w *Wireframe) Init() error {
	var err error
	w.shader, err = graphics.NewShader(graphics.Shaders, graphics.LineVertShader, graphics.LineFragShader)
	if err != nil {
		return err
	}
	w.setupWireframeVAO()
	return nil
}

// Render draws this frame's outlines
func (w *Wireframe) Render(ctx renderer.RenderContext) {
	var (
		outlines []mesh.Outline
		width    float32 = 1
		name             = "renderer.shapes"
	)
	switch w.source {
	case SourceGizmos:
		name = "renderer.gizmos"
		var lw float32
		outlines, lw = mesh.Gizmos(ctx.World)
		if lw > 0 {
			width = lw
		}
	default:
		outlines = mesh.Shapes(ctx.World)
	}
	if len(outlines) == 0 {
		return
	}
	defer profiling.Track(name)()

	if w.source == SourceGizmos {
		// highlights stay visible through the shapes they surround
		gl.Disable(gl.DEPTH_TEST)
		defer gl.Enable(gl.DEPTH_TEST)
	}
	w.draw(outlines, width, ctx.View, ctx.Proj)
}

// SetViewport is a no-op; lines only depend on the camera matrices
func (w *Wireframe) SetViewport(width, height int) {}

// Dispose cleans up OpenGL resources
func (w *Wireframe) Dispose() {
	if w.vao != 0 {
		gl.DeleteVertexArrays(1, &w.vao)
	}
	if w.vbo != 0 {
		gl.DeleteBuffers(1, &w.vbo)
	}
	if w.shader != nil {
		w.shader.Delete()
	}
}

func (w *Wireframe) setupWireframeVAO() {
	gl.GenVertexArrays(1, &w.vao)
	gl.BindVertexArray(w.vao)

	gl.GenBuffers(1, &w.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, w.vbo)

	vertices := mesh.UnitCubeEdges
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 3*4, 0)
}

func (w *Wireframe) draw(outlines []mesh.Outline, width float32, view, projection mgl32.Mat4) {
	w.shader.Use()
	w.shader.SetMatrix4("proj", &projection[0])
	w.shader.SetMatrix4("view", &view[0])

	gl.BindVertexArray(w.vao)
	gl.LineWidth(width)
	for _, o := range outlines {
		model := o.Model
		w.shader.SetMatrix4("model", &model[0])
		w.shader.SetVector4("color", o.Color)
		gl.DrawArrays(gl.LINES, 0, mesh.UnitCubeVertexCount)
	}
}
