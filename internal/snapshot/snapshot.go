// Package snapshot rasterizes a session's scene to an image without a GPU:
// every pickable as a projected box outline, the frame's gizmos on top and
// the ids of active entities next to them.
package snapshot

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"os"
	"slices"
	"strconv"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"blastview/internal/ecs"
	"blastview/internal/geom"
	"blastview/internal/pick"
	"blastview/internal/scene"
)

// ErrEmptyViewport is returned when the camera has no size yet.
var ErrEmptyViewport = errors.New("snapshot: camera viewport is empty")

// Options control colours and the caption.
type Options struct {
	Background color.RGBA
	Outline    color.RGBA
	Label      color.RGBA
	// LineWidth is in pixels; gizmos use the width the scene asks for.
	LineWidth float32
	Caption   []string
}

// DefaultOptions are the colours of the demo page.
func DefaultOptions() Options {
	return Options{
		Background: color.RGBA{0x1b, 0x1b, 0x1f, 0xff},
		Outline:    color.RGBA{0x55, 0x55, 0x60, 0xff},
		Label:      color.RGBA{0xff, 0xff, 0xff, 0xff},
		LineWidth:  1,
	}
}

// edges index Corners: bottom ring, top ring, verticals.
var edges = [12][2]int{
	{0, 1}, {1, 2}, {2, 3}, {3, 0},
	{4, 5}, {5, 6}, {6, 7}, {7, 4},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

type projector struct {
	cam   scene.Camera
	camTr scene.Transform
}

func (p projector) box(z *vector.Rasterizer, b geom.AABB, width float32) {
	corners := b.Corners()
	var px [8]mgl32.Vec2
	var ok [8]bool
	for i, c := range corners {
		px[i], ok[i] = p.cam.WorldToViewport(p.camTr, c)
	}
	for _, e := range edges {
		if ok[e[0]] && ok[e[1]] {
			line(z, px[e[0]], px[e[1]], width)
		}
	}
}

// line adds a segment as a quad of the given width.
func line(z *vector.Rasterizer, a, b mgl32.Vec2, width float32) {
	d := b.Sub(a)
	if d.Len() < 1e-4 {
		return
	}
	n := mgl32.Vec2{-d.Y(), d.X()}.Normalize().Mul(width / 2)
	z.MoveTo(a.X()+n.X(), a.Y()+n.Y())
	z.LineTo(b.X()+n.X(), b.Y()+n.Y())
	z.LineTo(b.X()-n.X(), b.Y()-n.Y())
	z.LineTo(a.X()-n.X(), a.Y()-n.Y())
	z.ClosePath()
}

func toRGBA(c scene.Color) color.RGBA {
	ch := func(v float32) uint8 {
		return uint8(mgl32.Clamp(v, 0, 1)*255 + 0.5)
	}
	// premultiplied, as color.RGBA expects
	a := mgl32.Clamp(c[3], 0, 1)
	return color.RGBA{ch(c[0] * a), ch(c[1] * a), ch(c[2] * a), ch(a)}
}

// Capture draws the world as its single camera sees it. The image has the
// camera's physical viewport size.
func Capture(w *ecs.World, opts Options) (*image.RGBA, error) {
	cam, camTr, err := pick.SingleCamera(w)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	size := cam.ViewportSize()
	width, height := int(size.X()), int(size.Y())
	if width <= 0 || height <= 0 {
		return nil, ErrEmptyViewport
	}
	if opts.LineWidth <= 0 {
		opts.LineWidth = 1
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(opts.Background), image.Point{}, draw.Src)

	p := projector{cam: cam, camTr: camTr}
	z := vector.NewRasterizer(width, height)
	vols := ecs.StoreOf[scene.CurrentVolume](w)
	for _, e := range vols.Entities() {
		v, _ := vols.Get(e)
		p.box(z, v.AABB, opts.LineWidth)
	}
	z.Draw(img, img.Bounds(), image.NewUniform(opts.Outline), image.Point{})

	if g, ok := ecs.Resource[scene.Gizmos](w); ok {
		lw := g.LineWidth
		if lw <= 0 {
			lw = opts.LineWidth
		}
		for _, gz := range g.Items() {
			z.Reset(width, height)
			p.box(z, gz.Shape.AABB(gz.Translation, gz.Rotation), lw)
			z.Draw(img, img.Bounds(), image.NewUniform(toRGBA(gz.Color)), image.Point{})
		}
	}

	labels := &font.Drawer{Dst: img, Src: image.NewUniform(opts.Label), Face: basicfont.Face7x13}
	for _, e := range active(w) {
		v, ok := vols.Get(e)
		if !ok {
			continue
		}
		at, ok := cam.WorldToViewport(camTr, v.Center())
		if !ok {
			continue
		}
		labels.Dot = fixed.P(int(at.X()), int(at.Y()))
		labels.DrawString(strconv.FormatUint(e.Bits(), 10))
	}
	for i, text := range opts.Caption {
		labels.Dot = fixed.P(8, 16+i*15)
		labels.DrawString(text)
	}
	return img, nil
}

// active lists hovered and selected entities, sorted and without repeats.
func active(w *ecs.World) []ecs.Entity {
	info, ok := ecs.Resource[pick.ActiveInfo](w)
	if !ok {
		return nil
	}
	var out []ecs.Entity
	for e := range info.Hover {
		out = append(out, e)
	}
	for e := range info.Selection {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b ecs.Entity) int {
		switch {
		case a.Bits() < b.Bits():
			return -1
		case a.Bits() > b.Bits():
			return 1
		}
		return 0
	})
	return slices.Compact(out)
}

// Encode writes img as PNG.
func Encode(out io.Writer, img image.Image) error {
	return png.Encode(out, img)
}

// WritePNG writes img to path.
func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if err := Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("snapshot: encode %s: %w", path, err)
	}
	return f.Close()
}
