package pick_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blastview/internal/app"
	"blastview/internal/ecs"
	"blastview/internal/geom"
	"blastview/internal/pick"
	"blastview/internal/scene"
	"blastview/internal/window"
)

type fixture struct {
	app    *app.App
	world  *ecs.World
	info   *pick.ActiveInfo
	cam    scene.Camera
	camTr  scene.Transform
	window ecs.Entity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	a := app.New()
	a.AddPlugins(window.NewPlugin("test", window.PresentAutoNoVsync), &pick.Plugin{})
	a.Finish()
	a.Cleanup()

	w := a.World()
	info := pick.NewActiveInfo(false)
	ecs.SetResource(w, info)
	ecs.SetResource(w, &scene.Gizmos{})

	f := &fixture{app: a, world: w, info: info, window: window.Windows(w)[0]}
	f.cam = scene.NewCamera()
	f.cam.TargetSize = mgl32.Vec2{1280, 720}
	f.camTr = scene.FromXYZ(0, -12, 5).LookingAt(mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	f.spawnCamera()
	return f
}

func (f *fixture) spawnCamera() ecs.Entity {
	e := f.world.Spawn()
	ecs.Insert(f.world, e, f.cam)
	ecs.Insert(f.world, e, f.camTr)
	return e
}

func (f *fixture) spawnBox(at mgl32.Vec3) ecs.Entity {
	e := f.world.Spawn()
	tr := scene.FromXYZ(at.Elem())
	shape := scene.Shape{Shape: geom.BoxShape(geom.UnitCuboid())}
	ecs.Insert(f.world, e, tr)
	ecs.Insert(f.world, e, shape)
	ecs.Insert(f.world, e, scene.CurrentVolume{AABB: shape.AABB(tr.Translation, tr.Rotation)})
	return e
}

func (f *fixture) pixelOf(t *testing.T, p mgl32.Vec3) mgl32.Vec2 {
	t.Helper()
	px, ok := f.cam.WorldToViewport(f.camTr, p)
	require.True(t, ok)
	return px
}

func (f *fixture) move(positions ...mgl32.Vec2) {
	q := ecs.EventsOf[window.CursorMoved](f.world)
	for _, p := range positions {
		q.Send(window.CursorMoved{Window: f.window, Position: p})
	}
}

func (f *fixture) picks() [][]uint64 {
	o, _ := ecs.Resource[pick.Outbox](f.world)
	return o.Drain()
}

func TestResolverReportsHit(t *testing.T) {
	f := newFixture(t)
	box := f.spawnBox(mgl32.Vec3{})

	f.move(f.pixelOf(t, mgl32.Vec3{}))
	require.NoError(t, f.app.Update())

	assert.Equal(t, [][]uint64{{box.Bits()}}, f.picks())
}

func TestResolverMissEmitsNothing(t *testing.T) {
	f := newFixture(t)
	f.spawnBox(mgl32.Vec3{})

	f.move(mgl32.Vec2{5, 5})
	require.NoError(t, f.app.Update())

	assert.Empty(t, f.picks())
}

func TestResolverReportsEveryHitOnce(t *testing.T) {
	f := newFixture(t)
	front := f.spawnBox(mgl32.Vec3{})
	dir := mgl32.Vec3{}.Sub(f.camTr.Translation).Normalize()
	back := f.spawnBox(dir.Mul(3))
	f.spawnBox(mgl32.Vec3{20, 0, 0})

	px := f.pixelOf(t, mgl32.Vec3{})
	f.move(px, px)
	require.NoError(t, f.app.Update())

	got := f.picks()
	require.Len(t, got, 1)
	assert.ElementsMatch(t, []uint64{front.Bits(), back.Bits()}, got[0])
}

func TestResolverIgnoresBoxBeyondMaxDistance(t *testing.T) {
	f := newFixture(t)
	dir := mgl32.Vec3{}.Sub(f.camTr.Translation).Normalize()
	f.spawnBox(f.camTr.Translation.Add(dir.Mul(40)))

	f.move(f.pixelOf(t, mgl32.Vec3{}))
	require.NoError(t, f.app.Update())
	assert.Empty(t, f.picks())
}

func TestDragConsumesMovesWithoutPicking(t *testing.T) {
	f := newFixture(t)
	dragged := f.spawnBox(mgl32.Vec3{0, 0, 2})
	f.spawnBox(mgl32.Vec3{})

	start := f.pixelOf(t, mgl32.Vec3{0, 0, 2})
	end := start.Add(mgl32.Vec2{40, -25})
	f.info.BeginDrag(dragged, start)

	f.move(start.Add(mgl32.Vec2{5, 5}), f.pixelOf(t, mgl32.Vec3{}), end)
	require.NoError(t, f.app.Update())

	assert.Empty(t, f.picks())
	assert.Equal(t, end, f.info.LastDragPos)

	from, err := pick.ScreenToWorld(f.cam, f.camTr, start)
	require.NoError(t, err)
	to, err := pick.ScreenToWorld(f.cam, f.camTr, end)
	require.NoError(t, err)
	tr, _ := ecs.Get[scene.Transform](f.world, dragged)
	assert.InDelta(t, to.X()-from.X(), tr.Translation.X(), 1e-4)
	assert.InDelta(t, to.Y()-from.Y(), tr.Translation.Y(), 1e-4)
	assert.Equal(t, float32(2), tr.Translation.Z())
}

func TestDragOfUnknownEntityStillBlocksPicking(t *testing.T) {
	f := newFixture(t)
	f.spawnBox(mgl32.Vec3{})
	f.info.BeginDrag(ecs.FromBits(999), mgl32.Vec2{})

	f.move(f.pixelOf(t, mgl32.Vec3{}))
	require.NoError(t, f.app.Update())
	assert.Empty(t, f.picks())
}

func TestDragEndedResumesPicking(t *testing.T) {
	f := newFixture(t)
	box := f.spawnBox(mgl32.Vec3{})
	f.info.BeginDrag(box, mgl32.Vec2{})
	f.info.EndDrag()

	f.move(f.pixelOf(t, mgl32.Vec3{}))
	require.NoError(t, f.app.Update())
	assert.Equal(t, [][]uint64{{box.Bits()}}, f.picks())
	assert.Equal(t, map[ecs.Entity]uint64{box: 0}, f.info.Selection)
}

func TestCameraPreconditions(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		f := newFixture(t)
		for _, e := range ecs.StoreOf[scene.Camera](f.world).Entities() {
			f.world.Despawn(e)
		}
		box := f.spawnBox(mgl32.Vec3{})
		f.info.ReplaceHover([]uint64{box.Bits()})
		f.move(mgl32.Vec2{640, 360})

		err := f.app.Update()
		assert.ErrorIs(t, err, pick.ErrNoCamera)
		st, ok := ecs.Get[pick.ActiveState](f.world, box)
		require.True(t, ok, "the rest of the frame still runs")
		assert.True(t, st.Hover)
	})
	t.Run("ambiguous", func(t *testing.T) {
		f := newFixture(t)
		f.spawnCamera()
		f.spawnBox(mgl32.Vec3{})
		f.move(mgl32.Vec2{640, 360})
		assert.ErrorIs(t, f.app.Update(), pick.ErrAmbiguousCamera)
		assert.Empty(t, f.picks())
	})
	t.Run("no events no error", func(t *testing.T) {
		f := newFixture(t)
		f.spawnCamera()
		assert.NoError(t, f.app.Update())
	})
}

func TestDragWithAmbiguousCameraIsDropped(t *testing.T) {
	f := newFixture(t)
	box := f.spawnBox(mgl32.Vec3{0, 0, 2})
	f.spawnCamera()
	f.info.BeginDrag(box, mgl32.Vec2{100, 100})
	f.move(mgl32.Vec2{200, 200})

	require.NoError(t, f.app.Update())
	tr, _ := ecs.Get[scene.Transform](f.world, box)
	assert.Equal(t, mgl32.Vec3{0, 0, 2}, tr.Translation)
	assert.Equal(t, box, f.info.Drag)
	assert.Equal(t, mgl32.Vec2{100, 100}, f.info.LastDragPos)
}

func TestSynchronizeIsIdempotent(t *testing.T) {
	f := newFixture(t)
	a := f.spawnBox(mgl32.Vec3{})
	b := f.spawnBox(mgl32.Vec3{3, 0, 0})
	c := f.spawnBox(mgl32.Vec3{-3, 0, 0})
	f.info.ReplaceHover([]uint64{a.Bits(), b.Bits()})
	f.info.ReplaceSelection([]uint64{b.Bits()})

	require.NoError(t, pick.Synchronize(f.world))
	first := map[ecs.Entity]pick.ActiveState{}
	for _, e := range []ecs.Entity{a, b, c} {
		first[e], _ = ecs.Get[pick.ActiveState](f.world, e)
	}
	require.NoError(t, pick.Synchronize(f.world))
	for e, want := range first {
		got, _ := ecs.Get[pick.ActiveState](f.world, e)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, pick.ActiveState{Hover: true}, first[a])
	assert.Equal(t, pick.ActiveState{Hover: true, Selected: true}, first[b])
	assert.Equal(t, pick.ActiveState{}, first[c])
}

func TestRenderActiveShapesColours(t *testing.T) {
	f := newFixture(t)
	hovered := f.spawnBox(mgl32.Vec3{})
	selected := f.spawnBox(mgl32.Vec3{3, 0, 0})
	f.spawnBox(mgl32.Vec3{-3, 0, 0})
	f.info.ReplaceHover([]uint64{hovered.Bits(), selected.Bits()})
	f.info.ReplaceSelection([]uint64{selected.Bits()})

	require.NoError(t, pick.Synchronize(f.world))
	require.NoError(t, pick.RenderActiveShapes(f.world))

	g, _ := ecs.Resource[scene.Gizmos](f.world)
	items := g.Items()
	require.Len(t, items, 2)
	assert.Equal(t, scene.BlanchedAlmond, items[0].Color)
	assert.Equal(t, mgl32.Vec3{}, items[0].Translation)
	assert.Equal(t, scene.Blue400, items[1].Color)
}

func BenchmarkCast(b *testing.B) {
	w := ecs.NewWorld()
	for i := 0; i < 40; i++ {
		e := w.Spawn()
		p := scene.GridPosition(i%8, i/8)
		ecs.Insert(w, e, scene.CurrentVolume{AABB: geom.FromCenter(p, mgl32.Vec3{0.5, 0.5, 0.5})})
	}
	rc := geom.NewRayCast(geom.NewRay(mgl32.Vec3{0, -12, 5}, mgl32.Vec3{0, 12, -3}), pick.DefaultMaxDistance)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pick.Cast(w, rc)
	}
}

func TestActiveInfoInvariants(t *testing.T) {
	info := pick.NewActiveInfo(true)
	assert.True(t, info.AutoAnimate)
	assert.True(t, info.InWorker)
	assert.False(t, info.Dragging())

	e := ecs.FromBits(42)
	info.BeginDrag(e, mgl32.Vec2{1, 2})
	info.ReplaceSelection([]uint64{7})
	assert.Equal(t, map[ecs.Entity]uint64{ecs.FromBits(7): 7}, info.Selection)
	assert.Equal(t, e, info.Drag)

	info.EndDrag()
	assert.Equal(t, ecs.Placeholder, info.Drag)
	assert.Len(t, info.Selection, 1)
}

func TestConsumeFrameBudget(t *testing.T) {
	info := pick.NewActiveInfo(false)
	info.AutoAnimate = false
	assert.False(t, info.ConsumeFrame())

	info.Touch()
	for i := 0; i < pick.FrameBudget; i++ {
		assert.True(t, info.ConsumeFrame(), "frame %d", i)
	}
	assert.False(t, info.ConsumeFrame())

	info.AutoAnimate = true
	assert.True(t, info.ConsumeFrame())
	assert.Zero(t, info.RemainingFrames)
}

func TestReplaceKeepsIDsExact(t *testing.T) {
	info := pick.NewActiveInfo(false)
	ids := []uint64{0, 1, 1<<63 | 5, ^uint64(0)}
	info.ReplaceHover(ids)
	for _, id := range ids {
		tag, ok := info.Hover[ecs.FromBits(id)]
		require.True(t, ok)
		assert.Equal(t, id, tag)
		assert.Equal(t, id, ecs.FromBits(id).Bits())
	}
}
