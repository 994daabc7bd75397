package journal_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blastview/internal/canvas"
	"blastview/internal/ecs"
	"blastview/internal/journal"
	"blastview/internal/pick"
	"blastview/internal/scene"
	"blastview/internal/session"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

type surface struct{ w, h int }

func (s surface) Width() int  { return s.w }
func (s surface) Height() int { return s.h }

// record runs a short interactive session into a journal and returns its
// directory.
func record(t *testing.T, root string) string {
	t.Helper()
	c := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	w, err := journal.NewWriter(root, "pick test", 3, c.now)
	require.NoError(t, err)

	s := session.New(session.Options{Seed: 3, Clock: c.now, Recorder: w})
	view, err := canvas.NewOffscreenCanvas(surface{1280, 720}, 1, 1)
	require.NoError(t, err)
	require.NoError(t, s.CreateWindow(view, 1))
	require.Eventually(t, s.PollReady, time.Second, time.Millisecond)

	step := func() {
		c.t = c.t.Add(16 * time.Millisecond)
		require.NoError(t, s.AdvanceFrame())
	}
	step()

	world := s.App().World()
	vols := ecs.StoreOf[scene.CurrentVolume](world)
	target := vols.Entities()[5]
	vol, _ := vols.Get(target)
	cam, camTr, err := pick.SingleCamera(world)
	require.NoError(t, err)
	px, ok := cam.WorldToViewport(camTr, vol.Center())
	require.True(t, ok)

	require.NoError(t, s.PointerMove(px.X(), px.Y()))
	step()
	require.NoError(t, s.PushHover([]any{target.Bits()}))
	require.NoError(t, s.ButtonDown(target.Bits(), px.X(), px.Y()))
	require.NoError(t, s.PointerMove(px.X()+20, px.Y()))
	step()
	require.NoError(t, s.ButtonUp())
	require.NoError(t, s.Resize(1024, 576))
	require.NoError(t, s.PushSelection([]any{target.Bits(), "junk"}))
	require.NoError(t, s.SetAutoAnimate(false))
	for range 12 {
		step()
	}
	require.NoError(t, s.Release())
	require.NoError(t, w.Close())
	return w.Directory()
}

func TestWriterRoundTrip(t *testing.T) {
	dir := record(t, t.TempDir())
	assert.Contains(t, filepath.Base(dir), "picktest-20260301T120000")

	b, err := journal.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, journal.Version, b.Manifest.Version)
	assert.Equal(t, uint64(3), b.Manifest.Seed)
	assert.Len(t, b.Calls, b.Manifest.Calls)
	assert.Len(t, b.Frames, b.Manifest.Frames)

	assert.Equal(t, session.OpCreateWindow, b.Calls[0].Op)
	assert.True(t, b.Calls[0].Offscreen)
	assert.Equal(t, session.OpRelease, b.Calls[len(b.Calls)-1].Op)

	var resized bool
	for _, c := range b.Calls {
		if c.Op == session.OpResize {
			resized = true
			assert.Equal(t, float32(1024), c.Width)
		}
	}
	assert.True(t, resized)

	// frames stop after the budget runs out with animation off
	var advances int
	for _, c := range b.Calls {
		if c.Op == session.OpAdvanceFrame {
			advances++
		}
	}
	assert.Equal(t, advances, len(b.Frames))
	assert.Less(t, advances, 15)

	last := b.Frames[len(b.Frames)-1]
	assert.Len(t, last.Selection, 1)
	assert.False(t, last.Dragging)

	var picked bool
	for _, f := range b.Frames {
		if len(f.Picks) > 0 {
			picked = true
		}
	}
	assert.True(t, picked)
}

func TestReplayReproducesFrames(t *testing.T) {
	dir := record(t, t.TempDir())
	b, err := journal.Load(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	frames, err := journal.Replay(ctx, b.Calls, session.Options{Seed: b.Manifest.Seed}, nil)
	require.NoError(t, err)
	assert.Empty(t, journal.Diff(b.Frames, frames))
	assert.Len(t, frames, len(b.Frames))
}

func TestReplayDetectsEditedCalls(t *testing.T) {
	dir := record(t, t.TempDir())
	b, err := journal.Load(dir)
	require.NoError(t, err)

	var edited []session.Call
	for _, c := range b.Calls {
		if c.Op != session.OpPushHover {
			edited = append(edited, c)
		}
	}
	frames, err := journal.Replay(context.Background(), edited, session.Options{Seed: b.Manifest.Seed}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, journal.Diff(b.Frames, frames))
}

func TestDiff(t *testing.T) {
	a := []session.FrameSnapshot{{Frame: 1, Hover: []uint64{}}, {Frame: 2}}
	b := []session.FrameSnapshot{{Frame: 1}, {Frame: 2, Selection: []uint64{7}}, {Frame: 3}}
	assert.Equal(t, []int{1, 2}, journal.Diff(a, b))
	assert.Empty(t, journal.Diff(a, a))
}

func TestLoadRejectsBadBundles(t *testing.T) {
	_, err := journal.Load(t.TempDir())
	assert.Error(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, journal.ManifestFile), []byte(`{"version": 9}`), 0o644))
	_, err = journal.Load(dir)
	assert.ErrorContains(t, err, "unsupported manifest version 9")
}

func TestHeadlessView(t *testing.T) {
	v, err := journal.HeadlessView(session.Call{Op: session.OpCreateWindow, Width: 640, Height: 480, Scale: 2})
	require.NoError(t, err)
	w, h := v.LogicalResolution()
	assert.Equal(t, float32(640), w)
	assert.Equal(t, float32(480), h)
	assert.False(t, v.Offscreen())
	assert.Equal(t, float32(2), v.ScaleFactor())

	v, err = journal.HeadlessView(session.Call{Offscreen: true, Width: 10, Height: 10, Scale: 1})
	require.NoError(t, err)
	assert.True(t, v.Offscreen())
}

func TestWriterCloseIsIdempotent(t *testing.T) {
	w, err := journal.NewWriter(t.TempDir(), "", 0, nil)
	require.NoError(t, err)
	assert.Contains(t, filepath.Base(w.Directory()), "session-")
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	w.Record(session.Call{Op: session.OpButtonUp})
	assert.NoError(t, w.Err())
}
