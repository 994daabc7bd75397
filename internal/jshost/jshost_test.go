package jshost_test

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blastview/internal/app"
	"blastview/internal/ecs"
	"blastview/internal/jshost"
	"blastview/internal/pick"
	"blastview/internal/scene"
	"blastview/internal/session"
)

func newHost(t *testing.T, mode jshost.Mode) *jshost.Host {
	t.Helper()
	h, err := jshost.New(jshost.Options{Mode: mode, Session: session.Options{Seed: 3}})
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return h
}

func frames(t *testing.T, h *jshost.Host) uint64 {
	t.Helper()
	var n uint64
	require.NoError(t, h.Inspect(func(s *session.Session) error {
		tm, _ := ecs.Resource[app.Time](s.App().World())
		n = tm.Frame
		return nil
	}))
	return n
}

// running drives frames until the engine has run a full update.
func running(t *testing.T, h *jshost.Host) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for frames(t, h) == 0 {
		require.True(t, time.Now().Before(deadline), "engine never ran a frame")
		require.NoError(t, h.Frame())
	}
}

func pickable(t *testing.T, h *jshost.Host, i int) (ecs.Entity, mgl32.Vec2) {
	t.Helper()
	var (
		e  ecs.Entity
		px mgl32.Vec2
	)
	require.NoError(t, h.Inspect(func(s *session.Session) error {
		w := s.App().World()
		vols := ecs.StoreOf[scene.CurrentVolume](w)
		e = vols.Entities()[i]
		vol, _ := vols.Get(e)
		cam, camTr, err := pick.SingleCamera(w)
		if err != nil {
			return err
		}
		var ok bool
		if px, ok = cam.WorldToViewport(camTr, vol.Center()); !ok {
			return errors.New("pickable is off screen")
		}
		return nil
	}))
	return e, px
}

func info(t *testing.T, h *jshost.Host) pick.ActiveInfo {
	t.Helper()
	var out pick.ActiveInfo
	require.NoError(t, h.Inspect(func(s *session.Session) error {
		out = *s.Info()
		return nil
	}))
	return out
}

func TestPickReachesPageAndComesBackAsHover(t *testing.T) {
	for _, mode := range []jshost.Mode{jshost.ModeMain, jshost.ModeWorker} {
		t.Run(string(mode), func(t *testing.T) {
			h := newHost(t, mode)
			running(t, h)
			e, px := pickable(t, h, 0)

			require.NoError(t, h.MouseMove(px.X(), px.Y()))
			require.NoError(t, h.Frame())

			ids, err := h.LatestPick()
			require.NoError(t, err)
			assert.Contains(t, ids, e.Bits())
			assert.Contains(t, h.PickText(), strconv.FormatUint(e.Bits(), 10))

			_, hovered := info(t, h).Hover[e]
			assert.True(t, hovered)
		})
	}
}

func TestMouseDownDragsLatestPick(t *testing.T) {
	for _, mode := range []jshost.Mode{jshost.ModeMain, jshost.ModeWorker} {
		t.Run(string(mode), func(t *testing.T) {
			h := newHost(t, mode)
			running(t, h)
			e, px := pickable(t, h, 1)

			require.NoError(t, h.MouseMove(px.X(), px.Y()))
			require.NoError(t, h.Frame())
			require.NoError(t, h.MouseDown(px.X(), px.Y()))

			got := info(t, h)
			assert.Equal(t, e, got.Drag)
			_, selected := got.Selection[e]
			assert.True(t, selected)

			require.NoError(t, h.MouseUp(px.X(), px.Y()))
			got = info(t, h)
			assert.False(t, got.Dragging())
			_, selected = got.Selection[e]
			assert.True(t, selected)
		})
	}
}

func TestMouseMoveDropsStalePick(t *testing.T) {
	h := newHost(t, jshost.ModeMain)
	running(t, h)
	_, px := pickable(t, h, 0)

	require.NoError(t, h.MouseMove(px.X(), px.Y()))
	require.NoError(t, h.Frame())
	ids, err := h.LatestPick()
	require.NoError(t, err)
	require.NotEmpty(t, ids)

	require.NoError(t, h.MouseMove(1, 1))
	ids, err = h.LatestPick()
	require.NoError(t, err)
	assert.Empty(t, ids)

	// without a pick the press is not forwarded
	require.NoError(t, h.MouseDown(1, 1))
	assert.False(t, info(t, h).Dragging())
}

func TestClickOnEmptySpaceClearsSelection(t *testing.T) {
	h := newHost(t, jshost.ModeMain)
	running(t, h)
	_, px := pickable(t, h, 0)

	require.NoError(t, h.MouseMove(px.X(), px.Y()))
	require.NoError(t, h.Frame())
	require.NoError(t, h.Click(px.X(), px.Y()))
	assert.Len(t, info(t, h).Selection, 1)

	require.NoError(t, h.MouseMove(1, 1))
	require.NoError(t, h.Frame())
	require.NoError(t, h.Click(1, 1))
	assert.Empty(t, info(t, h).Selection)
}

func TestAutoAnimationOffStopsAfterBudget(t *testing.T) {
	h := newHost(t, jshost.ModeMain)
	running(t, h)
	require.NoError(t, h.SetAutoAnimation(false))

	for range pick.FrameBudget + 5 {
		require.NoError(t, h.Frame())
	}
	settled := frames(t, h)
	for range 3 {
		require.NoError(t, h.Frame())
	}
	assert.Equal(t, settled, frames(t, h))

	require.NoError(t, h.SetAutoAnimation(true))
	require.NoError(t, h.Frame())
	assert.Equal(t, settled+1, frames(t, h))
}

func TestStopPausesFrameLoop(t *testing.T) {
	h := newHost(t, jshost.ModeMain)
	running(t, h)

	require.NoError(t, h.Stop())
	require.NoError(t, h.Frame())
	paused := frames(t, h)
	for range 3 {
		require.NoError(t, h.Frame())
	}
	assert.Equal(t, paused, frames(t, h))

	require.NoError(t, h.Start())
	require.NoError(t, h.Frame())
	assert.Greater(t, frames(t, h), paused)
}

func TestWorkerModeHidesLoadingIndicator(t *testing.T) {
	h := newHost(t, jshost.ModeWorker)
	assert.Equal(t, "none", h.Style(jshost.Loading, "display"))

	n, err := h.Sessions()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, h.Inspect(func(s *session.Session) error {
		assert.True(t, s.Info().InWorker)
		return nil
	}))
}

func TestReleaseEndsSession(t *testing.T) {
	for _, mode := range []jshost.Mode{jshost.ModeMain, jshost.ModeWorker} {
		t.Run(string(mode), func(t *testing.T) {
			h := newHost(t, mode)
			running(t, h)

			require.NoError(t, h.Release())
			n, err := h.Sessions()
			require.NoError(t, err)
			assert.Zero(t, n)
			assert.ErrorIs(t, h.Inspect(func(*session.Session) error { return nil }), jshost.ErrNoSession)

			// the frame loop notices the released handle and stops quietly
			require.NoError(t, h.Frame())
		})
	}
}

func TestNewRejectsUnknownMode(t *testing.T) {
	_, err := jshost.New(jshost.Options{Mode: "iframe"})
	assert.Error(t, err)
}

func TestCloseIsIdempotent(t *testing.T) {
	h, err := jshost.New(jshost.Options{Mode: jshost.ModeWorker})
	require.NoError(t, err)
	require.NoError(t, h.Close())
	require.NoError(t, h.Close())
	assert.ErrorIs(t, h.Frame(), jshost.ErrLoopStopped)
}
