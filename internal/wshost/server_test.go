package wshost_test

import (
	"encoding/json"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blastview/internal/canvas"
	"blastview/internal/ecs"
	"blastview/internal/pick"
	"blastview/internal/scene"
	"blastview/internal/session"
	"blastview/internal/wshost"
)

type surface struct{ w, h int }

func (s surface) Width() int  { return s.w }
func (s surface) Height() int { return s.h }

type tape struct {
	mu    sync.Mutex
	calls []session.Call
}

func (r *tape) Record(c session.Call) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
}

func (r *tape) Frame(session.FrameSnapshot) {}

func (r *tape) find(op session.Op) (session.Call, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.calls {
		if c.Op == op {
			return c, true
		}
	}
	return session.Call{}, false
}

// reference builds a local session with the same seed as the server's to
// find where a pickable lands on screen. Entity ids match because scene
// setup is deterministic.
func reference(t *testing.T) (ecs.Entity, mgl32.Vec2) {
	t.Helper()
	s := session.New(session.Options{Seed: 3})
	view, err := canvas.NewOffscreenCanvas(surface{1280, 720}, 1, 1)
	require.NoError(t, err)
	require.NoError(t, s.CreateWindow(view, 1))
	require.Eventually(t, s.PollReady, time.Second, time.Millisecond)
	require.NoError(t, s.AdvanceFrame())
	defer s.Release()

	w := s.App().World()
	vols := ecs.StoreOf[scene.CurrentVolume](w)
	e := vols.Entities()[0]
	vol, _ := vols.Get(e)
	cam, camTr, err := pick.SingleCamera(w)
	require.NoError(t, err)
	px, ok := cam.WorldToViewport(camTr, vol.Center())
	require.True(t, ok)
	return e, px
}

func start(t *testing.T, rec session.Recorder) (*wshost.Server, *websocket.Conn) {
	t.Helper()
	srv := wshost.NewServer(wshost.Options{
		Session:       session.Options{Seed: 3, Recorder: rec},
		FrameInterval: time.Millisecond,
	})
	hs := httptest.NewServer(srv)
	t.Cleanup(func() {
		srv.Close()
		hs.Close()
	})
	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(hs.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })

	m := read(t, ws)
	require.Equal(t, wshost.TyWorkerIsReady, m.Ty)
	return srv, ws
}

func send(t *testing.T, ws *websocket.Conn, m any) {
	t.Helper()
	require.NoError(t, ws.WriteJSON(m))
}

func read(t *testing.T, ws *websocket.Conn) wshost.Message {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(3*time.Second)))
	var m wshost.Message
	require.NoError(t, ws.ReadJSON(&m))
	return m
}

// readPick waits for a pick message containing id.
func readPick(t *testing.T, ws *websocket.Conn, id uint64) wshost.Message {
	t.Helper()
	want := strconv.FormatUint(id, 10)
	for {
		m := read(t, ws)
		if m.Ty == wshost.TyPick && slices.Contains(m.List, any(want)) {
			return m
		}
	}
}

func TestRemoteWorkerPicksAndDrags(t *testing.T) {
	e, px := reference(t)
	rec := &tape{}
	_, ws := start(t, rec)

	send(t, ws, map[string]any{"ty": "init", "width": 1280, "height": 720, "devicePixelRatio": 1})
	send(t, ws, map[string]any{"ty": "mousemove", "x": px.X(), "y": px.Y()})
	readPick(t, ws, e.Bits())

	id := strconv.FormatUint(e.Bits(), 10)
	send(t, ws, map[string]any{"ty": "hover", "list": []string{id}})
	send(t, ws, map[string]any{"ty": "leftBtDown", "pickItem": id, "x": px.X(), "y": px.Y()})
	send(t, ws, map[string]any{"ty": "leftBtUp"})

	require.Eventually(t, func() bool {
		_, ok := rec.find(session.OpButtonUp)
		return ok
	}, 3*time.Second, time.Millisecond)

	hover, ok := rec.find(session.OpPushHover)
	require.True(t, ok)
	assert.Equal(t, []uint64{e.Bits()}, hover.IDs)
	down, ok := rec.find(session.OpButtonDown)
	require.True(t, ok)
	assert.Equal(t, []uint64{e.Bits()}, down.IDs)
	assert.InDelta(t, px.X(), down.X, 1e-3)

	create, ok := rec.find(session.OpCreateWindow)
	require.True(t, ok)
	assert.True(t, create.Offscreen)
	assert.Equal(t, float32(1280), create.Width)
}

func TestNumericIDsAreAccepted(t *testing.T) {
	rec := &tape{}
	_, ws := start(t, rec)

	send(t, ws, map[string]any{"ty": "init", "width": 640, "height": 480})
	send(t, ws, json.RawMessage(`{"ty":"select","list":[4294967297, "12", -1]}`))

	var sel session.Call
	require.Eventually(t, func() bool {
		var ok bool
		sel, ok = rec.find(session.OpPushSelection)
		return ok
	}, 3*time.Second, time.Millisecond)
	assert.Equal(t, []uint64{4294967297, 12}, sel.IDs)
}

func TestBadMessagesDoNotDropTheConnection(t *testing.T) {
	rec := &tape{}
	_, ws := start(t, rec)

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte("not json")))
	// no window yet: refused by the session, logged by the server
	send(t, ws, map[string]any{"ty": "mousemove", "x": 1, "y": 1})
	send(t, ws, map[string]any{"ty": "autoAnimation"})
	send(t, ws, map[string]any{"ty": "teleport"})

	send(t, ws, map[string]any{"ty": "init", "width": 640, "height": 480})
	require.Eventually(t, func() bool {
		_, ok := rec.find(session.OpCreateWindow)
		return ok
	}, 3*time.Second, time.Millisecond)
	_, moved := rec.find(session.OpPointerMove)
	assert.False(t, moved)
}

func TestCloseDisconnectsClients(t *testing.T) {
	srv, ws := start(t, nil)
	require.Equal(t, 1, srv.Len())

	require.NoError(t, srv.Close())
	assert.Zero(t, srv.Len())

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
}

func TestClientHangupReleasesSession(t *testing.T) {
	rec := &tape{}
	srv, ws := start(t, rec)
	send(t, ws, map[string]any{"ty": "init", "width": 640, "height": 480})
	require.NoError(t, ws.Close())

	require.Eventually(t, func() bool { return srv.Len() == 0 }, 3*time.Second, time.Millisecond)
	_, released := rec.find(session.OpRelease)
	assert.True(t, released)
}
