// Package wshost lets a remote page drive a session over a WebSocket with
// the same messages the page posts to its worker.
package wshost

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"blastview/internal/canvas"
	"blastview/internal/session"
)

const (
	DefaultPingPeriod    = 30 * time.Second
	DefaultFrameInterval = 16 * time.Millisecond
	DefaultSendBuffer    = 256
	DefaultMaxBlock      = time.Second

	writeWait = 10 * time.Second
)

// Options configure a Server.
type Options struct {
	// Session is the template for each connection's session.
	Session       session.Options
	Logger        *slog.Logger
	PingPeriod    time.Duration
	FrameInterval time.Duration
	SendBuffer    int
	// MaxBlock caps the render block a client may request.
	MaxBlock      time.Duration
}

// Server upgrades requests and runs one session per connection.
type Server struct {
	opts     Options
	log      *slog.Logger
	upgrader websocket.Upgrader

	mu     sync.Mutex
	conns  map[*conn]struct{}
	closed bool
	wg     sync.WaitGroup
}

// NewServer fills in defaults.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.PingPeriod <= 0 {
		opts.PingPeriod = DefaultPingPeriod
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = DefaultFrameInterval
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = DefaultSendBuffer
	}
	if opts.MaxBlock <= 0 {
		opts.MaxBlock = DefaultMaxBlock
	}
	return &Server{
		opts: opts,
		log:  opts.Logger.With("component", "wshost"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: make(map[*conn]struct{}),
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		http.Error(w, "server closed", http.StatusServiceUnavailable)
		return
	}
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	c := &conn{
		ws:   ws,
		send: make(chan []byte, s.opts.SendBuffer),
		in:   make(chan Message),
		done: make(chan struct{}),
		log:  s.log.With("remote", r.RemoteAddr),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		ws.Close()
		return
	}
	s.conns[c] = struct{}{}
	s.wg.Add(3)
	s.mu.Unlock()

	c.log.Info("remote worker connected")
	go func() {
		defer s.wg.Done()
		c.readLoop()
	}()
	go func() {
		defer s.wg.Done()
		c.writeLoop(s.opts.PingPeriod)
	}()
	go func() {
		defer s.wg.Done()
		defer s.drop(c)
		c.run(s.opts)
	}()
}

func (s *Server) drop(c *conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
	c.close()
	c.log.Info("remote worker disconnected")
}

// Len is the number of open connections.
func (s *Server) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Close disconnects every client, releases their sessions and refuses new
// ones.
func (s *Server) Close() error {
	s.mu.Lock()
	s.closed = true
	open := make([]*conn, 0, len(s.conns))
	for c := range s.conns {
		open = append(open, c)
	}
	s.mu.Unlock()
	for _, c := range open {
		c.close()
	}
	s.wg.Wait()
	return nil
}

type conn struct {
	ws   *websocket.Conn
	send chan []byte
	in   chan Message
	done chan struct{}
	once sync.Once
	log  *slog.Logger
}

func (c *conn) close() {
	c.once.Do(func() {
		close(c.done)
		c.ws.Close()
	})
}

func (c *conn) readLoop() {
	defer c.close()
	for {
		_, b, err := c.ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug("read stopped", "err", err)
			}
			return
		}
		m, err := decode(b)
		if err != nil {
			c.log.Warn("bad message", "err", err)
			continue
		}
		select {
		case c.in <- m:
		case <-c.done:
			return
		}
	}
}

func (c *conn) writeLoop(pingPeriod time.Duration) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()
	for {
		select {
		case b := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, b); err != nil {
				c.log.Debug("write failed", "err", err)
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

// enqueue hands a message to the writer. A client that cannot keep up is
// disconnected.
func (c *conn) enqueue(m Message) {
	b, err := json.Marshal(m)
	if err != nil {
		c.log.Error("encode failed", "ty", m.Ty, "err", err)
		return
	}
	select {
	case c.send <- b:
	case <-c.done:
	default:
		c.log.Warn("send buffer full, disconnecting")
		c.close()
	}
}

// surface stands in for the remote canvas.
type surface struct{ w, h int }

func (s surface) Width() int  { return s.w }
func (s surface) Height() int { return s.h }

// worker is the per-connection session driver. Only run touches it.
type worker struct {
	c           *conn
	s           *session.Session
	hasWindow   bool
	ready       bool
	stopped     bool
	renderBlock time.Duration
	maxBlock    time.Duration
}

// run owns the session: every call into it happens here.
func (c *conn) run(opts Options) {
	w := &worker{c: c, maxBlock: opts.MaxBlock}
	so := opts.Session
	so.Logger = c.log
	so.Bindings = session.Bindings{Worker: session.NotifierFuncs{
		Pick: func(ids []uint64) { c.enqueue(pickMessage(ids)) },
		Yield: func() {
			if w.renderBlock > 0 {
				time.Sleep(w.renderBlock)
			}
		},
	}}
	w.s = session.New(so)
	defer func() {
		if err := w.s.Release(); err != nil && !errors.Is(err, session.ErrReleased) {
			c.log.Warn("release failed", "err", err)
		}
	}()

	c.enqueue(Message{Ty: TyWorkerIsReady})

	ticker := time.NewTicker(opts.FrameInterval)
	defer ticker.Stop()
	for {
		select {
		case m := <-c.in:
			if err := w.handle(m); err != nil {
				c.log.Warn("message failed", "ty", m.Ty, "err", err)
			}
		case <-ticker.C:
			if err := w.frame(); err != nil {
				c.log.Warn("frame failed", "err", err)
			}
		case <-c.done:
			return
		}
	}
}

func (w *worker) frame() error {
	if !w.hasWindow || w.stopped {
		return nil
	}
	if !w.ready {
		w.ready = w.s.PollReady()
		return nil
	}
	return w.s.AdvanceFrame()
}

func (w *worker) handle(m Message) error {
	switch m.Ty {
	case TyInit:
		ratio := m.DevicePixelRatio
		if ratio <= 0 {
			ratio = 1
		}
		view, err := canvas.NewOffscreenCanvas(surface{m.Width, m.Height}, float32(ratio), 1)
		if err != nil {
			return err
		}
		if err := w.s.CreateWindow(view, float32(ratio)); err != nil {
			return err
		}
		w.hasWindow = true
		w.ready = w.s.PollReady()
	case TyStartRunning:
		w.stopped = false
	case TyStopRunning:
		w.stopped = true
	case TyMouseMove:
		return w.s.PointerMove(m.X, m.Y)
	case TyHover:
		return w.s.PushHover(m.List)
	case TySelect:
		return w.s.PushSelection(m.List)
	case TyLeftBtDown:
		return w.s.ButtonDown(m.PickItem, m.X, m.Y)
	case TyLeftBtUp:
		return w.s.ButtonUp()
	case TyBlockRender:
		d, clamped := blockDuration(m.BlockTime, w.maxBlock)
		if clamped {
			w.c.log.Warn("render block clamped", "requestedMs", m.BlockTime, "max", w.maxBlock)
		}
		w.renderBlock = d
	case TyAutoAnimation:
		if m.AutoAnimation == nil {
			return errors.New("wshost: autoAnimation without a value")
		}
		return w.s.SetAutoAnimate(*m.AutoAnimation)
	case TyRelease:
		return w.s.Release()
	default:
		w.c.log.Debug("unknown message", "ty", m.Ty)
	}
	return nil
}

// blockDuration converts a requested block in milliseconds, clamping it to
// [0, limit]. clamped reports whether the request was out of range.
func blockDuration(ms float64, limit time.Duration) (d time.Duration, clamped bool) {
	switch {
	case math.IsNaN(ms) || ms < 0:
		return 0, true
	case ms > float64(limit)/float64(time.Millisecond):
		return limit, true
	}
	return time.Duration(ms * float64(time.Millisecond)), false
}
