package input

import (
	"log/slog"
	"slices"
	"sync"
)

// Target is the part of a session the desktop host drives.
type Target interface {
	PointerMove(x, y float32) error
	ButtonDown(id any, x, y float32) error
	ButtonUp() error
	PushHover(ids []any) error
	PushSelection(ids []any) error
}

// Bridge plays the role of the browser page: it remembers the latest pick
// and turns cursor and button events into session calls. It also serves as
// the session's main-thread notifier.
type Bridge struct {
	target Target
	log    *slog.Logger

	mu     sync.Mutex
	latest []uint64
	x, y   float32
}

// NewBridge drives target. SetTarget may be used when the session is
// created after the bridge.
func NewBridge(target Target, log *slog.Logger) *Bridge {
	if log == nil {
		log = slog.Default()
	}
	return &Bridge{target: target, log: log.With("component", "input")}
}

// SetTarget replaces the driven session.
func (b *Bridge) SetTarget(t Target) {
	b.mu.Lock()
	b.target = t
	b.mu.Unlock()
}

// SendPick receives the engine's pick list and echoes it as hover.
func (b *Bridge) SendPick(ids []uint64) {
	b.mu.Lock()
	b.latest = slices.Clone(ids)
	t := b.target
	b.mu.Unlock()
	if t == nil {
		return
	}
	b.check("set_hover", t.PushHover(anys(ids)))
}

// Block is a no-op on the desktop.
func (b *Bridge) Block() {}

// LatestPick returns a copy of the last pick list.
func (b *Bridge) LatestPick() []uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.latest)
}

// CursorMoved forgets the previous pick and asks for a new one.
func (b *Bridge) CursorMoved(x, y float32) {
	b.mu.Lock()
	b.latest = nil
	b.x, b.y = x, y
	t := b.target
	b.mu.Unlock()
	if t == nil {
		return
	}
	b.check("mouse_move", t.PointerMove(x, y))
}

// ButtonPressed starts dragging the first picked entity, if any.
func (b *Bridge) ButtonPressed() {
	b.mu.Lock()
	t, x, y := b.target, b.x, b.y
	var first []uint64
	if len(b.latest) > 0 {
		first = b.latest[:1]
	}
	b.mu.Unlock()
	if t == nil || len(first) == 0 {
		return
	}
	b.check("left_bt_down", t.ButtonDown(first[0], x, y))
}

// ButtonReleased ends a drag and selects the latest pick; an empty pick
// clears the selection.
func (b *Bridge) ButtonReleased() {
	b.mu.Lock()
	t, ids := b.target, slices.Clone(b.latest)
	b.mu.Unlock()
	if t == nil {
		return
	}
	b.check("left_bt_up", t.ButtonUp())
	b.check("set_selection", t.PushSelection(anys(ids)))
}

func (b *Bridge) check(call string, err error) {
	if err != nil {
		b.log.Warn("session call failed", "call", call, "err", err)
	}
}

func anys(ids []uint64) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
