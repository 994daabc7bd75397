package session

import "time"

// Op names a host entry point.
type Op string

const (
	OpCreateWindow   Op = "create_window"
	OpPointerMove    Op = "pointer_move"
	OpButtonDown     Op = "button_down"
	OpButtonUp       Op = "button_up"
	OpPushHover      Op = "push_hover"
	OpPushSelection  Op = "push_selection"
	OpSetAutoAnimate Op = "set_auto_animate"
	OpAdvanceFrame   Op = "advance_frame"
	OpResize         Op = "resize"
	OpRelease        Op = "release"
)

// Call is one host entry-point invocation as seen by the session, after id
// parsing. Frame is the number of updates run before the call and At the
// session clock offset when it was made.
type Call struct {
	Op        Op            `json:"op"`
	Frame     uint64        `json:"frame"`
	At        time.Duration `json:"at"`
	X         float32       `json:"x,omitempty"`
	Y         float32       `json:"y,omitempty"`
	IDs       []uint64      `json:"ids,omitempty"`
	On        bool          `json:"on"`
	Scale     float32       `json:"scale,omitempty"`
	Offscreen bool          `json:"offscreen,omitempty"`
	Width     float32       `json:"width,omitempty"`
	Height    float32       `json:"height,omitempty"`
}

// FrameSnapshot is the interaction state after an update.
type FrameSnapshot struct {
	Frame     uint64     `json:"frame"`
	Hover     []uint64   `json:"hover"`
	Selection []uint64   `json:"selection"`
	Dragging  bool       `json:"dragging"`
	Drag      uint64     `json:"drag,omitempty"`
	Picks     [][]uint64 `json:"picks,omitempty"`
}

// Recorder observes a session. Calls are reported before they take effect.
type Recorder interface {
	Record(c Call)
	Frame(f FrameSnapshot)
}

type nopRecorder struct{}

func (nopRecorder) Record(Call)         {}
func (nopRecorder) Frame(FrameSnapshot) {}
