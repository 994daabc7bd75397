package journal

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"blastview/internal/canvas"
	"blastview/internal/session"
)

// ViewFactory recreates the view a create_window call moved into the session.
type ViewFactory func(c session.Call) (canvas.ViewObj, error)

type headlessSurface struct{ w, h int }

func (s headlessSurface) Width() int  { return s.w }
func (s headlessSurface) Height() int { return s.h }

type headlessElement struct {
	headlessSurface
	attrs map[string]string
}

func (e *headlessElement) SetAttribute(name, value string) error {
	e.attrs[name] = value
	return nil
}

func (e *headlessElement) TransferControlToOffscreen() (canvas.Surface, error) {
	return e.headlessSurface, nil
}

type headlessDocument struct {
	el    *headlessElement
	ratio float64
}

func (d headlessDocument) GetElementByID(string) (canvas.Element, bool) { return d.el, true }
func (d headlessDocument) DevicePixelRatio() float64                    { return d.ratio }

// HeadlessView builds a view of the recorded size with no backing page.
func HeadlessView(c session.Call) (canvas.ViewObj, error) {
	surf := headlessSurface{w: int(c.Width), h: int(c.Height)}
	if c.Offscreen {
		return canvas.NewOffscreenCanvas(surf, c.Scale, 1)
	}
	doc := headlessDocument{
		el:    &headlessElement{headlessSurface: surf, attrs: map[string]string{}},
		ratio: float64(c.Scale),
	}
	return canvas.NewCanvas(doc, "replay", 1)
}

type replayClock struct {
	born time.Time
	at   time.Duration
}

func (c *replayClock) now() time.Time { return c.born.Add(c.at) }

type tape struct{ frames []session.FrameSnapshot }

func (t *tape) Record(session.Call)           {}
func (t *tape) Frame(f session.FrameSnapshot) { t.frames = append(t.frames, f) }

// Replay drives a fresh session through calls, reproducing the recorded
// clock, and returns the frames it produced. opts.Clock and opts.Recorder
// are replaced; the seed must match the recording for ids to line up.
func Replay(ctx context.Context, calls []session.Call, opts session.Options, views ViewFactory) ([]session.FrameSnapshot, error) {
	if views == nil {
		views = HeadlessView
	}
	clock := &replayClock{born: time.Unix(0, 0)}
	out := &tape{}
	opts.Clock = clock.now
	opts.Recorder = out
	s := session.New(opts)

	var errs []error
	for i, c := range calls {
		if err := ctx.Err(); err != nil {
			return out.frames, err
		}
		clock.at = c.At
		if err := apply(ctx, s, c, views); err != nil {
			if errors.Is(err, session.ErrReleased) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return out.frames, fmt.Errorf("journal: call %d (%s): %w", i, c.Op, err)
			}
			errs = append(errs, fmt.Errorf("journal: call %d (%s): %w", i, c.Op, err))
		}
	}
	return out.frames, errors.Join(errs...)
}

func apply(ctx context.Context, s *session.Session, c session.Call, views ViewFactory) error {
	switch c.Op {
	case session.OpCreateWindow:
		view, err := views(c)
		if err != nil {
			return err
		}
		if err := s.CreateWindow(view, c.Scale); err != nil {
			return err
		}
		return waitReady(ctx, s)
	case session.OpPointerMove:
		return s.PointerMove(c.X, c.Y)
	case session.OpButtonDown:
		var id any
		if len(c.IDs) > 0 {
			id = c.IDs[0]
		}
		return s.ButtonDown(id, c.X, c.Y)
	case session.OpButtonUp:
		return s.ButtonUp()
	case session.OpPushHover:
		return s.PushHover(anys(c.IDs))
	case session.OpPushSelection:
		return s.PushSelection(anys(c.IDs))
	case session.OpSetAutoAnimate:
		return s.SetAutoAnimate(c.On)
	case session.OpResize:
		return s.Resize(c.Width, c.Height)
	case session.OpAdvanceFrame:
		return s.AdvanceFrame()
	case session.OpRelease:
		return s.Release()
	}
	return fmt.Errorf("unknown op %q", c.Op)
}

func waitReady(ctx context.Context, s *session.Session) error {
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for !s.PollReady() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

func anys(ids []uint64) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

// Diff lists the indices at which two frame streams disagree. Frames past
// the end of the shorter stream all count as differences.
func Diff(want, got []session.FrameSnapshot) []int {
	var out []int
	for i := range max(len(want), len(got)) {
		if i >= len(want) || i >= len(got) || !reflect.DeepEqual(normalize(want[i]), normalize(got[i])) {
			out = append(out, i)
		}
	}
	return out
}

// normalize maps empty slices to nil so decoded and live frames compare equal.
func normalize(f session.FrameSnapshot) session.FrameSnapshot {
	if len(f.Hover) == 0 {
		f.Hover = nil
	}
	if len(f.Selection) == 0 {
		f.Selection = nil
	}
	if len(f.Picks) == 0 {
		f.Picks = nil
	}
	return f
}
