package pick

import (
	"github.com/go-gl/mathgl/mgl32"

	"blastview/internal/ecs"
)

// FrameBudget is how many frames an input event keeps the session rendering
// while auto animation is off.
const FrameBudget = 10

// ActiveInfo is the single source of interaction state for a session.
// Hover and selection are host-authoritative: they are only ever replaced
// wholesale by the host, never edited by the resolver.
type ActiveInfo struct {
	Hover           map[ecs.Entity]uint64
	Selection       map[ecs.Entity]uint64
	Drag            ecs.Entity
	LastDragPos     mgl32.Vec2
	InWorker        bool
	AutoAnimate     bool
	RemainingFrames uint32
}

// NewActiveInfo returns empty sets, no drag and animation on.
func NewActiveInfo(inWorker bool) *ActiveInfo {
	return &ActiveInfo{
		Hover:       make(map[ecs.Entity]uint64),
		Selection:   make(map[ecs.Entity]uint64),
		Drag:        ecs.Placeholder,
		InWorker:    inWorker,
		AutoAnimate: true,
	}
}

// Dragging reports whether a drag target is set.
func (a *ActiveInfo) Dragging() bool {
	return a.Drag != ecs.Placeholder
}

// BeginDrag starts dragging e from pos and makes e the only selected entity.
func (a *ActiveInfo) BeginDrag(e ecs.Entity, pos mgl32.Vec2) {
	a.Drag = e
	a.LastDragPos = pos
	a.Selection = map[ecs.Entity]uint64{e: 0}
}

// EndDrag clears the drag target. The selection is left alone.
func (a *ActiveInfo) EndDrag() {
	a.Drag = ecs.Placeholder
}

// ReplaceHover swaps in a new hover set keyed by the ids themselves.
func (a *ActiveInfo) ReplaceHover(ids []uint64) {
	a.Hover = toSet(ids)
}

// ReplaceSelection swaps in a new selection set keyed by the ids themselves.
func (a *ActiveInfo) ReplaceSelection(ids []uint64) {
	a.Selection = toSet(ids)
}

// Touch resets the remaining-frames budget.
func (a *ActiveInfo) Touch() {
	a.RemainingFrames = FrameBudget
}

// ConsumeFrame decides whether the next frame runs, spending one unit of
// budget when there is any.
func (a *ActiveInfo) ConsumeFrame() bool {
	if !a.AutoAnimate && a.RemainingFrames == 0 {
		return false
	}
	if a.RemainingFrames > 0 {
		a.RemainingFrames--
	}
	return true
}

func toSet(ids []uint64) map[ecs.Entity]uint64 {
	m := make(map[ecs.Entity]uint64, len(ids))
	for _, id := range ids {
		m[ecs.FromBits(id)] = id
	}
	return m
}

// ActiveState is the per-pickable projection of ActiveInfo.
type ActiveState struct {
	Hover    bool
	Selected bool
}

// IsActive is true when the pickable should be highlighted.
func (s ActiveState) IsActive() bool {
	return s.Hover || s.Selected
}

// AutoAnimating reports the session's animation flag; true without a session.
func AutoAnimating(w *ecs.World) bool {
	info, ok := ecs.Resource[ActiveInfo](w)
	return !ok || info.AutoAnimate
}
