package canvas

import (
	"github.com/google/uuid"

	"blastview/internal/ecs"
)

// WindowID identifies a view independently of the entity it is attached to.
type WindowID uuid.UUID

func (id WindowID) String() string { return uuid.UUID(id).String() }

// NewWindowID mints a random id.
func NewWindowID() WindowID {
	return WindowID(uuid.New())
}

// Views owns every view moved into the session, with an entity index for
// lookups and removal when a window closes.
type Views struct {
	views    map[WindowID]ViewObj
	byEntity map[ecs.Entity]WindowID
}

// NewViews creates an empty registry.
func NewViews() *Views {
	return &Views{
		views:    make(map[WindowID]ViewObj),
		byEntity: make(map[ecs.Entity]WindowID),
	}
}

// CreateWindow stores view under a fresh id and binds it to e.
func (v *Views) CreateWindow(view ViewObj, e ecs.Entity) WindowID {
	id := NewWindowID()
	v.byEntity[e] = id
	v.views[id] = view
	return id
}

// View returns the view bound to e.
func (v *Views) View(e ecs.Entity) (ViewObj, bool) {
	id, ok := v.byEntity[e]
	if !ok {
		return nil, false
	}
	view, ok := v.views[id]
	return view, ok
}

// ID returns the window id bound to e.
func (v *Views) ID(e ecs.Entity) (WindowID, bool) {
	id, ok := v.byEntity[e]
	return id, ok
}

// RemoveView unbinds e and returns its view.
func (v *Views) RemoveView(e ecs.Entity) (ViewObj, bool) {
	id, ok := v.byEntity[e]
	if !ok {
		return nil, false
	}
	delete(v.byEntity, e)
	view, ok := v.views[id]
	delete(v.views, id)
	return view, ok
}

// Len is the number of live views.
func (v *Views) Len() int {
	return len(v.views)
}
