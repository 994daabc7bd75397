package input

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyEdgesResetOnPostUpdate(t *testing.T) {
	im := NewInputManager()

	im.HandleKeyEvent(KeySpace, Press)
	assert.True(t, im.IsActive(ActionToggleAnimation))
	assert.True(t, im.JustPressed(ActionToggleAnimation))

	im.PostUpdate()
	assert.True(t, im.IsActive(ActionToggleAnimation))
	assert.False(t, im.JustPressed(ActionToggleAnimation))

	// repeat while held is not a new press
	im.HandleKeyEvent(KeySpace, Repeat)
	assert.False(t, im.JustPressed(ActionToggleAnimation))

	im.HandleKeyEvent(KeySpace, Release)
	assert.False(t, im.IsActive(ActionToggleAnimation))
	assert.True(t, im.JustReleased(ActionToggleAnimation))
}

func TestDefaultBindings(t *testing.T) {
	tests := []struct {
		key    Key
		action Action
	}{
		{KeySpace, ActionToggleAnimation},
		{KeyP, ActionToggleProfiling},
		{KeyF2, ActionSnapshot},
		{KeyEscape, ActionQuit},
	}
	for _, tt := range tests {
		im := NewInputManager()
		im.HandleKeyEvent(tt.key, Press)
		assert.True(t, im.JustPressed(tt.action), "key %d", tt.key)
	}
}

func TestMouseButtonIgnoresRepeat(t *testing.T) {
	im := NewInputManager()
	im.HandleMouseButtonEvent(MouseButtonLeft, Press)
	assert.True(t, im.IsActive(ActionMouseLeft))
	im.HandleMouseButtonEvent(MouseButtonLeft, Repeat)
	assert.False(t, im.IsActive(ActionMouseLeft))

	// unbound button
	im.HandleMouseButtonEvent(MouseButtonRight, Press)
	assert.False(t, im.IsActive(ActionMouseLeft))
}

func TestBindAndUnbind(t *testing.T) {
	im := NewInputManager()
	im.BindKey(Key(65), ActionQuit)
	im.BindKey(Key(65), ActionCount) // out of range, ignored
	im.HandleKeyEvent(Key(65), Press)
	assert.True(t, im.IsActive(ActionQuit))

	im.UnbindKey(KeyP)
	im.HandleKeyEvent(KeyP, Press)
	assert.False(t, im.IsActive(ActionToggleProfiling))
	assert.False(t, im.IsActive(Action(-1)))
}

type call struct {
	name string
	args []any
}

type fakeTarget struct {
	calls []call
	err   error
}

func (f *fakeTarget) add(name string, args ...any) error {
	f.calls = append(f.calls, call{name, args})
	return f.err
}

func (f *fakeTarget) PointerMove(x, y float32) error { return f.add("move", x, y) }
func (f *fakeTarget) ButtonDown(id any, x, y float32) error {
	return f.add("down", id, x, y)
}
func (f *fakeTarget) ButtonUp() error               { return f.add("up") }
func (f *fakeTarget) PushHover(ids []any) error     { return f.add("hover", ids...) }
func (f *fakeTarget) PushSelection(ids []any) error { return f.add("select", ids...) }

func TestBridgeFollowsPageProtocol(t *testing.T) {
	target := &fakeTarget{}
	b := NewBridge(target, nil)

	b.CursorMoved(10, 20)
	b.SendPick([]uint64{7, 9})
	assert.Equal(t, []uint64{7, 9}, b.LatestPick())

	b.ButtonPressed()
	b.ButtonReleased()

	require.Equal(t, []call{
		{"move", []any{float32(10), float32(20)}},
		{"hover", []any{uint64(7), uint64(9)}},
		{"down", []any{uint64(7), float32(10), float32(20)}},
		{"up", nil},
		{"select", []any{uint64(7), uint64(9)}},
	}, target.calls)
}

func TestBridgeMoveForgetsPick(t *testing.T) {
	target := &fakeTarget{}
	b := NewBridge(target, nil)
	b.SendPick([]uint64{3})
	b.CursorMoved(1, 1)
	assert.Empty(t, b.LatestPick())

	target.calls = nil
	b.ButtonPressed()
	b.ButtonReleased()
	// no drag without a pick; the click clears the selection
	require.Len(t, target.calls, 2)
	assert.Equal(t, "up", target.calls[0].name)
	assert.Equal(t, "select", target.calls[1].name)
	assert.Empty(t, target.calls[1].args)
}

func TestBridgeWithoutTarget(t *testing.T) {
	b := NewBridge(nil, nil)
	b.CursorMoved(1, 2)
	b.SendPick([]uint64{1})
	b.ButtonPressed()
	b.ButtonReleased()
	b.Block()
	assert.Equal(t, []uint64{1}, b.LatestPick())

	target := &fakeTarget{err: errors.New("session: released")}
	b.SetTarget(target)
	b.ButtonPressed()
	assert.Len(t, target.calls, 1)
}
