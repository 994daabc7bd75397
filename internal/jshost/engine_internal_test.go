package jshost

import (
	"log/slog"
	"math/big"
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blastview/internal/session"
)

func TestEngineHandlesAreBigInts(t *testing.T) {
	vm := goja.New()
	e := newEngine(vm, slog.Default(), nil, session.Options{})
	e.install()

	v, err := vm.RunString(`const h = bevy.init_bevy_app(); typeof h`)
	require.NoError(t, err)
	assert.Equal(t, "bigint", v.String())
	assert.Equal(t, 1, e.reg.Len())

	v, err = vm.RunString(`bevy.is_preparation_completed(h)`)
	require.NoError(t, err)
	assert.Contains(t, []int64{0, 1}, v.ToInteger())

	_, err = vm.RunString(`bevy.release_app(h)`)
	require.NoError(t, err)
	assert.Zero(t, e.reg.Len())
}

func TestEngineThrowsOnUnknownHandle(t *testing.T) {
	vm := goja.New()
	e := newEngine(vm, slog.Default(), nil, session.Options{})
	e.install()

	for _, src := range []string{
		`bevy.enter_frame(99n)`,
		`bevy.mouse_move("nope", 1, 1)`,
		`bevy.release_app(0)`,
	} {
		_, err := vm.RunString(src)
		assert.Error(t, err, src)
	}
}

func TestEngineWithoutDocumentRejectsCanvasWindow(t *testing.T) {
	vm := goja.New()
	e := newEngine(vm, slog.Default(), nil, session.Options{})
	e.install()

	_, err := vm.RunString(`bevy.create_window_by_canvas(bevy.init_bevy_app(), "main-thread-canvas", 1)`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no document")
}

func TestEngineEarlyCallsAreLogged(t *testing.T) {
	vm := goja.New()
	e := newEngine(vm, slog.Default(), nil, session.Options{})
	e.install()

	// no window yet: the session refuses, the script keeps going
	_, err := vm.RunString(`
		const h = bevy.init_bevy_app();
		bevy.mouse_move(h, 1, 2);
		bevy.set_hover(h, [1n, 2n]);
		bevy.enter_frame(h);
	`)
	assert.NoError(t, err)
}

func TestEngineCallsAfterReleaseAreLogged(t *testing.T) {
	vm := goja.New()
	e := newEngine(vm, slog.Default(), nil, session.Options{})
	e.install()

	_, err := vm.RunString(`
		const h = bevy.init_bevy_app();
		bevy.release_app(h);
		bevy.enter_frame(h);
		bevy.mouse_move(h, 1, 2);
		bevy.left_bt_down(h, 5n, 1, 2);
		bevy.left_bt_up(h);
		bevy.set_hover(h, [1n]);
		bevy.set_selection(h, []);
		bevy.set_auto_animation(h, false);
	`)
	require.NoError(t, err)
	assert.Zero(t, e.reg.Len())

	// a second release of the same handle is still an error
	_, err = vm.RunString(`bevy.release_app(h)`)
	assert.Error(t, err)
}

func TestCloneIntoCopiesPlainData(t *testing.T) {
	src := goja.New()
	dst := goja.New()
	s := &surface{w: 4, h: 3}

	v, err := src.RunString(`({ ty: "pick", list: [5n, 7n], nested: { x: 1.5 } })`)
	require.NoError(t, err)
	obj := v.ToObject(src)
	obj.Set(surfaceKey, s)

	out := cloneInto(dst, v.Export()).ToObject(dst)
	assert.Equal(t, "pick", out.Get("ty").String())
	list, ok := out.Get("list").Export().([]any)
	require.True(t, ok)
	require.Len(t, list, 2)
	assert.Equal(t, 0, big.NewInt(7).Cmp(list[1].(*big.Int)))
	assert.InDelta(t, 1.5, out.Get("nested").ToObject(dst).Get("x").ToFloat(), 1e-9)
	assert.Same(t, s, out.Get(surfaceKey).Export())

	// mutating the clone leaves the source alone
	out.Get("nested").ToObject(dst).Set("x", 9)
	assert.InDelta(t, 1.5, obj.Get("nested").ToObject(src).Get("x").ToFloat(), 1e-9)
}

func TestScriptLookup(t *testing.T) {
	code, err := script("./worker.js")
	require.NoError(t, err)
	assert.Contains(t, code, "send_pick_from_worker")

	_, err = script("missing.js")
	assert.Error(t, err)
}
