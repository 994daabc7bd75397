package window_test

import (
	"testing"

	"blastview/internal/app"
	"blastview/internal/ecs"
	"blastview/internal/window"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startedApp(t *testing.T) *app.App {
	t.Helper()
	a := app.New().AddPlugins(window.NewPlugin("test", window.PresentAutoNoVsync))
	require.Equal(t, app.PluginsReady, a.PluginsState())
	a.Finish()
	a.Cleanup()
	return a
}

func TestPluginSpawnsPrimaryWindow(t *testing.T) {
	a := startedApp(t)
	wins := window.Windows(a.World())
	require.Len(t, wins, 1)
	w, ok := ecs.Get[window.Window](a.World(), wins[0])
	require.True(t, ok)
	assert.Equal(t, "test", w.Title)
	assert.Equal(t, window.PresentAutoNoVsync, w.PresentMode)
	assert.True(t, ecs.StoreOf[window.Primary](a.World()).Has(wins[0]))
}

func TestCloseRequestDespawnsAndExits(t *testing.T) {
	a := startedApp(t)
	w := a.World()
	e := window.Windows(w)[0]

	var exits ecs.EventReader[window.AppExit]
	ecs.EventsOf[window.WindowCloseRequested](w).Send(window.WindowCloseRequested{Window: e})
	require.NoError(t, a.Update())

	assert.False(t, w.Alive(e))
	assert.Empty(t, window.Windows(w))
	assert.Len(t, exits.Read(ecs.EventsOf[window.AppExit](w)), 1)
}

func TestResolution(t *testing.T) {
	r := window.NewResolution(800, 600)
	r.SetScaleFactor(2)
	r.SetScaleFactor(-1)
	assert.Equal(t, float32(2), r.ScaleFactor())
	r.Set(10, 20)
	assert.Equal(t, float32(10), r.Size().X())
	assert.Equal(t, float32(20), r.Height())
}
