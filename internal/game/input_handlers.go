package game

import (
	"github.com/go-gl/glfw/v3.3/glfw"

	"blastview/internal/input"
)

func SetupInputHandlers(app *App) {
	window := app.window
	im := app.inputManager
	bridge := app.bridge

	// Cursor positions are already in logical (screen) coordinates
	window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		if app.state != StateRunning {
			return
		}
		bridge.CursorMoved(float32(xpos), float32(ypos))
	})

	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		im.HandleMouseButtonEvent(input.MouseButton(button), input.KeyAction(action))

		if app.state != StateRunning || button != glfw.MouseButtonLeft {
			return
		}
		switch action {
		case glfw.Press:
			bridge.ButtonPressed()
		case glfw.Release:
			bridge.ButtonReleased()
		}
	})

	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		im.HandleKeyEvent(input.Key(key), input.KeyAction(action))
	})

	window.SetSizeCallback(func(w *glfw.Window, width, height int) {
		if err := app.session.Resize(float32(width), float32(height)); err != nil {
			app.log.Warn("resize failed", "err", err)
		}
	})

	window.SetFramebufferSizeCallback(func(w *glfw.Window, fbWidth, fbHeight int) {
		if app.renderer != nil {
			app.renderer.UpdateViewport(fbWidth, fbHeight)
		}
		app.RefreshRender()
	})
}
