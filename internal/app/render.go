package app

import (
	"context"
	"sync/atomic"
)

// DeviceInit acquires the GPU device and queue. It may take an unknown
// amount of time, which is why readiness has to be polled by the host.
type DeviceInit func(ctx context.Context) error

// RenderPlugin models asynchronous device creation. The app stays in
// PluginsAdding until the initializer returns without error.
type RenderPlugin struct {
	Init DeviceInit

	ready  atomic.Bool
	failed atomic.Value // error
	cancel context.CancelFunc
}

// NewRenderPlugin creates the plugin; a nil init completes immediately.
func NewRenderPlugin(init DeviceInit) *RenderPlugin {
	return &RenderPlugin{Init: init}
}

func (p *RenderPlugin) Name() string { return "render" }

// Build starts device creation in the background.
func (p *RenderPlugin) Build(a *App) {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	log := a.Logger()
	go func() {
		if p.Init != nil {
			if err := p.Init(ctx); err != nil {
				p.failed.Store(err)
				log.Error("render device init failed", "err", err)
				return
			}
		}
		p.ready.Store(true)
	}()
}

// Ready reports whether the device exists.
func (p *RenderPlugin) Ready(*App) bool {
	return p.ready.Load()
}

// Err returns the initialisation error, if any.
func (p *RenderPlugin) Err() error {
	if err, ok := p.failed.Load().(error); ok {
		return err
	}
	return nil
}

// Finish logs the transition; the device is owned by the host from here on.
func (p *RenderPlugin) Finish(a *App) {
	a.Logger().Info("render device ready")
}

// Cleanup releases the init context.
func (p *RenderPlugin) Cleanup(*App) {
	if p.cancel != nil {
		p.cancel()
	}
}
