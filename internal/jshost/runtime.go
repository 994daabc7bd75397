package jshost

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"
	"github.com/dop251/goja_nodejs/require"
)

// ErrLoopStopped is returned when work is posted to a closed runtime.
var ErrLoopStopped = errors.New("jshost: event loop not running")

// DefaultSyncTimeout bounds RunOnLoopSync.
const DefaultSyncTimeout = 5 * time.Second

// Runtime is one JavaScript scope with its own event loop: the page, or a
// worker. goja.Runtime is not goroutine safe, so every access goes through
// the loop.
type Runtime struct {
	name    string
	log     *slog.Logger
	loop    *eventloop.EventLoop
	timeout time.Duration

	mu      sync.RWMutex
	stopped bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewRuntime starts an event loop with console and require enabled.
func NewRuntime(name string, log *slog.Logger) *Runtime {
	if log == nil {
		log = slog.Default()
	}
	loop := eventloop.NewEventLoop(
		eventloop.WithRegistry(require.NewRegistry()),
		eventloop.EnableConsole(true),
	)
	ctx, cancel := context.WithCancel(context.Background())
	rt := &Runtime{
		name:    name,
		log:     log.With("scope", name),
		loop:    loop,
		timeout: DefaultSyncTimeout,
		ctx:     ctx,
		cancel:  cancel,
	}
	loop.Start()
	return rt
}

// Name identifies the scope in logs.
func (rt *Runtime) Name() string { return rt.name }

// RunOnLoop schedules fn; false if the loop is stopped.
func (rt *Runtime) RunOnLoop(fn func(*goja.Runtime)) bool {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	if rt.stopped {
		return false
	}
	return rt.loop.RunOnLoop(fn)
}

// RunOnLoopSync runs fn on the loop and waits for it.
func (rt *Runtime) RunOnLoopSync(fn func(*goja.Runtime) error) error {
	errCh := make(chan error, 1)
	if !rt.RunOnLoop(func(vm *goja.Runtime) { errCh <- fn(vm) }) {
		return ErrLoopStopped
	}
	timer := time.NewTimer(rt.timeout)
	defer timer.Stop()
	select {
	case err := <-errCh:
		return err
	case <-rt.ctx.Done():
		return ErrLoopStopped
	case <-timer.C:
		return fmt.Errorf("jshost: %s: operation timed out after %v", rt.name, rt.timeout)
	}
}

// LoadScript compiles and runs code.
func (rt *Runtime) LoadScript(name, code string) error {
	return rt.RunOnLoopSync(func(vm *goja.Runtime) error {
		prg, err := goja.Compile(name, code, true)
		if err != nil {
			return fmt.Errorf("jshost: compile %s: %w", name, err)
		}
		if _, err := vm.RunProgram(prg); err != nil {
			return fmt.Errorf("jshost: run %s: %w", name, err)
		}
		return nil
	})
}

// Global exports a global value, or nil when it is undefined.
func (rt *Runtime) Global(name string) (any, error) {
	var out any
	err := rt.RunOnLoopSync(func(vm *goja.Runtime) error {
		v := vm.Get(name)
		if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
			return nil
		}
		out = v.Export()
		return nil
	})
	return out, err
}

// Close stops the loop. Pending jobs are dropped. Safe to call twice.
func (rt *Runtime) Close() {
	rt.mu.Lock()
	if rt.stopped {
		rt.mu.Unlock()
		return
	}
	rt.stopped = true
	rt.mu.Unlock()
	rt.cancel()
	rt.loop.Stop()
}
