// Command blastview-js runs the browser demo page headlessly: the page
// scripts execute on goja, the engine runs in-process and the frame loop is
// driven by a ticker. It can also serve remote workers over WebSocket.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/xlab/closer"

	"blastview/internal/app"
	"blastview/internal/blast"
	"blastview/internal/config"
	"blastview/internal/journal"
	"blastview/internal/jshost"
	"blastview/internal/session"
	"blastview/internal/snapshot"
	"blastview/internal/wshost"
)

func main() {
	configPath := flag.String("config", "blastview.toml", "path to the TOML configuration")
	mode := flag.String("mode", "", "main or worker; overrides [host] mode")
	frames := flag.Int("frames", 600, "frames to run before exiting; 0 runs until interrupted")
	sweep := flag.Bool("sweep", true, "move the pointer across the canvas and click now and then")
	snapshotPath := flag.String("snapshot", "", "write a PNG of the last frame here on exit")
	listen := flag.String("listen", "", "serve remote workers on this address; overrides [host] listen")
	debug := flag.Bool("debug", false, "log per-event detail")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}
	if *mode != "" {
		cfg.Host.Mode = *mode
	}
	if *listen != "" {
		cfg.Host.Listen = *listen
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	cfg.Apply()

	template := session.Options{
		Logger:      log,
		Seed:        cfg.Scene.Seed,
		MaxDistance: config.GetRayMaxDistance(),
	}
	if config.GetBlastEnabled() {
		template.Plugins = []app.Plugin{blast.FromConfig(cfg.Blast)}
	}

	var rec *journal.Writer
	if cfg.Journal.Enabled {
		rec, err = journal.NewWriter(cfg.Journal.Dir, "js-"+cfg.Host.Mode, cfg.Scene.Seed, nil)
		if err != nil {
			panic(err)
		}
		template.Recorder = rec
		log.Info("journal recording", "dir", rec.Directory())
	}

	host, err := jshost.New(jshost.Options{
		Mode:             jshost.Mode(cfg.Host.Mode),
		Width:            cfg.Host.CanvasWidth,
		Height:           cfg.Host.CanvasHeight,
		DevicePixelRatio: cfg.Host.DevicePixelRatio,
		RenderBlock:      time.Duration(cfg.Host.BlockMillis) * time.Millisecond,
		Session:          template,
		Logger:           log,
	})
	if err != nil {
		panic(err)
	}

	var httpServer *http.Server
	var remote *wshost.Server
	if cfg.Host.Listen != "" {
		wsTemplate := template
		wsTemplate.Recorder = nil
		remote = wshost.NewServer(wshost.Options{Session: wsTemplate, Logger: log})
		mux := http.NewServeMux()
		mux.Handle("/worker", remote)
		httpServer = &http.Server{Addr: cfg.Host.Listen, Handler: mux}
		go func() {
			log.Info("serving remote workers", "addr", cfg.Host.Listen)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("remote worker listener stopped", "err", err)
			}
		}()
	}

	done := make(chan struct{})
	closer.Bind(func() {
		close(done)
		if *snapshotPath != "" {
			if err := writeSnapshot(host, *snapshotPath); err != nil {
				log.Error("snapshot failed", "err", err)
			} else {
				log.Info("snapshot written", "path", *snapshotPath)
			}
		}
		if httpServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			_ = httpServer.Shutdown(ctx)
			cancel()
			_ = remote.Close()
		}
		if err := host.Close(); err != nil {
			log.Error("host close failed", "err", err)
		}
		if rec != nil {
			if err := rec.Close(); err != nil {
				log.Error("journal close failed", "err", err)
			}
		}
	})

	go run(host, cfg.Host, *frames, *sweep, done, log)
	closer.Hold()
}

// run ticks the page at 60 Hz until done or the frame count is reached.
func run(host *jshost.Host, cfg config.Host, frames int, sweep bool, done <-chan struct{}, log *slog.Logger) {
	ticker := time.NewTicker(16 * time.Millisecond)
	defer ticker.Stop()
	for n := 0; frames == 0 || n < frames; n++ {
		select {
		case <-done:
			return
		case <-ticker.C:
		}
		if sweep {
			if err := pointerSweep(host, cfg, n); err != nil {
				log.Warn("pointer sweep failed", "frame", n, "err", err)
			}
		}
		if err := host.Frame(); err != nil {
			log.Error("frame failed", "frame", n, "err", err)
			break
		}
	}
	log.Info("frame loop finished", "pick", host.PickText())
	closer.Close()
}

// pointerSweep moves the cursor along a lissajous path. Every two seconds it
// holds still for a frame and clicks where the previous move picked.
func pointerSweep(host *jshost.Host, cfg config.Host, n int) error {
	x, y := sweepAt(cfg, n)
	if n%120 != 60 {
		return host.MouseMove(x, y)
	}
	x, y = sweepAt(cfg, n-1)
	if err := host.MouseDown(x, y); err != nil {
		return err
	}
	if err := host.MouseUp(x, y); err != nil {
		return err
	}
	return host.Click(x, y)
}

func sweepAt(cfg config.Host, n int) (float32, float32) {
	t := float64(n) / 60
	x := float64(cfg.CanvasWidth) * (0.5 + 0.4*math.Sin(t*0.7))
	y := float64(cfg.CanvasHeight) * (0.5 + 0.3*math.Sin(t*1.3))
	return float32(x), float32(y)
}

func writeSnapshot(host *jshost.Host, path string) error {
	return host.Inspect(func(s *session.Session) error {
		opts := snapshot.DefaultOptions()
		info := s.Info()
		if info != nil {
			opts.Caption = []string{fmt.Sprintf("hover %d selection %d", len(info.Hover), len(info.Selection))}
		}
		img, err := snapshot.Capture(s.App().World(), opts)
		if err != nil {
			return fmt.Errorf("capture: %w", err)
		}
		return snapshot.WritePNG(path, img)
	})
}
