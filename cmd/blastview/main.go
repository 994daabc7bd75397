package main

import (
	"flag"
	"log/slog"
	"os"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"

	"blastview/internal/app"
	"blastview/internal/blast"
	"blastview/internal/config"
	"blastview/internal/game"
	"blastview/internal/session"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "blastview.toml", "path to the TOML configuration")
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
	cfg.Apply()

	if err := glfw.Init(); err != nil {
		panic(err)
	}
	defer glfw.Terminate()

	window, err := game.SetupWindow(cfg.Window)
	if err != nil {
		panic(err)
	}

	opts := session.Options{
		Logger:      log,
		Seed:        cfg.Scene.Seed,
		MaxDistance: config.GetRayMaxDistance(),
	}
	if config.GetBlastEnabled() {
		opts.Plugins = []app.Plugin{blast.FromConfig(cfg.Blast)}
	}

	a, err := game.NewApp(window, cfg, opts)
	if err != nil {
		panic(err)
	}
	a.Run()
}
