package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
)

// File is the on-disk configuration. Every section is optional; missing
// keys keep their defaults.
type File struct {
	Window  Window  `toml:"window"`
	Scene   Scene   `toml:"scene"`
	Pick    Pick    `toml:"pick"`
	Blast   Blast   `toml:"blast"`
	Host    Host    `toml:"host"`
	Journal Journal `toml:"journal"`
}

type Window struct {
	Title    string `toml:"title"`
	Width    int    `toml:"width"`
	Height   int    `toml:"height"`
	VSync    bool   `toml:"vsync"`
	FPSLimit int    `toml:"fps_limit"`
}

type Scene struct {
	// Seed fixes the shape layout; 0 is random.
	Seed uint64 `toml:"seed"`
}

type Pick struct {
	MaxDistance float32 `toml:"max_distance"`
}

type Hole struct {
	Position [3]float32 `toml:"position"`
	Radius   float32    `toml:"radius"`
	Height   float32    `toml:"height"`
	Timing   float32    `toml:"timing"`
}

type Joint struct {
	Positions [][3]float32 `toml:"positions"`
	Friction  float32      `toml:"friction"`
}

type Blast struct {
	Enabled       bool       `toml:"enabled"`
	BenchSize     [3]float32 `toml:"bench_size"`
	BenchPosition [3]float32 `toml:"bench_position"`
	Resolution    float32    `toml:"resolution"`
	Force         float32    `toml:"force"`
	Workers       int        `toml:"workers"`
	Holes         []Hole     `toml:"holes"`
	Joints        []Joint    `toml:"joints"`
}

type Host struct {
	// Mode is "main" or "worker".
	Mode             string  `toml:"mode"`
	CanvasID         string  `toml:"canvas_id"`
	CanvasWidth      int     `toml:"canvas_width"`
	CanvasHeight     int     `toml:"canvas_height"`
	DevicePixelRatio float64 `toml:"device_pixel_ratio"`
	BlockMillis      int     `toml:"block_ms"`
	Listen           string  `toml:"listen"`
}

type Journal struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// Default returns the built-in configuration.
func Default() File {
	return File{
		Window: Window{Title: "blastview", Width: 1280, Height: 720, FPSLimit: 60},
		Pick:   Pick{MaxDistance: 30},
		Blast: Blast{
			BenchSize:     [3]float32{20, 4, 10},
			BenchPosition: [3]float32{0, 0.1, 0},
			Resolution:    0.2,
			Force:         64,
			Holes: []Hole{
				{Position: [3]float32{6, 0, 5}, Radius: 1, Height: 3.6, Timing: 0},
				{Position: [3]float32{14, 0, 5}, Radius: 1, Height: 3.6, Timing: 2},
			},
		},
		Host: Host{
			Mode:             "main",
			CanvasID:         "bevy-canvas",
			CanvasWidth:      1280,
			CanvasHeight:     720,
			DevicePixelRatio: 1,
			BlockMillis:      0,
		},
		Journal: Journal{Dir: "journal"},
	}
}

// Load decodes path over the defaults. A missing file is not an error.
func Load(path string) (File, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(string(data), cfg)
}

// Parse decodes TOML text over base.
func Parse(text string, base File) (File, error) {
	md, err := toml.Decode(text, &base)
	if err != nil {
		return base, fmt.Errorf("config: decode: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return base, fmt.Errorf("config: unknown key %s", undecoded[0])
	}
	return base, base.Validate()
}

// Validate rejects values that cannot work.
func (f File) Validate() error {
	var errs []error
	if f.Window.Width <= 0 || f.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("config: window size %dx%d", f.Window.Width, f.Window.Height))
	}
	if f.Host.Mode != "main" && f.Host.Mode != "worker" {
		errs = append(errs, fmt.Errorf("config: host mode %q", f.Host.Mode))
	}
	if f.Blast.Resolution <= 0 {
		errs = append(errs, fmt.Errorf("config: blast resolution %v", f.Blast.Resolution))
	}
	for i, h := range f.Blast.Holes {
		if h.Radius <= 0 || h.Height <= 0 {
			errs = append(errs, fmt.Errorf("config: blast hole %d has empty volume", i))
		}
	}
	for i, j := range f.Blast.Joints {
		if j.Friction < 0 {
			errs = append(errs, fmt.Errorf("config: blast joint %d has negative friction", i))
		}
	}
	return errors.Join(errs...)
}

// Apply pushes the runtime-tweakable values into the global settings.
func (f File) Apply() {
	SetFPSLimit(f.Window.FPSLimit)
	SetRayMaxDistance(f.Pick.MaxDistance)
	SetBlastEnabled(f.Blast.Enabled)
	SetBlastForce(f.Blast.Force)
}
