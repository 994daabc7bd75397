package blast

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"
)

// Block is one cube of a discretized bench.
type Block struct {
	Position mgl32.Vec3
	Size     mgl32.Vec3
	Mass     float32
	// Friction is the contact friction; rock joints lower it.
	Friction float32
}

// RockJoint is a discontinuity between lithologies. Blocks within one
// resolution step of any of its positions take its friction.
type RockJoint struct {
	Positions []mgl32.Vec3
	Friction  float32
}

// DefaultFriction is used for blocks away from any joint.
const DefaultFriction float32 = 0.6

// Bench describes the rock volume to slice.
type Bench struct {
	Dimensions mgl32.Vec3
	Resolution mgl32.Vec3
	Position   mgl32.Vec3
	Joints     []RockJoint
}

type benchGrid struct {
	bench   Bench
	nx      int
	ny      int
	nz      int
	half    mgl32.Vec3
	reachSq float32
}

func slices(dim, res float32) int {
	// a small bias keeps 20/0.2 at 100 despite float error
	return int(math.Floor(float64(dim/res) + 1e-4))
}

func newBenchGrid(b Bench) (benchGrid, error) {
	for i := range 3 {
		if b.Resolution[i] <= 0 || b.Dimensions[i] < 0 {
			return benchGrid{}, fmt.Errorf("blast: bench axis %d: dimension %v resolution %v", i, b.Dimensions[i], b.Resolution[i])
		}
	}
	step := max(b.Resolution.X(), b.Resolution.Y(), b.Resolution.Z())
	return benchGrid{
		bench:   b,
		nx:      slices(b.Dimensions.X(), b.Resolution.X()),
		ny:      slices(b.Dimensions.Y(), b.Resolution.Y()),
		nz:      slices(b.Dimensions.Z(), b.Resolution.Z()),
		half:    b.Resolution.Mul(0.5),
		reachSq: step * step,
	}, nil
}

func (g benchGrid) count() int { return g.nx * g.ny * g.nz }

// column builds every block with X index x, y-major then z.
func (g benchGrid) column(x int, seed uint64) []Block {
	rng := rand.New(rand.NewPCG(seed, uint64(x)))
	b := g.bench
	out := make([]Block, 0, g.ny*g.nz)
	for y := range g.ny {
		for z := range g.nz {
			p := mgl32.Vec3{
				b.Position.X() + float32(x)*b.Resolution.X(),
				b.Position.Y() + float32(y)*b.Resolution.Y(),
				b.Position.Z() + float32(z)*b.Resolution.Z(),
			}
			out = append(out, Block{
				Position: p,
				Size:     b.Resolution,
				Mass:     rng.Float32() * 10,
				Friction: g.friction(p),
			})
		}
	}
	return out
}

func (g benchGrid) friction(p mgl32.Vec3) float32 {
	for _, j := range g.bench.Joints {
		for _, jp := range j.Positions {
			d := p.Sub(jp)
			if d.Dot(d) <= g.reachSq {
				return j.Friction
			}
		}
	}
	return DefaultFriction
}

// DiscretizeBench slices the bench into cubes of its resolution. Columns
// along X are built concurrently by workers goroutines; the result is
// ordered x, then y, then z regardless of scheduling.
func DiscretizeBench(ctx context.Context, b Bench, rng *rand.Rand, workers int) ([]Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	grid, err := newBenchGrid(b)
	if err != nil {
		return nil, err
	}
	if grid.count() == 0 {
		return nil, nil
	}

	// seeds are drawn up front so the masses only depend on rng
	seeds := make([]uint64, grid.nx)
	for i := range seeds {
		seeds[i] = rng.Uint64()
	}

	pool := newWorkerPool(ctx, workers, grid.nx, grid)
	defer pool.Shutdown()

	results := make(chan sliceResult, grid.nx)
	for x := range grid.nx {
		if !pool.SubmitJobBlocking(sliceJob{Column: x, Seed: seeds[x], ResultChan: results}) {
			return nil, ctx.Err()
		}
	}

	columns := make([][]Block, grid.nx)
	for range grid.nx {
		select {
		case r := <-results:
			columns[r.Column] = r.Blocks
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	out := make([]Block, 0, grid.count())
	for _, c := range columns {
		out = append(out, c...)
	}
	return out, nil
}
