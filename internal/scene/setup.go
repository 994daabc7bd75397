package scene

import (
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"

	"blastview/internal/ecs"
	"blastview/internal/geom"
)

const (
	gridColumns = 8
	gridRows    = 5
	xExtent     = 13.0
)

// The display meshes and their bounding boxes share an index.
var (
	meshTable = [gridColumns]MeshKind{
		MeshCuboid, MeshCapsule, MeshTorus, MeshCylinder,
		MeshCapsule, MeshCylinder, MeshCuboid, MeshSphere,
	}
	shapeTable = [gridColumns]mgl32.Vec3{
		{1.1, 1.1, 1.1},
		{1, 2, 1},
		{1.75, 0.52, 1.75},
		{1, 1, 1},
		{1, 2, 1},
		{1, 1, 1},
		{1.1, 1.1, 1.1},
		{1, 1, 1},
	}
)

// CameraStart is where the scene camera is placed; it looks at the origin.
var CameraStart = mgl32.Vec3{0, -12, 5}

// GridPosition is the spawn position of the pickable at column i, row row.
func GridPosition(i, row int) mgl32.Vec3 {
	return mgl32.Vec3{
		-xExtent/2 + float32(i)/float32(gridColumns-1)*xExtent,
		float32(3-row)*3 - 2,
		2,
	}
}

// spawnScene builds the pickable grid, the light, the ground and the camera.
func spawnScene(w *ecs.World, rng *rand.Rand) {
	tilt := mgl32.QuatRotate(-math.Pi/4, mgl32.Vec3{1, 0, 0})
	for i := 0; i < gridColumns; i++ {
		for row := 0; row < gridRows; row++ {
			idx := rng.IntN(len(shapeTable))
			p := GridPosition(i, row)

			e := w.Spawn()
			ecs.Insert(w, e, FromXYZ(p.X(), p.Y(), p.Z()).WithRotation(tilt))
			ecs.Insert(w, e, Shape{geom.BoxShape(geom.CuboidFromSize(shapeTable[idx]))})
			ecs.Insert(w, e, Mesh{Kind: meshTable[idx], Color: DebugGreen})
		}
	}

	light := w.Spawn()
	ecs.Insert(w, light, FromXYZ(8, 4, 16))
	ecs.Insert(w, light, PointLight{
		Intensity:       20_000_000,
		Range:           100,
		ShadowsEnabled:  true,
		ShadowDepthBias: 0.2,
	})

	ground := w.Spawn()
	ecs.Insert(w, ground, Identity().WithRotation(mgl32.QuatRotate(math.Pi/2, mgl32.Vec3{1, 0, 0})))
	ecs.Insert(w, ground, Mesh{Kind: MeshPlane, Size: mgl32.Vec2{50, 50}, Color: Silver})
	ecs.Insert(w, ground, Ground{})

	cam := w.Spawn()
	ecs.Insert(w, cam, FromXYZ(CameraStart.Elem()).LookingAt(mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}))
	ecs.Insert(w, cam, NewCamera())
}
