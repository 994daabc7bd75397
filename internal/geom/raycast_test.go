package geom_test

import (
	"math"
	"testing"

	"blastview/internal/geom"

	"github.com/go-gl/mathgl/mgl32"
)

func unitBoxAt(x, y, z float32) geom.AABB {
	return geom.FromCenter(mgl32.Vec3{x, y, z}, mgl32.Vec3{0.5, 0.5, 0.5})
}

func TestRayCastHitsBoxAhead(t *testing.T) {
	rc := geom.NewRayCast(geom.NewRay(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}), 30)

	toi, ok := rc.AABBIntersectionAt(unitBoxAt(5, 0, 0))
	if !ok {
		t.Fatalf("Expected hit, got miss")
	}
	// Entry face is at X=4.5
	if toi < 4.49 || toi > 4.51 {
		t.Errorf("Expected toi 4.5, got %f", toi)
	}
}

func TestRayCastMisses(t *testing.T) {
	tests := []struct {
		name string
		rc   geom.RayCast
		box  geom.AABB
	}{
		{"behind origin", geom.NewRayCast(geom.NewRay(mgl32.Vec3{}, mgl32.Vec3{1, 0, 0}), 30), unitBoxAt(-5, 0, 0)},
		{"beyond max distance", geom.NewRayCast(geom.NewRay(mgl32.Vec3{}, mgl32.Vec3{1, 0, 0}), 30), unitBoxAt(40, 0, 0)},
		{"parallel outside slab", geom.NewRayCast(geom.NewRay(mgl32.Vec3{0, 3, 0}, mgl32.Vec3{1, 0, 0}), 30), unitBoxAt(5, 0, 0)},
		{"passes beside", geom.NewRayCast(geom.NewRay(mgl32.Vec3{}, mgl32.Vec3{1, 1, 0}), 30), unitBoxAt(5, 0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if toi, ok := tt.rc.AABBIntersectionAt(tt.box); ok {
				t.Errorf("Expected miss, got hit at %f", toi)
			}
		})
	}
}

func TestRayCastFromInsideIsZero(t *testing.T) {
	rc := geom.NewRayCast(geom.NewRay(mgl32.Vec3{5, 0, 0}, mgl32.Vec3{0, 0, 1}), 30)
	toi, ok := rc.AABBIntersectionAt(unitBoxAt(5, 0, 0))
	if !ok || toi != 0 {
		t.Fatalf("Expected hit at 0, got %v %f", ok, toi)
	}
}

func TestIntersectPlane(t *testing.T) {
	point := mgl32.Vec3{0, 0, 2}
	normal := mgl32.Vec3{0, 0, 1}

	r := geom.NewRay(mgl32.Vec3{1, 1, 10}, mgl32.Vec3{0, 0, -1})
	p, err := r.PlanePoint(point, normal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.ApproxEqual(mgl32.Vec3{1, 1, 2}) {
		t.Errorf("Expected {1,1,2}, got %v", p)
	}

	parallel := geom.NewRay(mgl32.Vec3{0, 0, 10}, mgl32.Vec3{1, 0, 0})
	if _, err := parallel.PlanePoint(point, normal); err != geom.ErrParallelRay {
		t.Errorf("Expected ErrParallelRay, got %v", err)
	}

	away := geom.NewRay(mgl32.Vec3{0, 0, 10}, mgl32.Vec3{0, 0, 1})
	if _, ok := away.IntersectPlane(point, normal); ok {
		t.Errorf("plane behind the ray must not intersect")
	}
}

func TestPenetration(t *testing.T) {
	a := unitBoxAt(0, 0, 0)
	b := unitBoxAt(0.9, 0.2, 0)
	depth, axis := a.Penetration(b)
	if axis != 0 {
		t.Fatalf("Expected X axis, got %d", axis)
	}
	if math.Abs(float64(depth-0.1)) > 1e-5 {
		t.Errorf("Expected depth 0.1, got %f", depth)
	}
	if _, axis := a.Penetration(unitBoxAt(3, 0, 0)); axis != -1 {
		t.Errorf("Expected no penetration, got axis %d", axis)
	}
}

func BenchmarkAABBIntersectionAt(b *testing.B) {
	rc := geom.NewRayCast(geom.NewRay(mgl32.Vec3{0, -12, 5}, mgl32.Vec3{0.1, 1, -0.3}), 30)
	boxes := make([]geom.AABB, 40)
	for i := range boxes {
		boxes[i] = unitBoxAt(float32(i%8)-4, 0, float32(i/8)*3-2)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, box := range boxes {
			_, _ = rc.AABBIntersectionAt(box)
		}
	}
}
