package geometry

import (
	"math"
	"math/rand"
	"testing"

	"github.com/df07/go-pathtracer/pkg/core"
)

var forwardRange = core.NewInterval(0.001, math.Inf(1))

func TestSphere_Hit_Miss(t *testing.T) {
	sphere := NewSphere(core.NewVec3(0, 0, 0), 1.0, nil)
	ray := core.NewRay(core.NewVec3(2, 0, 0), core.NewVec3(0, 1, 0))

	hit, isHit := sphere.Hit(ray, forwardRange)
	if isHit {
		t.Errorf("Expected miss, but got hit at t=%f", hit.T)
	}
	if hit != (core.HitRecord{}) {
		t.Errorf("Expected zero record on miss, got %+v", hit)
	}
}

func TestSphere_Hit_UnitScenario(t *testing.T) {
	sphere := NewSphere(core.NewVec3(0, 0, -1), 0.5, nil)
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))

	hit, isHit := sphere.Hit(ray, forwardRange)
	if !isHit {
		t.Fatal("Expected hit, but got miss")
	}
	if hit.T != 0.5 {
		t.Errorf("Expected t=0.5, got %f", hit.T)
	}
	if !hit.Point.Equals(core.NewVec3(0, 0, -0.5)) {
		t.Errorf("Expected position (0,0,-0.5), got %v", hit.Point)
	}
	if !hit.Normal.Equals(core.NewVec3(0, 0, 1)) {
		t.Errorf("Expected normal (0,0,1), got %v", hit.Normal)
	}
	if !hit.FrontFace {
		t.Error("Expected front face hit")
	}
}

func TestSphere_Hit_FrontAndBackFace(t *testing.T) {
	sphere := NewSphere(core.NewVec3(0, 0, 0), 1.0, nil)

	tests := []struct {
		name           string
		rayOrigin      core.Vec3
		rayDirection   core.Vec3
		expectedT      float64
		expectedFront  bool
		expectedNormal core.Vec3
	}{
		{
			name:           "front face hit",
			rayOrigin:      core.NewVec3(0, 0, 2),
			rayDirection:   core.NewVec3(0, 0, -1),
			expectedT:      1.0,
			expectedFront:  true,
			expectedNormal: core.NewVec3(0, 0, 1),
		},
		{
			name:           "back face hit",
			rayOrigin:      core.NewVec3(0, 0, 0),
			rayDirection:   core.NewVec3(0, 0, 1),
			expectedT:      1.0,
			expectedFront:  false,
			expectedNormal: core.NewVec3(0, 0, -1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ray := core.NewRay(tt.rayOrigin, tt.rayDirection)
			hit, isHit := sphere.Hit(ray, forwardRange)

			if !isHit {
				t.Fatal("Expected hit, but got miss")
			}

			if math.Abs(hit.T-tt.expectedT) > 1e-9 {
				t.Errorf("Expected t=%f, got t=%f", tt.expectedT, hit.T)
			}

			if hit.FrontFace != tt.expectedFront {
				t.Errorf("Expected front face %t, got %t", tt.expectedFront, hit.FrontFace)
			}

			if hit.Normal.Subtract(tt.expectedNormal).Length() > 1e-9 {
				t.Errorf("Expected normal %v, got %v", tt.expectedNormal, hit.Normal)
			}
		})
	}
}

func TestSphere_Hit_GlancingHit(t *testing.T) {
	sphere := NewSphere(core.NewVec3(0, 0, 0), 1.0, nil)
	ray := core.NewRay(core.NewVec3(1, 0, 2), core.NewVec3(0, 0, -1))

	hit, isHit := sphere.Hit(ray, forwardRange)
	if !isHit {
		t.Fatal("Expected glancing hit, but got miss")
	}

	expectedPoint := core.NewVec3(1, 0, 0)
	if hit.Point.Subtract(expectedPoint).Length() > 1e-9 {
		t.Errorf("Expected hit point %v, got %v", expectedPoint, hit.Point)
	}
}

func TestSphere_Hit_Bounds(t *testing.T) {
	sphere := NewSphere(core.NewVec3(0, 0, 0), 1.0, nil)
	ray := core.NewRay(core.NewVec3(0, 0, 2), core.NewVec3(0, 0, -1))

	// Test tMax bound
	hit, isHit := sphere.Hit(ray, core.NewInterval(0.001, 0.5))
	if isHit {
		t.Errorf("Expected miss due to tMax bound, but got hit at t=%f", hit.T)
	}

	// Test tMin bound
	hit, isHit = sphere.Hit(ray, core.NewInterval(3.5, 1000.0))
	if isHit {
		t.Errorf("Expected miss due to tMin bound, but got hit at t=%f", hit.T)
	}

	// Endpoints are excluded: a root exactly at tMax is not a hit
	hit, isHit = sphere.Hit(ray, core.NewInterval(0.001, 1.0))
	if isHit {
		t.Errorf("Expected root on the interval boundary to be rejected, got t=%f", hit.T)
	}

	// Near root excluded, far root accepted
	hit, isHit = sphere.Hit(ray, core.NewInterval(1.0, 1000.0))
	if !isHit || math.Abs(hit.T-3.0) > 1e-9 {
		t.Errorf("Expected far root at t=3, got hit=%t t=%f", isHit, hit.T)
	}
}

func TestSphere_Hit_Properties(t *testing.T) {
	random := rand.New(rand.NewSource(42))
	sphere := NewSphere(core.NewVec3(0.3, -0.2, -2), 0.7, nil)
	rayT := core.NewInterval(0.001, 100)

	hits := 0
	for i := 0; i < 2000; i++ {
		origin := core.RandomVec3Range(random, -3, 3)
		direction := core.RandomVec3Range(random, -1, 1)
		ray := core.NewRay(origin, direction)

		hit, isHit := sphere.Hit(ray, rayT)
		if !isHit {
			continue
		}
		hits++

		if !rayT.Surrounds(hit.T) {
			t.Fatalf("t=%f is not strictly inside %v", hit.T, rayT)
		}
		if ray.Direction.Dot(hit.Normal) > 0 {
			t.Fatalf("normal %v does not face against ray direction %v", hit.Normal, ray.Direction)
		}
		if math.Abs(hit.Normal.Length()-1) > 1e-9 {
			t.Fatalf("normal %v is not unit length", hit.Normal)
		}
	}

	if hits == 0 {
		t.Fatal("Expected at least some random rays to hit the sphere")
	}
}

func TestNewSphere_InvalidRadius(t *testing.T) {
	for _, radius := range []float64{0, -1, math.NaN()} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("NewSphere with radius %f should panic", radius)
				}
			}()
			NewSphere(core.NewVec3(0, 0, 0), radius, nil)
		}()
	}
}
