package material

import (
	"math/rand"

	"github.com/df07/go-pathtracer/pkg/core"
)

// Lambertian represents a perfectly diffuse material
type Lambertian struct {
	Albedo core.Vec3 // Base color/reflectance
}

// NewLambertian creates a new lambertian material
func NewLambertian(albedo core.Vec3) *Lambertian {
	return &Lambertian{Albedo: albedo}
}

// Scatter implements the Material interface for lambertian scattering.
// Lambertian surfaces always scatter.
func (l *Lambertian) Scatter(rayIn core.Ray, hit core.HitRecord, random *rand.Rand) (core.ScatterResult, bool) {
	return core.ScatterResult{
		Scattered:   core.NewRay(hit.Point, scatterDirection(hit.Normal, core.RandomUnitVector(random))),
		Attenuation: l.Albedo,
	}, true
}

// scatterDirection offsets the normal by a random unit vector, which gives a
// cosine-weighted direction. When the two nearly cancel the normal is used.
func scatterDirection(normal, randomUnit core.Vec3) core.Vec3 {
	direction := normal.Add(randomUnit)
	if direction.NearZero() {
		return normal
	}
	return direction
}
