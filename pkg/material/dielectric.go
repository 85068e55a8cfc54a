package material

import (
	"math"
	"math/rand"

	"github.com/df07/go-pathtracer/pkg/core"
)

// Dielectric represents a transparent material like glass that can both reflect and refract
type Dielectric struct {
	RefractiveIndex float64 // Index of refraction (e.g., 1.5 for glass)
}

// NewDielectric creates a new dielectric material
func NewDielectric(refractiveIndex float64) *Dielectric {
	return &Dielectric{RefractiveIndex: refractiveIndex}
}

// Scatter implements the Material interface for dielectric scattering.
// Dielectrics always scatter; the random draw is only consumed when refraction is possible.
func (d *Dielectric) Scatter(rayIn core.Ray, hit core.HitRecord, random *rand.Rand) (core.ScatterResult, bool) {
	return d.scatter(rayIn, hit, random.Float64), true
}

// ScatterWithDraw scatters using u in [0,1) as the reflect-or-refract draw
func (d *Dielectric) ScatterWithDraw(rayIn core.Ray, hit core.HitRecord, u float64) core.ScatterResult {
	return d.scatter(rayIn, hit, func() float64 { return u })
}

func (d *Dielectric) scatter(rayIn core.Ray, hit core.HitRecord, draw func() float64) core.ScatterResult {
	// Dielectrics always attenuate by 1.0 (no color absorption for clear glass)
	attenuation := core.NewVec3(1.0, 1.0, 1.0)

	refractionRatio := d.refractionRatio(hit.FrontFace)

	// Normalize the incoming ray direction
	unitDirection := rayIn.Direction.Normalize()

	cosTheta := math.Min(unitDirection.Negate().Dot(hit.Normal), 1.0)
	sinTheta := math.Sqrt(1.0 - cosTheta*cosTheta)

	var direction core.Vec3
	if CannotRefract(refractionRatio, sinTheta) || Reflectance(cosTheta, refractionRatio) > draw() {
		direction = core.Reflect(unitDirection, hit.Normal)
	} else {
		direction = core.Refract(unitDirection, hit.Normal, refractionRatio)
	}

	return core.ScatterResult{
		Scattered:   core.NewRay(hit.Point, direction),
		Attenuation: attenuation,
	}
}

// refractionRatio is eta_incident / eta_transmitted
func (d *Dielectric) refractionRatio(frontFace bool) float64 {
	if frontFace {
		return 1.0 / d.RefractiveIndex // Ray is entering the material (from air to glass)
	}
	return d.RefractiveIndex // Ray is exiting the material (from glass to air)
}

// CannotRefract reports total internal reflection
func CannotRefract(refractionRatio, sinTheta float64) bool {
	return refractionRatio*sinTheta > 1.0
}

// Reflectance calculates the Fresnel reflectance using Schlick's approximation.
// r0 is symmetric in the ratio and its inverse, so the index or the ratio both work.
func Reflectance(cosine, refractionRatio float64) float64 {
	r0 := (1 - refractionRatio) / (1 + refractionRatio)
	r0 = r0 * r0
	return r0 + (1-r0)*math.Pow(1-cosine, 5)
}
