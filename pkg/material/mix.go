package material

import (
	"math/rand"

	"github.com/df07/go-pathtracer/pkg/core"
)

// Mix represents a material that probabilistically chooses between two materials
type Mix struct {
	Material1 core.Material
	Material2 core.Material
	Ratio     float64 // 0.0 = all material1, 1.0 = all material2
}

// NewMix creates a new mix material
func NewMix(material1, material2 core.Material, ratio float64) *Mix {
	return &Mix{
		Material1: material1,
		Material2: material2,
		Ratio:     core.NewInterval(0, 1).Clamp(ratio),
	}
}

// Scatter picks one of the two materials per interaction and delegates to it
func (m *Mix) Scatter(rayIn core.Ray, hit core.HitRecord, random *rand.Rand) (core.ScatterResult, bool) {
	if random.Float64() < m.Ratio {
		return m.Material2.Scatter(rayIn, hit, random)
	}
	return m.Material1.Scatter(rayIn, hit, random)
}
