package scene

import (
	"math"
	"math/rand"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/material"
	"github.com/df07/go-pathtracer/pkg/renderer"
)

const (
	sphereGridSeed    = 1337
	sphereGridRows    = 6
	sphereGridColumns = 9
)

// oklchToRGB converts OKLCH color values to RGB
// L: lightness (0-1), C: chroma (0-0.4+), H: hue (0-360 degrees)
func oklchToRGB(l, c, h float64) core.Vec3 {
	// Convert hue from degrees to radians
	hRad := h * math.Pi / 180.0

	// Convert from OKLCH to OKLAB
	a := c * math.Cos(hRad)
	b := c * math.Sin(hRad)

	// First convert to LMS
	l_ := l + 0.3963377774*a + 0.2158037573*b
	m_ := l - 0.1055613458*a - 0.0638541728*b
	s_ := l - 0.0894841775*a - 1.2914855480*b

	// Cube the values
	l_ = l_ * l_ * l_
	m_ = m_ * m_ * m_
	s_ = s_ * s_ * s_

	// Convert LMS to linear RGB
	r := +4.0767416621*l_ - 3.3077115913*m_ + 0.2309699292*s_
	g := -1.2684380046*l_ + 2.6097574011*m_ - 0.3413193965*s_
	blue := -0.0041960863*l_ - 0.7034186147*m_ + 1.7076147010*s_

	unit := core.NewInterval(0, 1)
	return core.NewVec3(unit.Clamp(r), unit.Clamp(g), unit.Clamp(blue))
}

// rowMaterial picks the material shared by every sphere in a grid row
func rowMaterial(row int, random *rand.Rand) core.Material {
	// Vary hue along the rows
	hue := float64(row) / float64(sphereGridRows) * 360.0
	color := oklchToRGB(0.7, 0.15, hue)

	choice := random.Float64()
	switch {
	case choice < 0.5:
		return material.NewLambertian(color)
	case choice < 0.75:
		return material.NewMetal(color, 0.3*random.Float64())
	case choice < 0.9:
		return material.NewDielectric(1.5)
	default:
		// Glossy: half diffuse, half polished metal
		return material.NewMix(material.NewLambertian(color), material.NewMetal(color, 0), 0.5)
	}
}

// NewSphereGridScene creates a grid of small spheres receding from the camera.
// Materials are chosen by a fixed seed so the scene is the same on every run.
func NewSphereGridScene(opts Options) *Scene {
	cameraConfig := opts.cameraConfig(renderer.CameraConfig{
		Width:           400,
		AspectRatio:     16.0 / 9.0,
		Center:          core.NewVec3(0, 0.6, 1.5),
		SamplesPerPixel: 50,
		MaxDepth:        40,
	})

	random := rand.New(rand.NewSource(sphereGridSeed))
	world := geometry.NewHittableList()

	// Create ground (gray lambertian)
	world.Add(NewGroundSphere(core.Vec3{}, 0, 1000, material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5))))

	spacing := 0.6
	radius := 0.2
	for row := 0; row < sphereGridRows; row++ {
		mat := rowMaterial(row, random)
		z := -1.0 - float64(row)*spacing

		for column := 0; column < sphereGridColumns; column++ {
			// Center the row on x=0 with a little jitter so rows do not line up exactly
			x := (float64(column)-float64(sphereGridColumns-1)/2.0)*spacing + 0.1*(random.Float64()-0.5)
			world.Add(geometry.NewSphere(core.NewVec3(x, radius, z), radius, mat))
		}
	}

	return &Scene{
		Name:   "spheregrid",
		Camera: renderer.NewCamera(cameraConfig),
		World:  world,
	}
}
