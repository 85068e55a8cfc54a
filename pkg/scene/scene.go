package scene

import (
	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/renderer"
)

// Scene contains all the elements needed for rendering
type Scene struct {
	Name   string
	Camera *renderer.Camera
	World  *geometry.HittableList // Objects in the scene
}

// Options override the image and sampling settings of a built-in scene.
// Zero fields keep the scene's own defaults.
type Options struct {
	Width           int // Image width in pixels
	SamplesPerPixel int // Number of rays per pixel
	MaxDepth        int // Maximum ray bounce depth
}

// cameraConfig applies the options on top of a scene's camera defaults
func (o Options) cameraConfig(defaults renderer.CameraConfig) renderer.CameraConfig {
	config := defaults
	if o.Width > 0 {
		config.Width = o.Width
	}
	if o.SamplesPerPixel > 0 {
		config.SamplesPerPixel = o.SamplesPerPixel
	}
	if o.MaxDepth > 0 {
		config.MaxDepth = o.MaxDepth
	}
	return config
}

// NewRaytracer creates a raytracer for the scene
func (s *Scene) NewRaytracer() *renderer.Raytracer {
	return renderer.NewRaytracer(s.Camera, s.World)
}

// GetPrimitiveCount returns the total number of primitive objects in the scene
func (s *Scene) GetPrimitiveCount() int {
	return s.World.Len()
}

// NewGroundSphere creates the large sphere used as a ground plane, with its
// top at groundY directly below center
func NewGroundSphere(center core.Vec3, groundY, radius float64, mat core.Material) *geometry.Sphere {
	return geometry.NewSphere(core.NewVec3(center.X, groundY-radius, center.Z), radius, mat)
}
