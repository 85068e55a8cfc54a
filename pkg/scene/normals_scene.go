package scene

import (
	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/renderer"
)

// NewNormalsScene creates material-less spheres, which render as surface normals
func NewNormalsScene(opts Options) *Scene {
	cameraConfig := opts.cameraConfig(renderer.CameraConfig{
		Width:           400,
		AspectRatio:     16.0 / 9.0,
		SamplesPerPixel: 10,
		MaxDepth:        2,
	})

	world := geometry.NewHittableList(
		geometry.NewSphere(core.NewVec3(0, -100.5, -1), 100, nil),
		geometry.NewSphere(core.NewVec3(0, 0, -1), 0.5, nil),
		geometry.NewSphere(core.NewVec3(-1.1, -0.25, -1.5), 0.25, nil),
		geometry.NewSphere(core.NewVec3(1.1, -0.25, -1.5), 0.25, nil),
	)

	return &Scene{
		Name:   "normals",
		Camera: renderer.NewCamera(cameraConfig),
		World:  world,
	}
}
