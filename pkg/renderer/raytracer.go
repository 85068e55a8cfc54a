package renderer

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/df07/go-pathtracer/pkg/core"
)

// ProgressFunc is called after each completed row
type ProgressFunc func(row, totalRows int)

// Raytracer produces the pixel stream for a camera and a scene.
// It borrows both; the scene must not change while rendering.
type Raytracer struct {
	camera *Camera
	world  core.Hittable
	logger core.Logger
}

// NewRaytracer creates a new raytracer
func NewRaytracer(camera *Camera, world core.Hittable) *Raytracer {
	return &Raytracer{
		camera: camera,
		world:  world,
		logger: nopLogger{},
	}
}

// SetLogger sets the logger used for render progress
func (rt *Raytracer) SetLogger(logger core.Logger) {
	if logger == nil {
		logger = nopLogger{}
	}
	rt.logger = logger
}

// Camera returns the camera being rendered
func (rt *Raytracer) Camera() *Camera {
	return rt.camera
}

// PixelColor returns the linear color of pixel (i, j) averaged over the
// camera's samples per pixel. It panics for coordinates outside the image.
func (rt *Raytracer) PixelColor(i, j int, random *rand.Rand) core.Vec3 {
	if i < 0 || i >= rt.camera.width || j < 0 || j >= rt.camera.height {
		panic(fmt.Sprintf("renderer: pixel (%d, %d) outside %dx%d image", i, j, rt.camera.width, rt.camera.height))
	}

	var ps PixelStats
	for sample := 0; sample < rt.camera.samplesPerPixel; sample++ {
		ray := rt.camera.GetRay(i, j, random)
		ps.AddSample(rt.camera.RayColor(ray, rt.world, rt.camera.maxDepth, random))
	}
	return ps.GetColor()
}

// Render renders every pixel, rows top to bottom and left to right within a row.
// ctx is checked between rows; progress may be nil.
func (rt *Raytracer) Render(ctx context.Context, random *rand.Rand, progress ProgressFunc) (*Framebuffer, RenderStats, error) {
	width, height := rt.camera.width, rt.camera.height
	fb := NewFramebuffer(width, height)
	stats := RenderStats{
		TotalPixels:     width * height,
		SamplesPerPixel: rt.camera.samplesPerPixel,
		MaxDepth:        rt.camera.maxDepth,
	}

	rt.logger.Printf("Rendering %dx%d at %d samples per pixel, max depth %d\n",
		width, height, stats.SamplesPerPixel, stats.MaxDepth)
	startTime := time.Now()

	for j := 0; j < height; j++ {
		if err := ctx.Err(); err != nil {
			return nil, stats, fmt.Errorf("render cancelled at row %d: %w", j, err)
		}

		for i := 0; i < width; i++ {
			fb.Set(i, j, rt.PixelColor(i, j, random))
			stats.TotalSamples += stats.SamplesPerPixel
		}

		if progress != nil {
			progress(j+1, height)
		}
	}

	stats.AverageSamples = float64(stats.TotalSamples) / float64(stats.TotalPixels)
	stats.AverageLuminance = fb.AverageLuminance()
	stats.Duration = time.Since(startTime)
	rt.logger.Printf("Render completed in %v\n", stats.Duration)

	return fb, stats, nil
}
