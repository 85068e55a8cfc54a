package renderer

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/df07/go-pathtracer/pkg/core"
)

// selfIntersectionEpsilon is the lower bound of the ray interval used when
// shading, so a scattered ray does not re-hit the surface it left
const selfIntersectionEpsilon = 0.001

var (
	backgroundBottom = core.NewVec3(1.0, 1.0, 1.0)
	backgroundTop    = core.NewVec3(0.5, 0.7, 1.0)
)

// CameraConfig contains the parameters used to derive a camera.
// Zero values are replaced by defaults, except Width and AspectRatio.
type CameraConfig struct {
	Width           int       // Image width in pixels
	AspectRatio     float64   // Width / height
	FocalLength     float64   // Distance from center to viewport (default 1)
	ViewportHeight  float64   // Viewport height in world units (default 2)
	Center          core.Vec3 // Camera position
	SamplesPerPixel int       // Rays averaged per pixel (default 100)
	MaxDepth        int       // Maximum ray bounce depth (default 50)
}

// DefaultCameraConfig returns a 16:9 camera at the origin looking down -Z
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		Width:           400,
		AspectRatio:     16.0 / 9.0,
		FocalLength:     1.0,
		ViewportHeight:  2.0,
		SamplesPerPixel: 100,
		MaxDepth:        50,
	}
}

// Camera derives the viewport from the image dimensions and generates rays
type Camera struct {
	width, height   int
	center          core.Vec3
	firstPixel      core.Vec3 // Center of pixel (0, 0)
	pixelDX         core.Vec3 // Offset to the pixel on the right
	pixelDY         core.Vec3 // Offset to the pixel below
	samplesPerPixel int
	maxDepth        int
}

// NewCamera creates a camera from config. Image height is derived from the
// width and aspect ratio and the viewport width from the resulting pixel grid.
// It panics if Width or AspectRatio is not positive.
func NewCamera(config CameraConfig) *Camera {
	if config.Width <= 0 {
		panic(fmt.Sprintf("renderer: camera width must be positive, got %d", config.Width))
	}
	if !(config.AspectRatio > 0) {
		panic(fmt.Sprintf("renderer: camera aspect ratio must be positive, got %v", config.AspectRatio))
	}
	config = applyCameraDefaults(config)

	height := max(1, int(float64(config.Width)/config.AspectRatio))
	viewportWidth := config.ViewportHeight * (float64(config.Width) / float64(height))

	camera := NewCameraWithViewport(config.FocalLength, config.Center,
		config.Width, height, viewportWidth, config.ViewportHeight)
	camera.samplesPerPixel = config.SamplesPerPixel
	camera.maxDepth = config.MaxDepth
	return camera
}

// NewCameraWithViewport creates a camera with explicit viewport dimensions.
// It panics if either image dimension is not positive.
func NewCameraWithViewport(focalLength float64, center core.Vec3, width, height int, viewportWidth, viewportHeight float64) *Camera {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("renderer: image dimensions must be positive, got %dx%d", width, height))
	}

	// Viewport edges: X runs right, Y runs down the image
	viewportX := core.NewVec3(viewportWidth, 0, 0)
	viewportY := core.NewVec3(0, -viewportHeight, 0)

	pixelDX := viewportX.Divide(float64(width))
	pixelDY := viewportY.Divide(float64(height))

	upperLeft := center.
		Subtract(core.NewVec3(0, 0, focalLength)).
		Subtract(viewportX.Divide(2)).
		Subtract(viewportY.Divide(2))
	firstPixel := upperLeft.Add(pixelDX.Add(pixelDY).Multiply(0.5))

	defaults := DefaultCameraConfig()
	return &Camera{
		width:           width,
		height:          height,
		center:          center,
		firstPixel:      firstPixel,
		pixelDX:         pixelDX,
		pixelDY:         pixelDY,
		samplesPerPixel: defaults.SamplesPerPixel,
		maxDepth:        defaults.MaxDepth,
	}
}

func applyCameraDefaults(config CameraConfig) CameraConfig {
	defaults := DefaultCameraConfig()
	if config.FocalLength == 0 {
		config.FocalLength = defaults.FocalLength
	}
	if config.ViewportHeight == 0 {
		config.ViewportHeight = defaults.ViewportHeight
	}
	if config.SamplesPerPixel <= 0 {
		config.SamplesPerPixel = defaults.SamplesPerPixel
	}
	if config.MaxDepth <= 0 {
		config.MaxDepth = defaults.MaxDepth
	}
	return config
}

// Width returns the image width in pixels
func (c *Camera) Width() int { return c.width }

// Height returns the image height in pixels
func (c *Camera) Height() int { return c.height }

// Center returns the camera position
func (c *Camera) Center() core.Vec3 { return c.center }

// FirstPixel returns the world position of the center of pixel (0, 0)
func (c *Camera) FirstPixel() core.Vec3 { return c.firstPixel }

// PixelDeltas returns the world offsets between horizontally and vertically adjacent pixels
func (c *Camera) PixelDeltas() (dx, dy core.Vec3) { return c.pixelDX, c.pixelDY }

// SamplesPerPixel returns the number of samples averaged per pixel
func (c *Camera) SamplesPerPixel() int { return c.samplesPerPixel }

// MaxDepth returns the maximum ray bounce depth
func (c *Camera) MaxDepth() int { return c.maxDepth }

// SetSampling overrides samples per pixel and max depth; non-positive values are ignored
func (c *Camera) SetSampling(samplesPerPixel, maxDepth int) {
	if samplesPerPixel > 0 {
		c.samplesPerPixel = samplesPerPixel
	}
	if maxDepth > 0 {
		c.maxDepth = maxDepth
	}
}

// pixelCenter returns the world position of the center of pixel (i, j)
func (c *Camera) pixelCenter(i, j int) core.Vec3 {
	return c.firstPixel.
		Add(c.pixelDX.Multiply(float64(i))).
		Add(c.pixelDY.Multiply(float64(j)))
}

// GetCenterRay returns the ray through the exact center of pixel (i, j)
func (c *Camera) GetCenterRay(i, j int) core.Ray {
	return core.NewRay(c.center, c.pixelCenter(i, j).Subtract(c.center))
}

// GetRay returns a ray through a random point in the square around pixel (i, j)
func (c *Camera) GetRay(i, j int, random *rand.Rand) core.Ray {
	// Jitter in [-0.5, 0.5) along each pixel axis for antialiasing
	offsetX := random.Float64() - 0.5
	offsetY := random.Float64() - 0.5

	sample := c.pixelCenter(i, j).
		Add(c.pixelDX.Multiply(offsetX)).
		Add(c.pixelDY.Multiply(offsetY))

	return core.NewRay(c.center, sample.Subtract(c.center))
}

// RayColor returns the radiance carried back along ray, following at most depth bounces
func (c *Camera) RayColor(ray core.Ray, world core.Hittable, depth int, random *rand.Rand) core.Vec3 {
	// If we've exceeded the ray bounce limit, no more light is gathered
	if depth <= 0 {
		return core.Vec3{}
	}

	hit, isHit := world.Hit(ray, core.NewInterval(selfIntersectionEpsilon, math.Inf(1)))
	if !isHit {
		return BackgroundColor(ray)
	}

	// Shapes without a material are shaded by their normal
	if hit.Material == nil {
		return hit.Normal.Add(core.NewVec3(1, 1, 1)).Multiply(0.5)
	}

	scatter, didScatter := hit.Material.Scatter(ray, hit, random)
	if !didScatter {
		return core.Vec3{} // Material absorbed the ray
	}

	return scatter.Attenuation.MultiplyVec(c.RayColor(scatter.Scattered, world, depth-1, random))
}

// BackgroundColor returns the sky gradient for a ray that hits nothing
func BackgroundColor(ray core.Ray) core.Vec3 {
	unitDirection := ray.Direction.Normalize()

	// Map y from [-1,1] to [0,1]
	a := 0.5 * (unitDirection.Y + 1.0)

	// Linear interpolation: (1-a)*bottom + a*top
	return backgroundBottom.Multiply(1.0 - a).Add(backgroundTop.Multiply(a))
}
