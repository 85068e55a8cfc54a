package renderer

import (
	"time"

	"github.com/df07/go-pathtracer/pkg/core"
)

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	TotalPixels      int           // Total number of pixels rendered
	TotalSamples     int           // Total number of samples taken
	AverageSamples   float64       // Average samples per pixel
	SamplesPerPixel  int           // Samples requested per pixel
	MaxDepth         int           // Maximum ray bounce depth
	Duration         time.Duration // Wall-clock render time
	AverageLuminance float64       // Mean Rec. 709 luminance of the linear image
}

// PixelStats accumulates the samples of a single pixel
type PixelStats struct {
	ColorAccum  core.Vec3 // RGB accumulator for final result
	SampleCount int       // Number of samples taken
}

// AddSample adds a new color sample to the pixel statistics
func (ps *PixelStats) AddSample(color core.Vec3) {
	ps.ColorAccum = ps.ColorAccum.Add(color)
	ps.SampleCount++
}

// GetColor returns the current average color for this pixel
func (ps *PixelStats) GetColor() core.Vec3 {
	if ps.SampleCount == 0 {
		return core.Vec3{X: 0, Y: 0, Z: 0}
	}
	return ps.ColorAccum.Multiply(1.0 / float64(ps.SampleCount))
}

// Framebuffer holds linear (not gamma corrected) colors in row-major order, top row first
type Framebuffer struct {
	Width, Height int
	Pixels        []core.Vec3
}

// NewFramebuffer allocates a black framebuffer
func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{
		Width:  width,
		Height: height,
		Pixels: make([]core.Vec3, width*height),
	}
}

// At returns the color of pixel (i, j)
func (fb *Framebuffer) At(i, j int) core.Vec3 {
	return fb.Pixels[j*fb.Width+i]
}

// Set stores the color of pixel (i, j)
func (fb *Framebuffer) Set(i, j int, color core.Vec3) {
	fb.Pixels[j*fb.Width+i] = color
}

// Luminance returns the Rec. 709 relative luminance of a linear color
func Luminance(color core.Vec3) float64 {
	return 0.2126*color.X + 0.7152*color.Y + 0.0722*color.Z
}

// AverageLuminance returns the mean luminance over all pixels
func (fb *Framebuffer) AverageLuminance() float64 {
	if len(fb.Pixels) == 0 {
		return 0
	}
	total := 0.0
	for _, pixel := range fb.Pixels {
		total += Luminance(pixel)
	}
	return total / float64(len(fb.Pixels))
}
