package imageio

import (
	"image"
	"image/color"
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/renderer"
)

var intensity = core.NewInterval(0.0, 1.0)

// LinearToGamma applies the gamma 2 tone curve. Non-positive inputs map to 0.
func LinearToGamma(linear float64) float64 {
	if linear > 0 {
		return math.Sqrt(linear)
	}
	return 0
}

// ToRGBA converts a linear color to display-ready 8-bit channels
func ToRGBA(c core.Vec3) color.RGBA {
	return color.RGBA{
		R: quantize(c.X),
		G: quantize(c.Y),
		B: quantize(c.Z),
		A: 255,
	}
}

func quantize(linear float64) uint8 {
	return uint8(255 * intensity.Clamp(LinearToGamma(linear)))
}

// ToImage converts a framebuffer to an RGBA image with row 0 at the top
func ToImage(fb *renderer.Framebuffer) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	for j := 0; j < fb.Height; j++ {
		for i := 0; i < fb.Width; i++ {
			img.SetRGBA(i, j, ToRGBA(fb.At(i, j)))
		}
	}
	return img
}
