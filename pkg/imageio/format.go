package imageio

import (
	"bufio"
	"fmt"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/df07/go-pathtracer/pkg/renderer"
)

// ImageFormat is the raster container written to disk
type ImageFormat string

const (
	FormatPNG ImageFormat = "png"
	FormatPPM ImageFormat = "ppm"
)

// Compression wraps an encoded image in a streaming compressor
type Compression string

const (
	CompressionNone   Compression = ""
	CompressionZstd   Compression = "zstd"
	CompressionSnappy Compression = "snappy"
)

// Format describes how a framebuffer is written
type Format struct {
	Image       ImageFormat
	Compression Compression
}

func (f Format) String() string {
	if f.Compression == CompressionNone {
		return string(f.Image)
	}
	return string(f.Image) + "+" + string(f.Compression)
}

// ParseFormat derives the format from a file name such as render.png,
// render.ppm.zst or render.png.sz
func ParseFormat(path string) (Format, error) {
	var format Format
	name := strings.ToLower(filepath.Base(path))

	switch {
	case strings.HasSuffix(name, ".zst"):
		format.Compression = CompressionZstd
		name = strings.TrimSuffix(name, ".zst")
	case strings.HasSuffix(name, ".sz"):
		format.Compression = CompressionSnappy
		name = strings.TrimSuffix(name, ".sz")
	}

	switch filepath.Ext(name) {
	case ".png":
		format.Image = FormatPNG
	case ".ppm":
		format.Image = FormatPPM
	default:
		return Format{}, fmt.Errorf("unsupported image format %q (expected .png or .ppm, optionally with .zst or .sz)", filepath.Base(path))
	}
	return format, nil
}

// EncodePPM writes the framebuffer as plain-text P3 PPM
func EncodePPM(w io.Writer, fb *renderer.Framebuffer) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "P3\n%d %d\n255\n", fb.Width, fb.Height); err != nil {
		return fmt.Errorf("write ppm header: %w", err)
	}
	for j := 0; j < fb.Height; j++ {
		for i := 0; i < fb.Width; i++ {
			c := ToRGBA(fb.At(i, j))
			if _, err := fmt.Fprintf(bw, "%d %d %d\n", c.R, c.G, c.B); err != nil {
				return fmt.Errorf("write ppm pixel (%d, %d): %w", i, j, err)
			}
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush ppm: %w", err)
	}
	return nil
}

// EncodePNG writes the framebuffer as PNG
func EncodePNG(w io.Writer, fb *renderer.Framebuffer) error {
	if err := png.Encode(w, ToImage(fb)); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// Encode writes the framebuffer in the given format, compressing if requested
func Encode(w io.Writer, fb *renderer.Framebuffer, format Format) error {
	cw, err := newCompressor(w, format.Compression)
	if err != nil {
		return err
	}

	switch format.Image {
	case FormatPNG:
		err = EncodePNG(cw, fb)
	case FormatPPM:
		err = EncodePPM(cw, fb)
	default:
		err = fmt.Errorf("unsupported image format %q", format.Image)
	}

	// Close the compressor even on failure so its resources are released
	if closeErr := cw.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("close %s stream: %w", format.Compression, closeErr)
	}
	return err
}
