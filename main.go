package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/df07/go-pathtracer/pkg/config"
	"github.com/df07/go-pathtracer/pkg/imageio"
	"github.com/df07/go-pathtracer/pkg/renderer"
	"github.com/df07/go-pathtracer/pkg/scene"
)

// Options holds the parsed command line
type Options struct {
	Scene   string
	Width   int
	Samples int
	Depth   int
	Seed    int64
	Output  string
	Help    bool
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], cfg, os.Stdout, logger); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		logger.Error("render failed", "error", err)
		os.Exit(1)
	}
}

// parseOptions parses args on top of the environment configuration
func parseOptions(args []string, cfg *config.Config, output io.Writer) (Options, error) {
	var opts Options

	fs := flag.NewFlagSet("pathtracer", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.Scene, "scene", cfg.Scene, "Scene type: "+strings.Join(scene.Names(), ", "))
	fs.IntVar(&opts.Width, "width", cfg.Width, "Image width in pixels (height follows the scene aspect ratio)")
	fs.IntVar(&opts.Samples, "samples", cfg.Samples, "Samples per pixel")
	fs.IntVar(&opts.Depth, "depth", cfg.MaxDepth, "Maximum ray bounce depth")
	fs.Int64Var(&opts.Seed, "seed", cfg.Seed, "Random seed")
	fs.StringVar(&opts.Output, "out", "", "Output file (.png or .ppm, optionally .zst or .sz); default "+
		filepath.Join(cfg.OutputDir, "<scene>", "render_<timestamp>.png"))
	fs.BoolVar(&opts.Help, "help", false, "Show help information")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	if opts.Help {
		fmt.Fprintln(output, "Path Tracer")
		fmt.Fprintln(output, "Usage: pathtracer [options]")
		fmt.Fprintln(output)
		fmt.Fprintln(output, "Options:")
		fs.PrintDefaults()
		fmt.Fprintln(output)
		fmt.Fprintln(output, "Available scenes:")
		for _, info := range scene.ListScenes() {
			fmt.Fprintf(output, "  %-10s - %s\n", info.ID, info.Description)
		}
		return opts, flag.ErrHelp
	}

	if opts.Width <= 0 || opts.Samples <= 0 || opts.Depth <= 0 {
		return opts, fmt.Errorf("width, samples and depth must be positive (got %d, %d, %d)",
			opts.Width, opts.Samples, opts.Depth)
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return opts, nil
}

// defaultOutputPath returns <outputDir>/<scene>/render_<timestamp>.png
func defaultOutputPath(outputDir, sceneName string, now time.Time) string {
	return filepath.Join(outputDir, sceneName, fmt.Sprintf("render_%s.png", now.Format("20060102_150405")))
}

// progressLogger logs roughly every tenth of the image
func progressLogger(logger *slog.Logger) renderer.ProgressFunc {
	return func(row, total int) {
		step := max(1, total/10)
		if row%step == 0 || row == total {
			logger.Info("progress", "rows", row, "total", total, "percent", 100*row/total)
		}
	}
}

func run(ctx context.Context, args []string, cfg *config.Config, stdout io.Writer, logger *slog.Logger) error {
	opts, err := parseOptions(args, cfg, stdout)
	if err != nil {
		return err
	}

	selectedScene, err := scene.New(opts.Scene, scene.Options{
		Width:           opts.Width,
		SamplesPerPixel: opts.Samples,
		MaxDepth:        opts.Depth,
	})
	if err != nil {
		return err
	}

	output := opts.Output
	if output == "" {
		output = defaultOutputPath(cfg.OutputDir, selectedScene.Name, time.Now())
	}
	// Reject bad extensions before spending time rendering
	if _, err := imageio.ParseFormat(output); err != nil {
		return err
	}

	camera := selectedScene.Camera
	logger.Info("starting render",
		"scene", selectedScene.Name,
		"width", camera.Width(),
		"height", camera.Height(),
		"samples", camera.SamplesPerPixel(),
		"depth", camera.MaxDepth(),
		"seed", opts.Seed,
		"objects", selectedScene.GetPrimitiveCount())

	raytracer := selectedScene.NewRaytracer()
	raytracer.SetLogger(renderer.NewSlogLogger(logger))

	fb, stats, err := raytracer.Render(ctx, rand.New(rand.NewSource(opts.Seed)), progressLogger(logger))
	if err != nil {
		return err
	}

	if err := imageio.Save(output, fb); err != nil {
		return err
	}

	logger.Info("render saved",
		"path", output,
		"duration", stats.Duration,
		"samples", stats.TotalSamples,
		"luminance", fmt.Sprintf("%.4f", stats.AverageLuminance))
	fmt.Fprintln(stdout, output)
	return nil
}
