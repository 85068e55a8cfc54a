package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/df07/go-pathtracer/pkg/imageio"
	"github.com/df07/go-pathtracer/pkg/renderer"
	"github.com/df07/go-pathtracer/pkg/scene"
)

// Server handles web requests for the path tracer
type Server struct {
	port    int
	origins []string
	logger  *slog.Logger
	router  *mux.Router
}

// NewServer creates a new web server. origins are the websocket origin
// patterns accepted in addition to same-host requests.
func NewServer(port int, origins []string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{port: port, origins: origins, logger: logger}
	s.router = s.routes()
	return s
}

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene    string              `json:"scene"`    // Scene name (e.g., "spheregrid")
	Width    int                 `json:"width"`    // Image width
	Samples  int                 `json:"samples"`  // Samples per pixel
	MaxDepth int                 `json:"maxDepth"` // Maximum ray bounce depth
	Seed     int64               `json:"seed"`     // Random seed
	Format   imageio.ImageFormat `json:"format"`   // Output container for /api/render
}

// Stats represents render statistics
type Stats struct {
	Width            int     `json:"width"`
	Height           int     `json:"height"`
	TotalPixels      int     `json:"totalPixels"`
	TotalSamples     int64   `json:"totalSamples"`
	AverageSamples   float64 `json:"averageSamples"`
	MaxDepth         int     `json:"maxDepth"`
	AverageLuminance float64 `json:"averageLuminance"`
	ElapsedMs        int64   `json:"elapsedMs"`
}

func newStats(camera *renderer.Camera, stats renderer.RenderStats) Stats {
	return Stats{
		Width:            camera.Width(),
		Height:           camera.Height(),
		TotalPixels:      stats.TotalPixels,
		TotalSamples:     int64(stats.TotalSamples),
		AverageSamples:   stats.AverageSamples,
		MaxDepth:         stats.MaxDepth,
		AverageLuminance: stats.AverageLuminance,
		ElapsedMs:        stats.Duration.Milliseconds(),
	}
}

// Handler returns the HTTP handler with all routes and middleware
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.recovery)
	r.Use(s.requestLogger)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/scenes", s.handleScenes).Methods("GET")
	api.HandleFunc("/render", s.handleRender).Methods("GET")
	api.HandleFunc("/inspect", s.handleInspect).Methods("GET")

	r.HandleFunc("/ws/render", s.handleRenderStream)
	return r
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute, // Synchronous renders can be slow
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(_ net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		s.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("server shutdown", "error", err)
		}
	}()

	s.logger.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return nil
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists the built-in scenes
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"scenes": scene.ListScenes()})
}

// handleRender renders synchronously and returns the encoded image
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	req, err := parseRenderRequest(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	sceneObj, err := createScene(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	raytracer := sceneObj.NewRaytracer()
	raytracer.SetLogger(renderer.NewSlogLogger(s.logger))

	fb, stats, err := raytracer.Render(r.Context(), rand.New(rand.NewSource(req.Seed)), nil)
	if err != nil {
		// Client went away; nothing useful can be written
		s.logger.Warn("render aborted", "error", err)
		return
	}

	var buf bytes.Buffer
	if err := imageio.Encode(&buf, fb, imageio.Format{Image: req.Format}); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	switch req.Format {
	case imageio.FormatPPM:
		w.Header().Set("Content-Type", "image/x-portable-pixmap")
	default:
		w.Header().Set("Content-Type", "image/png")
	}
	w.Header().Set("X-Render-Duration-Ms", strconv.FormatInt(stats.Duration.Milliseconds(), 10))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// parseRenderRequest parses request parameters
func parseRenderRequest(values url.Values) (*RenderRequest, error) {
	req := &RenderRequest{Scene: "default", Format: imageio.FormatPNG}

	if sceneName := values.Get("scene"); sceneName != "" {
		req.Scene = sceneName
	}

	switch format := values.Get("format"); format {
	case "", "png":
	case "ppm":
		req.Format = imageio.FormatPPM
	default:
		return nil, fmt.Errorf("invalid format: %s (expected png or ppm)", format)
	}

	// Parse and validate all parameters using helper functions
	var err error
	if req.Width, err = parseIntParam(values, "width", 400, 8, 2000); err != nil {
		return nil, err
	}
	if req.Samples, err = parseIntParam(values, "samples", 20, 1, 10000); err != nil {
		return nil, err
	}
	if req.MaxDepth, err = parseIntParam(values, "maxDepth", 10, 1, 200); err != nil {
		return nil, err
	}
	if req.Seed, err = parseInt64Param(values, "seed", 42); err != nil {
		return nil, err
	}
	return req, nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseInt64Param parses an unbounded 64-bit integer parameter
func parseInt64Param(values url.Values, key string, defaultValue int64) (int64, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// createScene builds the requested scene with the request's overrides
func createScene(req *RenderRequest) (*scene.Scene, error) {
	return scene.New(req.Scene, scene.Options{
		Width:           req.Width,
		SamplesPerPixel: req.Samples,
		MaxDepth:        req.MaxDepth,
	})
}

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
