package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
)

func newTestServer() *Server {
	return NewServer(0, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func doRequest(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHandleHealth(t *testing.T) {
	rec := doRequest(t, newTestServer(), http.MethodGet, "/api/health")

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected JSON content type, got %q", ct)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != `{"status":"ok"}` {
		t.Errorf("Unexpected body %s", body)
	}
}

func TestHandleHealth_WrongMethod(t *testing.T) {
	rec := doRequest(t, newTestServer(), http.MethodPost, "/api/health")
	if rec.Code == http.StatusOK {
		t.Error("POST should not be routed to the health handler")
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	s := newTestServer()
	handler := s.recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/anything", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "internal server error") {
		t.Errorf("Unexpected body %s", rec.Body.String())
	}
}

func TestRequestLogger_RecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	s := NewServer(0, nil, slog.New(slog.NewTextHandler(&buf, nil)))

	doRequest(t, s, http.MethodGet, "/api/render?width=abc")

	logged := buf.String()
	if !strings.Contains(logged, "path=/api/render") || !strings.Contains(logged, "status=400") {
		t.Errorf("Expected request log with path and status, got %q", logged)
	}
}

func TestHandleScenes(t *testing.T) {
	rec := doRequest(t, newTestServer(), http.MethodGet, "/api/scenes")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var response struct {
		Scenes []struct {
			ID string `json:"id"`
		} `json:"scenes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}

	var ids []string
	for _, s := range response.Scenes {
		ids = append(ids, s.ID)
	}
	if strings.Join(ids, ",") != "default,normals,spheregrid" {
		t.Errorf("Unexpected scenes %v", ids)
	}
}

func TestParseRenderRequest(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		expected    RenderRequest
		expectError bool
	}{
		{"defaults", "", RenderRequest{Scene: "default", Width: 400, Samples: 20, MaxDepth: 10, Seed: 42, Format: "png"}, false},
		{"overrides", "scene=normals&width=64&samples=3&maxDepth=7&seed=-5&format=ppm",
			RenderRequest{Scene: "normals", Width: 64, Samples: 3, MaxDepth: 7, Seed: -5, Format: "ppm"}, false},
		{"width too small", "width=2", RenderRequest{}, true},
		{"width too large", "width=5000", RenderRequest{}, true},
		{"samples not a number", "samples=lots", RenderRequest{}, true},
		{"depth zero", "maxDepth=0", RenderRequest{}, true},
		{"bad seed", "seed=1.5", RenderRequest{}, true},
		{"bad format", "format=jpeg", RenderRequest{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, _ := url.ParseQuery(tt.query)
			req, err := parseRenderRequest(values)
			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error for %q, got %+v", tt.query, req)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if *req != tt.expected {
				t.Errorf("Expected %+v, got %+v", tt.expected, *req)
			}
		})
	}
}

func TestHandleRender_PNG(t *testing.T) {
	rec := doRequest(t, newTestServer(), http.MethodGet, "/api/render?scene=normals&width=16&samples=1&maxDepth=2")

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Expected image/png, got %q", ct)
	}

	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatalf("Invalid PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 9 {
		t.Errorf("Expected 16x9 image, got %v", b)
	}
}

func TestHandleRender_PPM(t *testing.T) {
	rec := doRequest(t, newTestServer(), http.MethodGet, "/api/render?width=8&samples=1&maxDepth=2&format=ppm")

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.HasPrefix(rec.Body.String(), "P3\n8 4\n255\n") {
		t.Errorf("Unexpected PPM header in %q", rec.Body.String()[:min(rec.Body.Len(), 20)])
	}
	if lines := strings.Count(rec.Body.String(), "\n"); lines != 3+8*4 {
		t.Errorf("Expected %d lines, got %d", 3+8*4, lines)
	}
}

func TestHandleRender_Deterministic(t *testing.T) {
	s := newTestServer()
	target := "/api/render?scene=spheregrid&width=12&samples=2&maxDepth=4&seed=9&format=ppm"

	a := doRequest(t, s, http.MethodGet, target)
	b := doRequest(t, s, http.MethodGet, target)
	if !bytes.Equal(a.Body.Bytes(), b.Body.Bytes()) {
		t.Error("Same seed should produce the same image")
	}
}

func TestHandleRender_BadRequests(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"unknown scene", "/api/render?scene=cornell"},
		{"invalid width", "/api/render?width=abc"},
		{"invalid format", "/api/render?format=gif"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, newTestServer(), http.MethodGet, tt.target)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("Expected 400, got %d", rec.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["error"] == "" {
				t.Errorf("Expected JSON error body, got %s", rec.Body.String())
			}
		})
	}
}

func TestHandleInspect(t *testing.T) {
	s := newTestServer()

	// Center of a 16x9 default render looks at the center sphere
	rec := doRequest(t, s, http.MethodGet, "/api/inspect?width=16&x=8&y=4")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var response InspectResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if !response.Hit || response.MaterialType != "lambertian" || response.GeometryType != "sphere" {
		t.Errorf("Expected lambertian sphere hit, got %+v", response)
	}
	if !response.FrontFace || response.Distance <= 0 {
		t.Errorf("Expected front-face hit at positive distance, got %+v", response)
	}

	// Top-left corner sees only sky
	rec = doRequest(t, s, http.MethodGet, "/api/inspect?width=16&x=0&y=0")
	response = InspectResponse{}
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if response.Hit {
		t.Errorf("Expected miss in the corner, got %+v", response)
	}

	// Normal-shaded scene reports material-less geometry
	rec = doRequest(t, s, http.MethodGet, "/api/inspect?scene=normals&width=16&x=8&y=4")
	response = InspectResponse{}
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if response.MaterialType != "normal" {
		t.Errorf("Expected normal material type, got %q", response.MaterialType)
	}

	for _, target := range []string{
		"/api/inspect?width=16&x=16&y=0",
		"/api/inspect?width=16&x=0&y=-1",
		"/api/inspect?width=16&x=a&y=0",
	} {
		if rec := doRequest(t, s, http.MethodGet, target); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}

// readStream collects every event until the server closes the connection
func readStream(t *testing.T, serverURL, query string) []StreamEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(serverURL, "http") + "/ws/render?" + query
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.CloseNow()
	conn.SetReadLimit(1 << 22)

	var events []StreamEvent
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				t.Fatalf("Unexpected read error: %v", err)
			}
			return events
		}
		var event StreamEvent
		if err := json.Unmarshal(data, &event); err != nil {
			t.Fatalf("Invalid event JSON: %v", err)
		}
		events = append(events, event)
	}
}

func TestRenderStream(t *testing.T) {
	ts := httptest.NewServer(newTestServer().Handler())
	defer ts.Close()

	events := readStream(t, ts.URL, "scene=normals&width=8&samples=1&maxDepth=2")
	if len(events) == 0 {
		t.Fatal("Expected events")
	}
	if events[0].Type != "start" {
		t.Errorf("Expected start event first, got %q", events[0].Type)
	}

	renderID := events[0].RenderID
	var rows []int
	completes := 0
	for _, event := range events {
		if event.RenderID != renderID {
			t.Errorf("Event %q has render ID %q, expected %q", event.Type, event.RenderID, renderID)
		}
		data := event.Data.(map[string]interface{})

		switch event.Type {
		case "progress":
			rows = append(rows, int(data["row"].(float64)))
		case "complete":
			completes++
			raw, err := base64.StdEncoding.DecodeString(data["imageData"].(string))
			if err != nil {
				t.Fatalf("Invalid base64 image: %v", err)
			}
			img, err := png.Decode(bytes.NewReader(raw))
			if err != nil {
				t.Fatalf("Invalid PNG: %v", err)
			}
			if b := img.Bounds(); b.Dx() != 8 || b.Dy() != 4 {
				t.Errorf("Expected 8x4 image, got %v", b)
			}
		case "error":
			t.Errorf("Unexpected error event: %v", data)
		}
	}

	if completes != 1 {
		t.Errorf("Expected exactly one complete event, got %d", completes)
	}
	if len(rows) != 4 || rows[0] != 1 || rows[3] != 4 {
		t.Errorf("Expected progress for rows 1..4, got %v", rows)
	}
}

func TestRenderStream_InvalidRequest(t *testing.T) {
	ts := httptest.NewServer(newTestServer().Handler())
	defer ts.Close()

	events := readStream(t, ts.URL, "scene=nonexistent")
	if len(events) != 1 || events[0].Type != "error" {
		t.Fatalf("Expected a single error event, got %+v", events)
	}
	message := events[0].Data.(map[string]interface{})["message"].(string)
	if !strings.Contains(message, "nonexistent") {
		t.Errorf("Error should name the scene, got %q", message)
	}
}
