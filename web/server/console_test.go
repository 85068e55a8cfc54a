package server

import (
	"context"
	"encoding/json"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/df07/go-pathtracer/pkg/scene"
)

// drain collects everything currently buffered on console
func drain(console chan ConsoleMessage) []ConsoleMessage {
	var messages []ConsoleMessage
	for {
		select {
		case msg := <-console:
			messages = append(messages, msg)
		default:
			return messages
		}
	}
}

func TestWebLogger_Printf(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		args     []interface{}
		expected string
	}{
		{"plain line", "Render completed in 2s\n", nil, "Render completed in 2s\n"},
		{"formatted", "Rendering %dx%d at %d samples per pixel, max depth %d\n",
			[]interface{}{16, 9, 4, 10}, "Rendering 16x9 at 4 samples per pixel, max depth 10\n"},
		{"no trailing newline", "seed %d", []interface{}{int64(-3)}, "seed -3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			console := make(chan ConsoleMessage, 1)
			before := time.Now()
			NewWebLogger("render-a", console).Printf(tt.format, tt.args...)

			messages := drain(console)
			if len(messages) != 1 {
				t.Fatalf("Expected one console message, got %d", len(messages))
			}
			msg := messages[0]
			if msg.Message != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, msg.Message)
			}
			if msg.RenderID != "render-a" || msg.Level != levelInfo {
				t.Errorf("Unexpected envelope %+v", msg)
			}
			if msg.Timestamp.Before(before) {
				t.Errorf("Timestamp %v precedes the call", msg.Timestamp)
			}
		})
	}
}

func TestWebLogger_DropsWhenConsoleFull(t *testing.T) {
	console := make(chan ConsoleMessage, 2)
	logger := NewWebLogger("render-b", console)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			logger.Printf("line %d\n", i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Printf blocked on a full console")
	}

	messages := drain(console)
	if len(messages) != 2 || messages[0].Message != "line 0\n" || messages[1].Message != "line 1\n" {
		t.Errorf("Expected the first two lines to be kept, got %+v", messages)
	}
}

func TestWebLogger_NilConsole(t *testing.T) {
	NewWebLogger("render-c", nil).Printf("only to slog\n")
}

func TestWebLogger_CarriesRenderLines(t *testing.T) {
	sceneObj, err := scene.New("normals", scene.Options{Width: 8, SamplesPerPixel: 1, MaxDepth: 2})
	if err != nil {
		t.Fatalf("scene.New failed: %v", err)
	}

	console := make(chan ConsoleMessage, consoleBufferSize)
	raytracer := sceneObj.NewRaytracer()
	raytracer.SetLogger(NewWebLogger("render-d", console))

	if _, _, err := raytracer.Render(context.Background(), rand.New(rand.NewSource(1)), nil); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	messages := drain(console)
	if len(messages) != 2 {
		t.Fatalf("Expected start and completion lines, got %+v", messages)
	}
	if messages[0].Message != "Rendering 8x4 at 1 samples per pixel, max depth 2\n" {
		t.Errorf("Unexpected start line %q", messages[0].Message)
	}
	if !strings.HasPrefix(messages[1].Message, "Render completed in ") {
		t.Errorf("Unexpected completion line %q", messages[1].Message)
	}
	for _, msg := range messages {
		if msg.RenderID != "render-d" {
			t.Errorf("Expected render ID render-d, got %q", msg.RenderID)
		}
	}
}

func TestConsoleMessage_JSON(t *testing.T) {
	data, err := json.Marshal(ConsoleMessage{
		RenderID:  "abc",
		Message:   "Render completed in 1ms\n",
		Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Level:     levelInfo,
	})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	expected := `{"renderId":"abc","message":"Render completed in 1ms\n","timestamp":"2024-01-02T03:04:05Z","level":"info"}`
	if string(data) != expected {
		t.Errorf("Expected %s, got %s", expected, data)
	}
}
