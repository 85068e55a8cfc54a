package server

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/df07/go-pathtracer/pkg/core"
)

const levelInfo = "info"

// ConsoleMessage is one raytracer log line forwarded to the browser console
type ConsoleMessage struct {
	RenderID  string    `json:"renderId"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
}

// WebLogger is a core.Logger that mirrors each line to slog and to the
// websocket console of a single render
type WebLogger struct {
	renderID string
	console  chan<- ConsoleMessage
	logger   *slog.Logger
}

// NewWebLogger creates the logger for renderID. A nil console only logs to slog.
func NewWebLogger(renderID string, console chan<- ConsoleMessage) core.Logger {
	return &WebLogger{
		renderID: renderID,
		console:  console,
		logger:   slog.Default().With("render_id", renderID),
	}
}

// Printf implements core.Logger
func (wl *WebLogger) Printf(format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	wl.logger.Info(strings.TrimRight(line, "\n"))
	wl.publish(ConsoleMessage{
		RenderID:  wl.renderID,
		Message:   line,
		Timestamp: time.Now(),
		Level:     levelInfo,
	})
}

// publish never blocks the render; lines are dropped while the console is backed up
func (wl *WebLogger) publish(msg ConsoleMessage) {
	if wl.console == nil {
		return
	}
	select {
	case wl.console <- msg:
	default:
	}
}
