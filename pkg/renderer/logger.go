package renderer

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/df07/go-pathtracer/pkg/core"
)

// SlogLogger implements core.Logger on top of a structured logger
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger wraps logger; a nil logger uses slog.Default()
func NewSlogLogger(logger *slog.Logger) core.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogLogger{logger: logger}
}

// Printf implements core.Logger
func (sl *SlogLogger) Printf(format string, args ...interface{}) {
	sl.logger.Info(strings.TrimRight(fmt.Sprintf(format, args...), "\n"))
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...interface{}) {}
