package server

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/df07/go-pathtracer/pkg/imageio"
)

const (
	eventBufferSize   = 100
	consoleBufferSize = 50
	writeTimeout      = 10 * time.Second
)

// StreamEvent is a single websocket message; Type is one of
// "start", "console", "progress", "complete" or "error"
type StreamEvent struct {
	Type     string      `json:"type"`
	RenderID string      `json:"renderId"`
	Data     interface{} `json:"data"`
}

// StartUpdate announces the render about to run
type StartUpdate struct {
	Scene    string `json:"scene"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Samples  int    `json:"samples"`
	MaxDepth int    `json:"maxDepth"`
	Seed     int64  `json:"seed"`
}

// ProgressUpdate is sent after every completed row
type ProgressUpdate struct {
	Row       int   `json:"row"`
	TotalRows int   `json:"totalRows"`
	Percent   int   `json:"percent"`
	ElapsedMs int64 `json:"elapsedMs"`
}

// CompleteUpdate carries the final image
type CompleteUpdate struct {
	ImageData string `json:"imageData"` // Base64 encoded PNG
	Stats     Stats  `json:"stats"`
}

// ErrorUpdate reports a failed render
type ErrorUpdate struct {
	Message string `json:"message"`
}

// renderStream owns the event channel of one websocket render
type renderStream struct {
	ctx      context.Context
	renderID string
	events   chan StreamEvent
}

// send queues an event, giving up if the client has gone away
func (rs *renderStream) send(eventType string, data interface{}) {
	select {
	case rs.events <- StreamEvent{Type: eventType, RenderID: rs.renderID, Data: data}:
	case <-rs.ctx.Done():
	}
}

// handleRenderStream renders the requested scene and streams progress over a websocket
func (s *Server) handleRenderStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.origins,
	})
	if err != nil {
		s.logger.Error("websocket accept", "error", err)
		return
	}
	defer conn.CloseNow()

	// Reading is only needed to notice the client closing the connection
	ctx := conn.CloseRead(r.Context())

	stream := &renderStream{
		ctx:      ctx,
		renderID: uuid.New().String(),
		events:   make(chan StreamEvent, eventBufferSize),
	}

	// Start single writer goroutine
	writerDone := make(chan struct{})
	go s.writeEvents(ctx, conn, stream.events, writerDone)

	s.runStreamedRender(stream, r)

	close(stream.events)
	<-writerDone
	conn.Close(websocket.StatusNormalClosure, "")
}

// runStreamedRender parses the request, renders and queues every event
func (s *Server) runStreamedRender(stream *renderStream, r *http.Request) {
	req, err := parseRenderRequest(r.URL.Query())
	if err != nil {
		stream.send("error", ErrorUpdate{Message: fmt.Sprintf("Invalid request: %v", err)})
		return
	}

	sceneObj, err := createScene(req)
	if err != nil {
		stream.send("error", ErrorUpdate{Message: err.Error()})
		return
	}

	// Setup console logging and streaming
	consoleChan := make(chan ConsoleMessage, consoleBufferSize)
	consoleDone := make(chan struct{})
	go streamConsoleMessages(stream, consoleChan, consoleDone)
	defer func() {
		close(consoleChan)
		<-consoleDone
	}()

	camera := sceneObj.Camera
	stream.send("start", StartUpdate{
		Scene:    sceneObj.Name,
		Width:    camera.Width(),
		Height:   camera.Height(),
		Samples:  camera.SamplesPerPixel(),
		MaxDepth: camera.MaxDepth(),
		Seed:     req.Seed,
	})

	raytracer := sceneObj.NewRaytracer()
	raytracer.SetLogger(NewWebLogger(stream.renderID, consoleChan))

	startTime := time.Now()
	fb, stats, err := raytracer.Render(stream.ctx, rand.New(rand.NewSource(req.Seed)), func(row, totalRows int) {
		stream.send("progress", ProgressUpdate{
			Row:       row,
			TotalRows: totalRows,
			Percent:   100 * row / totalRows,
			ElapsedMs: time.Since(startTime).Milliseconds(),
		})
	})
	if err != nil {
		stream.send("error", ErrorUpdate{Message: fmt.Sprintf("Render error: %v", err)})
		return
	}

	imageData, err := imageToBase64PNG(imageio.ToImage(fb))
	if err != nil {
		stream.send("error", ErrorUpdate{Message: fmt.Sprintf("failed to encode image: %v", err)})
		return
	}

	stream.send("complete", CompleteUpdate{
		ImageData: imageData,
		Stats:     newStats(camera, stats),
	})
}

// writeEvents handles writing all websocket messages in a single goroutine
func (s *Server) writeEvents(ctx context.Context, conn *websocket.Conn, events <-chan StreamEvent, done chan<- struct{}) {
	defer close(done)

	for event := range events {
		if ctx.Err() != nil {
			// Client disconnected; drain so senders never block
			continue
		}

		data, err := json.Marshal(event)
		if err != nil {
			s.logger.Error("marshal stream event", "type", event.Type, "error", err)
			continue
		}

		writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
		err = conn.Write(writeCtx, websocket.MessageText, data)
		cancel()
		if err != nil {
			s.logger.Warn("websocket write", "render_id", event.RenderID, "error", err)
		}
	}
}

// streamConsoleMessages forwards render log lines to the websocket
func streamConsoleMessages(stream *renderStream, consoleChan <-chan ConsoleMessage, done chan<- struct{}) {
	defer close(done)
	for msg := range consoleChan {
		stream.send("console", msg)
	}
}
