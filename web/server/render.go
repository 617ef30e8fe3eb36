package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/df07/go-weekend-raytracer/pkg/output"
	"github.com/df07/go-weekend-raytracer/pkg/renderer"
	"github.com/df07/go-weekend-raytracer/pkg/scene"
)

const (
	DefaultScene    = "default"
	DefaultTileSize = 32

	minWidth   = 16
	maxWidth   = 2000
	maxSamples = 10000
	maxDepth   = 500
)

// RenderRequest represents a render request from the client. Zero values
// for Width, Samples and Depth (-1) keep the scene's own settings.
type RenderRequest struct {
	Scene   string `json:"scene"`   // Scene ID (e.g., "default" or "file:glass-row")
	Width   int    `json:"width"`   // Image width; height follows the camera aspect ratio
	Samples int    `json:"samples"` // Samples per pixel
	Depth   int    `json:"depth"`   // Maximum bounce depth
	Seed    int64  `json:"seed"`    // Base seed for the tile samplers
	Format  string `json:"format"`  // "png", "jpg" or "ppm"
	Shading string `json:"shading"` // "scatter" or "normals"
}

// TileUpdate represents a single tile completion sent via SSE
type TileUpdate struct {
	TileID     int `json:"tileId"`
	X          int `json:"x"`
	Y          int `json:"y"`
	Width      int `json:"width"`
	Height     int `json:"height"`
	TileNumber int `json:"tileNumber"` // Completed tiles so far (1-based)
	TotalTiles int `json:"totalTiles"` // Total number of tiles in the image
}

// RenderComplete is the final SSE event of a streamed render
type RenderComplete struct {
	ImageData      string  `json:"imageData"` // Base64 encoded PNG
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	ElapsedMs      int64   `json:"elapsedMs"`
	TotalSamples   int     `json:"totalSamples"`
	AverageSamples float64 `json:"averageSamples"`
}

// SSEEvent represents a unified SSE event for thread-safe writing
type SSEEvent struct {
	Type string `json:"type"` // "console", "tile", "complete", "error"
	Data string `json:"data"` // JSON-encoded data
}

// parseRenderRequest parses request parameters
func (s *Server) parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	query := r.URL.Query()
	req := &RenderRequest{Scene: query.Get("scene"), Shading: query.Get("shading")}
	if req.Scene == "" {
		req.Scene = DefaultScene
	}

	var err error
	if req.Width, err = parseIntParam(query, "width", 0, minWidth, maxWidth); err != nil {
		return nil, err
	}
	if req.Samples, err = parseIntParam(query, "samples", 0, 1, maxSamples); err != nil {
		return nil, err
	}
	if req.Depth, err = parseIntParam(query, "depth", -1, 0, maxDepth); err != nil {
		return nil, err
	}
	if req.Seed, err = parseInt64Param(query, "seed", renderer.DefaultParallelConfig().Seed); err != nil {
		return nil, err
	}

	req.Format = query.Get("format")
	if req.Format == "" {
		req.Format = "png"
	}
	if _, err := output.ContentType(req.Format); err != nil {
		return nil, fmt.Errorf("unsupported format: %s", req.Format)
	}
	if req.Shading != "" {
		if _, err := renderer.ParseShading(req.Shading); err != nil {
			return nil, err
		}
	}

	return req, nil
}

// setupRender loads the scene, applies the request overrides and builds a parallel renderer
func (s *Server) setupRender(req *RenderRequest, logger *WebLogger) (*renderer.ParallelRenderer, error) {
	sceneObj, err := scene.LoadScene(req.Scene, s.scenesDir)
	if err != nil {
		return nil, err
	}

	if req.Width > 0 {
		sceneObj.SetWidth(req.Width)
	}
	if req.Samples > 0 {
		sceneObj.SamplingConfig.SamplesPerPixel = req.Samples
	}
	if req.Depth >= 0 {
		sceneObj.SamplingConfig.MaxDepth = req.Depth
	}
	if req.Shading != "" {
		shading, err := renderer.ParseShading(req.Shading)
		if err != nil {
			return nil, err
		}
		sceneObj.SamplingConfig.Shading = shading
	}

	// Scene files carry their own settings; the query limits apply to them too
	if err := checkRenderLimits(sceneObj); err != nil {
		return nil, err
	}
	if width, _ := sceneObj.ImageSize(); width > 800 && sceneObj.SamplingConfig.SamplesPerPixel > 100 {
		logger.Warnf("Large image with high samples may render slowly\n")
	}

	rt, err := sceneObj.NewRaytracer()
	if err != nil {
		return nil, err
	}
	rt.SetLogger(logger)

	return renderer.NewParallelRenderer(rt, renderer.ParallelConfig{
		TileSize:   DefaultTileSize,
		NumWorkers: 0, // Auto-detect
		Seed:       req.Seed,
	}, logger)
}

// checkRenderLimits rejects scenes whose effective settings exceed the server limits
func checkRenderLimits(sceneObj *scene.Scene) error {
	width, _ := sceneObj.ImageSize()
	config := sceneObj.SamplingConfig
	switch {
	case width > maxWidth:
		return fmt.Errorf("scene %q: width must be at most %d, got: %d", sceneObj.Name, maxWidth, width)
	case config.SamplesPerPixel > maxSamples:
		return fmt.Errorf("scene %q: samples must be at most %d, got: %d", sceneObj.Name, maxSamples, config.SamplesPerPixel)
	case config.MaxDepth > maxDepth:
		return fmt.Errorf("scene %q: depth must be at most %d, got: %d", sceneObj.Name, maxDepth, config.MaxDepth)
	}
	return nil
}

// renderErrorStatus maps a setup error to an HTTP status
func renderErrorStatus(err error) int {
	if errors.Is(err, scene.ErrUnknownScene) {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}

// handleRender renders a whole image and returns it encoded in the requested format
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseRenderRequest(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	renderID := fmt.Sprintf("render-%d", time.Now().UnixNano())
	logger := NewWebLogger(renderID, nil)
	pr, err := s.setupRender(req, logger)
	if err != nil {
		writeJSONError(w, renderErrorStatus(err), err.Error())
		return
	}

	// Use request context to stop rendering when the client disconnects
	img, stats, err := pr.Render(r.Context(), nil)
	if err != nil {
		if r.Context().Err() != nil {
			logger.Warnf("Client disconnected: %v", err)
			return
		}
		logger.Errorf("Render failed: %v", err)
		writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Render error: %v", err))
		return
	}

	var buf bytes.Buffer
	if err := output.Encode(&buf, img, req.Format); err != nil {
		writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Encode error: %v", err))
		return
	}
	contentType, _ := output.ContentType(req.Format)

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("X-Render-Time-Ms", strconv.FormatInt(stats.Elapsed.Milliseconds(), 10))
	w.Header().Set("X-Samples-Per-Pixel", strconv.Itoa(int(stats.AverageSamples)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logger.Errorf("Error writing response: %v", err)
	}
}

// handleRenderStream renders with tile progress and console output streamed via SSE.
// The final event carries the image as a base64 PNG.
func (s *Server) handleRenderStream(w http.ResponseWriter, r *http.Request) {
	s.setSSEHeaders(w)
	ctx := r.Context()

	// Create unified SSE event channel for thread-safe writing
	sseEventChan := make(chan SSEEvent, 100)
	consoleChan := make(chan ConsoleMessage, 50)

	// Start single SSE writer goroutine; it exits after sseEventChan closes
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeSSEEvents(ctx, w, sseEventChan, consoleChan)
	}()
	defer func() {
		close(sseEventChan)
		<-writerDone
	}()

	req, err := s.parseRenderRequest(r)
	if err != nil {
		s.sendEvent(ctx, sseEventChan, "error", fmt.Sprintf("Invalid request: %v", err))
		return
	}

	renderID := fmt.Sprintf("render-%d", time.Now().UnixNano())
	logger := NewWebLogger(renderID, consoleChan)
	pr, err := s.setupRender(req, logger)
	if err != nil {
		s.sendEvent(ctx, sseEventChan, "error", err.Error())
		return
	}

	startTime := time.Now()
	img, stats, err := pr.Render(ctx, func(result renderer.TileCompletionResult) {
		s.sendJSONEvent(ctx, sseEventChan, "tile", TileUpdate{
			TileID:     result.TileID,
			X:          result.Bounds.Min.X,
			Y:          result.Bounds.Min.Y,
			Width:      result.Bounds.Dx(),
			Height:     result.Bounds.Dy(),
			TileNumber: result.TileNumber,
			TotalTiles: result.TotalTiles,
		})
	})
	if err != nil {
		logger.Errorf("Rendering failed: %v\n", err)
		s.sendEvent(ctx, sseEventChan, "error", fmt.Sprintf("Rendering failed: %v", err))
		return
	}

	var buf bytes.Buffer
	if err := output.Encode(&buf, img, "png"); err != nil {
		logger.Errorf("Encode error: %v\n", err)
		s.sendEvent(ctx, sseEventChan, "error", fmt.Sprintf("Encode error: %v", err))
		return
	}

	s.sendJSONEvent(ctx, sseEventChan, "complete", RenderComplete{
		ImageData:      base64.StdEncoding.EncodeToString(buf.Bytes()),
		Width:          img.Bounds().Dx(),
		Height:         img.Bounds().Dy(),
		ElapsedMs:      time.Since(startTime).Milliseconds(),
		TotalSamples:   stats.TotalSamples,
		AverageSamples: stats.AverageSamples,
	})
}

// setSSEHeaders sets the required headers for Server-Sent Events
func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// writeSSEEvents writes all SSE events in a single goroutine. Console messages
// are interleaved as they arrive; queued ones are flushed before returning.
func (s *Server) writeSSEEvents(ctx context.Context, w http.ResponseWriter, sseEventChan <-chan SSEEvent, consoleChan <-chan ConsoleMessage) {
	for {
		select {
		case msg := <-consoleChan:
			if !s.writeConsoleMessage(w, msg) {
				return
			}

		case event, ok := <-sseEventChan:
			if !ok {
				s.drainConsole(w, consoleChan)
				return
			}
			// Console output logged before this event goes first
			s.drainConsole(w, consoleChan)
			if !writeSSE(w, event) {
				return
			}

		case <-ctx.Done():
			// Client disconnected
			return
		}
	}
}

// drainConsole writes every console message already queued
func (s *Server) drainConsole(w http.ResponseWriter, consoleChan <-chan ConsoleMessage) {
	for {
		select {
		case msg := <-consoleChan:
			if !s.writeConsoleMessage(w, msg) {
				return
			}
		default:
			return
		}
	}
}

func (s *Server) writeConsoleMessage(w http.ResponseWriter, msg ConsoleMessage) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error marshaling console message: %v", err)
		return true
	}
	return writeSSE(w, SSEEvent{Type: "console", Data: string(data)})
}

// writeSSE writes one event and flushes it; false means the client is gone
func writeSSE(w http.ResponseWriter, event SSEEvent) bool {
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data); err != nil {
		return false
	}
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
	return true
}

// sendEvent queues an event unless the client has disconnected
func (s *Server) sendEvent(ctx context.Context, sseEventChan chan<- SSEEvent, eventType, data string) {
	select {
	case sseEventChan <- SSEEvent{Type: eventType, Data: data}:
	case <-ctx.Done():
		// Client disconnected, don't block
	}
}

// sendJSONEvent marshals v and queues it as an event
func (s *Server) sendJSONEvent(ctx context.Context, sseEventChan chan<- SSEEvent, eventType string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("Error marshaling %s event: %v", eventType, err)
		return
	}
	s.sendEvent(ctx, sseEventChan, eventType, string(data))
}
