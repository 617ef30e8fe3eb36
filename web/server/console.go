package server

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

// Level classifies a console message for the browser console
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// ConsoleMessage is one line of render output streamed to the client
type ConsoleMessage struct {
	RenderID  string    `json:"renderId"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     Level     `json:"level"`
	Dropped   int       `json:"dropped,omitempty"` // Messages skipped since the previous one
}

// WebLogger implements core.Logger for a single render. Every message goes to
// the server log; messages also go to the console channel when there is room.
type WebLogger struct {
	renderID    string
	consoleChan chan<- ConsoleMessage

	mu      sync.Mutex
	dropped int
}

// NewWebLogger creates a logger for renderID. consoleChan may be nil.
func NewWebLogger(renderID string, consoleChan chan<- ConsoleMessage) *WebLogger {
	return &WebLogger{
		renderID:    renderID,
		consoleChan: consoleChan,
	}
}

// Printf logs at info level; the renderers report progress through it
func (wl *WebLogger) Printf(format string, args ...interface{}) {
	wl.logf(LevelInfo, format, args...)
}

// Warnf logs at warning level
func (wl *WebLogger) Warnf(format string, args ...interface{}) {
	wl.logf(LevelWarning, format, args...)
}

// Errorf logs a render failure at error level
func (wl *WebLogger) Errorf(format string, args ...interface{}) {
	wl.logf(LevelError, format, args...)
}

// Dropped returns how many messages have not reached the console channel yet
func (wl *WebLogger) Dropped() int {
	wl.mu.Lock()
	defer wl.mu.Unlock()
	return wl.dropped
}

func (wl *WebLogger) logf(level Level, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)

	// The render ID keeps concurrent renders apart in the server log
	prefix := ""
	if level != LevelInfo {
		prefix = strings.ToUpper(string(level)) + ": "
	}
	log.Printf("[%s] %s%s", wl.renderID, prefix, strings.TrimRight(message, "\n"))

	if wl.consoleChan == nil {
		return
	}

	wl.mu.Lock()
	defer wl.mu.Unlock()
	msg := ConsoleMessage{
		RenderID:  wl.renderID,
		Message:   message,
		Timestamp: time.Now(),
		Level:     level,
		Dropped:   wl.dropped,
	}
	select {
	case wl.consoleChan <- msg:
		wl.dropped = 0
	default:
		// Never block the renderer on a slow client
		wl.dropped++
	}
}
