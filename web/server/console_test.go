package server

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"
)

func receive(t *testing.T, messageChan <-chan ConsoleMessage) ConsoleMessage {
	t.Helper()
	select {
	case msg := <-messageChan:
		return msg
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for console message")
		return ConsoleMessage{}
	}
}

func TestWebLogger_Levels(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 10)
	logger := NewWebLogger("render-levels", messageChan)

	tests := []struct {
		log      func(format string, args ...interface{})
		level    Level
		expected string
	}{
		{logger.Printf, LevelInfo, "Rendering 400x225 in 104 tiles...\n"},
		{logger.Warnf, LevelWarning, "Client disconnected: context canceled"},
		{logger.Errorf, LevelError, "Rendering failed: worker 0: tile 3: boom\n"},
	}
	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			tt.log("%s", tt.expected)
			msg := receive(t, messageChan)
			if msg.Level != tt.level {
				t.Errorf("Expected level %q, got %q", tt.level, msg.Level)
			}
			if msg.Message != tt.expected {
				t.Errorf("Expected message %q, got %q", tt.expected, msg.Message)
			}
			if msg.RenderID != "render-levels" {
				t.Errorf("Expected render ID 'render-levels', got %q", msg.RenderID)
			}
			if time.Since(msg.Timestamp) > time.Second {
				t.Errorf("Timestamp seems too old: %v", msg.Timestamp)
			}
		})
	}
}

func TestWebLogger_PreservesOrder(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 10)
	logger := NewWebLogger("render-order", messageChan)

	for i := 1; i <= 3; i++ {
		logger.Printf("Message %d\n", i)
	}
	for i := 1; i <= 3; i++ {
		if msg := receive(t, messageChan); msg.Message != fmt.Sprintf("Message %d\n", i) {
			t.Errorf("Message %d: got %q", i, msg.Message)
		}
	}
}

func TestWebLogger_CountsDroppedMessages(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 1)
	logger := NewWebLogger("render-full", messageChan)

	// The first message fills the channel; the next two must not block
	logger.Printf("Message 1\n")
	logger.Printf("Message 2\n")
	logger.Errorf("Message 3\n")
	if logger.Dropped() != 2 {
		t.Fatalf("Expected 2 dropped messages, got %d", logger.Dropped())
	}

	if msg := receive(t, messageChan); msg.Message != "Message 1\n" || msg.Dropped != 0 {
		t.Errorf("Unexpected first message %+v", msg)
	}

	// The next delivered message reports the gap
	logger.Printf("Message 4\n")
	msg := receive(t, messageChan)
	if msg.Message != "Message 4\n" || msg.Dropped != 2 {
		t.Errorf("Expected Message 4 after 2 dropped, got %+v", msg)
	}
	if logger.Dropped() != 0 {
		t.Errorf("Dropped count should reset after a delivery, got %d", logger.Dropped())
	}
}

func TestWebLogger_NilChannel(t *testing.T) {
	logger := NewWebLogger("render-nil", nil)
	logger.Printf("Progress\n")
	logger.Errorf("Failure\n")
	if logger.Dropped() != 0 {
		t.Errorf("A logger without a console should not count drops, got %d", logger.Dropped())
	}
}

func TestConsoleMessage_JSONSerialization(t *testing.T) {
	tests := []struct {
		name     string
		msg      ConsoleMessage
		expected string
	}{
		{
			"info",
			ConsoleMessage{RenderID: "render-1", Message: "Test message", Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), Level: LevelInfo},
			`{"renderId":"render-1","message":"Test message","timestamp":"2024-01-02T03:04:05Z","level":"info"}`,
		},
		{
			"error after drops",
			ConsoleMessage{RenderID: "render-2", Message: "Boom", Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), Level: LevelError, Dropped: 3},
			`{"renderId":"render-2","message":"Boom","timestamp":"2024-01-02T03:04:05Z","level":"error","dropped":3}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.msg)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			if string(data) != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, data)
			}
		})
	}
}
