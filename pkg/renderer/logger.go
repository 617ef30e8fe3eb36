package renderer

import (
	"fmt"
	"io"

	"github.com/df07/go-weekend-raytracer/pkg/core"
)

// DefaultLogger implements core.Logger by writing to a stream
type DefaultLogger struct {
	out io.Writer
}

func (dl *DefaultLogger) Printf(format string, args ...interface{}) {
	fmt.Fprintf(dl.out, format, args...)
}

// NewStreamLogger creates a logger writing to w. Use stderr when stdout carries image data.
func NewStreamLogger(w io.Writer) core.Logger {
	return &DefaultLogger{out: w}
}

// discardLogger drops every message
type discardLogger struct{}

func (discardLogger) Printf(string, ...interface{}) {}

// NewDiscardLogger returns a logger that drops every message
func NewDiscardLogger() core.Logger {
	return discardLogger{}
}
