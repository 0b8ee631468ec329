package display

import (
	"context"

	"github.com/rook-computer/identicon/internal/pipeline"
)

// Logical canvas size; scaled to the framebuffer on blit.
const (
	CanvasWidth  = 1920
	CanvasHeight = 1080
)

// Display shows frames on a local screen.
type Display interface {
	Start(ctx context.Context) error
	Stop() error
	// Show queues f for drawing. It must not block.
	Show(f pipeline.Frame)
}

type NoopDisplay struct{}

func (NoopDisplay) Start(ctx context.Context) error { return nil }
func (NoopDisplay) Stop() error                     { return nil }
func (NoopDisplay) Show(pipeline.Frame)             {}

type logger interface {
	Infof(string, string, ...interface{})
	Errorf(string, string, ...interface{})
}
