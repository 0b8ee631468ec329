package web

import (
	"context"
	"image/color"

	"github.com/rook-computer/identicon/internal/export"
	"github.com/rook-computer/identicon/internal/identicon"
	"github.com/rook-computer/identicon/internal/pipeline"
	"github.com/rook-computer/identicon/internal/state"
)

// Engine is the part of pipeline.Engine the API drives.
type Engine interface {
	Current() (pipeline.Frame, bool)
	Config() state.Config
	Limits() state.Limits

	InitPattern(ctx context.Context, input string) error
	SetDigest(ctx context.Context, d identicon.Digest) error
	SetGeometry(size, gutter int) error
	SetColors(fill, background color.RGBA) error
	SetRotation(rotate int) error
	SetMode(mode state.Mode) error
	SetGrid(g identicon.Grid) error
	ToggleCell(row, col int) error
	Step(id state.NumericField, delta int) error
	ResetCanvas() error
	ResetInput(ctx context.Context) error
}

// sysLogger matches the component-tagged logger used across the app.
type sysLogger interface {
	Infof(component string, format string, args ...interface{})
	Errorf(component string, format string, args ...interface{})
}

type APIV1Deps struct {
	Engine Engine
	Export export.Options
	// PublicURL is the externally reachable base, e.g. "http://10.0.0.5:8080";
	// the QR code points at its /api/v1/image.png.
	PublicURL string
	Logger    sysLogger
}

func (d APIV1Deps) withDefaults() APIV1Deps {
	out := d
	if out.Export == (export.Options{}) {
		out.Export = export.DefaultOptions
	}
	if out.Logger == nil {
		out.Logger = noopSysLogger{}
	}
	return out
}

type noopSysLogger struct{}

func (noopSysLogger) Infof(string, string, ...interface{})  {}
func (noopSysLogger) Errorf(string, string, ...interface{}) {}
