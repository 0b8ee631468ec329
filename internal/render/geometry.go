package render

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"

	"github.com/rook-computer/identicon/internal/identicon"
)

var (
	ErrInvalidGeometry = errors.New("render: canvas size must be positive")
	ErrColorFormat     = errors.New("render: color must be #rgb or #rrggbb")
)

// Geometry is the square canvas size and the gutter around the pattern, in pixels.
type Geometry struct {
	Size   int
	Gutter int
}

// TileWidth is the side of one tile. It is not rounded.
func (g Geometry) TileWidth() float64 {
	return float64(g.Size-g.Gutter*2) / identicon.PatternSize
}

// MaxGutter is the largest gutter the control surface allows for this size.
func (g Geometry) MaxGutter() int {
	if g.Size <= 0 {
		return 0
	}
	return g.Size / 4
}

// Clamp keeps the gutter within [0, MaxGutter].
func (g Geometry) Clamp() Geometry {
	if g.Gutter > g.MaxGutter() {
		g.Gutter = g.MaxGutter()
	}
	if g.Gutter < 0 {
		g.Gutter = 0
	}
	return g
}

// Degenerate reports whether the gutters leave no room for tiles.
func (g Geometry) Degenerate() bool {
	return g.Size <= g.Gutter*2
}

func (g Geometry) Validate() error {
	if g.Size <= 0 {
		return fmt.Errorf("%w (got %d)", ErrInvalidGeometry, g.Size)
	}
	return nil
}

// Colors is the tile color and the background color.
type Colors struct {
	Fill       color.RGBA
	Background color.RGBA
}

// ParseColor decodes "#rgb" or "#rrggbb" into an opaque color.
func ParseColor(s string) (color.RGBA, error) {
	if (len(s) != 4 && len(s) != 7) || s[0] != '#' {
		return color.RGBA{}, fmt.Errorf("%w (got %q)", ErrColorFormat, s)
	}
	i, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w (got %q)", ErrColorFormat, s)
	}
	if len(s) == 7 {
		return color.RGBA{R: uint8(i >> 16), G: uint8(i >> 8), B: uint8(i), A: 0xFF}, nil
	}
	expand := func(x uint8) uint8 { return 0x11 * (0x0F & x) }
	return color.RGBA{R: expand(uint8(i >> 8)), G: expand(uint8(i >> 4)), B: expand(uint8(i)), A: 0xFF}, nil
}

// Hex formats c as "#rrggbb"; alpha is dropped.
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
