package render

import (
	"image"
	"image/draw"

	"golang.org/x/image/vector"

	"github.com/rook-computer/identicon/internal/identicon"
	"github.com/rook-computer/identicon/internal/render/layout"
)

// Surface is one rendered identicon. It is never drawn into again after
// Render returns; a redraw produces a new Surface.
type Surface struct {
	img      *image.RGBA
	Pattern  identicon.Pattern
	Geometry Geometry
	Colors   Colors
}

func (s *Surface) Image() *image.RGBA       { return s.img }
func (s *Surface) Bounds() image.Rectangle { return s.img.Bounds() }

// TileRect returns the exact, unrounded rectangle of a tile as x0, y0, x1, y1.
func (s *Surface) TileRect(row, col int) (x0, y0, x1, y1 float64) {
	return tileRect(s.Geometry, row, col)
}

// PatternRect is the integer area inside the gutters.
func (s *Surface) PatternRect() image.Rectangle {
	return layout.Inset(s.img.Bounds(), s.Geometry.Gutter)
}

func tileRect(g Geometry, row, col int) (x0, y0, x1, y1 float64) {
	// x1 of a tile is computed exactly like x0 of its neighbour so shared
	// edges land on the same coordinate.
	at := func(i int) float64 { return float64(i)*g.TileWidth() + float64(g.Gutter) }
	return at(col), at(row), at(col + 1), at(row + 1)
}

// Renderer paints patterns onto fresh surfaces.
type Renderer struct {
	Logger interface {
		Infof(string, string, ...interface{})
		Errorf(string, string, ...interface{})
	}
}

func NewRenderer() *Renderer { return &Renderer{} }

// Render allocates a new Size x Size surface, fills the background and then
// the 1-cells of p. Degenerate geometry yields a background-only surface.
func (r *Renderer) Render(p identicon.Pattern, g Geometry, c Colors) (*Surface, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, g.Size, g.Size))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c.Background}, image.Point{}, draw.Src)

	s := &Surface{img: img, Pattern: p, Geometry: g, Colors: c}
	if g.Degenerate() {
		if r.Logger != nil {
			r.Logger.Infof("render", "degenerate geometry size=%d gutter=%d, background only", g.Size, g.Gutter)
		}
		return s, nil
	}
	if p.Filled() == 0 {
		return s, nil
	}

	// All tiles go into one path so shared fractional edges add up to full
	// coverage instead of leaving a blended seam.
	z := vector.NewRasterizer(g.Size, g.Size)
	for i := range p {
		for j := range p[i] {
			if p[i][j] != 1 {
				continue
			}
			x0, y0, x1, y1 := tileRect(g, i, j)
			z.MoveTo(float32(x0), float32(y0))
			z.LineTo(float32(x1), float32(y0))
			z.LineTo(float32(x1), float32(y1))
			z.LineTo(float32(x0), float32(y1))
			z.ClosePath()
		}
	}
	z.Draw(img, img.Bounds(), &image.Uniform{C: c.Fill}, image.Point{})
	return s, nil
}
