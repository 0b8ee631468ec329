package display

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/rook-computer/identicon/internal/pipeline"
	"github.com/rook-computer/identicon/internal/render"
	"github.com/rook-computer/identicon/internal/render/layout"
)

const (
	marginPx      = 60
	captionSizePt = 36
	captionDPI    = 96
	qrSizePx      = 320
)

// Composer lays a frame out on the logical canvas: the identicon on the
// left, a caption and an optional QR code on the right.
type Composer struct {
	// QRPayload, when set, is drawn as a QR code under the caption.
	QRPayload string
	Logger    logger

	face   font.Face
	ttFont *truetype.Font
	qr     image.Image
	qrFor  string
}

// NewComposer loads the Go font for captions. On parse failure it falls
// back to basicfont and still returns a usable Composer.
func NewComposer(l logger) *Composer {
	c := &Composer{Logger: l}
	fnt, err := opentype.Parse(goregular.TTF)
	if err == nil {
		c.face, err = opentype.NewFace(fnt, &opentype.FaceOptions{Size: captionSizePt, DPI: captionDPI, Hinting: font.HintingFull})
	}
	if err != nil {
		c.face = basicfont.Face7x13
		c.errorf("font face create failed, using basicfont: %v", err)
	}
	if tt, terr := truetype.Parse(goregular.TTF); terr != nil {
		c.errorf("truetype parse failed: %v", terr)
	} else {
		c.ttFont = tt
	}
	return c
}

// Compose returns a fresh canvas for f.
func (c *Composer) Compose(f pipeline.Frame) *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, CanvasWidth, CanvasHeight))
	bg := f.Config.BackgroundColor
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)

	left, right := layout.SplitVertical(canvas.Bounds(), CanvasHeight)
	if f.Surface != nil {
		dst := layout.FitSquare(layout.Inset(left, marginPx))
		xdraw.NearestNeighbor.Scale(canvas, dst, f.Surface.Image(), f.Surface.Bounds(), xdraw.Src, nil)
	}

	right = layout.Inset(right, marginPx)
	captionRect, qrRect := layout.SplitHorizontal(right, right.Dy()-qrSizePx)
	c.drawCaption(canvas, captionRect, Caption(f), textColor(bg))
	if qr := c.qrImage(); qr != nil {
		dst := layout.Center(qrRect, qrSizePx, qrSizePx)
		draw.Draw(canvas, dst, qr, qr.Bounds().Min, draw.Src)
	}
	return canvas
}

// Caption is the text shown next to the identicon.
func Caption(f pipeline.Frame) []string {
	cfg := f.Config
	return []string{
		"input: " + cfg.InputString,
		fmt.Sprintf("rotate: %d", cfg.RotateHash),
		fmt.Sprintf("mode: %s  digest: %s", cfg.InputMode, cfg.Digest),
		"fill: " + colorLabel(render.FillPalette, cfg.FillColor),
		"background: " + colorLabel(render.BackgroundPalette, cfg.BackgroundColor),
		fmt.Sprintf("%d x %d, gutter %d", cfg.CanvasSize, cfg.CanvasSize, cfg.CanvasGutters),
	}
}

func colorLabel(p render.Palette, c color.RGBA) string {
	if name := p.NameOf(c); name != "" {
		return name
	}
	return render.Hex(c)
}

// textColor picks black or white, whichever reads better on bg.
func textColor(bg color.RGBA) color.RGBA {
	luma := (299*int(bg.R) + 587*int(bg.G) + 114*int(bg.B)) / 1000
	if luma >= 128 {
		return color.RGBA{A: 0xff}
	}
	return color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
}

func (c *Composer) drawCaption(canvas *image.RGBA, rect image.Rectangle, lines []string, fg color.RGBA) {
	lineHeight := c.face.Metrics().Height.Ceil() * 3 / 2
	ascent := c.face.Metrics().Ascent.Ceil()
	if c.ttFont != nil {
		ctx := freetype.NewContext()
		ctx.SetDPI(captionDPI)
		ctx.SetFont(c.ttFont)
		ctx.SetFontSize(captionSizePt)
		ctx.SetHinting(font.HintingFull)
		ctx.SetClip(rect)
		ctx.SetDst(canvas)
		ctx.SetSrc(image.NewUniform(fg))
		for i, line := range lines {
			if _, err := ctx.DrawString(line, freetype.Pt(rect.Min.X, rect.Min.Y+ascent+i*lineHeight)); err != nil {
				c.errorf("draw caption: %v", err)
				return
			}
		}
		return
	}
	// basicfont path; font.Drawer does not clip, so skip lines past the rect
	drawer := &font.Drawer{Dst: canvas, Src: image.NewUniform(fg), Face: c.face}
	for i, line := range lines {
		y := rect.Min.Y + ascent + i*lineHeight
		if y > rect.Max.Y {
			return
		}
		drawer.Dot = fixed.P(rect.Min.X, y)
		drawer.DrawString(line)
	}
}

func (c *Composer) qrImage() image.Image {
	if c.QRPayload == "" {
		return nil
	}
	if c.qr != nil && c.qrFor == c.QRPayload {
		return c.qr
	}
	img, err := render.QRCodeImage(c.QRPayload, qrSizePx)
	if err != nil {
		c.errorf("qr code: %v", err)
		return nil
	}
	c.qr, c.qrFor = img, c.QRPayload
	return img
}

func (c *Composer) errorf(format string, args ...interface{}) {
	if c.Logger != nil {
		c.Logger.Errorf("fb", format, args...)
	}
}
