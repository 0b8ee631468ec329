package export

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/rook-computer/identicon/internal/render"
)

// Naming is everything the download file name encodes.
type Naming struct {
	Input      string
	Rotate     int
	Fill       color.RGBA
	Background color.RGBA
	Size       int
}

// FileName returns the base name (no extension) for a download:
// identicon_input-<str>_rotate-<n>_<fill>-<background>_(<size>x<size>)
// Palette colors use their names; other colors use the hex digits.
func FileName(n Naming) string {
	return fmt.Sprintf("identicon_input-%s_rotate-%d_%s-%s_(%dx%d)",
		sanitize(n.Input), n.Rotate,
		colorName(render.FillPalette, n.Fill), colorName(render.BackgroundPalette, n.Background),
		n.Size, n.Size)
}

func colorName(p render.Palette, c color.RGBA) string {
	if name := p.NameOf(c); name != "" {
		return name
	}
	return strings.TrimPrefix(render.Hex(c), "#")
}

// sanitize keeps the name usable as a single path element and header value.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == '"':
			return '_'
		case r < 0x20 || r == 0x7f:
			return '_'
		}
		return r
	}, s)
}
