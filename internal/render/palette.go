package render

import (
	"image/color"
	"strings"
)

// NamedColor is a palette entry.
type NamedColor struct {
	Name  string
	Color color.RGBA
}

// Palette is an ordered list of named colors.
type Palette []NamedColor

// Fill and background palettes offered by the control surface.
var (
	FillPalette = Palette{
		{"Green-1", rgb(0xacd88c)},
		{"Green-2", rgb(0x8cd890)},
		{"Green-3", rgb(0x8cd895)},
		{"Orange-1", rgb(0xd8a78c)},
		{"Purple-1", rgb(0xb68cd8)},
		{"Pink-1", rgb(0xc08cd8)},
		{"Pink-2", rgb(0xca8cd8)},
		{"Pink-3", rgb(0xd08cd8)},
		{"Dark-1", rgb(0x998cd8)},
		{"Dark-2", rgb(0x8e8cd8)},
		{"Dark-3", rgb(0x8c99d8)},
		{"Sky-1", rgb(0x8cbbd8)},
		{"Sky-2", rgb(0x8cbfd8)},
		{"Sky-3", rgb(0x8cbcd8)},
		{"Sky-4", rgb(0x8cc4d8)},
		{"Sky-5", rgb(0x8cc6d8)},
		{"Sky-6", rgb(0x8ccbd8)},
		{"Aqua-1", rgb(0x8cd8d2)},
		{"Aqua-2", rgb(0x8cd8d7)},
		{"Forest-1", rgb(0x8cd8c3)},
		{"Forest-2", rgb(0x8cd8aa)},
		{"Forest-3", rgb(0x8cd8af)},
	}
	BackgroundPalette = Palette{
		{"github", rgb(0xf0f0f0)},
		{"slack", rgb(0xf2f8f7)},
		{"white", rgb(0xffffff)},
	}

	DefaultFill       = rgb(0x8cbfd8) // Sky-2
	DefaultBackground = rgb(0xffffff) // white
)

func rgb(v uint32) color.RGBA {
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}
}

// NameOf returns the palette name of c, or "" when c is not in the palette.
func (p Palette) NameOf(c color.RGBA) string {
	for _, nc := range p {
		if nc.Color == c {
			return nc.Name
		}
	}
	return ""
}

// Lookup finds a color by name, case-insensitively.
func (p Palette) Lookup(name string) (color.RGBA, bool) {
	for _, nc := range p {
		if strings.EqualFold(nc.Name, name) {
			return nc.Color, true
		}
	}
	return color.RGBA{}, false
}

// Resolve accepts either a palette name or a hex color.
func (p Palette) Resolve(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if c, ok := p.Lookup(s); ok {
		return c, nil
	}
	return ParseColor(s)
}
