package export

import (
	"errors"
	"fmt"
	"strings"

	"github.com/disintegration/imaging"
)

var ErrUnsupportedFormat = errors.New("export: unsupported image format")

// Format is an output encoding for a rendered surface.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	GIF  Format = "gif"
	BMP  Format = "bmp"
	TIFF Format = "tiff"
	SVG  Format = "svg"
)

// Formats lists every supported format, lossless ones first.
var Formats = []Format{PNG, BMP, TIFF, SVG, JPEG, GIF}

var formatAliases = map[string]Format{
	"png":  PNG,
	"jpeg": JPEG,
	"jpg":  JPEG,
	"gif":  GIF,
	"bmp":  BMP,
	"tif":  TIFF,
	"tiff": TIFF,
	"svg":  SVG,
}

// ParseFormat accepts a format name or file extension, with or without a leading dot.
func ParseFormat(s string) (Format, error) {
	key := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))
	if f, ok := formatAliases[key]; ok {
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// Ext is the file extension without the dot.
func (f Format) Ext() string { return string(f) }

func (f Format) ContentType() string {
	switch f {
	case SVG:
		return "image/svg+xml"
	case TIFF:
		return "image/tiff"
	default:
		return "image/" + string(f)
	}
}

// Lossless reports whether decoding the output yields the surface pixels exactly.
func (f Format) Lossless() bool {
	switch f {
	case PNG, BMP, TIFF:
		return true
	}
	return false
}

func (f Format) imaging() (imaging.Format, bool) {
	switch f {
	case PNG:
		return imaging.PNG, true
	case JPEG:
		return imaging.JPEG, true
	case GIF:
		return imaging.GIF, true
	case BMP:
		return imaging.BMP, true
	case TIFF:
		return imaging.TIFF, true
	}
	return 0, false
}
