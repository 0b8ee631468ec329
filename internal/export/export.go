package export

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"

	svg "github.com/ajstarks/svgo"
	"github.com/disintegration/imaging"
	"github.com/minio/highwayhash"

	"github.com/rook-computer/identicon/internal/identicon"
	"github.com/rook-computer/identicon/internal/render"
)

// Options tunes the lossy and compressed encoders.
type Options struct {
	JPEGQuality     int
	PNGCompression  png.CompressionLevel
	GIFColors       int
	ThumbnailSizePx int
}

var DefaultOptions = Options{
	JPEGQuality:    95,
	PNGCompression: png.DefaultCompression,
	GIFColors:      256,
}

// Encode writes the surface to w in format f.
func Encode(w io.Writer, s *render.Surface, f Format, opts Options) error {
	if s == nil {
		return fmt.Errorf("export: nil surface")
	}
	if f == SVG {
		return encodeSVG(w, s)
	}
	imf, ok := f.imaging()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(f))
	}
	var img image.Image = s.Image()
	if opts.ThumbnailSizePx > 0 && opts.ThumbnailSizePx != s.Geometry.Size {
		img = Thumbnail(s, opts.ThumbnailSizePx)
	}
	if opts.JPEGQuality <= 0 {
		opts.JPEGQuality = DefaultOptions.JPEGQuality
	}
	if opts.GIFColors <= 0 {
		opts.GIFColors = DefaultOptions.GIFColors
	}
	return imaging.Encode(w, img, imf,
		imaging.JPEGQuality(opts.JPEGQuality),
		imaging.PNGCompressionLevel(opts.PNGCompression),
		imaging.GIFNumColors(opts.GIFColors),
	)
}

// Thumbnail returns a Lanczos-resampled copy of the surface, sizePx square.
func Thumbnail(s *render.Surface, sizePx int) *image.NRGBA {
	return imaging.Resize(s.Image(), sizePx, sizePx, imaging.Lanczos)
}

// encodeSVG draws the pattern as vector rectangles. Coordinates are scaled by
// the pattern size so fractional tile edges stay exact integers in the viewBox.
func encodeSVG(w io.Writer, s *render.Surface) error {
	g := s.Geometry
	const k = identicon.PatternSize
	canvas := svg.New(w)
	canvas.Startview(g.Size, g.Size, 0, 0, g.Size*k, g.Size*k)
	canvas.Rect(0, 0, g.Size*k, g.Size*k, "fill:"+render.Hex(s.Colors.Background))
	if !g.Degenerate() {
		tile := g.Size - g.Gutter*2
		fill := "fill:" + render.Hex(s.Colors.Fill)
		for i, row := range s.Pattern {
			for j, c := range row {
				if c != 1 {
					continue
				}
				canvas.Rect(j*tile+g.Gutter*k, i*tile+g.Gutter*k, tile, tile, fill)
			}
		}
	}
	canvas.End()
	return nil
}

// etagKey is a fixed HighwayHash key; ETags only need to be stable, not secret.
var etagKey = []byte("identicon-etag-highwayhash-key!!")

// ETag returns a quoted strong entity tag for encoded image bytes.
func ETag(data []byte) string {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], highwayhash.Sum64(data, etagKey))
	return fmt.Sprintf("%q", fmt.Sprintf("%x", b))
}

// Save encodes into a temporary file next to path and renames it into place.
func Save(path string, s *render.Surface, f Format, opts Options) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".identicon-*")
	if err != nil {
		return fmt.Errorf("export: create temp: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := Encode(tmp, s, f, opts); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("export: close %s: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("export: chmod: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("export: rename to %s: %w", path, err)
	}
	return nil
}
