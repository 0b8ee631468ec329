package render

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rook-computer/identicon/internal/identicon"
)

var (
	testFill = color.RGBA{R: 0x8c, G: 0xbf, B: 0xd8, A: 0xff}
	testBg   = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	testPat  = identicon.Pattern{
		{1, 1, 0, 1, 1},
		{0, 1, 0, 1, 0},
		{0, 1, 0, 1, 0},
		{1, 1, 1, 1, 1},
		{1, 0, 1, 0, 1},
	}
)

func TestGeometry(t *testing.T) {
	g := Geometry{Size: 960, Gutter: 80}
	assert.Equal(t, 160.0, g.TileWidth())
	assert.Equal(t, 240, g.MaxGutter())
	assert.False(t, g.Degenerate())

	assert.InDelta(t, 19.6, Geometry{Size: 100, Gutter: 1}.TileWidth(), 1e-9)
	assert.Equal(t, Geometry{Size: 100, Gutter: 25}, Geometry{Size: 100, Gutter: 60}.Clamp())
	assert.Equal(t, Geometry{Size: 100, Gutter: 0}, Geometry{Size: 100, Gutter: -4}.Clamp())
	assert.True(t, Geometry{Size: 100, Gutter: 50}.Degenerate())
	assert.ErrorIs(t, Geometry{Size: 0}.Validate(), ErrInvalidGeometry)
}

func TestParseColor(t *testing.T) {
	testCases := []struct {
		name    string
		in      string
		want    color.RGBA
		wantErr bool
	}{
		{"six digits", "#8cbfd8", color.RGBA{R: 0x8c, G: 0xbf, B: 0xd8, A: 0xff}, false},
		{"three digits", "#0f0", color.RGBA{G: 0xff, A: 0xff}, false},
		{"upper case", "#FFFFFF", color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, false},
		{"missing hash", "8cbfd8", color.RGBA{}, true},
		{"bad length", "#12345", color.RGBA{}, true},
		{"bad digit", "#gg0000", color.RGBA{}, true},
		{"empty", "", color.RGBA{}, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseColor(tc.in)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrColorFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, len("#rrggbb"), len(Hex(got)))
		})
	}
}

func TestPalette(t *testing.T) {
	assert.Equal(t, "Sky-2", FillPalette.NameOf(DefaultFill))
	assert.Equal(t, "white", BackgroundPalette.NameOf(DefaultBackground))
	assert.Equal(t, "", FillPalette.NameOf(color.RGBA{A: 0xff}))

	c, err := FillPalette.Resolve("forest-3")
	require.NoError(t, err)
	assert.Equal(t, "#8cd8af", Hex(c))

	c, err = BackgroundPalette.Resolve("#123")
	require.NoError(t, err)
	assert.Equal(t, "#112233", Hex(c))

	_, err = BackgroundPalette.Resolve("nope")
	assert.ErrorIs(t, err, ErrColorFormat)
}

func TestRenderReferenceGeometry(t *testing.T) {
	g := Geometry{Size: 960, Gutter: 80}
	s, err := NewRenderer().Render(testPat, g, Colors{Fill: testFill, Background: testBg})
	require.NoError(t, err)
	img := s.Image()
	require.Equal(t, image.Rect(0, 0, 960, 960), img.Bounds())

	// every pixel inside a tile has the cell's color, every gutter pixel is background
	for y := 0; y < 960; y++ {
		for x := 0; x < 960; x++ {
			want := testBg
			if x >= 80 && x < 880 && y >= 80 && y < 880 {
				row, col := (y-80)/160, (x-80)/160
				if testPat[row][col] == 1 {
					want = testFill
				}
			}
			if got := img.RGBAAt(x, y); got != want {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}

	x0, y0, x1, y1 := s.TileRect(4, 2)
	assert.Equal(t, []float64{400, 720, 560, 880}, []float64{x0, y0, x1, y1})
	assert.Equal(t, image.Rect(80, 80, 880, 880), s.PatternRect())
}

func TestRenderDegenerate(t *testing.T) {
	full := identicon.Pattern{}
	for i := range full {
		for j := range full[i] {
			full[i][j] = 1
		}
	}
	for _, g := range []Geometry{{Size: 100, Gutter: 50}, {Size: 100, Gutter: 70}, {Size: 3, Gutter: 2}} {
		s, err := NewRenderer().Render(full, g, Colors{Fill: testFill, Background: testBg})
		require.NoError(t, err)
		img := s.Image()
		for i := 0; i < len(img.Pix); i += 4 {
			require.Equal(t, []uint8{testBg.R, testBg.G, testBg.B, testBg.A}, img.Pix[i:i+4], "geometry %+v", g)
		}
	}
}

func TestRenderInvalidSize(t *testing.T) {
	_, err := NewRenderer().Render(testPat, Geometry{Size: 0}, Colors{})
	assert.ErrorIs(t, err, ErrInvalidGeometry)
}

func TestRenderIdempotentAndFresh(t *testing.T) {
	r := NewRenderer()
	g := Geometry{Size: 97, Gutter: 7}
	c := Colors{Fill: testFill, Background: testBg}
	a, err := r.Render(testPat, g, c)
	require.NoError(t, err)
	b, err := r.Render(testPat, g, c)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(a.Image().Pix, b.Image().Pix))
	assert.NotSame(t, a.Image(), b.Image())

	// a different configuration leaves nothing of the previous one behind
	other := Colors{Fill: color.RGBA{R: 0xff, A: 0xff}, Background: color.RGBA{B: 0xff, A: 0xff}}
	d, err := r.Render(identicon.Pattern{}, g, other)
	require.NoError(t, err)
	for i := 0; i < len(d.Image().Pix); i += 4 {
		require.Equal(t, []uint8{0, 0, 0xff, 0xff}, d.Image().Pix[i:i+4])
	}
}

func TestRenderFractionalTilesHaveNoSeams(t *testing.T) {
	full := identicon.Pattern{}
	for i := range full {
		for j := range full[i] {
			full[i][j] = 1
		}
	}
	// tile width 19.6: inner tile borders fall between pixel centers
	g := Geometry{Size: 100, Gutter: 1}
	s, err := NewRenderer().Render(full, g, Colors{Fill: testFill, Background: testBg})
	require.NoError(t, err)
	img := s.Image()
	for y := 2; y < 98; y++ {
		for x := 2; x < 98; x++ {
			require.Equal(t, testFill, img.RGBAAt(x, y), "pixel (%d,%d)", x, y)
		}
	}
	assert.Equal(t, testBg, img.RGBAAt(0, 0))
	assert.Equal(t, testBg, img.RGBAAt(99, 99))
}

func TestQRCode(t *testing.T) {
	img, err := QRCodeImage("http://127.0.0.1:8080/api/v1/image.png", 128)
	require.NoError(t, err)
	assert.Equal(t, 128, img.Bounds().Dx())

	_, err = QRCodeImage("", 128)
	assert.ErrorIs(t, err, ErrEmptyPayload)

	data, err := QRCodePNG("hello", 0)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
}
