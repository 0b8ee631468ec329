package web

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "image/png"

	"github.com/rook-computer/identicon/internal/identicon"
	"github.com/rook-computer/identicon/internal/pipeline"
	"github.com/rook-computer/identicon/internal/state"
)

func newTestAPI(t *testing.T) (*pipeline.Engine, http.Handler) {
	t.Helper()
	e := pipeline.NewEngine(state.NewStore(state.Defaults()), nil)
	require.NoError(t, e.InitPattern(context.Background(), "test"))
	return e, NewDefaultMux(APIV1Deps{Engine: e})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeConfig(t *testing.T, rec *httptest.ResponseRecorder) configResponse {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var cfg configResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	return cfg
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apiError {
	t.Helper()
	var e apiError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	return e
}

func TestGetConfig(t *testing.T) {
	_, h := newTestAPI(t)
	cfg := decodeConfig(t, do(t, h, http.MethodGet, "/api/v1/config", ""))
	assert.Equal(t, 960, cfg.CanvasSize)
	assert.Equal(t, 80, cfg.CanvasGutters)
	assert.Equal(t, "#8cbfd8", cfg.FillColor)
	assert.Equal(t, "test", cfg.InputString)
	assert.Equal(t, "string", cfg.InputMode)
	assert.Equal(t, "sha256", cfg.Digest)
	assert.Equal(t, "identicon_input-test_rotate-0_Sky-2-white_(960x960)", cfg.FileName)
	assert.Equal(t, 4096, cfg.Limits.CanvasSize.Max)

	rec := do(t, h, http.MethodPost, "/api/v1/config", "{}")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestPostInput(t *testing.T) {
	e, h := newTestAPI(t)
	cfg := decodeConfig(t, do(t, h, http.MethodPost, "/api/v1/input", `{"input":"hello"}`))
	assert.Equal(t, "hello", cfg.InputString)
	assert.Contains(t, cfg.FileName, "input-hello")

	want, err := identicon.BuildMatrix(e.Bits())
	require.NoError(t, err)
	f, _ := e.Current()
	assert.Equal(t, want, f.Pattern)

	cfg = decodeConfig(t, do(t, h, http.MethodPost, "/api/v1/input", `{"digest":"blake3"}`))
	assert.Equal(t, "blake3", cfg.Digest)

	rec := do(t, h, http.MethodPost, "/api/v1/input", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_input", decodeError(t, rec).Error)

	rec = do(t, h, http.MethodPost, "/api/v1/input", `{"digest":"md5"}`)
	assert.Equal(t, "invalid_digest", decodeError(t, rec).Error)

	rec = do(t, h, http.MethodPost, "/api/v1/input", `{"input":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_json", decodeError(t, rec).Error)

	rec = do(t, h, http.MethodGet, "/api/v1/input", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestPostColorsAndGeometry(t *testing.T) {
	_, h := newTestAPI(t)
	cfg := decodeConfig(t, do(t, h, http.MethodPost, "/api/v1/colors", `{"fill":"Forest-3","background":"#000"}`))
	assert.Equal(t, "#8cd8af", cfg.FillColor)
	assert.Equal(t, "#000000", cfg.BackgroundColor)

	rec := do(t, h, http.MethodPost, "/api/v1/colors", `{"fill":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_color", decodeError(t, rec).Error)

	cfg = decodeConfig(t, do(t, h, http.MethodPost, "/api/v1/geometry", `{"size":200}`))
	assert.Equal(t, 200, cfg.CanvasSize)
	assert.Equal(t, 50, cfg.CanvasGutters, "gutter clamped to a quarter of the size")

	cfg = decodeConfig(t, do(t, h, http.MethodPost, "/api/v1/geometry", `{"gutter":10}`))
	assert.Equal(t, 200, cfg.CanvasSize)
	assert.Equal(t, 10, cfg.CanvasGutters)
}

func TestRotationAndPattern(t *testing.T) {
	_, h := newTestAPI(t)
	cfg := decodeConfig(t, do(t, h, http.MethodPost, "/api/v1/rotation", `{"rotate":5}`))
	assert.Equal(t, 5, cfg.RotateHash)

	rec := do(t, h, http.MethodGet, "/api/v1/pattern", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var p patternResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, identicon.Pattern{
		{1, 0, 0, 0, 1},
		{1, 0, 1, 0, 1},
		{1, 0, 1, 0, 1},
		{1, 1, 0, 1, 1},
		{0, 1, 1, 1, 0},
	}, p.Pattern)
	assert.Equal(t, "#...#", p.Rows[0])

	rec = do(t, h, http.MethodPost, "/api/v1/rotation", `{}`)
	assert.Equal(t, "invalid_rotation", decodeError(t, rec).Error)
}

func TestMatrixEndpoints(t *testing.T) {
	_, h := newTestAPI(t)
	cfg := decodeConfig(t, do(t, h, http.MethodPost, "/api/v1/matrix", `{"grid":"11111/00000/11111"}`))
	assert.Equal(t, "matrix", cfg.InputMode)

	var p patternResponse
	rec := do(t, h, http.MethodGet, "/api/v1/pattern", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "11111/00000/11111", p.Grid)
	before := p.Pattern

	decodeConfig(t, do(t, h, http.MethodPost, "/api/v1/matrix/toggle", `{"row":0,"col":0}`))
	rec = do(t, h, http.MethodGet, "/api/v1/pattern", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.NotEqual(t, before[0][0], p.Pattern[0][0])
	assert.Equal(t, p.Pattern[0][0], p.Pattern[0][4])

	rec = do(t, h, http.MethodPost, "/api/v1/matrix/toggle", `{"row":9,"col":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_cell", decodeError(t, rec).Error)

	rec = do(t, h, http.MethodPost, "/api/v1/matrix", `{"grid":"101"}`)
	assert.Equal(t, "invalid_grid", decodeError(t, rec).Error)

	cfg = decodeConfig(t, do(t, h, http.MethodPost, "/api/v1/mode", `{"mode":"string"}`))
	assert.Equal(t, "string", cfg.InputMode)
	rec = do(t, h, http.MethodPost, "/api/v1/mode", `{"mode":"other"}`)
	assert.Equal(t, "invalid_mode", decodeError(t, rec).Error)
}

func TestImageDownload(t *testing.T) {
	e, h := newTestAPI(t)
	rec := do(t, h, http.MethodGet, "/api/v1/image.png", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	disposition, params, err := mime.ParseMediaType(rec.Header().Get("Content-Disposition"))
	require.NoError(t, err)
	assert.Equal(t, "attachment", disposition)
	assert.Equal(t, "identicon_input-test_rotate-0_Sky-2-white_(960x960).png", params["filename"])

	img, _, err := image.Decode(rec.Body)
	require.NoError(t, err)
	f, _ := e.Current()
	src := f.Surface.Image()
	for _, pt := range []image.Point{{0, 0}, {100, 100}, {500, 300}, {879, 879}} {
		assert.Equal(t, src.RGBAAt(pt.X, pt.Y), color.RGBAModel.Convert(img.At(pt.X, pt.Y)), "pixel %v", pt)
	}

	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/image.png", nil)
	req.Header.Set("If-None-Match", etag)
	cached := httptest.NewRecorder()
	h.ServeHTTP(cached, req)
	assert.Equal(t, http.StatusNotModified, cached.Code)

	decodeConfig(t, do(t, h, http.MethodPost, "/api/v1/rotation", `{"rotate":1}`))
	changed := httptest.NewRecorder()
	h.ServeHTTP(changed, req)
	assert.Equal(t, http.StatusOK, changed.Code, "a new frame has a new ETag")
	assert.NotEqual(t, etag, changed.Header().Get("ETag"))
}

func TestImageFormatsAndThumbnails(t *testing.T) {
	_, h := newTestAPI(t)
	rec := do(t, h, http.MethodGet, "/api/v1/image.svg", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")

	rec = do(t, h, http.MethodGet, "/api/v1/image.png?size=32", "")
	require.Equal(t, http.StatusOK, rec.Code)
	cfg, _, err := image.DecodeConfig(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 32, cfg.Width)

	rec = do(t, h, http.MethodGet, "/api/v1/image.png?size=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/image.webp", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "unsupported_format", decodeError(t, rec).Error)

	rec = do(t, h, http.MethodGet, "/api/v1/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/api/v1/image.png", rec.Header().Get("Location"))
}

func TestPaletteAndQR(t *testing.T) {
	_, h := newTestAPI(t)
	rec := do(t, h, http.MethodGet, "/api/v1/palette", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var p paletteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Len(t, p.Fill, 22)
	assert.Len(t, p.Background, 3)
	assert.Equal(t, paletteEntry{Name: "white", Hex: "#ffffff"}, p.Background[2])

	rec = do(t, h, http.MethodGet, "/api/v1/qr", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	_, name, err := image.DecodeConfig(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, "png", name)
}

func TestNotReady(t *testing.T) {
	e := pipeline.NewEngine(state.NewStore(state.Defaults()), nil)
	h := NewDefaultMux(APIV1Deps{Engine: e})
	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodGet, "/api/v1/pattern", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodGet, "/api/v1/image.png", "").Code)
	decodeConfig(t, do(t, h, http.MethodGet, "/api/v1/config", ""))
}

func TestStepAndReset(t *testing.T) {
	_, h := newTestAPI(t)

	cfg := decodeConfig(t, do(t, h, http.MethodPost, "/api/v1/step", `{"field":"rotateHash","delta":3}`))
	assert.Equal(t, 3, cfg.RotateHash)
	cfg = decodeConfig(t, do(t, h, http.MethodPost, "/api/v1/step", `{"field":"rotateHash","delta":-10}`))
	assert.Equal(t, 0, cfg.RotateHash, "clamped to the lower limit")
	cfg = decodeConfig(t, do(t, h, http.MethodPost, "/api/v1/step", `{"field":"canvasSize","delta":-8}`))
	assert.Equal(t, 952, cfg.CanvasSize)

	rec := do(t, h, http.MethodPost, "/api/v1/step", `{"field":"hue","delta":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_field", decodeError(t, rec).Error)

	decodeConfig(t, do(t, h, http.MethodPost, "/api/v1/input", `{"input":"hello"}`))
	decodeConfig(t, do(t, h, http.MethodPost, "/api/v1/rotation", `{"rotate":4}`))
	cfg = decodeConfig(t, do(t, h, http.MethodPost, "/api/v1/reset", `{"target":"input"}`))
	assert.Equal(t, "test", cfg.InputString)
	assert.Equal(t, 0, cfg.RotateHash)

	cfg = decodeConfig(t, do(t, h, http.MethodPost, "/api/v1/reset", `{"target":"canvas"}`))
	assert.Equal(t, 960, cfg.CanvasSize)
	assert.Equal(t, 80, cfg.CanvasGutters)

	var p patternResponse
	rec = do(t, h, http.MethodGet, "/api/v1/pattern", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, identicon.Pattern{
		{1, 1, 0, 1, 1},
		{0, 1, 0, 1, 0},
		{0, 1, 0, 1, 0},
		{1, 1, 1, 1, 1},
		{1, 0, 1, 0, 1},
	}, p.Pattern)

	rec = do(t, h, http.MethodPost, "/api/v1/reset", `{"target":"everything"}`)
	assert.Equal(t, "invalid_target", decodeError(t, rec).Error)
}
