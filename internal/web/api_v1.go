package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/rook-computer/identicon/internal/export"
	"github.com/rook-computer/identicon/internal/identicon"
	"github.com/rook-computer/identicon/internal/render"
	"github.com/rook-computer/identicon/internal/state"
)

const maxRequestBody = 64 << 10

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type configResponse struct {
	CanvasSize      int            `json:"canvasSize"`
	CanvasGutters   int            `json:"canvasGutters"`
	FillColor       string         `json:"fillColor"`
	BackgroundColor string         `json:"backgroundColor"`
	InputString     string         `json:"inputString"`
	RotateHash      int            `json:"rotateHash"`
	InputMode       string         `json:"inputMode"`
	MatrixInput     identicon.Half `json:"matrixInput"`
	Digest          string         `json:"digest"`
	FileName        string         `json:"fileName"`
	Limits          state.Limits   `json:"limits"`
}

type patternResponse struct {
	Pattern identicon.Pattern `json:"pattern"`
	Rows    []string          `json:"rows"`
	Grid    string            `json:"grid"`
	Filled  int               `json:"filled"`
	Seq     uint64            `json:"seq"`
}

type paletteEntry struct {
	Name string `json:"name"`
	Hex  string `json:"hex"`
}

type paletteResponse struct {
	Fill       []paletteEntry `json:"fill"`
	Background []paletteEntry `json:"background"`
}

type inputRequest struct {
	Input  *string `json:"input"`
	Digest string  `json:"digest"`
}

type geometryRequest struct {
	Size   *int `json:"size"`
	Gutter *int `json:"gutter"`
}

type colorsRequest struct {
	Fill       string `json:"fill"`
	Background string `json:"background"`
}

type rotationRequest struct {
	Rotate *int `json:"rotate"`
}

type modeRequest struct {
	Mode string `json:"mode"`
}

type matrixRequest struct {
	Grid string `json:"grid"`
}

type toggleRequest struct {
	Row *int `json:"row"`
	Col *int `json:"col"`
}

type stepRequest struct {
	Field string `json:"field"`
	Delta int    `json:"delta"`
}

type resetRequest struct {
	Target string `json:"target"`
}

type api struct {
	deps  APIV1Deps
	cache imageCache
}

func apiV1Router(deps APIV1Deps) http.Handler {
	a := &api{deps: deps.withDefaults()}
	mux := http.NewServeMux()
	mux.HandleFunc("/config", a.handleConfig)
	mux.HandleFunc("/input", a.post(a.handleInput))
	mux.HandleFunc("/geometry", a.post(a.handleGeometry))
	mux.HandleFunc("/colors", a.post(a.handleColors))
	mux.HandleFunc("/rotation", a.post(a.handleRotation))
	mux.HandleFunc("/mode", a.post(a.handleMode))
	mux.HandleFunc("/matrix", a.post(a.handleMatrix))
	mux.HandleFunc("/matrix/toggle", a.post(a.handleToggle))
	mux.HandleFunc("/step", a.post(a.handleStep))
	mux.HandleFunc("/reset", a.post(a.handleReset))
	mux.HandleFunc("/pattern", a.get(a.handlePattern))
	mux.HandleFunc("/palette", a.get(a.handlePalette))
	mux.HandleFunc("/qr", a.get(a.handleQR))
	mux.HandleFunc("/", a.get(a.handleImage))
	return mux
}

func (a *api) get(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
			return
		}
		h(w, r)
	}
}

func (a *api) post(h func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
			return
		}
		if err := h(w, r); err != nil {
			a.writeEngineError(w, r, err)
			return
		}
		a.writeConfig(w, http.StatusOK)
	}
}

func (a *api) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	a.writeConfig(w, http.StatusOK)
}

func (a *api) handleInput(w http.ResponseWriter, r *http.Request) error {
	var req inputRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	if req.Digest != "" {
		d, err := identicon.ParseDigest(req.Digest)
		if err != nil {
			return badRequest("invalid_digest", err)
		}
		if err := a.deps.Engine.SetDigest(r.Context(), d); err != nil {
			return err
		}
	}
	if req.Input == nil {
		if req.Digest == "" {
			return badRequest("invalid_input", errors.New("input is required"))
		}
		return nil
	}
	return a.deps.Engine.InitPattern(r.Context(), *req.Input)
}

func (a *api) handleGeometry(w http.ResponseWriter, r *http.Request) error {
	var req geometryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	cfg := a.deps.Engine.Config()
	size, gutter := cfg.CanvasSize, cfg.CanvasGutters
	if req.Size != nil {
		size = *req.Size
	}
	if req.Gutter != nil {
		gutter = *req.Gutter
	}
	return a.deps.Engine.SetGeometry(size, gutter)
}

func (a *api) handleColors(w http.ResponseWriter, r *http.Request) error {
	var req colorsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	cfg := a.deps.Engine.Config()
	fill, bg := cfg.FillColor, cfg.BackgroundColor
	var err error
	if req.Fill != "" {
		if fill, err = render.FillPalette.Resolve(req.Fill); err != nil {
			return badRequest("invalid_color", err)
		}
	}
	if req.Background != "" {
		if bg, err = render.BackgroundPalette.Resolve(req.Background); err != nil {
			return badRequest("invalid_color", err)
		}
	}
	return a.deps.Engine.SetColors(fill, bg)
}

func (a *api) handleRotation(w http.ResponseWriter, r *http.Request) error {
	var req rotationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	if req.Rotate == nil {
		return badRequest("invalid_rotation", errors.New("rotate is required"))
	}
	return a.deps.Engine.SetRotation(*req.Rotate)
}

func (a *api) handleMode(w http.ResponseWriter, r *http.Request) error {
	var req modeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	mode, ok := state.ParseMode(req.Mode)
	if !ok {
		return badRequest("invalid_mode", errors.New(`mode must be "string" or "matrix"`))
	}
	return a.deps.Engine.SetMode(mode)
}

func (a *api) handleMatrix(w http.ResponseWriter, r *http.Request) error {
	var req matrixRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	g, err := identicon.ParseGrid(req.Grid)
	if err != nil {
		return badRequest("invalid_grid", err)
	}
	return a.deps.Engine.SetGrid(g)
}

func (a *api) handleToggle(w http.ResponseWriter, r *http.Request) error {
	var req toggleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	if req.Row == nil || req.Col == nil {
		return badRequest("invalid_cell", errors.New("row and col are required"))
	}
	return a.deps.Engine.ToggleCell(*req.Row, *req.Col)
}

func (a *api) handleStep(w http.ResponseWriter, r *http.Request) error {
	var req stepRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	id, ok := state.ParseNumericField(req.Field)
	if !ok {
		return badRequest("invalid_field", errors.New(`field must be "canvasSize", "canvasGutters" or "rotateHash"`))
	}
	return a.deps.Engine.Step(id, req.Delta)
}

func (a *api) handleReset(w http.ResponseWriter, r *http.Request) error {
	var req resetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	switch req.Target {
	case "canvas":
		return a.deps.Engine.ResetCanvas()
	case "input":
		return a.deps.Engine.ResetInput(r.Context())
	}
	return badRequest("invalid_target", errors.New(`target must be "canvas" or "input"`))
}

func (a *api) handlePattern(w http.ResponseWriter, r *http.Request) {
	f, ok := a.deps.Engine.Current()
	if !ok {
		writeAPIError(w, http.StatusServiceUnavailable, "not_ready", "no pattern rendered yet")
		return
	}
	writeJSON(w, http.StatusOK, patternResponse{
		Pattern: f.Pattern,
		Rows:    strings.Split(f.Pattern.String(), "\n"),
		Grid:    f.Config.MatrixInput.Grid().String(),
		Filled:  f.Pattern.Filled(),
		Seq:     f.Seq,
	})
}

func (a *api) handlePalette(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, paletteResponse{
		Fill:       paletteEntries(render.FillPalette),
		Background: paletteEntries(render.BackgroundPalette),
	})
}

func paletteEntries(p render.Palette) []paletteEntry {
	out := make([]paletteEntry, 0, len(p))
	for _, c := range p {
		out = append(out, paletteEntry{Name: c.Name, Hex: render.Hex(c.Color)})
	}
	return out
}

func (a *api) handleQR(w http.ResponseWriter, r *http.Request) {
	base := a.deps.PublicURL
	if base == "" {
		base = "http://" + r.Host
	}
	data, err := render.QRCodePNG(strings.TrimSuffix(base, "/")+"/api/v1/image.png", 0)
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, "qr_failed", err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(data)
}

// handleImage serves /image.<ext>, optionally ?size=N for a thumbnail.
func (a *api) handleImage(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/")
	ext, ok := strings.CutPrefix(name, "image.")
	if !ok {
		writeAPIError(w, http.StatusNotFound, "not_found", "not found")
		return
	}
	format, err := export.ParseFormat(ext)
	if err != nil {
		writeAPIError(w, http.StatusNotFound, "unsupported_format", err.Error())
		return
	}
	opts := a.deps.Export
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > a.deps.Engine.Limits().CanvasSize.Max {
			writeAPIError(w, http.StatusBadRequest, "invalid_size", "size must be a positive integer within the canvas limits")
			return
		}
		opts.ThumbnailSizePx = n
	}

	f, ok := a.deps.Engine.Current()
	if !ok {
		writeAPIError(w, http.StatusServiceUnavailable, "not_ready", "no pattern rendered yet")
		return
	}
	key := imageKey{seq: f.Seq, format: format, thumb: opts.ThumbnailSizePx}
	entry, err := a.cache.get(key, func() ([]byte, error) {
		var buf bytes.Buffer
		if err := export.Encode(&buf, f.Surface, format, opts); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	})
	if err != nil {
		a.deps.Logger.Errorf("web", "encode %s: %v", format, err)
		writeAPIError(w, http.StatusInternalServerError, "encode_failed", err.Error())
		return
	}

	w.Header().Set("ETag", entry.etag)
	w.Header().Set("Cache-Control", "no-cache")
	if match := r.Header.Get("If-None-Match"); match != "" && match == entry.etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	setDownloadHeaders(w, f.Name+"."+format.Ext(), format.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(len(entry.data)))
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(entry.data)
}

type imageKey struct {
	seq    uint64
	format export.Format
	thumb  int
}

type imageEntry struct {
	data []byte
	etag string
}

// imageCache keeps the encodings of the latest frame only.
type imageCache struct {
	mu      sync.Mutex
	seq     uint64
	entries map[imageKey]imageEntry
}

func (c *imageCache) get(key imageKey, encode func() ([]byte, error)) (imageEntry, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return e, nil
	}
	c.mu.Unlock()

	data, err := encode()
	if err != nil {
		return imageEntry{}, err
	}
	e := imageEntry{data: data, etag: export.ETag(data)}

	c.mu.Lock()
	defer c.mu.Unlock()
	if key.seq < c.seq {
		return e, nil
	}
	if key.seq > c.seq || c.entries == nil {
		c.seq = key.seq
		c.entries = make(map[imageKey]imageEntry)
	}
	c.entries[key] = e
	return e, nil
}

func (a *api) writeConfig(w http.ResponseWriter, status int) {
	cfg := a.deps.Engine.Config()
	name := ""
	if f, ok := a.deps.Engine.Current(); ok {
		name = f.Name
	}
	writeJSON(w, status, configResponse{
		CanvasSize:      cfg.CanvasSize,
		CanvasGutters:   cfg.CanvasGutters,
		FillColor:       render.Hex(cfg.FillColor),
		BackgroundColor: render.Hex(cfg.BackgroundColor),
		InputString:     cfg.InputString,
		RotateHash:      cfg.RotateHash,
		InputMode:       cfg.InputMode.String(),
		MatrixInput:     cfg.MatrixInput,
		Digest:          cfg.Digest.String(),
		FileName:        name,
		Limits:          a.deps.Engine.Limits(),
	})
}

type requestError struct {
	code string
	err  error
}

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func badRequest(code string, err error) error { return &requestError{code: code, err: err} }

func (a *api) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		writeAPIError(w, http.StatusBadRequest, reqErr.code, reqErr.Error())
	case errors.Is(err, identicon.ErrCellOutOfRange):
		writeAPIError(w, http.StatusBadRequest, "invalid_cell", err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeAPIError(w, http.StatusServiceUnavailable, "canceled", err.Error())
	case errors.Is(err, identicon.ErrHashFailure):
		a.deps.Logger.Errorf("web", "%s %s: %v", r.Method, r.URL.Path, err)
		writeAPIError(w, http.StatusInternalServerError, "hash_failed", err.Error())
	default:
		a.deps.Logger.Errorf("web", "%s %s: %v", r.Method, r.URL.Path, err)
		writeAPIError(w, http.StatusInternalServerError, "internal", err.Error())
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest("invalid_json", err)
	}
	return nil
}

func setDownloadHeaders(w http.ResponseWriter, filename, contentType string) {
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	cd := mime.FormatMediaType("attachment", map[string]string{"filename": filename})
	w.Header().Set("Content-Disposition", cd)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, apiError{Error: code, Message: message})
}
