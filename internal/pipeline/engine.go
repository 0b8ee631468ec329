package pipeline

import (
	"context"
	"image/color"
	"sync"
	"sync/atomic"

	"github.com/rook-computer/identicon/internal/export"
	"github.com/rook-computer/identicon/internal/identicon"
	"github.com/rook-computer/identicon/internal/render"
	"github.com/rook-computer/identicon/internal/state"
)

// Frame is one published render together with what produced it.
type Frame struct {
	Seq     uint64
	Surface *render.Surface
	Pattern identicon.Pattern
	Bits    identicon.Bits
	Config  state.Config
	// Name is the download base name, without extension.
	Name string
}

// Stats counts how often each stage ran.
type Stats struct {
	Hashes   uint64
	Matrices uint64
	Renders  uint64
}

type Logger interface {
	Infof(component string, format string, args ...interface{})
	Errorf(component string, format string, args ...interface{})
}

type stage uint8

const (
	stageHash stage = 1 << iota
	stageMatrix
	stageRender
)

// Engine runs hash -> rotate/matrix -> render over a Store. Each mutation
// reruns only the stages downstream of the fields it changed: a color change
// renders again without hashing or rebuilding the matrix.
//
// Stage runs are serialized. Hashing happens outside the lock; a hash result
// is applied only if no newer hash was requested meanwhile, so the latest
// input always wins regardless of completion order.
type Engine struct {
	Store    *state.Store
	Renderer *render.Renderer
	Logger   Logger
	// Hashers returns the hasher for a digest; identicon.NewHasher by default.
	Hashers func(identicon.Digest) identicon.Hasher

	mu      sync.Mutex
	bits    identicon.Bits
	bitsFor bitsKey
	gen     uint64
	seq     uint64
	subs    map[int]func(Frame)
	nextSub int

	frame    atomic.Pointer[Frame]
	hashes   atomic.Uint64
	matrices atomic.Uint64
	renders  atomic.Uint64
}

// bitsKey is the input and digest a bit sequence was hashed from.
type bitsKey struct {
	input  string
	digest identicon.Digest
}

func NewEngine(store *state.Store, renderer *render.Renderer) *Engine {
	if renderer == nil {
		renderer = render.NewRenderer()
	}
	return &Engine{Store: store, Renderer: renderer}
}

// Current returns the latest frame, if any has been rendered.
func (e *Engine) Current() (Frame, bool) {
	f := e.frame.Load()
	if f == nil {
		return Frame{}, false
	}
	return *f, true
}

// Config is the store's current configuration. It can be ahead of the last
// frame, e.g. a rotation edited while in matrix mode.
func (e *Engine) Config() state.Config { return e.Store.Snapshot() }

func (e *Engine) Limits() state.Limits { return e.Store.Limits() }

// Bits returns the last successfully hashed sequence, before rotation.
func (e *Engine) Bits() identicon.Bits {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bits
}

func (e *Engine) Stats() Stats {
	return Stats{Hashes: e.hashes.Load(), Matrices: e.matrices.Load(), Renders: e.renders.Load()}
}

// Subscribe registers fn for every new frame. fn runs synchronously while the
// engine is locked and must not call back into Engine mutators.
func (e *Engine) Subscribe(fn func(Frame)) (cancel func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.subs == nil {
		e.subs = make(map[int]func(Frame))
	}
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	return func() {
		e.mu.Lock()
		delete(e.subs, id)
		e.mu.Unlock()
	}
}

// InitPattern sets the input string and runs the whole pipeline for it.
func (e *Engine) InitPattern(ctx context.Context, input string) error {
	e.mu.Lock()
	e.Store.SetInput(input)
	gen, cfg := e.beginHashLocked()
	e.mu.Unlock()
	return e.finishHash(ctx, gen, cfg)
}

// Refresh hashes the stored input again and redraws.
func (e *Engine) Refresh(ctx context.Context) error {
	e.mu.Lock()
	gen, cfg := e.beginHashLocked()
	e.mu.Unlock()
	return e.finishHash(ctx, gen, cfg)
}

// SetDigest switches the digest and rehashes the current input.
func (e *Engine) SetDigest(ctx context.Context, d identicon.Digest) error {
	e.mu.Lock()
	if e.Store.SetDigest(d) == state.FieldNone && e.bitsCurrentLocked(e.Store.Snapshot()) {
		e.mu.Unlock()
		return nil
	}
	gen, cfg := e.beginHashLocked()
	e.mu.Unlock()
	return e.finishHash(ctx, gen, cfg)
}

func (e *Engine) SetGeometry(size, gutter int) error {
	return e.mutate(func(s *state.Store) state.Field { return s.SetGeometry(size, gutter) })
}

func (e *Engine) SetCanvasSize(size int) error {
	return e.mutate(func(s *state.Store) state.Field { return s.SetCanvasSize(size) })
}

func (e *Engine) SetGutters(gutter int) error {
	return e.mutate(func(s *state.Store) state.Field { return s.SetGutters(gutter) })
}

func (e *Engine) SetColors(fill, background color.RGBA) error {
	return e.mutate(func(s *state.Store) state.Field { return s.SetColors(fill, background) })
}

func (e *Engine) SetRotation(rotate int) error {
	return e.mutate(func(s *state.Store) state.Field { return s.SetRotation(rotate) })
}

func (e *Engine) SetMode(mode state.Mode) error {
	return e.mutate(func(s *state.Store) state.Field { return s.SetMode(mode) })
}

// SetMatrix replaces the hand-edited half and switches to matrix mode.
func (e *Engine) SetMatrix(h identicon.Half) error {
	return e.mutate(func(s *state.Store) state.Field { return s.SetMode(state.ModeMatrix) | s.SetMatrix(h) })
}

// SetGrid is SetMatrix for a 3x5 grid in hash order.
func (e *Engine) SetGrid(g identicon.Grid) error {
	return e.SetMatrix(g.Transpose())
}

// ToggleCell flips one cell of the half and switches to matrix mode.
func (e *Engine) ToggleCell(row, col int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	changed, err := e.Store.ToggleCell(row, col)
	if err != nil {
		return err
	}
	changed |= e.Store.SetMode(state.ModeMatrix)
	return e.applyLocked(changed)
}

// Step adds delta to a numeric field, clamped to its limits.
func (e *Engine) Step(id state.NumericField, delta int) error {
	return e.mutate(func(s *state.Store) state.Field { return s.Adjust(id, delta) })
}

// ResetCanvas restores the default size and gutter.
func (e *Engine) ResetCanvas() error {
	return e.mutate(func(s *state.Store) state.Field { return s.ResetCanvasSize() })
}

// ResetInput restores the default input and rotation.
func (e *Engine) ResetInput(ctx context.Context) error {
	e.mu.Lock()
	changed := e.Store.ResetInputStrings()
	if !changed.Has(state.FieldInputString) {
		defer e.mu.Unlock()
		return e.applyLocked(changed)
	}
	gen, cfg := e.beginHashLocked()
	e.mu.Unlock()
	return e.finishHash(ctx, gen, cfg)
}

// Apply reruns the stages affected by fields already changed in the store,
// e.g. by a Spinner.
func (e *Engine) Apply(changed state.Field) error {
	if changed.Has(state.FieldInputString | state.FieldDigest) {
		return e.Refresh(context.Background())
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.applyLocked(changed)
}

func (e *Engine) mutate(fn func(*state.Store) state.Field) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.applyLocked(fn(e.Store))
}

func stagesFor(changed state.Field, cfg state.Config) stage {
	var st stage
	if changed.Has(state.FieldInputString | state.FieldDigest) {
		st |= stageHash
	}
	if changed.Has(state.FieldRotateHash|state.FieldInputMode) && cfg.InputMode == state.ModeString {
		st |= stageMatrix
	}
	if changed.Has(state.FieldAll &^ (state.FieldInputString | state.FieldDigest | state.FieldRotateHash)) {
		st |= stageRender
	}
	return st
}

func (e *Engine) applyLocked(changed state.Field) error {
	if changed == state.FieldNone {
		return nil
	}
	cfg := e.Store.Snapshot()
	if cfg.InputMode == state.ModeString && !e.bitsCurrentLocked(cfg) {
		// the pattern would not belong to the stored input
		return nil
	}
	st := stagesFor(changed, cfg)
	if st&stageMatrix != 0 {
		if e.rebuildLocked(cfg) {
			st |= stageRender
		}
	}
	if st&stageRender != 0 {
		return e.renderLocked()
	}
	return nil
}

func (e *Engine) beginHashLocked() (uint64, state.Config) {
	e.gen++
	return e.gen, e.Store.Snapshot()
}

func (e *Engine) finishHash(ctx context.Context, gen uint64, cfg state.Config) error {
	hasher := e.hasher(cfg.Digest)
	bits, err := hasher.Hash(ctx, cfg.InputString)
	e.hashes.Add(1)

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen {
		e.infof("hash for %q superseded, dropped", cfg.InputString)
		return nil
	}
	if err != nil {
		e.errorf("hash %q: %v", cfg.InputString, err)
		return err
	}
	e.bits = bits
	e.bitsFor = bitsKey{input: cfg.InputString, digest: cfg.Digest}
	if cfg.InputMode != state.ModeString {
		// the hand-edited half is the pattern; draw it if nothing is shown yet
		if e.frame.Load() == nil {
			return e.renderLocked()
		}
		return nil
	}
	e.rebuildLocked(e.Store.Snapshot())
	return e.renderLocked()
}

// bitsCurrentLocked reports whether the bits were hashed from cfg's input
// and digest.
func (e *Engine) bitsCurrentLocked(cfg state.Config) bool {
	return e.bits != "" && e.bitsFor == bitsKey{input: cfg.InputString, digest: cfg.Digest}
}

func (e *Engine) hasher(d identicon.Digest) identicon.Hasher {
	if e.Hashers != nil {
		return e.Hashers(d)
	}
	return identicon.NewHasher(d)
}

// rebuildLocked derives the half from the rotated bits and stores it.
// It reports whether the half changed.
func (e *Engine) rebuildLocked(cfg state.Config) bool {
	if !e.bitsCurrentLocked(cfg) {
		return false
	}
	rotated, err := identicon.Rotate(e.bits, cfg.RotateHash)
	if err != nil {
		e.errorf("rotate: %v", err)
		return false
	}
	grid, err := identicon.Reshape(rotated)
	if err != nil {
		e.errorf("matrix: %v", err)
		return false
	}
	e.matrices.Add(1)
	return e.Store.SetMatrix(grid.Transpose()) != state.FieldNone || e.frame.Load() == nil
}

func (e *Engine) renderLocked() error {
	cfg := e.Store.Snapshot()
	pattern := cfg.MatrixInput.Mirror()
	surface, err := e.Renderer.Render(pattern, cfg.Geometry(), cfg.Colors())
	if err != nil {
		e.errorf("render: %v", err)
		return err
	}
	e.renders.Add(1)
	e.seq++
	f := &Frame{
		Seq:     e.seq,
		Surface: surface,
		Pattern: pattern,
		Bits:    e.bits,
		Config:  cfg,
		Name: export.FileName(export.Naming{
			Input:      cfg.InputString,
			Rotate:     cfg.RotateHash,
			Fill:       cfg.FillColor,
			Background: cfg.BackgroundColor,
			Size:       cfg.CanvasSize,
		}),
	}
	e.frame.Store(f)
	for _, fn := range e.subs {
		fn(*f)
	}
	return nil
}

func (e *Engine) infof(format string, args ...interface{}) {
	if e.Logger != nil {
		e.Logger.Infof("pipeline", format, args...)
	}
}

func (e *Engine) errorf(format string, args ...interface{}) {
	if e.Logger != nil {
		e.Logger.Errorf("pipeline", format, args...)
	}
}
