package state

import (
	"image/color"
	"sync"

	"github.com/rook-computer/identicon/internal/identicon"
	"github.com/rook-computer/identicon/internal/render"
)

// Mode selects where the pattern comes from.
type Mode int

const (
	// ModeString derives the pattern from the hashed input string.
	ModeString Mode = iota
	// ModeMatrix uses the hand-edited MatrixInput.
	ModeMatrix
)

func (m Mode) String() string {
	if m == ModeMatrix {
		return "matrix"
	}
	return "string"
}

// ParseMode accepts "string" or "matrix".
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "string", "":
		return ModeString, true
	case "matrix":
		return ModeMatrix, true
	}
	return ModeString, false
}

// Field is a set of configuration fields, used to report what a mutation changed.
type Field uint

const (
	FieldCanvasSize Field = 1 << iota
	FieldCanvasGutters
	FieldFillColor
	FieldBackgroundColor
	FieldInputString
	FieldRotateHash
	FieldInputMode
	FieldMatrixInput
	FieldDigest

	FieldNone Field = 0
	FieldAll        = FieldDigest<<1 - 1
)

// Has reports whether any of other is in f.
func (f Field) Has(other Field) bool { return f&other != 0 }

// Config is the user-owned state of one session.
type Config struct {
	CanvasSize      int
	CanvasGutters   int
	FillColor       color.RGBA
	BackgroundColor color.RGBA
	InputString     string
	RotateHash      int
	InputMode       Mode
	// MatrixInput is the transposed grid; in string mode it tracks the last hashed pattern.
	MatrixInput identicon.Half
	Digest      identicon.Digest
}

// Geometry returns the canvas part of the config.
func (c Config) Geometry() render.Geometry {
	return render.Geometry{Size: c.CanvasSize, Gutter: c.CanvasGutters}
}

// Colors returns the color pair.
func (c Config) Colors() render.Colors {
	return render.Colors{Fill: c.FillColor, Background: c.BackgroundColor}
}

const (
	DefaultCanvasSize = 960
	DefaultGutters    = 80
	DefaultInput      = "test"
	DefaultRotate     = 0
)

// Defaults returns the configuration a fresh session starts with.
func Defaults() Config {
	return Config{
		CanvasSize:      DefaultCanvasSize,
		CanvasGutters:   DefaultGutters,
		FillColor:       render.DefaultFill,
		BackgroundColor: render.DefaultBackground,
		InputString:     DefaultInput,
		RotateHash:      DefaultRotate,
		InputMode:       ModeString,
		MatrixInput: identicon.Half{
			{1, 1, 0},
			{0, 0, 1},
			{1, 1, 0},
			{1, 0, 0},
			{0, 1, 0},
		},
		Digest: identicon.SHA256,
	}
}

// Store owns the configuration. Every mutator returns the fields it changed.
type Store struct {
	mu     sync.RWMutex
	config Config
	limits Limits
}

func NewStore(initial Config) *Store {
	s := &Store{config: initial, limits: DefaultLimits}
	s.config.CanvasSize = s.limits.CanvasSize.clamp(s.config.CanvasSize)
	s.config.CanvasGutters = clampGutter(s.config.CanvasGutters, s.config.CanvasSize)
	return s
}

func (store *Store) Snapshot() Config {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.config
}

func (store *Store) Limits() Limits {
	store.mu.RLock()
	defer store.mu.RUnlock()
	l := store.limits
	l.CanvasGutters.Max = maxGutter(store.config.CanvasSize)
	return l
}

// SetCanvasSize changes the size and clamps the gutter to size/4.
func (store *Store) SetCanvasSize(size int) Field {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.setCanvasSizeLocked(size)
}

func (store *Store) setCanvasSizeLocked(size int) Field {
	size = store.limits.CanvasSize.clamp(size)
	var changed Field
	if store.config.CanvasSize != size {
		store.config.CanvasSize = size
		changed |= FieldCanvasSize
	}
	if g := clampGutter(store.config.CanvasGutters, size); g != store.config.CanvasGutters {
		store.config.CanvasGutters = g
		changed |= FieldCanvasGutters
	}
	return changed
}

// SetGutters sets the gutter, clamped to [0, size/4].
func (store *Store) SetGutters(gutter int) Field {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.setGuttersLocked(gutter)
}

func (store *Store) setGuttersLocked(gutter int) Field {
	gutter = clampGutter(gutter, store.config.CanvasSize)
	if store.config.CanvasGutters == gutter {
		return FieldNone
	}
	store.config.CanvasGutters = gutter
	return FieldCanvasGutters
}

// SetGeometry applies size first so the gutter is clamped against the new size.
func (store *Store) SetGeometry(size, gutter int) Field {
	store.mu.Lock()
	defer store.mu.Unlock()
	changed := store.setCanvasSizeLocked(size)
	return changed | store.setGuttersLocked(gutter)
}

func (store *Store) SetColors(fill, background color.RGBA) Field {
	store.mu.Lock()
	defer store.mu.Unlock()
	var changed Field
	if store.config.FillColor != fill {
		store.config.FillColor = fill
		changed |= FieldFillColor
	}
	if store.config.BackgroundColor != background {
		store.config.BackgroundColor = background
		changed |= FieldBackgroundColor
	}
	return changed
}

func (store *Store) SetInput(input string) Field {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.config.InputString == input {
		return FieldNone
	}
	store.config.InputString = input
	return FieldInputString
}

func (store *Store) SetRotation(rotate int) Field {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.config.RotateHash == rotate {
		return FieldNone
	}
	store.config.RotateHash = rotate
	return FieldRotateHash
}

func (store *Store) SetMode(mode Mode) Field {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.config.InputMode == mode {
		return FieldNone
	}
	store.config.InputMode = mode
	return FieldInputMode
}

func (store *Store) SetDigest(d identicon.Digest) Field {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.config.Digest == d {
		return FieldNone
	}
	store.config.Digest = d
	return FieldDigest
}

func (store *Store) SetMatrix(h identicon.Half) Field {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.config.MatrixInput == h {
		return FieldNone
	}
	store.config.MatrixInput = h
	return FieldMatrixInput
}

// ToggleCell flips one cell of the matrix input.
func (store *Store) ToggleCell(row, col int) (Field, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	h, err := store.config.MatrixInput.Toggle(row, col)
	if err != nil {
		return FieldNone, err
	}
	store.config.MatrixInput = h
	return FieldMatrixInput, nil
}

// ResetCanvasSize restores the default size and gutter.
func (store *Store) ResetCanvasSize() Field {
	return store.SetGeometry(DefaultCanvasSize, DefaultGutters)
}

// ResetInputStrings restores the default input and rotation.
func (store *Store) ResetInputStrings() Field {
	return store.SetInput(DefaultInput) | store.SetRotation(DefaultRotate)
}

// Adjust adds delta to a numeric field, clamped to its limits.
func (store *Store) Adjust(id NumericField, delta int) Field {
	store.mu.Lock()
	defer store.mu.Unlock()
	switch id {
	case NumCanvasSize:
		return store.setCanvasSizeLocked(store.config.CanvasSize + delta)
	case NumCanvasGutters:
		return store.setGuttersLocked(store.config.CanvasGutters + delta)
	case NumRotateHash:
		v := store.limits.RotateHash.clamp(store.config.RotateHash + delta)
		if v == store.config.RotateHash {
			return FieldNone
		}
		store.config.RotateHash = v
		return FieldRotateHash
	}
	return FieldNone
}

func maxGutter(size int) int {
	if size <= 0 {
		return 1
	}
	return size / 4
}

func clampGutter(gutter, size int) int {
	if m := maxGutter(size); gutter > m {
		gutter = m
	}
	if gutter < 0 {
		gutter = 0
	}
	return gutter
}
