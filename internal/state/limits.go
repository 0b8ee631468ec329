package state

// NumericField names a field that the spinner can step.
type NumericField int

const (
	NumCanvasSize NumericField = iota
	NumCanvasGutters
	NumRotateHash
)

func (n NumericField) String() string {
	switch n {
	case NumCanvasSize:
		return "canvasSize"
	case NumCanvasGutters:
		return "canvasGutters"
	case NumRotateHash:
		return "rotateHash"
	}
	return "unknown"
}

// ParseNumericField maps the control ids used by the API to fields.
func ParseNumericField(s string) (NumericField, bool) {
	for _, n := range []NumericField{NumCanvasSize, NumCanvasGutters, NumRotateHash} {
		if n.String() == s {
			return n, true
		}
	}
	return 0, false
}

// Range is the allowed interval and step of a numeric field.
type Range struct {
	Min  int `json:"min"`
	Max  int `json:"max"`
	Step int `json:"step"`
}

func (r Range) clamp(v int) int {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Limits bounds every numeric field. CanvasGutters.Max follows the canvas size.
type Limits struct {
	CanvasSize    Range `json:"canvasSize"`
	CanvasGutters Range `json:"canvasGutters"`
	RotateHash    Range `json:"rotateHash"`
}

// For returns the range of one field.
func (l Limits) For(n NumericField) Range {
	switch n {
	case NumCanvasSize:
		return l.CanvasSize
	case NumCanvasGutters:
		return l.CanvasGutters
	}
	return l.RotateHash
}

var DefaultLimits = Limits{
	CanvasSize:    Range{Min: 64, Max: 4096, Step: 8},
	CanvasGutters: Range{Min: 0, Max: DefaultCanvasSize / 4, Step: 1},
	RotateHash:    Range{Min: 0, Max: 255, Step: 1},
}
