package identicon

import (
	"fmt"
	"strings"
)

const (
	// GridRows x GridCols is the reshaped bit block; only GridSize symbols are read.
	GridRows = 3
	GridCols = 5
	GridSize = GridRows * GridCols

	// PatternSize is the side of the mirrored pattern.
	PatternSize = 5
)

// Grid is the 3x5 binary matrix reshaped row-major from a bit sequence.
type Grid [GridRows][GridCols]uint8

// Half is the transposed grid: five rows of the three left-most pattern cells.
type Half [GridCols][GridRows]uint8

// Pattern is the final 5x5 matrix, mirrored about the center column.
type Pattern [PatternSize][PatternSize]uint8

// Rotate left-rotates b by offset symbols. Negative offsets rotate right.
func Rotate(b Bits, offset int) (Bits, error) {
	n := len(b)
	if n == 0 {
		return "", ErrEmptySequence
	}
	offset %= n
	if offset < 0 {
		offset += n
	}
	return b[offset:] + b[:offset], nil
}

// Reshape reads the first GridSize symbols of b into a Grid.
func Reshape(b Bits) (Grid, error) {
	var g Grid
	if len(b) < GridSize {
		return g, fmt.Errorf("%w: have %d symbols, need %d", ErrMalformedBits, len(b), GridSize)
	}
	for i := 0; i < GridSize; i++ {
		switch b[i] {
		case '0':
		case '1':
			g[i/GridCols][i%GridCols] = 1
		default:
			return Grid{}, fmt.Errorf("%w: symbol %q at %d", ErrMalformedBits, b[i], i)
		}
	}
	return g, nil
}

// Transpose turns column j of the grid into row j of the half.
func (g Grid) Transpose() Half {
	var h Half
	for i := 0; i < GridRows; i++ {
		for j := 0; j < GridCols; j++ {
			h[j][i] = g[i][j]
		}
	}
	return h
}

// Grid undoes Transpose.
func (h Half) Grid() Grid {
	var g Grid
	for j := 0; j < GridCols; j++ {
		for i := 0; i < GridRows; i++ {
			g[i][j] = h[j][i]
		}
	}
	return g
}

// Mirror expands every row [a, b, c] to [a, b, c, b, a].
func (h Half) Mirror() Pattern {
	var p Pattern
	for r, row := range h {
		p[r] = [PatternSize]uint8{row[0], row[1], row[2], row[1], row[0]}
	}
	return p
}

// Toggle flips one cell of the half and returns the edited copy.
func (h Half) Toggle(row, col int) (Half, error) {
	if row < 0 || row >= GridCols || col < 0 || col >= GridRows {
		return h, fmt.Errorf("%w: (%d,%d)", ErrCellOutOfRange, row, col)
	}
	h[row][col] ^= 1
	return h, nil
}

// BuildMatrix reshapes, transposes and mirrors a bit sequence.
func BuildMatrix(b Bits) (Pattern, error) {
	g, err := Reshape(b)
	if err != nil {
		return Pattern{}, err
	}
	return FromGrid(g), nil
}

// FromGrid is the manual-edit entry into the pipeline: a hand-made grid
// goes through the same transpose and mirror as a hashed one.
func FromGrid(g Grid) Pattern {
	return g.Transpose().Mirror()
}

// Symmetric reports whether every row reads the same from both ends.
func (p Pattern) Symmetric() bool {
	for _, row := range p {
		if row[0] != row[4] || row[1] != row[3] {
			return false
		}
	}
	return true
}

// Filled counts the 1-cells.
func (p Pattern) Filled() int {
	n := 0
	for _, row := range p {
		for _, c := range row {
			if c == 1 {
				n++
			}
		}
	}
	return n
}

// String draws the pattern with '#' for filled and '.' for empty cells.
func (p Pattern) String() string {
	var sb strings.Builder
	for r, row := range p {
		if r > 0 {
			sb.WriteByte('\n')
		}
		for _, c := range row {
			if c == 1 {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
	}
	return sb.String()
}

// String writes the grid as three '/'-separated rows, the form ParseGrid reads.
func (g Grid) String() string {
	var sb strings.Builder
	for i, row := range g {
		if i > 0 {
			sb.WriteByte('/')
		}
		for _, c := range row {
			sb.WriteByte('0' + c)
		}
	}
	return sb.String()
}

// ParseGrid reads 15 binary symbols, ignoring '/', ',' and whitespace.
func ParseGrid(s string) (Grid, error) {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '/', ',', ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, s)
	if len(clean) != GridSize {
		return Grid{}, fmt.Errorf("%w: grid needs exactly %d symbols, got %d", ErrMalformedBits, GridSize, len(clean))
	}
	return Reshape(Bits(clean))
}
