// Package codes holds the editable code matrix: layers (codebooks) by
// fragments (time steps), each cell a code in [0, MaxCode].
package codes

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// MaxCode is the largest code a cell can hold.
	MaxCode = 1023
	// MaxLayers is the number of codebooks the decoder accepts.
	MaxLayers = 32
)

var (
	ErrShape     = errors.New("invalid grid shape")
	ErrCodeRange = errors.New("code out of range")
	ErrParse     = errors.New("malformed grid string")
)

// Grid is a rectangular code matrix stored row-major by layer. The zero value
// is not usable; construct with New, NewGrid, FromRows or Parse. Copying a
// Grid by value shares storage, use Clone for a snapshot.
type Grid struct {
	codes     []uint32
	layers    int
	fragments int
}

// New returns the session default: one layer, one fragment, code 0.
func New() Grid {
	g, _ := NewGrid(1, 1)
	return g
}

// NewGrid returns a zero-filled grid.
func NewGrid(layers, fragments int) (Grid, error) {
	if err := checkShape(layers, fragments); err != nil {
		return Grid{}, err
	}
	return Grid{
		codes:     make([]uint32, layers*fragments),
		layers:    layers,
		fragments: fragments,
	}, nil
}

// FromRows builds a grid from per-layer rows, which must all be the same
// length with every code in range.
func FromRows(rows [][]uint32) (Grid, error) {
	if len(rows) == 0 {
		return Grid{}, fmt.Errorf("%w: no layers", ErrShape)
	}
	g, err := NewGrid(len(rows), len(rows[0]))
	if err != nil {
		return Grid{}, err
	}
	for l, row := range rows {
		if len(row) != g.fragments {
			return Grid{}, fmt.Errorf("%w: layer %d has %d fragments, want %d",
				ErrShape, l, len(row), g.fragments)
		}
		for f, c := range row {
			if c > MaxCode {
				return Grid{}, fmt.Errorf("%w: %d at layer %d fragment %d", ErrCodeRange, c, l, f)
			}
		}
		copy(g.codes[l*g.fragments:], row)
	}
	return g, nil
}

// Parse reads the String form: layers separated by ';', fragments by ','.
func Parse(s string) (Grid, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Grid{}, fmt.Errorf("%w: empty", ErrParse)
	}
	var rows [][]uint32
	for _, layer := range strings.Split(s, ";") {
		var row []uint32
		for _, field := range strings.Split(layer, ",") {
			v, err := strconv.ParseUint(strings.TrimSpace(field), 10, 32)
			if err != nil {
				return Grid{}, fmt.Errorf("%w: %q", ErrParse, field)
			}
			row = append(row, uint32(v))
		}
		rows = append(rows, row)
	}
	return FromRows(rows)
}

func checkShape(layers, fragments int) error {
	if layers < 1 || fragments < 1 || layers > MaxLayers {
		return fmt.Errorf("%w: %dx%d", ErrShape, layers, fragments)
	}
	return nil
}

func (g Grid) Layers() int { return g.layers }
func (g Grid) Fragments() int { return g.fragments }

// At returns the code at (layer, fragment). Out-of-range indices panic.
func (g Grid) At(layer, fragment int) uint32 {
	return g.codes[g.index(layer, fragment)]
}

// Set writes code at (layer, fragment).
func (g *Grid) Set(layer, fragment int, code uint32) error {
	if code > MaxCode {
		return fmt.Errorf("%w: %d", ErrCodeRange, code)
	}
	if layer < 0 || layer >= g.layers || fragment < 0 || fragment >= g.fragments {
		return fmt.Errorf("%w: cell (%d,%d) outside %dx%d", ErrShape, layer, fragment, g.layers, g.fragments)
	}
	g.codes[g.index(layer, fragment)] = code
	return nil
}

// Increment adds delta to a cell, saturating at MaxCode. It reports whether
// the cell changed.
func (g *Grid) Increment(layer, fragment int, delta uint32) bool {
	i := g.index(layer, fragment)
	old := g.codes[i]
	if delta >= MaxCode-old {
		g.codes[i] = MaxCode
	} else {
		g.codes[i] = old + delta
	}
	return g.codes[i] != old
}

// Decrement subtracts delta from a cell, saturating at 0.
func (g *Grid) Decrement(layer, fragment int, delta uint32) bool {
	i := g.index(layer, fragment)
	old := g.codes[i]
	if delta >= old {
		g.codes[i] = 0
	} else {
		g.codes[i] = old - delta
	}
	return g.codes[i] != old
}

// Reshape resizes the grid in place, keeping the overlapping cells and
// zero-filling new ones.
func (g *Grid) Reshape(layers, fragments int) error {
	if err := checkShape(layers, fragments); err != nil {
		return err
	}
	if layers == g.layers && fragments == g.fragments {
		return nil
	}
	next := make([]uint32, layers*fragments)
	for l := 0; l < min(layers, g.layers); l++ {
		copy(next[l*fragments:l*fragments+min(fragments, g.fragments)],
			g.codes[l*g.fragments:])
	}
	g.codes, g.layers, g.fragments = next, layers, fragments
	return nil
}

// Repeat returns a new grid with every layer tiled n times along fragments.
func (g Grid) Repeat(n int) Grid {
	n = max(n, 1)
	out := Grid{
		codes:     make([]uint32, 0, len(g.codes)*n),
		layers:    g.layers,
		fragments: g.fragments * n,
	}
	for l := 0; l < g.layers; l++ {
		row := g.codes[l*g.fragments : (l+1)*g.fragments]
		for i := 0; i < n; i++ {
			out.codes = append(out.codes, row...)
		}
	}
	return out
}

// Rows returns a copy of the grid as per-layer slices.
func (g Grid) Rows() [][]uint32 {
	rows := make([][]uint32, g.layers)
	for l := range rows {
		rows[l] = append([]uint32(nil), g.codes[l*g.fragments:(l+1)*g.fragments]...)
	}
	return rows
}

// Clone returns a deep copy that shares no storage with g.
func (g Grid) Clone() Grid {
	g.codes = append([]uint32(nil), g.codes...)
	return g
}

func (g Grid) Equal(o Grid) bool {
	if g.layers != o.layers || g.fragments != o.fragments {
		return false
	}
	for i := range g.codes {
		if g.codes[i] != o.codes[i] {
			return false
		}
	}
	return true
}

// Key identifies the grid contents; equal grids have equal keys.
func (g Grid) Key() string {
	return g.String()
}

func (g Grid) String() string {
	var b strings.Builder
	for l := 0; l < g.layers; l++ {
		if l > 0 {
			b.WriteByte(';')
		}
		for f := 0; f < g.fragments; f++ {
			if f > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.FormatUint(uint64(g.At(l, f)), 10))
		}
	}
	return b.String()
}

func (g Grid) index(layer, fragment int) int {
	if layer < 0 || layer >= g.layers || fragment < 0 || fragment >= g.fragments {
		panic(fmt.Sprintf("codes: index (%d,%d) out of range %dx%d", layer, fragment, g.layers, g.fragments))
	}
	return layer*g.fragments + fragment
}
