// Package board holds the editable letter grid and the keyboard navigation
// rules used to fill it.
package board

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bodul/strands/internal/model"
)

// Default board dimensions of a Strands puzzle.
const (
	DefaultRows = 8
	DefaultCols = 6
)

var (
	// ErrOutOfBounds is returned for coordinates outside the grid.
	ErrOutOfBounds = errors.New("board: position out of bounds")
	// ErrShape is returned by Load when the rows do not match the grid dimensions.
	ErrShape = errors.New("board: rows do not match grid dimensions")
)

// Grid is a rows×cols matrix of single uppercase letters. Empty cells hold "".
type Grid struct {
	rows  int
	cols  int
	cells [][]string
}

// New returns an empty grid. Non-positive dimensions fall back to the defaults.
func New(rows, cols int) *Grid {
	if rows <= 0 {
		rows = DefaultRows
	}
	if cols <= 0 {
		cols = DefaultCols
	}
	cells := make([][]string, rows)
	for i := range cells {
		cells[i] = make([]string, cols)
	}
	return &Grid{rows: rows, cols: cols, cells: cells}
}

// Normalize uppercases raw, drops everything outside A-Z and keeps at most
// the first remaining letter.
func Normalize(raw string) string {
	for _, r := range strings.ToUpper(raw) {
		if r >= 'A' && r <= 'Z' {
			return string(r)
		}
	}
	return ""
}

// Dims returns the grid dimensions.
func (g *Grid) Dims() (rows, cols int) {
	return g.rows, g.cols
}

// InBounds reports whether c lies inside the grid.
func (g *Grid) InBounds(c model.Coord) bool {
	return c.Row >= 0 && c.Row < g.rows && c.Col >= 0 && c.Col < g.cols
}

// Set normalizes raw and writes it at (row, col). It returns the stored value,
// which is empty when raw held no letter.
func (g *Grid) Set(row, col int, raw string) (string, error) {
	if !g.InBounds(model.Coord{Row: row, Col: col}) {
		return "", fmt.Errorf("set %d,%d: %w", row, col, ErrOutOfBounds)
	}
	v := Normalize(raw)
	g.cells[row][col] = v
	return v, nil
}

// Get returns the letter at (row, col), or "" for empty or out-of-range cells.
func (g *Grid) Get(row, col int) string {
	if !g.InBounds(model.Coord{Row: row, Col: col}) {
		return ""
	}
	return g.cells[row][col]
}

// IsComplete reports whether every cell holds a letter.
func (g *Grid) IsComplete() bool {
	for _, row := range g.cells {
		for _, v := range row {
			if v == "" {
				return false
			}
		}
	}
	return true
}

// Rows serializes the grid row-major into one string per row.
// Empty cells contribute nothing, so only complete grids yield cols-long rows.
func (g *Grid) Rows() []string {
	out := make([]string, g.rows)
	for i, row := range g.cells {
		out[i] = strings.Join(row, "")
	}
	return out
}

// Cells returns a copy of the cell matrix.
func (g *Grid) Cells() [][]string {
	cp := make([][]string, g.rows)
	for i, row := range g.cells {
		cp[i] = make([]string, g.cols)
		copy(cp[i], row)
	}
	return cp
}

// Load replaces the grid content with rows, one string per row. Each rune is
// normalized like Set; rows must match the grid dimensions.
func (g *Grid) Load(rows []string) error {
	if len(rows) != g.rows {
		return fmt.Errorf("load: got %d rows, want %d: %w", len(rows), g.rows, ErrShape)
	}
	next := make([][]string, g.rows)
	for i, row := range rows {
		runes := []rune(row)
		if len(runes) != g.cols {
			return fmt.Errorf("load: row %d has %d cells, want %d: %w", i, len(runes), g.cols, ErrShape)
		}
		next[i] = make([]string, g.cols)
		for j, r := range runes {
			next[i][j] = Normalize(string(r))
		}
	}
	g.cells = next
	return nil
}

// Reset empties every cell.
func (g *Grid) Reset() {
	for _, row := range g.cells {
		clear(row)
	}
}

// Clone returns a deep copy.
func (g *Grid) Clone() *Grid {
	return &Grid{rows: g.rows, cols: g.cols, cells: g.Cells()}
}

// Next returns the cell after c in row-major order.
func (g *Grid) Next(c model.Coord) (model.Coord, bool) {
	n := model.Coord{Row: c.Row, Col: c.Col + 1}
	if n.Col >= g.cols {
		n = model.Coord{Row: c.Row + 1, Col: 0}
	}
	if n.Row >= g.rows {
		return c, false
	}
	return n, true
}

// Prev returns the cell before c in row-major order.
func (g *Grid) Prev(c model.Coord) (model.Coord, bool) {
	p := model.Coord{Row: c.Row, Col: c.Col - 1}
	if p.Col < 0 {
		p = model.Coord{Row: c.Row - 1, Col: g.cols - 1}
	}
	if p.Row < 0 {
		return c, false
	}
	return p, true
}
