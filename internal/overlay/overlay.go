// Package overlay turns the words of a solution into the cell highlights and
// connective line segments painted over a read-only board.
//
// Resolve is pure: the same solution always yields the same Overlay.
package overlay

import (
	"slices"

	"github.com/bodul/strands/internal/model"
)

// Board geometry in pixels.
const (
	CellSize = 40
	CellGap  = 10
	Pitch    = CellSize + CellGap
)

// Color is a CSS hex color.
type Color string

// The palette has two tiers: the spangram gets the accent, every other word
// shares one color.
const (
	AccentColor Color = "#FFD600"
	SharedColor Color = "#2196F3"
)

// Highlight records which word owns a highlighted cell.
type Highlight struct {
	WordIndex int   `json:"wordIndex"`
	Color     Color `json:"color"`
}

// Point is a position in board pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Segment joins the centers of two consecutive cells of a path.
type Segment struct {
	From  Point `json:"from"`
	To    Point `json:"to"`
	Color Color `json:"color"`
}

// Overlay is everything needed to paint one solution.
// Segments[i] belongs to word i.
type Overlay struct {
	Highlights map[model.Coord]Highlight `json:"highlights"`
	Segments   [][]Segment               `json:"segments"`
}

// Resolve computes the overlay of s. Words are folded in display order and a
// cell shared by several paths ends up owned by the word with the highest index.
func Resolve(s model.Solution) Overlay {
	spangram := s.SpangramIndex()
	out := Overlay{
		Highlights: make(map[model.Coord]Highlight),
		Segments:   make([][]Segment, len(s.Paths)),
	}
	for i, path := range s.Paths {
		color := ColorFor(i, spangram)
		for _, c := range path {
			out.Highlights[c] = Highlight{WordIndex: i, Color: color}
		}
		out.Segments[i] = Lines(path, color)
	}
	return out
}

// ColorFor returns the color of word i given the spangram index (-1 for none).
func ColorFor(i, spangram int) Color {
	if i == spangram {
		return AccentColor
	}
	return SharedColor
}

// Lines returns the len(path)-1 segments joining consecutive cell centers.
func Lines(path model.Path, color Color) []Segment {
	if len(path) < 2 {
		return []Segment{}
	}
	segs := make([]Segment, 0, len(path)-1)
	for i := 1; i < len(path); i++ {
		segs = append(segs, Segment{From: Center(path[i-1]), To: Center(path[i]), Color: color})
	}
	return segs
}

// Center returns the pixel center of c.
func Center(c model.Coord) Point {
	return Point{
		X: float64(c.Col*Pitch) + CellSize/2,
		Y: float64(c.Row*Pitch) + CellSize/2,
	}
}

// Bounds returns the pixel size of a rows×cols board.
func Bounds(rows, cols int) (width, height int) {
	return cols*CellSize + (cols-1)*CellGap, rows*CellSize + (rows-1)*CellGap
}

// Cells returns the highlighted coordinates in row-major order.
func (o Overlay) Cells() []model.Coord {
	cells := make([]model.Coord, 0, len(o.Highlights))
	for c := range o.Highlights {
		cells = append(cells, c)
	}
	slices.SortFunc(cells, func(a, b model.Coord) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		}
		return 0
	})
	return cells
}
