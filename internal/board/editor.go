package board

import (
	"fmt"

	"github.com/bodul/strands/internal/model"
)

// FocusController moves keyboard focus to a cell. The UI runtime owning the
// cell widgets implements it.
type FocusController interface {
	Focus(c model.Coord)
}

// FocusFunc adapts a function to FocusController.
type FocusFunc func(c model.Coord)

func (f FocusFunc) Focus(c model.Coord) { f(c) }

// Editor applies keyboard edits to a Grid and drives focus so the whole grid
// can be typed or erased without a pointer.
type Editor struct {
	grid  *Grid
	focus FocusController
}

// NewEditor binds a grid to a focus controller. A nil controller discards
// focus moves.
func NewEditor(g *Grid, focus FocusController) *Editor {
	if focus == nil {
		focus = FocusFunc(func(model.Coord) {})
	}
	return &Editor{grid: g, focus: focus}
}

// Grid returns the edited grid.
func (e *Editor) Grid() *Grid {
	return e.grid
}

// Input writes raw at c. A non-empty write moves focus to the next cell; at
// the last cell focus stays where it is. It returns the stored value and the
// cell holding focus afterwards.
func (e *Editor) Input(c model.Coord, raw string) (string, model.Coord, error) {
	v, err := e.grid.Set(c.Row, c.Col, raw)
	if err != nil {
		return "", c, err
	}
	if v == "" {
		return v, c, nil
	}
	if next, ok := e.grid.Next(c); ok {
		e.focus.Focus(next)
		return v, next, nil
	}
	return v, c, nil
}

// Backspace clears a filled cell in place. On an already empty cell it moves
// focus to the previous cell instead, leaving that cell untouched.
func (e *Editor) Backspace(c model.Coord) (model.Coord, error) {
	if !e.grid.InBounds(c) {
		return c, fmt.Errorf("backspace %s: %w", c, ErrOutOfBounds)
	}
	if e.grid.Get(c.Row, c.Col) != "" {
		_, err := e.grid.Set(c.Row, c.Col, "")
		return c, err
	}
	if prev, ok := e.grid.Prev(c); ok {
		e.focus.Focus(prev)
		return prev, nil
	}
	return c, nil
}
