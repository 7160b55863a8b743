package board

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bodul/strands/internal/model"
)

type focusRecorder struct {
	moves []model.Coord
}

func (f *focusRecorder) Focus(c model.Coord) { f.moves = append(f.moves, c) }

func TestEditorTypesAcrossRows(t *testing.T) {
	rec := &focusRecorder{}
	e := NewEditor(New(2, 2), rec)

	at := model.Coord{}
	for _, ch := range []string{"s", "p", "a", "n"} {
		var err error
		_, at, err = e.Input(at, ch)
		require.NoError(t, err)
	}
	require.Equal(t, []string{"SP", "AN"}, e.Grid().Rows())
	require.Equal(t, []model.Coord{{Row: 0, Col: 1}, {Row: 1, Col: 0}, {Row: 1, Col: 1}}, rec.moves)
	require.Equal(t, model.Coord{Row: 1, Col: 1}, at)
}

func TestEditorLastCellClamped(t *testing.T) {
	rec := &focusRecorder{}
	e := NewEditor(New(DefaultRows, DefaultCols), rec)

	last := model.Coord{Row: DefaultRows - 1, Col: DefaultCols - 1}
	v, at, err := e.Input(last, "q")
	require.NoError(t, err)
	require.Equal(t, "Q", v)
	require.Equal(t, last, at)
	require.Empty(t, rec.moves)
}

func TestEditorInvalidInputDoesNotAdvance(t *testing.T) {
	rec := &focusRecorder{}
	e := NewEditor(New(2, 2), rec)

	v, at, err := e.Input(model.Coord{}, "5")
	require.NoError(t, err)
	require.Equal(t, "", v)
	require.Equal(t, model.Coord{}, at)
	require.Empty(t, rec.moves)
}

func TestEditorBackspace(t *testing.T) {
	rec := &focusRecorder{}
	g := New(2, 2)
	require.NoError(t, g.Load([]string{"AB", "CD"}))
	e := NewEditor(g, rec)

	// Filled cell: cleared in place.
	at, err := e.Backspace(model.Coord{Row: 1, Col: 0})
	require.NoError(t, err)
	require.Equal(t, model.Coord{Row: 1, Col: 0}, at)
	require.Equal(t, "", g.Get(1, 0))
	require.Empty(t, rec.moves)

	// Empty cell: focus moves back across the row boundary, previous cell kept.
	at, err = e.Backspace(model.Coord{Row: 1, Col: 0})
	require.NoError(t, err)
	require.Equal(t, model.Coord{Row: 0, Col: 1}, at)
	require.Equal(t, "B", g.Get(0, 1))
	require.Equal(t, []model.Coord{{Row: 0, Col: 1}}, rec.moves)
}

func TestEditorBackspaceFirstCell(t *testing.T) {
	rec := &focusRecorder{}
	e := NewEditor(New(2, 2), rec)

	at, err := e.Backspace(model.Coord{})
	require.NoError(t, err)
	require.Equal(t, model.Coord{}, at)
	require.Empty(t, rec.moves)

	_, err = e.Backspace(model.Coord{Row: 5, Col: 5})
	require.ErrorIs(t, err, ErrOutOfBounds)
}

func TestEditorNilFocus(t *testing.T) {
	e := NewEditor(New(1, 2), nil)
	_, at, err := e.Input(model.Coord{}, "x")
	require.NoError(t, err)
	require.Equal(t, model.Coord{Row: 0, Col: 1}, at)
}
