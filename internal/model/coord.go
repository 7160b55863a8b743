package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Coord addresses one cell of a board, 0-indexed.
type Coord struct {
	Row int
	Col int
}

// Less reports whether c comes before o in row-major order.
func (c Coord) Less(o Coord) bool {
	if c.Row != o.Row {
		return c.Row < o.Row
	}
	return c.Col < o.Col
}

func (c Coord) String() string {
	return strconv.Itoa(c.Row) + "," + strconv.Itoa(c.Col)
}

// MarshalText renders the coordinate as "row,col" so it can key JSON objects.
func (c Coord) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText parses the "row,col" form.
func (c *Coord) UnmarshalText(text []byte) error {
	r, col, ok := strings.Cut(string(text), ",")
	if !ok {
		return fmt.Errorf("coord %q: missing comma", text)
	}
	row, err := strconv.Atoi(strings.TrimSpace(r))
	if err != nil {
		return fmt.Errorf("coord %q: row: %w", text, err)
	}
	cl, err := strconv.Atoi(strings.TrimSpace(col))
	if err != nil {
		return fmt.Errorf("coord %q: col: %w", text, err)
	}
	c.Row, c.Col = row, cl
	return nil
}

// MarshalJSON encodes the coordinate as the [row, col] pair used on the wire.
func (c Coord) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{c.Row, c.Col})
}

// UnmarshalJSON accepts exactly a two-element integer array.
func (c *Coord) UnmarshalJSON(data []byte) error {
	var pair []int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("coord: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("coord: want [row, col], got %d values", len(pair))
	}
	c.Row, c.Col = pair[0], pair[1]
	return nil
}

// Path is the ordered list of cells spelling one word.
type Path []Coord
