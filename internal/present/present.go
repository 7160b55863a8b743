// Package present maps a solve result to per-solution view models ready for a
// renderer: word badges, spangram flags, cell highlights and path lines.
package present

import (
	"github.com/bodul/strands/internal/model"
	"github.com/bodul/strands/internal/overlay"
	"github.com/bodul/strands/internal/solve"
)

// View is one solution prepared for display.
type View struct {
	Index      int                               `json:"index"`
	Words      []string                          `json:"words"`
	IsSpangram []bool                            `json:"isSpangram"`
	Spangram   string                            `json:"spangram,omitempty"`
	Highlights map[model.Coord]overlay.Highlight `json:"highlights"`
	Segments   [][]overlay.Segment               `json:"segments"`
}

// Badge is a word label with the color of its path.
type Badge struct {
	Word     string        `json:"word"`
	Spangram bool          `json:"spangram"`
	Color    overlay.Color `json:"color"`
}

// Present returns one View per solution, in service order. Failures and the
// empty result yield an empty slice.
func Present(res solve.Result) []View {
	if res.Failed() {
		return []View{}
	}
	views := make([]View, 0, len(res.Solutions))
	for i, s := range res.Solutions {
		views = append(views, Solution(i, s))
	}
	return views
}

// Solution builds the view of a single solution.
func Solution(index int, s model.Solution) View {
	spangram := s.SpangramIndex()
	flags := make([]bool, len(s.Words))
	if spangram >= 0 {
		flags[spangram] = true
	}
	o := overlay.Resolve(s)
	return View{
		Index:      index,
		Words:      append([]string(nil), s.Words...),
		IsSpangram: flags,
		Spangram:   s.Spangram,
		Highlights: o.Highlights,
		Segments:   o.Segments,
	}
}

// Badges lists the words of v in display order with their colors.
func (v View) Badges() []Badge {
	spangram := -1
	for i, f := range v.IsSpangram {
		if f {
			spangram = i
		}
	}
	out := make([]Badge, len(v.Words))
	for i, w := range v.Words {
		out[i] = Badge{Word: w, Spangram: i == spangram, Color: overlay.ColorFor(i, spangram)}
	}
	return out
}

// SpangramCount returns the number of flagged words.
func (v View) SpangramCount() int {
	n := 0
	for _, f := range v.IsSpangram {
		if f {
			n++
		}
	}
	return n
}
