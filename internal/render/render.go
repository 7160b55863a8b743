// Package render paints a board and one solution view to a PNG image.
package render

import (
	"bytes"
	"fmt"
	"image/color"
	"strconv"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"

	"github.com/bodul/strands/internal/model"
	"github.com/bodul/strands/internal/overlay"
	"github.com/bodul/strands/internal/present"
)

const (
	lineWidth   = 8
	lineOpacity = 0.85
	cellRadius  = 6
	fontSize    = 22
)

var (
	background = color.White
	cellFill   = color.RGBA{R: 0xEE, G: 0xEE, B: 0xEE, A: 0xFF}
	letterInk  = color.RGBA{R: 0x22, G: 0x22, B: 0x22, A: 0xFF}
)

var (
	faceOnce sync.Once
	face     font.Face
	faceErr  error
)

func letterFace() (font.Face, error) {
	faceOnce.Do(func() {
		f, err := truetype.Parse(gobold.TTF)
		if err != nil {
			faceErr = fmt.Errorf("parse font: %w", err)
			return
		}
		face = truetype.NewFace(f, &truetype.Options{Size: fontSize})
	})
	return face, faceErr
}

// PNG draws cells (one string per row, missing letters left blank) with the
// highlights and path lines of v. A nil view draws the bare board.
func PNG(cells [][]string, v *present.View) ([]byte, error) {
	rows := len(cells)
	if rows == 0 || len(cells[0]) == 0 {
		return nil, fmt.Errorf("render: empty board")
	}
	cols := len(cells[0])
	w, h := overlay.Bounds(rows, cols)

	dc := gg.NewContext(w, h)
	dc.SetColor(background)
	dc.Clear()

	for r := range rows {
		for c := range cols {
			fill := color.Color(cellFill)
			if v != nil {
				if hl, ok := v.Highlights[model.Coord{Row: r, Col: c}]; ok {
					col, err := Hex(hl.Color, 1)
					if err != nil {
						return nil, err
					}
					fill = col
				}
			}
			dc.SetColor(fill)
			dc.DrawRoundedRectangle(float64(c*overlay.Pitch), float64(r*overlay.Pitch), overlay.CellSize, overlay.CellSize, cellRadius)
			dc.Fill()
		}
	}

	if v != nil {
		dc.SetLineWidth(lineWidth)
		dc.SetLineCap(gg.LineCapRound)
		for _, path := range v.Segments {
			for _, seg := range path {
				col, err := Hex(seg.Color, lineOpacity)
				if err != nil {
					return nil, err
				}
				dc.SetColor(col)
				dc.DrawLine(seg.From.X, seg.From.Y, seg.To.X, seg.To.Y)
				dc.Stroke()
			}
		}
	}

	ff, err := letterFace()
	if err != nil {
		return nil, err
	}
	dc.SetFontFace(ff)
	dc.SetColor(letterInk)
	for r, row := range cells {
		for c, letter := range row {
			if letter == "" {
				continue
			}
			p := overlay.Center(model.Coord{Row: r, Col: c})
			dc.DrawStringAnchored(letter, p.X, p.Y, 0.5, 0.35)
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Hex converts a "#RRGGBB" color to NRGBA with the given opacity in [0,1].
func Hex(c overlay.Color, opacity float64) (color.Color, error) {
	s := strings.TrimPrefix(string(c), "#")
	if len(s) != 6 {
		return nil, fmt.Errorf("render: bad color %q", c)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("render: bad color %q: %w", c, err)
	}
	return color.NRGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: uint8(opacity*255 + 0.5),
	}, nil
}
