package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bodul/strands/internal/model"
	"github.com/bodul/strands/internal/overlay"
	"github.com/bodul/strands/internal/present"
	"github.com/bodul/strands/internal/solve"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(string(overlay.SharedColor)))
	cellStyle   = lipgloss.NewStyle().Width(3).Align(lipgloss.Center).Background(lipgloss.Color("#EEEEEE")).Foreground(lipgloss.Color("#212121"))
	cursorStyle = cellStyle.Reverse(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C62828"))
	helpStyle   = lipgloss.NewStyle().Faint(true)
	badgeStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(lipgloss.Color("#212121"))
)

// RenderBoard draws cells as a text grid. Cells covered by v take the color
// of their path; cursor, when set, is drawn reversed.
func RenderBoard(cells [][]string, v *present.View, cursor *model.Coord) string {
	var b strings.Builder
	for r, row := range cells {
		parts := make([]string, len(row))
		for c, letter := range row {
			at := model.Coord{Row: r, Col: c}
			style := cellStyle
			if v != nil {
				if hl, ok := v.Highlights[at]; ok {
					style = style.Background(lipgloss.Color(string(hl.Color)))
				}
			}
			if cursor != nil && *cursor == at {
				style = cursorStyle
			}
			if letter == "" {
				letter = "·"
			}
			parts[c] = style.Render(letter)
		}
		b.WriteString(strings.Join(parts, " "))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderBadges lists the words of v, the spangram in the accent color.
func RenderBadges(v present.View) string {
	badges := v.Badges()
	parts := make([]string, len(badges))
	for i, bd := range badges {
		parts[i] = badgeStyle.Background(lipgloss.Color(string(bd.Color))).Render(bd.Word)
	}
	return strings.Join(parts, " ")
}

func (m *editorModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Strands Solver"))
	b.WriteString("\n\n")

	var view *present.View
	if len(m.views) > 0 {
		view = &m.views[m.current]
	}
	var cursor *model.Coord
	if m.area == areaGrid {
		cursor = &m.cursor
	}
	b.WriteString(RenderBoard(m.grid.Cells(), view, cursor))
	b.WriteString("\n")

	b.WriteString(m.words.View())
	b.WriteString("\n")
	b.WriteString(m.forbidden.View())
	b.WriteString("\n")
	check := " "
	if m.findAll {
		check = "x"
	}
	fmt.Fprintf(&b, "[%s] find all solutions\n\n", check)

	b.WriteString(m.status())
	b.WriteString("\n")
	if view != nil {
		fmt.Fprintf(&b, "Solution %d/%d  %s\n", m.current+1, len(m.views), RenderBadges(*view))
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("type letters · arrows move · tab fields · enter solve · [ ] solutions · ctrl+f find all · ctrl+r reset · esc quit"))
	b.WriteString("\n")
	return b.String()
}

func (m *editorModel) status() string {
	switch {
	case m.notice != "":
		return errorStyle.Render(m.notice)
	case m.busy:
		return m.spinner.View() + " Solving…"
	case m.snap.State == solve.Failed:
		return errorStyle.Render(m.snap.Error)
	case m.snap.State == solve.Succeeded && len(m.views) == 0:
		return "No solutions"
	case m.snap.State == solve.Succeeded:
		return fmt.Sprintf("%d solution(s)", len(m.views))
	}
	return ""
}
