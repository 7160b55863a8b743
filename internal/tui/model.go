// Package tui is a terminal editor for a Strands board: type the letters,
// set the word count and forbidden words, solve, and page through solutions.
package tui

import (
	"context"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bodul/strands/internal/board"
	"github.com/bodul/strands/internal/model"
	"github.com/bodul/strands/internal/present"
	"github.com/bodul/strands/internal/solve"
)

// Config wires runtime options into the TUI program.
type Config struct {
	Service solve.Service
	Rows    int
	Cols    int
}

type area int

const (
	areaGrid area = iota
	areaWords
	areaForbidden
	areaCount
)

type solvedMsg solve.Snapshot

// New returns a tea.Model ready to be mounted into a Program. ctx bounds
// every solve call.
func New(ctx context.Context, cfg Config) tea.Model {
	return newModel(ctx, cfg)
}

func newModel(ctx context.Context, cfg Config) *editorModel {
	words := textinput.New()
	words.Prompt = "Words: "
	words.Placeholder = "-1"
	words.CharLimit = 4
	words.Width = 6

	forbidden := textinput.New()
	forbidden.Prompt = "Forbidden: "
	forbidden.Placeholder = "space separated"
	forbidden.CharLimit = 200
	forbidden.Width = 40

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	m := &editorModel{
		ctx:       ctx,
		grid:      board.New(cfg.Rows, cfg.Cols),
		orch:      solve.NewOrchestrator(cfg.Service),
		words:     words,
		forbidden: forbidden,
		spinner:   spin,
	}
	m.editor = board.NewEditor(m.grid, m)
	return m
}

type editorModel struct {
	ctx    context.Context
	grid   *board.Grid
	editor *board.Editor
	orch   *solve.Orchestrator

	cursor    model.Coord
	area      area
	words     textinput.Model
	forbidden textinput.Model
	findAll   bool
	spinner   spinner.Model

	busy    bool
	snap    solve.Snapshot
	views   []present.View
	current int
	notice  string
}

// Focus moves the board cursor. The editor calls it after each keystroke.
func (m *editorModel) Focus(c model.Coord) {
	m.cursor = c
}

func (m *editorModel) Init() tea.Cmd {
	return nil
}

func (m *editorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case solvedMsg:
		m.settle(solve.Snapshot(msg))
		return m, nil
	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *editorModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.orch.Reset()
		return m, tea.Quit
	case "tab":
		return m, m.setArea((m.area + 1) % areaCount)
	case "shift+tab":
		return m, m.setArea((m.area + areaCount - 1) % areaCount)
	case "enter":
		return m, m.submit()
	case "ctrl+r":
		m.reset()
		return m, nil
	case "ctrl+f":
		m.findAll = !m.findAll
		return m, nil
	}

	var cmd tea.Cmd
	switch m.area {
	case areaWords:
		m.words, cmd = m.words.Update(msg)
	case areaForbidden:
		m.forbidden, cmd = m.forbidden.Update(msg)
	default:
		m.handleGridKey(msg)
	}
	return m, cmd
}

func (m *editorModel) handleGridKey(msg tea.KeyMsg) {
	rows, cols := m.grid.Dims()
	switch msg.String() {
	case "up":
		m.cursor.Row = max(m.cursor.Row-1, 0)
	case "down":
		m.cursor.Row = min(m.cursor.Row+1, rows-1)
	case "left":
		m.cursor.Col = max(m.cursor.Col-1, 0)
	case "right":
		m.cursor.Col = min(m.cursor.Col+1, cols-1)
	case "backspace", "delete":
		m.editor.Backspace(m.cursor)
	case "[":
		m.page(-1)
	case "]":
		m.page(1)
	default:
		if msg.Type == tea.KeyRunes && len(msg.Runes) > 0 {
			m.editor.Input(m.cursor, string(msg.Runes[len(msg.Runes)-1]))
		}
	}
}

func (m *editorModel) setArea(a area) tea.Cmd {
	m.area = a
	m.words.Blur()
	m.forbidden.Blur()
	switch a {
	case areaWords:
		return m.words.Focus()
	case areaForbidden:
		return m.forbidden.Focus()
	}
	return nil
}

// submit starts a solve of the current board. It is a no-op while a call is
// in flight.
func (m *editorModel) submit() tea.Cmd {
	if m.busy {
		return nil
	}
	wordCount := -1
	if text := strings.TrimSpace(m.words.Value()); text != "" {
		n, err := strconv.Atoi(text)
		if err != nil {
			m.notice = "word count must be a whole number"
			return nil
		}
		wordCount = n
	}
	m.notice = ""

	g := m.grid.Clone()
	p := solve.Params{
		WordCount:        wordCount,
		Forbidden:        m.forbidden.Value(),
		FindAllSolutions: m.findAll,
	}
	ctx, orch := m.ctx, m.orch
	m.busy = true
	m.views = nil
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return solvedMsg(orch.Submit(ctx, g, p))
	})
}

// settle applies the snapshot a finished Submit returned. A superseded call
// returns the newer state, which is shown as is.
func (m *editorModel) settle(snap solve.Snapshot) {
	m.snap = snap
	m.busy = snap.State == solve.Validating || snap.State == solve.Submitting
	m.views = present.Present(snap.Result)
	m.current = 0
}

func (m *editorModel) reset() {
	m.orch.Reset()
	m.grid.Reset()
	m.cursor = model.Coord{}
	m.busy = false
	m.snap = m.orch.Snapshot()
	m.views = nil
	m.current = 0
	m.notice = ""
}

func (m *editorModel) page(delta int) {
	if len(m.views) == 0 {
		return
	}
	m.current = (m.current + delta + len(m.views)) % len(m.views)
}
