package main

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bodul/strands/internal/logx"
	"github.com/bodul/strands/internal/solve"
	"github.com/bodul/strands/internal/tui"
)

var commandTUI = &cobra.Command{
	Use:   "tui",
	Short: "Edit and solve a board in the terminal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd.Context())
	},
}

func init() {
	mainCommand.AddCommand(commandTUI)
}

func runTUI(ctx context.Context) error {
	cfg, _, err := setup()
	if err != nil {
		return err
	}
	// The terminal belongs to the program; keep the solver quiet.
	ctx = logx.WithLogger(ctx, zap.NewNop())

	client := solve.NewClient(cfg.Solver.URL, cfg.Solver.Timeout)
	defer client.Close()

	m := tui.New(ctx, tui.Config{Service: client, Rows: cfg.Board.Rows, Cols: cfg.Board.Cols})
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
