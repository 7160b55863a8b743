package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/bodul/strands/internal/board"
	"github.com/bodul/strands/internal/logx"
	"github.com/bodul/strands/internal/present"
	imgrender "github.com/bodul/strands/internal/render"
	"github.com/bodul/strands/internal/solve"
	"github.com/bodul/strands/internal/tui"
)

var (
	commandSolveFlagWords     int
	commandSolveFlagForbidden string
	commandSolveFlagAll       bool
	commandSolveFlagPNG       string
)

var commandSolve = &cobra.Command{
	Use:   "solve ROW...",
	Short: "Solve a board given as one argument per row",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		client := solve.NewClient(cfg.Solver.URL, cfg.Solver.Timeout)
		defer client.Close()

		ctx := logx.WithLogger(cmd.Context(), logger)
		return solveBoard(ctx, client, args, solve.Params{
			WordCount:        commandSolveFlagWords,
			Forbidden:        commandSolveFlagForbidden,
			FindAllSolutions: commandSolveFlagAll,
		}, commandSolveFlagPNG, cmd.OutOrStdout())
	},
}

func init() {
	commandSolve.Flags().IntVarP(&commandSolveFlagWords, "words", "w", -1, "number of words in the solution (-1 lets the solver decide)")
	commandSolve.Flags().StringVarP(&commandSolveFlagForbidden, "forbidden", "f", "", "space separated words the solver must not use")
	commandSolve.Flags().BoolVarP(&commandSolveFlagAll, "all", "a", false, "find all solutions")
	commandSolve.Flags().StringVar(&commandSolveFlagPNG, "png", "", "write each solution as a PNG into this directory")
	mainCommand.AddCommand(commandSolve)
}

// solveBoard loads rows into a board, solves it through svc and prints every
// solution to out.
func solveBoard(ctx context.Context, svc solve.Service, rows []string, p solve.Params, pngDir string, out io.Writer) error {
	g := board.New(len(rows), utf8.RuneCountInString(rows[0]))
	if err := g.Load(rows); err != nil {
		return err
	}

	snap := solve.NewOrchestrator(svc).Submit(ctx, g, p)
	if snap.Result.Failed() {
		return errors.New(snap.Error)
	}

	views := present.Present(snap.Result)
	if len(views) == 0 {
		fmt.Fprintln(out, "no solutions")
		return nil
	}
	if pngDir != "" {
		if err := os.MkdirAll(pngDir, 0o755); err != nil {
			return fmt.Errorf("create png dir: %w", err)
		}
	}

	cells := g.Cells()
	for _, v := range views {
		fmt.Fprintf(out, "Solution %d/%d\n", v.Index+1, len(views))
		fmt.Fprint(out, tui.RenderBoard(cells, &v, nil))
		fmt.Fprintln(out, tui.RenderBadges(v))
		fmt.Fprintln(out)

		if pngDir == "" {
			continue
		}
		data, err := imgrender.PNG(cells, &v)
		if err != nil {
			return err
		}
		name := filepath.Join(pngDir, fmt.Sprintf("solution-%d.png", v.Index+1))
		if err := os.WriteFile(name, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}
