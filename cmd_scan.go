package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bodul/strands/internal/vision"
)

var commandScan = &cobra.Command{
	Use:   "scan IMAGE",
	Short: "Read a board from a photo and print its rows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()
		if cfg.Vision.Project == "" {
			return errors.New("vision project is not set (GCP_PROJECT_ID or vision.project)")
		}

		mimeType, err := imageMIME(args[0])
		if err != nil {
			return err
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}

		client, err := vision.NewClient(cmd.Context(), cfg.Vision)
		if err != nil {
			return fmt.Errorf("init vision client: %w", err)
		}
		defer client.Close()

		rows, err := client.Scan(cmd.Context(), data, mimeType, cfg.Board.Rows, cfg.Board.Cols)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.Join(rows, " "))
		return nil
	},
}

func init() {
	mainCommand.AddCommand(commandScan)
}

func imageMIME(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png", nil
	case ".jpg", ".jpeg":
		return "image/jpeg", nil
	}
	return "", fmt.Errorf("%s: accepted formats: JPEG or PNG", path)
}
