package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ledgerchat/ledgerchat/internal/cli"
)

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import transactions from a text file",
		Long: `Run a text file through the bulk extraction pipeline.

The file is split into sections, each section is extracted in parallel
groups, and duplicates of already-stored transactions are skipped.

Examples:
  ledgerchat import statement.txt`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	if len(data) == 0 {
		return fmt.Errorf("%s is empty", args[0])
	}

	status := cli.NewConsoleReporter(os.Stdout)
	orchestrator, store, err := buildOrchestrator(ctx, status)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("Failed to close database", "error", closeErr)
		}
	}()

	reply, err := orchestrator.ProcessBulk(ctx, string(data))
	if err != nil {
		fmt.Println(cli.FormatError("import failed"))
		return err
	}

	fmt.Println(reply)
	return nil
}
