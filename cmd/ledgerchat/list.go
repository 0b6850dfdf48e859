package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ledgerchat/ledgerchat/internal/cli"
	"github.com/ledgerchat/ledgerchat/internal/model"
)

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show stored transactions",
		RunE:  runList,
	}
}

func runList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := openStore()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("Failed to close database", "error", closeErr)
		}
	}()

	transactions, err := store.ListTransactions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list transactions: %w", err)
	}
	if len(transactions) == 0 {
		fmt.Println(cli.SubtleStyle.Render("No transactions recorded yet."))
		return nil
	}

	for _, txn := range transactions {
		sign := "-"
		style := cli.ErrorStyle
		if txn.Direction == model.DirectionIn {
			sign = "+"
			style = cli.SuccessStyle
		}
		fmt.Printf("%s  %-30s %s  %s\n",
			cli.SubtleStyle.Render(txn.Date),
			txn.Description,
			style.Render(fmt.Sprintf("%s%.2f %s", sign, txn.Amount, txn.Currency)),
			cli.SubtleStyle.Render(txn.Category),
		)
	}
	fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("%d transactions", len(transactions))))
	return nil
}
