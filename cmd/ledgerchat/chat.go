package main

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ledgerchat/ledgerchat/internal/cli"
	"github.com/ledgerchat/ledgerchat/internal/common"
)

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation",
		Long: `Start a conversational session for recording transactions.

Describe purchases and payments in plain language:

  ledgerchat chat
  > paid $12 for lunch yesterday
  > split $60 dinner with friends

Type "quit" or press Ctrl-D to leave.`,
		RunE: runChat,
	}
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

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

	fmt.Println(cli.FormatTitle("ledgerchat"))
	fmt.Println(cli.SubtleStyle.Render("Describe a transaction, or paste a statement. \"quit\" to exit."))

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print(cli.FormatPrompt("you"))
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}

		if ctx.Err() != nil {
			break
		}

		reply, err := orchestrator.SendMessage(ctx, line)
		if errors.Is(err, common.ErrBusy) {
			fmt.Println(cli.WarningStyle.Render(reply))
			continue
		}
		if err != nil {
			return err
		}
		// The reporter already printed the assistant turn.
		_ = reply
	}

	fmt.Println(cli.SubtleStyle.Render("Bye!"))
	return scanner.Err()
}
