// ABOUTME: Inbox command opening the notification drawer TUI
// ABOUTME: With --json, prints one aggregate snapshot and exits (CI-friendly)

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dbrow221/UniMeet/internal/inbox"
	"github.com/dbrow221/UniMeet/internal/session"
	"github.com/dbrow221/UniMeet/internal/tui"
)

var inboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "Open the notification inbox",
	Long: `Aggregate join requests, friend requests, unread messages, and notifications
into one feed. Without --json this opens the interactive inbox; with --json it
prints a single snapshot and exits.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if exitCode := runInbox(ctx, os.Stdout); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(inboxCmd)
}

func runInbox(ctx context.Context, w io.Writer) int {
	cfg, guard, client, err := newSession()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	state, err := guard.Authorize(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if state != session.StateAuthorized {
		fmt.Fprintln(os.Stderr, "Not logged in. Run 'unimeet login'.")
		return 3
	}

	agg := inbox.New(client)

	if IsJSONOutput() {
		snap, err := agg.Refresh(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 2
		}
		out, _ := json.MarshalIndent(snap, "", "  ")
		fmt.Fprintln(w, string(out))
		if snap.Degraded {
			return 2
		}
		return 0
	}

	if err := tui.Run(client, agg, cfg, tui.StartOnInbox); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
