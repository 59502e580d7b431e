// ABOUTME: Events command listing public campus events
// ABOUTME: Human-readable table by default, raw JSON with --json

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/dbrow221/UniMeet/internal/api"
	"github.com/dbrow221/UniMeet/internal/inbox"
	"github.com/dbrow221/UniMeet/internal/session"
	"github.com/dbrow221/UniMeet/internal/tui"
)

var eventsInteractive bool

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List campus events",
	Long:  `Display events visible to the current user, newest first.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if exitCode := runEvents(ctx, os.Stdout); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	eventsCmd.Flags().BoolVarP(&eventsInteractive, "interactive", "i", false, "Browse events in the TUI")
	rootCmd.AddCommand(eventsCmd)
}

func runEvents(ctx context.Context, w io.Writer) int {
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

	if eventsInteractive {
		agg := inbox.New(client)
		if err := tui.Run(client, agg, cfg, tui.StartOnEvents); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	events, err := client.ListEvents(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	if IsJSONOutput() {
		out, _ := json.MarshalIndent(events, "", "  ")
		fmt.Fprintln(w, string(out))
		return 0
	}

	fmt.Fprintln(w, formatEventsHuman(events))
	return 0
}

func formatEventsHuman(events []api.Event) string {
	if len(events) == 0 {
		return "No events found."
	}

	out := fmt.Sprintf("%-6s %-30s %-20s %s\n", "ID", "EVENT", "HOST", "LOCATION")
	for _, e := range events {
		out += fmt.Sprintf("%-6d %-30s %-20s %s\n",
			e.ID, truncate(e.Name, 30), truncate(e.HostDetails.Username, 20), e.LocationDetails.Name)
	}
	return out
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
