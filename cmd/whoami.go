// ABOUTME: Whoami command showing the current session identity
// ABOUTME: Decodes the stored access token locally; no network calls

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session",
	Long:  `Decode the stored access token and print the user id and token expiry.`,
	Run: func(cmd *cobra.Command, args []string) {
		if exitCode := runWhoami(); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}

func runWhoami() int {
	_, guard, _, err := newSession()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	claims, err := guard.CurrentClaims()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Not logged in. Run 'unimeet login'.")
		return 3
	}

	expiry := time.Time{}
	if claims.ExpiresAt != nil {
		expiry = claims.ExpiresAt.Time
	}

	if IsJSONOutput() {
		out, _ := json.MarshalIndent(map[string]any{
			"user_id": claims.UserID,
			"expires": expiry,
		}, "", "  ")
		fmt.Println(string(out))
		return 0
	}

	fmt.Printf("User ID: %d\n", claims.UserID)
	if !expiry.IsZero() {
		status := "valid"
		if !expiry.After(time.Now()) {
			status = "expired"
		}
		fmt.Printf("Token:   %s (expires %s)\n", status, expiry.Local().Format(time.RFC1123))
	}
	return 0
}
