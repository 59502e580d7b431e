// ABOUTME: Logout command clearing the stored credential pair
// ABOUTME: Local operation only; the server keeps no session state

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out of UniMeet",
	Long:  `Remove the locally stored access and refresh tokens.`,
	Run: func(cmd *cobra.Command, args []string) {
		_, guard, _, err := newSession()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if err := guard.Logout(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Logged out")
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
