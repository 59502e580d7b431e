// ABOUTME: Login command exchanging a username and password for tokens
// ABOUTME: Prompts interactively via huh unless credentials come from flags

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var (
	loginUsername string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to UniMeet",
	Long:  `Authenticate against the UniMeet API and store the issued credential pair locally.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if exitCode := runLogin(ctx); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username (prompts if omitted)")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Password (prompts if omitted)")
	rootCmd.AddCommand(loginCmd)
}

func runLogin(ctx context.Context) int {
	_, guard, _, err := newSession()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	username, password := loginUsername, loginPassword
	if username == "" || password == "" {
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Username").
					Value(&username),
				huh.NewInput().
					Title("Password").
					EchoMode(huh.EchoModePassword).
					Value(&password),
			),
		).WithTheme(huh.ThemeBase())
		if err := form.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	if username == "" || password == "" {
		fmt.Fprintln(os.Stderr, "Error: username and password are required")
		return 1
	}

	if err := guard.Login(ctx, username, password); err != nil {
		fmt.Fprintf(os.Stderr, "Login failed: %v\n", err)
		return 2
	}

	fmt.Printf("Logged in as %s\n", username)
	return 0
}
