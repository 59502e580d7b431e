// ABOUTME: Root command for the unimeet CLI
// ABOUTME: Handles global flags, configuration, and shared client wiring

package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/dbrow221/UniMeet/internal/api"
	"github.com/dbrow221/UniMeet/internal/config"
	"github.com/dbrow221/UniMeet/internal/logger"
	"github.com/dbrow221/UniMeet/internal/session"
)

var (
	apiURL     string
	jsonOutput bool
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "unimeet",
	Short: "Terminal client for UniMeet",
	Long: `unimeet is a terminal client for the UniMeet campus event and messaging API.

It manages your login session, browses events, and aggregates join requests,
friend requests, unread messages, and notifications into one inbox.

Environment Variables:
  UNIMEET_API_URL        Backend API URL (default: http://127.0.0.1:8000)
  UNIMEET_POLL_INTERVAL  Inbox polling interval in seconds (default: 30)`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend API URL (overrides UNIMEET_API_URL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
}

// GetAPIURL returns the API URL from flag, env, or config default (in priority order)
func GetAPIURL(cfg *config.Config) string {
	if apiURL != "" {
		return apiURL
	}
	return cfg.APIURL
}

// IsJSONOutput returns whether JSON output is requested
func IsJSONOutput() bool {
	return jsonOutput
}

// newSession loads configuration and wires the credential store, session
// guard, and API client that every subcommand shares
func newSession() (*config.Config, *session.Guard, *api.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	logger.Init(cfg.LogFile)

	url := GetAPIURL(cfg)
	timeout := time.Duration(cfg.RequestTimeout) * time.Second

	store := session.NewStore(cfg.CredentialsPath)
	guard := session.NewGuard(store, url, timeout)
	client := api.New(url, guard, timeout, time.Duration(cfg.EventsCacheTTL)*time.Second)

	return cfg, guard, client, nil
}
