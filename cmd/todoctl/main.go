package main

import (
	"fmt"
	"os"

	"todo-manager/internal/client"

	"github.com/spf13/cobra"
)

var (
	apiURL   string
	stateDir string

	cli *client.Client
)

var rootCmd = &cobra.Command{
	Use:           "todoctl",
	Short:         "Command-line front end for the todo manager API",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := client.New(apiURL, stateDir)
		if err != nil {
			return err
		}
		cli = c
		return nil
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", defaultAPIURL(), "base URL of the todo API")
	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", "", "override the client state directory")

	rootCmd.AddCommand(
		loginCmd,
		logoutCmd,
		whoamiCmd,
		listCmd,
		addCmd,
		editCmd,
		doneCmd,
		rmCmd,
		statsCmd,
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func defaultAPIURL() string {
	if v := os.Getenv("TODO_API_URL"); v != "" {
		return v
	}
	return "http://localhost:3001"
}

// warnOffline flags commands that were served by the local fallback store
// instead of the server. Offline changes never sync back.
func warnOffline() {
	if cli.State().Offline {
		fmt.Fprintln(os.Stderr, "⚠️  Server unreachable — showing local offline copy. Changes made offline will NOT sync to the server.")
	}
}
