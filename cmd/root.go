// Package cmd provides the command-line interface for ghinbox.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/danielolaszy/ghinbox/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "ghinbox",
	Short: "ghinbox turns a GitHub repository into an inbox of markdown notes",
	Long: `ghinbox fetches the issues, pull requests and discussions of a GitHub repository.

It can write each of them as a markdown note with front matter, rewriting only
the notes whose item changed on GitHub, or report them as an inbox that shows
which threads still wait for a maintainer reply.

Configuration is read from the environment and from a .env file in the working
directory. GITHUB_TOKEN is required.`,
	SilenceUsage: true,
}

// Execute runs the root command with a context cancelled on SIGINT or SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Add persistent flags that will be available to all commands
	rootCmd.PersistentFlags().StringP("repository", "r", "", "GitHub repository name (e.g., 'username/repo'), defaults to GITHUB_REPOSITORY")

	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(inboxCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(notesCmd)
}

// resolveRepository returns the owner and name of the repository to work on.
// The --repository flag wins over the configured default.
func resolveRepository(cmd *cobra.Command, cfg *config.Config) (owner, repo string, err error) {
	repository, err := cmd.Flags().GetString("repository")
	if err != nil {
		return "", "", err
	}
	if repository == "" {
		repository = cfg.GitHub.Repository
	}
	if repository == "" {
		return "", "", fmt.Errorf("repository flag is required (or set GITHUB_REPOSITORY)")
	}
	return config.SplitRepository(repository)
}
