package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielolaszy/ghinbox/internal/config"
	"github.com/danielolaszy/ghinbox/internal/github"
	"github.com/danielolaszy/ghinbox/internal/server"
)

// serveCmd exposes the inbox over HTTP.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the inbox over HTTP",
	Long: `Serve the inbox as JSON over HTTP.

  GET /github-inbox?status=open|closed|all&state=new|replied
  GET /github-inbox/{owner}/{repo}?status=...&state=...

The first route uses the repository given with --repository or GITHUB_REPOSITORY.
Unknown status or state values are answered with 400 Bad Request.

Example:
  ghinbox serve -r owner/repo --addr :8080`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		repository, err := cmd.Flags().GetString("repository")
		if err != nil {
			return err
		}
		if repository == "" {
			repository = cfg.GitHub.Repository
		}
		if repository != "" {
			if _, _, err := config.SplitRepository(repository); err != nil {
				return err
			}
		}

		addr := cfg.Server.Addr
		if cmd.Flags().Changed("addr") {
			if addr, err = cmd.Flags().GetString("addr"); err != nil {
				return err
			}
		}

		githubClient, err := github.NewClient(cfg.GitHub)
		if err != nil {
			return fmt.Errorf("failed to initialize github client: %w", err)
		}

		return server.New(githubClient, repository, cfg.Inbox).ListenAndServe(cmd.Context(), addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (defaults to SERVER_ADDR or :8080)")
}
