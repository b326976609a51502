package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielolaszy/ghinbox/internal/config"
	"github.com/danielolaszy/ghinbox/internal/github"
	"github.com/danielolaszy/ghinbox/internal/inbox"
	"github.com/danielolaszy/ghinbox/internal/logging"
)

// inboxCmd prints the filtered inbox of a repository as JSON.
var inboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "Print the inbox of a repository as JSON",
	Long: `Print the issues and discussions of a repository as JSON without writing anything.

Each item is classified as "replied" when the maintainer (INBOX_MAINTAINER,
defaulting to the repository owner) wrote the last comment, and "new" otherwise.

Only the first INBOX_PAGE_LIMIT pages of INBOX_PER_PAGE items are read.

Example:
  ghinbox inbox -r owner/repo --status open --state new`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		owner, repo, err := resolveRepository(cmd, cfg)
		if err != nil {
			return err
		}

		status, err := cmd.Flags().GetString("status")
		if err != nil {
			return err
		}
		state, err := cmd.Flags().GetString("state")
		if err != nil {
			return err
		}

		opts := inbox.QueryOptions{
			Status:     status,
			State:      state,
			PerPage:    cfg.Inbox.PerPage,
			PageLimit:  inbox.ConfiguredPageLimit(cfg.Inbox.PageLimit),
			Maintainer: cfg.Inbox.MaintainerFor(owner),
		}
		if err := opts.Validate(); err != nil {
			return err
		}

		githubClient, err := github.NewClient(cfg.GitHub)
		if err != nil {
			return fmt.Errorf("failed to initialize github client: %w", err)
		}

		resp, err := inbox.Query(cmd.Context(), githubClient, owner, repo, opts)
		if err != nil {
			return fmt.Errorf("failed to build inbox: %w", err)
		}
		if resp.Warnings > 0 {
			logging.Warn("inbox may be incomplete", "warnings", resp.Warnings)
		}

		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(resp)
	},
}

func init() {
	inboxCmd.Flags().String("status", inbox.StatusAll, "issue status: open, closed or all")
	inboxCmd.Flags().String("state", "", "inbox state: new or replied (default: both)")
}
