package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/danielolaszy/ghinbox/internal/config"
	"github.com/danielolaszy/ghinbox/internal/github"
	"github.com/danielolaszy/ghinbox/internal/inbox"
	"github.com/danielolaszy/ghinbox/internal/logging"
	"github.com/danielolaszy/ghinbox/internal/render"
	"github.com/danielolaszy/ghinbox/internal/store"
)

// syncCmd writes every issue, pull request and discussion of a repository as a note.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Write issues, pull requests and discussions as markdown notes",
	Long: `Write every issue, pull request and discussion of a repository as a markdown note.

Notes are written to <root>/github/<repo>/<issues|pull_requests|discussions>/<number> <title>.md.
A note is only rewritten when the item was updated on GitHub after the timestamp
stored in the note's front matter. Notes whose front matter cannot be read are
left untouched.

With --store sqlite the notes are kept in a SQLite database instead of files.

Example:
  ghinbox sync -r owner/repo --root ~/vault`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := applySyncFlags(cmd, cfg); err != nil {
			return err
		}

		owner, repo, err := resolveRepository(cmd, cfg)
		if err != nil {
			return err
		}

		githubClient, err := github.NewClient(cfg.GitHub)
		if err != nil {
			return fmt.Errorf("failed to initialize github client: %w", err)
		}

		noteStore, closeStore, err := openStore(cfg.Sync)
		if err != nil {
			return err
		}
		defer closeStore()

		syncer := &inbox.Syncer{
			Source:      githubClient,
			Store:       noteStore,
			Renderer:    render.Renderer{Maintainer: cfg.Inbox.MaintainerFor(owner)},
			Owner:       owner,
			Repo:        repo,
			PerPage:     cfg.Sync.PerPage,
			Concurrency: cfg.Sync.Concurrency,
		}

		result, err := syncer.Run(cmd.Context())
		if err != nil {
			return fmt.Errorf("sync interrupted: %w", err)
		}

		printSummary(cmd.OutOrStdout(), result)
		if !result.Complete() {
			logging.Warn("sync incomplete, rerun to retry the remaining items", "warnings", result.Warnings)
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().String("root", "", "directory notes are written under (defaults to SYNC_ROOT or .)")
	syncCmd.Flags().String("store", "", "note store: fs or sqlite (defaults to SYNC_STORE or fs)")
	syncCmd.Flags().Int("concurrency", 0, "number of items saved at once (defaults to SYNC_CONCURRENCY or 8)")
}

// applySyncFlags overrides the sync configuration with flags set on the command line.
func applySyncFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("root") {
		root, err := flags.GetString("root")
		if err != nil {
			return err
		}
		if cfg.Sync.IndexPath == config.DefaultIndexPath(cfg.Sync.Root) {
			cfg.Sync.IndexPath = config.DefaultIndexPath(root)
		}
		cfg.Sync.Root = root
	}
	if flags.Changed("store") {
		storeName, err := flags.GetString("store")
		if err != nil {
			return err
		}
		cfg.Sync.Store = storeName
	}
	if flags.Changed("concurrency") {
		concurrency, err := flags.GetInt("concurrency")
		if err != nil {
			return err
		}
		cfg.Sync.Concurrency = concurrency
	}
	return config.ValidateLimits(cfg)
}

// openStore builds the store selected by the configuration. The returned
// function releases it.
func openStore(cfg config.SyncConfig) (store.Store, func(), error) {
	switch cfg.Store {
	case config.StoreSQLite:
		db, err := store.OpenSQLite(cfg.IndexPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open note index: %w", err)
		}
		logging.Info("using sqlite note store", "path", db.Path())
		return db, func() {
			if err := db.Close(); err != nil {
				logging.Error("failed to close note index", "path", db.Path(), "error", err)
			}
		}, nil
	default:
		logging.Info("using filesystem note store", "root", cfg.Root)
		return store.NewOSStore(cfg.Root), func() {}, nil
	}
}

func printSummary(w io.Writer, result *inbox.Result) {
	created, updated, skipped := result.Tally.Counts()
	fmt.Fprintf(w, "created %d, updated %d, skipped %d", created, updated, skipped)
	if result.Warnings > 0 {
		fmt.Fprintf(w, " (%d warnings)", result.Warnings)
	}
	fmt.Fprintln(w)
}
