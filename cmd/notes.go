package cmd

import (
	"fmt"
	"io"
	"path"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/danielolaszy/ghinbox/internal/config"
	"github.com/danielolaszy/ghinbox/internal/store"
)

// notesCmd lists the notes held by the SQLite note store.
var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "List the notes kept in the SQLite note store",
	Long: `List the notes written by "ghinbox sync --store sqlite" with their inbox
state and timestamp. With --repository only that repository's notes are listed.

Example:
  ghinbox notes -r owner/repo`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		prefix := ""
		repository, err := cmd.Flags().GetString("repository")
		if err != nil {
			return err
		}
		if repository != "" {
			_, repo, err := config.SplitRepository(repository)
			if err != nil {
				return err
			}
			prefix = path.Join("github", repo) + "/"
		}

		db, err := store.OpenSQLite(cfg.Sync.IndexPath)
		if err != nil {
			return fmt.Errorf("failed to open note index: %w", err)
		}
		defer db.Close()

		entries, err := db.Entries(cmd.Context(), prefix)
		if err != nil {
			return err
		}
		return printEntries(cmd.OutOrStdout(), entries)
	},
}

func printEntries(w io.Writer, entries []store.Entry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STATE\tTIMESTAMP\tWRITTEN\tPATH")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", e.State, e.Timestamp, e.WrittenAt, e.Path)
	}
	return tw.Flush()
}
