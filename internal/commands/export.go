package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerview/internal/gitops"
	"github.com/cleared-dev/ledgerview/internal/model"
	"github.com/cleared-dev/ledgerview/internal/offline"
)

func newExportCommand(g *globalFlags) *cobra.Command {
	var dir string
	var rf rangeFlags

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Copy a window of the server ledger and its edit history into an offline data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, g)
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.Offline.Dir
			}
			if dir == "" {
				return fmt.Errorf("--dir is required when offline.dir is not configured")
			}
			r, err := rf.resolve(time.Now())
			if err != nil {
				return err
			}

			l, err := openDashboard(cfg).FetchLedger(cmd.Context(), r)
			if err != nil {
				return fmt.Errorf("fetching ledger: %w", err)
			}

			names := l.Accounts
			if len(names) == 0 {
				names = model.AccountNames(l.Rows)
			}

			store := offline.New(dir)
			if err := store.SaveLedger(l.Rows, names); err != nil {
				return err
			}
			if err := store.SaveEdits(l.Edits); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d rows, %d accounts and %d edits for %s to %s\n",
				len(l.Rows), len(names), len(l.Edits), r, dir)
			return commitSnapshot(cmd, dir, "export: "+r.String())
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "target directory (default offline.dir from config)")
	rf.register(cmd)

	return cmd
}

// commitSnapshot commits dir when it is a git repository and reports the
// commit.
func commitSnapshot(cmd *cobra.Command, dir, message string) error {
	hash, err := gitops.SnapshotIfRepo(dir, message)
	if err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}
	if hash != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Committed %s\n", hash)
	}
	return nil
}
