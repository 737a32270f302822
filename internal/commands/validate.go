package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newValidateCommand(g *globalFlags) *cobra.Command {
	var rf rangeFlags

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check that every balance equals the previous balance plus transaction",
		Long: `Check the ledger rows returned by the source for balance consistency.

Each row's balance must equal the previous row's balance plus the previous
row's transaction, within 0.01. Problems are reported, never fixed; the
command exits 0 either way.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, g)
			if err != nil {
				return err
			}
			r, err := rf.resolve(time.Now())
			if err != nil {
				return err
			}

			sess := newSession(cfg, openSource(cfg))
			if err := sess.Load(cmd.Context(), r); err != nil {
				return fmt.Errorf("loading ledger: %w", err)
			}

			out := cmd.OutOrStdout()
			diags := sess.Diagnostics()
			if len(diags) == 0 {
				fmt.Fprintf(out, "No issues found in %s (%d accounts)\n", r, len(sess.Accounts()))
				return nil
			}
			for _, d := range diags {
				fmt.Fprintln(out, d.Error())
			}
			fmt.Fprintf(out, "%d issue(s) found in %s\n", len(diags), r)
			return nil
		},
	}
	rf.register(cmd)

	return cmd
}
