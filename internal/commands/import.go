package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerview/internal/amount"
	"github.com/cleared-dev/ledgerview/internal/importer"
	"github.com/cleared-dev/ledgerview/internal/offline"
)

func newImportCommand(g *globalFlags) *cobra.Command {
	var (
		account string
		format  string
		opening string
		dir     string
	)

	cmd := &cobra.Command{
		Use:   "import <bank.csv>",
		Short: "Replace one account's rows in the offline ledger with a bank CSV export",
		Long: `Replace one account's rows in the offline ledger with a bank CSV export.

Transactions are summed per day and written as contiguous daily rows with
start-of-day balances. The opening balance is derived from the export's
balance column unless --opening is given.`,
		Args: cobra.ExactArgs(1),
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

			reg := importer.DefaultRegistry()
			p := reg.Get(format)
			if p == nil {
				return fmt.Errorf("unknown format %q (available: %s)", format, strings.Join(reg.Formats(), ", "))
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()

			txns, err := p.Parse(f)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", args[0], err)
			}
			if len(txns) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No transactions in %s\n", args[0])
				return nil
			}

			var start decimal.Decimal
			if cmd.Flags().Changed("opening") {
				start, err = amount.ParseStrict(opening)
				if err != nil {
					return fmt.Errorf("invalid --opening: %w", err)
				}
			} else {
				start, err = importer.OpeningBalance(txns)
				if err != nil {
					return fmt.Errorf("%w; pass --opening", err)
				}
			}

			rows := importer.BuildRows(txns, account, start)
			if err := offline.New(dir).ReplaceAccount(account, rows); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d transactions into %d rows for %s (%s to %s, opening %s)\n",
				len(txns), len(rows), account, rows[0].Date, rows[len(rows)-1].Date, amount.Fixed(start))
			return commitSnapshot(cmd, dir, fmt.Sprintf("import: %s from %s", account, filepath.Base(args[0])))
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "ledger account the export belongs to")
	cmd.Flags().StringVar(&format, "format", "chase", "bank export format")
	cmd.Flags().StringVar(&opening, "opening", "", "balance before the first transaction")
	cmd.Flags().StringVar(&dir, "dir", "", "offline data directory (default offline.dir from config)")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}
