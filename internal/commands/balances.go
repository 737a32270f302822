package commands

import (
	"fmt"
	"io"
	"sort"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerview/internal/accounts"
)

func newBalancesCommand(g *globalFlags) *cobra.Command {
	var currency string

	cmd := &cobra.Command{
		Use:   "balances <account-id>",
		Short: "Print current balances of accounts matching an identifier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, g)
			if err != nil {
				return err
			}

			bals, err := openSource(cfg).FetchAccountBalances(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("fetching balances: %w", err)
			}
			if len(bals) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No accounts match %q\n", args[0])
				return nil
			}
			writeBalances(cmd.OutOrStdout(), bals, currency)
			return nil
		},
	}
	cmd.Flags().StringVar(&currency, "currency", money.USD, "ISO 4217 currency code for display")

	return cmd
}

// writeBalances prints one line per account, labelled by the last two
// name segments, sorted by full name.
func writeBalances(w io.Writer, bals map[string]decimal.Decimal, currency string) {
	names := make([]string, 0, len(bals))
	for n := range bals {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		fmt.Fprintf(w, "%-30s %15s\n", accounts.Tail(n, 2), formatMoney(bals[n], currency))
	}
}

// formatMoney renders d with the currency's symbol, grouping and
// fraction digits.
func formatMoney(d decimal.Decimal, currency string) string {
	// money.New never returns a nil currency, unlike GetCurrency.
	cur := money.New(0, currency).Currency()
	minor := d.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}
