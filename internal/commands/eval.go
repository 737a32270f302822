package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerview/internal/amount"
)

func newEvalCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "eval <value>",
		Short: "Evaluate a cell value the way the grid does",
		Long: `Evaluate a cell value the way the grid does.

Plain numbers may carry a sign, a "$" and thousands separators. A value
starting with "=" is an arithmetic formula over + - * / and parentheses,
for example "=120/4+2.5".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := amount.ParseStrict(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", amount.Fixed(amount.Round2(d)), amount.FormatAmount(d))
			return nil
		},
	}
}
