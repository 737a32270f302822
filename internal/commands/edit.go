package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerview/internal/amount"
	"github.com/cleared-dev/ledgerview/internal/model"
	"github.com/cleared-dev/ledgerview/internal/session"
)

func newEditCommand(g *globalFlags) *cobra.Command {
	var in session.EditInput
	var field string
	var bold, italic bool

	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Override one transaction or description cell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := model.ParseField(field)
			if err != nil {
				return err
			}
			in.Field = f

			var format model.Format
			if cmd.Flags().Changed("bold") {
				format.Bold = &bold
			}
			if cmd.Flags().Changed("italic") {
				format.Italic = &italic
			}
			if format.Bold != nil || format.Italic != nil {
				in.Format = &format
			}

			return runEdit(cmd, g, in)
		},
	}

	cmd.Flags().StringVar(&in.Date, "date", "", "row date, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&in.Account, "account", "", "full account name (required)")
	cmd.Flags().StringVar(&field, "field", string(model.FieldTransaction), "transaction or description")
	cmd.Flags().StringVar(&in.Value, "value", "", "new value; a leading = makes a formula")
	cmd.Flags().BoolVar(&bold, "bold", false, "set bold")
	cmd.Flags().BoolVar(&italic, "italic", false, "set italic")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}

func runEdit(cmd *cobra.Command, g *globalFlags, in session.EditInput) error {
	cfg, err := loadConfig(cmd, g)
	if err != nil {
		return err
	}

	sess := newSession(cfg, openSource(cfg))
	if err := sess.Load(cmd.Context(), model.DateRange{Start: in.Date, End: in.Date}); err != nil {
		return fmt.Errorf("loading ledger: %w", err)
	}

	res, err := sess.Commit(in)
	if err != nil {
		return err
	}
	sess.Wait()

	if perrs := sess.PersistErrors(); len(perrs) > 0 {
		return fmt.Errorf("edit %s kept locally but not saved: %w", res.Edit.ID, perrs[0].Err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Saved %s for %s on %s (id %s)\n", res.Edit.Field, res.Edit.Account, res.Edit.Date, res.Edit.ID)
	if res.Pending {
		fmt.Fprintln(out, "No row for that date and account is loaded yet; the edit applies once one is.")
		return nil
	}
	if res.Edit.Field == model.FieldTransaction {
		if _, err := amount.ParseStrict(res.Edit.Value); err != nil {
			fmt.Fprintf(out, "Warning: %v; it counts as 0\n", err)
		}
	}
	return nil
}
