package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerview/internal/view"
)

func newShowCommand(g *globalFlags) *cobra.Command {
	var rf rangeFlags

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective grid for a date range",
		Args:  cobra.NoArgs,
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
			m := sess.View()
			writeGrid(out, m)
			writePending(out, m)
			if n := len(sess.Diagnostics()); n > 0 {
				fmt.Fprintf(out, "\n%d integrity issue(s); run `ledgerview validate` for details\n", n)
			}
			return nil
		},
	}
	rf.register(cmd)

	return cmd
}

// writeGrid prints one line per date with balance, transaction and note
// per displayed account. A trailing * marks a user edit.
func writeGrid(w io.Writer, m *view.Model) {
	cols := m.Columns()
	if len(cols) == 0 {
		fmt.Fprintln(w, "No accounts with activity in range.")
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-20s", " DATE")
	for _, c := range cols {
		fmt.Fprintf(&b, " | %-14s %-12s %-20s", c.Short, "TX", "NOTE")
	}
	fmt.Fprintln(w, strings.TrimRight(b.String(), " "))

	for _, r := range m.Rows() {
		b.Reset()
		marker := " "
		if r.Today {
			marker = ">"
		}
		fmt.Fprintf(&b, "%s%-10s %-9s", marker, r.Date, r.Label)
		for _, c := range cols {
			cells := r.Accounts[c.Account]
			fmt.Fprintf(&b, " | %14s %-12s %-20s",
				cells.Balance.Display, mark(cells.Transaction), mark(cells.Description))
		}
		fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	}
}

func mark(c view.Cell) string {
	if c.Edited {
		return c.Display + "*"
	}
	return c.Display
}

func writePending(w io.Writer, m *view.Model) {
	pending := m.Pending()
	if len(pending) == 0 {
		return
	}
	fmt.Fprintf(w, "\nPending edits (no matching row loaded):\n")
	for _, e := range pending {
		fmt.Fprintf(w, "  %s %s %s = %q\n", e.Date, e.Account, e.Field, e.Value)
	}
}
