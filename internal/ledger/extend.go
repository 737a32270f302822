package ledger

import (
	"fmt"
	"time"

	"github.com/cleared-dev/ledgerview/internal/model"
)

// Extend appends days future rows after the last row. Each copies the last
// row's balances with empty transactions and descriptions, giving edits a
// place to land beyond the server's horizon. rows is not modified.
func Extend(rows []model.Row, days int) ([]model.Row, error) {
	out := model.CloneRows(rows)
	if days <= 0 || len(out) == 0 {
		return out, nil
	}

	last := out[len(out)-1]
	d, err := time.Parse(model.DateFormat, last.Date)
	if err != nil {
		return nil, fmt.Errorf("parsing last row date %q: %w", last.Date, err)
	}

	template := last.Clone()
	for account, snap := range template.Accounts {
		snap.Transaction = ""
		snap.Description = ""
		template.Accounts[account] = snap
	}

	for i := 0; i < days; i++ {
		d = d.AddDate(0, 0, 1)
		row := template.Clone()
		row.Date = d.Format(model.DateFormat)
		out = append(out, row)
	}
	return out, nil
}
