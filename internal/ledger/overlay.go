package ledger

import (
	"github.com/cleared-dev/ledgerview/internal/model"
)

// OverlayResult is the outcome of applying edits to a row sequence.
type OverlayResult struct {
	Rows []model.Row
	// Dirty maps each account to the earliest row index whose transaction
	// was overridden; balances from there on need recomputing.
	Dirty map[string]int
	// Pending holds edits whose (date, account) has no row yet.
	Pending []model.Edit
}

// Overlay writes each edit's value into a copy of rows. Edits are applied
// in order, so callers pass only the winning edit per cell.
func Overlay(rows []model.Row, edits []model.Edit) OverlayResult {
	res := OverlayResult{
		Rows:  model.CloneRows(rows),
		Dirty: make(map[string]int),
	}
	for _, e := range edits {
		i := model.IndexOf(res.Rows, e.Date)
		if i < 0 || !res.Rows[i].Has(e.Account) {
			res.Pending = append(res.Pending, e)
			continue
		}
		snap := res.Rows[i].Accounts[e.Account]
		switch e.Field {
		case model.FieldTransaction:
			snap.Transaction = e.Value
			if prev, ok := res.Dirty[e.Account]; !ok || i < prev {
				res.Dirty[e.Account] = i
			}
		case model.FieldDescription:
			snap.Description = e.Value
		}
		res.Rows[i].Accounts[e.Account] = snap
	}
	return res
}
