// Package ledger propagates running balances through a date-ordered row
// sequence and checks the sequence for balance consistency.
package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgerview/internal/amount"
	"github.com/cleared-dev/ledgerview/internal/model"
)

// Recalculate rewrites account's balance on every row from index from to
// the end, so that each balance equals the balance plus transaction of the
// nearest earlier row carrying the account. It works on a copy and never
// mutates rows.
//
// Rows without the account are skipped and never gain it. When no row
// before from carries the account, the first one at or after from is the
// starting point and its balance is only normalized to two decimals.
// Other accounts are untouched. An out-of-range from returns an unchanged
// copy.
func Recalculate(rows []model.Row, account string, from int) []model.Row {
	out := model.CloneRows(rows)
	if from < 0 || from >= len(out) {
		return out
	}

	var prevBalance, prevTransaction decimal.Decimal
	anchored := false
	if j := lastWith(out[:from], account); j >= 0 {
		prev := out[j].Snapshot(account)
		prevBalance = amount.Parse(prev.Balance)
		prevTransaction = amount.Parse(prev.Transaction)
		anchored = true
	}

	for i := from; i < len(out); i++ {
		snap, ok := out[i].Accounts[account]
		if !ok {
			continue
		}
		if anchored {
			snap.Balance = amount.Fixed(amount.Round2(prevBalance.Add(prevTransaction)))
		} else {
			snap.Balance = amount.Fixed(amount.Round2(amount.Parse(snap.Balance)))
			anchored = true
		}
		out[i].Accounts[account] = snap

		prevBalance = amount.Parse(snap.Balance)
		prevTransaction = amount.Parse(snap.Transaction)
	}
	return out
}

// lastWith returns the index of the last row carrying account, or -1.
func lastWith(rows []model.Row, account string) int {
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].Has(account) {
			return i
		}
	}
	return -1
}

// RecalculateFrom runs Recalculate for each account in starts, beginning at
// that account's index.
func RecalculateFrom(rows []model.Row, starts map[string]int) []model.Row {
	out := rows
	for account, from := range starts {
		out = Recalculate(out, account, from)
	}
	if len(starts) == 0 {
		out = model.CloneRows(rows)
	}
	return out
}
