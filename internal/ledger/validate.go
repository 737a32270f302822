package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgerview/internal/amount"
	"github.com/cleared-dev/ledgerview/internal/model"
)

// Kind classifies a diagnostic.
type Kind string

const (
	// KindBalanceMismatch: a stored balance differs from the prior row's
	// balance plus transaction by more than the tolerance.
	KindBalanceMismatch Kind = "balance-mismatch"
	// KindDateOrder: a row's date is not strictly after the previous row's.
	KindDateOrder Kind = "date-order"
)

// Diagnostic describes one advisory inconsistency. Diagnostics never
// block rendering or editing; balances may legitimately be adjusted
// outside the ledger (interest postings and the like).
type Diagnostic struct {
	Kind            Kind
	Account         string
	Date            string
	PrevBalance     decimal.Decimal
	PrevTransaction decimal.Decimal
	Expected        decimal.Decimal
	Actual          decimal.Decimal
	Description     string
}

func (d Diagnostic) Error() string {
	if d.Account == "" {
		return fmt.Sprintf("%s [%s]: %s", d.Kind, d.Date, d.Description)
	}
	return fmt.Sprintf("%s [%s %s]: %s", d.Kind, d.Account, d.Date, d.Description)
}

// Validate walks rows in order for every account and reports each row
// whose balance disagrees with the balance plus transaction of the
// previous row carrying that account. It does not modify rows.
func Validate(rows []model.Row, accounts []string) []Diagnostic {
	var diags []Diagnostic

	for i := 1; i < len(rows); i++ {
		if rows[i].Date <= rows[i-1].Date {
			diags = append(diags, Diagnostic{
				Kind:        KindDateOrder,
				Date:        rows[i].Date,
				Description: fmt.Sprintf("date %s does not follow %s", rows[i].Date, rows[i-1].Date),
			})
		}
	}

	for _, account := range accounts {
		last := -1
		for i := range rows {
			if !rows[i].Has(account) {
				continue
			}
			if last < 0 {
				last = i
				continue
			}
			prev := rows[last].Snapshot(account)
			last = i
			prevBalance := amount.Parse(prev.Balance)
			prevTransaction := amount.Parse(prev.Transaction)
			expected := prevBalance.Add(prevTransaction)
			actual := amount.Parse(rows[i].Snapshot(account).Balance)

			if amount.Equal(expected, actual) {
				continue
			}
			diags = append(diags, Diagnostic{
				Kind:            KindBalanceMismatch,
				Account:         account,
				Date:            rows[i].Date,
				PrevBalance:     prevBalance,
				PrevTransaction: prevTransaction,
				Expected:        expected,
				Actual:          actual,
				Description: fmt.Sprintf("expected %s (%s + %s), got %s",
					expected.StringFixed(2), prevBalance.StringFixed(2), prevTransaction.StringFixed(2), actual.StringFixed(2)),
			})
		}
	}

	return diags
}
