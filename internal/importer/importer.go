// Package importer turns bank CSV exports into daily ledger rows for one
// account.
package importer

import (
	"errors"
	"io"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgerview/internal/amount"
	"github.com/cleared-dev/ledgerview/internal/model"
)

// Parser converts a bank CSV file into BankTransactions.
type Parser interface {
	Parse(r io.Reader) ([]model.BankTransaction, error)
	Format() string
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// Formats returns the registered format names, sorted.
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.parsers))
	for k := range r.parsers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&ChaseParser{})
	return r
}

// ErrNoOpening is returned by OpeningBalance when no transaction carries a
// balance.
var ErrNoOpening = errors.New("no transaction carries a balance")

// Chronological returns txns sorted by date, keeping file order reversed
// within a day since exports list the newest first.
func Chronological(txns []model.BankTransaction) []model.BankTransaction {
	out := make([]model.BankTransaction, len(txns))
	for i, t := range txns {
		out[len(txns)-1-i] = t
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// OpeningBalance derives the balance before the earliest transaction:
// the first reported balance, backed out through every transaction up to
// and including the one that reported it.
func OpeningBalance(txns []model.BankTransaction) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, t := range Chronological(txns) {
		sum = sum.Add(t.Amount)
		if t.HasBalance {
			return t.Balance.Sub(sum), nil
		}
	}
	return decimal.Zero, ErrNoOpening
}

// BuildRows produces one row per calendar day from the earliest to the
// latest transaction. Each row's transaction is the day's net amount, its
// description the day's descriptions joined with "; ", and its balance
// the start-of-day balance running forward from opening. An empty input
// yields no rows.
func BuildRows(txns []model.BankTransaction, account string, opening decimal.Decimal) []model.Row {
	if len(txns) == 0 {
		return nil
	}
	ordered := Chronological(txns)

	type day struct {
		net   decimal.Decimal
		descs []string
	}
	days := make(map[string]*day)
	for _, t := range ordered {
		key := t.Date.Format(model.DateFormat)
		d, ok := days[key]
		if !ok {
			d = &day{}
			days[key] = d
		}
		d.net = d.net.Add(t.Amount)
		if t.Description != "" {
			d.descs = append(d.descs, t.Description)
		}
	}

	first, last := ordered[0].Date, ordered[len(ordered)-1].Date
	balance := opening
	var rows []model.Row
	for cur := first; !cur.After(last); cur = cur.AddDate(0, 0, 1) {
		key := cur.Format(model.DateFormat)
		snap := model.AccountSnapshot{Balance: amount.Fixed(amount.Round2(balance))}
		if d, ok := days[key]; ok {
			snap.Transaction = amount.Fixed(amount.Round2(d.net))
			snap.Description = strings.Join(d.descs, "; ")
			balance = balance.Add(d.net)
		}
		rows = append(rows, model.Row{Date: key, Accounts: map[string]model.AccountSnapshot{account: snap}})
	}
	return rows
}
