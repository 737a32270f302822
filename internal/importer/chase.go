package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cleared-dev/ledgerview/internal/amount"
	"github.com/cleared-dev/ledgerview/internal/model"
)

// ChaseParser reads Chase checking exports. Columns are located by
// header name, so reordered or extra columns are tolerated.
type ChaseParser struct{}

// Chase header names. Balance is optional.
const (
	chaseDate    = "Posting Date"
	chaseDesc    = "Description"
	chaseAmount  = "Amount"
	chaseType    = "Type"
	chaseBalance = "Balance"

	chaseLayout = "01/02/2006"
)

// chaseColumns holds the index of each known column; -1 when absent.
type chaseColumns struct {
	date, desc, amount, kind, balance int
}

func locateChaseColumns(header []string) (chaseColumns, error) {
	cols := chaseColumns{date: -1, desc: -1, amount: -1, kind: -1, balance: -1}
	for i, h := range header {
		switch strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) {
		case chaseDate:
			cols.date = i
		case chaseDesc:
			cols.desc = i
		case chaseAmount:
			cols.amount = i
		case chaseType:
			cols.kind = i
		case chaseBalance:
			cols.balance = i
		}
	}
	for name, idx := range map[string]int{chaseDate: cols.date, chaseAmount: cols.amount} {
		if idx < 0 {
			return cols, fmt.Errorf("missing %q column", name)
		}
	}
	return cols, nil
}

// Format returns the parser name.
func (p *ChaseParser) Format() string { return "chase" }

// Parse returns one BankTransaction per data line in file order, which
// for Chase is newest first.
func (p *ChaseParser) Parse(r io.Reader) ([]model.BankTransaction, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading chase CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	cols, err := locateChaseColumns(records[0])
	if err != nil {
		return nil, fmt.Errorf("chase header: %w", err)
	}

	txns := make([]model.BankTransaction, 0, len(records)-1)
	for n, rec := range records[1:] {
		txn, err := cols.transaction(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n+2, err)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

func (c chaseColumns) transaction(rec []string) (model.BankTransaction, error) {
	field := func(idx int) string {
		if idx < 0 || idx >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[idx])
	}

	posted, err := time.Parse(chaseLayout, field(c.date))
	if err != nil {
		return model.BankTransaction{}, fmt.Errorf("parsing date %q: %w", field(c.date), err)
	}
	amt, err := amount.ParseStrict(field(c.amount))
	if err != nil {
		return model.BankTransaction{}, fmt.Errorf("parsing amount %q: %w", field(c.amount), err)
	}

	txn := model.BankTransaction{
		Date:        posted,
		Description: field(c.desc),
		Amount:      amt,
		Type:        field(c.kind),
	}
	// Pending rows leave the balance blank.
	if raw := field(c.balance); raw != "" {
		if txn.Balance, err = amount.ParseStrict(raw); err != nil {
			return model.BankTransaction{}, fmt.Errorf("parsing balance %q: %w", raw, err)
		}
		txn.HasBalance = true
	}
	return txn, nil
}
