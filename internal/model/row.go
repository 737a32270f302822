package model

import "sort"

// DateFormat is the layout of every date key in the ledger.
const DateFormat = "2006-01-02"

// AccountSnapshot is one account's state on one date.
type AccountSnapshot struct {
	Balance     string // decimal string
	Transaction string // decimal string or "=" formula
	Description string
}

// Row is one calendar date across all tracked accounts.
type Row struct {
	Date     string // YYYY-MM-DD
	Accounts map[string]AccountSnapshot
}

// Snapshot returns the account's snapshot on this row. The zero value is
// returned when the account has no entry.
func (r Row) Snapshot(account string) AccountSnapshot {
	return r.Accounts[account]
}

// Has reports whether the row carries a snapshot for account.
func (r Row) Has(account string) bool {
	_, ok := r.Accounts[account]
	return ok
}

// Clone returns a deep copy of the row.
func (r Row) Clone() Row {
	accts := make(map[string]AccountSnapshot, len(r.Accounts))
	for k, v := range r.Accounts {
		accts[k] = v
	}
	return Row{Date: r.Date, Accounts: accts}
}

// CloneRows deep-copies a row sequence.
func CloneRows(rows []Row) []Row {
	if rows == nil {
		return nil
	}
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}

// IndexOf returns the index of the row with the given date, or -1.
// Rows must be in ascending date order.
func IndexOf(rows []Row, date string) int {
	i := sort.Search(len(rows), func(i int) bool { return rows[i].Date >= date })
	if i < len(rows) && rows[i].Date == date {
		return i
	}
	return -1
}

// AccountNames returns every account present on any row, sorted.
func AccountNames(rows []Row) []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range rows {
		for a := range r.Accounts {
			if !seen[a] {
				seen[a] = true
				names = append(names, a)
			}
		}
	}
	sort.Strings(names)
	return names
}
