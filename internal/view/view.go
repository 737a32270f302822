// Package view projects rows and the edit log into the effective grid the
// user sees. A Model holds no state of its own; it is rebuilt from its
// inputs whenever they change.
package view

import (
	"time"

	"github.com/cleared-dev/ledgerview/internal/accounts"
	"github.com/cleared-dev/ledgerview/internal/amount"
	"github.com/cleared-dev/ledgerview/internal/editlog"
	"github.com/cleared-dev/ledgerview/internal/model"
)

// Cell is the effective content of one grid cell.
type Cell struct {
	Value   string `json:"value"`
	Display string `json:"display"`
	Bold    bool   `json:"bold,omitempty"`
	Italic  bool   `json:"italic,omitempty"`
	Edited  bool   `json:"edited,omitempty"`
}

// AccountCells groups one account's cells on one date.
type AccountCells struct {
	Balance     Cell `json:"balance"`
	Transaction Cell `json:"transaction"`
	Description Cell `json:"description"`
}

// Row is one rendered date.
type Row struct {
	Date     string                  `json:"date"`
	Label    string                  `json:"label"`
	Past     bool                    `json:"past,omitempty"`
	Today    bool                    `json:"today,omitempty"`
	Weekend  bool                    `json:"weekend,omitempty"`
	Accounts map[string]AccountCells `json:"accounts"`
}

// Column describes one displayed account.
type Column struct {
	Account string `json:"account"`
	Short   string `json:"short"`
	Class   string `json:"class"`
}

// Model answers effective-value questions over (rows, log).
type Model struct {
	rows     []model.Row
	log      *editlog.Log
	accounts *accounts.Service
	today    time.Time
}

// New creates a Model. rows are the recomputed rows; log supplies
// overrides and provenance.
func New(rows []model.Row, log *editlog.Log, accts *accounts.Service, today time.Time) *Model {
	if log == nil {
		log = editlog.New()
	}
	if accts == nil {
		accts = accounts.NewService(nil, nil)
	}
	return &Model{rows: rows, log: log, accounts: accts, today: today}
}

// Cell returns the effective value, format and provenance of an editable
// cell. Without a matching edit the stored row value is used; an unknown
// date or account yields an empty value.
func (m *Model) Cell(date, account string, field model.Field) Cell {
	value, edited := m.log.EffectiveValue(date, account, field)
	if !edited {
		value = m.stored(date, account, field)
	}
	c := Cell{
		Value:  value,
		Bold:   m.log.EffectiveFormat(date, account, field, model.AttrBold),
		Italic: m.log.EffectiveFormat(date, account, field, model.AttrItalic),
		Edited: edited,
	}
	if field == model.FieldTransaction {
		c.Display = amount.Format(value)
	} else {
		c.Display = value
	}
	return c
}

// BalanceCell returns the computed balance for (date, account).
func (m *Model) BalanceCell(date, account string) Cell {
	i := model.IndexOf(m.rows, date)
	if i < 0 {
		return Cell{}
	}
	b := m.rows[i].Snapshot(account).Balance
	return Cell{Value: b, Display: amount.Format(b)}
}

func (m *Model) stored(date, account string, field model.Field) string {
	i := model.IndexOf(m.rows, date)
	if i < 0 {
		return ""
	}
	s := m.rows[i].Snapshot(account)
	if field == model.FieldTransaction {
		return s.Transaction
	}
	return s.Description
}

// Columns returns the accounts worth showing: those with a transaction
// or a non-zero balance on some row.
func (m *Model) Columns() []Column {
	var cols []Column
	for _, a := range m.accounts.All() {
		if !m.hasData(a) {
			continue
		}
		cols = append(cols, Column{Account: a, Short: m.accounts.Short(a), Class: m.accounts.Class(a)})
	}
	return cols
}

func (m *Model) hasData(account string) bool {
	for _, r := range m.rows {
		s := r.Snapshot(account)
		if s.Transaction != "" || !amount.Parse(s.Balance).IsZero() {
			return true
		}
	}
	return false
}

// Rows renders every row for the displayed columns.
func (m *Model) Rows() []Row {
	cols := m.Columns()
	today := m.today.Format(model.DateFormat)
	out := make([]Row, 0, len(m.rows))
	for _, r := range m.rows {
		vr := Row{
			Date:     r.Date,
			Label:    Label(r.Date),
			Past:     model.IsPast(r.Date, m.today),
			Today:    r.Date == today,
			Weekend:  IsWeekend(r.Date),
			Accounts: make(map[string]AccountCells, len(cols)),
		}
		for _, c := range cols {
			vr.Accounts[c.Account] = AccountCells{
				Balance:     m.BalanceCell(r.Date, c.Account),
				Transaction: m.Cell(r.Date, c.Account, model.FieldTransaction),
				Description: m.Cell(r.Date, c.Account, model.FieldDescription),
			}
		}
		out = append(out, vr)
	}
	return out
}

// Pending returns winning edits whose (date, account) has no loaded row.
// They stay in the log and apply once a matching row is loaded.
func (m *Model) Pending() []model.Edit {
	var out []model.Edit
	for _, e := range m.log.Winners() {
		i := model.IndexOf(m.rows, e.Date)
		if i < 0 || !m.rows[i].Has(e.Account) {
			out = append(out, e)
		}
	}
	return out
}

// Label renders a date as "Mon 1/2". Unparseable dates are returned as is.
func Label(date string) string {
	d, err := time.Parse(model.DateFormat, date)
	if err != nil {
		return date
	}
	return d.Format("Mon 1/2")
}

// IsWeekend reports whether date falls on Saturday or Sunday.
func IsWeekend(date string) bool {
	d, err := time.Parse(model.DateFormat, date)
	if err != nil {
		return false
	}
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
