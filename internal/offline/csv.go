package offline

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cleared-dev/ledgerview/internal/model"
)

// LedgerHeader is the CSV header for ledger.csv.
const LedgerHeader = "date,account,balance,transaction,description"

// EditsHeader is the CSV header for edits.csv.
const EditsHeader = "id,timestamp,date,account,field,value,bold,italic"

const (
	ledgerFields = 5
	colDate      = 0
	colAccount   = 1
	colBalance   = 2
	colTx        = 3
	colDesc      = 4
)

const (
	editFields   = 8
	colEditID    = 0
	colTimestamp = 1
	colEditDate  = 2
	colEditAcct  = 3
	colField     = 4
	colValue     = 5
	colBold      = 6
	colItalic    = 7
)

// ReadRows reads ledger.csv: one line per (date, account). Rows come back
// in ascending date order; accounts in order of first appearance.
func ReadRows(r io.Reader) ([]model.Row, []string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = ledgerFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("reading ledger CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil, nil
	}

	byDate := make(map[string]*model.Row)
	seen := make(map[string]bool)
	var accounts []string
	for i, rec := range records[1:] {
		date := rec[colDate]
		if _, err := time.Parse(model.DateFormat, date); err != nil {
			return nil, nil, fmt.Errorf("row %d: parsing date %q: %w", i+2, date, err)
		}
		acct := rec[colAccount]
		if acct == "" {
			return nil, nil, fmt.Errorf("row %d: empty account", i+2)
		}
		if !seen[acct] {
			seen[acct] = true
			accounts = append(accounts, acct)
		}
		row, ok := byDate[date]
		if !ok {
			row = &model.Row{Date: date, Accounts: make(map[string]model.AccountSnapshot)}
			byDate[date] = row
		}
		if _, dup := row.Accounts[acct]; dup {
			return nil, nil, fmt.Errorf("row %d: duplicate %s on %s", i+2, acct, date)
		}
		row.Accounts[acct] = model.AccountSnapshot{
			Balance:     rec[colBalance],
			Transaction: rec[colTx],
			Description: rec[colDesc],
		}
	}

	rows := make([]model.Row, 0, len(byDate))
	for _, r := range byDate {
		rows = append(rows, *r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })
	return rows, accounts, nil
}

// WriteRows writes ledger.csv (including header). accounts fixes the line
// order within a date; accounts missing from a row are skipped.
func WriteRows(w io.Writer, rows []model.Row, accounts []string) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(LedgerHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, r := range rows {
		for _, a := range accounts {
			s, ok := r.Accounts[a]
			if !ok {
				continue
			}
			rec := make([]string, ledgerFields)
			rec[colDate] = r.Date
			rec[colAccount] = a
			rec[colBalance] = s.Balance
			rec[colTx] = s.Transaction
			rec[colDesc] = s.Description
			if err := cw.Write(rec); err != nil {
				return fmt.Errorf("writing %s %s: %w", r.Date, a, err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalEdit converts an Edit to a CSV row.
func MarshalEdit(e model.Edit) []string {
	row := make([]string, editFields)
	row[colEditID] = e.ID
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339Nano)
	row[colEditDate] = e.Date
	row[colEditAcct] = e.Account
	row[colField] = string(e.Field)
	row[colValue] = e.Value
	if b, ok := e.Format.Get(model.AttrBold); ok {
		row[colBold] = strconv.FormatBool(b)
	}
	if it, ok := e.Format.Get(model.AttrItalic); ok {
		row[colItalic] = strconv.FormatBool(it)
	}
	return row
}

// UnmarshalEdit converts a CSV row to an Edit.
func UnmarshalEdit(record []string) (model.Edit, error) {
	if len(record) != editFields {
		return model.Edit{}, fmt.Errorf("expected %d fields, got %d", editFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339Nano, record[colTimestamp])
	if err != nil {
		return model.Edit{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	field, err := model.ParseField(record[colField])
	if err != nil {
		return model.Edit{}, err
	}

	var format *model.Format
	bold, err := parseFlag(record[colBold])
	if err != nil {
		return model.Edit{}, fmt.Errorf("parsing bold: %w", err)
	}
	italic, err := parseFlag(record[colItalic])
	if err != nil {
		return model.Edit{}, fmt.Errorf("parsing italic: %w", err)
	}
	if bold != nil || italic != nil {
		format = &model.Format{Bold: bold, Italic: italic}
	}

	return model.Edit{
		ID:        record[colEditID],
		Timestamp: ts,
		Date:      record[colEditDate],
		Account:   record[colEditAcct],
		Field:     field,
		Value:     record[colValue],
		Format:    format,
	}, nil
}

func parseFlag(s string) (*bool, error) {
	if s == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func readEdits(r io.Reader) ([]model.Edit, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = editFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading edits CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var edits []model.Edit
	for i, rec := range records[1:] {
		e, err := UnmarshalEdit(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		edits = append(edits, e)
	}
	return edits, nil
}
