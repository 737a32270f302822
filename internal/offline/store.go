// Package offline serves the ledger from a local directory instead of the
// dashboard server: ledger.csv holds the base rows and edits.csv is the
// append-only edit history.
package offline

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgerview/internal/amount"
	"github.com/cleared-dev/ledgerview/internal/model"
)

const (
	ledgerFile = "ledger.csv"
	editsFile  = "edits.csv"
)

// Store is a directory-backed ledger source.
type Store struct {
	dir string
	mu  sync.Mutex // serializes appends to edits.csv
}

// New creates a Store rooted at dir.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Init creates dir with empty ledger.csv and edits.csv files. Existing
// files are left alone.
func Init(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	for name, header := range map[string]string{ledgerFile: LedgerHeader, editsFile: EditsHeader} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.WriteFile(path, []byte(header+"\n"), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	return nil
}

// FetchLedger returns the rows within r, every account and the whole edit
// history.
func (s *Store) FetchLedger(_ context.Context, r model.DateRange) (model.Ledger, error) {
	rows, accounts, err := s.readRows()
	if err != nil {
		return model.Ledger{}, err
	}

	var window []model.Row
	for _, row := range rows {
		if row.Date >= r.Start && row.Date <= r.End {
			window = append(window, row)
		}
	}

	edits, err := s.ReadEdits()
	if err != nil {
		return model.Ledger{}, err
	}
	return model.Ledger{Rows: window, Accounts: accounts, Edits: edits}, nil
}

// PersistEdit appends an edit to edits.csv, writing the header on first
// use.
func (s *Store) PersistEdit(_ context.Context, e model.Edit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	path := filepath.Join(s.dir, editsFile)
	needsHeader := false
	if info, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) || (err == nil && info.Size() == 0) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening edits: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(EditsHeader, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	if err := cw.Write(MarshalEdit(e)); err != nil {
		return fmt.Errorf("writing edit: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

// ReadEdits returns every edit in edits.csv in append order. A missing
// file is an empty history.
func (s *Store) ReadEdits() ([]model.Edit, error) {
	f, err := os.Open(filepath.Join(s.dir, editsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening edits: %w", err)
	}
	defer f.Close()
	return readEdits(f)
}

// FetchAccountBalances returns the latest balance of every account whose
// name contains accountID, case-insensitively.
func (s *Store) FetchAccountBalances(_ context.Context, accountID string) (map[string]decimal.Decimal, error) {
	rows, accounts, err := s.readRows()
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(accountID)
	out := make(map[string]decimal.Decimal)
	for _, a := range accounts {
		if !strings.Contains(strings.ToLower(a), needle) {
			continue
		}
		for i := len(rows) - 1; i >= 0; i-- {
			if snap, ok := rows[i].Accounts[a]; ok {
				out[a] = amount.Parse(snap.Balance)
				break
			}
		}
	}
	return out, nil
}

// SaveLedger replaces ledger.csv with rows.
func (s *Store) SaveLedger(rows []model.Row, accounts []string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	f, err := os.Create(filepath.Join(s.dir, ledgerFile))
	if err != nil {
		return fmt.Errorf("creating ledger file: %w", err)
	}
	defer f.Close()

	if err := WriteRows(f, rows, accounts); err != nil {
		return fmt.Errorf("writing ledger: %w", err)
	}
	return nil
}

// SaveEdits replaces edits.csv with edits in order.
func (s *Store) SaveEdits(edits []model.Edit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	f, err := os.Create(filepath.Join(s.dir, editsFile))
	if err != nil {
		return fmt.Errorf("creating edits file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(strings.Split(EditsHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, e := range edits {
		if err := cw.Write(MarshalEdit(e)); err != nil {
			return fmt.Errorf("writing edit %s: %w", e.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReplaceAccount swaps account's entries in ledger.csv for rows, keeping
// every other account. A missing ledger.csv starts empty. Dates that end
// up with no entries are dropped.
func (s *Store) ReplaceAccount(account string, rows []model.Row) error {
	existing, accounts, err := s.readRows()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	byDate := make(map[string]model.Row, len(existing)+len(rows))
	for _, r := range existing {
		r = r.Clone()
		delete(r.Accounts, account)
		if len(r.Accounts) > 0 {
			byDate[r.Date] = r
		}
	}
	for _, r := range rows {
		snap, ok := r.Accounts[account]
		if !ok {
			continue
		}
		merged, ok := byDate[r.Date]
		if !ok {
			merged = model.Row{Date: r.Date, Accounts: make(map[string]model.AccountSnapshot)}
		}
		merged.Accounts[account] = snap
		byDate[r.Date] = merged
	}

	out := make([]model.Row, 0, len(byDate))
	for _, r := range byDate {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })

	if !slices.Contains(accounts, account) {
		accounts = append(accounts, account)
	}
	return s.SaveLedger(out, accounts)
}

func (s *Store) readRows() ([]model.Row, []string, error) {
	path := filepath.Join(s.dir, ledgerFile)
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening ledger %s: %w", path, err)
	}
	defer f.Close()

	rows, accounts, err := ReadRows(f)
	if err != nil {
		return nil, nil, fmt.Errorf("reading ledger %s: %w", path, err)
	}
	return rows, accounts, nil
}
