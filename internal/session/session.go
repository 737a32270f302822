// Package session owns the in-memory ledger: it loads a window from a
// source, seeds the edit log, keeps balances recomputed as edits are
// committed and hands each edit to the source for durable storage.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cleared-dev/ledgerview/internal/accounts"
	"github.com/cleared-dev/ledgerview/internal/editlog"
	"github.com/cleared-dev/ledgerview/internal/ledger"
	"github.com/cleared-dev/ledgerview/internal/model"
	"github.com/cleared-dev/ledgerview/internal/view"
)

// Source fetches ledger windows and stores edits.
type Source interface {
	FetchLedger(ctx context.Context, r model.DateRange) (model.Ledger, error)
	PersistEdit(ctx context.Context, e model.Edit) error
}

// Options configures a Session.
type Options struct {
	ExtendDays      int           // future rows appended after the fetched window
	TrackedPrefixes []string      // nil tracks every account the source lists
	ShortNameStrip  []string      // nil means accounts.DefaultStrip
	PersistTimeout  time.Duration // default 30 seconds
	Logger          *slog.Logger
	Now             func() time.Time
}

// PersistError records an edit the source failed to store. The edit stays
// in the in-memory log; it is not retried.
type PersistError struct {
	Edit model.Edit
	Err  error
	At   time.Time
}

// EditInput is a user commit of one cell.
type EditInput struct {
	Date    string
	Account string
	Field   model.Field
	Value   string
	Format  *model.Format
}

// CommitResult describes an accepted edit.
type CommitResult struct {
	Edit model.Edit
	// Pending is true when no loaded row matches the edit's (date,
	// account); it takes effect once such a row is loaded.
	Pending bool
}

// Session is the single owner of rows and the edit log. All methods are
// safe for concurrent use; mutations are serialized.
type Session struct {
	src    Source
	opts   Options
	logger *slog.Logger

	mu        sync.Mutex
	base      []model.Row // fetched and extended rows, no edits applied
	rows      []model.Row // edits applied, balances recomputed
	accounts  *accounts.Service
	log       *editlog.Log
	diags     []ledger.Diagnostic
	lastRange model.DateRange // last successfully applied fetch
	want      model.DateRange // most recently requested fetch
	fetchErr  error
	persist   []PersistError
	subs      map[chan struct{}]struct{}

	inflight sync.WaitGroup
}

// New creates an empty Session.
func New(src Source, opts Options) *Session {
	if opts.PersistTimeout == 0 {
		opts.PersistTimeout = 30 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		src:      src,
		opts:     opts,
		logger:   logger,
		accounts: accounts.NewService(nil, opts.ShortNameStrip),
		log:      editlog.New(),
		subs:     make(map[chan struct{}]struct{}),
	}
}

// ShouldRefetch reports whether next differs from the last successfully
// fetched range.
func ShouldRefetch(last, next model.DateRange) bool {
	if next.IsZero() {
		return false
	}
	return last != next
}

// Load fetches r unconditionally and replaces rows and the edit log.
func (s *Session) Load(ctx context.Context, r model.DateRange) error {
	_, err := s.fetch(ctx, r, true)
	return err
}

// Refresh fetches r only when it differs from the last successful fetch.
// It reports whether new data was applied.
func (s *Session) Refresh(ctx context.Context, r model.DateRange) (bool, error) {
	return s.fetch(ctx, r, false)
}

func (s *Session) fetch(ctx context.Context, r model.DateRange, force bool) (bool, error) {
	if err := r.Validate(); err != nil {
		return false, err
	}

	s.mu.Lock()
	// Any response still in flight for another range is now stale, even
	// when r itself needs no fetch.
	s.want = r
	if !force && !ShouldRefetch(s.lastRange, r) {
		s.mu.Unlock()
		return false, nil
	}
	s.mu.Unlock()

	l, err := s.src.FetchLedger(ctx, r)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.want != r {
		s.logger.Debug("discarding stale ledger response", "range", r.String(), "want", s.want.String())
		return false, nil
	}
	if err != nil {
		s.fetchErr = err
		s.notifyLocked()
		return false, fmt.Errorf("fetching ledger %s: %w", r, err)
	}
	if err := s.applyLocked(r, l); err != nil {
		s.fetchErr = err
		s.notifyLocked()
		return false, err
	}
	s.notifyLocked()
	return true, nil
}

func (s *Session) applyLocked(r model.DateRange, l model.Ledger) error {
	names := l.Accounts
	if len(names) == 0 {
		names = model.AccountNames(l.Rows)
	}
	names = accounts.Filter(names, s.opts.TrackedPrefixes)

	fetched := len(l.Rows)
	base, err := ledger.Extend(l.Rows, s.opts.ExtendDays)
	if err != nil {
		return fmt.Errorf("extending ledger: %w", err)
	}
	if fetched > 0 && len(base) > fetched {
		for _, a := range names {
			base = ledger.Recalculate(base, a, fetched)
		}
	}

	diags := ledger.Validate(l.Rows, names)
	for _, d := range diags {
		s.logger.Warn("ledger integrity",
			"kind", string(d.Kind), "account", d.Account, "date", d.Date,
			"expected", d.Expected.StringFixed(2), "actual", d.Actual.StringFixed(2))
	}

	s.base = base
	s.accounts = accounts.NewService(names, s.opts.ShortNameStrip)
	s.log = editlog.New(l.Edits...)
	s.diags = diags
	s.lastRange = r
	s.fetchErr = nil
	s.rebuildLocked()

	s.logger.Info("ledger loaded", "range", r.String(), "rows", len(s.base), "accounts", len(names), "edits", s.log.Len())
	return nil
}

// rebuildLocked derives rows from base and the log's winning edits.
func (s *Session) rebuildLocked() {
	res := ledger.Overlay(s.base, s.log.Winners())
	s.rows = ledger.RecalculateFrom(res.Rows, res.Dirty)
	if len(res.Pending) > 0 {
		s.logger.Info("edits pending a matching row", "count", len(res.Pending))
	}
}

// Commit appends an edit to the log, recomputes the edited account from
// the edited row and persists the edit in the background. The in-memory
// state is updated before persistence is attempted.
func (s *Session) Commit(in EditInput) (CommitResult, error) {
	if _, err := time.Parse(model.DateFormat, in.Date); err != nil {
		return CommitResult{}, fmt.Errorf("invalid date %q: %w", in.Date, err)
	}
	if _, err := model.ParseField(string(in.Field)); err != nil {
		return CommitResult{}, err
	}
	if in.Account == "" {
		return CommitResult{}, fmt.Errorf("account is required")
	}

	e := model.Edit{
		ID:        uuid.NewString(),
		Date:      in.Date,
		Account:   in.Account,
		Field:     in.Field,
		Value:     in.Value,
		Format:    in.Format,
		Timestamp: s.opts.Now().UTC(),
	}

	s.mu.Lock()
	s.log.Append(e)
	pending := !s.applyEditLocked(e)
	s.notifyLocked()
	s.mu.Unlock()

	if pending {
		s.logger.Info("edit pending a matching row", "date", e.Date, "account", e.Account, "field", string(e.Field))
	}

	s.inflight.Add(1)
	go s.persistEdit(e)

	return CommitResult{Edit: e, Pending: pending}, nil
}

// applyEditLocked writes the cell's effective value into rows and
// recomputes forward. It reports whether a matching row exists.
func (s *Session) applyEditLocked(e model.Edit) bool {
	i := model.IndexOf(s.rows, e.Date)
	if i < 0 || !s.rows[i].Has(e.Account) {
		return false
	}
	value, _ := s.log.EffectiveValue(e.Date, e.Account, e.Field)

	rows := model.CloneRows(s.rows)
	snap := rows[i].Accounts[e.Account]
	switch e.Field {
	case model.FieldTransaction:
		snap.Transaction = value
		rows[i].Accounts[e.Account] = snap
		rows = ledger.Recalculate(rows, e.Account, i)
	case model.FieldDescription:
		snap.Description = value
		rows[i].Accounts[e.Account] = snap
	}
	s.rows = rows
	return true
}

func (s *Session) persistEdit(e model.Edit) {
	defer s.inflight.Done()

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.PersistTimeout)
	defer cancel()

	if err := s.src.PersistEdit(ctx, e); err != nil {
		s.logger.Error("failed to persist edit", "id", e.ID, "date", e.Date, "account", e.Account, "field", string(e.Field), "error", err)
		s.mu.Lock()
		s.persist = append(s.persist, PersistError{Edit: e, Err: err, At: s.opts.Now()})
		s.notifyLocked()
		s.mu.Unlock()
		return
	}
	s.logger.Debug("edit persisted", "id", e.ID)
}

// Wait blocks until every background persist has finished.
func (s *Session) Wait() {
	s.inflight.Wait()
}

// Subscribe returns a channel that receives a signal after every change.
// Signals coalesce; call cancel to stop receiving.
func (s *Session) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		delete(s.subs, ch)
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) notifyLocked() {
	for ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// View returns a view model over a copy of the current state.
func (s *Session) View() *view.Model {
	s.mu.Lock()
	defer s.mu.Unlock()
	return view.New(model.CloneRows(s.rows), editlog.New(s.log.Entries()...), s.accounts, s.opts.Now())
}

// Rows returns a copy of the effective, recomputed rows.
func (s *Session) Rows() []model.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.CloneRows(s.rows)
}

// Accounts returns the tracked accounts of the last load.
func (s *Session) Accounts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.accounts.All()...)
}

// Diagnostics returns the integrity findings of the last load.
func (s *Session) Diagnostics() []ledger.Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ledger.Diagnostic(nil), s.diags...)
}

// Range returns the last successfully loaded range.
func (s *Session) Range() model.DateRange {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRange
}

// FetchError returns the error of the last failed fetch, cleared by the
// next successful one.
func (s *Session) FetchError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchErr
}

// PersistErrors returns every edit that failed to persist.
func (s *Session) PersistErrors() []PersistError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]PersistError(nil), s.persist...)
}
