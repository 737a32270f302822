package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ledgerview/internal/model"
)

const chase = "Assets:Checking:Chase"

var (
	january = model.DateRange{Start: "2024-01-01", End: "2024-01-03"}
	fixedAt = time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)
)

type fakeSource struct {
	mu         sync.Mutex
	ledger     model.Ledger
	fetchErr   error
	persistErr error
	fetches    []model.DateRange
	persisted  []model.Edit

	holdRange model.DateRange
	started   chan struct{}
	release   chan struct{}
}

func (f *fakeSource) FetchLedger(_ context.Context, r model.DateRange) (model.Ledger, error) {
	f.mu.Lock()
	f.fetches = append(f.fetches, r)
	hold := r == f.holdRange && f.release != nil
	f.mu.Unlock()

	if hold {
		close(f.started)
		<-f.release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return model.Ledger{}, f.fetchErr
	}
	l := f.ledger
	l.Rows = model.CloneRows(f.ledger.Rows)
	l.Edits = append([]model.Edit(nil), f.ledger.Edits...)
	return l, nil
}

func (f *fakeSource) PersistEdit(_ context.Context, e model.Edit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.persistErr != nil {
		return f.persistErr
	}
	f.persisted = append(f.persisted, e)
	return nil
}

func (f *fakeSource) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fetches)
}

func threeDays() model.Ledger {
	snap := func(b, tx string) map[string]model.AccountSnapshot {
		return map[string]model.AccountSnapshot{chase: {Balance: b, Transaction: tx}}
	}
	return model.Ledger{
		Accounts: []string{chase},
		Rows: []model.Row{
			{Date: "2024-01-01", Accounts: snap("100", "0")},
			{Date: "2024-01-02", Accounts: snap("100", "0")},
			{Date: "2024-01-03", Accounts: snap("100", "")},
		},
	}
}

func newSession(src Source, extend int) *Session {
	return New(src, Options{
		ExtendDays: extend,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:        func() time.Time { return fixedAt },
	})
}

func balances(rows []model.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Snapshot(chase).Balance
	}
	return out
}

func TestCommit_RecomputesForward(t *testing.T) {
	src := &fakeSource{ledger: threeDays()}
	s := newSession(src, 0)
	require.NoError(t, s.Load(context.Background(), january))

	res, err := s.Commit(EditInput{Date: "2024-01-01", Account: chase, Field: model.FieldTransaction, Value: "50"})
	require.NoError(t, err)
	assert.False(t, res.Pending)
	assert.NotEmpty(t, res.Edit.ID)
	assert.Equal(t, fixedAt, res.Edit.Timestamp)

	assert.Equal(t, []string{"100.00", "150.00", "150.00"}, balances(s.Rows()))

	s.Wait()
	require.Len(t, src.persisted, 1)
	assert.Equal(t, "50", src.persisted[0].Value)
}

func TestCommit_LaterEditWins(t *testing.T) {
	s := newSession(&fakeSource{ledger: threeDays()}, 0)
	require.NoError(t, s.Load(context.Background(), january))

	for _, v := range []string{"50", "=10*3"} {
		_, err := s.Commit(EditInput{Date: "2024-01-02", Account: chase, Field: model.FieldTransaction, Value: v})
		require.NoError(t, err)
	}
	s.Wait()

	assert.Equal(t, []string{"100", "100.00", "130.00"}, balances(s.Rows()))
	cell := s.View().Cell("2024-01-02", chase, model.FieldTransaction)
	assert.Equal(t, "=10*3", cell.Value)
	assert.True(t, cell.Edited)
}

func TestCommit_Description(t *testing.T) {
	s := newSession(&fakeSource{ledger: threeDays()}, 0)
	require.NoError(t, s.Load(context.Background(), january))

	_, err := s.Commit(EditInput{Date: "2024-01-03", Account: chase, Field: model.FieldDescription, Value: "rent"})
	require.NoError(t, err)
	s.Wait()

	rows := s.Rows()
	assert.Equal(t, "rent", rows[2].Snapshot(chase).Description)
	assert.Equal(t, []string{"100", "100", "100"}, balances(rows), "description edits leave balances alone")
}

func TestCommit_Pending(t *testing.T) {
	s := newSession(&fakeSource{ledger: threeDays()}, 0)
	require.NoError(t, s.Load(context.Background(), january))

	res, err := s.Commit(EditInput{Date: "2024-02-01", Account: chase, Field: model.FieldTransaction, Value: "5"})
	require.NoError(t, err)
	assert.True(t, res.Pending)
	s.Wait()

	assert.Len(t, s.View().Pending(), 1)
	assert.Len(t, s.Rows(), 3)
}

func TestCommit_Invalid(t *testing.T) {
	s := newSession(&fakeSource{ledger: threeDays()}, 0)

	_, err := s.Commit(EditInput{Date: "01/02/2024", Account: chase, Field: model.FieldTransaction})
	assert.ErrorContains(t, err, "invalid date")

	_, err = s.Commit(EditInput{Date: "2024-01-02", Account: chase, Field: "balance"})
	assert.Error(t, err)

	_, err = s.Commit(EditInput{Date: "2024-01-02", Field: model.FieldTransaction})
	assert.ErrorContains(t, err, "account is required")
}

func TestCommit_PersistFailureKeepsEdit(t *testing.T) {
	src := &fakeSource{ledger: threeDays(), persistErr: errors.New("server down")}
	s := newSession(src, 0)
	require.NoError(t, s.Load(context.Background(), january))

	_, err := s.Commit(EditInput{Date: "2024-01-01", Account: chase, Field: model.FieldTransaction, Value: "1"})
	require.NoError(t, err)
	s.Wait()

	perrs := s.PersistErrors()
	require.Len(t, perrs, 1)
	assert.EqualError(t, perrs[0].Err, "server down")
	assert.Equal(t, "101.00", s.Rows()[1].Snapshot(chase).Balance)
}

func TestLoad_AppliesServerEdits(t *testing.T) {
	l := threeDays()
	l.Edits = []model.Edit{
		{ID: "1", Date: "2024-01-01", Account: chase, Field: model.FieldTransaction, Value: "=10*2", Timestamp: fixedAt},
		{ID: "2", Date: "2024-01-09", Account: chase, Field: model.FieldTransaction, Value: "7", Timestamp: fixedAt},
	}
	s := newSession(&fakeSource{ledger: l}, 0)
	require.NoError(t, s.Load(context.Background(), january))

	assert.Equal(t, []string{"100.00", "120.00", "120.00"}, balances(s.Rows()))
	assert.Len(t, s.View().Pending(), 1)
	assert.Equal(t, january, s.Range())
}

func TestLoad_ExtendsFutureRows(t *testing.T) {
	l := threeDays()
	l.Rows[2].Accounts[chase] = model.AccountSnapshot{Balance: "100", Transaction: "20", Description: "pay"}
	s := newSession(&fakeSource{ledger: l}, 2)
	require.NoError(t, s.Load(context.Background(), january))

	rows := s.Rows()
	require.Len(t, rows, 5)
	assert.Equal(t, "2024-01-05", rows[4].Date)
	assert.Equal(t, []string{"100", "100", "100", "120.00", "120.00"}, balances(rows))
	assert.Empty(t, rows[3].Snapshot(chase).Description)
}

func TestLoad_ReportsDiagnostics(t *testing.T) {
	l := threeDays()
	l.Rows[1].Accounts[chase] = model.AccountSnapshot{Balance: "105", Transaction: "0"}
	s := newSession(&fakeSource{ledger: l}, 0)
	require.NoError(t, s.Load(context.Background(), january))

	diags := s.Diagnostics()
	require.NotEmpty(t, diags)
	assert.Equal(t, "2024-01-02", diags[0].Date)
}

func TestLoad_ReplacesEditLog(t *testing.T) {
	src := &fakeSource{ledger: threeDays()}
	s := newSession(src, 0)
	require.NoError(t, s.Load(context.Background(), january))

	_, err := s.Commit(EditInput{Date: "2024-01-01", Account: chase, Field: model.FieldTransaction, Value: "50"})
	require.NoError(t, err)
	s.Wait()

	// The source never echoes the edit back, so a reload drops it.
	require.NoError(t, s.Load(context.Background(), january))
	assert.Equal(t, []string{"100", "100", "100"}, balances(s.Rows()))
}

func TestLoad_FetchError(t *testing.T) {
	src := &fakeSource{fetchErr: errors.New("timeout")}
	s := newSession(src, 0)

	err := s.Load(context.Background(), january)
	assert.ErrorContains(t, err, "timeout")
	assert.Error(t, s.FetchError())
	assert.True(t, s.Range().IsZero())
}

func TestLoad_InvalidRange(t *testing.T) {
	src := &fakeSource{ledger: threeDays()}
	s := newSession(src, 0)
	assert.Error(t, s.Load(context.Background(), model.DateRange{Start: "2024-02-01", End: "2024-01-01"}))
	assert.Zero(t, src.fetchCount())
}

func TestShouldRefetch(t *testing.T) {
	feb := model.DateRange{Start: "2024-02-01", End: "2024-02-29"}
	assert.True(t, ShouldRefetch(model.DateRange{}, january))
	assert.False(t, ShouldRefetch(january, january))
	assert.True(t, ShouldRefetch(january, feb))
	assert.False(t, ShouldRefetch(january, model.DateRange{}))
}

func TestRefresh_SkipsUnchangedRange(t *testing.T) {
	src := &fakeSource{ledger: threeDays()}
	s := newSession(src, 0)

	ok, err := s.Refresh(context.Background(), january)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Refresh(context.Background(), january)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, src.fetchCount())
}

func TestRefresh_RetriesAfterFailure(t *testing.T) {
	src := &fakeSource{ledger: threeDays(), fetchErr: errors.New("boom")}
	s := newSession(src, 0)

	_, err := s.Refresh(context.Background(), january)
	require.Error(t, err)

	src.mu.Lock()
	src.fetchErr = nil
	src.mu.Unlock()

	ok, err := s.Refresh(context.Background(), january)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, s.FetchError())
}

func TestRefresh_DiscardsStaleResponse(t *testing.T) {
	feb := model.DateRange{Start: "2024-02-01", End: "2024-02-03"}
	src := &fakeSource{
		ledger:    threeDays(),
		holdRange: january,
		started:   make(chan struct{}),
		release:   make(chan struct{}),
	}
	s := newSession(src, 0)

	done := make(chan bool)
	go func() {
		ok, _ := s.Refresh(context.Background(), january)
		done <- ok
	}()
	<-src.started

	ok, err := s.Refresh(context.Background(), feb)
	require.NoError(t, err)
	assert.True(t, ok)

	close(src.release)
	assert.False(t, <-done, "january response arrived after february was requested")
	assert.Equal(t, feb, s.Range())
}

func TestRefresh_ReturnToLoadedRangeDiscardsInflight(t *testing.T) {
	feb := model.DateRange{Start: "2024-02-01", End: "2024-02-03"}
	src := &fakeSource{
		ledger:    threeDays(),
		holdRange: feb,
		started:   make(chan struct{}),
		release:   make(chan struct{}),
	}
	s := newSession(src, 0)
	require.NoError(t, s.Load(context.Background(), january))

	done := make(chan bool)
	go func() {
		ok, _ := s.Refresh(context.Background(), feb)
		done <- ok
	}()
	<-src.started

	ok, err := s.Refresh(context.Background(), january)
	require.NoError(t, err)
	assert.False(t, ok, "january is already loaded")

	close(src.release)
	assert.False(t, <-done, "february response arrived after january was requested again")
	assert.Equal(t, january, s.Range())
	assert.Equal(t, 2, src.fetchCount())
}

func TestSubscribe(t *testing.T) {
	s := newSession(&fakeSource{ledger: threeDays()}, 0)
	ch, cancel := s.Subscribe()
	defer cancel()

	require.NoError(t, s.Load(context.Background(), january))
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no notification after load")
	}

	cancel()
	_, err := s.Commit(EditInput{Date: "2024-01-01", Account: chase, Field: model.FieldDescription, Value: "x"})
	require.NoError(t, err)
	s.Wait()
	select {
	case <-ch:
		t.Fatal("notified after cancel")
	default:
	}
}

func TestPoller(t *testing.T) {
	src := &fakeSource{ledger: threeDays()}
	s := newSession(src, 0)
	ranges := &RangeHolder{}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	p := &Poller{Session: s, Ranges: ranges, Interval: 5 * time.Millisecond, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	go func() { errc <- p.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, src.fetchCount(), "no range chosen yet")

	ranges.Set(january)
	require.Eventually(t, func() bool { return s.Range() == january }, time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, src.fetchCount(), "unchanged range is not refetched")

	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)
}
