package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cleared-dev/ledgerview/internal/model"
)

// DefaultPollInterval is how often a Poller checks the requested range.
const DefaultPollInterval = 500 * time.Millisecond

// RangeSource reports the date range currently requested by the viewer.
// ok is false while no range has been chosen.
type RangeSource interface {
	CurrentRange() (r model.DateRange, ok bool)
}

// RangeHolder is a RangeSource set by whoever owns the visible window.
type RangeHolder struct {
	mu sync.Mutex
	r  model.DateRange
}

// Set replaces the requested range.
func (h *RangeHolder) Set(r model.DateRange) {
	h.mu.Lock()
	h.r = r
	h.mu.Unlock()
}

// CurrentRange implements RangeSource.
func (h *RangeHolder) CurrentRange() (model.DateRange, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.r, !h.r.IsZero()
}

// Poller refreshes a Session whenever the requested range changes.
type Poller struct {
	Session  *Session
	Ranges   RangeSource
	Interval time.Duration
	Logger   *slog.Logger
}

// Run polls until ctx is done. Fetch failures are logged and retried on
// the next tick since the range stays unfetched.
func (p *Poller) Run(ctx context.Context) error {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		p.tick(ctx, logger)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *Poller) tick(ctx context.Context, logger *slog.Logger) {
	r, ok := p.Ranges.CurrentRange()
	if !ok {
		return
	}
	if _, err := p.Session.Refresh(ctx, r); err != nil && ctx.Err() == nil {
		logger.Warn("refresh failed", "range", r.String(), "error", err)
	}
}
