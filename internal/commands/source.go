package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerview/internal/config"
	"github.com/cleared-dev/ledgerview/internal/dashboard"
	"github.com/cleared-dev/ledgerview/internal/model"
	"github.com/cleared-dev/ledgerview/internal/offline"
	"github.com/cleared-dev/ledgerview/internal/session"
)

// ledgerSource is implemented by both the dashboard client and the
// offline store.
type ledgerSource interface {
	session.Source
	FetchAccountBalances(ctx context.Context, accountID string) (map[string]decimal.Decimal, error)
}

func openSource(cfg *config.Config) ledgerSource {
	if cfg.Offline.Dir != "" {
		slog.Debug("using offline data", "dir", cfg.Offline.Dir)
		return offline.New(cfg.Offline.Dir)
	}
	slog.Debug("using dashboard server", "base_url", cfg.Server.BaseURL)
	return openDashboard(cfg)
}

func openDashboard(cfg *config.Config) *dashboard.Client {
	return dashboard.NewClient(dashboard.ClientConfig{
		BaseURL:       cfg.Server.BaseURL,
		ExtensionPath: cfg.Server.ExtensionPath,
		Timeout:       cfg.Server.Timeout,
	})
}

func newSession(cfg *config.Config, src session.Source) *session.Session {
	return session.New(src, session.Options{
		ExtendDays:      cfg.Ledger.ExtendDays,
		TrackedPrefixes: cfg.Ledger.TrackedPrefixes,
		ShortNameStrip:  cfg.Ledger.ShortNameStrip,
		Logger:          slog.Default(),
	})
}

// rangeFlags adds --start and --end, defaulting to the current month.
type rangeFlags struct {
	start string
	end   string
}

func (f *rangeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.start, "start", "", "first date, YYYY-MM-DD (default first of this month)")
	cmd.Flags().StringVar(&f.end, "end", "", "last date, YYYY-MM-DD (default last of this month)")
}

func (f *rangeFlags) resolve(now time.Time) (model.DateRange, error) {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	r := model.DateRange{Start: f.start, End: f.end}
	if r.Start == "" {
		r.Start = first.Format(model.DateFormat)
	}
	if r.End == "" {
		r.End = first.AddDate(0, 1, -1).Format(model.DateFormat)
	}
	return r, r.Validate()
}
