package commands

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerview/internal/server"
	"github.com/cleared-dev/ledgerview/internal/session"
)

func newServeCommand(g *globalFlags) *cobra.Command {
	var addr string
	var rf rangeFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the grid over HTTP and push changes over a websocket",
		Long: `Serve the grid over HTTP and push changes over a websocket.

  GET  /api/view?start=&end=   effective grid, diagnostics and pending edits
  POST /api/edits              commit {date, account, field, value, format}
  GET  /api/ws                 view pushed after every change
  GET  /health

The range last requested through /api/view is re-checked every
poll.interval and refetched only when it changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, g)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.HTTP.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			sess := newSession(cfg, openSource(cfg))
			defer sess.Wait()

			ranges := &session.RangeHolder{}
			if cmd.Flags().Changed("start") || cmd.Flags().Changed("end") {
				r, err := rf.resolve(time.Now())
				if err != nil {
					return err
				}
				ranges.Set(r)
			}

			poller := &session.Poller{
				Session:  sess,
				Ranges:   ranges,
				Interval: cfg.Poll.Interval,
				Logger:   slog.Default(),
			}
			go func() {
				if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					slog.Error("poller stopped", "error", err)
				}
			}()

			return server.New(sess, ranges, slog.Default()).ListenAndServe(ctx, cfg.HTTP.Addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default http.addr from config)")
	rf.register(cmd)

	return cmd
}
