// Package server exposes a Session over HTTP: a JSON view of the grid, an
// endpoint to commit edits and a websocket that pushes the view after
// every change.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/cleared-dev/ledgerview/internal/model"
	"github.com/cleared-dev/ledgerview/internal/session"
)

// maxEditBody bounds the size of a POST /api/edits body.
const maxEditBody = 64 << 10

// Server handles HTTP requests for one Session.
type Server struct {
	session  *session.Session
	ranges   *session.RangeHolder
	hub      *hub
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// New creates a Server. ranges receives every range requested through
// GET /api/view so a Poller can follow it.
func New(sess *session.Session, ranges *session.RangeHolder, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if ranges == nil {
		ranges = &session.RangeHolder{}
	}
	return &Server{
		session: sess,
		ranges:  ranges,
		hub:     newHub(logger),
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/view", s.handleView)
		r.Post("/edits", s.handleEdit)
		r.Get("/ws", s.handleWebSocket)
	})
	return r
}

// Start runs the websocket hub and pushes the view to clients after every
// session change, until ctx is done. It must be called before serving
// websocket requests.
func (s *Server) Start(ctx context.Context) {
	go s.hub.run(ctx)

	changes, cancel := s.session.Subscribe()
	go func() {
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-changes:
				msg, err := s.viewMessage()
				if err != nil {
					s.logger.Error("failed to encode view", "error", err)
					continue
				}
				s.hub.publish(msg)
			}
		}
	}()
}

// ListenAndServe starts the hub and serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.Start(ctx)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("HTTP server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server: %w", err)
	}
	return nil
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleView handles GET /api/view. With start and end it first refreshes
// the session when that range differs from the loaded one.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, end := q.Get("start"), q.Get("end")
	status := http.StatusOK

	if start != "" || end != "" {
		rng := model.DateRange{Start: start, End: end}
		if err := rng.Validate(); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_range", err.Error())
			return
		}
		s.ranges.Set(rng)
		if _, err := s.session.Refresh(r.Context(), rng); err != nil {
			s.logger.Warn("refresh failed", "range", rng.String(), "error", err)
			status = http.StatusBadGateway
		}
	}

	writeJSON(w, status, newViewResponse(s.session))
}

// handleEdit handles POST /api/edits.
func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxEditBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body")
		return
	}
	field, err := model.ParseField(req.Field)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_field", err.Error())
		return
	}

	res, err := s.session.Commit(session.EditInput{
		Date:    req.Date,
		Account: req.Account,
		Field:   field,
		Value:   req.Value,
		Format:  req.Format.toModel(),
	})
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_edit", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, commitResponse{
		Edit:    newEditJSON(res.Edit),
		Pending: res.Pending,
	})
}

// handleWebSocket handles GET /api/ws. The client gets the current view
// immediately and again after every change.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("failed to upgrade to websocket", "error", err)
		return
	}

	c := newClient(conn)
	if msg, err := s.viewMessage(); err == nil {
		c.send <- msg
	}
	if !s.hub.add(c) {
		conn.Close()
		return
	}
	go c.writeLoop(s.logger)

	// Reads only detect disconnection; clients send nothing we use.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.hub.remove(c)
				return
			}
		}
	}()
}

func (s *Server) viewMessage() ([]byte, error) {
	return json.Marshal(wsMessage{Type: "view", View: newViewResponse(s.session)})
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, ErrorResponse{Error: code, ErrorDescription: description})
}
