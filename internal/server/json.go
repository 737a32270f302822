package server

import (
	"time"

	"github.com/cleared-dev/ledgerview/internal/model"
	"github.com/cleared-dev/ledgerview/internal/session"
	"github.com/cleared-dev/ledgerview/internal/view"
)

type formatJSON struct {
	Bold   *bool `json:"bold,omitempty"`
	Italic *bool `json:"italic,omitempty"`
}

func (f *formatJSON) toModel() *model.Format {
	if f == nil || (f.Bold == nil && f.Italic == nil) {
		return nil
	}
	return &model.Format{Bold: f.Bold, Italic: f.Italic}
}

type editRequest struct {
	Date    string      `json:"date"`
	Account string      `json:"account"`
	Field   string      `json:"field"`
	Value   string      `json:"value"`
	Format  *formatJSON `json:"format,omitempty"`
}

type editJSON struct {
	ID        string      `json:"id"`
	Date      string      `json:"date"`
	Account   string      `json:"account"`
	Field     string      `json:"field"`
	Value     string      `json:"value"`
	Format    *formatJSON `json:"format,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func newEditJSON(e model.Edit) editJSON {
	out := editJSON{
		ID:        e.ID,
		Date:      e.Date,
		Account:   e.Account,
		Field:     string(e.Field),
		Value:     e.Value,
		Timestamp: e.Timestamp,
	}
	if e.Format != nil {
		out.Format = &formatJSON{Bold: e.Format.Bold, Italic: e.Format.Italic}
	}
	return out
}

type commitResponse struct {
	Edit    editJSON `json:"edit"`
	Pending bool     `json:"pending"`
}

type rangeJSON struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type diagnosticJSON struct {
	Kind     string `json:"kind"`
	Account  string `json:"account,omitempty"`
	Date     string `json:"date"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
	Message  string `json:"message"`
}

type persistErrorJSON struct {
	Edit  editJSON `json:"edit"`
	Error string   `json:"error"`
}

type viewResponse struct {
	Range         rangeJSON          `json:"range"`
	Columns       []view.Column      `json:"columns"`
	Rows          []view.Row         `json:"rows"`
	Diagnostics   []diagnosticJSON   `json:"diagnostics"`
	Pending       []editJSON         `json:"pending"`
	FetchError    string             `json:"fetch_error,omitempty"`
	PersistErrors []persistErrorJSON `json:"persist_errors,omitempty"`
}

type wsMessage struct {
	Type string       `json:"type"`
	View viewResponse `json:"view"`
}

func newViewResponse(s *session.Session) viewResponse {
	m := s.View()
	rng := s.Range()
	resp := viewResponse{
		Range:       rangeJSON{Start: rng.Start, End: rng.End},
		Columns:     m.Columns(),
		Rows:        m.Rows(),
		Diagnostics: []diagnosticJSON{},
		Pending:     []editJSON{},
	}
	if resp.Columns == nil {
		resp.Columns = []view.Column{}
	}

	for _, d := range s.Diagnostics() {
		dj := diagnosticJSON{Kind: string(d.Kind), Account: d.Account, Date: d.Date, Message: d.Error()}
		if d.Account != "" {
			dj.Expected = d.Expected.StringFixed(2)
			dj.Actual = d.Actual.StringFixed(2)
		}
		resp.Diagnostics = append(resp.Diagnostics, dj)
	}
	for _, e := range m.Pending() {
		resp.Pending = append(resp.Pending, newEditJSON(e))
	}
	if err := s.FetchError(); err != nil {
		resp.FetchError = err.Error()
	}
	for _, pe := range s.PersistErrors() {
		resp.PersistErrors = append(resp.PersistErrors, persistErrorJSON{Edit: newEditJSON(pe.Edit), Error: pe.Err.Error()})
	}
	return resp
}
