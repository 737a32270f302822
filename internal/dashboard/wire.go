package dashboard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cleared-dev/ledgerview/internal/model"
)

// text decodes a JSON string or number into its literal text. The server
// sends balances as formatted strings and sometimes as bare numbers.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*t = text(n.String())
	return nil
}

type wireSnapshot struct {
	Balance     text `json:"balance"`
	Transaction text `json:"transaction"`
	Description text `json:"description"`
}

// wireRow is {"date": "...", "<account>": {balance, transaction, description}, ...}.
type wireRow model.Row

func (r *wireRow) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("decoding row: %w", err)
	}
	dateRaw, ok := raw["date"]
	if !ok {
		return fmt.Errorf("row missing date")
	}
	if err := json.Unmarshal(dateRaw, &r.Date); err != nil {
		return fmt.Errorf("decoding row date: %w", err)
	}
	r.Accounts = make(map[string]model.AccountSnapshot, len(raw)-1)
	for key, v := range raw {
		if key == "date" {
			continue
		}
		var s wireSnapshot
		if err := json.Unmarshal(v, &s); err != nil {
			return fmt.Errorf("decoding %s on %s: %w", key, r.Date, err)
		}
		r.Accounts[key] = model.AccountSnapshot{
			Balance:     string(s.Balance),
			Transaction: string(s.Transaction),
			Description: string(s.Description),
		}
	}
	return nil
}

type wireFormat struct {
	Bold   *bool `json:"bold,omitempty"`
	Italic *bool `json:"italic,omitempty"`
}

// UserTransaction is the server's edit-history record. One record may
// carry both fields.
type UserTransaction struct {
	ID          string                 `json:"id,omitempty"`
	Date        string                 `json:"date"`
	Account     string                 `json:"account"`
	Transaction string                 `json:"transaction,omitempty"`
	Description string                 `json:"description,omitempty"`
	Format      map[string]*wireFormat `json:"format,omitempty"`
	Timestamp   string                 `json:"timestamp,omitempty"`
}

type ledgerResponse struct {
	Rows             []wireRow         `json:"rows"`
	Accounts         []string          `json:"accounts"`
	UserTransactions []UserTransaction `json:"user_transactions"`
}

// Edits expands a record into one edit per non-empty field. A missing or
// unparseable timestamp falls back to now.
func (u UserTransaction) Edits(now time.Time) []model.Edit {
	ts := now
	if u.Timestamp != "" {
		if parsed, err := time.Parse(time.RFC3339Nano, u.Timestamp); err == nil {
			ts = parsed
		}
	}
	id := u.ID
	if id == "" {
		id = uuid.NewString()
	}

	var out []model.Edit
	add := func(field model.Field, value string) {
		if value == "" {
			return
		}
		e := model.Edit{
			ID:        id + ":" + string(field),
			Date:      u.Date,
			Account:   u.Account,
			Field:     field,
			Value:     value,
			Timestamp: ts,
		}
		if f := u.Format[string(field)]; f != nil {
			e.Format = &model.Format{Bold: f.Bold, Italic: f.Italic}
		}
		out = append(out, e)
	}
	add(model.FieldTransaction, u.Transaction)
	add(model.FieldDescription, u.Description)
	return out
}

// saveRequest builds the save_user_transaction body for one edit.
func saveRequest(e model.Edit) map[string]any {
	body := map[string]any{
		"id":        e.ID,
		"date":      e.Date,
		"account":   e.Account,
		"timestamp": e.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	body[string(e.Field)] = e.Value
	if e.Format != nil {
		body["format"] = map[string]wireFormat{
			string(e.Field): {Bold: e.Format.Bold, Italic: e.Format.Italic},
		}
	}
	return body
}

func (resp ledgerResponse) toLedger(now time.Time) model.Ledger {
	l := model.Ledger{
		Rows:     make([]model.Row, len(resp.Rows)),
		Accounts: resp.Accounts,
	}
	for i, r := range resp.Rows {
		l.Rows[i] = model.Row(r)
	}
	for _, u := range resp.UserTransactions {
		l.Edits = append(l.Edits, u.Edits(now)...)
	}
	return l
}
