// Package dashboard talks to the ledger server's dashboard extension: it
// fetches the daily balance window with its edit history, saves edits and
// reads current account balances.
package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgerview/internal/model"
)

// DefaultExtensionPath is where the dashboard extension is mounted.
const DefaultExtensionPath = "/mars-universe-bank/extension/MarsDashboard"

// ClientConfig configures a Client.
type ClientConfig struct {
	BaseURL       string
	ExtensionPath string        // default DefaultExtensionPath
	Timeout       time.Duration // default 10 seconds
	HTTPClient    *http.Client  // optional; overrides Timeout
}

// Client is a dashboard extension API client.
type Client struct {
	httpClient *http.Client
	endpoint   string
	now        func() time.Time
}

// StatusError is returned for non-200 responses.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.StatusCode, e.Body)
}

// NewClient creates a Client.
func NewClient(cfg ClientConfig) *Client {
	ext := cfg.ExtensionPath
	if ext == "" {
		ext = DefaultExtensionPath
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		httpClient: hc,
		endpoint:   strings.TrimRight(cfg.BaseURL, "/") + "/" + strings.Trim(ext, "/"),
		now:        time.Now,
	}
}

// FetchLedger returns the base rows, accounts and edit history for r.
func (c *Client) FetchLedger(ctx context.Context, r model.DateRange) (model.Ledger, error) {
	q := url.Values{}
	q.Set("start_date", r.Start)
	q.Set("end_date", r.End)

	var resp ledgerResponse
	if err := c.get(ctx, "get_data", q, &resp); err != nil {
		return model.Ledger{}, err
	}
	return resp.toLedger(c.now()), nil
}

// PersistEdit saves one edit.
func (c *Client) PersistEdit(ctx context.Context, e model.Edit) error {
	body, err := json.Marshal(saveRequest(e))
	if err != nil {
		return fmt.Errorf("encoding edit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/save_user_transaction", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("save_user_transaction: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError("save_user_transaction", resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// FetchAccountBalances returns current balances keyed by fully qualified
// account name for an institution id such as "amex".
func (c *Client) FetchAccountBalances(ctx context.Context, accountID string) (map[string]decimal.Decimal, error) {
	q := url.Values{}
	q.Set("account", accountID)

	var out map[string]decimal.Decimal
	if err := c.get(ctx, "get_balance", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, op string, q url.Values, into any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/"+op+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(op, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return nil
}

func statusError(op string, resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &StatusError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
}
