package model

// Ledger is one fetched window: base rows, the account list and the
// server's copy of the edit history.
type Ledger struct {
	Rows     []Row
	Accounts []string
	Edits    []Edit
}
