package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankTransaction represents a parsed bank CSV row.
type BankTransaction struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal // negative = withdrawal, positive = deposit
	Type        string          // bank transaction type (ACH_DEBIT, etc.)
	// Balance is the account balance after this transaction, when the
	// export carries one.
	Balance    decimal.Decimal
	HasBalance bool
}
