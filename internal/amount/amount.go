// Package amount normalizes raw cell text into decimal amounts and back
// into display strings.
package amount

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgerview/internal/formula"
)

// Tolerance is the largest balance difference treated as equal.
var Tolerance = decimal.New(1, -2)

// ParseStrict converts raw cell text to an amount. Empty input is zero.
// Formula input is evaluated; other input may carry a leading sign, a "$"
// and thousands separators, as the server renders balances that way.
func ParseStrict(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, nil
	}
	if formula.IsFormula(s) {
		return formula.Eval(s)
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if !isPlain(s) {
		return decimal.Zero, fmt.Errorf("non-numeric value %q", raw)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("non-numeric value %q", raw)
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

// isPlain reports whether s is digits with at most one decimal point and
// at least one digit. Exponents are not accepted.
func isPlain(s string) bool {
	digits, dot := 0, false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.' && !dot:
			dot = true
		default:
			return false
		}
	}
	return digits > 0
}

// Parse is ParseStrict with every failure coerced to zero. Formula errors
// are logged at warn level; other non-numeric input only at debug.
func Parse(raw string) decimal.Decimal {
	d, err := ParseStrict(raw)
	if err == nil {
		return d
	}
	if formula.IsFormula(strings.TrimSpace(raw)) {
		slog.Warn("formula evaluation failed", "input", raw, "error", err)
	} else {
		slog.Debug("non-numeric cell value", "input", raw)
	}
	return decimal.Zero
}

// Round2 rounds to cents.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Fixed renders d with exactly two decimals, the form balances are
// written back in.
func Fixed(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatAmount renders a currency string: "" for zero, "$3.00",
// "-$12.50".
func FormatAmount(d decimal.Decimal) string {
	d = Round2(d)
	if d.IsZero() {
		return ""
	}
	if d.IsNegative() {
		return "-$" + d.Abs().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

// Format parses raw and renders it with FormatAmount.
func Format(raw string) string {
	return FormatAmount(Parse(raw))
}

// Equal reports whether a and b differ by no more than Tolerance.
func Equal(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(Tolerance)
}
