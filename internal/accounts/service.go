package accounts

import (
	"strings"
)

// DefaultPrefixes selects the cash accounts shown in the grid.
var DefaultPrefixes = []string{"Assets:Checking", "Assets:Saving"}

// DefaultStrip lists the prefixes removed from column headers.
var DefaultStrip = []string{"Assets:Saving:", "Assets:Checking:"}

// Service provides lookup and display naming over the tracked account list.
type Service struct {
	names []string
	set   map[string]bool
	strip []string
}

// NewService creates a Service from account names in display order.
// strip lists prefixes removed by Short; nil means DefaultStrip.
func NewService(names []string, strip []string) *Service {
	if strip == nil {
		strip = DefaultStrip
	}
	set := make(map[string]bool, len(names))
	var ordered []string
	for _, n := range names {
		if set[n] {
			continue
		}
		set[n] = true
		ordered = append(ordered, n)
	}
	return &Service{names: ordered, set: set, strip: strip}
}

// All returns the account names.
func (s *Service) All() []string {
	return s.names
}

// Exists reports whether an account is tracked.
func (s *Service) Exists(name string) bool {
	return s.set[name]
}

// Short returns the column header for an account: the name with the first
// occurrence of each strip prefix removed.
func (s *Service) Short(name string) string {
	short := name
	for _, p := range s.strip {
		short = strings.Replace(short, p, "", 1)
	}
	return short
}

// Class returns a stylesheet-friendly key: the short name with its first
// ":" replaced by "-", lowercased.
func (s *Service) Class(name string) string {
	return strings.ToLower(strings.Replace(s.Short(name), ":", "-", 1))
}

// Filter returns the names that start with any of prefixes, preserving
// order. An empty prefix list returns names unchanged.
func Filter(names []string, prefixes []string) []string {
	if len(prefixes) == 0 {
		return names
	}
	var out []string
	for _, n := range names {
		for _, p := range prefixes {
			if strings.HasPrefix(n, p) {
				out = append(out, n)
				break
			}
		}
	}
	return out
}

// Tail returns the last n ":"-separated segments of a fully qualified
// account name.
func Tail(name string, n int) string {
	parts := strings.Split(name, ":")
	if n <= 0 || n >= len(parts) {
		return name
	}
	return strings.Join(parts[len(parts)-n:], ":")
}
