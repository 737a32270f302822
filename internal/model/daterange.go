package model

import (
	"fmt"
	"time"
)

// DateRange is an inclusive window of dates, both YYYY-MM-DD.
type DateRange struct {
	Start string
	End   string
}

// IsZero reports whether the range is unset.
func (r DateRange) IsZero() bool {
	return r.Start == "" && r.End == ""
}

func (r DateRange) String() string {
	return r.Start + ".." + r.End
}

// Validate checks both dates parse and Start <= End.
func (r DateRange) Validate() error {
	if _, err := time.Parse(DateFormat, r.Start); err != nil {
		return fmt.Errorf("invalid start date %q: %w", r.Start, err)
	}
	if _, err := time.Parse(DateFormat, r.End); err != nil {
		return fmt.Errorf("invalid end date %q: %w", r.End, err)
	}
	if r.Start > r.End {
		return fmt.Errorf("start %s after end %s", r.Start, r.End)
	}
	return nil
}

// IsPast reports whether date lies strictly before today. Dates compare
// lexicographically.
func IsPast(date string, today time.Time) bool {
	if date == "" {
		return false
	}
	return date < today.Format(DateFormat)
}
