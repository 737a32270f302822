package model

import (
	"fmt"
	"time"
)

// Field names an editable column of an account snapshot.
type Field string

const (
	FieldTransaction Field = "transaction"
	FieldDescription Field = "description"
)

// ParseField validates a field name.
func ParseField(s string) (Field, error) {
	switch Field(s) {
	case FieldTransaction, FieldDescription:
		return Field(s), nil
	}
	return "", fmt.Errorf("unknown field %q", s)
}

// Attribute names a display format flag.
type Attribute string

const (
	AttrBold   Attribute = "bold"
	AttrItalic Attribute = "italic"
)

// Format is an optional display annotation. A nil flag means the edit
// does not set that attribute.
type Format struct {
	Bold   *bool
	Italic *bool
}

// Get returns the attribute's value and whether it is set.
func (f *Format) Get(attr Attribute) (value, ok bool) {
	if f == nil {
		return false, false
	}
	var p *bool
	switch attr {
	case AttrBold:
		p = f.Bold
	case AttrItalic:
		p = f.Italic
	}
	if p == nil {
		return false, false
	}
	return *p, true
}

// Edit is a user override of one field for one (date, account).
// Edits are never mutated once created.
type Edit struct {
	ID        string
	Date      string // YYYY-MM-DD
	Account   string
	Field     Field
	Value     string
	Format    *Format
	Timestamp time.Time
}
