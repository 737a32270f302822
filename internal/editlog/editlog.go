// Package editlog holds the append-only log of user edits and answers
// last-write-wins lookups over it.
package editlog

import (
	"github.com/cleared-dev/ledgerview/internal/model"
)

// Key identifies one editable cell.
type Key struct {
	Date    string
	Account string
	Field   model.Field
}

type formatKey struct {
	Key
	Attr model.Attribute
}

// Log is an append-only sequence of edits with an incrementally
// maintained index from cell to its winning entry. The winner is the
// entry with the latest timestamp; equal timestamps go to the entry
// appended last. A Log is not safe for concurrent use.
type Log struct {
	entries []model.Edit
	values  map[Key]int
	formats map[formatKey]int
}

// New creates a Log seeded with edits in the given order.
func New(edits ...model.Edit) *Log {
	l := &Log{
		values:  make(map[Key]int),
		formats: make(map[formatKey]int),
	}
	for _, e := range edits {
		l.Append(e)
	}
	return l
}

// Append adds an edit to the end of the log. It never rejects: edits may
// name dates or accounts that are not loaded.
func (l *Log) Append(e model.Edit) {
	idx := len(l.entries)
	l.entries = append(l.entries, e)

	k := Key{Date: e.Date, Account: e.Account, Field: e.Field}
	if prev, ok := l.values[k]; !ok || l.supersedes(idx, prev) {
		l.values[k] = idx
	}

	for _, attr := range []model.Attribute{model.AttrBold, model.AttrItalic} {
		if _, ok := e.Format.Get(attr); !ok {
			continue
		}
		fk := formatKey{Key: k, Attr: attr}
		if prev, ok := l.formats[fk]; !ok || l.supersedes(idx, prev) {
			l.formats[fk] = idx
		}
	}
}

// supersedes reports whether entry idx beats entry prev. idx is always
// the later append, so a timestamp tie goes to idx.
func (l *Log) supersedes(idx, prev int) bool {
	return !l.entries[idx].Timestamp.Before(l.entries[prev].Timestamp)
}

// Effective returns the winning edit for a cell.
func (l *Log) Effective(date, account string, field model.Field) (model.Edit, bool) {
	idx, ok := l.values[Key{Date: date, Account: account, Field: field}]
	if !ok {
		return model.Edit{}, false
	}
	return l.entries[idx], true
}

// EffectiveValue returns the winning value for a cell.
func (l *Log) EffectiveValue(date, account string, field model.Field) (string, bool) {
	e, ok := l.Effective(date, account, field)
	return e.Value, ok
}

// EffectiveFormat returns the winning value of one format attribute,
// considering only edits that set it. Unformatted is false.
func (l *Log) EffectiveFormat(date, account string, field model.Field, attr model.Attribute) bool {
	idx, ok := l.formats[formatKey{Key: Key{Date: date, Account: account, Field: field}, Attr: attr}]
	if !ok {
		return false
	}
	v, _ := l.entries[idx].Format.Get(attr)
	return v
}

// IsEdited reports whether any edit targets the cell.
func (l *Log) IsEdited(date, account string, field model.Field) bool {
	_, ok := l.values[Key{Date: date, Account: account, Field: field}]
	return ok
}

// Len returns the number of entries.
func (l *Log) Len() int {
	return len(l.entries)
}

// Entries returns a copy of the log in append order.
func (l *Log) Entries() []model.Edit {
	out := make([]model.Edit, len(l.entries))
	copy(out, l.entries)
	return out
}

// Winners returns the winning edit of every edited cell, in the order
// the winners were appended.
func (l *Log) Winners() []model.Edit {
	marked := make([]bool, len(l.entries))
	for _, idx := range l.values {
		marked[idx] = true
	}
	var out []model.Edit
	for i, m := range marked {
		if m {
			out = append(out, l.entries[i])
		}
	}
	return out
}
