package editlog

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ledgerview/internal/model"
)

var t0 = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func edit(date, account string, field model.Field, value string, at int) model.Edit {
	return model.Edit{
		Date:      date,
		Account:   account,
		Field:     field,
		Value:     value,
		Timestamp: t0.Add(time.Duration(at) * time.Second),
	}
}

func boolPtr(b bool) *bool { return &b }

func TestLastWriteWins(t *testing.T) {
	l := New()
	l.Append(edit("2024-01-01", "A", model.FieldTransaction, "10", 1))
	l.Append(edit("2024-01-01", "A", model.FieldTransaction, "20", 2))

	v, ok := l.EffectiveValue("2024-01-01", "A", model.FieldTransaction)
	require.True(t, ok)
	assert.Equal(t, "20", v)
}

func TestLaterTimestampWinsRegardlessOfOrder(t *testing.T) {
	l := New(
		edit("2024-01-01", "A", model.FieldTransaction, "newer", 5),
		edit("2024-01-01", "A", model.FieldTransaction, "older", 1),
	)
	v, ok := l.EffectiveValue("2024-01-01", "A", model.FieldTransaction)
	require.True(t, ok)
	assert.Equal(t, "newer", v)
}

func TestTieGoesToLastAppended(t *testing.T) {
	l := New(
		edit("2024-01-01", "A", model.FieldDescription, "first", 3),
		edit("2024-01-01", "A", model.FieldDescription, "second", 3),
	)
	v, _ := l.EffectiveValue("2024-01-01", "A", model.FieldDescription)
	assert.Equal(t, "second", v)
}

func TestFieldsIndependent(t *testing.T) {
	l := New(
		edit("2024-01-01", "A", model.FieldTransaction, "50", 1),
		edit("2024-01-01", "A", model.FieldDescription, "rent", 2),
		edit("2024-01-01", "A", model.FieldTransaction, "60", 3),
	)
	tx, _ := l.EffectiveValue("2024-01-01", "A", model.FieldTransaction)
	desc, _ := l.EffectiveValue("2024-01-01", "A", model.FieldDescription)
	assert.Equal(t, "60", tx)
	assert.Equal(t, "rent", desc)
	assert.Equal(t, 3, l.Len())
}

func TestAbsent(t *testing.T) {
	l := New(edit("2024-01-01", "A", model.FieldTransaction, "1", 1))

	_, ok := l.EffectiveValue("2024-01-02", "A", model.FieldTransaction)
	assert.False(t, ok)
	_, ok = l.EffectiveValue("2024-01-01", "B", model.FieldTransaction)
	assert.False(t, ok)
	assert.False(t, l.IsEdited("2024-01-01", "A", model.FieldDescription))
	assert.True(t, l.IsEdited("2024-01-01", "A", model.FieldTransaction))
}

func TestEmptyValueIsAnEdit(t *testing.T) {
	l := New(edit("2024-01-01", "A", model.FieldTransaction, "", 1))
	v, ok := l.EffectiveValue("2024-01-01", "A", model.FieldTransaction)
	assert.True(t, ok)
	assert.Equal(t, "", v)
}

func TestEffectiveFormat(t *testing.T) {
	bold := edit("2024-01-01", "A", model.FieldTransaction, "1", 1)
	bold.Format = &model.Format{Bold: boolPtr(true)}

	italic := edit("2024-01-01", "A", model.FieldTransaction, "2", 2)
	italic.Format = &model.Format{Italic: boolPtr(true)}

	plain := edit("2024-01-01", "A", model.FieldTransaction, "3", 3)

	l := New(bold, italic, plain)

	// An edit that does not set an attribute leaves the prior one in force.
	assert.True(t, l.EffectiveFormat("2024-01-01", "A", model.FieldTransaction, model.AttrBold))
	assert.True(t, l.EffectiveFormat("2024-01-01", "A", model.FieldTransaction, model.AttrItalic))
	assert.False(t, l.EffectiveFormat("2024-01-01", "A", model.FieldDescription, model.AttrBold))

	unbold := edit("2024-01-01", "A", model.FieldTransaction, "4", 4)
	unbold.Format = &model.Format{Bold: boolPtr(false)}
	l.Append(unbold)
	assert.False(t, l.EffectiveFormat("2024-01-01", "A", model.FieldTransaction, model.AttrBold))
	assert.True(t, l.EffectiveFormat("2024-01-01", "A", model.FieldTransaction, model.AttrItalic))
}

func TestEntriesIsACopy(t *testing.T) {
	l := New(edit("2024-01-01", "A", model.FieldTransaction, "1", 1))
	entries := l.Entries()
	entries[0].Value = "mutated"

	v, _ := l.EffectiveValue("2024-01-01", "A", model.FieldTransaction)
	assert.Equal(t, "1", v)
}

func TestWinners(t *testing.T) {
	l := New(
		edit("2024-01-02", "A", model.FieldTransaction, "a", 1),
		edit("2024-01-01", "B", model.FieldTransaction, "b", 2),
		edit("2024-01-02", "A", model.FieldTransaction, "c", 3),
	)
	w := l.Winners()
	require.Len(t, w, 2)
	assert.Equal(t, "b", w[0].Value)
	assert.Equal(t, "c", w[1].Value)
}

// scan is the reference linear lookup the index must agree with.
func scan(entries []model.Edit, date, account string, field model.Field) (string, bool) {
	found := false
	var best model.Edit
	for _, e := range entries {
		if e.Date != date || e.Account != account || e.Field != field {
			continue
		}
		if !found || !e.Timestamp.Before(best.Timestamp) {
			best = e
			found = true
		}
	}
	return best.Value, found
}

func TestIndexMatchesLinearScan(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	dates := []string{"2024-01-01", "2024-01-02", "2024-01-03"}
	accounts := []string{"A", "B"}
	fields := []model.Field{model.FieldTransaction, model.FieldDescription}

	l := New()
	for i := 0; i < 500; i++ {
		e := edit(
			dates[rng.Intn(len(dates))],
			accounts[rng.Intn(len(accounts))],
			fields[rng.Intn(len(fields))],
			fmt.Sprintf("v%d", i),
			rng.Intn(50),
		)
		l.Append(e)
	}

	entries := l.Entries()
	for _, d := range dates {
		for _, a := range accounts {
			for _, f := range fields {
				want, wantOK := scan(entries, d, a, f)
				got, gotOK := l.EffectiveValue(d, a, f)
				assert.Equal(t, wantOK, gotOK, "%s %s %s", d, a, f)
				assert.Equal(t, want, got, "%s %s %s", d, a, f)
			}
		}
	}
}
