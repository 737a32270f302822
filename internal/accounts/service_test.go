package accounts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var chart = []string{
	"Assets:Checking:Chase",
	"Assets:Saving:Ally:HighYield",
	"Assets:Checking:Chase",
	"Liabilities:Amex",
}

func TestNewService(t *testing.T) {
	svc := NewService(chart, nil)

	assert.Len(t, svc.All(), 3, "duplicates collapse")
	assert.Equal(t, "Assets:Checking:Chase", svc.All()[0])
}

func TestExists(t *testing.T) {
	svc := NewService(chart, nil)

	assert.True(t, svc.Exists("Liabilities:Amex"))
	assert.False(t, svc.Exists("Assets:Checking"))
}

func TestShortAndClass(t *testing.T) {
	svc := NewService(chart, nil)

	tests := []struct {
		name  string
		short string
		class string
	}{
		{"Assets:Checking:Chase", "Chase", "chase"},
		{"Assets:Saving:Ally:HighYield", "Ally:HighYield", "ally-highyield"},
		{"Liabilities:Amex", "Liabilities:Amex", "liabilities-amex"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.short, svc.Short(tt.name), "Short(%q)", tt.name)
		assert.Equal(t, tt.class, svc.Class(tt.name), "Class(%q)", tt.name)
	}
}

func TestShortCustomStrip(t *testing.T) {
	svc := NewService(chart, []string{"Liabilities:"})
	assert.Equal(t, "Amex", svc.Short("Liabilities:Amex"))
	assert.Equal(t, "Assets:Checking:Chase", svc.Short("Assets:Checking:Chase"))
}

func TestFilter(t *testing.T) {
	got := Filter(chart, DefaultPrefixes)
	assert.Equal(t, []string{"Assets:Checking:Chase", "Assets:Saving:Ally:HighYield", "Assets:Checking:Chase"}, got)

	assert.Equal(t, chart, Filter(chart, nil))
}

func TestTail(t *testing.T) {
	assert.Equal(t, "Ally:HighYield", Tail("Assets:Saving:Ally:HighYield", 2))
	assert.Equal(t, "Amex", Tail("Amex", 2))
	assert.Equal(t, "Liabilities:Amex", Tail("Liabilities:Amex", 0))
}
