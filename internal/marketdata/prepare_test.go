package marketdata

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bar(ts time.Time, close float64) Bar {
	p := decimal.NewFromFloat(close)
	return Bar{Timestamp: ts, Open: p, High: p, Low: p, Close: p, Volume: decimal.NewFromInt(1)}
}

func TestPrepareMergesAndSorts(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	groups := map[string][]Bar{
		"1h": {bar(t0.Add(2*time.Hour), 102), bar(t0, 100)},
		"4h": {bar(t0.Add(time.Hour), 101), bar(t0.Add(3*time.Hour), 103)},
	}

	bars := Prepare(groups, time.Time{}, time.Time{})
	require.Len(t, bars, 4)
	for i := 1; i < len(bars); i++ {
		assert.True(t, bars[i].Timestamp.After(bars[i-1].Timestamp))
	}
}

func TestPrepareDeduplicates(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	groups := map[string][]Bar{
		"1h": {bar(t0, 100), bar(t0.Add(time.Hour), 101)},
		"4h": {bar(t0, 999)}, // same timestamp, different value
	}

	bars := Prepare(groups, time.Time{}, time.Time{})
	require.Len(t, bars, 2)
	assert.True(t, bars[0].Timestamp.Equal(t0))
	assert.True(t, bars[1].Timestamp.Equal(t0.Add(time.Hour)))
}

func TestPrepareRangeFilter(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var all []Bar
	for i := 0; i < 10; i++ {
		all = append(all, bar(t0.Add(time.Duration(i)*time.Hour), 100+float64(i)))
	}
	groups := map[string][]Bar{"1h": all}

	bars := Prepare(groups, t0.Add(2*time.Hour), t0.Add(5*time.Hour))
	require.Len(t, bars, 4)
	assert.True(t, bars[0].Timestamp.Equal(t0.Add(2*time.Hour)))
	assert.True(t, bars[len(bars)-1].Timestamp.Equal(t0.Add(5*time.Hour)))

	// Open-ended bounds keep everything.
	assert.Len(t, Prepare(groups, time.Time{}, time.Time{}), 10)
}

func TestPrepareEmpty(t *testing.T) {
	assert.Empty(t, Prepare(nil, time.Time{}, time.Time{}))
	assert.Empty(t, Prepare(map[string][]Bar{"1h": {}}, time.Time{}, time.Time{}))
}
