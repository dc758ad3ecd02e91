package indicators

import (
	"testing"
	"time"

	"github.com/cryptodash/backtest/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeBeforeMinHistory(t *testing.T) {
	bars := testutils.TrendBars(50, 100, 0.5, time.Hour)
	for index := 0; index < 20; index++ {
		snapshot := Compute(bars, index, []string{SetRSI, SetMACD})
		assert.Empty(t, snapshot, "index=%d", index)
	}
}

func TestComputeSelectedSets(t *testing.T) {
	bars := testutils.TrendBars(150, 100, 0.5, time.Hour)

	snapshot := Compute(bars, 120, []string{SetRSI, SetMACD, SetBollinger, SetMovingAvg, SetATR, SetStochastic, SetADX, SetMFI})
	for _, key := range []string{
		"rsi", "macd", "macdSignal", "macdHistogram",
		"bbUpper", "bbMiddle", "bbLower", "bbWidth",
		"sma20", "sma50", "ema12", "ema26",
		"atr", "stochK", "stochD", "adx", "mfi",
	} {
		_, ok := snapshot[key]
		assert.True(t, ok, "missing %s", key)
	}

	// Only the requested sets are computed.
	snapshot = Compute(bars, 120, []string{SetRSI})
	require.Len(t, snapshot, 1)
	_, ok := snapshot["rsi"]
	assert.True(t, ok)
}

func TestComputeOutOfRange(t *testing.T) {
	bars := testutils.TrendBars(30, 100, 0.5, time.Hour)
	assert.Empty(t, Compute(bars, 30, []string{SetRSI}))
	assert.Empty(t, Compute(bars, 100, []string{SetRSI}))
}

func TestSnapshotClone(t *testing.T) {
	original := Snapshot{"rsi": 42.0}
	clone := original.Clone()
	clone["rsi"] = 99.0
	assert.Equal(t, 42.0, original["rsi"])
}
