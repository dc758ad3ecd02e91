package risk

import (
	"testing"
	"time"

	"github.com/cryptodash/backtest/internal/strategy"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var day0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func TestGateUnlimitedByDefault(t *testing.T) {
	g := NewGate(strategy.RiskManagement{})
	g.Advance(day0, decimal.NewFromInt(10000))

	for i := 0; i < 20; i++ {
		g.RecordTrade(decimal.NewFromInt(-100))
	}
	ok, reason := g.CanEnter(decimal.NewFromInt(1000), decimal.NewFromInt(10000))
	assert.True(t, ok, reason)
}

func TestGateMaxDrawdown(t *testing.T) {
	g := NewGate(strategy.RiskManagement{MaxDrawdown: 0.2})

	ok, _ := g.CanEnter(decimal.NewFromInt(8500), decimal.NewFromInt(10000))
	assert.True(t, ok)

	ok, reason := g.CanEnter(decimal.NewFromInt(7500), decimal.NewFromInt(10000))
	assert.False(t, ok)
	assert.Contains(t, reason, "drawdown")
}

func TestGateConsecutiveLosses(t *testing.T) {
	g := NewGate(strategy.RiskManagement{MaxConsecutiveLosses: 3})
	g.Advance(day0, decimal.NewFromInt(10000))

	for i := 0; i < 3; i++ {
		g.RecordTrade(decimal.NewFromInt(-10))
	}
	ok, reason := g.CanEnter(decimal.NewFromInt(9970), decimal.NewFromInt(10000))
	assert.False(t, ok)
	assert.Contains(t, reason, "consecutive")

	// A win resets the streak.
	g.RecordTrade(decimal.NewFromInt(5))
	assert.Equal(t, 0, g.ConsecutiveLosses())
	ok, _ = g.CanEnter(decimal.NewFromInt(9975), decimal.NewFromInt(10000))
	assert.True(t, ok)
}

func TestGateDailyLoss(t *testing.T) {
	g := NewGate(strategy.RiskManagement{MaxDailyLoss: 0.05})
	g.Advance(day0, decimal.NewFromInt(10000))

	g.RecordTrade(decimal.NewFromInt(-600))
	ok, reason := g.CanEnter(decimal.NewFromInt(9400), decimal.NewFromInt(10000))
	assert.False(t, ok)
	assert.Contains(t, reason, "daily")

	// Losses reset on the next bar-clock day.
	g.Advance(day0.Add(24*time.Hour), decimal.NewFromInt(9400))
	ok, _ = g.CanEnter(decimal.NewFromInt(9400), decimal.NewFromInt(10000))
	assert.True(t, ok)
}

func TestGateSameDayNoReset(t *testing.T) {
	g := NewGate(strategy.RiskManagement{MaxDailyLoss: 0.05})
	g.Advance(day0, decimal.NewFromInt(10000))
	g.RecordTrade(decimal.NewFromInt(-600))

	// Later the same day: still blocked.
	g.Advance(day0.Add(2*time.Hour), decimal.NewFromInt(9400))
	ok, _ := g.CanEnter(decimal.NewFromInt(9400), decimal.NewFromInt(10000))
	assert.False(t, ok)
}
