// Package risk enforces the strategy's risk-management limits before
// new entries. All time handling is driven by bar timestamps so that a
// run stays deterministic.
package risk

import (
	"fmt"
	"time"

	"github.com/cryptodash/backtest/internal/strategy"
	"github.com/shopspring/decimal"
)

// Gate tracks realized losses across one simulation run and answers
// whether a new position may be opened. It is owned by a single engine
// instance and is not safe for concurrent use.
type Gate struct {
	limits strategy.RiskManagement

	consecutiveLosses int
	day               time.Time
	dayStartEquity    decimal.Decimal
	dayPnL            decimal.Decimal
}

// NewGate creates a gate for the given limits. Limits set to zero are
// not enforced.
func NewGate(limits strategy.RiskManagement) *Gate {
	return &Gate{limits: limits}
}

// Advance moves the gate's bar clock forward. On a date change the
// daily loss accounting resets against the equity at the first bar of
// the new day.
func (g *Gate) Advance(ts time.Time, equity decimal.Decimal) {
	day := ts.Truncate(24 * time.Hour)
	if !day.Equal(g.day) {
		g.day = day
		g.dayStartEquity = equity
		g.dayPnL = decimal.Zero
	}
}

// RecordTrade feeds a realized trade result into the loss tracking.
func (g *Gate) RecordTrade(pnl decimal.Decimal) {
	g.dayPnL = g.dayPnL.Add(pnl)
	if pnl.IsPositive() {
		g.consecutiveLosses = 0
	} else {
		g.consecutiveLosses++
	}
}

// CanEnter reports whether a new entry is allowed, with the limit that
// blocks it otherwise.
func (g *Gate) CanEnter(equity, peakEquity decimal.Decimal) (bool, string) {
	if g.limits.MaxDrawdown > 0 && peakEquity.IsPositive() {
		drawdown := peakEquity.Sub(equity).Div(peakEquity).InexactFloat64()
		if drawdown > g.limits.MaxDrawdown {
			return false, fmt.Sprintf("max drawdown exceeded: %.2f%%", drawdown*100)
		}
	}

	if g.limits.MaxConsecutiveLosses > 0 && g.consecutiveLosses >= g.limits.MaxConsecutiveLosses {
		return false, fmt.Sprintf("consecutive loss limit reached: %d", g.consecutiveLosses)
	}

	if g.limits.MaxDailyLoss > 0 && g.dayStartEquity.IsPositive() {
		dayLoss := g.dayPnL.Div(g.dayStartEquity).InexactFloat64()
		if dayLoss < -g.limits.MaxDailyLoss {
			return false, "daily loss limit reached"
		}
	}

	return true, ""
}

// ConsecutiveLosses exposes the current loss streak, mainly for tests.
func (g *Gate) ConsecutiveLosses() int {
	return g.consecutiveLosses
}
