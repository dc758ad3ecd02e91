package strategy

import (
	"github.com/shopspring/decimal"
)

// Kelly sizing parameters: the estimated fraction is clamped to
// [0.01, 0.25], and 0.02 is used whenever the trade history is too
// short or degenerate to estimate from.
const (
	kellyMinTrades = 10
	kellyFallback  = 0.02
	kellyFloor     = 0.01
	kellyCeiling   = 0.25
)

// TradeOutcome is the slice of a closed trade the Kelly estimator
// needs.
type TradeOutcome struct {
	PnL        decimal.Decimal
	PnLPercent float64
}

// Sizer converts equity and risk configuration into a trade notional.
type Sizer struct {
	config *Config
}

// NewSizer creates a sizer for the given strategy.
func NewSizer(config *Config) *Sizer {
	return &Sizer{config: config}
}

// Notional returns the position notional for the next entry. Whatever
// the method produces is capped at equity × maxRiskPerTrade, then
// scaled by leverage.
func (s *Sizer) Notional(equity, price decimal.Decimal, atr float64, history []TradeOutcome, leverage decimal.Decimal) decimal.Decimal {
	sizing := s.config.PositionSizing
	maxRisk := equity.Mul(decimal.NewFromFloat(sizing.MaxRiskPerTrade))
	maxFraction := equity.Mul(decimal.NewFromFloat(sizing.MaxPositionFraction))

	var notional decimal.Decimal
	switch sizing.Method {
	case SizingFixed:
		notional = decimal.Min(maxFraction, maxRisk)

	case SizingKelly:
		fraction := KellyFraction(history)
		if fraction > sizing.MaxPositionFraction {
			fraction = sizing.MaxPositionFraction
		}
		notional = equity.Mul(decimal.NewFromFloat(fraction))

	case SizingVolatilityAdjusted:
		fraction := sizing.MaxPositionFraction
		target := sizing.VolTarget
		if target <= 0 {
			target = 0.02
		}
		if atr > 0 && price.IsPositive() {
			ratio := atr / price.InexactFloat64()
			if ratio > target {
				fraction *= target / ratio
			}
		}
		notional = equity.Mul(decimal.NewFromFloat(fraction))

	default:
		notional = equity.Mul(decimal.NewFromFloat(0.1))
	}

	// Hard ceiling regardless of method.
	notional = decimal.Min(notional, maxRisk)

	if leverage.IsPositive() {
		notional = notional.Mul(leverage)
	}
	return notional
}

// KellyFraction estimates the Kelly bet fraction from closed trades:
// (winRate·avgWin − (1−winRate)·avgLoss) / avgWin over pnl-percent
// returns, clamped to [0.01, 0.25]. Falls back to 0.02 with fewer than
// ten trades or when the history has no wins or no losses.
func KellyFraction(history []TradeOutcome) float64 {
	if len(history) < kellyMinTrades {
		return kellyFallback
	}

	var wins, losses []TradeOutcome
	for _, outcome := range history {
		if outcome.PnL.IsPositive() {
			wins = append(wins, outcome)
		} else if outcome.PnL.IsNegative() {
			losses = append(losses, outcome)
		}
	}
	if len(wins) == 0 || len(losses) == 0 {
		return kellyFallback
	}

	winRate := float64(len(wins)) / float64(len(history))

	var winSum, lossSum float64
	for _, w := range wins {
		winSum += w.PnLPercent
	}
	for _, l := range losses {
		lossSum += l.PnLPercent
	}
	avgWin := winSum / float64(len(wins))
	avgLoss := -lossSum / float64(len(losses))
	if avgWin <= 0 {
		return kellyFallback
	}

	kelly := (winRate*avgWin - (1-winRate)*avgLoss) / avgWin
	if kelly < kellyFloor {
		return kellyFloor
	}
	if kelly > kellyCeiling {
		return kellyCeiling
	}
	return kelly
}
