package strategy

import (
	"fmt"
	"math"

	"github.com/cryptodash/backtest/internal/indicators"
)

// entryThreshold is the soft-voting bar: an entry fires when the met
// weight reaches 60% of the total configured weight.
const entryThreshold = 0.6

// Evaluator applies the strategy's weighted entry rules and ordered
// exit rules against indicator snapshots.
type Evaluator struct {
	config *Config
}

// NewEvaluator creates an evaluator for the given strategy.
func NewEvaluator(config *Config) *Evaluator {
	return &Evaluator{config: config}
}

// EntryDecision is the result of the weighted entry vote.
type EntryDecision struct {
	Enter    bool
	Strength float64 // met weight / total weight
	Reasons  []string
}

// PositionView is the slice of position state the exit rules consume.
type PositionView struct {
	EntryPrice float64
	MaxPrice   float64 // running high since entry
	BarsHeld   int
}

// ExitDecision reports the first exit rule that matched, if any.
type ExitDecision struct {
	Exit   bool
	Reason string
}

// CheckEntry sums rule weights whose conditions hold against the
// current snapshot (cross conditions also consult the previous one) and
// fires when the met fraction reaches the voting threshold. A missing
// indicator value never satisfies a rule.
func (e *Evaluator) CheckEntry(current, previous indicators.Snapshot) EntryDecision {
	var totalWeight, metWeight float64
	var reasons []string

	for _, rule := range e.config.EntryRules {
		totalWeight += rule.Weight

		value, ok := current[rule.Indicator]
		if !ok {
			continue
		}

		met := false
		switch rule.Condition {
		case ConditionAbove:
			met = value > rule.Threshold
		case ConditionBelow:
			met = value < rule.Threshold
		case ConditionCrossUp:
			prev, hasPrev := previous[rule.Indicator]
			met = hasPrev && prev <= rule.Threshold && value > rule.Threshold
		case ConditionCrossDown:
			prev, hasPrev := previous[rule.Indicator]
			met = hasPrev && prev >= rule.Threshold && value < rule.Threshold
		case ConditionEquals:
			met = almostEqual(value, rule.Threshold)
		}

		if met {
			metWeight += rule.Weight
			reasons = append(reasons, fmt.Sprintf("%s %s %g", rule.Indicator, rule.Condition, rule.Threshold))
		}
	}

	if totalWeight <= 0 {
		return EntryDecision{}
	}
	strength := metWeight / totalWeight
	return EntryDecision{
		Enter:    strength >= entryThreshold,
		Strength: strength,
		Reasons:  reasons,
	}
}

// CheckExit walks the exit rules in declaration order and returns the
// first one whose condition holds. Only that one reason is recorded per
// trade.
func (e *Evaluator) CheckExit(pos PositionView, price float64, snapshot indicators.Snapshot) ExitDecision {
	for _, rule := range e.config.ExitRules {
		switch rule.Kind {
		case ExitStopLoss:
			if pos.EntryPrice > 0 && (pos.EntryPrice-price)/pos.EntryPrice >= rule.Value {
				return ExitDecision{Exit: true, Reason: string(ExitStopLoss)}
			}
		case ExitTakeProfit:
			if pos.EntryPrice > 0 && (price-pos.EntryPrice)/pos.EntryPrice >= rule.Value {
				return ExitDecision{Exit: true, Reason: string(ExitTakeProfit)}
			}
		case ExitTrailingStop:
			if pos.MaxPrice > 0 && (pos.MaxPrice-price)/pos.MaxPrice >= rule.Value {
				return ExitDecision{Exit: true, Reason: string(ExitTrailingStop)}
			}
		case ExitTimeBased:
			// Value is the holding time in bars.
			if pos.BarsHeld >= int(rule.Value) {
				return ExitDecision{Exit: true, Reason: string(ExitTimeBased)}
			}
		case ExitIndicatorBased:
			value, ok := snapshot[rule.Indicator]
			if !ok {
				continue
			}
			met := false
			switch rule.Condition {
			case ConditionAbove:
				met = value > rule.Value
			case ConditionBelow:
				met = value < rule.Value
			case ConditionEquals:
				met = almostEqual(value, rule.Value)
			}
			if met {
				return ExitDecision{Exit: true, Reason: string(ExitIndicatorBased)}
			}
		}
	}
	return ExitDecision{}
}

func almostEqual(a, b float64) bool {
	tolerance := 1e-9 * math.Max(1, math.Abs(b))
	return math.Abs(a-b) <= tolerance
}
