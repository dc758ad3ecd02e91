package strategy

import (
	"testing"

	"github.com/cryptodash/backtest/internal/indicators"
	"github.com/stretchr/testify/assert"
)

func entryConfig(rules ...EntryRule) *Config {
	cfg := DefaultConfig()
	cfg.EntryRules = rules
	return cfg
}

func TestCheckEntrySoftVoting(t *testing.T) {
	cfg := entryConfig(
		EntryRule{Indicator: "rsi", Condition: ConditionBelow, Threshold: 30, Weight: 0.6},
		EntryRule{Indicator: "adx", Condition: ConditionAbove, Threshold: 25, Weight: 0.4},
	)
	e := NewEvaluator(cfg)

	// 60% of the weight met: fires.
	decision := e.CheckEntry(indicators.Snapshot{"rsi": 20, "adx": 10}, nil)
	assert.True(t, decision.Enter)
	assert.InDelta(t, 0.6, decision.Strength, 1e-12)
	assert.Len(t, decision.Reasons, 1)

	// Only 40% met: does not fire.
	decision = e.CheckEntry(indicators.Snapshot{"rsi": 50, "adx": 30}, nil)
	assert.False(t, decision.Enter)
	assert.InDelta(t, 0.4, decision.Strength, 1e-12)

	// Everything met.
	decision = e.CheckEntry(indicators.Snapshot{"rsi": 20, "adx": 30}, nil)
	assert.True(t, decision.Enter)
	assert.InDelta(t, 1.0, decision.Strength, 1e-12)
}

func TestCheckEntryMissingIndicator(t *testing.T) {
	cfg := entryConfig(
		EntryRule{Indicator: "rsi", Condition: ConditionBelow, Threshold: 30, Weight: 1},
	)
	e := NewEvaluator(cfg)

	decision := e.CheckEntry(indicators.Snapshot{}, nil)
	assert.False(t, decision.Enter)
	assert.Equal(t, 0.0, decision.Strength)
}

func TestCheckEntryNoRules(t *testing.T) {
	e := NewEvaluator(entryConfig())
	decision := e.CheckEntry(indicators.Snapshot{"rsi": 20}, nil)
	assert.False(t, decision.Enter)
}

func TestCheckEntryCrossConditions(t *testing.T) {
	cfg := entryConfig(
		EntryRule{Indicator: "macd", Condition: ConditionCrossUp, Threshold: 0, Weight: 1},
	)
	e := NewEvaluator(cfg)

	// Crossed from below to above the threshold.
	decision := e.CheckEntry(indicators.Snapshot{"macd": 0.5}, indicators.Snapshot{"macd": -0.5})
	assert.True(t, decision.Enter)

	// Already above: no cross.
	decision = e.CheckEntry(indicators.Snapshot{"macd": 0.5}, indicators.Snapshot{"macd": 0.2})
	assert.False(t, decision.Enter)

	// No previous snapshot: no cross.
	decision = e.CheckEntry(indicators.Snapshot{"macd": 0.5}, nil)
	assert.False(t, decision.Enter)

	cfg = entryConfig(
		EntryRule{Indicator: "rsi", Condition: ConditionCrossDown, Threshold: 70, Weight: 1},
	)
	e = NewEvaluator(cfg)
	decision = e.CheckEntry(indicators.Snapshot{"rsi": 65}, indicators.Snapshot{"rsi": 75})
	assert.True(t, decision.Enter)
}

func TestCheckEntryEquals(t *testing.T) {
	cfg := entryConfig(
		EntryRule{Indicator: "rsi", Condition: ConditionEquals, Threshold: 50, Weight: 1},
	)
	e := NewEvaluator(cfg)

	assert.True(t, e.CheckEntry(indicators.Snapshot{"rsi": 50}, nil).Enter)
	assert.False(t, e.CheckEntry(indicators.Snapshot{"rsi": 50.1}, nil).Enter)
}

func exitConfig(rules ...ExitRule) *Evaluator {
	cfg := DefaultConfig()
	cfg.ExitRules = rules
	return NewEvaluator(cfg)
}

func TestCheckExitStopLossAndTakeProfit(t *testing.T) {
	e := exitConfig(
		ExitRule{Kind: ExitStopLoss, Value: 0.02},
		ExitRule{Kind: ExitTakeProfit, Value: 0.05},
	)
	pos := PositionView{EntryPrice: 100, MaxPrice: 100}

	decision := e.CheckExit(pos, 97.9, nil)
	assert.True(t, decision.Exit)
	assert.Equal(t, "stop_loss", decision.Reason)

	decision = e.CheckExit(pos, 105, nil)
	assert.True(t, decision.Exit)
	assert.Equal(t, "take_profit", decision.Reason)

	decision = e.CheckExit(pos, 101, nil)
	assert.False(t, decision.Exit)
}

func TestCheckExitFirstMatchWins(t *testing.T) {
	// Both rules hold on the same bar; the declared order decides.
	e := exitConfig(
		ExitRule{Kind: ExitTimeBased, Value: 3},
		ExitRule{Kind: ExitStopLoss, Value: 0.02},
	)
	pos := PositionView{EntryPrice: 100, MaxPrice: 100, BarsHeld: 5}

	decision := e.CheckExit(pos, 90, nil)
	assert.True(t, decision.Exit)
	assert.Equal(t, "time_based", decision.Reason)

	e = exitConfig(
		ExitRule{Kind: ExitStopLoss, Value: 0.02},
		ExitRule{Kind: ExitTimeBased, Value: 3},
	)
	decision = e.CheckExit(pos, 90, nil)
	assert.Equal(t, "stop_loss", decision.Reason)
}

func TestCheckExitTrailingStop(t *testing.T) {
	e := exitConfig(ExitRule{Kind: ExitTrailingStop, Value: 0.05})

	// Retraced 6% from the running high.
	pos := PositionView{EntryPrice: 100, MaxPrice: 120}
	decision := e.CheckExit(pos, 112.8, nil)
	assert.True(t, decision.Exit)
	assert.Equal(t, "trailing_stop", decision.Reason)

	decision = e.CheckExit(pos, 118, nil)
	assert.False(t, decision.Exit)
}

func TestCheckExitTimeBased(t *testing.T) {
	e := exitConfig(ExitRule{Kind: ExitTimeBased, Value: 10})

	assert.False(t, e.CheckExit(PositionView{EntryPrice: 100, BarsHeld: 9}, 100, nil).Exit)
	assert.True(t, e.CheckExit(PositionView{EntryPrice: 100, BarsHeld: 10}, 100, nil).Exit)
}

func TestCheckExitIndicatorBased(t *testing.T) {
	e := exitConfig(ExitRule{Kind: ExitIndicatorBased, Value: 70, Indicator: "rsi", Condition: ConditionAbove})
	pos := PositionView{EntryPrice: 100, MaxPrice: 100}

	decision := e.CheckExit(pos, 100, indicators.Snapshot{"rsi": 75})
	assert.True(t, decision.Exit)
	assert.Equal(t, "indicator_based", decision.Reason)

	assert.False(t, e.CheckExit(pos, 100, indicators.Snapshot{"rsi": 65}).Exit)

	// Missing indicator value never satisfies the rule.
	assert.False(t, e.CheckExit(pos, 100, indicators.Snapshot{}).Exit)
}
