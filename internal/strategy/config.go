// Package strategy holds the declarative strategy description, the
// rule-weighted signal evaluator and the position sizer.
package strategy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Condition compares an indicator value against a threshold.
type Condition string

const (
	ConditionAbove     Condition = "above"
	ConditionBelow     Condition = "below"
	ConditionCrossUp   Condition = "cross_up"
	ConditionCrossDown Condition = "cross_down"
	ConditionEquals    Condition = "equals"
)

// ExitKind identifies exit rule handling.
type ExitKind string

const (
	ExitStopLoss       ExitKind = "stop_loss"
	ExitTakeProfit     ExitKind = "take_profit"
	ExitTrailingStop   ExitKind = "trailing_stop"
	ExitTimeBased      ExitKind = "time_based"
	ExitIndicatorBased ExitKind = "indicator_based"
)

// SizingMethod selects the position sizing model.
type SizingMethod string

const (
	SizingFixed              SizingMethod = "fixed"
	SizingKelly              SizingMethod = "kelly"
	SizingVolatilityAdjusted SizingMethod = "volatility_adjusted"
)

// EntryRule contributes its weight to the entry vote when its condition
// holds.
type EntryRule struct {
	Indicator string    `yaml:"indicator" json:"indicator"`
	Condition Condition `yaml:"condition" json:"condition"`
	Threshold float64   `yaml:"threshold" json:"threshold"`
	Weight    float64   `yaml:"weight" json:"weight"`
}

// ExitRule closes the open position when its condition holds. Rules are
// evaluated in declaration order and the first match wins.
type ExitRule struct {
	Kind      ExitKind  `yaml:"kind" json:"kind"`
	Value     float64   `yaml:"value" json:"value"`
	Indicator string    `yaml:"indicator,omitempty" json:"indicator,omitempty"`
	Condition Condition `yaml:"condition,omitempty" json:"condition,omitempty"`
}

// PositionSizing configures the sizer.
type PositionSizing struct {
	Method              SizingMethod `yaml:"method" json:"method"`
	MaxPositionFraction float64      `yaml:"max_position_fraction" json:"maxPositionFraction"`
	MaxRiskPerTrade     float64      `yaml:"max_risk_per_trade" json:"maxRiskPerTrade"`
	// VolTarget is the target ATR/price ratio for volatility-adjusted
	// sizing; positions shrink when realized volatility exceeds it.
	VolTarget float64 `yaml:"vol_target,omitempty" json:"volTarget,omitempty"`
}

// RiskManagement holds the pre-entry limits enforced by the risk gate.
// MaxPositions and CorrelationLimit are carried for dashboard
// compatibility; the single-symbol, single-position engine cannot
// exceed either.
type RiskManagement struct {
	MaxDrawdown          float64 `yaml:"max_drawdown" json:"maxDrawdown"`
	MaxConsecutiveLosses int     `yaml:"max_consecutive_losses" json:"maxConsecutiveLosses"`
	MaxDailyLoss         float64 `yaml:"max_daily_loss" json:"maxDailyLoss"`
	MaxPositions         int     `yaml:"max_positions" json:"maxPositions"`
	CorrelationLimit     float64 `yaml:"correlation_limit" json:"correlationLimit"`
}

// Config is the declarative strategy description.
type Config struct {
	Name           string         `yaml:"name" json:"name"`
	Indicators     []string       `yaml:"indicators" json:"indicators"`
	EntryRules     []EntryRule    `yaml:"entry_rules" json:"entryRules"`
	ExitRules      []ExitRule     `yaml:"exit_rules" json:"exitRules"`
	PositionSizing PositionSizing `yaml:"position_sizing" json:"positionSizing"`
	RiskManagement RiskManagement `yaml:"risk_management" json:"riskManagement"`
}

// DefaultConfig returns a conservative RSI mean-reversion strategy.
func DefaultConfig() *Config {
	return &Config{
		Name:       "rsi-reversion",
		Indicators: []string{"RSI", "MA", "ATR"},
		EntryRules: []EntryRule{
			{Indicator: "rsi", Condition: ConditionBelow, Threshold: 30, Weight: 1.0},
		},
		ExitRules: []ExitRule{
			{Kind: ExitStopLoss, Value: 0.02},
			{Kind: ExitTakeProfit, Value: 0.05},
		},
		PositionSizing: PositionSizing{
			Method:              SizingFixed,
			MaxPositionFraction: 0.1,
			MaxRiskPerTrade:     0.1,
			VolTarget:           0.02,
		},
		RiskManagement: RiskManagement{
			MaxDrawdown:          0.25,
			MaxConsecutiveLosses: 8,
			MaxDailyLoss:         0.1,
			MaxPositions:         1,
		},
	}
}

// LoadConfig reads and validates a strategy description from a YAML
// file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read strategy config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse strategy config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the parts of the config the engine depends on.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("strategy name is required")
	}
	for i, rule := range c.EntryRules {
		if rule.Indicator == "" {
			return fmt.Errorf("entry rule %d: indicator is required", i)
		}
		if rule.Weight < 0 {
			return fmt.Errorf("entry rule %d: weight must not be negative", i)
		}
		switch rule.Condition {
		case ConditionAbove, ConditionBelow, ConditionCrossUp, ConditionCrossDown, ConditionEquals:
		default:
			return fmt.Errorf("entry rule %d: unknown condition %q", i, rule.Condition)
		}
	}
	for i, rule := range c.ExitRules {
		switch rule.Kind {
		case ExitStopLoss, ExitTakeProfit, ExitTrailingStop, ExitTimeBased:
		case ExitIndicatorBased:
			if rule.Indicator == "" {
				return fmt.Errorf("exit rule %d: indicator-based exit needs an indicator", i)
			}
		default:
			return fmt.Errorf("exit rule %d: unknown kind %q", i, rule.Kind)
		}
	}
	if c.PositionSizing.MaxPositionFraction < 0 || c.PositionSizing.MaxRiskPerTrade < 0 {
		return fmt.Errorf("position sizing fractions must not be negative")
	}
	return nil
}
