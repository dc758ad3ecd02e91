package strategy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
name: macd-momentum
indicators: [RSI, MACD, ATR]
entry_rules:
  - indicator: macd
    condition: cross_up
    threshold: 0
    weight: 0.7
  - indicator: rsi
    condition: below
    threshold: 70
    weight: 0.3
exit_rules:
  - kind: stop_loss
    value: 0.03
  - kind: trailing_stop
    value: 0.05
  - kind: indicator_based
    value: 80
    indicator: rsi
    condition: above
position_sizing:
  method: kelly
  max_position_fraction: 0.2
  max_risk_per_trade: 0.05
risk_management:
  max_drawdown: 0.3
  max_consecutive_losses: 6
  max_daily_loss: 0.08
  max_positions: 1
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "strategy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "macd-momentum", cfg.Name)
	assert.Equal(t, []string{"RSI", "MACD", "ATR"}, cfg.Indicators)
	require.Len(t, cfg.EntryRules, 2)
	assert.Equal(t, ConditionCrossUp, cfg.EntryRules[0].Condition)
	assert.Equal(t, 0.7, cfg.EntryRules[0].Weight)
	require.Len(t, cfg.ExitRules, 3)
	assert.Equal(t, ExitTrailingStop, cfg.ExitRules[1].Kind)
	assert.Equal(t, "rsi", cfg.ExitRules[2].Indicator)
	assert.Equal(t, SizingKelly, cfg.PositionSizing.Method)
	assert.Equal(t, 0.3, cfg.RiskManagement.MaxDrawdown)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigInvalid(t *testing.T) {
	// Unknown entry condition.
	_, err := LoadConfig(writeConfig(t, `
name: broken
entry_rules:
  - indicator: rsi
    condition: sideways
    threshold: 30
    weight: 1
`))
	assert.Error(t, err)

	// Indicator-based exit without an indicator.
	_, err = LoadConfig(writeConfig(t, `
name: broken
exit_rules:
  - kind: indicator_based
    value: 80
`))
	assert.Error(t, err)
}

func TestDefaultConfigValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestValidateRejectsEmptyName(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Name = ""
	assert.Error(t, cfg.Validate())
}
