// Package backtest runs a declarative strategy against a historical
// bar sequence and produces a trade ledger, an equity curve and
// risk-adjusted performance statistics.
package backtest

import (
	"time"

	"github.com/cryptodash/backtest/internal/indicators"
	"github.com/cryptodash/backtest/internal/strategy"
	"github.com/shopspring/decimal"
)

// Parameters configures one backtest run.
type Parameters struct {
	Symbol         string
	StartDate      time.Time
	EndDate        time.Time
	InitialCapital decimal.Decimal
	Leverage       decimal.Decimal
	TradingFeeRate decimal.Decimal // e.g. 0.001 for 0.1%
	SlippageRate   decimal.Decimal // e.g. 0.0005 for 0.05%

	// Statistics inputs
	RiskFreeRate        float64
	AnnualizationFactor float64

	Strategy *strategy.Config
}

// DefaultParameters returns run parameters with the usual defaults.
func DefaultParameters(symbol string, cfg *strategy.Config) *Parameters {
	return &Parameters{
		Symbol:              symbol,
		InitialCapital:      decimal.NewFromFloat(10000),
		Leverage:            decimal.NewFromInt(1),
		TradingFeeRate:      decimal.NewFromFloat(0.001),
		SlippageRate:        decimal.NewFromFloat(0.0005),
		RiskFreeRate:        0.02,
		AnnualizationFactor: 252,
		Strategy:            cfg,
	}
}

// Side is the fill direction of a trade record.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Trade is one immutable fill in the append-only ledger. Sell records
// carry the realized pnl of the round trip, net of both fees.
type Trade struct {
	ID          string               `json:"id"`
	Timestamp   time.Time            `json:"timestamp"`
	Side        Side                 `json:"side"`
	Price       decimal.Decimal      `json:"price"`
	Quantity    decimal.Decimal      `json:"quantity"`
	Notional    decimal.Decimal      `json:"notionalValue"`
	Fee         decimal.Decimal      `json:"fee"`
	Slippage    decimal.Decimal      `json:"slippage"`
	PnL         decimal.Decimal      `json:"pnl"`
	PnLPercent  float64              `json:"pnlPercent"`
	RunningPnL  decimal.Decimal      `json:"runningPnl"`
	EquityAfter decimal.Decimal      `json:"equityAfter"`
	Indicators  indicators.Snapshot  `json:"indicatorSnapshotAtFill"`
	Signal      string               `json:"originatingSignal"`
	ExitReason  string               `json:"exitReason,omitempty"`
}

// Position is the single open position of the simulator.
type Position struct {
	EntryPrice decimal.Decimal
	EntryTime  time.Time
	EntryIndex int
	Quantity   decimal.Decimal
	Notional   decimal.Decimal
	EntryFee   decimal.Decimal
	MaxPrice   decimal.Decimal // running high since entry, for trailing stops
}

// EquityPoint is one point of the per-bar equity curve.
type EquityPoint struct {
	Timestamp        time.Time       `json:"timestamp"`
	Equity           decimal.Decimal `json:"equity"`
	Drawdown         float64         `json:"drawdown"`
	CumulativeReturn float64         `json:"cumulativeReturn"`
}

// SignalType classifies recorded signals.
type SignalType string

const (
	SignalEntry SignalType = "entry"
	SignalExit  SignalType = "exit"
)

// Signal is a recorded entry/exit decision with its supporting
// indicator values.
type Signal struct {
	Timestamp  time.Time           `json:"timestamp"`
	Type       SignalType          `json:"type"`
	Direction  string              `json:"direction"`
	Strength   float64             `json:"strength"`
	Indicators indicators.Snapshot `json:"indicators"`
	Reasoning  []string            `json:"reasoning"`
}

// PerformanceMetrics is the aggregate record computed once after the
// run. Ratios are clamped to 0 instead of propagating NaN/Inf.
type PerformanceMetrics struct {
	TotalReturn      float64 `json:"totalReturn"`
	AnnualizedReturn float64 `json:"annualizedReturn"`
	SharpeRatio      float64 `json:"sharpeRatio"`
	SortinoRatio     float64 `json:"sortinoRatio"`
	CalmarRatio      float64 `json:"calmarRatio"`

	MaxDrawdown         float64 `json:"maxDrawdown"`
	MaxDrawdownDuration float64 `json:"maxDrawdownDuration"` // days

	TotalTrades   int     `json:"totalTrades"`
	WinningTrades int     `json:"winningTrades"`
	LosingTrades  int     `json:"losingTrades"`
	WinRate       float64 `json:"winRate"`
	ProfitFactor  float64 `json:"profitFactor"`

	AverageWin  decimal.Decimal `json:"averageWin"`
	AverageLoss decimal.Decimal `json:"averageLoss"`
	Expectancy  decimal.Decimal `json:"expectancy"`

	AverageHoldTime time.Duration `json:"averageHoldTime"`
	BestTrade       *Trade        `json:"bestTrade,omitempty"`
	WorstTrade      *Trade        `json:"worstTrade,omitempty"`

	ConsecutiveWins   int     `json:"consecutiveWins"`
	ConsecutiveLosses int     `json:"consecutiveLosses"`
	RecoveryFactor    float64 `json:"recoveryFactor"`
	KellyPercentage   float64 `json:"kellyPercentage"`

	// UlcerIndex is declared for dashboard compatibility but is not
	// computed.
	UlcerIndex float64 `json:"ulcerIndex"`
}

// Summary is the qualitative wrap-up of a run.
type Summary struct {
	StrategyName       string   `json:"strategyName"`
	PeriodLabel        string   `json:"periodLabel"`
	TotalDays          float64  `json:"totalDays"`
	Exposure           float64  `json:"exposureFraction"`
	RiskAdjustedReturn float64  `json:"riskAdjustedReturn"`
	Recommendation     string   `json:"recommendation"`
	Improvements       []string `json:"improvements"`
}

// Result is the in-memory output of one completed run.
type Result struct {
	RunID         string              `json:"runId"`
	Symbol        string              `json:"symbol"`
	Trades        []Trade             `json:"trades"`
	Metrics       *PerformanceMetrics `json:"metrics"`
	EquityCurve   []EquityPoint       `json:"equityCurve"`
	DrawdownCurve []float64           `json:"drawdownCurve"`
	Signals       []Signal            `json:"signals"`
	Summary       Summary             `json:"summary"`
}
