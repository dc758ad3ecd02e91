// Package marketdata holds the historical bar model and the data
// preparation step that feeds the backtest engine.
package marketdata

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Bar is one OHLCV candle at a fixed time resolution. Bars are
// immutable once ingested.
type Bar struct {
	Timestamp time.Time       `json:"timestamp"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    decimal.Decimal `json:"volume"`
}

// Provider is the historical data collaborator. Implementations return
// bars grouped by timeframe; the engine merges, sorts, deduplicates and
// range-filters the groups before simulating.
type Provider interface {
	HistoricalBars(ctx context.Context, symbol string) (map[string][]Bar, error)
}
