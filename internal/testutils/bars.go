// Package testutils provides shared bar fixtures for testing.
package testutils

import (
	"time"

	"github.com/cryptodash/backtest/internal/marketdata"
	"github.com/shopspring/decimal"
)

// Start is the fixed origin used by the fixtures so tests stay
// deterministic.
var Start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// FlatBars returns n bars with identical open/high/low/close.
func FlatBars(n int, price float64, step time.Duration) []marketdata.Bar {
	p := decimal.NewFromFloat(price)
	bars := make([]marketdata.Bar, n)
	for i := range bars {
		bars[i] = marketdata.Bar{
			Timestamp: Start.Add(time.Duration(i) * step),
			Open:      p,
			High:      p,
			Low:       p,
			Close:     p,
			Volume:    decimal.NewFromInt(1000),
		}
	}
	return bars
}

// BarsFromCloses builds one bar per close with high == low == close,
// so indicator values depend only on the scripted close series.
func BarsFromCloses(closes []float64, step time.Duration) []marketdata.Bar {
	bars := make([]marketdata.Bar, len(closes))
	for i, c := range closes {
		p := decimal.NewFromFloat(c)
		bars[i] = marketdata.Bar{
			Timestamp: Start.Add(time.Duration(i) * step),
			Open:      p,
			High:      p,
			Low:       p,
			Close:     p,
			Volume:    decimal.NewFromInt(1000),
		}
	}
	return bars
}

// TrendBars returns n bars whose close moves by slope each bar from
// base, with a small high/low spread around the close.
func TrendBars(n int, base, slope float64, step time.Duration) []marketdata.Bar {
	bars := make([]marketdata.Bar, n)
	for i := range bars {
		c := base + slope*float64(i)
		close := decimal.NewFromFloat(c)
		bars[i] = marketdata.Bar{
			Timestamp: Start.Add(time.Duration(i) * step),
			Open:      close,
			High:      decimal.NewFromFloat(c * 1.001),
			Low:       decimal.NewFromFloat(c * 0.999),
			Close:     close,
			Volume:    decimal.NewFromInt(1000),
		}
	}
	return bars
}
