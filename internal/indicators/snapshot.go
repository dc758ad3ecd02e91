package indicators

import (
	"github.com/cryptodash/backtest/internal/marketdata"
)

// Snapshot maps indicator names to values computed at one bar index.
type Snapshot map[string]float64

// DefaultLookback is the trailing window fed to the indicator
// functions, and doubles as the simulator warm-up length.
const DefaultLookback = 100

// minHistory is the number of bars required before any snapshot is
// computed; earlier indices produce an empty snapshot.
const minHistory = 20

// Indicator set names accepted by Compute.
const (
	SetRSI        = "RSI"
	SetMACD       = "MACD"
	SetBollinger  = "BB"
	SetMovingAvg  = "MA"
	SetATR        = "ATR"
	SetStochastic = "STOCH"
	SetADX        = "ADX"
	SetMFI        = "MFI"
)

// Compute builds the indicator snapshot for the bar at index, using a
// trailing window of at most DefaultLookback prior bars. Only the
// indicator sets named in `names` are computed.
func Compute(bars []marketdata.Bar, index int, names []string) Snapshot {
	snapshot := Snapshot{}
	if index < minHistory || index >= len(bars) {
		return snapshot
	}

	start := index - DefaultLookback
	if start < 0 {
		start = 0
	}
	window := bars[start : index+1]

	closes := make([]float64, len(window))
	highs := make([]float64, len(window))
	lows := make([]float64, len(window))
	volumes := make([]float64, len(window))
	for i, bar := range window {
		closes[i] = bar.Close.InexactFloat64()
		highs[i] = bar.High.InexactFloat64()
		lows[i] = bar.Low.InexactFloat64()
		volumes[i] = bar.Volume.InexactFloat64()
	}

	for _, name := range names {
		switch name {
		case SetRSI:
			snapshot["rsi"] = RSI(closes, RSIPeriod)
		case SetMACD:
			macd, signal, histogram := MACD(closes)
			snapshot["macd"] = macd
			snapshot["macdSignal"] = signal
			snapshot["macdHistogram"] = histogram
		case SetBollinger:
			upper, middle, lower, width := Bollinger(closes, BollingerPeriod, BollingerStdDev)
			snapshot["bbUpper"] = upper
			snapshot["bbMiddle"] = middle
			snapshot["bbLower"] = lower
			snapshot["bbWidth"] = width
		case SetMovingAvg:
			snapshot["sma20"] = SMA(closes, 20)
			snapshot["sma50"] = SMA(closes, 50)
			snapshot["ema12"] = EMA(closes, 12)
			snapshot["ema26"] = EMA(closes, 26)
		case SetATR:
			snapshot["atr"] = ATR(highs, lows, closes, ATRPeriod)
		case SetStochastic:
			k, d := Stochastic(highs, lows, closes, StochasticPeriod, StochasticSmooth)
			snapshot["stochK"] = k
			snapshot["stochD"] = d
		case SetADX:
			snapshot["adx"] = ADX(highs, lows, closes, ADXPeriod)
		case SetMFI:
			snapshot["mfi"] = MFI(highs, lows, closes, volumes, MFIPeriod)
		}
	}

	return snapshot
}

// Clone returns an independent copy of the snapshot, so ledger records
// stay immutable after the engine moves on.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
