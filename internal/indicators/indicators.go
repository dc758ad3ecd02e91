// Package indicators computes technical indicator values from a
// trailing window of bars.
//
// Every function returns a documented neutral default instead of an
// error when the window does not yet hold enough history. Those
// defaults are load-bearing: they decide which bars can trigger signals
// during warm-up and must stay stable for reproducibility.
package indicators

import "math"

// Standard periods used by the snapshot builder.
const (
	RSIPeriod        = 14
	MACDFastPeriod   = 12
	MACDSlowPeriod   = 26
	MACDSignalPeriod = 9
	BollingerPeriod  = 20
	BollingerStdDev  = 2.0
	ATRPeriod        = 14
	StochasticPeriod = 14
	StochasticSmooth = 3
	ADXPeriod        = 14
	MFIPeriod        = 14
)

// RSI returns the Relative Strength Index over the last `period`
// deltas, using simple averages of gains and losses. Returns 50 when
// fewer than period+1 closes exist, and 100 when the average loss is
// zero.
func RSI(closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period+1 {
		return 50
	}

	var gains, losses float64
	for i := len(closes) - period; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains += change
		} else {
			losses += math.Abs(change)
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// SMA returns the simple moving average of the last `period` values.
// With fewer values than the period it degrades to the last value.
func SMA(values []float64, period int) float64 {
	if len(values) == 0 {
		return 0
	}
	if period <= 0 || len(values) < period {
		return values[len(values)-1]
	}

	sum := 0.0
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return sum / float64(period)
}

// EMA returns the exponential moving average seeded with the simple
// average of the first `period` values and smoothed with 2/(period+1).
// With fewer values than the period it degrades to the plain mean.
func EMA(values []float64, period int) float64 {
	if len(values) == 0 {
		return 0
	}
	if period <= 0 || len(values) < period {
		return mean(values)
	}

	multiplier := 2.0 / float64(period+1)
	ema := mean(values[:period])
	for i := period; i < len(values); i++ {
		ema = (values[i]-ema)*multiplier + ema
	}
	return ema
}

// emaSeries returns the full EMA series aligned to values[period-1:],
// seeded with the simple average of the first period values.
func emaSeries(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}

	result := make([]float64, 0, len(values)-period+1)
	multiplier := 2.0 / float64(period+1)

	ema := mean(values[:period])
	result = append(result, ema)
	for i := period; i < len(values); i++ {
		ema = (values[i]-ema)*multiplier + ema
		result = append(result, ema)
	}
	return result
}

// MACD returns the MACD line (EMA12 − EMA26), the signal line (EMA9 of
// the MACD series) and the histogram (MACD − signal). With fewer closes
// than the slow period the signal collapses onto the MACD line and the
// histogram is zero.
func MACD(closes []float64) (macd, signal, histogram float64) {
	if len(closes) < MACDSlowPeriod {
		m := EMA(closes, MACDFastPeriod) - EMA(closes, MACDSlowPeriod)
		return m, m, 0
	}

	fast := emaSeries(closes, MACDFastPeriod)
	slow := emaSeries(closes, MACDSlowPeriod)
	offset := len(fast) - len(slow)

	line := make([]float64, len(slow))
	for i := range slow {
		line[i] = fast[i+offset] - slow[i]
	}
	macd = line[len(line)-1]

	if len(line) < MACDSignalPeriod {
		signal = mean(line)
	} else {
		sig := emaSeries(line, MACDSignalPeriod)
		signal = sig[len(sig)-1]
	}
	return macd, signal, macd - signal
}

// Bollinger returns the Bollinger Bands over the last `period` closes:
// middle is the SMA, upper/lower are middle ± k·stddev, width is the
// full band span relative to the middle.
func Bollinger(closes []float64, period int, k float64) (upper, middle, lower, width float64) {
	if len(closes) == 0 {
		return 0, 0, 0, 0
	}

	middle = SMA(closes, period)

	window := closes
	if period > 0 && len(closes) > period {
		window = closes[len(closes)-period:]
	}
	variance := 0.0
	for _, price := range window {
		diff := price - middle
		variance += diff * diff
	}
	variance /= float64(len(window))
	std := math.Sqrt(variance)

	upper = middle + std*k
	lower = middle - std*k
	if middle != 0 {
		width = (std * k * 2) / middle
	}
	return upper, middle, lower, width
}

// ATR returns the average true range: the SMA of true ranges over the
// last `period` bars, where true range is
// max(high−low, |high−prevClose|, |low−prevClose|). Returns 0 when
// fewer than period+1 bars exist.
func ATR(highs, lows, closes []float64, period int) float64 {
	if period <= 0 || len(highs) < period+1 || len(lows) < period+1 || len(closes) < period+1 {
		return 0
	}

	trueRanges := make([]float64, 0, len(highs)-1)
	for i := 1; i < len(highs); i++ {
		trueRanges = append(trueRanges, trueRange(highs[i], lows[i], closes[i-1]))
	}
	return SMA(trueRanges, period)
}

// Stochastic returns %K over the last `period` bars and %D as the
// smoothed average of the most recent `smooth` %K values. A zero
// high-low range yields the neutral 50.
func Stochastic(highs, lows, closes []float64, period, smooth int) (k, d float64) {
	if period <= 0 || len(highs) == 0 || len(lows) == 0 || len(closes) == 0 {
		return 50, 50
	}

	k = stochasticK(highs, lows, closes, period, len(closes)-1)

	if smooth <= 1 {
		return k, k
	}
	sum := 0.0
	count := 0
	for i := len(closes) - 1; i >= 0 && count < smooth; i-- {
		sum += stochasticK(highs, lows, closes, period, i)
		count++
	}
	d = sum / float64(count)
	return k, d
}

// stochasticK computes raw %K for the window of `period` bars ending at
// index i.
func stochasticK(highs, lows, closes []float64, period, i int) float64 {
	start := i - period + 1
	if start < 0 {
		start = 0
	}

	highest := highs[start]
	lowest := lows[start]
	for j := start + 1; j <= i; j++ {
		if highs[j] > highest {
			highest = highs[j]
		}
		if lows[j] < lowest {
			lowest = lows[j]
		}
	}

	if highest == lowest {
		return 50
	}
	return (closes[i] - lowest) / (highest - lowest) * 100
}

// ADX returns the directional movement index: |+DI − −DI| / (+DI + −DI)
// × 100, with the directional indicators normalized by ATR. Returns 0
// when history is insufficient or the market shows no range.
func ADX(highs, lows, closes []float64, period int) float64 {
	if period <= 0 || len(highs) < period+1 {
		return 0
	}

	plusDM := make([]float64, 0, len(highs)-1)
	minusDM := make([]float64, 0, len(highs)-1)
	tr := make([]float64, 0, len(highs)-1)

	for i := 1; i < len(highs); i++ {
		highDiff := highs[i] - highs[i-1]
		lowDiff := lows[i-1] - lows[i]

		if highDiff > lowDiff && highDiff > 0 {
			plusDM = append(plusDM, highDiff)
		} else {
			plusDM = append(plusDM, 0)
		}
		if lowDiff > highDiff && lowDiff > 0 {
			minusDM = append(minusDM, lowDiff)
		} else {
			minusDM = append(minusDM, 0)
		}

		tr = append(tr, trueRange(highs[i], lows[i], closes[i-1]))
	}

	atr := SMA(tr, period)
	if atr == 0 {
		return 0
	}

	plusDI := SMA(plusDM, period) / atr * 100
	minusDI := SMA(minusDM, period) / atr * 100
	if plusDI+minusDI == 0 {
		return 0
	}
	return math.Abs(plusDI-minusDI) / (plusDI + minusDI) * 100
}

// MFI returns the Money Flow Index over the last `period` bars: the
// ratio of positive to negative typical-price money flow. Returns 50
// when fewer than period+1 bars exist, and 100 when there is no
// negative flow.
func MFI(highs, lows, closes, volumes []float64, period int) float64 {
	if period <= 0 || len(closes) < period+1 {
		return 50
	}

	typical := make([]float64, len(closes))
	flows := make([]float64, len(closes))
	for i := range closes {
		tp := (highs[i] + lows[i] + closes[i]) / 3
		typical[i] = tp
		flows[i] = tp * volumes[i]
	}

	var positive, negative float64
	for i := len(closes) - period; i < len(closes); i++ {
		if typical[i] > typical[i-1] {
			positive += flows[i]
		} else {
			negative += flows[i]
		}
	}

	if negative == 0 {
		return 100
	}
	ratio := positive / negative
	return 100 - (100 / (1 + ratio))
}

func trueRange(high, low, prevClose float64) float64 {
	tr := high - low
	if hc := math.Abs(high - prevClose); hc > tr {
		tr = hc
	}
	if lc := math.Abs(low - prevClose); lc > tr {
		tr = lc
	}
	return tr
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
