package backtest

import (
	"fmt"
	"math"
	"time"

	"github.com/cryptodash/backtest/internal/strategy"
	"github.com/shopspring/decimal"
)

// computeMetrics runs once over the completed trade ledger and equity
// curve. Every ratio that could go non-finite is clamped to 0 instead.
func computeMetrics(params *Parameters, trades []Trade, equityCurve []EquityPoint, closed []strategy.TradeOutcome, finalEquity decimal.Decimal, start, end time.Time) *PerformanceMetrics {
	metrics := &PerformanceMetrics{
		AverageWin:  decimal.Zero,
		AverageLoss: decimal.Zero,
		Expectancy:  decimal.Zero,
	}

	sells := make([]Trade, 0, len(trades)/2)
	for _, trade := range trades {
		if trade.Side == SideSell {
			sells = append(sells, trade)
		}
	}
	if len(sells) == 0 {
		return metrics
	}

	metrics.TotalTrades = len(sells)

	var totalWins, totalLosses decimal.Decimal
	for _, trade := range sells {
		if trade.PnL.IsPositive() {
			metrics.WinningTrades++
			totalWins = totalWins.Add(trade.PnL)
		} else {
			metrics.LosingTrades++
			totalLosses = totalLosses.Add(trade.PnL.Abs())
		}
	}
	metrics.WinRate = float64(metrics.WinningTrades) / float64(metrics.TotalTrades)

	initial := params.InitialCapital
	metrics.TotalReturn = finalEquity.Sub(initial).Div(initial).InexactFloat64()

	days := end.Sub(start).Hours() / 24
	if days > 0 && 1+metrics.TotalReturn > 0 {
		metrics.AnnualizedReturn = clampFinite(math.Pow(1+metrics.TotalReturn, 365/days) - 1)
	}

	if metrics.WinningTrades > 0 {
		metrics.AverageWin = totalWins.Div(decimal.NewFromInt(int64(metrics.WinningTrades)))
	}
	if metrics.LosingTrades > 0 {
		metrics.AverageLoss = totalLosses.Div(decimal.NewFromInt(int64(metrics.LosingTrades)))
	}

	// With no losing trades the profit factor is reported as the raw
	// win sum rather than infinity.
	if totalLosses.IsPositive() {
		metrics.ProfitFactor = totalWins.Div(totalLosses).InexactFloat64()
	} else {
		metrics.ProfitFactor = totalWins.InexactFloat64()
	}

	winRate := decimal.NewFromFloat(metrics.WinRate)
	metrics.Expectancy = winRate.Mul(metrics.AverageWin).
		Sub(decimal.NewFromInt(1).Sub(winRate).Mul(metrics.AverageLoss))

	metrics.MaxDrawdown, metrics.MaxDrawdownDuration = drawdownStats(equityCurve, initial)

	returns := make([]float64, len(equityCurve))
	for i, point := range equityCurve {
		returns[i] = point.CumulativeReturn
	}
	metrics.SharpeRatio = sharpe(metrics.AnnualizedReturn, returns, params.RiskFreeRate, params.AnnualizationFactor)
	metrics.SortinoRatio = sortino(metrics.AnnualizedReturn, returns, params.RiskFreeRate, params.AnnualizationFactor)

	if metrics.MaxDrawdown > 0 {
		metrics.CalmarRatio = clampFinite(metrics.AnnualizedReturn / metrics.MaxDrawdown)
	}

	best, worst := 0, 0
	for i, trade := range sells {
		if trade.PnLPercent > sells[best].PnLPercent {
			best = i
		}
		if trade.PnLPercent < sells[worst].PnLPercent {
			worst = i
		}
	}
	metrics.BestTrade = &sells[best]
	metrics.WorstTrade = &sells[worst]

	metrics.ConsecutiveWins, metrics.ConsecutiveLosses = streaks(sells)
	metrics.AverageHoldTime = averageHoldTime(trades)

	netProfit := finalEquity.Sub(initial).InexactFloat64()
	if metrics.MaxDrawdown > 0 {
		metrics.RecoveryFactor = clampFinite(netProfit / (metrics.MaxDrawdown * initial.InexactFloat64()))
	}

	metrics.KellyPercentage = strategy.KellyFraction(closed)

	return metrics
}

// drawdownStats returns the maximum fractional drawdown and the longest
// peak-to-recovery span in days, both from a single pass with a running
// peak.
func drawdownStats(equityCurve []EquityPoint, initial decimal.Decimal) (float64, float64) {
	peak := initial
	peakTime := time.Time{}
	if len(equityCurve) > 0 {
		peakTime = equityCurve[0].Timestamp
	}

	var maxDrawdown, maxDuration float64
	for _, point := range equityCurve {
		if point.Equity.GreaterThanOrEqual(peak) {
			peak = point.Equity
			peakTime = point.Timestamp
			continue
		}
		if peak.IsPositive() {
			drawdown := peak.Sub(point.Equity).Div(peak).InexactFloat64()
			if drawdown > maxDrawdown {
				maxDrawdown = drawdown
			}
		}
		duration := point.Timestamp.Sub(peakTime).Hours() / 24
		if duration > maxDuration {
			maxDuration = duration
		}
	}

	return maxDrawdown, maxDuration
}

func sharpe(annualizedReturn float64, returns []float64, riskFree, annualization float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	std := stddev(returns)
	if std <= 0 {
		return 0
	}
	return clampFinite((annualizedReturn - riskFree) / (std * math.Sqrt(annualization)))
}

func sortino(annualizedReturn float64, returns []float64, riskFree, annualization float64) float64 {
	var sumSquares float64
	count := 0
	for _, r := range returns {
		if r < 0 {
			sumSquares += r * r
			count++
		}
	}
	if count == 0 {
		return 0
	}
	downside := math.Sqrt(sumSquares / float64(count))
	if downside <= 0 {
		return 0
	}
	return clampFinite((annualizedReturn - riskFree) / (downside * math.Sqrt(annualization)))
}

// streaks returns the longest win and loss run over the closed trades.
// A zero-pnl trade counts as a loss, matching the win definition
// pnl > 0.
func streaks(sells []Trade) (maxWins, maxLosses int) {
	var curWins, curLosses int
	for _, trade := range sells {
		if trade.PnL.IsPositive() {
			curWins++
			curLosses = 0
			if curWins > maxWins {
				maxWins = curWins
			}
		} else {
			curLosses++
			curWins = 0
			if curLosses > maxLosses {
				maxLosses = curLosses
			}
		}
	}
	return maxWins, maxLosses
}

// averageHoldTime pairs each sell with the preceding buy. The ledger
// alternates strictly under the single-position model.
func averageHoldTime(trades []Trade) time.Duration {
	var total time.Duration
	count := 0
	var lastBuy time.Time
	for _, trade := range trades {
		switch trade.Side {
		case SideBuy:
			lastBuy = trade.Timestamp
		case SideSell:
			if !lastBuy.IsZero() {
				total += trade.Timestamp.Sub(lastBuy)
				count++
			}
		}
	}
	if count == 0 {
		return 0
	}
	return total / time.Duration(count)
}

func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var variance float64
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	return math.Sqrt(variance / float64(len(values)))
}

func clampFinite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// buildSummary derives the qualitative wrap-up from the metrics.
func buildSummary(params *Parameters, metrics *PerformanceMetrics, trades []Trade, start, end time.Time) Summary {
	days := end.Sub(start).Hours() / 24

	exposure := 0.0
	sells := 0
	for _, trade := range trades {
		if trade.Side == SideSell {
			exposure += trade.Notional.Div(params.InitialCapital).InexactFloat64()
			sells++
		}
	}
	if sells > 0 {
		exposure /= float64(sells)
	}

	return Summary{
		StrategyName:       params.Strategy.Name,
		PeriodLabel:        fmt.Sprintf("%s ~ %s", start.Format("2006-01-02"), end.Format("2006-01-02")),
		TotalDays:          days,
		Exposure:           exposure,
		RiskAdjustedReturn: metrics.SharpeRatio,
		Recommendation:     recommendation(metrics),
		Improvements:       improvements(metrics),
	}
}

func recommendation(metrics *PerformanceMetrics) string {
	switch {
	case metrics.SharpeRatio > 2 && metrics.WinRate > 0.6:
		return "Excellent strategy - ready to apply in production"
	case metrics.SharpeRatio > 1 && metrics.WinRate > 0.5:
		return "Good strategy - apply after parameter optimization"
	case metrics.ProfitFactor > 1.5:
		return "Profitable - tighten risk management first"
	default:
		return "Needs improvement - rework the strategy"
	}
}

func improvements(metrics *PerformanceMetrics) []string {
	var out []string
	if metrics.WinRate < 0.5 {
		out = append(out, "Improve entry signal precision")
	}
	if metrics.MaxDrawdown > 0.2 {
		out = append(out, "Tighten stops to control maximum drawdown")
	}
	if metrics.ConsecutiveLosses > 5 {
		out = append(out, "Add protection against consecutive losses")
	}
	if metrics.SharpeRatio < 1 {
		out = append(out, "Improve return relative to volatility")
	}
	if metrics.ProfitFactor < 1.5 {
		out = append(out, "Improve win rate or win/loss ratio")
	}
	return out
}
