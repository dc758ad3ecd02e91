package backtest

import (
	"fmt"
	"strings"
	"time"
)

// Reporter renders a result as a formatted text report.
type Reporter struct{}

// NewReporter creates a new reporter.
func NewReporter() *Reporter {
	return &Reporter{}
}

// GenerateReport generates a formatted text report for a completed run.
func (r *Reporter) GenerateReport(result *Result) string {
	var sb strings.Builder
	metrics := result.Metrics

	sb.WriteString("═══════════════════════════════════════════════════════\n")
	sb.WriteString("           BACKTEST PERFORMANCE REPORT\n")
	sb.WriteString("═══════════════════════════════════════════════════════\n\n")

	sb.WriteString(fmt.Sprintf("Strategy:             %s\n", result.Summary.StrategyName))
	sb.WriteString(fmt.Sprintf("Symbol:               %s\n", result.Symbol))
	sb.WriteString(fmt.Sprintf("Period:               %s (%.0f days)\n\n",
		result.Summary.PeriodLabel, result.Summary.TotalDays))

	sb.WriteString("📊 PERFORMANCE\n")
	sb.WriteString("───────────────────────────────────────────────────────\n")
	sb.WriteString(fmt.Sprintf("Total Return:         %.2f%%\n", metrics.TotalReturn*100))
	sb.WriteString(fmt.Sprintf("Annualized Return:    %.2f%%\n", metrics.AnnualizedReturn*100))
	sb.WriteString(fmt.Sprintf("Max Drawdown:         %.2f%%\n", metrics.MaxDrawdown*100))
	sb.WriteString(fmt.Sprintf("Sharpe Ratio:         %.2f\n", metrics.SharpeRatio))
	sb.WriteString(fmt.Sprintf("Sortino Ratio:        %.2f\n", metrics.SortinoRatio))
	sb.WriteString(fmt.Sprintf("Calmar Ratio:         %.2f\n\n", metrics.CalmarRatio))

	sb.WriteString("📈 TRADE STATISTICS\n")
	sb.WriteString("───────────────────────────────────────────────────────\n")
	sb.WriteString(fmt.Sprintf("Total Trades:         %d\n", metrics.TotalTrades))
	sb.WriteString(fmt.Sprintf("Winning Trades:       %d\n", metrics.WinningTrades))
	sb.WriteString(fmt.Sprintf("Losing Trades:        %d\n", metrics.LosingTrades))
	sb.WriteString(fmt.Sprintf("Win Rate:             %.2f%%\n", metrics.WinRate*100))
	sb.WriteString(fmt.Sprintf("Profit Factor:        %.2f\n", metrics.ProfitFactor))
	sb.WriteString(fmt.Sprintf("Expectancy:           $%s\n", metrics.Expectancy.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("Avg Win:              $%s\n", metrics.AverageWin.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("Avg Loss:             $%s\n", metrics.AverageLoss.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("Max Win Streak:       %d\n", metrics.ConsecutiveWins))
	sb.WriteString(fmt.Sprintf("Max Loss Streak:      %d\n", metrics.ConsecutiveLosses))
	sb.WriteString(fmt.Sprintf("Avg Hold Time:        %s\n\n", formatDuration(metrics.AverageHoldTime)))

	sb.WriteString("💡 ASSESSMENT\n")
	sb.WriteString("───────────────────────────────────────────────────────\n")
	sb.WriteString(fmt.Sprintf("Recommendation:       %s\n", result.Summary.Recommendation))
	for _, improvement := range result.Summary.Improvements {
		sb.WriteString(fmt.Sprintf("  - %s\n", improvement))
	}
	sb.WriteString("\n")

	if len(result.Trades) > 0 {
		sb.WriteString("📋 RECENT TRADES (Last 10)\n")
		sb.WriteString("───────────────────────────────────────────────────────\n")
		start := len(result.Trades) - 10
		if start < 0 {
			start = 0
		}
		for _, trade := range result.Trades[start:] {
			line := fmt.Sprintf("%s  %-4s  price=%s  qty=%s",
				trade.Timestamp.Format("2006-01-02 15:04"),
				trade.Side,
				trade.Price.StringFixed(2),
				trade.Quantity.StringFixed(6))
			if trade.Side == SideSell {
				line += fmt.Sprintf("  pnl=%s (%s)", trade.PnL.StringFixed(2), trade.ExitReason)
			}
			sb.WriteString(line + "\n")
		}
	}

	sb.WriteString("═══════════════════════════════════════════════════════\n")
	return sb.String()
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "n/a"
	}
	return d.Round(time.Minute).String()
}
