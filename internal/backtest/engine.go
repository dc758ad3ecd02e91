package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/cryptodash/backtest/internal/indicators"
	"github.com/cryptodash/backtest/internal/logger"
	"github.com/cryptodash/backtest/internal/marketdata"
	"github.com/cryptodash/backtest/internal/risk"
	"github.com/cryptodash/backtest/internal/strategy"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// warmupBars is the number of bars skipped before any signal is
// evaluated. Equity points are still appended from the first bar.
const warmupBars = indicators.DefaultLookback

// Engine simulates one strategy over one historical bar sequence. Each
// engine owns its run state exclusively; concurrent runs need
// independent instances.
type Engine struct {
	params    *Parameters
	provider  marketdata.Provider
	evaluator *strategy.Evaluator
	sizer     *strategy.Sizer
	gate      *risk.Gate

	runID string
	log   *logger.Logger

	// Run state
	bars         []marketdata.Bar
	trades       []Trade
	signals      []Signal
	equityCurve  []EquityPoint
	closed       []strategy.TradeOutcome
	prevSnapshot indicators.Snapshot
}

// runState is the part of the simulation state threaded through the
// per-bar step function.
type runState struct {
	Equity     decimal.Decimal
	PeakEquity decimal.Decimal
	Position   *Position
}

// stepEvents is everything one bar step emitted.
type stepEvents struct {
	Trades   []Trade
	Signals  []Signal
	Point    EquityPoint
	Snapshot indicators.Snapshot
}

// NewEngine creates an engine for the given parameters and data
// provider.
func NewEngine(params *Parameters, provider marketdata.Provider) *Engine {
	runID := uuid.New().String()
	return &Engine{
		params:    params,
		provider:  provider,
		evaluator: strategy.NewEvaluator(params.Strategy),
		sizer:     strategy.NewSizer(params.Strategy),
		gate:      risk.NewGate(params.Strategy.RiskManagement),
		runID:     runID,
		log:       logger.Component("backtest").Symbol(params.Symbol).Run(runID),
	}
}

// Run fetches and prepares the historical bars, then simulates them
// bar by bar. It fails with DataLoadError when no usable bars exist,
// and with ErrCancelled when the context is cancelled mid-run; neither
// produces a partial result.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	groups, err := e.provider.HistoricalBars(ctx, e.params.Symbol)
	if err != nil {
		e.log.WithError(err).Error("historical data fetch failed")
		return nil, &DataLoadError{Symbol: e.params.Symbol, Err: err}
	}

	e.bars = marketdata.Prepare(groups, e.params.StartDate, e.params.EndDate)
	if len(e.bars) == 0 {
		e.log.Error("no bars in requested range")
		return nil, &DataLoadError{Symbol: e.params.Symbol}
	}

	e.log.Info("run started",
		"strategy", e.params.Strategy.Name,
		"bars", len(e.bars),
		"initial_capital", e.params.InitialCapital.String())

	state := runState{
		Equity:     e.params.InitialCapital,
		PeakEquity: e.params.InitialCapital,
	}

	for i := range e.bars {
		// Cooperative cancellation, polled once per bar.
		select {
		case <-ctx.Done():
			e.log.Warn("run cancelled", "bar", i)
			return nil, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
		default:
		}

		e.gate.Advance(e.bars[i].Timestamp, state.Equity)

		var events stepEvents
		state, events = e.step(state, i)

		for _, trade := range events.Trades {
			e.trades = append(e.trades, trade)
			if trade.Side == SideSell {
				e.gate.RecordTrade(trade.PnL)
				e.closed = append(e.closed, strategy.TradeOutcome{
					PnL:        trade.PnL,
					PnLPercent: trade.PnLPercent,
				})
			}
		}
		e.signals = append(e.signals, events.Signals...)
		e.equityCurve = append(e.equityCurve, events.Point)
		e.prevSnapshot = events.Snapshot
	}

	result := e.buildResult(state)
	e.log.Info("run finished",
		"trades", result.Metrics.TotalTrades,
		"total_return", result.Metrics.TotalReturn,
		"max_drawdown", result.Metrics.MaxDrawdown)
	return result, nil
}

// step advances the simulation by one bar: computes the indicator
// snapshot, applies entry/exit decisions, and appends an equity point.
// It reads the prior bar's snapshot and the ledger history from the
// engine but mutates nothing on it, so a single bar transition can be
// exercised in isolation.
func (e *Engine) step(st runState, i int) (runState, stepEvents) {
	bar := e.bars[i]
	var events stepEvents

	snapshot := indicators.Snapshot{}
	if i >= warmupBars {
		snapshot = indicators.Compute(e.bars, i, e.params.Strategy.Indicators)
	}
	events.Snapshot = snapshot

	if st.Position == nil {
		if i >= warmupBars && len(snapshot) > 0 && st.Equity.IsPositive() {
			st = e.tryEnter(st, i, snapshot, &events)
		}
	} else {
		st.Position.MaxPrice = decimal.Max(st.Position.MaxPrice, bar.High)

		view := strategy.PositionView{
			EntryPrice: st.Position.EntryPrice.InexactFloat64(),
			MaxPrice:   st.Position.MaxPrice.InexactFloat64(),
			BarsHeld:   i - st.Position.EntryIndex,
		}
		decision := e.evaluator.CheckExit(view, bar.Close.InexactFloat64(), snapshot)
		if decision.Exit {
			st = e.closePosition(st, i, decision.Reason, snapshot, &events)
		}
	}

	// End of data: realize whatever is still open so the ledger and
	// metrics cover the whole run.
	if st.Position != nil && i == len(e.bars)-1 {
		st = e.closePosition(st, i, "end_of_data", snapshot, &events)
	}

	// Drawdown is measured against the peak before this bar, exactly as
	// the running pass of the metrics stage does.
	drawdown := 0.0
	if st.PeakEquity.IsPositive() {
		drawdown = st.PeakEquity.Sub(st.Equity).Div(st.PeakEquity).InexactFloat64()
		if drawdown < 0 {
			drawdown = 0
		}
	}
	st.PeakEquity = decimal.Max(st.PeakEquity, st.Equity)

	events.Point = EquityPoint{
		Timestamp:        bar.Timestamp,
		Equity:           st.Equity,
		Drawdown:         drawdown,
		CumulativeReturn: st.Equity.Sub(e.params.InitialCapital).Div(e.params.InitialCapital).InexactFloat64(),
	}

	return st, events
}

// tryEnter runs the entry vote, the risk gate and the sizer, and opens
// a position when all of them agree.
func (e *Engine) tryEnter(st runState, i int, snapshot indicators.Snapshot, events *stepEvents) runState {
	bar := e.bars[i]

	decision := e.evaluator.CheckEntry(snapshot, e.prevSnapshot)
	if !decision.Enter {
		return st
	}

	if ok, reason := e.gate.CanEnter(st.Equity, st.PeakEquity); !ok {
		e.log.Debug("entry blocked by risk gate", "reason", reason, "bar", i)
		return st
	}

	notional := e.sizer.Notional(st.Equity, bar.Close, snapshot["atr"], e.closed, e.params.Leverage)
	if !notional.IsPositive() {
		return st
	}

	slippage := bar.Close.Mul(e.params.SlippageRate)
	fillPrice := bar.Close.Add(slippage)
	quantity := notional.Div(fillPrice)
	fee := notional.Mul(e.params.TradingFeeRate)

	st.Equity = st.Equity.Sub(fee)
	st.Position = &Position{
		EntryPrice: fillPrice,
		EntryTime:  bar.Timestamp,
		EntryIndex: i,
		Quantity:   quantity,
		Notional:   notional,
		EntryFee:   fee,
		MaxPrice:   bar.Close,
	}

	trade := Trade{
		ID:          fmt.Sprintf("trade_%d", len(e.trades)+len(events.Trades)+1),
		Timestamp:   bar.Timestamp,
		Side:        SideBuy,
		Price:       fillPrice,
		Quantity:    quantity,
		Notional:    notional,
		Fee:         fee,
		Slippage:    slippage,
		PnL:         decimal.Zero,
		RunningPnL:  st.Equity.Sub(e.params.InitialCapital),
		EquityAfter: st.Equity,
		Indicators:  snapshot.Clone(),
		Signal:      "ENTRY",
	}
	events.Trades = append(events.Trades, trade)
	events.Signals = append(events.Signals, Signal{
		Timestamp:  bar.Timestamp,
		Type:       SignalEntry,
		Direction:  "long",
		Strength:   decision.Strength,
		Indicators: snapshot.Clone(),
		Reasoning:  decision.Reasons,
	})

	e.log.Debug("position opened",
		"bar", i,
		"price", fillPrice.String(),
		"notional", notional.String(),
		"strength", decision.Strength)

	return st
}

// closePosition realizes the open position at the bar's close. The
// trade pnl nets the entry notional and both leg fees, so the equity
// after the close equals the equity before the entry plus the pnl.
func (e *Engine) closePosition(st runState, i int, reason string, snapshot indicators.Snapshot, events *stepEvents) runState {
	bar := e.bars[i]
	pos := st.Position

	exitNotional := pos.Quantity.Mul(bar.Close)
	fee := exitNotional.Mul(e.params.TradingFeeRate)
	slippage := bar.Close.Mul(e.params.SlippageRate)
	exitPrice := bar.Close.Sub(slippage)

	pnl := exitNotional.Sub(pos.Notional).Sub(pos.EntryFee).Sub(fee)
	pnlPercent := 0.0
	if pos.Notional.IsPositive() {
		pnlPercent = pnl.Div(pos.Notional).InexactFloat64()
	}

	st.Equity = st.Equity.Add(exitNotional.Sub(pos.Notional)).Sub(fee)
	st.Position = nil

	trade := Trade{
		ID:          fmt.Sprintf("trade_%d", len(e.trades)+len(events.Trades)+1),
		Timestamp:   bar.Timestamp,
		Side:        SideSell,
		Price:       exitPrice,
		Quantity:    pos.Quantity,
		Notional:    exitNotional,
		Fee:         fee,
		Slippage:    slippage,
		PnL:         pnl,
		PnLPercent:  pnlPercent,
		RunningPnL:  st.Equity.Sub(e.params.InitialCapital),
		EquityAfter: st.Equity,
		Indicators:  snapshot.Clone(),
		Signal:      "EXIT",
		ExitReason:  reason,
	}
	events.Trades = append(events.Trades, trade)
	events.Signals = append(events.Signals, Signal{
		Timestamp:  bar.Timestamp,
		Type:       SignalExit,
		Direction:  "long",
		Strength:   1.0,
		Indicators: snapshot.Clone(),
		Reasoning:  []string{reason},
	})

	e.log.Debug("position closed",
		"bar", i,
		"reason", reason,
		"pnl", pnl.String(),
		"equity", st.Equity.String())

	return st
}

// buildResult assembles the final result object.
func (e *Engine) buildResult(st runState) *Result {
	start, end := e.runRange()

	metrics := computeMetrics(e.params, e.trades, e.equityCurve, e.closed, st.Equity, start, end)

	drawdownCurve := make([]float64, len(e.equityCurve))
	for i, point := range e.equityCurve {
		drawdownCurve[i] = point.Drawdown
	}

	return &Result{
		RunID:         e.runID,
		Symbol:        e.params.Symbol,
		Trades:        e.trades,
		Metrics:       metrics,
		EquityCurve:   e.equityCurve,
		DrawdownCurve: drawdownCurve,
		Signals:       e.signals,
		Summary:       buildSummary(e.params, metrics, e.trades, start, end),
	}
}

// runRange resolves the period used for annualization and the summary
// label: the configured dates when set, otherwise the bar range.
func (e *Engine) runRange() (time.Time, time.Time) {
	start := e.params.StartDate
	end := e.params.EndDate
	if start.IsZero() {
		start = e.bars[0].Timestamp
	}
	if end.IsZero() {
		end = e.bars[len(e.bars)-1].Timestamp
	}
	return start, end
}
