package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cryptodash/backtest/internal/backtest"
	"github.com/cryptodash/backtest/internal/logger"
	"github.com/cryptodash/backtest/internal/marketdata"
	"github.com/cryptodash/backtest/internal/strategy"
	"github.com/shopspring/decimal"
)

var (
	dataFile     = flag.String("data", "", "Path to CSV file with historical bars (required)")
	strategyFile = flag.String("strategy", "", "Path to strategy YAML (default: built-in RSI reversion)")
	symbol       = flag.String("symbol", "BTC-USD", "Trading symbol")

	initialCapital = flag.Float64("capital", 10000, "Initial capital")
	feeRate        = flag.Float64("fee", 0.001, "Trading fee rate (e.g., 0.001 for 0.1%)")
	slippageRate   = flag.Float64("slippage", 0.0005, "Slippage rate (e.g., 0.0005 for 0.05%)")
	leverage       = flag.Float64("leverage", 1, "Leverage multiplier applied to position notional")
	startDate      = flag.String("start", "", "Start date (YYYY-MM-DD, default: first bar)")
	endDate        = flag.String("end", "", "End date (YYYY-MM-DD, default: last bar)")

	jsonOutput = flag.Bool("json", false, "Write the full result as JSON instead of the text report")
	verbose    = flag.Bool("verbose", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger.SetDefault(logger.New(&logger.Config{Level: level, Format: "text"}))

	if *dataFile == "" {
		return fmt.Errorf("-data flag is required")
	}

	cfg := strategy.DefaultConfig()
	if *strategyFile != "" {
		var err error
		cfg, err = strategy.LoadConfig(*strategyFile)
		if err != nil {
			return err
		}
	}

	params := backtest.DefaultParameters(*symbol, cfg)
	params.InitialCapital = decimal.NewFromFloat(*initialCapital)
	params.TradingFeeRate = decimal.NewFromFloat(*feeRate)
	params.SlippageRate = decimal.NewFromFloat(*slippageRate)
	params.Leverage = decimal.NewFromFloat(*leverage)

	var err error
	if params.StartDate, err = parseDate(*startDate); err != nil {
		return fmt.Errorf("invalid -start date: %w", err)
	}
	if params.EndDate, err = parseDate(*endDate); err != nil {
		return fmt.Errorf("invalid -end date: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := backtest.NewEngine(params, marketdata.NewCSVProvider(*dataFile))

	startRun := time.Now()
	result, err := engine.Run(ctx)
	if err != nil {
		if errors.Is(err, backtest.ErrCancelled) {
			return fmt.Errorf("backtest interrupted: %w", err)
		}
		return fmt.Errorf("backtest failed: %w", err)
	}
	logger.Info("backtest completed", "elapsed", time.Since(startRun).Round(time.Millisecond).String())

	if *jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Println(backtest.NewReporter().GenerateReport(result))
	return nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}
