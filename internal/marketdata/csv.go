package marketdata

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// CSVProvider loads historical bars from a CSV file and presents them
// as a single timeframe group.
// Expected CSV format: timestamp,open,high,low,close,volume.
// The timestamp can be a Unix timestamp (seconds or milliseconds) or an
// RFC3339 / common date string.
type CSVProvider struct {
	Path      string
	Timeframe string
}

// NewCSVProvider creates a CSV-backed provider for the given file.
func NewCSVProvider(path string) *CSVProvider {
	return &CSVProvider{Path: path, Timeframe: "csv"}
}

// HistoricalBars implements Provider.
func (p *CSVProvider) HistoricalBars(_ context.Context, _ string) (map[string][]Bar, error) {
	bars, err := LoadCSV(p.Path)
	if err != nil {
		return nil, err
	}
	tf := p.Timeframe
	if tf == "" {
		tf = "csv"
	}
	return map[string][]Bar{tf: bars}, nil
}

// LoadCSV reads all valid bar records from a CSV file. Invalid rows are
// skipped rather than failing the whole load.
func LoadCSV(filename string) ([]Bar, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)

	// Skip the header row if the file has one.
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if _, err := strconv.ParseFloat(header[1], 64); err == nil {
		// First row is data, start over.
		file.Seek(0, 0)
		reader = csv.NewReader(file)
	}

	bars := make([]Bar, 0)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		if len(record) < 6 {
			continue
		}

		bar, err := parseCSVRecord(record)
		if err != nil {
			continue
		}
		bars = append(bars, bar)
	}

	return bars, nil
}

func parseCSVRecord(record []string) (Bar, error) {
	timestamp, err := parseTimestamp(record[0])
	if err != nil {
		return Bar{}, err
	}

	open, err := decimal.NewFromString(record[1])
	if err != nil {
		return Bar{}, fmt.Errorf("invalid open price: %w", err)
	}
	high, err := decimal.NewFromString(record[2])
	if err != nil {
		return Bar{}, fmt.Errorf("invalid high price: %w", err)
	}
	low, err := decimal.NewFromString(record[3])
	if err != nil {
		return Bar{}, fmt.Errorf("invalid low price: %w", err)
	}
	closePrice, err := decimal.NewFromString(record[4])
	if err != nil {
		return Bar{}, fmt.Errorf("invalid close price: %w", err)
	}
	volume, err := decimal.NewFromString(record[5])
	if err != nil {
		return Bar{}, fmt.Errorf("invalid volume: %w", err)
	}

	return Bar{
		Timestamp: timestamp,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closePrice,
		Volume:    volume,
	}, nil
}

func parseTimestamp(s string) (time.Time, error) {
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil {
		if ts > 10000000000 {
			// Milliseconds
			return time.Unix(ts/1000, (ts%1000)*1000000), nil
		}
		return time.Unix(ts, 0), nil
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}

	formats := []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse timestamp: %s", s)
}
