// Package prices loads reference-asset OHLCV history from CSV and splits it
// into train/validation/test partitions.
package prices

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/kalshigym/internal/domain"
)

// datetimeLayouts are tried in order when no timestamp column is present
var datetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

type columns struct {
	datetime, timestamp, open, high, low, close, volume int
}

// LoadCSV reads a price file with a header row. Columns are matched by name;
// close and one of timestamp (epoch ms) or datetime are required.
func LoadCSV(path string) (*domain.PriceSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open price file: %w", err)
	}
	defer f.Close()

	series, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return series, nil
}

// Read parses CSV price rows from r
func Read(r io.Reader) (*domain.PriceSeries, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, domain.ErrEmptySeries
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	var bars []domain.PriceBar
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read line %d: %w", line, err)
		}

		bar, err := parseBar(record, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bars = append(bars, bar)
	}

	return domain.NewPriceSeries(bars)
}

func resolveColumns(header []string) (columns, error) {
	cols := columns{-1, -1, -1, -1, -1, -1, -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "datetime", "date", "time":
			cols.datetime = i
		case "timestamp":
			cols.timestamp = i
		case "open":
			cols.open = i
		case "high":
			cols.high = i
		case "low":
			cols.low = i
		case "close":
			cols.close = i
		case "volume":
			cols.volume = i
		}
	}

	if cols.close < 0 {
		return cols, errors.New("missing close column")
	}
	if cols.timestamp < 0 && cols.datetime < 0 {
		return cols, errors.New("missing timestamp or datetime column")
	}
	return cols, nil
}

func parseBar(record []string, cols columns) (domain.PriceBar, error) {
	var bar domain.PriceBar

	t, err := parseTime(record, cols)
	if err != nil {
		return bar, err
	}
	bar.Time = t

	if bar.Close, err = parseFloat(record, cols.close, "close"); err != nil {
		return bar, err
	}
	// optional columns default to close (prices) or 0 (volume)
	for _, f := range []struct {
		idx  int
		name string
		dst  *float64
		def  float64
	}{
		{cols.open, "open", &bar.Open, bar.Close},
		{cols.high, "high", &bar.High, bar.Close},
		{cols.low, "low", &bar.Low, bar.Close},
		{cols.volume, "volume", &bar.Volume, 0},
	} {
		if f.idx < 0 {
			*f.dst = f.def
			continue
		}
		if *f.dst, err = parseFloat(record, f.idx, f.name); err != nil {
			return bar, err
		}
	}

	return bar, nil
}

func parseTime(record []string, cols columns) (time.Time, error) {
	if cols.timestamp >= 0 && cols.timestamp < len(record) {
		raw := strings.TrimSpace(record[cols.timestamp])
		if raw != "" {
			ms, err := strconv.ParseInt(raw, 10, 64)
			if err == nil {
				return time.UnixMilli(ms).UTC(), nil
			}
			if cols.datetime < 0 {
				return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", raw, err)
			}
		}
	}

	if cols.datetime < 0 || cols.datetime >= len(record) {
		return time.Time{}, errors.New("missing time value")
	}
	raw := strings.TrimSpace(record[cols.datetime])
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid datetime %q", raw)
}

func parseFloat(record []string, idx int, name string) (float64, error) {
	if idx >= len(record) {
		return 0, fmt.Errorf("missing %s value", name)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(record[idx]), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, record[idx], err)
	}
	return v, nil
}
