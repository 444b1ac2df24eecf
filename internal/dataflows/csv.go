package dataflows

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

var csvHeader = []string{"symbol", "date", "open", "high", "low", "close", "adj_close", "volume"}

// CSVStore reads and writes daily bars as CSV files under
// <base>/market/<SYMBOL>.csv, the offline dataset used when online
// tools are disabled or a provider is down.
type CSVStore struct {
	base string
}

func NewCSVStore(base string) *CSVStore {
	return &CSVStore{base: base}
}

func (s *CSVStore) path(symbol string) string {
	return filepath.Join(s.base, "market", NormalizeSymbol(symbol)+".csv")
}

// SaveBars writes the symbol's full bar history, replacing any
// previous file.
func (s *CSVStore) SaveBars(symbol string, bars []MarketBar) error {
	path := s.path(symbol)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, bar := range bars {
		row := []string{
			bar.Symbol,
			bar.Date.Format("2006-01-02"),
			bar.Open.String(),
			bar.High.String(),
			bar.Low.String(),
			bar.Close.String(),
			bar.AdjClose.String(),
			strconv.FormatInt(bar.Volume, 10),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// LoadBars reads the symbol's stored history, sorted oldest first.
func (s *CSVStore) LoadBars(symbol string) ([]MarketBar, error) {
	f, err := os.Open(s.path(symbol))
	if err != nil {
		return nil, fmt.Errorf("offline data for %s: %w", NormalizeSymbol(symbol), err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s bars: %w", symbol, err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	bars := make([]MarketBar, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) != len(csvHeader) {
			return nil, fmt.Errorf("row %d: %d columns, want %d", i+2, len(row), len(csvHeader))
		}
		date, err := time.Parse("2006-01-02", row[1])
		if err != nil {
			return nil, fmt.Errorf("row %d date: %w", i+2, err)
		}
		bar := MarketBar{Symbol: row[0], Date: date}
		for j, dst := range []*decimal.Decimal{&bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.AdjClose} {
			v, err := decimal.NewFromString(row[2+j])
			if err != nil {
				return nil, fmt.Errorf("row %d col %s: %w", i+2, csvHeader[2+j], err)
			}
			*dst = v
		}
		volume, err := strconv.ParseInt(row[7], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d volume: %w", i+2, err)
		}
		bar.Volume = volume
		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

// LoadWindow returns bars in [asOf-days, asOf] from the offline store.
func (s *CSVStore) LoadWindow(symbol string, asOf time.Time, days int) ([]MarketBar, error) {
	bars, err := s.LoadBars(symbol)
	if err != nil {
		return nil, err
	}
	start := asOf.AddDate(0, 0, -days)
	var out []MarketBar
	for _, bar := range bars {
		if !bar.Date.Before(start) && !bar.Date.After(asOf) {
			out = append(out, bar)
		}
	}
	return out, nil
}
