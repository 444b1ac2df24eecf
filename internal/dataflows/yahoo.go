package dataflows

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"
	"github.com/shopspring/decimal"
)

// YahooClient serves quotes and daily history from Yahoo Finance.
type YahooClient struct {
	cache *Cache
	retry RetryConfig
}

func NewYahooClient(cacheDir string, cacheEnabled bool) *YahooClient {
	return &YahooClient{
		cache: NewCache(filepath.Join(cacheDir, "yahoo"), 24*time.Hour, cacheEnabled),
		retry: DefaultRetryConfig(),
	}
}

// Quote returns the latest session's bar for a symbol.
func (y *YahooClient) Quote(symbol string) (*MarketBar, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	var cached MarketBar
	if y.cache.Get("yahoo", "quote", symbol, &cached) {
		return &cached, nil
	}

	q, err := quote.Get(symbol)
	if err != nil {
		return nil, fmt.Errorf("quote %s: %w", symbol, err)
	}
	bar := &MarketBar{
		Symbol:   symbol,
		Date:     time.Now().UTC(),
		Open:     decimal.NewFromFloat(q.RegularMarketOpen),
		High:     decimal.NewFromFloat(q.RegularMarketDayHigh),
		Low:      decimal.NewFromFloat(q.RegularMarketDayLow),
		Close:    decimal.NewFromFloat(q.RegularMarketPrice),
		AdjClose: decimal.NewFromFloat(q.RegularMarketPrice),
		Volume:   int64(q.RegularMarketVolume),
	}
	y.cache.Set("yahoo", "quote", symbol, bar)
	return bar, nil
}

// History returns daily bars in [start, end], oldest first.
func (y *YahooClient) History(symbol string, start, end time.Time) ([]MarketBar, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	params := map[string]string{
		"symbol": symbol,
		"start":  start.Format("2006-01-02"),
		"end":    end.Format("2006-01-02"),
	}
	var cached []MarketBar
	if y.cache.Get("yahoo", "history", params, &cached) {
		return cached, nil
	}

	iter := chart.Get(&chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	})
	var bars []MarketBar
	for iter.Next() {
		b := iter.Bar()
		bars = append(bars, MarketBar{
			Symbol:   symbol,
			Date:     time.Unix(int64(b.Timestamp), 0).UTC(),
			Open:     b.Open,
			High:     b.High,
			Low:      b.Low,
			Close:    b.Close,
			AdjClose: b.AdjClose,
			Volume:   int64(b.Volume),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("history %s: %w", symbol, err)
	}

	y.cache.Set("yahoo", "history", params, bars)
	return bars, nil
}

// Window returns the trailing N calendar days of history ending at asOf.
func (y *YahooClient) Window(symbol string, asOf time.Time, days int) ([]MarketBar, error) {
	return y.History(symbol, asOf.AddDate(0, 0, -days), asOf)
}
