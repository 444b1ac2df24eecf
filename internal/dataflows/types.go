// Package dataflows fetches and caches the market data analysts ground
// their proposals in. Every provider degrades gracefully: a failed
// fetch surfaces as an error the caller turns into prompt text, never
// as a crashed run.
package dataflows

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MarketBar is one day of OHLCV data. Prices stay decimal end to end;
// floats only appear at provider boundaries.
type MarketBar struct {
	Symbol   string          `json:"symbol"`
	Date     time.Time       `json:"date"`
	Open     decimal.Decimal `json:"open"`
	High     decimal.Decimal `json:"high"`
	Low      decimal.Decimal `json:"low"`
	Close    decimal.Decimal `json:"close"`
	AdjClose decimal.Decimal `json:"adj_close"`
	Volume   int64           `json:"volume"`
}

// NewsArticle is one normalized news item, whatever the provider.
type NewsArticle struct {
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
}

// RenderBars formats bars as the compact table analysts read in their
// prompts. Bars render oldest first.
func RenderBars(bars []MarketBar) string {
	if len(bars) == 0 {
		return "No price data available."
	}
	var b strings.Builder
	b.WriteString("date        open      high      low       close     volume\n")
	for _, bar := range bars {
		fmt.Fprintf(&b, "%s  %-8s  %-8s  %-8s  %-8s  %d\n",
			bar.Date.Format("2006-01-02"),
			bar.Open.StringFixed(2),
			bar.High.StringFixed(2),
			bar.Low.StringFixed(2),
			bar.Close.StringFixed(2),
			bar.Volume)
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderNews formats articles for prompt consumption, newest first as
// delivered by the provider.
func RenderNews(articles []*NewsArticle, limit int) string {
	if len(articles) == 0 {
		return "No news available."
	}
	if limit > 0 && len(articles) > limit {
		articles = articles[:limit]
	}
	var b strings.Builder
	for _, a := range articles {
		fmt.Fprintf(&b, "[%s] %s (%s)\n", a.PublishedAt.Format("2006-01-02"), a.Title, a.Source)
		if a.Content != "" {
			fmt.Fprintf(&b, "  %s\n", a.Content)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// NormalizeSymbol upper-cases and trims a ticker.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// ValidateSymbol rejects empty or implausibly long tickers before they
// reach a provider.
func ValidateSymbol(symbol string) error {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if len(symbol) > 10 {
		return fmt.Errorf("symbol too long: %s", symbol)
	}
	return nil
}
