package dataflows

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func testBar(symbol string, date string, close float64, volume int64) MarketBar {
	d, _ := time.Parse("2006-01-02", date)
	price := decimal.NewFromFloat(close)
	return MarketBar{
		Symbol:   symbol,
		Date:     d,
		Open:     price,
		High:     price,
		Low:      price,
		Close:    price,
		AdjClose: price,
		Volume:   volume,
	}
}

func TestCSVStoreRoundTrip(t *testing.T) {
	store := NewCSVStore(t.TempDir())
	in := []MarketBar{
		testBar("NVDA", "2026-03-12", 900.5, 1000),
		testBar("NVDA", "2026-03-13", 912.25, 1200),
	}
	if err := store.SaveBars("NVDA", in); err != nil {
		t.Fatalf("SaveBars: %v", err)
	}

	out, err := store.LoadBars("nvda")
	if err != nil {
		t.Fatalf("LoadBars: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("bars = %d, want 2", len(out))
	}
	if !out[1].Close.Equal(decimal.NewFromFloat(912.25)) {
		t.Fatalf("close = %s", out[1].Close)
	}
	if out[0].Date.After(out[1].Date) {
		t.Fatal("bars must load oldest first")
	}
}

func TestCSVStoreLoadWindow(t *testing.T) {
	store := NewCSVStore(t.TempDir())
	bars := []MarketBar{
		testBar("AAPL", "2026-03-01", 100, 1),
		testBar("AAPL", "2026-03-10", 101, 1),
		testBar("AAPL", "2026-03-14", 102, 1),
	}
	if err := store.SaveBars("AAPL", bars); err != nil {
		t.Fatalf("SaveBars: %v", err)
	}

	asOf, _ := time.Parse("2006-01-02", "2026-03-14")
	window, err := store.LoadWindow("AAPL", asOf, 5)
	if err != nil {
		t.Fatalf("LoadWindow: %v", err)
	}
	if len(window) != 2 {
		t.Fatalf("window = %d bars, want the two inside the range", len(window))
	}
}

func TestCSVStoreMissingSymbol(t *testing.T) {
	store := NewCSVStore(t.TempDir())
	if _, err := store.LoadBars("TSLA"); err == nil {
		t.Fatal("want error for missing offline data")
	}
}

func TestRenderBars(t *testing.T) {
	out := RenderBars([]MarketBar{testBar("NVDA", "2026-03-13", 912.25, 1200)})
	if !strings.Contains(out, "2026-03-13") || !strings.Contains(out, "912.25") {
		t.Fatalf("render missing fields:\n%s", out)
	}
	if RenderBars(nil) != "No price data available." {
		t.Fatal("empty render placeholder wrong")
	}
}

func TestRenderNewsLimit(t *testing.T) {
	articles := []*NewsArticle{
		{Title: "one", Source: "s", PublishedAt: time.Now()},
		{Title: "two", Source: "s", PublishedAt: time.Now()},
		{Title: "three", Source: "s", PublishedAt: time.Now()},
	}
	out := RenderNews(articles, 2)
	if strings.Contains(out, "three") {
		t.Fatal("limit not applied")
	}
	if !strings.Contains(out, "one") || !strings.Contains(out, "two") {
		t.Fatalf("render missing articles:\n%s", out)
	}
}

func TestValidateSymbol(t *testing.T) {
	if err := ValidateSymbol(" nvda "); err != nil {
		t.Fatalf("valid symbol rejected: %v", err)
	}
	if err := ValidateSymbol(""); err == nil {
		t.Fatal("empty symbol accepted")
	}
	if err := ValidateSymbol("WAYTOOLONGSYM"); err == nil {
		t.Fatal("oversized symbol accepted")
	}
}
