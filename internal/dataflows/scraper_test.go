package dataflows

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const articleHTML = `<!DOCTYPE html>
<html><head>
<title>fallback title</title>
<meta property="og:title" content="Nvidia beats estimates">
<meta property="og:site_name" content="Example Wire">
</head><body>
<article>
<p>Short.</p>
<p>Nvidia reported quarterly revenue well above consensus, driven by continued datacenter demand.</p>
<p>Management guided the next quarter above analyst expectations as well, citing backlog.</p>
</article>
</body></html>`

func TestScraperFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(articleHTML))
	}))
	defer srv.Close()

	s := NewArticleScraper(t.TempDir(), false)
	article, err := s.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if article.Title != "Nvidia beats estimates" {
		t.Fatalf("title = %q", article.Title)
	}
	if article.Source != "Example Wire" {
		t.Fatalf("source = %q", article.Source)
	}
	if !strings.Contains(article.Content, "datacenter demand") {
		t.Fatalf("content missing body text:\n%s", article.Content)
	}
	if strings.Contains(article.Content, "Short.") {
		t.Fatal("trivially short paragraphs must be skipped")
	}
}

func TestScraperEmptyURL(t *testing.T) {
	s := NewArticleScraper(t.TempDir(), false)
	if _, err := s.Fetch(context.Background(), "  "); err == nil {
		t.Fatal("empty url must error")
	}
}

func TestCompanyNewsToolScrapesTopStories(t *testing.T) {
	article := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/story" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(articleHTML))
	}))
	defer article.Close()

	news := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"datetime": 1760000000, "headline": "Beat", "source": "wire", "summary": "summary one", "url": "` + article.URL + `/story"},
			{"datetime": 1759990000, "headline": "Guide", "source": "wire", "summary": "summary two", "url": "` + article.URL + `/missing"}
		]`))
	}))
	defer news.Close()

	finnhub := NewFinnhubClient("k", t.TempDir(), false)
	finnhub.SetBaseURL(news.URL)
	scraper := NewArticleScraper(t.TempDir(), false)
	scraper.retry = RetryConfig{MaxRetries: 0, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}

	tool := NewToolset(nil, finnhub, scraper, nil, true, 30).CompanyNewsTool()
	out, err := tool.Fetch(context.Background(), "NVDA", "2026-03-14")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !strings.Contains(out, "datacenter demand") {
		t.Fatalf("top story not enriched with its scraped body:\n%s", out)
	}
	// A failed scrape keeps the provider summary.
	if !strings.Contains(out, "summary two") {
		t.Fatalf("unreachable story lost its summary:\n%s", out)
	}
}

func TestToolsetForProfile(t *testing.T) {
	csv := NewCSVStore(t.TempDir())
	offline := NewToolset(nil, nil, nil, csv, false, 30)

	if tools := offline.ForProfile("news"); len(tools) != 0 {
		t.Fatalf("offline news tools = %d, want none", len(tools))
	}
	if tools := offline.ForProfile("technical"); len(tools) != 1 {
		t.Fatalf("offline technical tools = %d, want price history only", len(tools))
	}

	online := NewToolset(NewYahooClient(t.TempDir(), false), NewFinnhubClient("k", t.TempDir(), false), nil, csv, true, 30)
	if tools := online.ForProfile("technical"); len(tools) != 2 {
		t.Fatalf("online technical tools = %d, want history and quote", len(tools))
	}
	if tools := online.ForProfile("news"); len(tools) != 1 {
		t.Fatalf("online news tools = %d, want company news", len(tools))
	}
}

func TestPriceHistoryToolOffline(t *testing.T) {
	csv := NewCSVStore(t.TempDir())
	if err := csv.SaveBars("NVDA", []MarketBar{testBar("NVDA", "2026-03-13", 912.25, 1200)}); err != nil {
		t.Fatalf("SaveBars: %v", err)
	}
	tool := NewToolset(nil, nil, nil, csv, false, 30).PriceHistoryTool()

	out, err := tool.Fetch(context.Background(), "NVDA", "2026-03-14")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !strings.Contains(out, "912.25") {
		t.Fatalf("tool output missing bar:\n%s", out)
	}

	if _, err := tool.Fetch(context.Background(), "NVDA", "not-a-date"); err == nil {
		t.Fatal("bad trade date must error")
	}
}
