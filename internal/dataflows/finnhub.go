package dataflows

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

const finnhubBaseURL = "https://finnhub.io/api/v1"

// FinnhubClient serves company news and insider sentiment from the
// Finnhub REST API.
type FinnhubClient struct {
	client *resty.Client
	cache  *Cache
	retry  RetryConfig
	apiKey string
}

func NewFinnhubClient(apiKey, cacheDir string, cacheEnabled bool) *FinnhubClient {
	client := resty.New().
		SetBaseURL(finnhubBaseURL).
		SetTimeout(30 * time.Second)
	return &FinnhubClient{
		client: client,
		cache:  NewCache(filepath.Join(cacheDir, "finnhub"), 6*time.Hour, cacheEnabled),
		retry:  DefaultRetryConfig(),
		apiKey: apiKey,
	}
}

// SetBaseURL overrides the API endpoint, used by tests.
func (f *FinnhubClient) SetBaseURL(url string) { f.client.SetBaseURL(url) }

type finnhubNewsItem struct {
	DateTime int64  `json:"datetime"`
	Headline string `json:"headline"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}

// CompanyNews returns articles about a symbol in [from, to].
func (f *FinnhubClient) CompanyNews(ctx context.Context, symbol string, from, to time.Time) ([]*NewsArticle, error) {
	if f.apiKey == "" {
		return nil, fmt.Errorf("finnhub api key not configured")
	}
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	params := map[string]string{
		"symbol": symbol,
		"from":   from.Format("2006-01-02"),
		"to":     to.Format("2006-01-02"),
	}
	var cached []*NewsArticle
	if f.cache.Get("finnhub", "company_news", params, &cached) {
		return cached, nil
	}

	var articles []*NewsArticle
	err := WithRetry(ctx, f.retry, func() error {
		resp, err := f.client.R().
			SetContext(ctx).
			SetQueryParams(params).
			SetQueryParam("token", f.apiKey).
			Get("/company-news")
		if err != nil {
			return fmt.Errorf("fetch company news for %s: %w", symbol, err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("finnhub returned %d: %s", resp.StatusCode(), resp.String())
		}
		var items []finnhubNewsItem
		if err := json.Unmarshal(resp.Body(), &items); err != nil {
			return fmt.Errorf("parse company news: %w", err)
		}
		articles = make([]*NewsArticle, 0, len(items))
		for _, item := range items {
			articles = append(articles, &NewsArticle{
				Title:       item.Headline,
				Content:     item.Summary,
				URL:         item.URL,
				Source:      item.Source,
				PublishedAt: time.Unix(item.DateTime, 0).UTC(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	f.cache.Set("finnhub", "company_news", params, articles)
	return articles, nil
}

// InsiderSentiment is Finnhub's monthly aggregate of insider buying
// pressure. MSPR runs -100 (heavy selling) to 100 (heavy buying).
type InsiderSentiment struct {
	Symbol string          `json:"symbol"`
	Year   int             `json:"year"`
	Month  int             `json:"month"`
	Change int64           `json:"change"`
	MSPR   decimal.Decimal `json:"mspr"`
}

// InsiderSentiments returns monthly insider sentiment rows in [from, to].
func (f *FinnhubClient) InsiderSentiments(ctx context.Context, symbol string, from, to time.Time) ([]InsiderSentiment, error) {
	if f.apiKey == "" {
		return nil, fmt.Errorf("finnhub api key not configured")
	}
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	params := map[string]string{
		"symbol": symbol,
		"from":   from.Format("2006-01-02"),
		"to":     to.Format("2006-01-02"),
	}
	var cached []InsiderSentiment
	if f.cache.Get("finnhub", "insider_sentiment", params, &cached) {
		return cached, nil
	}

	var rows []InsiderSentiment
	err := WithRetry(ctx, f.retry, func() error {
		resp, err := f.client.R().
			SetContext(ctx).
			SetQueryParams(params).
			SetQueryParam("token", f.apiKey).
			Get("/stock/insider-sentiment")
		if err != nil {
			return fmt.Errorf("fetch insider sentiment for %s: %w", symbol, err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("finnhub returned %d: %s", resp.StatusCode(), resp.String())
		}
		var payload struct {
			Data []struct {
				Symbol string  `json:"symbol"`
				Year   int     `json:"year"`
				Month  int     `json:"month"`
				Change int64   `json:"change"`
				MSPR   float64 `json:"mspr"`
			} `json:"data"`
		}
		if err := json.Unmarshal(resp.Body(), &payload); err != nil {
			return fmt.Errorf("parse insider sentiment: %w", err)
		}
		rows = make([]InsiderSentiment, 0, len(payload.Data))
		for _, d := range payload.Data {
			rows = append(rows, InsiderSentiment{
				Symbol: d.Symbol,
				Year:   d.Year,
				Month:  d.Month,
				Change: d.Change,
				MSPR:   decimal.NewFromFloat(d.MSPR),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	f.cache.Set("finnhub", "insider_sentiment", params, rows)
	return rows, nil
}
