package dataflows

import (
	"context"
	"fmt"
	"time"

	"github.com/lumenfin/CouncilGo/internal/agents"
)

// Toolset assembles the market-data capabilities handed to analysts.
// With online access disabled everything price-shaped comes from the
// offline CSV store and news tools are simply absent.
type Toolset struct {
	yahoo      *YahooClient
	finnhub    *FinnhubClient
	scraper    *ArticleScraper
	csv        *CSVStore
	online     bool
	windowDays int
}

func NewToolset(yahoo *YahooClient, finnhub *FinnhubClient, scraper *ArticleScraper, csv *CSVStore, online bool, windowDays int) *Toolset {
	if windowDays <= 0 {
		windowDays = 30
	}
	return &Toolset{
		yahoo:      yahoo,
		finnhub:    finnhub,
		scraper:    scraper,
		csv:        csv,
		online:     online,
		windowDays: windowDays,
	}
}

func parseTradeDate(date string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad trade date %q: %w", date, err)
	}
	return t, nil
}

// PriceHistoryTool serves the trailing price window.
func (t *Toolset) PriceHistoryTool() agents.DataTool {
	return agents.DataTool{
		Name: "price history",
		Fetch: func(ctx context.Context, symbol, date string) (string, error) {
			asOf, err := parseTradeDate(date)
			if err != nil {
				return "", err
			}
			var bars []MarketBar
			if t.online {
				bars, err = t.yahoo.Window(symbol, asOf, t.windowDays)
			} else {
				bars, err = t.csv.LoadWindow(symbol, asOf, t.windowDays)
			}
			if err != nil {
				return "", err
			}
			return RenderBars(bars), nil
		},
	}
}

// QuoteTool serves the latest session bar. Online only.
func (t *Toolset) QuoteTool() agents.DataTool {
	return agents.DataTool{
		Name: "latest quote",
		Fetch: func(_ context.Context, symbol, _ string) (string, error) {
			bar, err := t.yahoo.Quote(symbol)
			if err != nil {
				return "", err
			}
			return RenderBars([]MarketBar{*bar}), nil
		},
	}
}

// scrapeTopArticles is how many headlines get their article body
// fetched and attached before the news reaches a prompt.
const scrapeTopArticles = 3

// CompanyNewsTool serves the trailing week of company news, with the
// top stories enriched by their scraped article bodies.
func (t *Toolset) CompanyNewsTool() agents.DataTool {
	return agents.DataTool{
		Name: "company news",
		Fetch: func(ctx context.Context, symbol, date string) (string, error) {
			asOf, err := parseTradeDate(date)
			if err != nil {
				return "", err
			}
			articles, err := t.finnhub.CompanyNews(ctx, symbol, asOf.AddDate(0, 0, -7), asOf)
			if err != nil {
				return "", err
			}
			t.enrichArticles(ctx, articles)
			return RenderNews(articles, 15), nil
		},
	}
}

// enrichArticles replaces headline-only summaries with scraped bodies
// for the first few stories. A failed scrape keeps the summary.
func (t *Toolset) enrichArticles(ctx context.Context, articles []*NewsArticle) {
	if t.scraper == nil {
		return
	}
	for i, a := range articles {
		if i == scrapeTopArticles {
			break
		}
		scraped, err := t.scraper.Fetch(ctx, a.URL)
		if err != nil || scraped.Content == "" {
			continue
		}
		a.Content = scraped.Content
	}
}

// InsiderSentimentTool serves the trailing quarter of insider
// sentiment rows.
func (t *Toolset) InsiderSentimentTool() agents.DataTool {
	return agents.DataTool{
		Name: "insider sentiment",
		Fetch: func(ctx context.Context, symbol, date string) (string, error) {
			asOf, err := parseTradeDate(date)
			if err != nil {
				return "", err
			}
			rows, err := t.finnhub.InsiderSentiments(ctx, symbol, asOf.AddDate(0, -3, 0), asOf)
			if err != nil {
				return "", err
			}
			if len(rows) == 0 {
				return "No insider sentiment data.", nil
			}
			out := ""
			for _, r := range rows {
				out += fmt.Sprintf("%d-%02d: net change %d, MSPR %s\n", r.Year, r.Month, r.Change, r.MSPR.StringFixed(1))
			}
			return out, nil
		},
	}
}

// ForProfile returns the tool list matching an analyst's specialty.
// Unknown profiles get the price history tool only.
func (t *Toolset) ForProfile(name string) []agents.DataTool {
	switch name {
	case "technical":
		tools := []agents.DataTool{t.PriceHistoryTool()}
		if t.online {
			tools = append(tools, t.QuoteTool())
		}
		return tools
	case "news":
		if t.online {
			return []agents.DataTool{t.CompanyNewsTool()}
		}
		return nil
	case "fundamental":
		tools := []agents.DataTool{t.PriceHistoryTool()}
		if t.online {
			tools = append(tools, t.InsiderSentimentTool())
		}
		return tools
	default:
		return []agents.DataTool{t.PriceHistoryTool()}
	}
}
