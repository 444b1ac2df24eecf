package dataflows

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// ArticleScraper fetches a news article page and extracts its headline
// and body text. It is the last-resort news source when no API covers
// a story the analysts were pointed at.
type ArticleScraper struct {
	client *resty.Client
	cache  *Cache
	retry  RetryConfig
}

func NewArticleScraper(cacheDir string, cacheEnabled bool) *ArticleScraper {
	client := resty.New().
		SetTimeout(30*time.Second).
		SetHeader("User-Agent", "Mozilla/5.0 (compatible; CouncilGo/1.0)")
	return &ArticleScraper{
		client: client,
		cache:  NewCache(filepath.Join(cacheDir, "scraper"), 2*time.Hour, cacheEnabled),
		retry:  DefaultRetryConfig(),
	}
}

// Fetch downloads and parses one article URL.
func (s *ArticleScraper) Fetch(ctx context.Context, url string) (*NewsArticle, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("article url cannot be empty")
	}

	var cached NewsArticle
	if s.cache.Get("scraper", "article", url, &cached) {
		return &cached, nil
	}

	var article *NewsArticle
	err := WithRetry(ctx, s.retry, func() error {
		resp, err := s.client.R().SetContext(ctx).Get(url)
		if err != nil {
			return fmt.Errorf("fetch article: %w", err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("article fetch returned %d", resp.StatusCode())
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
		if err != nil {
			return fmt.Errorf("parse article html: %w", err)
		}
		article = extractArticle(doc, url)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Set("scraper", "article", url, article)
	return article, nil
}

// extractArticle pulls the headline from og:title or the first h1 and
// the body from paragraph text. Pages vary wildly; the result is best
// effort and may be short.
func extractArticle(doc *goquery.Document, url string) *NewsArticle {
	title, _ := doc.Find(`meta[property="og:title"]`).Attr("content")
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	var paragraphs []string
	doc.Find("article p, main p, p").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if len(text) > 40 {
			paragraphs = append(paragraphs, whitespaceRun.ReplaceAllString(text, " "))
		}
		return len(paragraphs) < 10
	})

	source, _ := doc.Find(`meta[property="og:site_name"]`).Attr("content")

	return &NewsArticle{
		Title:       title,
		Content:     strings.Join(paragraphs, "\n"),
		URL:         url,
		Source:      source,
		PublishedAt: time.Now().UTC(),
	}
}
