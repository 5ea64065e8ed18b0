package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"taxonomy-crawler/internal/metrics"
	"taxonomy-crawler/internal/models"
	"taxonomy-crawler/pkg/logger"
)

const (
	maxCleanText   = 15000
	maxHTMLSnippet = 200000
)

var ErrDisallowed = errors.New("crawling disallowed by robots.txt")

// Fetcher retrieves pages and robots policy.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (io.ReadCloser, string, string, time.Duration, error)
	Allowed(ctx context.Context, base string) bool
}

// Extractor turns a fetched document into page parts.
type Extractor interface {
	Extract(r io.Reader, contentType string, base *url.URL) (models.Page, error)
}

// Classifier annotates a parsed page.
type Classifier interface {
	Classify(ctx context.Context, p models.Page) models.Classification
}

// Site crawls one website into page records.
type Site struct {
	fetch    Fetcher
	extract  Extractor
	classify Classifier
	log      *logger.Logger
}

func NewSite(f Fetcher, e Extractor, c Classifier, l *logger.Logger) *Site {
	if l == nil {
		l = logger.Nop()
	}
	return &Site{fetch: f, extract: e, classify: c, log: l}
}

// Crawl scrapes req.URL alone when SinglePage is set, otherwise walks
// internal links breadth-first until MaxPages records are collected.
// Pages that fail to fetch or parse are skipped.
func (s *Site) Crawl(ctx context.Context, req models.CrawlRequest) ([]models.PageRecord, error) {
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if req.SinglePage {
		rec, _, err := s.Scrape(ctx, req.URL)
		if err != nil {
			return nil, fmt.Errorf("scrape %s: %w", req.URL, err)
		}
		return []models.PageRecord{rec}, nil
	}

	if !s.fetch.Allowed(ctx, req.URL) {
		return nil, ErrDisallowed
	}

	start, err := url.Parse(req.URL)
	if err != nil {
		return nil, ErrInvalidURL
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if d := req.DelaySeconds(); d > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Duration(d*float64(time.Second))), 1)
	}

	first := NormalizeURL(req.URL)
	queue := []string{first}
	seen := map[string]bool{first: true}
	var results []models.PageRecord

	for len(queue) > 0 && len(results) < req.Pages() {
		if err := limiter.Wait(ctx); err != nil {
			return nil, ctxErr(ctx, err)
		}
		u := queue[0]
		queue = queue[1:]
		s.log.Debugf("crawl %s", u)

		rec, links, err := s.Scrape(ctx, u)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.log.Warnf("skip %s: %v", u, err)
			continue
		}
		results = append(results, rec)

		for _, l := range links {
			lu, err := url.Parse(l)
			if err != nil || !sameHost(start, lu) {
				continue
			}
			n := NormalizeURL(l)
			if !seen[n] {
				seen[n] = true
				queue = append(queue, n)
			}
		}
	}
	return results, nil
}

// Scrape fetches, parses and classifies one page.
func (s *Site) Scrape(ctx context.Context, rawURL string) (models.PageRecord, []string, error) {
	body, finalURL, ct, elapsed, err := s.fetch.Fetch(ctx, rawURL)
	if err != nil {
		metrics.PageFetchFailures.Inc()
		return models.PageRecord{}, nil, err
	}
	defer body.Close()
	metrics.PageFetchDuration.Observe(elapsed.Seconds())

	base, _ := url.Parse(finalURL)
	page, err := s.extract.Extract(body, ct, base)
	if err != nil {
		metrics.PageFetchFailures.Inc()
		return models.PageRecord{}, nil, err
	}
	c := s.classify.Classify(ctx, page)
	metrics.PagesCrawled.Inc()

	onto := c.Ontology
	if onto.Empty() {
		onto = nil
	}
	return models.PageRecord{
		URL:             rawURL,
		Title:           page.Title,
		MetaDescription: page.MetaDescription,
		Category:        c.Category,
		CategorySource:  c.Source,
		CategoryReason:  c.Reason,
		Confidence:      c.Confidence,
		Ontology:        onto,
		ULBlocks:        page.ULBlocks,
		LIItems:         page.LIItems,
		CleanText:       truncate(page.CleanText, maxCleanText),
		FullHTMLSnippet: truncate(page.FullHTML, maxHTMLSnippet),
	}, page.Links, nil
}

// NormalizeURL drops the fragment and any trailing slash.
func NormalizeURL(u string) string {
	if i := strings.IndexByte(u, '#'); i >= 0 {
		u = u[:i]
	}
	return strings.TrimRight(u, "/")
}

func sameHost(a, b *url.URL) bool {
	return b.Host != "" && strings.EqualFold(a.Host, b.Host)
}

// truncate cuts s to at most n characters.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	i := 0
	for j := range s {
		if i == n {
			return s[:j]
		}
		i++
	}
	return s
}

func ctxErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
