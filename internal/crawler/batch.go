package crawler

import (
	"context"

	"golang.org/x/sync/errgroup"

	"taxonomy-crawler/internal/models"
)

// BatchResult is the outcome of scraping one listed URL.
type BatchResult struct {
	URL    string             `json:"url"`
	Record *models.PageRecord `json:"result,omitempty"`
	Error  string             `json:"error,omitempty"`
}

// Batch scrapes each URL as a single page with bounded concurrency.
// Results keep input order; a failing URL is reported, not fatal.
func (s *Site) Batch(ctx context.Context, urls []string, concurrency int) ([]BatchResult, error) {
	if concurrency <= 0 {
		concurrency = 10
	}
	results := make([]BatchResult, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			if u == "" {
				results[i] = BatchResult{URL: u, Error: "empty url"}
				return nil
			}
			rec, _, err := s.Scrape(gctx, u)
			if err != nil {
				results[i] = BatchResult{URL: u, Error: err.Error()}
				return nil
			}
			results[i] = BatchResult{URL: u, Record: &rec}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// Records keeps the successful batch results, in order.
func Records(results []BatchResult) []models.PageRecord {
	out := make([]models.PageRecord, 0, len(results))
	for _, r := range results {
		if r.Record != nil {
			out = append(out, *r.Record)
		}
	}
	return out
}
