package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"taxonomy-crawler/internal/catalog"
	"taxonomy-crawler/internal/crawler"
	"taxonomy-crawler/internal/ioformats"
	"taxonomy-crawler/internal/metrics"
	"taxonomy-crawler/internal/models"
	"taxonomy-crawler/internal/resolver"
	"taxonomy-crawler/internal/session"
	"taxonomy-crawler/internal/stats"
	"taxonomy-crawler/internal/view"
)

func (s *Server) health(c *gin.Context) {
	snap := s.sess.Snapshot()
	body := gin.H{
		"status":     "ok",
		"records":    len(snap.Records),
		"generation": snap.Generation,
	}
	if err := s.sess.LastError(); err != nil {
		body["last_error"] = err.Error()
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) crawl(c *gin.Context) {
	var req models.CrawlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.CrawlRuns.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, models.CrawlResponse{Error: "invalid payload"})
		return
	}
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		metrics.CrawlRuns.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, models.CrawlResponse{Error: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.crawlTimeout)
	defer cancel()

	snap, err := s.sess.Crawl(ctx, req)
	if err != nil {
		c.JSON(crawlStatus(err), models.CrawlResponse{URL: req.URL, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, models.CrawlResponse{
		Success:    true,
		Data:       snap.Records,
		TotalPages: len(snap.Records),
		URL:        req.URL,
		Generation: snap.Generation,
	})
}

type batchRequest struct {
	URLs []string `json:"urls"`
}

// crawlBatch accepts either {"urls": [...]} or a multipart upload in the
// "file" part (CSV with a url column, or NDJSON).
func (s *Server) crawlBatch(c *gin.Context) {
	if s.batch == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "batch crawling is not configured"})
		return
	}
	urls, err := batchURLs(c)
	if err != nil {
		metrics.CrawlRuns.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.crawlTimeout)
	defer cancel()

	var failures []crawler.BatchResult
	snap, err := s.sess.Run(ctx, fmt.Sprintf("batch of %d urls", len(urls)), func(ctx context.Context) ([]models.PageRecord, error) {
		results, err := s.batch.Batch(ctx, urls, s.concurrency)
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			if r.Record == nil {
				failures = append(failures, r)
			}
		}
		recs := crawler.Records(results)
		if len(recs) == 0 {
			return nil, errors.New("no url could be scraped")
		}
		return recs, nil
	})
	if err != nil {
		c.JSON(crawlStatus(err), gin.H{"success": false, "error": err.Error(), "failures": failures})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"data":        snap.Records,
		"total_pages": len(snap.Records),
		"generation":  snap.Generation,
		"failures":    failures,
	})
}

func batchURLs(c *gin.Context) ([]string, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		var req batchRequest
		if err := c.ShouldBindJSON(&req); err != nil || len(req.URLs) == 0 {
			return nil, errors.New("invalid payload")
		}
		return req.URLs, nil
	}

	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// copy to temp file to reuse the format reader
	tmp, err := os.CreateTemp("", "upload-*"+filepath.Ext(fh.Filename))
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, f); err != nil {
		tmp.Close()
		return nil, err
	}
	tmp.Close()
	return ioformats.ReadURLs(tmp.Name())
}

func crawlStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) categories(c *gin.Context) {
	cat := s.sess.Catalog()
	c.JSON(http.StatusOK, catalog.Response{
		Success:    true,
		Categories: cat,
		Statistics: catalog.Stats(cat),
	})
}

func (s *Server) stats(c *gin.Context) {
	sum := stats.Aggregate(s.sess.Records())
	sorted := make(map[models.Axis][]stats.Count, len(models.Axes))
	for _, a := range models.Axes {
		sorted[a] = sum.Sorted(a)
	}
	c.JSON(http.StatusOK, gin.H{
		"summary":    sum,
		"categories": sum.SortedCategories(),
		"sources":    sum.SortedSources(),
		"axes":       sorted,
	})
}

func (s *Server) usage(c *gin.Context) {
	c.JSON(http.StatusOK, stats.Usage(s.sess.Records(), s.sess.Catalog()))
}

// categoryPages resolves a selector on one axis, then applies the list
// view over the resolved subset.
func (s *Server) categoryPages(c *gin.Context) {
	axis, err := models.ParseAxis(c.Param("axis"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var sel resolver.Selector
	if err := c.ShouldBindQuery(&sel); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	q, ok := bindQuery(c, false)
	if !ok {
		return
	}
	q.Category = ""
	q.MatchCategory = false

	snap := s.sess.Snapshot()
	subset, tier := resolver.ResolveTier(snap.Records, axis, sel)
	metrics.ResolveTier.WithLabelValues(string(axis), tier.String()).Inc()

	if sel.Label == "" {
		if label, ok := s.sess.Catalog().Label(axis, sel.ID); ok {
			sel.Label = label
		}
	}
	res := view.View(subset, q)
	c.JSON(http.StatusOK, gin.H{
		"axis":           axis,
		"selector":       sel,
		"tier":           tier.String(),
		"total":          len(subset),
		"total_filtered": res.TotalFiltered,
		"total_pages":    res.TotalPages,
		"page":           q.Page,
		"items":          snap.Locator.Attach(res.Items),
	})
}

func (s *Server) pages(c *gin.Context) {
	q, ok := bindQuery(c, true)
	if !ok {
		return
	}
	q.MatchCategory = true

	snap := s.sess.Snapshot()
	res := view.View(snap.Records, q)
	c.JSON(http.StatusOK, gin.H{
		"total":          len(snap.Records),
		"total_filtered": res.TotalFiltered,
		"total_pages":    res.TotalPages,
		"page":           q.Page,
		"generation":     snap.Generation,
		"items":          snap.Locator.Attach(res.Items),
	})
}

func (s *Server) page(c *gin.Context) {
	i, err := strconv.Atoi(c.Param("index"))
	snap := s.sess.Snapshot()
	if err != nil || i < 0 || i >= len(snap.Records) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no record at that index"})
		return
	}
	c.JSON(http.StatusOK, view.Item{Index: i, Record: snap.Records[i]})
}

// bindQuery reads the list-view parameters, defaulting page to 1. Without
// defaultSort an absent sort key leaves the input order untouched.
func bindQuery(c *gin.Context, defaultSort bool) (view.Query, bool) {
	var q view.Query
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return q, false
	}
	keep := !defaultSort && q.SortKey == ""
	key, dir, err := view.ParseSort(string(q.SortKey), string(q.SortDir))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return q, false
	}
	q.SortKey, q.SortDir = key, dir
	if keep {
		q.SortKey = ""
	}
	if q.Page < 1 {
		q.Page = 1
	}
	return q, true
}
