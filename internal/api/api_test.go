package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxonomy-crawler/internal/crawler"
	"taxonomy-crawler/internal/models"
	"taxonomy-crawler/internal/session"
	"taxonomy-crawler/internal/view"
	"taxonomy-crawler/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type crawlFunc func(ctx context.Context, req models.CrawlRequest) ([]models.PageRecord, error)

func (f crawlFunc) Crawl(ctx context.Context, req models.CrawlRequest) ([]models.PageRecord, error) {
	return f(ctx, req)
}

type catalogFunc func(ctx context.Context) (models.Catalog, error)

func (f catalogFunc) Fetch(ctx context.Context) (models.Catalog, error) { return f(ctx) }

type batchFunc func(ctx context.Context, urls []string, n int) ([]crawler.BatchResult, error)

func (f batchFunc) Batch(ctx context.Context, urls []string, n int) ([]crawler.BatchResult, error) {
	return f(ctx, urls, n)
}

func fixture() []models.PageRecord {
	return []models.PageRecord{
		{URL: "https://x.org/a", Title: "Alpha", Category: "News", Confidence: 0.9,
			Ontology: &models.OntologyAnnotation{Themes: []models.AxisValue{{ID: "Theme_Youth", Label: "Youth"}}}},
		{URL: "https://x.org/b", Title: "Beta", Category: "Events", Confidence: 0.4,
			Ontology: &models.OntologyAnnotation{DocumentType: &models.AxisValue{ID: "Doc_Article", Label: "Article"}}},
		{URL: "https://x.org/c", Title: "Gamma", Category: "News", Confidence: 0.6,
			Ontology: &models.OntologyAnnotation{Themes: []models.AxisValue{{ID: "theme_youth", Label: "Young people"}}}},
	}
}

func newTestServer(t *testing.T, c session.Crawler, opts ...Option) (*session.Session, http.Handler) {
	t.Helper()
	l := logger.ForTest(t)
	sess := session.New(c, l)
	sess.Replace(fixture())
	return sess, New(sess, l, opts...).Router()
}

func do(t *testing.T, h http.Handler, method, target string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

type listResponse struct {
	Tier          string      `json:"tier"`
	Total         int         `json:"total"`
	TotalFiltered int         `json:"total_filtered"`
	TotalPages    int         `json:"total_pages"`
	Page          int         `json:"page"`
	Items         []view.Item `json:"items"`
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) listResponse {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out listResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func indices(items []view.Item) []int {
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.Index
	}
	return out
}

func TestHealth(t *testing.T) {
	_, h := newTestServer(t, nil)
	w := do(t, h, http.MethodGet, "/api/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"records":3`)
}

func TestPagesCarryCanonicalIndex(t *testing.T) {
	_, h := newTestServer(t, nil)

	res := decodeList(t, do(t, h, http.MethodGet, "/api/pages?sort=title&dir=desc", nil, ""))
	assert.Equal(t, []int{2, 1, 0}, indices(res.Items))
	assert.Equal(t, 1, res.Page)

	res = decodeList(t, do(t, h, http.MethodGet, "/api/pages?category=News", nil, ""))
	assert.Equal(t, []int{0, 2}, indices(res.Items))
	assert.Equal(t, 2, res.TotalFiltered)

	res = decodeList(t, do(t, h, http.MethodGet, "/api/pages?q=events", nil, ""))
	assert.Equal(t, []int{1}, indices(res.Items), "free text also searches the category")

	res = decodeList(t, do(t, h, http.MethodGet, "/api/pages?page_size=2&page=2", nil, ""))
	assert.Equal(t, 2, res.TotalPages)
	assert.Equal(t, []int{2}, indices(res.Items))
}

func TestPagesBadSort(t *testing.T) {
	_, h := newTestServer(t, nil)
	w := do(t, h, http.MethodGet, "/api/pages?sort=bogus", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPageByIndex(t *testing.T) {
	_, h := newTestServer(t, nil)
	w := do(t, h, http.MethodGet, "/api/pages/1", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var it view.Item
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &it))
	assert.Equal(t, "Beta", it.Record.Title)

	for _, p := range []string{"/api/pages/9", "/api/pages/-1", "/api/pages/x"} {
		assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, p, nil, "").Code, p)
	}
}

func TestCategoryPages(t *testing.T) {
	_, h := newTestServer(t, nil)

	res := decodeList(t, do(t, h, http.MethodGet, "/api/categories/theme/pages?id=Theme_Youth", nil, ""))
	assert.Equal(t, "exact", res.Tier)
	assert.Equal(t, []int{0}, indices(res.Items))

	res = decodeList(t, do(t, h, http.MethodGet, "/api/categories/themes/pages?id=THEME_YOUTH", nil, ""))
	assert.Equal(t, "id_case_insensitive", res.Tier)
	assert.Equal(t, []int{0, 2}, indices(res.Items))

	res = decodeList(t, do(t, h, http.MethodGet, "/api/categories/document_type/pages?label=Art", nil, ""))
	assert.Equal(t, "substring", res.Tier)
	assert.Equal(t, []int{1}, indices(res.Items))

	res = decodeList(t, do(t, h, http.MethodGet, "/api/categories/theme/pages?id=Theme_Youth&q=gamma", nil, ""))
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, 0, res.TotalFiltered)
	assert.Empty(t, res.Items)

	res = decodeList(t, do(t, h, http.MethodGet, "/api/categories/geo_area/pages?id=Nowhere", nil, ""))
	assert.Equal(t, "none", res.Tier)
	assert.Empty(t, res.Items)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/categories/colour/pages?id=x", nil, "").Code)
}

func TestCategoryPagesKeepResolverOrder(t *testing.T) {
	sess, h := newTestServer(t, nil)
	doc := &models.OntologyAnnotation{DocumentType: &models.AxisValue{ID: "D1", Label: "Report"}}
	sess.Replace([]models.PageRecord{
		{URL: "https://x.org/z", Title: "Zulu", Ontology: doc},
		{URL: "https://x.org/a", Title: "Alpha", Ontology: doc},
	})

	res := decodeList(t, do(t, h, http.MethodGet, "/api/categories/document_type/pages?id=D1", nil, ""))
	assert.Equal(t, []int{0, 1}, indices(res.Items))

	res = decodeList(t, do(t, h, http.MethodGet, "/api/categories/document_type/pages?id=D1&sort=title", nil, ""))
	assert.Equal(t, []int{1, 0}, indices(res.Items))

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/categories/document_type/pages?id=D1&dir=sideways", nil, "").Code)
}

func TestCrawl(t *testing.T) {
	sess, h := newTestServer(t, crawlFunc(func(ctx context.Context, req models.CrawlRequest) ([]models.PageRecord, error) {
		if strings.Contains(req.URL, "down") {
			return nil, errors.New("connection refused")
		}
		return []models.PageRecord{{URL: req.URL, Title: "Home"}}, nil
	}))

	w := do(t, h, http.MethodPost, "/api/crawl", []byte(`{"url":`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/api/crawl", []byte(`{"url":"ftp://x.org"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/api/crawl", []byte(`{"url":"https://x.org","max_pages":0}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/api/crawl", []byte(`{"url":"https://down.org","max_pages":5}`), "application/json")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Len(t, sess.Records(), 3, "failed crawl keeps the prior set")

	w = do(t, h, http.MethodPost, "/api/crawl", []byte(`{"url":"https://new.org","single_page":true}`), "application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp models.CrawlResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.TotalPages)
	assert.Equal(t, "https://new.org", resp.URL)
	assert.NotEmpty(t, resp.Generation)
	require.Len(t, sess.Records(), 1)
	assert.Equal(t, "Home", sess.Records()[0].Title)
}

func TestCrawlBatch(t *testing.T) {
	b := batchFunc(func(ctx context.Context, urls []string, n int) ([]crawler.BatchResult, error) {
		out := make([]crawler.BatchResult, len(urls))
		for i, u := range urls {
			if strings.Contains(u, "bad") {
				out[i] = crawler.BatchResult{URL: u, Error: "boom"}
				continue
			}
			out[i] = crawler.BatchResult{URL: u, Record: &models.PageRecord{URL: u}}
		}
		return out, nil
	})
	sess, h := newTestServer(t, nil, WithBatcher(b, 2))

	w := do(t, h, http.MethodPost, "/api/crawl/batch", []byte(`{"urls":["https://a.org","https://bad.org"]}`), "application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"total_pages":1`)
	assert.Contains(t, w.Body.String(), "https://bad.org")
	require.Len(t, sess.Records(), 1)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "urls.csv")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("url\nhttps://c.org\nhttps://d.org\n"))
	require.NoError(t, mw.Close())

	w = do(t, h, http.MethodPost, "/api/crawl/batch", buf.Bytes(), mw.FormDataContentType())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, sess.Records(), 2)

	w = do(t, h, http.MethodPost, "/api/crawl/batch", []byte(`{"urls":["https://bad.org"]}`), "application/json")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Len(t, sess.Records(), 2)

	w = do(t, h, http.MethodPost, "/api/crawl/batch", []byte(`{}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCrawlBatchDisabled(t *testing.T) {
	_, h := newTestServer(t, nil)
	w := do(t, h, http.MethodPost, "/api/crawl/batch", []byte(`{"urls":["https://a.org"]}`), "application/json")
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestCategoriesAndUsage(t *testing.T) {
	sess, h := newTestServer(t, nil)
	require.NoError(t, sess.LoadCatalog(context.Background(), catalogFunc(func(ctx context.Context) (models.Catalog, error) {
		return models.Catalog{models.AxisTheme: {"Theme_Youth": "Youth", "Theme_Faith": "Faith"}}, nil
	})))

	w := do(t, h, http.MethodGet, "/api/owl/categories", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Success    bool           `json:"success"`
		Categories models.Catalog `json:"categories"`
		Statistics map[string]int `json:"statistics"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "Youth", body.Categories[models.AxisTheme]["Theme_Youth"])
	assert.Equal(t, 2, body.Statistics["themes_count"])

	w = do(t, h, http.MethodGet, "/api/usage", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"catalog_size":2`)
}

func TestStats(t *testing.T) {
	_, h := newTestServer(t, nil)
	w := do(t, h, http.MethodGet, "/api/stats", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Summary struct {
			TotalCount int `json:"total_count"`
		} `json:"summary"`
		Categories []struct {
			Label string `json:"label"`
			Count int    `json:"count"`
		} `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Summary.TotalCount)
	require.NotEmpty(t, body.Categories)
	assert.Equal(t, "News", body.Categories[0].Label)
	assert.Equal(t, 2, body.Categories[0].Count)
}

func TestMetricsEndpoint(t *testing.T) {
	_, h := newTestServer(t, nil)
	w := do(t, h, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "taxonomy_record_set_size")
}
