package crawler

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrInvalidURL = errors.New("invalid url")
	ErrNonHTML    = errors.New("non-html content")
	ErrForbidden  = errors.New("forbidden: site may be blocking automated requests")
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type HTTPClient struct {
	client    *http.Client
	sizeCap   int64
	userAgent string
	retries   int
	backoff   time.Duration
}

type Option func(*HTTPClient)

func WithRetries(n int, backoff time.Duration) Option {
	return func(h *HTTPClient) {
		h.retries = n
		h.backoff = backoff
	}
}

func WithUserAgent(ua string) Option {
	return func(h *HTTPClient) {
		if ua != "" {
			h.userAgent = ua
		}
	}
}

func NewHTTPClient(timeout, dialTimeout time.Duration, sizeCap int64, opts ...Option) *HTTPClient {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	h := &HTTPClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		sizeCap:   sizeCap,
		userAgent: defaultUserAgent,
		retries:   2,
		backoff:   time.Second,
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Fetch GETs an HTML document, retrying transient failures. A 403 is not
// retried. The returned body is capped at the client's size limit.
func (h *HTTPClient) Fetch(ctx context.Context, rawURL string) (io.ReadCloser, string, string, time.Duration, error) {
	start := time.Now()
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, "", "", 0, ErrInvalidURL
	}

	var lastErr error
	for attempt := 0; attempt <= h.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, "", "", 0, ctx.Err()
			case <-time.After(h.backoff):
			}
		}
		body, finalURL, ct, err := h.fetchOnce(ctx, u)
		if err == nil {
			return body, finalURL, ct, time.Since(start), nil
		}
		lastErr = err
		if errors.Is(err, ErrForbidden) || errors.Is(err, ErrNonHTML) || ctx.Err() != nil {
			break
		}
	}
	return nil, "", "", 0, lastErr
}

func (h *HTTPClient) fetchOnce(ctx context.Context, u *url.URL) (io.ReadCloser, string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", "", err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, "", "", err
	}
	if resp.StatusCode == http.StatusForbidden {
		resp.Body.Close()
		return nil, "", "", ErrForbidden
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, "", "", fmt.Errorf("http status %d", resp.StatusCode)
	}

	var body io.ReadCloser = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			resp.Body.Close()
			return nil, "", "", err
		}
		body = gz
	}

	contentType := resp.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if !strings.Contains(mediaType, "text/html") && !strings.Contains(mediaType, "application/xhtml+xml") && mediaType != "" {
		// still allow if empty (some servers omit), otherwise reject non-html
		body.Close()
		resp.Body.Close()
		return nil, "", "", ErrNonHTML
	}

	return &cappedBody{Reader: io.LimitReader(body, h.sizeCap), closers: []io.Closer{body, resp.Body}},
		resp.Request.URL.String(), contentType, nil
}

// FetchText GETs any text resource, such as robots.txt.
func (h *HTTPClient) FetchText(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", h.userAgent)
	resp, err := h.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("http status %d", resp.StatusCode)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, h.sizeCap))
	return string(b), err
}

type cappedBody struct {
	io.Reader
	closers []io.Closer
}

func (c *cappedBody) Close() error {
	var first error
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
