package crawler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestFetchHTML(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(200)
		_, _ = w.Write([]byte("<html><title>x</title></html>"))
	}))
	defer ts.Close()

	client := NewHTTPClient(5*time.Second, 2*time.Second, 1024)
	rc, final, ct, dur, err := client.Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("fetch err: %v", err)
	}
	defer rc.Close()
	if final == "" || ct == "" || dur == 0 {
		t.Fatal("unexpected empty values")
	}
}

func TestRejectNonHTML(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(200)
		w.Write([]byte("{}"))
	}))
	defer ts.Close()

	client := NewHTTPClient(5*time.Second, 2*time.Second, 1024)
	_, _, _, _, err := client.Fetch(context.Background(), ts.URL)
	if !errors.Is(err, ErrNonHTML) {
		t.Fatalf("expected ErrNonHTML, got %v", err)
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer ts.Close()

	client := NewHTTPClient(5*time.Second, 2*time.Second, 1024, WithRetries(2, time.Millisecond))
	rc, _, _, _, err := client.Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("fetch err: %v", err)
	}
	rc.Close()
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Fatalf("want 3 attempts, got %d", got)
	}
}

func TestFetchForbiddenNotRetried(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	client := NewHTTPClient(5*time.Second, 2*time.Second, 1024, WithRetries(2, time.Millisecond))
	_, _, _, _, err := client.Fetch(context.Background(), ts.URL)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("want 1 attempt, got %d", got)
	}
}

func TestFetchInvalidURL(t *testing.T) {
	client := NewHTTPClient(time.Second, time.Second, 1024)
	if _, _, _, _, err := client.Fetch(context.Background(), "not a url"); !errors.Is(err, ErrInvalidURL) {
		t.Fatalf("expected ErrInvalidURL, got %v", err)
	}
}

func TestAllowed(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
		want   bool
	}{
		"blanket disallow": {200, "User-agent: *\nDisallow: /\n", false},
		"partial disallow": {200, "User-agent: *\nDisallow: /admin\n", true},
		"missing":          {404, "", true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/robots.txt" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer ts.Close()

			client := NewHTTPClient(time.Second, time.Second, 4096)
			if got := client.Allowed(context.Background(), ts.URL+"/some/page"); got != tc.want {
				t.Fatalf("want %v, got %v", tc.want, got)
			}
		})
	}
}
