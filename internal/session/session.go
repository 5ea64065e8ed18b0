// Package session owns the working record set and taxonomy catalog of one
// operator session.
//
// The record set is only ever replaced wholesale. Overlapping crawl
// triggers are resolved by supersession: starting a crawl cancels the one
// in flight, and a superseded crawl never touches the working set.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"taxonomy-crawler/internal/catalog"
	"taxonomy-crawler/internal/ioformats"
	"taxonomy-crawler/internal/metrics"
	"taxonomy-crawler/internal/models"
	"taxonomy-crawler/internal/view"
	"taxonomy-crawler/pkg/logger"
)

var ErrSuperseded = errors.New("crawl superseded by a newer request")

// Crawler produces a fresh record set.
type Crawler interface {
	Crawl(ctx context.Context, req models.CrawlRequest) ([]models.PageRecord, error)
}

// Snapshot is an immutable view of the working set. Callers must not
// modify Records.
type Snapshot struct {
	Records    []models.PageRecord
	Locator    *view.Locator
	Generation string
}

type Session struct {
	crawler Crawler
	log     *logger.Logger

	mu      sync.RWMutex
	snap    Snapshot
	catalog models.Catalog
	lastErr error

	// crawl bookkeeping
	crawlMu  sync.Mutex
	crawlSeq uint64
	cancel   context.CancelFunc
}

func New(c Crawler, l *logger.Logger) *Session {
	if l == nil {
		l = logger.Nop()
	}
	return &Session{
		crawler: c,
		log:     l,
		snap:    Snapshot{Locator: view.NewLocator(nil)},
		catalog: models.NewCatalog(),
	}
}

// SetCrawler attaches the crawler used by Crawl.
func (s *Session) SetCrawler(c Crawler) {
	s.crawlMu.Lock()
	s.crawler = c
	s.crawlMu.Unlock()
}

// Snapshot returns the current working set.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Records returns the current working set.
func (s *Session) Records() []models.PageRecord { return s.Snapshot().Records }

// Catalog returns the cached catalog; every axis has a table.
func (s *Session) Catalog() models.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog
}

// LastError is the most recent boundary failure, or nil after a success.
func (s *Session) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Replace swaps in a new record set. The previous set is discarded, never
// merged.
func (s *Session) Replace(records []models.PageRecord) Snapshot {
	snap := s.build(records)
	s.crawlMu.Lock()
	s.commit(snap)
	s.crawlMu.Unlock()
	s.replaced(snap)
	return snap
}

// build prepares a snapshot without touching the working set.
func (s *Session) build(records []models.PageRecord) Snapshot {
	recs := models.Normalize(records)
	return Snapshot{
		Records:    recs,
		Locator:    view.NewLocator(recs),
		Generation: uuid.NewString(),
	}
}

func (s *Session) commit(snap Snapshot) {
	s.mu.Lock()
	s.snap = snap
	s.lastErr = nil
	s.mu.Unlock()
}

func (s *Session) replaced(snap Snapshot) {
	l := s.log.With("generation", snap.Generation)
	if d := snap.Locator.Duplicates(); d > 0 {
		l.Warnf("record set has %d duplicate urls; first occurrence wins", d)
	}
	metrics.RecordSetSize.Set(float64(len(snap.Records)))
	l.Infof("record set replaced: %d records", len(snap.Records))
}

// Crawl runs the configured crawler through Run.
func (s *Session) Crawl(ctx context.Context, req models.CrawlRequest) (Snapshot, error) {
	s.crawlMu.Lock()
	c := s.crawler
	s.crawlMu.Unlock()
	if c == nil {
		return Snapshot{}, errors.New("no crawler configured")
	}
	return s.Run(ctx, req.URL, func(ctx context.Context) ([]models.PageRecord, error) {
		return c.Crawl(ctx, req)
	})
}

// Run replaces the working set with whatever produce returns. A newer
// call cancels this one, which then returns ErrSuperseded. On any failure
// the working set is left as it was.
func (s *Session) Run(ctx context.Context, label string, produce func(context.Context) ([]models.PageRecord, error)) (Snapshot, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.crawlMu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.crawlSeq++
	seq := s.crawlSeq
	s.cancel = cancel
	s.crawlMu.Unlock()

	records, err := produce(ctx)
	var snap Snapshot
	if err == nil {
		snap = s.build(records)
	}

	// The current check and the swap share one critical section.
	s.crawlMu.Lock()
	current := seq == s.crawlSeq
	if current {
		s.cancel = nil
		if err == nil {
			s.commit(snap)
		} else {
			err = fmt.Errorf("crawl %s: %w", label, err)
			s.setErr(err)
		}
	}
	s.crawlMu.Unlock()

	switch {
	case !current:
		metrics.CrawlRuns.WithLabelValues("superseded").Inc()
		s.log.Infof("crawl of %s superseded", label)
		return Snapshot{}, ErrSuperseded
	case err != nil:
		metrics.CrawlRuns.WithLabelValues("failed").Inc()
		s.log.Errorf("%v", err)
		return Snapshot{}, err
	}
	metrics.CrawlRuns.WithLabelValues("success").Inc()
	s.replaced(snap)
	return snap, nil
}

// LoadCatalog fetches the catalog from src and caches it. A failure keeps
// the previous catalog.
func (s *Session) LoadCatalog(ctx context.Context, src catalog.Source) error {
	cat, err := src.Fetch(ctx)
	if err != nil {
		s.fail(fmt.Errorf("load catalog: %w", err))
		return err
	}
	cached := models.NewCatalog()
	for a, table := range cat {
		if cached[a] == nil {
			continue
		}
		for id, label := range table {
			cached[a][id] = label
		}
	}
	s.mu.Lock()
	s.catalog = cached
	s.mu.Unlock()
	s.log.Infof("catalog loaded: %v", catalog.Stats(cached))
	return nil
}

// Bootstrap loads a static snapshot if one is readable. Any failure is
// logged and otherwise ignored; it reports whether records were loaded.
func (s *Session) Bootstrap(path string) bool {
	if path == "" {
		return false
	}
	records, err := ioformats.ReadRecords(path)
	if err != nil {
		s.log.Debugf("bootstrap %s skipped: %v", path, err)
		return false
	}
	if len(records) == 0 {
		return false
	}
	s.Replace(records)
	return true
}

func (s *Session) fail(err error) {
	s.setErr(err)
	s.log.Errorf("%v", err)
}

func (s *Session) setErr(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}
