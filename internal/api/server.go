// Package api exposes the session over HTTP.
package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"taxonomy-crawler/internal/crawler"
	"taxonomy-crawler/internal/session"
	"taxonomy-crawler/pkg/logger"
)

// Batcher scrapes a list of URLs as single pages.
type Batcher interface {
	Batch(ctx context.Context, urls []string, concurrency int) ([]crawler.BatchResult, error)
}

type Server struct {
	sess         *session.Session
	batch        Batcher
	concurrency  int
	crawlTimeout time.Duration
	log          *logger.Logger
}

type Option func(*Server)

// WithBatcher enables POST /api/crawl/batch.
func WithBatcher(b Batcher, concurrency int) Option {
	return func(s *Server) {
		s.batch = b
		s.concurrency = concurrency
	}
}

// WithCrawlTimeout bounds every crawl triggered over HTTP.
func WithCrawlTimeout(d time.Duration) Option {
	return func(s *Server) { s.crawlTimeout = d }
}

func New(sess *session.Session, l *logger.Logger, opts ...Option) *Server {
	if l == nil {
		l = logger.Nop()
	}
	s := &Server{sess: sess, log: l, crawlTimeout: 10 * time.Minute, concurrency: 10}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Router builds the gin engine with every route mounted.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.logRequest())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/health", s.health)
		api.POST("/crawl", s.crawl)
		api.POST("/crawl/batch", s.crawlBatch)
		api.GET("/owl/categories", s.categories)
		api.GET("/stats", s.stats)
		api.GET("/usage", s.usage)
		api.GET("/categories/:axis/pages", s.categoryPages)
		api.GET("/pages", s.pages)
		api.GET("/pages/:index", s.page)
	}
	return r
}

func (s *Server) logRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Infof("%s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
