package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"taxonomy-crawler/internal/api"
	"taxonomy-crawler/internal/app"
	"taxonomy-crawler/internal/config"
	"taxonomy-crawler/internal/session"
	"taxonomy-crawler/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "console").Errorf("config: %v", err)
		os.Exit(1)
	}
	l := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer l.Sync()

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	// The crawler is attached once the catalog is known.
	sess := session.New(nil, l)

	var g errgroup.Group
	g.Go(func() error {
		if sess.Bootstrap(cfg.Bootstrap.Path) {
			l.Infof("bootstrapped %d records from %s", len(sess.Records()), cfg.Bootstrap.Path)
		}
		return nil
	})
	g.Go(func() error {
		src := app.CatalogSource(cfg)
		if src == nil {
			l.Warnf("no catalog configured; ontology axes will stay empty")
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Catalog.Timeout))
		defer cancel()
		if err := sess.LoadCatalog(ctx, src); err != nil {
			l.Warnf("catalog not loaded: %v", err)
		}
		return nil
	})
	_ = g.Wait()

	site := app.NewSite(cfg, sess.Catalog(), l)
	sess.SetCrawler(site)

	handler := api.New(sess, l,
		api.WithBatcher(site, cfg.Crawler.Concurrency),
		api.WithCrawlTimeout(config.GetDuration(cfg.Server.CrawlTimeout)),
	).Router()

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		l.Infof("server listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			l.Errorf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	l.Infof("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()
	_ = srv.Shutdown(ctx)
	l.Infof("bye")
}
