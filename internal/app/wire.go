// Package app assembles the components shared by the server and the CLI.
package app

import (
	"taxonomy-crawler/internal/catalog"
	"taxonomy-crawler/internal/classifier"
	"taxonomy-crawler/internal/config"
	"taxonomy-crawler/internal/crawler"
	"taxonomy-crawler/internal/models"
	"taxonomy-crawler/internal/parser"
	"taxonomy-crawler/pkg/logger"
)

// CatalogSource picks the configured catalog source, or nil when none is
// configured.
func CatalogSource(cfg *config.Config) catalog.Source {
	switch {
	case cfg.Catalog.URL != "":
		return catalog.NewHTTPSource(cfg.Catalog.URL, config.GetDuration(cfg.Catalog.Timeout))
	case cfg.Catalog.Path != "":
		return catalog.File(cfg.Catalog.Path)
	default:
		return nil
	}
}

// NewSite wires fetcher, parser and classifier into a site crawler that
// annotates pages against cat.
func NewSite(cfg *config.Config, cat models.Catalog, l *logger.Logger) *crawler.Site {
	opts := []crawler.Option{
		crawler.WithRetries(cfg.Crawler.Retries, config.GetDuration(cfg.Crawler.Backoff)),
	}
	if cfg.Crawler.UserAgent != "" {
		opts = append(opts, crawler.WithUserAgent(cfg.Crawler.UserAgent))
	}
	client := crawler.NewHTTPClient(
		config.GetDuration(cfg.Crawler.Timeout),
		config.GetDuration(cfg.Crawler.DialTimeout),
		cfg.Crawler.SizeCap,
		opts...,
	)

	var guesser classifier.Guesser
	if llm := classifier.NewLLM(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model); llm != nil {
		guesser = llm
		l.Infof("llm fallback enabled")
	}
	return crawler.NewSite(client, parser.New(), classifier.New(cat, guesser), l)
}
