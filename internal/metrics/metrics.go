package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CrawlRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taxonomy_crawl_runs_total",
			Help: "Crawl triggers by outcome (success, failed, superseded, invalid)",
		},
		[]string{"outcome"},
	)

	PagesCrawled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "taxonomy_pages_crawled_total",
			Help: "Pages fetched, parsed and classified",
		},
	)

	PageFetchFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "taxonomy_page_fetch_failures_total",
			Help: "Pages skipped because they could not be fetched or parsed",
		},
	)

	PageFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "taxonomy_page_fetch_duration_seconds",
			Help:    "Time to fetch one page",
			Buckets: prometheus.DefBuckets,
		},
	)

	ResolveTier = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taxonomy_resolve_total",
			Help: "Category resolutions by axis and the tier that matched",
		},
		[]string{"axis", "tier"},
	)

	RecordSetSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "taxonomy_record_set_size",
			Help: "Records in the current working set",
		},
	)
)
