package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"taxonomy-crawler/internal/app"
	"taxonomy-crawler/internal/crawler"
	"taxonomy-crawler/internal/ioformats"
	"taxonomy-crawler/internal/models"
	"taxonomy-crawler/internal/resolver"
	"taxonomy-crawler/internal/stats"
	"taxonomy-crawler/internal/view"
)

func newCrawlCmd(root *rootOptions) *cobra.Command {
	var (
		req         models.CrawlRequest
		maxPages    int
		delay       float64
		input       string
		output      string
		format      string
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "crawl [url]",
		Short: "Crawl a site (or a list of URLs with --input) into a record snapshot",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 0) == (input == "") {
				return fmt.Errorf("give either a url or --input")
			}
			cfg, l, err := root.load()
			if err != nil {
				return err
			}
			defer l.Sync()

			cat := models.NewCatalog()
			if src := app.CatalogSource(cfg); src != nil {
				if c, err := src.Fetch(cmd.Context()); err != nil {
					l.Warnf("catalog not loaded: %v", err)
				} else {
					cat = c
				}
			}
			site := app.NewSite(cfg, cat, l)

			var records []models.PageRecord
			if input != "" {
				urls, err := ioformats.ReadURLs(input)
				if err != nil {
					return fmt.Errorf("read input: %w", err)
				}
				results, err := site.Batch(cmd.Context(), urls, concurrency)
				if err != nil {
					return err
				}
				for _, r := range results {
					if r.Error != "" {
						l.Warnf("%s: %s", r.URL, r.Error)
					}
				}
				records = crawler.Records(results)
			} else {
				req.URL = args[0]
				req.MaxPages = &maxPages
				if cmd.Flags().Changed("delay") {
					req.Delay = &delay
				}
				if records, err = site.Crawl(cmd.Context(), req); err != nil {
					return err
				}
			}
			l.Infof("crawled %d pages", len(records))
			return writeRecords(cmd.OutOrStdout(), output, format, records)
		},
	}
	f := cmd.Flags()
	f.IntVar(&maxPages, "max-pages", models.DefaultMaxPages, "maximum pages to crawl (1-1000)")
	f.Float64Var(&delay, "delay", models.DefaultDelay, "seconds between requests (0-5)")
	f.BoolVar(&req.SinglePage, "single-page", false, "scrape only the given url")
	f.StringVar(&input, "input", "", "file of urls (csv with a url column, or ndjson)")
	f.StringVarP(&output, "output", "o", "", "output file (default stdout)")
	f.StringVar(&format, "format", "ndjson", "output format: ndjson or json")
	f.IntVar(&concurrency, "concurrency", 10, "worker concurrency for --input")
	return cmd
}

func writeRecords(stdout io.Writer, path, format string, records []models.PageRecord) error {
	w := stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	switch format {
	case "json":
		return ioformats.WriteJSON(w, records)
	case "ndjson", "":
		return ioformats.WriteNDJSON(w, records)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func (o *rootOptions) records() ([]models.PageRecord, error) {
	if _, _, err := o.load(); err != nil {
		return nil, err
	}
	recs, err := ioformats.ReadRecords(o.dataPath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", o.dataPath, err)
	}
	return models.Normalize(recs), nil
}

func newStatsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize a record snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			recs, err := root.records()
			if err != nil {
				return err
			}
			sum := stats.Aggregate(recs)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "pages: %d\n", sum.TotalCount)
			fmt.Fprintf(out, "ontology classified: %d\n", sum.OntologyClassifiedCount)
			fmt.Fprintf(out, "average confidence: %.2f\n", sum.AverageConfidence)
			fmt.Fprintf(out, "confidence: high %d, medium %d, low %d\n",
				sum.Confidence.High, sum.Confidence.Medium, sum.Confidence.Low)

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			printCounts(tw, "category", sum.SortedCategories())
			printCounts(tw, "source", sum.SortedSources())
			for _, a := range models.Axes {
				printCounts(tw, string(a), sum.Sorted(a))
			}
			return tw.Flush()
		},
	}
}

func printCounts(w io.Writer, heading string, counts []stats.Count) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\tpages\n", heading)
	for _, c := range counts {
		fmt.Fprintf(w, "%s\t%d\n", c.Label, c.N)
	}
}

func newResolveCmd(root *rootOptions) *cobra.Command {
	var sel resolver.Selector
	cmd := &cobra.Command{
		Use:   "resolve <axis>",
		Short: "List the pages that belong to a category on one axis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			axis, err := models.ParseAxis(args[0])
			if err != nil {
				return err
			}
			if sel.Empty() {
				return fmt.Errorf("give --id or --label")
			}
			recs, err := root.records()
			if err != nil {
				return err
			}
			subset, tier := resolver.ResolveTier(recs, axis, sel)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d pages (tier: %s)\n", len(subset), tier)
			for _, r := range subset {
				fmt.Fprintf(out, "%s\t%s\n", r.URL, r.Title)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sel.ID, "id", "", "category id")
	cmd.Flags().StringVar(&sel.Label, "label", "", "category label")
	return cmd
}

func newListCmd(root *rootOptions) *cobra.Command {
	var (
		q         view.Query
		sort, dir string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Search, filter, sort and page through a record snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, d, err := view.ParseSort(sort, dir)
			if err != nil {
				return err
			}
			q.SortKey, q.SortDir, q.MatchCategory = key, d, true

			recs, err := root.records()
			if err != nil {
				return err
			}
			loc := view.NewLocator(recs)
			res := view.View(recs, q)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "page %d of %d (%d matching)\n", q.Page, res.TotalPages, res.TotalFiltered)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\ttitle\tcategory\tconfidence\turl")
			for _, it := range loc.Attach(res.Items) {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t%s\n", it.Index, oneLine(it.Record.Title), it.Record.Category, it.Record.Confidence, it.Record.URL)
			}
			return tw.Flush()
		},
	}
	f := cmd.Flags()
	f.StringVarP(&q.Text, "query", "q", "", "free-text search over title, url, description and category")
	f.StringVar(&q.Category, "category", view.AllCategories, "exact category filter")
	f.StringVar(&sort, "sort", "title", "sort key: title, category, url or confidence")
	f.StringVar(&dir, "dir", "asc", "sort direction: asc or desc")
	f.IntVar(&q.Page, "page", 1, "page number")
	f.IntVar(&q.PageSize, "page-size", view.DefaultPageSize, "items per page")
	return cmd
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func newExportCmd(root *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a structured export with statistics and indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			recs, err := root.records()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return ioformats.WriteStructured(w, recs, time.Now())
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}
