package ioformats

import (
	"encoding/json"
	"io"
	"time"

	"taxonomy-crawler/internal/models"
	"taxonomy-crawler/internal/stats"
)

const (
	exportVersion = "1.0"
	exportFormat  = "structured_ontology"
)

// WriteNDJSON writes one record per line.
func WriteNDJSON(w io.Writer, records []models.PageRecord) error {
	enc := json.NewEncoder(w)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON writes records as one indented array.
func WriteJSON(w io.Writer, records []models.PageRecord) error {
	if records == nil {
		records = []models.PageRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

type ExportMetadata struct {
	ExportDate string `json:"export_date"`
	Version    string `json:"version"`
	TotalPages int    `json:"total_pages"`
	DataFormat string `json:"data_format"`
}

type ExportStatistics struct {
	TotalPages              int                            `json:"total_pages"`
	OntologyClassifiedPages int                            `json:"ontology_classified_pages"`
	AverageConfidence       float64                        `json:"average_confidence"`
	Confidence              stats.Histogram                `json:"confidence_distribution"`
	Categories              map[string]int                 `json:"category_distribution"`
	Sources                 map[string]int                 `json:"source_distribution"`
	Axes                    map[models.Axis]map[string]int `json:"axes"`
}

type ExportOrganization struct {
	ByCategory map[string]int                 `json:"by_category"`
	ByAxis     map[models.Axis]map[string]int `json:"by_axis"`
}

// Export is the self-describing document written by WriteStructured.
// Indexes hold positions into Pages.
type Export struct {
	Metadata     ExportMetadata      `json:"metadata"`
	Statistics   ExportStatistics    `json:"statistics"`
	Organization ExportOrganization  `json:"organization"`
	Indexes      stats.Organization  `json:"indexes"`
	Pages        []models.PageRecord `json:"pages"`
}

// BuildExport assembles the structured document for records as of now.
func BuildExport(records []models.PageRecord, now time.Time) Export {
	if records == nil {
		records = []models.PageRecord{}
	}
	sum := stats.Aggregate(records)
	org := stats.Organize(records)

	byAxis := make(map[models.Axis]map[string]int, len(org.ByAxis))
	for a, idx := range org.ByAxis {
		byAxis[a] = stats.Counts(idx)
	}
	return Export{
		Metadata: ExportMetadata{
			ExportDate: now.UTC().Format(time.RFC3339),
			Version:    exportVersion,
			TotalPages: len(records),
			DataFormat: exportFormat,
		},
		Statistics: ExportStatistics{
			TotalPages:              sum.TotalCount,
			OntologyClassifiedPages: sum.OntologyClassifiedCount,
			AverageConfidence:       sum.AverageConfidence,
			Confidence:              sum.Confidence,
			Categories:              sum.CategoryFrequency,
			Sources:                 sum.SourceFrequency,
			Axes:                    sum.Axes,
		},
		Organization: ExportOrganization{
			ByCategory: stats.Counts(org.ByCategory),
			ByAxis:     byAxis,
		},
		Indexes: org,
		Pages:   records,
	}
}

// WriteStructured writes BuildExport(records, now) as indented JSON.
func WriteStructured(w io.Writer, records []models.PageRecord, now time.Time) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildExport(records, now))
}
