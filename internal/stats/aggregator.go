package stats

import (
	"sort"

	"taxonomy-crawler/internal/models"
)

const (
	UncategorizedLabel = "Uncategorized"
	UnknownSource      = "unknown"

	HighConfidence   = 0.7
	MediumConfidence = 0.5
)

// Histogram partitions records by confidence.
type Histogram struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// Summary is the aggregate view of a record set.
type Summary struct {
	TotalCount              int                            `json:"total_count"`
	CategoryFrequency       map[string]int                 `json:"category_frequency"`
	SourceFrequency         map[string]int                 `json:"source_frequency"`
	Confidence              Histogram                      `json:"confidence"`
	AverageConfidence       float64                        `json:"average_confidence"`
	OntologyClassifiedCount int                            `json:"ontology_classified_count"`
	Axes                    map[models.Axis]map[string]int `json:"axes"`
}

// Count is one row of a frequency table.
type Count struct {
	Label string `json:"label"`
	N     int    `json:"count"`
}

// Bucket names the histogram bucket a confidence falls in.
func Bucket(confidence float64) string {
	switch {
	case confidence >= HighConfidence:
		return "high"
	case confidence >= MediumConfidence:
		return "medium"
	default:
		return "low"
	}
}

// Aggregate summarizes records. It never fails and does not modify its
// input.
func Aggregate(records []models.PageRecord) Summary {
	s := Summary{
		TotalCount:        len(records),
		CategoryFrequency: map[string]int{},
		SourceFrequency:   map[string]int{},
		Axes:              make(map[models.Axis]map[string]int, len(models.Axes)),
	}
	for _, a := range models.Axes {
		s.Axes[a] = map[string]int{}
	}

	var total float64
	for _, r := range records {
		cat := r.Category
		if cat == "" {
			cat = UncategorizedLabel
		}
		s.CategoryFrequency[cat]++

		src := r.CategorySource
		if src == "" {
			src = UnknownSource
		}
		s.SourceFrequency[src]++

		conf := models.Clamp01(r.Confidence)
		total += conf
		switch Bucket(conf) {
		case "high":
			s.Confidence.High++
		case "medium":
			s.Confidence.Medium++
		default:
			s.Confidence.Low++
		}

		if r.Ontology.Empty() {
			continue
		}
		s.OntologyClassifiedCount++
		for _, a := range models.Axes {
			for _, v := range r.Ontology.Values(a) {
				s.Axes[a][v.Label]++
			}
		}
	}

	if s.TotalCount > 0 {
		s.AverageConfidence = total / float64(s.TotalCount)
	}
	return s
}

// SortedCategories returns the flat category frequency, most frequent first.
func (s Summary) SortedCategories() []Count { return sortCounts(s.CategoryFrequency) }

// SortedSources returns the source frequency, most frequent first.
func (s Summary) SortedSources() []Count { return sortCounts(s.SourceFrequency) }

// Sorted returns the label frequency of axis, most frequent first.
func (s Summary) Sorted(axis models.Axis) []Count { return sortCounts(s.Axes[axis]) }

func sortCounts(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for k, v := range m {
		out = append(out, Count{Label: k, N: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].N == out[j].N {
			return out[i].Label < out[j].Label
		}
		return out[i].N > out[j].N
	})
	return out
}
