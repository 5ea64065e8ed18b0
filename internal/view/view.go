package view

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"taxonomy-crawler/internal/models"
)

const (
	AllCategories   = "all"
	DefaultPageSize = 20
)

type SortKey string

const (
	SortTitle      SortKey = "title"
	SortCategory   SortKey = "category"
	SortURL        SortKey = "url"
	SortConfidence SortKey = "confidence"
)

type SortDir string

const (
	Asc  SortDir = "asc"
	Desc SortDir = "desc"
)

// Query describes one list view over a record set.
type Query struct {
	Text     string  `form:"q"`
	Category string  `form:"category"`
	SortKey  SortKey `form:"sort"`
	SortDir  SortDir `form:"dir"`
	Page     int     `form:"page"`
	PageSize int     `form:"page_size"`

	// MatchCategory extends the free-text predicate to the flat category.
	MatchCategory bool `form:"-"`

	// Locale drives string collation; language.English when zero.
	Locale language.Tag `form:"-"`
}

// Result is one page of a filtered and sorted view.
type Result struct {
	Items         []models.PageRecord `json:"items"`
	TotalFiltered int                 `json:"total_filtered"`
	TotalPages    int                 `json:"total_pages"`
}

// View filters, sorts and slices records. The input is never modified.
func View(records []models.PageRecord, q Query) Result {
	filtered := Filter(records, q)
	Sort(filtered, q)

	size := q.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	res := Result{
		Items:         []models.PageRecord{},
		TotalFiltered: len(filtered),
		TotalPages:    (len(filtered) + size - 1) / size,
	}
	if q.Page < 1 {
		return res
	}
	start := (q.Page - 1) * size
	if start >= len(filtered) {
		return res
	}
	end := start + size
	if end > len(filtered) {
		end = len(filtered)
	}
	res.Items = filtered[start:end]
	return res
}

// Filter returns a fresh slice holding the records that pass the text
// predicate and the category filter, in input order.
func Filter(records []models.PageRecord, q Query) []models.PageRecord {
	term := strings.ToLower(strings.TrimSpace(q.Text))
	cat := q.Category
	if strings.EqualFold(cat, AllCategories) {
		cat = ""
	}
	out := make([]models.PageRecord, 0, len(records))
	for _, r := range records {
		if cat != "" && r.Category != cat {
			continue
		}
		if term != "" && !matchText(r, term, q.MatchCategory) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchText(r models.PageRecord, term string, withCategory bool) bool {
	fields := []string{r.Title, r.URL, r.MetaDescription}
	if withCategory {
		fields = append(fields, r.Category)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// Sort orders records in place. Records comparing equal keep their
// relative order in either direction. An empty SortKey leaves the order
// untouched.
func Sort(records []models.PageRecord, q Query) {
	less := comparator(q)
	if less == nil {
		return
	}
	sort.SliceStable(records, func(i, j int) bool {
		c := less(records[i], records[j])
		if q.SortDir == Desc {
			return c > 0
		}
		return c < 0
	})
}

func comparator(q Query) func(a, b models.PageRecord) int {
	if q.SortKey == SortConfidence {
		return func(a, b models.PageRecord) int {
			x, y := models.Clamp01(a.Confidence), models.Clamp01(b.Confidence)
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	}

	var field func(models.PageRecord) string
	switch q.SortKey {
	case SortTitle:
		field = func(r models.PageRecord) string { return r.Title }
	case SortCategory:
		field = func(r models.PageRecord) string { return r.Category }
	case SortURL:
		field = func(r models.PageRecord) string { return r.URL }
	default:
		return nil
	}

	tag := q.Locale
	if tag == language.Und {
		tag = language.English
	}
	coll := collate.New(tag)
	return func(a, b models.PageRecord) int {
		return coll.CompareString(strings.ToLower(field(a)), strings.ToLower(field(b)))
	}
}
