package view

import (
	"fmt"
	"strings"

	"taxonomy-crawler/internal/models"
)

// Locator resolves a record back to its position in the original,
// unfiltered sequence by identity (URL) rather than by where it sits in a
// derived view.
type Locator struct {
	index map[string]int
	dups  int
}

// NewLocator indexes records. When two records share a URL the first one
// keeps the identity.
func NewLocator(records []models.PageRecord) *Locator {
	l := &Locator{index: make(map[string]int, len(records))}
	for i, r := range records {
		if _, ok := l.index[r.URL]; ok {
			l.dups++
			continue
		}
		l.index[r.URL] = i
	}
	return l
}

// IndexOf returns the canonical index of r.
func (l *Locator) IndexOf(r models.PageRecord) (int, bool) {
	if l == nil {
		return 0, false
	}
	i, ok := l.index[r.URL]
	return i, ok
}

// Duplicates is the number of records that lost their identity to an
// earlier record with the same URL.
func (l *Locator) Duplicates() int {
	if l == nil {
		return 0
	}
	return l.dups
}

// Item pairs a record with its canonical index.
type Item struct {
	Index  int               `json:"index"`
	Record models.PageRecord `json:"record"`
}

// Attach pairs every record with its canonical index; records unknown to
// the locator get -1.
func (l *Locator) Attach(records []models.PageRecord) []Item {
	out := make([]Item, len(records))
	for i, r := range records {
		idx, ok := l.IndexOf(r)
		if !ok {
			idx = -1
		}
		out[i] = Item{Index: idx, Record: r}
	}
	return out
}

// ParseSort validates a sort key and direction taken from user input.
// Empty values fall back to title ascending.
func ParseSort(key, dir string) (SortKey, SortDir, error) {
	k := SortKey(strings.ToLower(strings.TrimSpace(key)))
	switch k {
	case "":
		k = SortTitle
	case SortTitle, SortCategory, SortURL, SortConfidence:
	default:
		return "", "", fmt.Errorf("unknown sort key %q", key)
	}
	d := SortDir(strings.ToLower(strings.TrimSpace(dir)))
	switch d {
	case "":
		d = Asc
	case Asc, Desc:
	default:
		return "", "", fmt.Errorf("unknown sort direction %q", dir)
	}
	return k, d, nil
}
