package stats

import "taxonomy-crawler/internal/models"

// Organization groups record positions by flat category and by axis label.
// Positions refer to the order of the sequence given to Organize.
type Organization struct {
	ByCategory map[string][]int                 `json:"by_category"`
	ByAxis     map[models.Axis]map[string][]int `json:"by_axis"`
}

// Organize builds the position indexes in a single ordered pass. A record
// that carries the same label twice on a multi-valued axis is listed once.
func Organize(records []models.PageRecord) Organization {
	org := Organization{
		ByCategory: map[string][]int{},
		ByAxis:     make(map[models.Axis]map[string][]int, len(models.Axes)),
	}
	for _, a := range models.Axes {
		org.ByAxis[a] = map[string][]int{}
	}
	for i, r := range records {
		cat := r.Category
		if cat == "" {
			cat = UncategorizedLabel
		}
		org.ByCategory[cat] = append(org.ByCategory[cat], i)

		for _, a := range models.Axes {
			for _, v := range r.Ontology.Values(a) {
				idx := org.ByAxis[a][v.Label]
				if n := len(idx); n > 0 && idx[n-1] == i {
					continue
				}
				org.ByAxis[a][v.Label] = append(idx, i)
			}
		}
	}
	return org
}

// Counts reduces an index to its sizes.
func Counts(index map[string][]int) map[string]int {
	out := make(map[string]int, len(index))
	for k, v := range index {
		out[k] = len(v)
	}
	return out
}
