package stats

import "taxonomy-crawler/internal/models"

// AxisUsage reports how much of one catalog table the data actually uses.
type AxisUsage struct {
	CatalogSize int            `json:"catalog_size"`
	Used        int            `json:"used"`
	Percentage  float64        `json:"percentage"`
	ByID        map[string]int `json:"by_id"`
}

// Usage counts, per axis, how many records reference each catalog id.
// Ids found in the data but missing from the catalog are still counted in
// ByID, but only catalog ids contribute to Used.
func Usage(records []models.PageRecord, catalog models.Catalog) map[models.Axis]AxisUsage {
	out := make(map[models.Axis]AxisUsage, len(models.Axes))
	for _, a := range models.Axes {
		out[a] = AxisUsage{CatalogSize: len(catalog[a]), ByID: map[string]int{}}
	}
	for _, r := range records {
		for _, a := range models.Axes {
			for _, v := range r.Ontology.Values(a) {
				out[a].ByID[v.ID]++
			}
		}
	}
	for a, u := range out {
		for id := range u.ByID {
			if _, ok := catalog[a][id]; ok {
				u.Used++
			}
		}
		if u.CatalogSize > 0 {
			u.Percentage = float64(u.Used) / float64(u.CatalogSize) * 100
		}
		out[a] = u
	}
	return out
}
