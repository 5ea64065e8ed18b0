package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Axis names one of the six independent taxonomy dimensions.
type Axis string

const (
	AxisDocumentType        Axis = "document_type"
	AxisWorkType            Axis = "work_type"
	AxisTheme               Axis = "theme"
	AxisAreaOfReference     Axis = "area_of_reference"
	AxisGeoArea             Axis = "geo_area"
	AxisSalesianFamilyGroup Axis = "salesian_family_group"
)

// Axes lists every axis in display order.
var Axes = []Axis{
	AxisDocumentType,
	AxisWorkType,
	AxisTheme,
	AxisAreaOfReference,
	AxisGeoArea,
	AxisSalesianFamilyGroup,
}

var catalogKeys = map[Axis]string{
	AxisDocumentType:        "document_types",
	AxisWorkType:            "work_types",
	AxisTheme:               "themes",
	AxisAreaOfReference:     "areas_of_reference",
	AxisGeoArea:             "geo_areas",
	AxisSalesianFamilyGroup: "salesian_family_groups",
}

// Multi reports whether records may carry several values on this axis.
func (a Axis) Multi() bool {
	return a == AxisTheme || a == AxisAreaOfReference
}

// CatalogKey is the plural key used by catalog payloads.
func (a Axis) CatalogKey() string { return catalogKeys[a] }

func (a Axis) Valid() bool {
	_, ok := catalogKeys[a]
	return ok
}

// ParseAxis accepts both the singular axis name and the plural catalog key.
func ParseAxis(s string) (Axis, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, a := range Axes {
		if s == string(a) || s == a.CatalogKey() {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown axis %q", s)
}

// Catalog maps each axis to its id→label table. It is loaded once per
// session and never mutated afterwards.
type Catalog map[Axis]map[string]string

// Label returns the catalog label for id on axis.
func (c Catalog) Label(axis Axis, id string) (string, bool) {
	l, ok := c[axis][id]
	return l, ok
}

func (c Catalog) MarshalJSON() ([]byte, error) {
	out := make(map[string]map[string]string, len(Axes))
	for _, a := range Axes {
		t := c[a]
		if t == nil {
			t = map[string]string{}
		}
		out[a.CatalogKey()] = t
	}
	return json.Marshal(out)
}

func (c *Catalog) UnmarshalJSON(data []byte) error {
	var raw map[string]map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	cat, err := CatalogFromKeys(raw)
	if err != nil {
		return err
	}
	*c = cat
	return nil
}

// CatalogFromKeys builds a Catalog from a map keyed by axis name or
// plural catalog key. Every axis gets a table, possibly empty.
func CatalogFromKeys(raw map[string]map[string]string) (Catalog, error) {
	cat := NewCatalog()
	for k, table := range raw {
		a, err := ParseAxis(k)
		if err != nil {
			return nil, err
		}
		for id, label := range table {
			cat[a][id] = label
		}
	}
	return cat, nil
}

// NewCatalog returns a catalog with an empty table per axis.
func NewCatalog() Catalog {
	c := make(Catalog, len(Axes))
	for _, a := range Axes {
		c[a] = map[string]string{}
	}
	return c
}
