package models

import "strings"

// Page is the parsed form of a fetched HTML document.
type Page struct {
	Title           string   `json:"title,omitempty"`
	MetaDescription string   `json:"meta_description,omitempty"`
	ULBlocks        []string `json:"ul_blocks,omitempty"`
	LIItems         []string `json:"li_items,omitempty"`
	CleanText       string   `json:"clean_text,omitempty"`
	FullHTML        string   `json:"full_html,omitempty"`
	Links           []string `json:"links,omitempty"`
}

// AxisValue is one classification on a taxonomy axis.
type AxisValue struct {
	ID         string  `json:"id"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// OntologyAnnotation holds the per-axis classification of a page. Every
// axis is optional.
type OntologyAnnotation struct {
	DocumentType        *AxisValue  `json:"document_type,omitempty"`
	WorkType            *AxisValue  `json:"work_type,omitempty"`
	Themes              []AxisValue `json:"themes,omitempty"`
	AreasOfReference    []AxisValue `json:"areas_of_reference,omitempty"`
	GeoArea             *AxisValue  `json:"geo_area,omitempty"`
	SalesianFamilyGroup *AxisValue  `json:"salesian_family_group,omitempty"`
}

// Empty reports whether no axis carries a value.
func (o *OntologyAnnotation) Empty() bool {
	if o == nil {
		return true
	}
	return o.DocumentType == nil && o.WorkType == nil && o.GeoArea == nil &&
		o.SalesianFamilyGroup == nil && len(o.Themes) == 0 && len(o.AreasOfReference) == 0
}

// Values returns the values recorded for axis, in order. Single-valued axes
// yield at most one element.
func (o *OntologyAnnotation) Values(axis Axis) []AxisValue {
	if o == nil {
		return nil
	}
	single := func(v *AxisValue) []AxisValue {
		if v == nil {
			return nil
		}
		return []AxisValue{*v}
	}
	switch axis {
	case AxisDocumentType:
		return single(o.DocumentType)
	case AxisWorkType:
		return single(o.WorkType)
	case AxisGeoArea:
		return single(o.GeoArea)
	case AxisSalesianFamilyGroup:
		return single(o.SalesianFamilyGroup)
	case AxisTheme:
		return o.Themes
	case AxisAreaOfReference:
		return o.AreasOfReference
	}
	return nil
}

// PageRecord is one crawled page. URL is the identity key within a session.
type PageRecord struct {
	URL             string              `json:"url"`
	Title           string              `json:"title,omitempty"`
	MetaDescription string              `json:"meta_description,omitempty"`
	Category        string              `json:"category,omitempty"`
	CategorySource  string              `json:"category_source,omitempty"`
	CategoryReason  string              `json:"category_reason,omitempty"`
	Confidence      float64             `json:"confidence"`
	Ontology        *OntologyAnnotation `json:"ontology,omitempty"`

	// Opaque payload, carried through untouched.
	ULBlocks        []string `json:"ul_blocks,omitempty"`
	LIItems         []string `json:"li_items,omitempty"`
	CleanText       string   `json:"clean_text,omitempty"`
	FullHTMLSnippet string   `json:"full_html_snippet,omitempty"`
}

// Classification is the flat category decided for a page plus its
// ontology annotation.
type Classification struct {
	Category   string
	Confidence float64
	Source     string
	Reason     string
	Ontology   *OntologyAnnotation
}

// Clamp01 bounds a confidence to [0,1]; NaN becomes 0.
func Clamp01(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Normalize returns a copy of records with every confidence clamped to
// [0,1]. Order is preserved.
func Normalize(records []PageRecord) []PageRecord {
	out := make([]PageRecord, len(records))
	for i, r := range records {
		r.Confidence = Clamp01(r.Confidence)
		r.URL = strings.TrimSpace(r.URL)
		if r.Ontology != nil {
			o := *r.Ontology
			o.DocumentType = clampValue(o.DocumentType)
			o.WorkType = clampValue(o.WorkType)
			o.GeoArea = clampValue(o.GeoArea)
			o.SalesianFamilyGroup = clampValue(o.SalesianFamilyGroup)
			o.Themes = clampValues(o.Themes)
			o.AreasOfReference = clampValues(o.AreasOfReference)
			r.Ontology = &o
		}
		out[i] = r
	}
	return out
}

func clampValue(v *AxisValue) *AxisValue {
	if v == nil {
		return nil
	}
	c := *v
	c.Confidence = Clamp01(c.Confidence)
	return &c
}

func clampValues(vs []AxisValue) []AxisValue {
	if vs == nil {
		return nil
	}
	out := make([]AxisValue, len(vs))
	for i, v := range vs {
		v.Confidence = Clamp01(v.Confidence)
		out[i] = v
	}
	return out
}
