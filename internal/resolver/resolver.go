// Package resolver maps a category selector on one taxonomy axis to the
// records that belong to it.
//
// The catalog that selectors come from is maintained apart from the
// classifier that annotates records, so ids and labels drift in case and
// wording. Resolution therefore walks an ordered list of tiers, each a
// looser match than the last, and stops at the first tier that matches
// anything.
package resolver

import (
	"strings"

	"taxonomy-crawler/internal/models"
)

// Selector identifies a category by id, label, or both.
type Selector struct {
	ID    string `json:"id,omitempty" form:"id"`
	Label string `json:"label,omitempty" form:"label"`
}

// Empty reports whether the selector names nothing.
func (s Selector) Empty() bool {
	return s.ID == "" && Normalize(s.Label) == ""
}

// Normalize lower-cases and trims a label.
func Normalize(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// Tier is one step of the fallback policy.
type Tier int

const (
	TierNone Tier = iota
	TierExact
	TierIDFold
	TierSubstring
)

func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierIDFold:
		return "id_case_insensitive"
	case TierSubstring:
		return "substring"
	default:
		return "none"
	}
}

// strategy decides whether it applies to a selector and, if so, matches a
// single axis value against it.
type strategy struct {
	tier    Tier
	applies func(id, label string) bool
	match   func(v models.AxisValue, id, label string) bool
}

// tiers is evaluated in order; the first non-empty result wins.
var tiers = []strategy{
	{
		tier:    TierExact,
		applies: func(id, label string) bool { return id != "" || label != "" },
		match: func(v models.AxisValue, id, label string) bool {
			return (id != "" && v.ID == id) || (label != "" && Normalize(v.Label) == label)
		},
	},
	{
		tier:    TierIDFold,
		applies: func(id, _ string) bool { return id != "" },
		match: func(v models.AxisValue, id, _ string) bool {
			return v.ID != "" && strings.EqualFold(v.ID, id)
		},
	},
	{
		tier:    TierSubstring,
		applies: func(_, label string) bool { return label != "" },
		match: func(v models.AxisValue, _, label string) bool {
			l := Normalize(v.Label)
			if l == "" {
				return false
			}
			return strings.Contains(l, label) || strings.Contains(label, l)
		},
	},
}

// Match reports whether a single axis value satisfies tier t for sel.
// It returns false when the tier does not apply to the selector.
func (t Tier) Match(v models.AxisValue, sel Selector) bool {
	for _, s := range tiers {
		if s.tier == t {
			id, label := sel.ID, Normalize(sel.Label)
			return s.applies(id, label) && s.match(v, id, label)
		}
	}
	return false
}

// Resolve returns the records of the first tier that matches anything on
// axis, in their original order. An empty result is a normal outcome.
func Resolve(records []models.PageRecord, axis models.Axis, sel Selector) []models.PageRecord {
	out, _ := ResolveTier(records, axis, sel)
	return out
}

// ResolveTier is Resolve that also reports which tier produced the result.
func ResolveTier(records []models.PageRecord, axis models.Axis, sel Selector) ([]models.PageRecord, Tier) {
	if !axis.Valid() || sel.Empty() {
		return []models.PageRecord{}, TierNone
	}
	id, label := sel.ID, Normalize(sel.Label)
	for _, s := range tiers {
		if !s.applies(id, label) {
			continue
		}
		if out := filter(records, axis, s, id, label); len(out) > 0 {
			return out, s.tier
		}
	}
	return []models.PageRecord{}, TierNone
}

func filter(records []models.PageRecord, axis models.Axis, s strategy, id, label string) []models.PageRecord {
	var out []models.PageRecord
	for _, r := range records {
		for _, v := range r.Ontology.Values(axis) {
			if s.match(v, id, label) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}
