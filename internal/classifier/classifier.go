package classifier

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"

	"taxonomy-crawler/internal/models"
)

const (
	SourceOntology   = "ontology"
	SourcePredefined = "predefined"
	SourceAuto       = "auto"

	Uncategorized = "Uncategorized"

	// below these, the next classifier in the chain is consulted
	predefinedThreshold = 0.3
	llmThreshold        = 0.5

	multiThreshold = 0.3
	multiLimit     = 3
)

// predefined keyword taxonomy (extend as needed)
var predefinedTaxonomy = map[string][]string{
	"About":        {"about", "who we are", "history", "mission"},
	"News":         {"news", "press", "bulletin", "announc"},
	"Events":       {"event", "calendar", "schedule", "program"},
	"Institutions": {"school", "college", "institute", "home", "parish"},
	"Projects":     {"project", "initiative", "program"},
	"Contact":      {"contact", "address", "phone", "email"},
	"Media":        {"gallery", "photo", "video", "multimedia"},
	"Leadership":   {"rector", "principal", "director", "staff", "leadership"},
	"Admissions":   {"admission", "apply", "fees", "enroll"},
}

// Guesser is an external, best-effort classifier such as an LLM.
type Guesser interface {
	Guess(ctx context.Context, text string, categories []string) (category string, confidence float64, reason string, err error)
}

type Classifier struct {
	catalog models.Catalog
	guesser Guesser

	mu      sync.Mutex
	wordRes map[string]*regexp.Regexp
}

// New builds a classifier over catalog. guesser may be nil.
func New(catalog models.Catalog, guesser Guesser) *Classifier {
	return &Classifier{catalog: catalog, guesser: guesser, wordRes: map[string]*regexp.Regexp{}}
}

// Classify decides the ontology annotation and the flat category of page.
// The ontology wins unless it is missing or weak; then the predefined
// taxonomy and finally the guesser are consulted.
func (c *Classifier) Classify(ctx context.Context, p models.Page) models.Classification {
	onto := c.Ontology(p)
	out := models.Classification{Source: SourceOntology, Ontology: onto}

	switch {
	case onto.DocumentType != nil:
		out.Category, out.Confidence = onto.DocumentType.Label, onto.DocumentType.Confidence
	case onto.WorkType != nil:
		out.Category, out.Confidence = onto.WorkType.Label, onto.WorkType.Confidence
	case len(onto.AreasOfReference) > 0:
		out.Category, out.Confidence = onto.AreasOfReference[0].Label, onto.AreasOfReference[0].Confidence
	}

	if out.Category == "" || out.Confidence < predefinedThreshold {
		cat, conf := c.Predefined(p.CleanText + " " + p.Title + " " + p.MetaDescription)
		if cat != "" && (out.Category == "" || conf > out.Confidence) {
			out.Category, out.Confidence, out.Source = cat, conf, SourcePredefined
		}
	}

	if (out.Category == "" || out.Confidence < llmThreshold) && c.guesser != nil {
		cat, conf, reason, err := c.guesser.Guess(ctx, p.CleanText, predefinedCategories())
		if err == nil && cat != "" && (out.Category == "" || conf > out.Confidence) {
			out.Category, out.Confidence, out.Source, out.Reason = cat, conf, SourceAuto, reason
		}
	}

	if out.Category == "" {
		out.Category = Uncategorized
	}
	out.Confidence = models.Clamp01(out.Confidence)
	return out
}

// Ontology scores every catalog entry against the page.
func (c *Classifier) Ontology(p models.Page) *models.OntologyAnnotation {
	text := strings.ToLower(p.Title + " " + p.MetaDescription + " " + p.CleanText)
	onto := &models.OntologyAnnotation{}
	for _, axis := range models.Axes {
		scored := c.scoreAxis(text, axis)
		if axis.Multi() {
			var vs []models.AxisValue
			for _, v := range scored {
				if v.Confidence > multiThreshold {
					vs = append(vs, v)
				}
				if len(vs) == multiLimit {
					break
				}
			}
			switch axis {
			case models.AxisTheme:
				onto.Themes = vs
			case models.AxisAreaOfReference:
				onto.AreasOfReference = vs
			}
			continue
		}
		if len(scored) == 0 {
			continue
		}
		best := scored[0]
		switch axis {
		case models.AxisDocumentType:
			onto.DocumentType = &best
		case models.AxisWorkType:
			onto.WorkType = &best
		case models.AxisGeoArea:
			onto.GeoArea = &best
		case models.AxisSalesianFamilyGroup:
			onto.SalesianFamilyGroup = &best
		}
	}
	return onto
}

// scoreAxis returns the entries of axis with a positive score, best first;
// equal scores are ordered by id.
func (c *Classifier) scoreAxis(text string, axis models.Axis) []models.AxisValue {
	var out []models.AxisValue
	for id, label := range c.catalog[axis] {
		if s := c.score(text, id, label); s > 0 {
			out = append(out, models.AxisValue{ID: id, Label: label, Confidence: s})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence == out[j].Confidence {
			return out[i].ID < out[j].ID
		}
		return out[i].Confidence > out[j].Confidence
	})
	return out
}

// score: 0.5 per whole-word hit of an id word, 1.0 per hit of a label
// word, words of 3 chars or fewer ignored, normalized to min(score/10, 1).
func (c *Classifier) score(text, id, label string) float64 {
	var score float64
	for _, w := range strings.Fields(strings.ToLower(strings.ReplaceAll(id, "_", " "))) {
		if len(w) > 3 {
			score += 0.5 * float64(c.count(text, w))
		}
	}
	for _, w := range strings.Fields(strings.ToLower(label)) {
		if len(w) > 3 {
			score += float64(c.count(text, w))
		}
	}
	if score > 0 {
		score = min(score/10, 1)
	}
	return score
}

// Predefined picks the best keyword category; confidence is its share of
// all keyword hits.
func (c *Classifier) Predefined(text string) (string, float64) {
	text = strings.ToLower(text)
	scores := map[string]int{}
	total := 0
	for cat, keywords := range predefinedTaxonomy {
		n := 0
		for _, k := range keywords {
			n += c.count(text, k)
		}
		if n > 0 {
			scores[cat] = n
			total += n
		}
	}
	if total == 0 {
		return "", 0
	}
	best := ""
	for cat, n := range scores {
		if best == "" || n > scores[best] || (n == scores[best] && cat < best) {
			best = cat
		}
	}
	return best, float64(scores[best]) / float64(total)
}

func (c *Classifier) count(text, word string) int {
	return len(c.wordRe(word).FindAllStringIndex(text, -1))
}

func (c *Classifier) wordRe(word string) *regexp.Regexp {
	c.mu.Lock()
	defer c.mu.Unlock()
	re, ok := c.wordRes[word]
	if !ok {
		re = regexp.MustCompile(`\b` + regexp.QuoteMeta(word) + `\b`)
		c.wordRes[word] = re
	}
	return re
}

func predefinedCategories() []string {
	out := make([]string, 0, len(predefinedTaxonomy))
	for k := range predefinedTaxonomy {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
