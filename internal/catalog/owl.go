package catalog

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"taxonomy-crawler/internal/models"
)

const (
	nsRDF = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	nsOWL = "http://www.w3.org/2002/07/owl#"
)

type rdfResource struct {
	Resource string `xml:"http://www.w3.org/1999/02/22-rdf-syntax-ns# resource,attr"`
}

type rdfEntity struct {
	About string        `xml:"http://www.w3.org/1999/02/22-rdf-syntax-ns# about,attr"`
	Label string        `xml:"http://www.w3.org/2000/01/rdf-schema# label"`
	Types []rdfResource `xml:"http://www.w3.org/1999/02/22-rdf-syntax-ns# type"`
}

// type-name fragments, checked in this order
var owlTypes = []struct {
	fragment string
	axis     models.Axis
}{
	{"DocumentType", models.AxisDocumentType},
	{"WorkType", models.AxisWorkType},
	{"Theme", models.AxisTheme},
	{"AreaOfReference", models.AxisAreaOfReference},
	{"GeoArea", models.AxisGeoArea},
	{"SalesianFamilyGroup", models.AxisSalesianFamilyGroup},
}

// LoadOWL reads an RDF/XML ontology. Every rdf:Description or
// owl:NamedIndividual with an rdf:about contributes one entry: the local
// name after '#' is the id, rdfs:label the label (the id when missing), and
// the first rdf:type naming a known class picks the axis.
func LoadOWL(r io.Reader) (models.Catalog, error) {
	cat := models.NewCatalog()
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return cat, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parse owl: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || !isEntity(se.Name) {
			continue
		}
		var e rdfEntity
		if err := dec.DecodeElement(&e, &se); err != nil {
			return nil, fmt.Errorf("parse owl entity: %w", err)
		}
		if e.About == "" {
			continue
		}
		id := e.About
		if i := strings.LastIndex(id, "#"); i >= 0 {
			id = id[i+1:]
		}
		label := strings.TrimSpace(e.Label)
		if label == "" {
			label = id
		}
		if axis, ok := axisOf(e.Types); ok {
			cat[axis][id] = label
		}
	}
}

func isEntity(n xml.Name) bool {
	return (n.Space == nsRDF && n.Local == "Description") ||
		(n.Space == nsOWL && n.Local == "NamedIndividual")
}

func axisOf(types []rdfResource) (models.Axis, bool) {
	for _, t := range types {
		for _, ot := range owlTypes {
			if strings.Contains(t.Resource, ot.fragment) {
				return ot.axis, true
			}
		}
	}
	return "", false
}
