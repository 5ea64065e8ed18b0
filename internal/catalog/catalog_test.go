package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxonomy-crawler/internal/models"
)

const sampleOWL = `<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:rdfs="http://www.w3.org/2000/01/rdf-schema#"
         xmlns:owl="http://www.w3.org/2002/07/owl#">
  <rdf:Description rdf:about="http://example.org/sst#Doc_Letter_RectorMajor">
    <rdf:type rdf:resource="http://example.org/sst#DocumentType"/>
    <rdfs:label>Letter of the Rector Major</rdfs:label>
  </rdf:Description>
  <rdf:Description rdf:about="http://example.org/sst#Work_School">
    <rdf:type rdf:resource="http://example.org/sst#WorkType"/>
    <rdfs:label>School</rdfs:label>
  </rdf:Description>
  <rdf:Description rdf:about="http://example.org/sst#Theme_family">
    <rdf:type rdf:resource="http://example.org/sst#Theme"/>
  </rdf:Description>
  <owl:NamedIndividual rdf:about="http://example.org/sst#Area_History">
    <rdf:type rdf:resource="http://example.org/sst#AreaOfReference"/>
    <rdfs:label>History</rdfs:label>
  </owl:NamedIndividual>
  <rdf:Description rdf:about="http://example.org/sst#Geo_India">
    <rdf:type rdf:resource="http://example.org/sst#GeoArea"/>
    <rdfs:label>India</rdfs:label>
  </rdf:Description>
  <rdf:Description rdf:about="http://example.org/sst#SFG_FMA">
    <rdf:type rdf:resource="http://example.org/sst#SalesianFamilyGroup"/>
    <rdfs:label>Daughters of Mary Help of Christians</rdfs:label>
  </rdf:Description>
  <rdf:Description rdf:about="http://example.org/sst#Unrelated">
    <rdf:type rdf:resource="http://example.org/sst#Other"/>
  </rdf:Description>
  <rdf:Description>
    <rdfs:label>no about</rdfs:label>
  </rdf:Description>
</rdf:RDF>`

func TestLoadOWL(t *testing.T) {
	cat, err := LoadOWL(strings.NewReader(sampleOWL))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"Doc_Letter_RectorMajor": "Letter of the Rector Major"}, cat[models.AxisDocumentType])
	assert.Equal(t, map[string]string{"Work_School": "School"}, cat[models.AxisWorkType])
	assert.Equal(t, map[string]string{"Theme_family": "Theme_family"}, cat[models.AxisTheme], "label falls back to id")
	assert.Equal(t, map[string]string{"Area_History": "History"}, cat[models.AxisAreaOfReference])
	assert.Equal(t, "India", cat[models.AxisGeoArea]["Geo_India"])
	assert.Len(t, cat[models.AxisSalesianFamilyGroup], 1)
}

func TestLoadOWLMalformed(t *testing.T) {
	_, err := LoadOWL(strings.NewReader(`<rdf:RDF xmlns:rdf="x"><unclosed>`))
	assert.Error(t, err)
}

func TestLoadYAMLAndJSON(t *testing.T) {
	y := `
document_types:
  Doc_Video: Video
work_type:
  Work_Parish: Parish
`
	cat, err := LoadYAML(strings.NewReader(y))
	require.NoError(t, err)
	assert.Equal(t, "Video", cat[models.AxisDocumentType]["Doc_Video"])
	assert.Equal(t, "Parish", cat[models.AxisWorkType]["Work_Parish"])
	assert.NotNil(t, cat[models.AxisGeoArea])

	cat, err = LoadJSON(strings.NewReader(`{"themes": {"T1": "Youth"}}`))
	require.NoError(t, err)
	assert.Equal(t, "Youth", cat[models.AxisTheme]["T1"])

	_, err = LoadJSON(strings.NewReader(`{"colours": {"r": "red"}}`))
	assert.Error(t, err)
}

func TestLoadFileDispatch(t *testing.T) {
	dir := t.TempDir()
	owl := filepath.Join(dir, "sst.owl")
	require.NoError(t, os.WriteFile(owl, []byte(sampleOWL), 0o644))
	cat, err := File(owl).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, len(cat[models.AxisWorkType]))

	txt := filepath.Join(dir, "sst.txt")
	require.NoError(t, os.WriteFile(txt, []byte("x"), 0o644))
	_, err = LoadFile(txt)
	assert.Error(t, err)

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestStats(t *testing.T) {
	cat, err := LoadOWL(strings.NewReader(sampleOWL))
	require.NoError(t, err)
	s := Stats(cat)
	assert.Equal(t, 1, s["document_types_count"])
	assert.Equal(t, 1, s["salesian_family_groups_count"])
	assert.Len(t, s, 6)
}

func TestHTTPSource(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		check   func(t *testing.T, c models.Catalog)
	}{
		{
			name:   "success",
			status: http.StatusOK,
			body:   `{"success": true, "categories": {"document_types": {"DT1": "Letter"}}}`,
			check: func(t *testing.T, c models.Catalog) {
				assert.Equal(t, "Letter", c[models.AxisDocumentType]["DT1"])
			},
		},
		{
			name:    "error payload",
			status:  http.StatusNotFound,
			body:    `{"success": false, "error": "OWL file salesian_simple.owl not found"}`,
			wantErr: ErrUnavailable,
		},
		{
			name:    "success false with 200",
			status:  http.StatusOK,
			body:    `{"success": false}`,
			wantErr: ErrUnavailable,
		},
		{
			name:    "schema violation",
			status:  http.StatusOK,
			body:    `{"success": "yes"}`,
			wantErr: ErrUnavailable,
		},
		{
			name:    "non json 500",
			status:  http.StatusInternalServerError,
			body:    `<html>boom</html>`,
			wantErr: ErrUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			cat, err := NewHTTPSource(ts.URL, 2*time.Second).Fetch(context.Background())
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), err.Error())
				return
			}
			require.NoError(t, err)
			tt.check(t, cat)
		})
	}
}

func TestHTTPSourceErrorMessageSurfaced(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success": false, "error": "OWL file missing"}`))
	}))
	defer ts.Close()

	_, err := NewHTTPSource(ts.URL, time.Second).Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OWL file missing")
}
