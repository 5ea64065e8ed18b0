package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"taxonomy-crawler/internal/models"
)

// ErrUnavailable is returned when a catalog source answers but carries no
// usable catalog.
var ErrUnavailable = errors.New("catalog unavailable")

// Source produces a taxonomy catalog.
type Source interface {
	Fetch(ctx context.Context) (models.Catalog, error)
}

// File is a Source backed by a local OWL, YAML or JSON file.
type File string

func (f File) Fetch(_ context.Context) (models.Catalog, error) {
	return LoadFile(string(f))
}

// LoadFile picks a decoder from the file extension.
func LoadFile(path string) (models.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".owl", ".rdf", ".xml":
		return LoadOWL(f)
	case ".yaml", ".yml":
		return LoadYAML(f)
	case ".json":
		return LoadJSON(f)
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", filepath.Ext(path))
	}
}

// LoadJSON reads {"document_types": {"id": "label"}, ...}.
func LoadJSON(r io.Reader) (models.Catalog, error) {
	var raw map[string]map[string]string
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode catalog json: %w", err)
	}
	return models.CatalogFromKeys(raw)
}

// LoadYAML reads the same layout as LoadJSON from YAML.
func LoadYAML(r io.Reader) (models.Catalog, error) {
	var raw map[string]map[string]string
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode catalog yaml: %w", err)
	}
	return models.CatalogFromKeys(raw)
}

// Stats returns the number of entries per axis, keyed "<catalog key>_count".
func Stats(c models.Catalog) map[string]int {
	out := make(map[string]int, len(models.Axes))
	for _, a := range models.Axes {
		out[a.CatalogKey()+"_count"] = len(c[a])
	}
	return out
}
