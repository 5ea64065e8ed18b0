package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"taxonomy-crawler/internal/models"
)

const responseSchema = `{
  "type": "object",
  "required": ["success"],
  "properties": {
    "success": {"type": "boolean"},
    "error": {"type": "string"},
    "categories": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "additionalProperties": {"type": "string"}
      }
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(responseSchema)

// Response is the envelope served by a catalog endpoint.
type Response struct {
	Success    bool           `json:"success"`
	Categories models.Catalog `json:"categories,omitempty"`
	Statistics map[string]int `json:"statistics,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// HTTPSource fetches the catalog from a remote endpoint answering with
// Response.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{URL: url, Client: &http.Client{Timeout: timeout}}
}

func (h *HTTPSource) Fetch(ctx context.Context) (models.Catalog, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(body))
	if err != nil {
		if resp.StatusCode >= 300 {
			return nil, fmt.Errorf("%w: http status %d", ErrUnavailable, resp.StatusCode)
		}
		return nil, fmt.Errorf("decode catalog response: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("%w: invalid response: %s", ErrUnavailable, strings.Join(msgs, "; "))
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode catalog response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !out.Success {
		msg := out.Error
		if msg == "" {
			msg = fmt.Sprintf("http status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, msg)
	}
	if out.Categories == nil {
		return models.NewCatalog(), nil
	}
	return out.Categories, nil
}
