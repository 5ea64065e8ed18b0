package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultMaxPages = 100
	DefaultDelay    = 0.8
)

// CrawlRequest is the payload of a crawl trigger.
type CrawlRequest struct {
	URL        string   `json:"url" validate:"required,url,startswith=http"`
	MaxPages   *int     `json:"max_pages,omitempty" validate:"omitempty,min=1,max=1000"`
	Delay      *float64 `json:"delay,omitempty" validate:"omitempty,min=0,max=5"`
	SinglePage bool     `json:"single_page"`
}

// CrawlResponse is the envelope returned by a crawl trigger.
type CrawlResponse struct {
	Success    bool         `json:"success"`
	Data       []PageRecord `json:"data,omitempty"`
	TotalPages int          `json:"total_pages,omitempty"`
	URL        string       `json:"url,omitempty"`
	Generation string       `json:"generation,omitempty"`
	Error      string       `json:"error,omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// WithDefaults fills unset fields with the crawl defaults.
func (r CrawlRequest) WithDefaults() CrawlRequest {
	r.URL = strings.TrimSpace(r.URL)
	if r.MaxPages == nil {
		n := DefaultMaxPages
		r.MaxPages = &n
	}
	if r.Delay == nil {
		d := DefaultDelay
		r.Delay = &d
	}
	return r
}

// Pages returns the page cap, or the default when unset.
func (r CrawlRequest) Pages() int {
	if r.MaxPages == nil {
		return DefaultMaxPages
	}
	return *r.MaxPages
}

// DelaySeconds returns the configured delay, or the default when unset.
func (r CrawlRequest) DelaySeconds() float64 {
	if r.Delay == nil {
		return DefaultDelay
	}
	return *r.Delay
}

// Validate checks the request bounds.
func (r CrawlRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid %s: failed %q check", fe.Field(), fe.Tag())
		}
		return err
	}
	return nil
}
