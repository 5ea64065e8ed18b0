package parser

import (
	"bytes"
	"io"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"taxonomy-crawler/internal/models"
)

type Parser struct{}

func New() *Parser { return &Parser{} }

var whitespaceRe = regexp.MustCompile(`\s+`)

// Extract parses an HTML document. Relative links are resolved against
// base when it is non-nil.
func (p *Parser) Extract(r io.Reader, contentType string, base *url.URL) (models.Page, error) {
	// Decode to UTF-8 if needed
	buf := new(bytes.Buffer)
	_, _ = io.Copy(buf, r)
	data := buf.Bytes()

	enc, _, _ := charset.DetermineEncoding(data, contentType)
	utf8data, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		// fallback: if already utf-8, continue
		if !utf8.Valid(data) {
			return models.Page{}, err
		}
		utf8data = data
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(utf8data))
	if err != nil {
		return models.Page{}, err
	}

	fullHTML, _ := doc.Html()

	// links are taken before scripts are stripped so nothing is lost
	var links []string
	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" {
			return
		}
		if base != nil {
			ref, err := url.Parse(href)
			if err != nil {
				return
			}
			href = base.ResolveReference(ref).String()
		}
		links = append(links, href)
	})

	doc.Find("script,noscript,style").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	title := strings.TrimSpace(doc.Find("title").First().Text())
	desc := strings.TrimSpace(doc.Find(`meta[name="description"]`).AttrOr("content", ""))
	if desc == "" {
		desc = strings.TrimSpace(doc.Find(`meta[property="og:description"]`).AttrOr("content", ""))
	}

	var ulBlocks []string
	doc.Find("ul").Each(func(i int, s *goquery.Selection) {
		if h, err := goquery.OuterHtml(s); err == nil {
			ulBlocks = append(ulBlocks, h)
		}
	})

	var liItems []string
	doc.Find("li").Each(func(i int, s *goquery.Selection) {
		liItems = append(liItems, collapse(s.Text()))
	})

	text := collapse(doc.Find("body").Text())
	if text == "" {
		text = collapse(doc.Text())
	}

	return models.Page{
		Title:           title,
		MetaDescription: desc,
		ULBlocks:        ulBlocks,
		LIItems:         liItems,
		CleanText:       text,
		FullHTML:        fullHTML,
		Links:           links,
	}, nil
}

func collapse(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
