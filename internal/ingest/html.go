package ingest

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"
)

// sanitizePolicy drops scripts, styles and event handlers while keeping the
// block structure paragraphs are read from.
func sanitizePolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("article", "section", "div", "p", "span")
	return p
}

// ParseHTML splits an HTML page into its title and <p> paragraphs.
// Paragraphs are NFC-normalised with whitespace collapsed; empty ones are
// dropped. When the page has no <p> elements the body text becomes a single
// paragraph.
func ParseHTML(raw string) (title string, paragraphs []string, err error) {
	// The title element is not body content; read it before sanitising.
	head, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return "", nil, fmt.Errorf("parse html: %w", err)
	}
	title = CleanText(head.Find("title").First().Text())

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(sanitizePolicy().Sanitize(raw)))
	if err != nil {
		return "", nil, fmt.Errorf("parse sanitized html: %w", err)
	}

	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		if text := CleanText(s.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	if len(paragraphs) == 0 {
		if text := CleanText(doc.Text()); text != "" {
			paragraphs = []string{text}
		}
	}
	if title == "" {
		title = CleanText(doc.Find("h1").First().Text())
	}
	return title, paragraphs, nil
}

// CleanText applies Unicode NFC and collapses runs of whitespace.
func CleanText(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}
