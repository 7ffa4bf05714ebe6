package scraper

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type SimpleNormalizer struct {
	maxLen int
}

// NewSimpleNormalizer returns a normalizer that truncates output to maxLen
// runes; zero means no limit.
func NewSimpleNormalizer(maxLen int) *SimpleNormalizer {
	return &SimpleNormalizer{maxLen: maxLen}
}

// Normalize turns board HTML into a single line of text. Greenhouse escapes its
// content field, so entities are decoded before parsing.
func (n *SimpleNormalizer) Normalize(htmlContent string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html.UnescapeString(htmlContent)))
	if err != nil {
		return "", err
	}
	doc.Find("script, style").Remove()

	normalized := strings.Join(strings.Fields(doc.Text()), " ")
	if n.maxLen > 0 {
		if runes := []rune(normalized); len(runes) > n.maxLen {
			normalized = strings.TrimSpace(string(runes[:n.maxLen])) + "…"
		}
	}
	return normalized, nil
}
