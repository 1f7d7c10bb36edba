package headhunter

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HTMLToText flattens the markup HH uses in vacancy descriptions into plain
// text suitable for prompt assembly. Block elements and <br> become line
// breaks, list items get a dash, everything else is dropped.
func HTMLToText(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.Contains(raw, "<") {
		return raw
	}

	// Whitespace in the markup source is not significant; every real line
	// break is injected below from the block structure.
	raw = strings.Join(strings.Fields(raw), " ")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return raw
	}

	doc.Find("br").Each(func(_ int, s *goquery.Selection) {
		s.ReplaceWithHtml("\n")
	})
	doc.Find("li").Each(func(_ int, s *goquery.Selection) {
		s.PrependHtml("- ")
	})
	doc.Find("p, li, ul, ol, div, h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	lines := strings.Split(doc.Text(), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		out = append(out, strings.Join(fields, " "))
	}

	return strings.Join(out, "\n")
}
