package collect

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/settlerhq/settler/internal/model"
	"golang.org/x/net/html"
)

const snippetLimit = 280

var (
	itemPattern  = regexp.MustCompile(`(?is)<item\b[^>]*>(.*?)</item>`)
	cdataPattern = regexp.MustCompile(`(?is)<!\[CDATA\[(.*?)\]\]>`)

	titlePattern = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	linkPattern  = regexp.MustCompile(`(?is)<link[^>]*>(.*?)</link>`)
	datePattern  = regexp.MustCompile(`(?is)<pubDate[^>]*>(.*?)</pubDate>`)
	descPattern  = regexp.MustCompile(`(?is)<description[^>]*>(.*?)</description>`)
)

// pubDate formats seen in the wild, most common first.
var pubDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
}

// parseSignals turns an RSS/XML payload into outcome signals, tolerating
// CDATA sections and HTML embedded inside tag text.
func parseSignals(body []byte) []model.OutcomeSignal {
	var signals []model.OutcomeSignal
	for _, m := range itemPattern.FindAllStringSubmatch(string(body), -1) {
		block := m[1]

		headline := cleanTagText(firstMatch(titlePattern, block))
		if headline == "" {
			continue
		}
		link := cleanTagText(firstMatch(linkPattern, block))
		desc := cleanTagText(firstMatch(descPattern, block))

		signals = append(signals, model.OutcomeSignal{
			Source:      sourceHost(link),
			URL:         link,
			Headline:    headline,
			Snippet:     capRunes(desc, snippetLimit),
			PublishedAt: parsePubDate(firstMatch(datePattern, block)),
			Confidence:  descriptionConfidence(desc),
		})
	}
	return signals
}

// descriptionConfidence is an ordinal heuristic over the description
// text: official results beat confirmations beat second-hand reports.
func descriptionConfidence(desc string) float64 {
	lower := strings.ToLower(desc)
	switch {
	case strings.Contains(lower, "official results"):
		return 1.0
	case strings.Contains(lower, "confirmed"), strings.Contains(lower, "announced"):
		return 0.8
	case strings.Contains(lower, "reported"), strings.Contains(lower, "sources say"):
		return 0.6
	default:
		return 0.4
	}
}

func firstMatch(pat *regexp.Regexp, block string) string {
	if m := pat.FindStringSubmatch(block); m != nil {
		return m[1]
	}
	return ""
}

// cleanTagText unwraps CDATA sections and strips any embedded HTML,
// returning the visible text.
func cleanTagText(raw string) string {
	raw = cdataPattern.ReplaceAllString(raw, "$1")
	return strings.TrimSpace(stripHTML(raw))
}

// stripHTML extracts text nodes from a possibly-HTML fragment, which also
// decodes entities like &amp;.
func stripHTML(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if b.Len() > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return b.String()
}

// sourceHost returns the link's hostname with any www prefix stripped.
func sourceHost(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

func parsePubDate(raw string) *time.Time {
	raw = strings.TrimSpace(cdataPattern.ReplaceAllString(raw, "$1"))
	if raw == "" {
		return nil
	}
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			utc := t.UTC()
			return &utc
		}
	}
	return nil
}

func capRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
