package fetch

import (
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pagescout/pagescout/pkg/urlutil"
)

const truncationMarker = "... [truncated]"

// maxExtractedLinks caps the link list returned to the model for a single page.
const maxExtractedLinks = 50

var whitespaceRE = regexp.MustCompile(`\s+`)

// ExtractText returns visible text from an HTML document with scripts,
// styles and noscript blocks removed. Text longer than maxChars is cut
// and annotated so the model knows it saw a partial page.
func ExtractText(html string, maxChars int) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript").Remove()
	text := whitespaceRE.ReplaceAllString(doc.Text(), " ")
	text = strings.TrimSpace(text)
	if maxChars > 0 && len(text) > maxChars {
		text = text[:maxChars] + truncationMarker
	}
	return text
}

// ExtractTitle returns the trimmed contents of the document title, if any.
func ExtractTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// ExtractCanonical returns the page's rel=canonical link resolved
// against the page URL, or "" when the page declares none.
func ExtractCanonical(html, pageURL string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	href, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href")
	if !ok {
		return ""
	}
	resolved, ok := urlutil.Resolve(pageURL, href)
	if !ok {
		return ""
	}
	return urlutil.Clean(resolved)
}

// ExtractLinks resolves every anchor against the page URL, drops
// non-navigational hrefs, strips tracking parameters, dedupes and
// returns a sorted list capped at maxExtractedLinks.
func ExtractLinks(html, pageURL string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	seen := make(map[string]struct{})
	var links []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		resolved, ok := urlutil.Resolve(pageURL, href)
		if !ok {
			return
		}
		cleaned := urlutil.Clean(resolved)
		if _, dup := seen[cleaned]; dup {
			return
		}
		seen[cleaned] = struct{}{}
		links = append(links, cleaned)
	})
	sort.Strings(links)
	if len(links) > maxExtractedLinks {
		links = links[:maxExtractedLinks]
	}
	return links
}
