// Package sku extracts a product identity token from product pages. The
// token is what lets the agent confirm that two URLs denote the same
// physical product before swapping one for the other.
package sku

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// textPatterns match label-style SKU mentions in page text. The non-latin
// variants cover the storefront locales the agent is pointed at most often.
var textPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)sku[:\s]+([a-z0-9\-]+)`),
	regexp.MustCompile(`(?i)article[:\s]+([a-z0-9\-]+)`),
	regexp.MustCompile(`(?i)artikul[:\s]+([a-z0-9\-]+)`),
	regexp.MustCompile(`(?i)артикул[:\s]+([a-z0-9\-]+)`),
	regexp.MustCompile(`(?i)код[:\s]+([a-z0-9\-]+)`),
}

// Extract returns the page's SKU, or "" when none is found. Sources are
// tried in order of trust: JSON-LD Product schema, retailer meta tags,
// microdata, then label patterns in the text.
func Extract(html, text string) string {
	if html == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	if s := fromJSONLD(doc); s != "" {
		return s
	}
	if s := fromMetaTags(doc); s != "" {
		return s
	}
	if s := fromMicrodata(doc); s != "" {
		return s
	}
	return fromText(text)
}

func fromJSONLD(doc *goquery.Document) string {
	found := ""
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, script *goquery.Selection) bool {
		var decoded any
		if err := json.Unmarshal([]byte(script.Text()), &decoded); err != nil {
			return true
		}
		if s := skuFromNode(decoded); s != "" {
			found = s
			return false
		}
		return true
	})
	return found
}

func skuFromNode(node any) string {
	switch value := node.(type) {
	case map[string]any:
		if typeField, ok := value["@type"].(string); ok && typeField == "Product" {
			for _, key := range []string{"sku", "mpn", "productID"} {
				if raw, ok := value[key]; ok {
					if s := stringify(raw); s != "" {
						return s
					}
				}
			}
		}
		if graph, ok := value["@graph"].([]any); ok {
			return skuFromNode(graph)
		}
	case []any:
		for _, entry := range value {
			if s := skuFromNode(entry); s != "" {
				return s
			}
		}
	}
	return ""
}

func stringify(raw any) string {
	switch value := raw.(type) {
	case string:
		return strings.TrimSpace(value)
	case float64:
		return strings.TrimSuffix(fmt.Sprintf("%.0f", value), ".")
	default:
		return ""
	}
}

func fromMetaTags(doc *goquery.Document) string {
	content := doc.Find(`meta[property="product:retailer_item_id"]`).AttrOr("content", "")
	return strings.TrimSpace(content)
}

func fromMicrodata(doc *goquery.Document) string {
	found := ""
	doc.Find("[itemtype]").EachWithBreak(func(_ int, item *goquery.Selection) bool {
		itemType, _ := item.Attr("itemtype")
		if !strings.Contains(strings.ToLower(itemType), "product") {
			return true
		}
		value := strings.TrimSpace(item.Find(`[itemprop="sku"]`).First().Text())
		if value != "" {
			found = value
			return false
		}
		return true
	})
	return found
}

func fromText(text string) string {
	for _, pattern := range textPatterns {
		if match := pattern.FindStringSubmatch(text); match != nil {
			return strings.ToLower(match[1])
		}
	}
	return ""
}
