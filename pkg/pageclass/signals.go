package pageclass

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// productSignals tallies the three independent product-detection sources.
type productSignals struct {
	jsonLD    int
	microdata int
	links     int
}

// productCount combines the sources by priority: schema.org markup wins, the
// anchor heuristic only counts once it clears the configured threshold, and a
// single product-shaped anchor still counts as one product.
func (s productSignals) productCount(cfg Config) int {
	if s.jsonLD > 0 || s.microdata > 0 {
		return max(s.jsonLD, s.microdata)
	}
	if s.links >= cfg.MinHeuristicLinks {
		return s.links
	}
	if s.links > 0 {
		return 1
	}
	return 0
}

func (s productSignals) names() []string {
	var out []string
	if s.jsonLD > 0 {
		out = append(out, "json_ld_product")
	}
	if s.microdata > 0 {
		out = append(out, "microdata_product")
	}
	if s.links > 0 {
		out = append(out, "product_links")
	}
	return out
}

var (
	productLinkPatterns = []*regexp.Regexp{
		regexp.MustCompile(`/product/`),
		regexp.MustCompile(`/p/`),
		regexp.MustCompile(`/item/`),
		regexp.MustCompile(`/detail/`),
		regexp.MustCompile(`/buy/`),
		regexp.MustCompile(`-\d+\.html`),
		regexp.MustCompile(`/\d+$`),
	}
	// Price-like anchor text in any of the currencies the agent commonly
	// encounters on storefronts.
	priceTextRe = regexp.MustCompile(`[\d,]+\.?\d*\s*(usd|eur|bgn|uah|rub|₴|€|\$|£)`)

	productClassNames = []string{"product", "item", "card"}
)

// detectProducts scans for JSON-LD Product objects, microdata Product items,
// and product-shaped anchors.
func detectProducts(doc *goquery.Document) productSignals {
	var signals productSignals

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, script *goquery.Selection) {
		signals.jsonLD += countJSONLDProducts(script.Text())
	})

	doc.Find("[itemtype]").Each(func(_ int, item *goquery.Selection) {
		itemType, _ := item.Attr("itemtype")
		if strings.Contains(strings.ToLower(itemType), "product") {
			signals.microdata++
		}
	})

	doc.Find("a[href]").Each(func(_ int, anchor *goquery.Selection) {
		href := strings.ToLower(anchor.AttrOr("href", ""))
		if href == "" {
			return
		}
		for _, pattern := range productLinkPatterns {
			if pattern.MatchString(href) {
				signals.links++
				return
			}
		}
		class := strings.ToLower(anchor.AttrOr("class", ""))
		for _, name := range productClassNames {
			if hasClass(class, name) {
				signals.links++
				return
			}
		}
		if priceTextRe.MatchString(strings.ToLower(strings.TrimSpace(anchor.Text()))) {
			signals.links++
		}
	})

	return signals
}

func hasClass(classAttr, name string) bool {
	for _, cls := range strings.Fields(classAttr) {
		if cls == name {
			return true
		}
	}
	return false
}

// countJSONLDProducts counts @type:Product objects in one JSON-LD block. The
// block may hold a single object, an array, or an @graph wrapper.
func countJSONLDProducts(raw string) int {
	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return 0
	}
	return countProductsIn(decoded)
}

func countProductsIn(node any) int {
	switch value := node.(type) {
	case map[string]any:
		count := 0
		if isProductType(value["@type"]) {
			count++
		}
		if graph, ok := value["@graph"].([]any); ok {
			for _, entry := range graph {
				count += countProductsIn(entry)
			}
		}
		return count
	case []any:
		count := 0
		for _, entry := range value {
			count += countProductsIn(entry)
		}
		return count
	default:
		return 0
	}
}

func isProductType(typeField any) bool {
	switch value := typeField.(type) {
	case string:
		return value == "Product"
	case []any:
		for _, entry := range value {
			if s, ok := entry.(string); ok && s == "Product" {
				return true
			}
		}
	}
	return false
}
