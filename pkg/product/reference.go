// Package product extracts structured product attributes from pages
// without involving the model, so the agent can ground its reasoning in
// schema.org data and simple text heuristics.
package product

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dyatlov/go-opengraph/opengraph"
)

// Reference describes the product the user is searching analogues for.
type Reference struct {
	Title              string   `json:"title,omitempty"`
	Material           string   `json:"material,omitempty"`
	Stones             string   `json:"stones,omitempty"`
	Brand              string   `json:"brand,omitempty"`
	CollectionKeywords []string `json:"collection_keywords,omitempty"`
	PriceRange         string   `json:"price_range,omitempty"`
}

var materialKeywords = []string{"gold", "silver", "platinum", "steel", "titanium", "brass", "bronze"}

var stoneKeywords = []string{"diamond", "ruby", "sapphire", "emerald", "pearl", "amber", "topaz", "amethyst"}

var titleStopWords = map[string]struct{}{
	"product": {}, "item": {}, "buy": {}, "shop": {}, "store": {}, "price": {}, "sale": {},
}

var (
	titleWordRE = regexp.MustCompile(`\b\w{4,}\b`)

	priceRangePatterns = []*regexp.Regexp{
		regexp.MustCompile(`[\d,]+\.?\d*\s*(usd|eur|bgn|uah|rub|₴|€|\$|£)`),
		regexp.MustCompile(`price[:\s]+[\d,]+\.?\d*`),
		regexp.MustCompile(`[\d,]+\.?\d*\s*(грн|руб)`),
	}
)

// ExtractReference pulls reference attributes out of a product page.
// Structured data wins over meta tags, which win over text heuristics.
func ExtractReference(html, text string) Reference {
	var ref Reference
	if html == "" {
		return ref
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ref
	}

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		var data any
		if err := json.Unmarshal([]byte(sel.Text()), &data); err != nil {
			return true
		}
		if p, ok := findProductNode(data); ok {
			ref.Title = stringField(p, "name")
			if ref.Title == "" {
				ref.Title = stringField(p, "title")
			}
			ref.Brand = brandName(p["brand"])
			if offers, ok := p["offers"].(map[string]any); ok {
				ref.PriceRange = stringField(offers, "price")
			}
			return false
		}
		return true
	})

	if ref.Title == "" || ref.Brand == "" {
		og := opengraph.NewOpenGraph()
		if err := og.ProcessHTML(strings.NewReader(html)); err == nil {
			if ref.Title == "" {
				ref.Title = strings.TrimSpace(og.Title)
			}
		}
	}
	if ref.Title == "" {
		ref.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if ref.Brand == "" {
		if v, ok := doc.Find(`meta[property="product:brand"]`).Attr("content"); ok {
			ref.Brand = strings.TrimSpace(v)
		}
	}

	textLower := strings.ToLower(text)
	for _, kw := range materialKeywords {
		if strings.Contains(textLower, kw) {
			ref.Material = kw
			break
		}
	}
	var stones []string
	for _, kw := range stoneKeywords {
		if strings.Contains(textLower, kw) {
			stones = append(stones, kw)
		}
	}
	ref.Stones = strings.Join(stones, ", ")

	if ref.Title != "" {
		for _, w := range titleWordRE.FindAllString(strings.ToLower(ref.Title), -1) {
			if _, stop := titleStopWords[w]; stop {
				continue
			}
			ref.CollectionKeywords = append(ref.CollectionKeywords, w)
			if len(ref.CollectionKeywords) == 5 {
				break
			}
		}
	}

	if ref.PriceRange == "" {
		for _, re := range priceRangePatterns {
			if m := re.FindString(textLower); m != "" {
				ref.PriceRange = m
				break
			}
		}
	}
	return ref
}

// findProductNode locates a schema.org Product in a JSON-LD document,
// looking through top-level arrays and @graph containers.
func findProductNode(data any) (map[string]any, bool) {
	switch v := data.(type) {
	case map[string]any:
		if isProductType(v["@type"]) {
			return v, true
		}
		if graph, ok := v["@graph"].([]any); ok {
			for _, item := range graph {
				if p, ok := findProductNode(item); ok {
					return p, true
				}
			}
		}
	case []any:
		for _, item := range v {
			if p, ok := findProductNode(item); ok {
				return p, true
			}
		}
	}
	return nil, false
}

func isProductType(t any) bool {
	switch v := t.(type) {
	case string:
		return strings.EqualFold(v, "Product")
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.EqualFold(s, "Product") {
				return true
			}
		}
	}
	return false
}

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func brandName(v any) string {
	switch b := v.(type) {
	case string:
		return strings.TrimSpace(b)
	case map[string]any:
		return stringField(b, "name")
	}
	return ""
}
