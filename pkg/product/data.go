package product

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Data is what a verified product page yields for the final answer.
type Data struct {
	Title        string `json:"title,omitempty"`
	Price        string `json:"price,omitempty"`
	Currency     string `json:"currency,omitempty"`
	SKU          string `json:"sku,omitempty"`
	Availability string `json:"availability,omitempty"`
}

var dataPricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$[\d,]+\.?\d*`),
	regexp.MustCompile(`(?i)[\d,]+\.?\d*\s*(USD|EUR|GBP)`),
	regexp.MustCompile(`(?i)price[:\s]+[\d,]+\.?\d*`),
}

// ExtractData reads title, price, currency, sku and availability from a
// product page. Missing fields stay empty rather than erroring.
func ExtractData(html string) Data {
	var d Data
	if html == "" {
		return d
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return d
	}

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		var data any
		if err := json.Unmarshal([]byte(sel.Text()), &data); err != nil {
			return true
		}
		p, ok := findProductNode(data)
		if !ok {
			return true
		}
		d.Title = stringField(p, "name")
		d.SKU = stringField(p, "sku")
		if offers, ok := p["offers"].(map[string]any); ok {
			d.Price = stringField(offers, "price")
			d.Currency = stringField(offers, "priceCurrency")
			d.Availability = stringField(offers, "availability")
		}
		return false
	})

	if d.Title == "" {
		if v, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
			d.Title = strings.TrimSpace(v)
		}
	}
	if d.Price == "" {
		if v, ok := doc.Find(`meta[property="product:price:amount"]`).Attr("content"); ok {
			d.Price = strings.TrimSpace(v)
			if c, ok := doc.Find(`meta[property="product:price:currency"]`).Attr("content"); ok {
				d.Currency = strings.TrimSpace(c)
			}
		}
	}
	if d.Price == "" {
		text := doc.Text()
		for _, re := range dataPricePatterns {
			if m := re.FindString(text); m != "" {
				d.Price = m
				break
			}
		}
	}
	return d
}
