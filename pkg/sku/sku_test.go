package sku

import "testing"

func TestExtractFromJSONLD(t *testing.T) {
	html := `<html><head><script type="application/ld+json">
	{"@type":"Product","name":"Ring","sku":"R-110474"}
	</script></head><body></body></html>`
	if got := Extract(html, ""); got != "R-110474" {
		t.Fatalf("got %q", got)
	}
}

func TestExtractJSONLDFallbackFields(t *testing.T) {
	html := `<html><head><script type="application/ld+json">
	{"@type":"Product","mpn":"MPN-77"}
	</script></head><body></body></html>`
	if got := Extract(html, ""); got != "MPN-77" {
		t.Fatalf("got %q", got)
	}

	html = `<html><head><script type="application/ld+json">
	[{"@type":"WebSite"},{"@type":"Product","productID":"991122"}]
	</script></head><body></body></html>`
	if got := Extract(html, ""); got != "991122" {
		t.Fatalf("got %q", got)
	}
}

func TestExtractFromMetaTag(t *testing.T) {
	html := `<html><head><meta property="product:retailer_item_id" content=" 4711 "></head><body></body></html>`
	if got := Extract(html, ""); got != "4711" {
		t.Fatalf("got %q", got)
	}
}

func TestExtractFromMicrodata(t *testing.T) {
	html := `<html><body><div itemscope itemtype="https://schema.org/Product">
	<span itemprop="sku">ABC-9</span></div></body></html>`
	if got := Extract(html, ""); got != "ABC-9" {
		t.Fatalf("got %q", got)
	}
}

func TestExtractFromTextPatterns(t *testing.T) {
	html := "<html><body><p>details</p></body></html>"
	cases := map[string]string{
		"Beautiful ring. SKU: ab-123 In stock.": "ab-123",
		"Артикул: 110474820202":                 "110474820202",
		"Artikul: x9":                           "x9",
	}
	for text, want := range cases {
		if got := Extract(html, text); got != want {
			t.Fatalf("Extract(text=%q) = %q, want %q", text, got, want)
		}
	}
}

func TestExtractPriority(t *testing.T) {
	// JSON-LD wins over meta and text.
	html := `<html><head>
	<script type="application/ld+json">{"@type":"Product","sku":"LD-1"}</script>
	<meta property="product:retailer_item_id" content="META-1">
	</head><body></body></html>`
	if got := Extract(html, "sku: text-1"); got != "LD-1" {
		t.Fatalf("got %q", got)
	}
}

func TestExtractAbsent(t *testing.T) {
	if got := Extract("<html><body>no identifiers here</body></html>", "plain text"); got != "" {
		t.Fatalf("got %q, want empty", got)
	}
	if got := Extract("", "sku: a1"); got != "" {
		t.Fatalf("no HTML must yield empty, got %q", got)
	}
}
