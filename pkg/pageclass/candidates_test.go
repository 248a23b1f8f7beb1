package pageclass

import (
	"fmt"
	"strings"
	"testing"
)

func listingPage(anchors ...string) string {
	return "<html><body>" + strings.Join(anchors, "\n") + "</body></html>"
}

func classifyListing(t *testing.T, html string) Classification {
	t.Helper()
	got := Classify(html, longText(600), "https://shop.example.com/catalog/rings", Config{})
	if got.Verdict != VerdictListingWithProducts {
		t.Fatalf("verdict = %s, want listing_with_products (reason: %s)", got.Verdict, got.Reason)
	}
	return got
}

func TestCandidateLinksSameDomainOnly(t *testing.T) {
	got := classifyListing(t, listingPage(
		`<a href="/product/ring-1">one</a>`,
		`<a href="https://shop.example.com/product/ring-2">two</a>`,
		`<a href="https://evil.example.org/product/ring-3">offsite</a>`,
		`<a href="/product/ring-4">four</a>`,
	))
	for _, link := range got.CandidateLinks {
		if !strings.HasPrefix(link, "https://shop.example.com/") {
			t.Fatalf("cross-domain candidate leaked: %s", link)
		}
	}
	if len(got.CandidateLinks) != 3 {
		t.Fatalf("got %d candidates, want 3: %v", len(got.CandidateLinks), got.CandidateLinks)
	}
}

func TestCandidateLinksBlocklist(t *testing.T) {
	got := classifyListing(t, listingPage(
		`<a href="/product/ring-1">keep</a>`,
		`<a href="/product/search">listing</a>`,
		`<a href="/products/list">listing</a>`,
		`<a href="/item/123456">keep</a>`,
		`<a href="/category/rings">listing</a>`,
	))
	want := map[string]bool{
		"https://shop.example.com/product/ring-1": true,
		"https://shop.example.com/item/123456":    true,
	}
	if len(got.CandidateLinks) != len(want) {
		t.Fatalf("candidates = %v", got.CandidateLinks)
	}
	for _, link := range got.CandidateLinks {
		if !want[link] {
			t.Fatalf("unexpected candidate %s", link)
		}
	}
}

func TestCandidateLinksNumericIDSuffix(t *testing.T) {
	got := classifyListing(t, listingPage(
		`<a href="/rings/39462080">keep: long id</a>`,
		`<a href="/rings/123">drop: short id</a>`,
		`<a href="/gold-band-4711.html">keep: html id</a>`,
	))
	joined := strings.Join(got.CandidateLinks, " ")
	if !strings.Contains(joined, "/rings/39462080") || !strings.Contains(joined, "/gold-band-4711.html") {
		t.Fatalf("candidates = %v", got.CandidateLinks)
	}
	if strings.Contains(joined, "/rings/123") {
		t.Fatalf("short numeric id should not qualify: %v", got.CandidateLinks)
	}
}

func TestCandidateLinksDedupedByCleanURL(t *testing.T) {
	got := classifyListing(t, listingPage(
		`<a href="/product/ring-1?utm_source=banner">a</a>`,
		`<a href="/product/ring-1#gallery">b</a>`,
		`<a href="/product/ring-1">c</a>`,
	))
	if len(got.CandidateLinks) != 1 {
		t.Fatalf("got %d candidates, want 1: %v", len(got.CandidateLinks), got.CandidateLinks)
	}
}

func TestCandidateLinksCapped(t *testing.T) {
	var anchors []string
	for i := 0; i < 80; i++ {
		anchors = append(anchors, fmt.Sprintf(`<a href="/product/ring-%d">r</a>`, i))
	}
	got := classifyListing(t, listingPage(anchors...))
	if len(got.CandidateLinks) != DefaultMaxCandidateLinks {
		t.Fatalf("got %d candidates, want %d", len(got.CandidateLinks), DefaultMaxCandidateLinks)
	}
}

func TestCandidateLinksContainerOrderedFirst(t *testing.T) {
	got := classifyListing(t, listingPage(
		`<a href="/product/footer-link">bare</a>`,
		`<div class="product-card"><a href="/product/in-card">carded</a></div>`,
	))
	if len(got.CandidateLinks) != 2 {
		t.Fatalf("candidates = %v", got.CandidateLinks)
	}
	if !strings.HasSuffix(got.CandidateLinks[0], "/product/in-card") {
		t.Fatalf("container-adjacent link should sort first: %v", got.CandidateLinks)
	}
}

func TestCandidateLinksAbsentOnProductPages(t *testing.T) {
	html := "<html><body>" + productJSONLD + `<a href="/product/other-1">related</a></body></html>`
	got := Classify(html, longText(600), "https://shop.example.com/product/ring-123", Config{})
	if got.Verdict != VerdictProduct {
		t.Fatalf("verdict = %s", got.Verdict)
	}
	if len(got.CandidateLinks) != 0 {
		t.Fatalf("product pages must not emit candidates: %v", got.CandidateLinks)
	}
}
