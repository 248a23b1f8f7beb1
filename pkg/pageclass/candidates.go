package pageclass

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pagescout/pagescout/pkg/urlutil"
)

var (
	// candidateAllowlist matches product-detail URL shapes. A link must
	// match one of these to be considered at all.
	candidateAllowlist = []*regexp.Regexp{
		regexp.MustCompile(`/product/[^/]+`),
		regexp.MustCompile(`/p/[^/]+`),
		regexp.MustCompile(`/item/\d+`),
		regexp.MustCompile(`/detail/\d+`),
		regexp.MustCompile(`/products/[^/]+`),
		regexp.MustCompile(`-\d+\.html$`),
		regexp.MustCompile(`/\d{6,}$`),
	}

	// candidateBlocklist matches listing/category shapes that the allowlist
	// would otherwise let through.
	candidateBlocklist = []*regexp.Regexp{
		regexp.MustCompile(`/search`),
		regexp.MustCompile(`/category`),
		regexp.MustCompile(`/catalog`),
		regexp.MustCompile(`/filter`),
		regexp.MustCompile(`/all`),
		regexp.MustCompile(`/list`),
		regexp.MustCompile(`/results`),
		// Two-segment brand/model paths are listings, not products.
		regexp.MustCompile(`^/car/[^/]+/?$`),
		regexp.MustCompile(`^/car/[^/]+/[^/]+/?$`),
	}

	containerClassKeywords = []string{"product", "item", "card", "goods", "auto"}
)

type candidate struct {
	url         string
	inContainer bool
	order       int
}

// extractCandidateLinks pulls same-domain product-detail links from a listing
// page. Allowlist and blocklist are hard filters; proximity to a
// product-container element only affects ordering.
func extractCandidateLinks(doc *goquery.Document, baseURL string, cfg Config) []string {
	baseParsed, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}
	baseDomain := strings.ToLower(baseParsed.Host)

	seen := make(map[string]bool)
	var candidates []candidate

	doc.Find("a[href]").Each(func(i int, anchor *goquery.Selection) {
		absolute, ok := urlutil.Resolve(baseURL, anchor.AttrOr("href", ""))
		if !ok {
			return
		}
		parsed, err := url.Parse(absolute)
		if err != nil || strings.ToLower(parsed.Host) != baseDomain {
			return
		}

		path := strings.ToLower(parsed.Path)
		if !matchesAny(candidateAllowlist, path) || matchesAny(candidateBlocklist, path) {
			return
		}

		normalized := urlutil.Clean(absolute)
		if seen[normalized] {
			return
		}
		seen[normalized] = true
		candidates = append(candidates, candidate{
			url:         normalized,
			inContainer: inProductContainer(anchor),
			order:       i,
		})
	})

	// Container-adjacent links first, document order within each group.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].inContainer != candidates[j].inContainer {
			return candidates[i].inContainer
		}
		return candidates[i].order < candidates[j].order
	})

	if len(candidates) > cfg.MaxCandidateLinks {
		candidates = candidates[:cfg.MaxCandidateLinks]
	}
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.url
	}
	return out
}

func matchesAny(patterns []*regexp.Regexp, path string) bool {
	for _, pattern := range patterns {
		if pattern.MatchString(path) {
			return true
		}
	}
	return false
}

// inProductContainer checks up to three ancestor levels for a
// product-container class.
func inProductContainer(anchor *goquery.Selection) bool {
	node := anchor.Parent()
	for depth := 0; depth < 3 && node.Length() > 0; depth++ {
		class := strings.ToLower(node.AttrOr("class", ""))
		for _, keyword := range containerClassKeywords {
			if strings.Contains(class, keyword) {
				return true
			}
		}
		node = node.Parent()
	}
	return false
}
