// Package urlutil normalizes URLs for deduplication and verified-set
// membership checks.
package urlutil

import (
	"net/url"
	"strings"
)

var trackingParams = map[string]bool{
	"utm_source":   true,
	"utm_medium":   true,
	"utm_campaign": true,
	"utm_term":     true,
	"utm_content":  true,
	"gclid":        true,
	"fbclid":       true,
	"msclkid":      true,
	"twclid":       true,
	"li_fat_id":    true,
	"_ga":          true,
	"_gid":         true,
	"ref":          true,
	"source":       true,
	"affiliate_id": true,
}

func isTrackingParam(key string) bool {
	key = strings.ToLower(key)
	return trackingParams[key] || strings.HasPrefix(key, "utm_") || strings.HasPrefix(key, "_ga")
}

// Clean strips the fragment and known tracking query parameters from a URL.
// All other query parameters are preserved in their original order. Inputs
// that do not parse are returned unchanged.
func Clean(raw string) string {
	if raw == "" {
		return raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	parsed.Fragment = ""
	parsed.RawFragment = ""
	if parsed.RawQuery != "" {
		parsed.RawQuery = stripTracking(parsed.RawQuery)
	}
	return parsed.String()
}

// stripTracking filters tracking keys out of a raw query string without
// reordering the remaining pairs.
func stripTracking(rawQuery string) string {
	pairs := strings.Split(rawQuery, "&")
	kept := pairs[:0]
	for _, pair := range pairs {
		key := pair
		if idx := strings.IndexByte(pair, '='); idx >= 0 {
			key = pair[:idx]
		}
		if decoded, err := url.QueryUnescape(key); err == nil {
			key = decoded
		}
		if isTrackingParam(key) {
			continue
		}
		kept = append(kept, pair)
	}
	return strings.Join(kept, "&")
}

// Resolve turns an anchor href into an absolute http(s) URL relative to base.
// Fragment-only and javascript: hrefs are rejected.
func Resolve(base, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	if strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return "", false
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	resolved := baseURL.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	return resolved.String(), true
}

var genericPaths = []string{"/", "/home", "/index", "/search", "/category"}

// IsGenericPath reports whether the URL path collapses to a site root or
// another generic entry point (home, index, search, category).
func IsGenericPath(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	path := strings.ToLower(parsed.Path)
	if path == "" {
		path = "/"
	}
	for _, generic := range genericPaths {
		if path == generic || strings.HasPrefix(path, generic+"/") {
			return true
		}
	}
	return false
}

// Host returns the lowercased network authority of a URL, or "" when the URL
// does not parse.
func Host(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Host)
}

// SameAuthority reports whether two URLs share a network authority.
func SameAuthority(a, b string) bool {
	hostA := Host(a)
	return hostA != "" && hostA == Host(b)
}
