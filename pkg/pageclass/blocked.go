package pageclass

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var captchaKeywords = []string{"captcha", "verify", "challenge", "recaptcha", "hcaptcha"}

var blockingClassKeywords = []string{"captcha", "verify", "block", "access", "gate", "challenge"}

// detectBlocked spots captcha walls and interstitials by structure, not by
// text, so it is locale independent. A block verdict overrides product
// detection entirely.
func detectBlocked(doc *goquery.Document, text string, cfg Config) (blocked bool, reason, signal string) {
	textLen := len(strings.TrimSpace(text))

	if textLen < cfg.BlockedTextMax {
		found := false
		doc.Find("form, div").EachWithBreak(func(_ int, node *goquery.Selection) bool {
			class := strings.ToLower(node.AttrOr("class", ""))
			for _, keyword := range blockingClassKeywords {
				if strings.Contains(class, keyword) {
					found = true
					return false
				}
			}
			return true
		})
		if found {
			return true, "Low content with blocking elements detected", "blocking_elements"
		}
	}

	captcha := false
	doc.Find("form").EachWithBreak(func(_ int, form *goquery.Selection) bool {
		haystack := strings.ToLower(form.AttrOr("action", "") + " " + form.AttrOr("id", "") + " " + form.AttrOr("class", ""))
		for _, keyword := range captchaKeywords {
			if strings.Contains(haystack, keyword) {
				captcha = true
				return false
			}
		}
		return true
	})
	if captcha {
		return true, "Captcha/verification form detected", "captcha_form"
	}

	metaRefresh := false
	doc.Find("meta[http-equiv]").EachWithBreak(func(_ int, meta *goquery.Selection) bool {
		if strings.EqualFold(meta.AttrOr("http-equiv", ""), "refresh") {
			metaRefresh = true
			return false
		}
		return true
	})
	if metaRefresh && textLen < cfg.MetaRefreshTextMax {
		return true, "Meta refresh with low content (likely interstitial)", "meta_refresh"
	}

	if textLen < cfg.BlockedTextMax && doc.Find("script").Length() > cfg.BlockedScriptCount {
		return true, "Low content with excessive scripts (likely blocking page)", "low_content_high_scripts"
	}

	return false, "", ""
}

// cloudflareMarkers fingerprint a Cloudflare challenge page. Render services
// sometimes return these with HTTP 200, so URL and body are both checked.
var cloudflareMarkers = []string{"__cf_chl_", "cf-chl", "turnstile"}

// LooksBlocked reports whether a rendered page is a bot-check interstitial
// based on Cloudflare fingerprints in the final URL or HTML.
func LooksBlocked(html, finalURL string) bool {
	loweredURL := strings.ToLower(finalURL)
	loweredHTML := strings.ToLower(html)
	for _, marker := range cloudflareMarkers {
		if strings.Contains(loweredURL, marker) || strings.Contains(loweredHTML, marker) {
			return true
		}
	}
	if strings.Contains(loweredHTML, "cloudflare") &&
		(strings.Contains(loweredHTML, "attention required") || strings.Contains(loweredHTML, "challenge")) {
		return true
	}
	return false
}
