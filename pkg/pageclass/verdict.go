package pageclass

// Verdict is the structural classification of a fetched page.
type Verdict string

const (
	VerdictProduct             Verdict = "product"
	VerdictListingWithProducts Verdict = "listing_with_products"
	VerdictListingEmpty        Verdict = "listing_empty"
	VerdictBlocked             Verdict = "blocked"
	VerdictGeneric             Verdict = "generic"
	VerdictError               Verdict = "error"
)

// ParseVerdict maps a string to a Verdict. Unrecognized strings map to
// VerdictError rather than failing, since collaborators may send verdicts we
// do not know about.
func ParseVerdict(value string) Verdict {
	switch Verdict(value) {
	case VerdictProduct, VerdictListingWithProducts, VerdictListingEmpty,
		VerdictBlocked, VerdictGeneric, VerdictError:
		return Verdict(value)
	default:
		return VerdictError
	}
}

// Usable reports whether pages with this verdict count as evidence.
func (v Verdict) Usable() bool {
	return v == VerdictProduct || v == VerdictListingWithProducts
}
