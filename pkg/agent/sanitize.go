package agent

import (
	"regexp"
	"strings"

	"github.com/pagescout/pagescout/pkg/urlutil"
)

const removedURLMarker = "[URL removed - not verified]"

var answerURLRE = regexp.MustCompile(`https?://[^\s<>"')]+`)

// sanitizeAnswer rewrites the model's answer so that every URL in it is
// one we verified. Unverified URLs are swapped for a verified URL on the
// same host when one exists, otherwise replaced with a removal marker.
// Running it twice changes nothing.
func (a *Agent) sanitizeAnswer(answer string, st *runState) string {
	for _, raw := range answerURLRE.FindAllString(answer, -1) {
		normalized := urlutil.Clean(strings.TrimRight(raw, `.,;!?)`))
		if _, ok := st.verified[normalized]; ok {
			continue
		}

		replacement := ""
		for _, verifiedURL := range st.verifiedOrder {
			if urlutil.SameAuthority(verifiedURL, normalized) {
				replacement = verifiedURL
				break
			}
		}
		if replacement != "" {
			a.log.Info().Str("url", raw).Str("replacement", replacement).Msg("replaced unverified URL")
			answer = strings.ReplaceAll(answer, raw, replacement)
		} else {
			a.log.Info().Str("url", raw).Msg("removed unverified URL")
			answer = strings.ReplaceAll(answer, raw, removedURLMarker)
		}
	}
	return answer
}
