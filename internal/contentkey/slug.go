package contentkey

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// slugTransformer decomposes unicode and strips combining marks, so that
// "Héllo Wörld" slugifies the same as "Hello World".
var slugTransformer = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify derives a URL- and branch-safe slug from a human title.
// Letters and digits are kept (lowercased), every other run of characters
// collapses to a single hyphen.
func Slugify(s string) string {
	normalized, _, err := transform.String(slugTransformer, s)
	if err != nil {
		normalized = s
	}

	var b strings.Builder
	b.Grow(len(normalized))
	lastHyphen := true // suppress leading hyphen
	for _, r := range normalized {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
