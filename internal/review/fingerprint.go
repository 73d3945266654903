package review

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
)

// lineBucket groups nearby lines so an issue that shifts a few lines
// between reviews keeps the same fingerprint.
const lineBucket = 10

var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true, "being": true,
	"have": true, "has": true, "had": true, "do": true, "does": true,
	"did": true, "will": true, "would": true, "could": true,
	"should": true, "may": true, "might": true, "shall": true,
	"can": true, "need": true, "must": true, "in": true, "on": true,
	"at": true, "to": true, "for": true, "of": true, "with": true,
	"by": true, "from": true, "this": true, "that": true,
	"these": true, "those": true, "it": true, "its": true,
	"and": true, "or": true, "but": true, "not": true, "no": true,
	"nor": true, "if": true, "then": true, "else": true, "when": true,
	"where": true, "which": true, "what": true, "who": true,
	"there": true, "here": true, "found": true, "also": true,
}

// Fingerprint derives a stable 16-hex-char identifier for an issue so
// the same logical finding matches across reviews even when line
// numbers drift or the wording varies.
func Fingerprint(issue Issue) string {
	components := []string{
		issue.File,
		strconv.Itoa(issue.Line / lineBucket),
		issue.Category,
		string(issue.Severity),
		normalizeDescription(issue.Description),
	}
	sum := sha256.Sum256([]byte(strings.Join(components, "|")))
	return hex.EncodeToString(sum[:8])
}

// normalizeDescription lowercases, strips punctuation, drops stop
// words, and sorts the remaining words for order-independence.
func normalizeDescription(desc string) string {
	if desc == "" {
		return ""
	}

	var b strings.Builder
	for _, r := range strings.ToLower(desc) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	var words []string
	for _, w := range strings.Fields(b.String()) {
		if !stopWords[w] {
			words = append(words, w)
		}
	}
	sort.Strings(words)

	return strings.Join(words, " ")
}
