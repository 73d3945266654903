package review

import "strings"

// minSummaryLength is the shortest summary a structurally valid review
// may carry. Anything shorter is treated as a low-quality response.
const minSummaryLength = 20

// ValidSuggestion reports whether a suggested fix is usable as posted
// review guidance. Blank text and mixed tab/space indentation are
// rejected; a rejected suggestion is dropped, not the whole issue.
func ValidSuggestion(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}
	return !hasMixedIndentation(s)
}

// hasMixedIndentation reports whether some lines indent with tabs and
// others with spaces.
func hasMixedIndentation(s string) bool {
	var tabs, spaces bool
	for _, line := range strings.Split(s, "\n") {
		trimmed := strings.TrimLeft(line, " \t")
		leading := line[:len(line)-len(trimmed)]
		if strings.Contains(leading, "\t") {
			tabs = true
		}
		if strings.Contains(leading, " ") {
			spaces = true
		}
	}
	return tabs && spaces
}

// Valid reports whether a result passes the structural quality check:
// a non-trivial summary, a well-formed issue list, and the
// confidence-bearing fields present. This is a shape check only; it
// never judges whether the review is right.
func Valid(r *Result) bool {
	if r == nil {
		return false
	}
	if len(strings.TrimSpace(r.Summary)) <= minSummaryLength {
		return false
	}
	for _, issue := range r.Issues {
		if !issue.Severity.Known() {
			return false
		}
		if strings.TrimSpace(issue.Description) == "" {
			return false
		}
	}
	return true
}
