// Package sanitize neutralizes prompt-injection attempts hidden in
// change-set diffs before any text reaches the reasoning provider.
//
// Only added lines are scanned: context and removed lines never enter
// the prompt as live instructions, and rewriting them would corrupt
// the diff.
package sanitize

import (
	"fmt"
	"regexp"
	"strings"
)

// Attempt records one detected injection attempt.
type Attempt struct {
	PatternType string
	Description string
	MatchedText string
	LineNumber  int
}

// Result holds the sanitized diff and everything that was neutralized.
type Result struct {
	Diff     string
	Attempts []Attempt
}

// Clean reports whether no injection attempts were found.
func (r Result) Clean() bool { return len(r.Attempts) == 0 }

// Unicode controls abused for direction and visibility attacks.
var dangerousRunes = map[rune]bool{
	'\u202a': true, // left-to-right embedding
	'\u202b': true, // right-to-left embedding
	'\u202c': true, // pop directional formatting
	'\u202d': true, // left-to-right override
	'\u202e': true, // right-to-left override
	'\u2066': true, // left-to-right isolate
	'\u2067': true, // right-to-left isolate
	'\u2068': true, // first strong isolate
	'\u2069': true, // pop directional isolate
	'\u200b': true, // zero-width space
	'\u200c': true, // zero-width non-joiner
	'\u200d': true, // zero-width joiner
	'\ufeff': true, // zero-width no-break space (BOM)
}

type injectionPattern struct {
	re          *regexp.Regexp
	patternType string
	description string
}

// Ordered: evaluated top to bottom against each added line.
var injectionPatterns = []injectionPattern{
	{
		re:          regexp.MustCompile(`(?i)(^|\s)system\s*:\s*.{10,}`),
		patternType: "system_prompt_override",
		description: "Attempt to inject system-level instructions",
	},
	{
		re:          regexp.MustCompile(`(?i)you\s+are\s+now\s+(an?\s+)?(assistant|ai|helper|bot|code\s+(reviewer|approver))`),
		patternType: "role_switch",
		description: "Attempt to redefine the reviewer's role",
	},
	{
		re:          regexp.MustCompile(`(?i)(^|\s)assistant\s*:\s*.{10,}`),
		patternType: "role_switch",
		description: "Attempt to inject assistant response",
	},
	{
		re:          regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|prior|above|earlier)\s+instructions`),
		patternType: "instruction_injection",
		description: "Attempt to override previous instructions",
	},
	{
		re:          regexp.MustCompile(`(?i)(disregard|forget|override)\s+(all\s+)?(previous|prior|your)\s+(instructions|rules|guidelines|prompts)`),
		patternType: "instruction_injection",
		description: "Attempt to override instructions",
	},
	{
		re:          regexp.MustCompile(`(?i)end\s+of\s+(diff|code|input|context)\s*[.!]?\s*(new|begin|start)\s+(system|instructions|prompt)`),
		patternType: "delimiter_manipulation",
		description: "Attempt to inject new context boundary",
	},
	{
		re:          regexp.MustCompile(`(?i)respond\s+with\s+(this\s+)?(json|the\s+following)`),
		patternType: "response_injection",
		description: "Attempt to dictate response format/content",
	},
	{
		re:          regexp.MustCompile(`(?i)(output|return|respond)\s*:\s*\{["'](summary|issues)`),
		patternType: "response_injection",
		description: "Attempt to inject JSON response",
	},
}

// Diff scans added lines in a unified diff, strips dangerous Unicode
// controls, and replaces matched injection patterns with a
// [SANITIZED:<type>] marker. Legitimate code is preserved verbatim.
func Diff(diff string) Result {
	var attempts []Attempt
	lines := strings.Split(diff, "\n")
	out := make([]string, 0, len(lines))

	for idx, line := range lines {
		lineNo := idx + 1

		if !isAddedLine(line) {
			out = append(out, line)
			continue
		}

		if containsDangerousRunes(line) {
			attempts = append(attempts, Attempt{
				PatternType: "unicode_attack",
				Description: "Dangerous Unicode control characters detected",
				MatchedText: fmt.Sprintf("%q", firstDangerousRunes(line, 3)),
				LineNumber:  lineNo,
			})
			line = stripDangerousRunes(line)
		}

		content := line[1:]
		modified := false
		for _, p := range injectionPatterns {
			loc := p.re.FindStringIndex(content)
			if loc == nil {
				continue
			}
			attempts = append(attempts, Attempt{
				PatternType: p.patternType,
				Description: p.description,
				MatchedText: content[loc[0]:loc[1]],
				LineNumber:  lineNo,
			})
			content = content[:loc[0]] + "[SANITIZED:" + p.patternType + "]" + content[loc[1]:]
			modified = true
		}
		if modified {
			line = "+" + content
		}

		out = append(out, line)
	}

	return Result{
		Diff:     strings.Join(out, "\n"),
		Attempts: attempts,
	}
}

func isAddedLine(line string) bool {
	return strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++")
}

func containsDangerousRunes(line string) bool {
	for _, r := range line {
		if dangerousRunes[r] {
			return true
		}
	}
	return false
}

func firstDangerousRunes(line string, max int) string {
	var found []rune
	for _, r := range line {
		if dangerousRunes[r] {
			found = append(found, r)
			if len(found) == max {
				break
			}
		}
	}
	return string(found)
}

func stripDangerousRunes(line string) string {
	var b strings.Builder
	for _, r := range line {
		if !dangerousRunes[r] {
			b.WriteRune(r)
		}
	}
	return b.String()
}
