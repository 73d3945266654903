// Package comment renders a pipeline outcome as a markdown review
// comment, redacting anything that looks like a credential before it
// leaves the process.
package comment

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/revqlabs/revq/internal/confidence"
	"github.com/revqlabs/revq/internal/model"
	"github.com/revqlabs/revq/internal/pipeline"
	"github.com/revqlabs/revq/internal/review"
)

// secretPatterns match credential shapes that must never appear in a
// posted comment, evaluated in order.
var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{10,}`),
	regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`),
	regexp.MustCompile(`gh[pousr]_[A-Za-z0-9]{36,}`),
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	regexp.MustCompile(`(?i)(api[_-]?key|token|secret|password)\s*[:=]\s*['"]?[A-Za-z0-9_/+-]{8,}['"]?`),
	regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._/+-]{20,}`),
}

// Redact replaces credential-shaped substrings with [REDACTED].
func Redact(text string) string {
	for _, p := range secretPatterns {
		text = p.ReplaceAllString(text, "[REDACTED]")
	}
	return text
}

var severityMarkers = map[model.Severity]string{
	model.SeverityCritical:   "🔴",
	model.SeverityMajor:      "🟠",
	model.SeverityMinor:      "🟡",
	model.SeveritySuggestion: "🔵",
}

var recommendationLines = map[confidence.Recommendation]string{
	confidence.AutoAccept:  "✅ **Looks good** — no blocking findings.",
	confidence.CommentOnly: "💬 **Comments below** — please take a look.",
	confidence.Escalate:    "🚨 **Human review requested** — confidence is low.",
}

// Format renders the outcome as a markdown comment body with all
// credential-shaped text redacted.
func Format(out *pipeline.Outcome) string {
	var b strings.Builder

	b.WriteString("## Automated Review\n\n")

	switch out.Status {
	case pipeline.StatusGated:
		fmt.Fprintf(&b, "⛔ **Not reviewed**: %s gate failed.\n\n> %s\n", out.FailedGate, out.Reason)
		if rec := gateRecommendation(out); rec != "" {
			fmt.Fprintf(&b, "\n**Recommendation**: %s\n", rec)
		}
	case pipeline.StatusFailed:
		fmt.Fprintf(&b, "⚠️ **Review could not complete**: %s\n", out.Reason)
	case pipeline.StatusGatesOnly:
		b.WriteString("ℹ️ Gates passed. Reasoning review was not run.\n")
		writeGateSummary(&b, out)
	case pipeline.StatusCompleted:
		writeReview(&b, out)
	}

	b.WriteString("\n---\n")
	fmt.Fprintf(&b, "_revq · %s_\n", out.Duration.Round(10*time.Millisecond))

	return Redact(b.String())
}

func writeReview(b *strings.Builder, out *pipeline.Outcome) {
	r := out.Review
	conf := out.Confidence

	b.WriteString(recommendationLines[conf.Recommendation] + "\n\n")
	fmt.Fprintf(b, "**Confidence**: %.2f (%s)\n\n", conf.Score, conf.Level)
	fmt.Fprintf(b, "%s\n", r.Summary)

	if len(r.Issues) > 0 {
		b.WriteString("\n### Issues\n\n")
		for _, sev := range []model.Severity{
			model.SeverityCritical, model.SeverityMajor,
			model.SeverityMinor, model.SeveritySuggestion,
		} {
			for _, issue := range r.Issues {
				if issue.Severity != sev {
					continue
				}
				writeIssue(b, issue)
			}
		}
	}

	writeList(b, "Strengths", r.Strengths)
	writeList(b, "Concerns", r.Concerns)
	writeList(b, "Questions for the author", r.OpenQuestions)

	if out.Classification != nil {
		fmt.Fprintf(b, "\n<sub>%s change · %s risk · %s model tier · %d attempt(s) · $%.4f</sub>\n",
			out.Classification.ChangeType, out.Classification.RiskLevel,
			r.TierUsed, out.Attempts, r.CostUSD)
	}
}

func writeIssue(b *strings.Builder, issue review.Issue) {
	marker := severityMarkers[issue.Severity]
	location := issue.File
	if issue.Line > 0 {
		location = fmt.Sprintf("%s:%d", issue.File, issue.Line)
	}
	fmt.Fprintf(b, "- %s **%s** `%s` — %s\n", marker, issue.Severity, location, issue.Description)
	if issue.SuggestedFix != "" {
		fmt.Fprintf(b, "  - Suggested fix: %s\n", issue.SuggestedFix)
	}
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n### %s\n\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}

func writeGateSummary(b *strings.Builder, out *pipeline.Outcome) {
	for _, g := range out.Gates {
		status := "passed"
		if !g.Passed {
			status = "failed"
		}
		fmt.Fprintf(b, "- `%s`: %s", g.Gate, status)
		if g.Reason != "" {
			fmt.Fprintf(b, " (%s)", g.Reason)
		}
		b.WriteString("\n")
	}
}

func gateRecommendation(out *pipeline.Outcome) string {
	for _, g := range out.Gates {
		if !g.Passed && g.Recommendation != "" {
			return g.Recommendation
		}
	}
	return ""
}
