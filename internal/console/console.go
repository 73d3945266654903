// Package console renders pipeline outcomes for the terminal.
package console

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/revqlabs/revq/internal/confidence"
	"github.com/revqlabs/revq/internal/model"
	"github.com/revqlabs/revq/internal/pipeline"
)

// Renderer writes human-readable run reports.
type Renderer struct {
	out io.Writer
}

// New builds a renderer over the given writer.
func New(out io.Writer) *Renderer {
	return &Renderer{out: out}
}

var severityStyles = map[model.Severity]lipgloss.Style{
	model.SeverityCritical:   styleError,
	model.SeverityMajor:      styleWarning,
	model.SeverityMinor:      styleInfo,
	model.SeveritySuggestion: styleMuted,
}

// Render prints the full outcome report.
func (r *Renderer) Render(out *pipeline.Outcome) {
	cs := out.ChangeSet
	fmt.Fprintln(r.out, headerBox(colorInfo).Render(
		styleTitle.Render(fmt.Sprintf("Review %s", cs.Ref()))+"\n"+cs.Title))

	r.renderGates(out)

	switch out.Status {
	case pipeline.StatusGated:
		fmt.Fprintln(r.out, styleError.Render("Gated: ")+out.Reason)
	case pipeline.StatusFailed:
		fmt.Fprintln(r.out, styleError.Render("Failed: ")+out.Reason)
	case pipeline.StatusGatesOnly:
		r.renderClassification(out)
		fmt.Fprintln(r.out, styleWarning.Render("Gates only: ")+out.Reason)
	case pipeline.StatusCompleted:
		r.renderClassification(out)
		r.renderReview(out)
	}

	if len(out.Sanitization.Attempts) > 0 {
		fmt.Fprintln(r.out, styleWarning.Render(
			fmt.Sprintf("Neutralized %d prompt-injection attempt(s) in the diff",
				len(out.Sanitization.Attempts))))
	}

	fmt.Fprintln(r.out, styleMuted.Render(
		fmt.Sprintf("Done in %s", out.Duration.Round(10*time.Millisecond))))
}

func (r *Renderer) renderGates(out *pipeline.Outcome) {
	for _, g := range out.Gates {
		mark := styleSuccess.Render("✓")
		if !g.Passed {
			mark = styleError.Render("✗")
		}
		line := fmt.Sprintf("%s gate %s", mark, g.Gate)
		if g.Reason != "" {
			line += styleMuted.Render(" · " + g.Reason)
		}
		fmt.Fprintln(r.out, line)
	}
}

func (r *Renderer) renderClassification(out *pipeline.Outcome) {
	cls := out.Classification
	if cls == nil {
		return
	}
	fmt.Fprintln(r.out, styleAccent.Render("classified ")+fmt.Sprintf(
		"%s · %s risk · %s complexity · %s tier",
		cls.ChangeType, cls.RiskLevel, cls.Complexity, cls.SuggestedModelTier))
}

func (r *Renderer) renderReview(out *pipeline.Outcome) {
	rev := out.Review
	conf := out.Confidence

	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, rev.Summary)
	fmt.Fprintln(r.out)

	for _, issue := range rev.Issues {
		style := severityStyles[issue.Severity]
		location := issue.File
		if issue.Line > 0 {
			location = fmt.Sprintf("%s:%d", issue.File, issue.Line)
		}
		fmt.Fprintf(r.out, "  %s %s %s\n",
			style.Render(string(issue.Severity)), styleMuted.Render(location), issue.Description)
	}
	if len(rev.Issues) > 0 {
		fmt.Fprintln(r.out)
	}

	confStyle := styleSuccess
	switch conf.Recommendation {
	case confidence.CommentOnly:
		confStyle = styleWarning
	case confidence.Escalate:
		confStyle = styleError
	}
	fmt.Fprintln(r.out, confStyle.Render(
		fmt.Sprintf("confidence %.2f (%s) → %s", conf.Score, conf.Level, conf.Recommendation)))
	fmt.Fprintln(r.out, styleMuted.Render(fmt.Sprintf(
		"%s · %d attempt(s) · %d in / %d out tokens · $%.4f",
		rev.ModelUsed, out.Attempts, rev.TokensIn, rev.TokensOut, rev.CostUSD)))
}
