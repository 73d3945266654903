package review

import (
	"fmt"
	"strings"
)

// SystemPrompt instructs the reasoning provider to review a diff and
// answer in the JSON shape Parse expects.
const SystemPrompt = `You are an expert code reviewer. Review the change-set diff and provide actionable feedback.

Focus on:
1. Logic errors and bugs
2. Security vulnerabilities
3. Missing test coverage
4. Code patterns and best practices
5. Naming and readability

DO NOT focus on (handled by linters):
- Formatting issues
- Import ordering
- Whitespace problems

Respond in JSON format:
{
  "summary": "Brief overall assessment",
  "issues": [
    {
      "severity": "critical|major|minor|suggestion",
      "category": "logic|security|performance|style|testing|documentation",
      "file": "filename",
      "line": null or line number,
      "description": "What's wrong",
      "suggestion": "How to fix it"
    }
  ],
  "strengths": ["What the change does well"],
  "concerns": ["High-level concerns"],
  "questions": ["Questions for the author"]
}`

// PromptInput carries everything the user prompt is built from.
type PromptInput struct {
	Title       string
	Description string
	Diff        string
	FocusAreas  []string
	History     string // past-issues summary, empty if none
}

// BuildUserPrompt assembles the user message for a review call.
func BuildUserPrompt(in PromptInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Change: %s\n\n", in.Title)

	if in.Description != "" {
		fmt.Fprintf(&b, "## Description\n%s\n\n", in.Description)
	}

	if len(in.FocusAreas) > 0 {
		fmt.Fprintf(&b, "## Focus areas\nPay particular attention to: %s\n\n",
			strings.Join(in.FocusAreas, ", "))
	}

	if in.History != "" {
		fmt.Fprintf(&b, "## Review history\n%s\n\n", in.History)
	}

	fmt.Fprintf(&b, "## Diff\n```diff\n%s\n```\n\n", in.Diff)
	b.WriteString("Please review this change and provide your feedback in the JSON format specified.")

	return b.String()
}

// SummarizePrompt asks for a condensed description of an oversized
// diff, used when the strategy enables input summarization.
func SummarizePrompt(diff string) string {
	return fmt.Sprintf(`Summarize the following diff into a compact description of what changed, file by file. Preserve function and type names, keep security-relevant details, omit unchanged context lines.

%s`, diff)
}
