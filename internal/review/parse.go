package review

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/revqlabs/revq/internal/model"
)

// rawResult is the JSON shape the reasoning provider is prompted to return.
type rawResult struct {
	Summary   string     `json:"summary"`
	Issues    []rawIssue `json:"issues"`
	Strengths []string   `json:"strengths"`
	Concerns  []string   `json:"concerns"`
	Questions []string   `json:"questions"`
}

type rawIssue struct {
	Severity    string `json:"severity"`
	Category    string `json:"category"`
	File        string `json:"file"`
	Line        *int   `json:"line"`
	Description string `json:"description"`
	Suggestion  string `json:"suggestion"`
}

// Parse converts raw provider output into a Result. It tolerates
// markdown code fences around the JSON and, failing a direct parse,
// extracts the outermost JSON object from surrounding prose.
func Parse(content string) (*Result, error) {
	content = stripFences(strings.TrimSpace(content))

	var raw rawResult
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		start := strings.Index(content, "{")
		end := strings.LastIndex(content, "}")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("no JSON object in response: %w", err)
		}
		if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
			return nil, fmt.Errorf("invalid JSON response: %w", err)
		}
	}

	result := &Result{
		Summary:       raw.Summary,
		Strengths:     raw.Strengths,
		Concerns:      raw.Concerns,
		OpenQuestions: raw.Questions,
	}

	for _, ri := range raw.Issues {
		issue := Issue{
			Severity:    model.Severity(ri.Severity),
			Category:    ri.Category,
			File:        ri.File,
			Description: ri.Description,
		}
		if ValidSuggestion(ri.Suggestion) {
			issue.SuggestedFix = strings.TrimRight(ri.Suggestion, "\n")
		}
		if ri.Line != nil {
			issue.Line = *ri.Line
		}
		issue.Fingerprint = Fingerprint(issue)
		result.Issues = append(result.Issues, issue)
	}

	return result, nil
}

// stripFences removes a surrounding markdown code fence, if present.
func stripFences(content string) string {
	if !strings.HasPrefix(content, "```") {
		return content
	}
	lines := strings.Split(content, "\n")
	if len(lines) < 2 {
		return content
	}
	end := len(lines)
	if strings.TrimSpace(lines[end-1]) == "```" {
		end--
	}
	return strings.Join(lines[1:end], "\n")
}
