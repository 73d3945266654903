package review

import (
	"regexp"
	"strings"
)

// DefaultChunkLines caps the size of a single chunk body.
const DefaultChunkLines = 200

// Chunk is one slice of a diff sized for an individual review call.
type Chunk struct {
	Content     string
	FilePath    string
	Index       int
	TotalChunks int
}

var fileDiffPattern = regexp.MustCompile(`(?m)^diff --git a/(.*?) b/`)

// SplitDiff splits an oversized diff into per-file sections, then
// splits any section longer than maxLines into line-bounded chunks
// that each keep the file header for context.
func SplitDiff(diff string, maxLines int) []Chunk {
	if strings.TrimSpace(diff) == "" {
		return nil
	}
	if maxLines <= 0 {
		maxLines = DefaultChunkLines
	}

	sections := splitByFile(diff)
	if len(sections) == 0 {
		sections = []fileSection{{path: "unknown", content: diff}}
	}

	var raw []fileSection
	for _, sec := range sections {
		if len(strings.Split(sec.content, "\n")) > maxLines {
			raw = append(raw, splitByLines(sec, maxLines)...)
		} else {
			raw = append(raw, sec)
		}
	}

	chunks := make([]Chunk, len(raw))
	for i, sec := range raw {
		chunks[i] = Chunk{
			Content:     sec.content,
			FilePath:    sec.path,
			Index:       i,
			TotalChunks: len(raw),
		}
	}
	return chunks
}

type fileSection struct {
	path    string
	content string
}

func splitByFile(diff string) []fileSection {
	matches := fileDiffPattern.FindAllStringSubmatchIndex(diff, -1)
	if len(matches) == 0 {
		return nil
	}

	sections := make([]fileSection, 0, len(matches))
	for i, m := range matches {
		start := m[0]
		end := len(diff)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		sections = append(sections, fileSection{
			path:    diff[m[2]:m[3]],
			content: strings.TrimRight(diff[start:end], "\n"),
		})
	}
	return sections
}

// splitByLines splits one file's diff into chunks of at most maxLines
// body lines, repeating the pre-hunk header in each chunk.
func splitByLines(sec fileSection, maxLines int) []fileSection {
	lines := strings.Split(sec.content, "\n")

	headerEnd := 0
	for i, line := range lines {
		if strings.HasPrefix(line, "@@") {
			headerEnd = i
			break
		}
	}
	header := strings.Join(lines[:headerEnd], "\n")
	body := lines[headerEnd:]

	if len(body) <= maxLines {
		return []fileSection{sec}
	}

	var out []fileSection
	for start := 0; start < len(body); start += maxLines {
		end := start + maxLines
		if end > len(body) {
			end = len(body)
		}
		content := header + "\n" + strings.Join(body[start:end], "\n")
		out = append(out, fileSection{
			path:    sec.path,
			content: strings.TrimRight(content, "\n"),
		})
	}
	return out
}

// Merge combines chunk results into one, deduplicating issues by
// fingerprint and summing token and cost totals.
func Merge(results []*Result) *Result {
	if len(results) == 0 {
		return &Result{}
	}
	if len(results) == 1 {
		return results[0]
	}

	merged := &Result{
		TierUsed:  results[0].TierUsed,
		ModelUsed: results[0].ModelUsed,
	}

	seen := make(map[string]bool)
	var summaries []string
	for _, r := range results {
		for _, issue := range r.Issues {
			if issue.Fingerprint != "" && seen[issue.Fingerprint] {
				continue
			}
			if issue.Fingerprint != "" {
				seen[issue.Fingerprint] = true
			}
			merged.Issues = append(merged.Issues, issue)
		}
		if r.Summary != "" {
			summaries = append(summaries, r.Summary)
		}
		merged.Strengths = appendUnique(merged.Strengths, r.Strengths)
		merged.Concerns = appendUnique(merged.Concerns, r.Concerns)
		merged.OpenQuestions = appendUnique(merged.OpenQuestions, r.OpenQuestions)
		merged.TokensIn += r.TokensIn
		merged.TokensOut += r.TokensOut
		merged.CostUSD += r.CostUSD
	}
	merged.Summary = strings.Join(summaries, " | ")

	return merged
}

func appendUnique(dst, src []string) []string {
	for _, s := range src {
		dup := false
		for _, have := range dst {
			if have == s {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, s)
		}
	}
	return dst
}
