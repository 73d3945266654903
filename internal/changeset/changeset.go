// Package changeset defines the unit under review: a proposed set of
// file modifications plus the metadata needed to gate and classify it.
package changeset

import (
	"fmt"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
)

// ChangeSet is the reviewable unit. It is immutable once built and
// owned by the pipeline for the duration of one run.
type ChangeSet struct {
	Owner        string
	Repo         string
	Number       int
	Title        string
	Author       string
	Description  string
	Diff         string   // unified diff text
	Files        []string // changed file paths
	LinesAdded   int
	LinesRemoved int
	BaseBranch   string
	HeadBranch   string
	URL          string
}

// LinesChanged returns the total added plus removed line count.
func (c *ChangeSet) LinesChanged() int {
	return c.LinesAdded + c.LinesRemoved
}

// FilesChanged returns the number of changed files.
func (c *ChangeSet) FilesChanged() int {
	return len(c.Files)
}

// Ref returns the owner/repo#number identifier for display and logging.
func (c *ChangeSet) Ref() string {
	return fmt.Sprintf("%s/%s#%d", c.Owner, c.Repo, c.Number)
}

// FromDiff builds a ChangeSet from raw unified diff text, deriving the
// file list and line counts by parsing the diff. Used by the local
// --diff mode where no host API supplies the stats.
func FromDiff(raw string) (*ChangeSet, error) {
	files, _, err := gitdiff.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing diff: %w", err)
	}

	cs := &ChangeSet{Diff: raw}
	for _, f := range files {
		name := f.NewName
		if name == "" {
			name = f.OldName
		}
		cs.Files = append(cs.Files, name)

		for _, frag := range f.TextFragments {
			for _, line := range frag.Lines {
				switch line.Op {
				case gitdiff.OpAdd:
					cs.LinesAdded++
				case gitdiff.OpDelete:
					cs.LinesRemoved++
				}
			}
		}
	}

	return cs, nil
}
