// Package github fetches change-sets from GitHub pull requests and
// posts review comments back.
package github

import (
	"context"
	"fmt"
	"os"

	gh "github.com/google/go-github/v57/github"

	"github.com/revqlabs/revq/internal/changeset"
)

// Source fetches pull requests as change-sets.
type Source struct {
	client *gh.Client
}

// New builds a Source from the GITHUB_TOKEN environment variable. An
// unset token still works for public repositories.
func New() *Source {
	client := gh.NewClient(nil)
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		client = client.WithAuthToken(token)
	}
	return &Source{client: client}
}

// NewWithClient injects a client, for tests.
func NewWithClient(client *gh.Client) *Source {
	return &Source{client: client}
}

// Fetch loads one pull request, its diff, and its changed file list.
func (s *Source) Fetch(ctx context.Context, owner, repo string, number int) (*changeset.ChangeSet, error) {
	pr, _, err := s.client.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, fmt.Errorf("fetching pull request %s/%s#%d: %w", owner, repo, number, err)
	}

	diff, _, err := s.client.PullRequests.GetRaw(ctx, owner, repo, number,
		gh.RawOptions{Type: gh.Diff})
	if err != nil {
		return nil, fmt.Errorf("fetching diff for %s/%s#%d: %w", owner, repo, number, err)
	}

	files, err := s.listFiles(ctx, owner, repo, number)
	if err != nil {
		return nil, err
	}

	cs := &changeset.ChangeSet{
		Owner:        owner,
		Repo:         repo,
		Number:       number,
		Title:        pr.GetTitle(),
		Author:       pr.GetUser().GetLogin(),
		Description:  pr.GetBody(),
		Diff:         diff,
		Files:        files,
		LinesAdded:   pr.GetAdditions(),
		LinesRemoved: pr.GetDeletions(),
		BaseBranch:   pr.GetBase().GetRef(),
		HeadBranch:   pr.GetHead().GetRef(),
		URL:          pr.GetHTMLURL(),
	}
	return cs, nil
}

func (s *Source) listFiles(ctx context.Context, owner, repo string, number int) ([]string, error) {
	var files []string
	opts := &gh.ListOptions{PerPage: 100}
	for {
		page, resp, err := s.client.PullRequests.ListFiles(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("listing files for %s/%s#%d: %w", owner, repo, number, err)
		}
		for _, f := range page {
			files = append(files, f.GetFilename())
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return files, nil
}

// PostComment adds a review comment to the pull request conversation.
func (s *Source) PostComment(ctx context.Context, owner, repo string, number int, body string) error {
	_, _, err := s.client.Issues.CreateComment(ctx, owner, repo, number,
		&gh.IssueComment{Body: gh.String(body)})
	if err != nil {
		return fmt.Errorf("posting comment to %s/%s#%d: %w", owner, repo, number, err)
	}
	return nil
}
