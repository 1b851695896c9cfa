package vcs

import (
	"context"

	"github.com/thomas-vilte/changegen/internal/models"
)

// CommitSource defines the read-only calls the changelog generator needs
// from a hosting provider.
type CommitSource interface {
	// GetBranchHead gets the head commit of a branch.
	GetBranchHead(ctx context.Context, project, branch string) (models.BranchHead, error)
	// ListCommits gets one page of commits of query.Branch, newest first,
	// bounded by query.Since and query.Until when they are set.
	ListCommits(ctx context.Context, project string, query models.CommitQuery) ([]models.Commit, error)
	// ListTags gets the repository tags, most recent first.
	ListTags(ctx context.Context, project string) ([]models.Tag, error)
	// ListClosedIssues gets every closed issue of the project.
	ListClosedIssues(ctx context.Context, project string) ([]models.Issue, error)
}
