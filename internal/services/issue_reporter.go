package services

import (
	"context"
	"time"

	"github.com/thomas-vilte/changegen/internal/logger"
	"github.com/thomas-vilte/changegen/internal/models"
	"github.com/thomas-vilte/changegen/internal/vcs"
)

// IssueReporter lists the issues closed since the most recent tag.
type IssueReporter struct {
	source vcs.CommitSource
}

func NewIssueReporter(source vcs.CommitSource) *IssueReporter {
	return &IssueReporter{source: source}
}

// ClosedSinceLastTag returns the issues closed after the creation date of the
// commit behind the first (most recent) tag. Without tags every closed issue
// is returned.
func (r *IssueReporter) ClosedSinceLastTag(ctx context.Context, project string) ([]models.Issue, error) {
	log := logger.FromContext(ctx)

	tags, err := r.source.ListTags(ctx, project)
	if err != nil {
		return nil, err
	}

	var cutoff time.Time
	if len(tags) > 0 {
		cutoff = tags[0].CommitCreatedAt
		log.Debug("closed issues cut-off",
			"tag", tags[0].Name,
			"since", cutoff.UTC().Format(time.RFC3339))
	} else {
		log.Info("project has no tags, reporting every closed issue", "project", project)
	}

	issues, err := r.source.ListClosedIssues(ctx, project)
	if err != nil {
		return nil, err
	}

	var closed []models.Issue
	for _, issue := range issues {
		if issue.ClosedAt.IsZero() {
			continue
		}
		if cutoff.IsZero() || issue.ClosedAt.After(cutoff) {
			closed = append(closed, issue)
		}
	}
	return closed, nil
}
