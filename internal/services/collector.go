package services

import (
	"context"
	"regexp"
	"sort"
	"time"

	"github.com/thomas-vilte/changegen/internal/logger"
	"github.com/thomas-vilte/changegen/internal/models"
	"github.com/thomas-vilte/changegen/internal/regex"
	"github.com/thomas-vilte/changegen/internal/vcs"
)

const (
	defaultBumpPrefix = "bump"

	// cursorStep is subtracted from the oldest timestamp of a page so the
	// next page starts strictly before it.
	cursorStep = time.Millisecond
)

type stopReason string

const (
	stopEmptyPage  stopReason = "empty page"
	stopStalled    stopReason = "repeated page boundary"
	stopBump       stopReason = "bump marker"
	stopNoProgress stopReason = "page without new commits"
)

// HistoryCollector walks the commit history of a branch page by page,
// moving an "until" cursor backwards after every page.
type HistoryCollector struct {
	source     vcs.CommitSource
	bumpMarker *regexp.Regexp
}

type CollectorOption func(*HistoryCollector)

// WithBumpPrefix changes the title prefix that marks a release commit.
func WithBumpPrefix(prefix string) CollectorOption {
	return func(c *HistoryCollector) {
		if prefix != "" {
			c.bumpMarker = regex.BumpMarker(prefix)
		}
	}
}

func NewHistoryCollector(source vcs.CommitSource, opts ...CollectorOption) *HistoryCollector {
	c := &HistoryCollector{
		source:     source,
		bumpMarker: regex.BumpMarker(defaultBumpPrefix),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CollectUntilBump returns the commits of branch made after the most recent
// bump commit, oldest first. Without a bump commit the whole history is
// returned.
func (c *HistoryCollector) CollectUntilBump(ctx context.Context, project, branch string) ([]models.Commit, error) {
	commits, err := c.collect(ctx, project, models.CommitQuery{Branch: branch}, true)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(commits, func(i, j int) bool {
		return commits[i].CommittedDate.Before(commits[j].CommittedDate)
	})
	return commits, nil
}

// CollectSinceDate returns the commits of branch made after since, most
// recent first.
func (c *HistoryCollector) CollectSinceDate(ctx context.Context, project, branch string, since time.Time) ([]models.Commit, error) {
	commits, err := c.collect(ctx, project, models.CommitQuery{Branch: branch, Since: since}, false)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(commits, func(i, j int) bool {
		return commits[i].CommittedDate.After(commits[j].CommittedDate)
	})
	return commits, nil
}

func (c *HistoryCollector) collect(ctx context.Context, project string, query models.CommitQuery, stopAtBump bool) ([]models.Commit, error) {
	log := logger.FromContext(ctx)

	var (
		collected  []models.Commit
		seen       = make(map[string]struct{})
		prevLastID string
		pages      int
		reason     stopReason
	)

	for {
		page, err := c.source.ListCommits(ctx, project, query)
		if err != nil {
			return nil, err
		}
		pages++

		if len(page) == 0 {
			reason = stopEmptyPage
			break
		}

		last := page[len(page)-1]
		if pages > 1 && last.ID == prevLastID {
			reason = stopStalled
			break
		}
		prevLastID = last.ID

		bumped := false
		added := 0
		for _, commit := range page {
			if stopAtBump && c.bumpMarker.MatchString(commit.Title) {
				log.Debug("bump commit found",
					"id", commit.ShortID,
					"title", commit.Title)
				bumped = true
				break
			}
			if _, dup := seen[commit.ID]; dup {
				continue
			}
			seen[commit.ID] = struct{}{}
			collected = append(collected, commit)
			added++
		}
		if bumped {
			reason = stopBump
			break
		}
		if added == 0 {
			reason = stopNoProgress
			break
		}

		query.Until = last.PageTime().Add(-cursorStep)

		log.Debug("commit page collected",
			"page", pages,
			"page_size", len(page),
			"collected", len(collected),
			"until", query.Until.UTC().Format(time.RFC3339Nano))
	}

	log.Info("commit collection finished",
		"branch", query.Branch,
		"pages", pages,
		"collected", len(collected),
		"reason", string(reason))

	return collected, nil
}
