package services

import (
	"context"
	"fmt"
	"time"

	"github.com/thomas-vilte/changegen/internal/changelog"
	domainErrors "github.com/thomas-vilte/changegen/internal/errors"
	"github.com/thomas-vilte/changegen/internal/logger"
	"github.com/thomas-vilte/changegen/internal/models"
	"github.com/thomas-vilte/changegen/internal/vcs"
)

// compareOffset moves the lower bound past the head commit of the
// reference branch so the common commit is not listed again.
const compareOffset = time.Second

// GenerateRequest describes one changelog update.
type GenerateRequest struct {
	Project  string
	Branches []string
	Variant  changelog.Variant
	// Version, when set, is written as is instead of the computed one.
	Version       string
	File          string
	AllowedScopes []string
	WithIssues    bool
}

type GenerateResult struct {
	File     string
	Version  string
	Previous string
	Commits  int
	Issues   int
}

type ChangelogService struct {
	source    vcs.CommitSource
	collector *HistoryCollector
	issues    *IssueReporter
	now       func() time.Time
}

type ChangelogOption func(*ChangelogService)

// WithClock replaces the clock used for the section date.
func WithClock(now func() time.Time) ChangelogOption {
	return func(s *ChangelogService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCollectorOptions configures the history collector.
func WithCollectorOptions(opts ...CollectorOption) ChangelogOption {
	return func(s *ChangelogService) {
		s.collector = NewHistoryCollector(s.source, opts...)
	}
}

func NewChangelogService(source vcs.CommitSource, opts ...ChangelogOption) *ChangelogService {
	s := &ChangelogService{
		source:    source,
		collector: NewHistoryCollector(source),
		issues:    NewIssueReporter(source),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate collects the commits, resolves the next version and rewrites the
// changelog. Nothing is written unless every step before the write
// succeeded.
func (s *ChangelogService) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	log := logger.FromContext(ctx)
	renderer := changelog.NewRenderer(req.Variant)

	commits, err := s.collect(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(commits) == 0 {
		log.Warn("no commits collected, the new section will be empty",
			"project", req.Project,
			"branches", req.Branches)
	}

	doc, err := changelog.Read(req.File)
	if err != nil {
		return nil, err
	}

	classifier := NewClassifier(req.AllowedScopes)
	groups := classifier.Group(commits, models.DisplayOrder(renderer.IncludeVendor()))
	log.Info("commits classified",
		"collected", len(commits),
		"included", groups.Len())

	// The override short-circuits ResolveVersion, so current stays the
	// document's version and is only reported.
	current := CurrentVersion(doc, "")
	next, err := ResolveVersion(ctx, current, groups.Present(), req.Version)
	if err != nil {
		return nil, err
	}

	var issues []models.Issue
	if req.WithIssues {
		issues, err = s.issues.ClosedSinceLastTag(ctx, req.Project)
		if err != nil {
			return nil, err
		}
	}

	section := renderer.RenderSection(changelog.Section{
		Version: next,
		Date:    s.now(),
		Groups:  groups,
		Issues:  issues,
	})
	content := renderer.Merge(section, doc.Content)

	if err := doc.Write(content); err != nil {
		log.Error("failed to write changelog",
			"error", err,
			"file", req.File)
		return nil, err
	}

	log.Info("changelog updated",
		"file", req.File,
		"version", current,
		"next_version", next)

	return &GenerateResult{
		File:     req.File,
		Version:  next,
		Previous: current,
		Commits:  groups.Len(),
		Issues:   len(issues),
	}, nil
}

func (s *ChangelogService) collect(ctx context.Context, req GenerateRequest) ([]models.Commit, error) {
	switch req.Variant {
	case changelog.VariantCompare:
		if len(req.Branches) != 2 {
			return nil, branchCountError(req, 2)
		}
		head, err := s.source.GetBranchHead(ctx, req.Project, req.Branches[0])
		if err != nil {
			return nil, err
		}
		since := head.CommittedDate.Add(compareOffset)
		logger.Debug(ctx, "comparing branches",
			"reference", req.Branches[0],
			"branch", req.Branches[1],
			"since", since.UTC().Format(time.RFC3339))
		return s.collector.CollectSinceDate(ctx, req.Project, req.Branches[1], since)
	default:
		if len(req.Branches) != 1 {
			return nil, branchCountError(req, 1)
		}
		return s.collector.CollectUntilBump(ctx, req.Project, req.Branches[0])
	}
}

func branchCountError(req GenerateRequest, want int) error {
	return domainErrors.ErrInvalidConfig.
		WithError(fmt.Errorf("%s expects %d branch(es), got %d", req.Variant, want, len(req.Branches))).
		WithContext("branches", req.Branches)
}
