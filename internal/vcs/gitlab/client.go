package gitlab

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	domainErrors "github.com/thomas-vilte/changegen/internal/errors"
	"github.com/thomas-vilte/changegen/internal/logger"
	"github.com/thomas-vilte/changegen/internal/models"
	"github.com/thomas-vilte/changegen/internal/vcs"
	gitlab "gitlab.com/gitlab-org/api/client-go"
	"golang.org/x/oauth2"
)

var _ vcs.CommitSource = (*Client)(nil)

const (
	TokenPrivate = "private"
	TokenOAuth   = "oauth"

	defaultPerPage = 20
)

type BranchesService interface {
	GetBranch(pid interface{}, branch string, options ...gitlab.RequestOptionFunc) (*gitlab.Branch, *gitlab.Response, error)
}

type CommitsService interface {
	ListCommits(pid interface{}, opt *gitlab.ListCommitsOptions, options ...gitlab.RequestOptionFunc) ([]*gitlab.Commit, *gitlab.Response, error)
}

type TagsService interface {
	ListTags(pid interface{}, opt *gitlab.ListTagsOptions, options ...gitlab.RequestOptionFunc) ([]*gitlab.Tag, *gitlab.Response, error)
}

type IssuesService interface {
	ListProjectIssues(pid interface{}, opt *gitlab.ListProjectIssuesOptions, options ...gitlab.RequestOptionFunc) ([]*gitlab.Issue, *gitlab.Response, error)
}

// Config holds what is needed to reach a GitLab instance.
type Config struct {
	BaseURL   string
	Token     string
	TokenType string
	VerifySSL bool
	Timeout   time.Duration
	PerPage   int
}

type Client struct {
	branches BranchesService
	commits  CommitsService
	tags     TagsService
	issues   IssuesService
	perPage  int
}

// NewClient builds a Client backed by the GitLab REST API v4. Requests are
// never retried.
func NewClient(cfg Config) (*Client, error) {
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, domainErrors.ErrInvalidURL.WithError(err).WithContext("url", cfg.BaseURL)
	}

	httpClient := NewHTTPClient(cfg)
	opts := []gitlab.ClientOptionFunc{
		gitlab.WithBaseURL(cfg.BaseURL),
		gitlab.WithHTTPClient(httpClient),
		gitlab.WithoutRetries(),
	}

	var (
		client *gitlab.Client
		err    error
	)
	if cfg.TokenType == TokenOAuth {
		client, err = gitlab.NewOAuthClient(cfg.Token, opts...)
	} else {
		client, err = gitlab.NewClient(cfg.Token, opts...)
	}
	if err != nil {
		return nil, domainErrors.ErrInvalidURL.WithError(err).WithContext("url", cfg.BaseURL)
	}

	return NewClientWithServices(client.Branches, client.Commits, client.Tags, client.Issues, cfg.PerPage), nil
}

func NewClientWithServices(
	branches BranchesService,
	commits CommitsService,
	tags TagsService,
	issues IssuesService,
	perPage int,
) *Client {
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	return &Client{
		branches: branches,
		commits:  commits,
		tags:     tags,
		issues:   issues,
		perPage:  perPage,
	}
}

// NewHTTPClient returns the HTTP client used for every API call. The TLS
// toggle and the timeout are applied here; an OAuth token is attached by an
// oauth2 transport.
func NewHTTPClient(cfg Config) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !cfg.VerifySSL {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	base := &http.Client{Transport: transport, Timeout: cfg.Timeout}
	if cfg.TokenType != TokenOAuth || cfg.Token == "" {
		return base
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"})
	httpClient := oauth2.NewClient(ctx, ts)
	httpClient.Timeout = cfg.Timeout
	return httpClient
}

func (c *Client) GetBranchHead(ctx context.Context, project, branch string) (models.BranchHead, error) {
	log := logger.FromContext(ctx)

	log.Debug("fetching gitlab branch",
		"project", project,
		"branch", branch)

	b, resp, err := c.branches.GetBranch(projectID(project), branch, gitlab.WithContext(ctx))
	if err != nil {
		log.Error("failed to fetch gitlab branch",
			"error", err,
			"project", project,
			"branch", branch)
		return models.BranchHead{}, transportError(domainErrors.ErrBranchHead, resp, err).
			WithContext("operation", "get branch head").
			WithContext("branch", branch)
	}

	if b == nil || b.Commit == nil {
		return models.BranchHead{}, domainErrors.ErrBranchHead.
			WithError(errors.New("branch has no head commit")).
			WithContext("operation", "get branch head").
			WithContext("branch", branch)
	}

	head := models.BranchHead{
		Name:     b.Name,
		CommitID: b.Commit.ID,
	}
	if b.Commit.CommittedDate != nil {
		head.CommittedDate = *b.Commit.CommittedDate
	}
	return head, nil
}

func (c *Client) ListCommits(ctx context.Context, project string, query models.CommitQuery) ([]models.Commit, error) {
	log := logger.FromContext(ctx)

	opt := &gitlab.ListCommitsOptions{
		ListOptions: gitlab.ListOptions{PerPage: c.perPage},
		RefName:     gitlab.Ptr(query.Branch),
	}
	if !query.Since.IsZero() {
		opt.Since = gitlab.Ptr(query.Since)
	}
	if !query.Until.IsZero() {
		opt.Until = gitlab.Ptr(query.Until)
	}

	log.Debug("fetching gitlab commits",
		"project", project,
		"branch", query.Branch,
		"since", formatBound(query.Since),
		"until", formatBound(query.Until),
		"page_size", c.perPage)

	glCommits, resp, err := c.commits.ListCommits(projectID(project), opt, gitlab.WithContext(ctx))
	if err != nil {
		log.Error("failed to fetch gitlab commits",
			"error", err,
			"project", project,
			"branch", query.Branch)
		return nil, transportError(domainErrors.ErrListCommits, resp, err).
			WithContext("operation", "list commits").
			WithContext("branch", query.Branch)
	}

	commits := make([]models.Commit, 0, len(glCommits))
	for _, gc := range glCommits {
		if gc == nil {
			continue
		}
		commits = append(commits, toCommit(gc))
	}
	return commits, nil
}

func (c *Client) ListTags(ctx context.Context, project string) ([]models.Tag, error) {
	log := logger.FromContext(ctx)

	log.Debug("fetching gitlab tags", "project", project)

	glTags, resp, err := c.tags.ListTags(projectID(project), &gitlab.ListTagsOptions{
		ListOptions: gitlab.ListOptions{PerPage: c.perPage},
	}, gitlab.WithContext(ctx))
	if err != nil {
		log.Error("failed to fetch gitlab tags",
			"error", err,
			"project", project)
		return nil, transportError(domainErrors.ErrListTags, resp, err).
			WithContext("operation", "list tags")
	}

	tags := make([]models.Tag, 0, len(glTags))
	for _, t := range glTags {
		if t == nil {
			continue
		}
		tag := models.Tag{Name: t.Name}
		if t.Commit != nil && t.Commit.CreatedAt != nil {
			tag.CommitCreatedAt = *t.Commit.CreatedAt
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func (c *Client) ListClosedIssues(ctx context.Context, project string) ([]models.Issue, error) {
	log := logger.FromContext(ctx)

	opt := &gitlab.ListProjectIssuesOptions{
		ListOptions: gitlab.ListOptions{PerPage: c.perPage, Page: 1},
		State:       gitlab.Ptr("closed"),
	}

	var issues []models.Issue
	for {
		log.Debug("fetching gitlab closed issues",
			"project", project,
			"page", opt.Page)

		glIssues, resp, err := c.issues.ListProjectIssues(projectID(project), opt, gitlab.WithContext(ctx))
		if err != nil {
			log.Error("failed to fetch gitlab issues",
				"error", err,
				"project", project)
			return nil, transportError(domainErrors.ErrListIssues, resp, err).
				WithContext("operation", "list closed issues")
		}

		for _, gi := range glIssues {
			if gi == nil {
				continue
			}
			issue := models.Issue{IID: gi.IID, Title: gi.Title}
			if gi.ClosedAt != nil {
				issue.ClosedAt = *gi.ClosedAt
			}
			issues = append(issues, issue)
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
		if resp.NextPage <= opt.Page {
			return nil, domainErrors.ErrListIssues.
				WithError(fmt.Errorf("next page %d does not follow page %d", resp.NextPage, opt.Page)).
				WithContext("operation", "list closed issues")
		}
		opt.Page = resp.NextPage
	}

	return issues, nil
}

func toCommit(gc *gitlab.Commit) models.Commit {
	commit := models.Commit{
		ID:      gc.ID,
		ShortID: gc.ShortID,
		Title:   gc.Title,
		Message: gc.Message,
	}
	if gc.CommittedDate != nil {
		commit.CommittedDate = *gc.CommittedDate
	}
	if gc.CreatedAt != nil {
		commit.CreatedAt = *gc.CreatedAt
	}
	return commit
}

// projectID accepts either a numeric id or a "group/project" path, already
// URL-encoded or not. The client library escapes string ids itself.
func projectID(project string) string {
	if strings.Contains(project, "%") {
		if decoded, err := url.PathUnescape(project); err == nil {
			return decoded
		}
	}
	return project
}

func transportError(sentinel *domainErrors.AppError, resp *gitlab.Response, err error) *domainErrors.AppError {
	if resp != nil && resp.Response != nil {
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return domainErrors.ErrUnauthorized.WithError(err).WithContext("status", resp.StatusCode)
		case http.StatusNotFound:
			return domainErrors.ErrProjectNotFound.WithError(err).WithContext("status", resp.StatusCode)
		default:
			return sentinel.WithError(err).WithContext("status", resp.StatusCode)
		}
	}
	return sentinel.WithError(err)
}

func formatBound(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
