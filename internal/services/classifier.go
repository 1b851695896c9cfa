package services

import (
	"strings"

	"github.com/thomas-vilte/changegen/internal/models"
	"github.com/thomas-vilte/changegen/internal/regex"
)

// Title is a commit subject split as "<type>(<scope>): <subject>".
type Title struct {
	Type    string
	Scope   string
	Subject string
}

// HasScope reports whether the title carries a non-empty scope.
func (t Title) HasScope() bool {
	return t.Scope != ""
}

// ParseTitle splits a commit title. The first colon ends the prefix; a type
// never contains parentheses or colons. ok is false for titles that do not
// follow the grammar.
func ParseTitle(title string) (Title, bool) {
	m := regex.CommitTitle.FindStringSubmatch(title)
	if m == nil {
		return Title{}, false
	}
	return Title{
		Type:    m[1],
		Scope:   m[2],
		Subject: strings.TrimSpace(m[3]),
	}, true
}

// Classifier assigns change types to commits and drops the ones whose scope
// belongs to another sub-project.
type Classifier struct {
	allowed map[string]struct{}
}

// NewClassifier builds a classifier for one run. The scopes are copied.
func NewClassifier(allowedScopes []string) *Classifier {
	allowed := make(map[string]struct{}, len(allowedScopes))
	for _, s := range allowedScopes {
		allowed[s] = struct{}{}
	}
	return &Classifier{allowed: allowed}
}

// Classify returns the change type and scope of the commit, and whether it
// belongs in the changelog. Titles outside the grammar are Unclassified and
// always included; unknown types fall back to Unclassified.
func (c *Classifier) Classify(commit models.Commit) (models.ChangeType, string, bool) {
	title, ok := ParseTitle(commit.Title)
	if !ok {
		return models.Unclassified, "", true
	}

	if title.HasScope() {
		if _, allowed := c.allowed[title.Scope]; !allowed {
			return models.Unclassified, title.Scope, false
		}
	}

	changeType, _ := models.ParseChangeType(title.Type)
	return changeType, title.Scope, true
}

// Group classifies commits in order and buckets the included ones. The
// input slice is not modified.
func (c *Classifier) Group(commits []models.Commit, order []models.ChangeType) *models.CommitTypeGroups {
	groups := models.NewCommitTypeGroups(order)
	for _, commit := range commits {
		changeType, scope, included := c.Classify(commit)
		if !included {
			continue
		}
		commit.Type = changeType
		commit.Scope = scope
		groups.Add(commit)
	}
	return groups
}
