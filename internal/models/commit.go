package models

import (
	"strings"
	"time"
)

type (
	// Commit is a commit as returned by the hosting API, plus the fields the
	// classifier derives from its title.
	Commit struct {
		ID            string
		ShortID       string
		Title         string
		Message       string
		CommittedDate time.Time
		CreatedAt     time.Time

		// Type is Unclassified until the commit goes through the classifier.
		Type  ChangeType
		Scope string
	}

	// BranchHead is the tip commit of a branch.
	BranchHead struct {
		Name          string
		CommitID      string
		CommittedDate time.Time
	}

	// Tag is a repository tag; CommitCreatedAt is the creation date of the
	// tagged commit.
	Tag struct {
		Name            string
		CommitCreatedAt time.Time
	}

	// Issue is a closed issue of the project.
	Issue struct {
		IID      int
		Title    string
		ClosedAt time.Time
	}

	// CommitQuery selects one page of a branch history. Zero times mean no bound.
	CommitQuery struct {
		Branch string
		Since  time.Time
		Until  time.Time
	}
)

// FirstLine returns the first line of the commit message, falling back to
// the title for commits with an empty message.
func (c Commit) FirstLine() string {
	if c.Message == "" {
		return c.Title
	}
	first, _, _ := strings.Cut(c.Message, "\n")
	return strings.TrimRight(first, "\r")
}

// BodyLines returns the non-empty message lines after the first one.
func (c Commit) BodyLines() []string {
	_, rest, found := strings.Cut(c.Message, "\n")
	if !found {
		return nil
	}
	var lines []string
	for _, line := range strings.Split(rest, "\n") {
		line = strings.TrimRight(line, "\r")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// PageTime is the timestamp used to move the pagination cursor: the
// creation date when the API reports one, the commit date otherwise.
func (c Commit) PageTime() time.Time {
	if !c.CreatedAt.IsZero() {
		return c.CreatedAt
	}
	return c.CommittedDate
}
