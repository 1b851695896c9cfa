package changelog

import (
	"fmt"
	"strings"
	"time"

	"github.com/thomas-vilte/changegen/internal/models"
	"github.com/thomas-vilte/changegen/internal/regex"
)

// Variant selects the header format and how old content is merged.
type Variant string

const (
	// VariantBump writes "## vX.Y.Z (YYYY-MM-DD)" and prepends to the old
	// content as is.
	VariantBump Variant = "bump"
	// VariantCompare writes "## vX.Y.Z - YYYY/MM/DD", renders vendor updates
	// and keeps a single "# Changelog" title on top of the file.
	VariantCompare Variant = "compare"
)

const (
	StaticTitle         = "# Changelog"
	closedIssuesTitle   = "Closed Issues"
	bulletDateLayout    = "2006-01-02"
	bumpHeaderLayout    = "2006-01-02"
	compareHeaderLayout = "2006/01/02"
)

// Section is everything rendered for one release.
type Section struct {
	Version string
	Date    time.Time
	Groups  *models.CommitTypeGroups
	Issues  []models.Issue
}

type Renderer struct {
	variant Variant
}

func NewRenderer(variant Variant) *Renderer {
	if variant != VariantCompare {
		variant = VariantBump
	}
	return &Renderer{variant: variant}
}

// IncludeVendor reports whether vendor updates get their own section.
func (r *Renderer) IncludeVendor() bool {
	return r.variant == VariantCompare
}

// Header renders the version header line.
func (r *Renderer) Header(version string, date time.Time) string {
	if r.variant == VariantCompare {
		return fmt.Sprintf("## v%s - %s", version, date.Format(compareHeaderLayout))
	}
	return fmt.Sprintf("## v%s (%s)", version, date.Format(bumpHeaderLayout))
}

// RenderSection renders the header, one subsection per non-empty group in
// display order and, when present, the closed issues.
func (r *Renderer) RenderSection(s Section) string {
	var sb strings.Builder

	sb.WriteString(r.Header(s.Version, s.Date))
	sb.WriteString("\n")

	if s.Groups != nil {
		for _, t := range models.DisplayOrder(r.IncludeVendor()) {
			commits := s.Groups.Get(t)
			if len(commits) == 0 {
				continue
			}
			fmt.Fprintf(&sb, "\n### %s\n\n", t.Title())
			for _, c := range commits {
				sb.WriteString(Bullet(c))
			}
		}
	}

	if len(s.Issues) > 0 {
		fmt.Fprintf(&sb, "\n### %s\n\n", closedIssuesTitle)
		for _, issue := range s.Issues {
			fmt.Fprintf(&sb, "  * %s - %s\n", issue.ClosedAt.Format(bulletDateLayout), issue.Title)
		}
	}

	return sb.String()
}

// Bullet renders one commit: date, first message line and short id, then
// the remaining non-empty lines indented as continuation lines. The short id
// is left out when the first line already ends with a merge request
// reference.
func Bullet(c models.Commit) string {
	var sb strings.Builder

	first := strings.TrimRight(c.FirstLine(), " \t")
	fmt.Fprintf(&sb, "  * %s - %s", c.CommittedDate.Format(bulletDateLayout), first)
	if c.ShortID != "" && !regex.MergeRequest.MatchString(first) {
		fmt.Fprintf(&sb, " (%s)", c.ShortID)
	}
	sb.WriteString("\n")

	for _, line := range c.BodyLines() {
		sb.WriteString("    ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

// Merge prepends the rendered section to the old content. The compare
// variant strips its static title from the old content and writes it again
// on top, so the title never accumulates.
func (r *Renderer) Merge(section, old string) string {
	var sb strings.Builder

	if r.variant == VariantCompare {
		old = StripStaticHeader(old)
		sb.WriteString(StaticTitle)
		sb.WriteString("\n\n")
	}

	sb.WriteString(section)
	if old != "" {
		sb.WriteString("\n")
		sb.WriteString(old)
	}
	return sb.String()
}

// StripStaticHeader removes the two-line "# Changelog" title from the top
// of content when it is there.
func StripStaticHeader(content string) string {
	title, rest, found := strings.Cut(content, "\n")
	if strings.TrimRight(title, "\r") != StaticTitle {
		return content
	}
	if !found {
		return ""
	}
	blank, after, found := strings.Cut(rest, "\n")
	if strings.TrimSpace(blank) != "" {
		return content
	}
	if !found {
		return ""
	}
	return after
}
