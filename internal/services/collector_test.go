package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	domainErrors "github.com/thomas-vilte/changegen/internal/errors"
	"github.com/thomas-vilte/changegen/internal/models"
	"pgregory.net/rapid"
)

var baseTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// pagedSource serves fixed pages in order and records every query.
type pagedSource struct {
	pages   [][]models.Commit
	queries []models.CommitQuery
}

func (p *pagedSource) GetBranchHead(context.Context, string, string) (models.BranchHead, error) {
	return models.BranchHead{}, nil
}

func (p *pagedSource) ListCommits(_ context.Context, _ string, query models.CommitQuery) ([]models.Commit, error) {
	p.queries = append(p.queries, query)
	if len(p.queries) > len(p.pages) {
		return nil, nil
	}
	return p.pages[len(p.queries)-1], nil
}

func (p *pagedSource) ListTags(context.Context, string) ([]models.Tag, error) {
	return nil, nil
}

func (p *pagedSource) ListClosedIssues(context.Context, string) ([]models.Issue, error) {
	return nil, nil
}

// cyclingSource ignores the cursor: it serves pages in order and then
// repeats pages[loopFrom:] forever. It gives up after maxCalls requests so a
// collector that never halts fails the test instead of hanging it.
type cyclingSource struct {
	pagedSource
	loopFrom int
	maxCalls int
}

func (c *cyclingSource) ListCommits(_ context.Context, _ string, query models.CommitQuery) ([]models.Commit, error) {
	c.queries = append(c.queries, query)
	i := len(c.queries) - 1
	if i >= c.maxCalls {
		return nil, nil
	}
	if i < len(c.pages) {
		return c.pages[i], nil
	}
	loop := c.pages[c.loopFrom:]
	return loop[(i-len(c.pages))%len(loop)], nil
}

// history returns n commits, newest first, one minute apart.
func history(n int) []models.Commit {
	commits := make([]models.Commit, n)
	for i := range commits {
		ts := baseTime.Add(-time.Duration(i) * time.Minute)
		commits[i] = models.Commit{
			ID:            fmt.Sprintf("id-%03d", i),
			ShortID:       fmt.Sprintf("s%03d", i),
			Title:         fmt.Sprintf("fix: change %d", i),
			Message:       fmt.Sprintf("fix: change %d", i),
			CommittedDate: ts,
			CreatedAt:     ts,
		}
	}
	return commits
}

func paginate(commits []models.Commit, size int) [][]models.Commit {
	var pages [][]models.Commit
	for start := 0; start < len(commits); start += size {
		end := min(start+size, len(commits))
		pages = append(pages, commits[start:end])
	}
	return pages
}

func ids(commits []models.Commit) []string {
	out := make([]string, len(commits))
	for i, c := range commits {
		out[i] = c.ID
	}
	return out
}

func TestHistoryCollector_CollectUntilBump(t *testing.T) {
	t.Run("should stop at the bump commit and sort ascending", func(t *testing.T) {
		commits := history(5)
		commits[3].Title = "bump: version 1.2.0 → 1.3.0"
		src := &pagedSource{pages: paginate(commits, 2)}

		got, err := NewHistoryCollector(src).CollectUntilBump(context.Background(), "42", "main")

		require.NoError(t, err)
		assert.Equal(t, []string{"id-002", "id-001", "id-000"}, ids(got))
		assert.Len(t, src.queries, 2, "no page is requested after the bump commit")
	})

	t.Run("should move the cursor below the oldest commit of each page", func(t *testing.T) {
		commits := history(4)
		src := &pagedSource{pages: paginate(commits, 2)}

		_, err := NewHistoryCollector(src).CollectUntilBump(context.Background(), "42", "main")

		require.NoError(t, err)
		require.Len(t, src.queries, 3)
		assert.True(t, src.queries[0].Until.IsZero())
		assert.Equal(t, "main", src.queries[0].Branch)
		assert.Equal(t, commits[1].CreatedAt.Add(-time.Millisecond), src.queries[1].Until)
		assert.Equal(t, commits[3].CreatedAt.Add(-time.Millisecond), src.queries[2].Until)
	})

	t.Run("should fall back to the commit date for the cursor", func(t *testing.T) {
		commits := history(1)
		commits[0].CreatedAt = time.Time{}
		src := &pagedSource{pages: [][]models.Commit{commits}}

		_, err := NewHistoryCollector(src).CollectUntilBump(context.Background(), "42", "main")

		require.NoError(t, err)
		require.Len(t, src.queries, 2)
		assert.Equal(t, commits[0].CommittedDate.Add(-time.Millisecond), src.queries[1].Until)
	})

	t.Run("should honour a custom bump prefix", func(t *testing.T) {
		commits := history(3)
		commits[1].Title = "release: 2.0.0"
		src := &pagedSource{pages: [][]models.Commit{commits}}

		got, err := NewHistoryCollector(src, WithBumpPrefix("release")).CollectUntilBump(context.Background(), "42", "main")

		require.NoError(t, err)
		assert.Equal(t, []string{"id-000"}, ids(got))
	})

	t.Run("should halt when a page repeats the last boundary", func(t *testing.T) {
		page := history(3)
		src := &MockCommitSource{}
		src.On("ListCommits", mock.Anything, "42", mock.Anything).Return(page, nil)

		got, err := NewHistoryCollector(src).CollectUntilBump(context.Background(), "42", "main")

		require.NoError(t, err)
		assert.Len(t, got, 3)
		src.AssertNumberOfCalls(t, "ListCommits", 2)
	})

	t.Run("should return no partial result on transport failure", func(t *testing.T) {
		src := &MockCommitSource{}
		src.On("ListCommits", mock.Anything, "42", mock.MatchedBy(func(q models.CommitQuery) bool {
			return q.Until.IsZero()
		})).Return(history(2), nil).Once()
		src.On("ListCommits", mock.Anything, "42", mock.Anything).
			Return(nil, domainErrors.ErrListCommits.WithContext("operation", "list commits")).Once()

		got, err := NewHistoryCollector(src).CollectUntilBump(context.Background(), "42", "main")

		require.Error(t, err)
		assert.Nil(t, got)
		assert.True(t, errors.Is(err, domainErrors.ErrListCommits))
		src.AssertExpectations(t)
	})
}

func TestHistoryCollector_CollectSinceDate(t *testing.T) {
	t.Run("should pass the lower bound and sort descending", func(t *testing.T) {
		commits := history(5)
		commits[2].Title = "bump: ignored in this mode"
		commits[0].CommittedDate, commits[4].CommittedDate = commits[4].CommittedDate, commits[0].CommittedDate
		since := baseTime.Add(-time.Hour)
		src := &pagedSource{pages: paginate(commits, 3)}

		got, err := NewHistoryCollector(src).CollectSinceDate(context.Background(), "42", "develop", since)

		require.NoError(t, err)
		assert.Equal(t, []string{"id-004", "id-001", "id-002", "id-003", "id-000"}, ids(got))
		for _, q := range src.queries {
			assert.Equal(t, since, q.Since)
			assert.Equal(t, "develop", q.Branch)
		}
	})

	t.Run("should stop on an empty first page", func(t *testing.T) {
		src := &pagedSource{}

		got, err := NewHistoryCollector(src).CollectSinceDate(context.Background(), "42", "develop", baseTime)

		require.NoError(t, err)
		assert.Empty(t, got)
		assert.Len(t, src.queries, 1)
	})
}

func TestHistoryCollector_CursorIgnored(t *testing.T) {
	c := history(4)
	a, b, cc, d := c[0], c[1], c[2], c[3]

	tests := []struct {
		name      string
		pages     [][]models.Commit
		loopFrom  int
		wantCalls int
		wantIDs   []string
	}{
		{
			name:      "repeated boundary was skipped as a duplicate",
			pages:     [][]models.Commit{{a, b}, {cc, a}},
			loopFrom:  1,
			wantCalls: 3,
			wantIDs:   []string{a.ID, b.ID, cc.ID},
		},
		{
			name:      "page made only of known commits",
			pages:     [][]models.Commit{{a, b}, {b, a}},
			loopFrom:  1,
			wantCalls: 2,
			wantIDs:   []string{a.ID, b.ID},
		},
		{
			name:      "two pages served in turn",
			pages:     [][]models.Commit{{a, b}, {cc, d}},
			loopFrom:  0,
			wantCalls: 3,
			wantIDs:   []string{a.ID, b.ID, cc.ID, d.ID},
		},
	}

	for _, tt := range tests {
		for _, mode := range []string{"until bump", "since date"} {
			t.Run(tt.name+"/"+mode, func(t *testing.T) {
				src := &cyclingSource{pagedSource: pagedSource{pages: tt.pages}, loopFrom: tt.loopFrom, maxCalls: 50}
				collector := NewHistoryCollector(src)

				var (
					got []models.Commit
					err error
				)
				if mode == "until bump" {
					got, err = collector.CollectUntilBump(context.Background(), "42", "main")
				} else {
					got, err = collector.CollectSinceDate(context.Background(), "42", "main", time.Time{})
				}

				require.NoError(t, err)
				assert.Len(t, src.queries, tt.wantCalls)
				assert.ElementsMatch(t, tt.wantIDs, ids(got))
			})
		}
	}
}

func TestHistoryCollector_Properties(t *testing.T) {
	t.Run("bump commit is never collected", func(t *testing.T) {
		rapid.Check(t, func(t *rapid.T) {
			n := rapid.IntRange(1, 40).Draw(t, "commits")
			size := rapid.IntRange(1, 10).Draw(t, "page_size")
			bumpAt := rapid.IntRange(0, n-1).Draw(t, "bump_at")

			commits := history(n)
			commits[bumpAt].Title = "bump: " + commits[bumpAt].ID
			src := &pagedSource{pages: paginate(commits, size)}

			got, err := NewHistoryCollector(src).CollectUntilBump(context.Background(), "p", "main")
			require.NoError(t, err)

			want := make([]string, 0, bumpAt)
			for i := bumpAt - 1; i >= 0; i-- {
				want = append(want, commits[i].ID)
			}
			assert.Equal(t, want, ids(got))
		})
	})

	t.Run("overlapping pages yield each id once", func(t *testing.T) {
		rapid.Check(t, func(t *rapid.T) {
			n := rapid.IntRange(1, 40).Draw(t, "commits")
			size := rapid.IntRange(2, 10).Draw(t, "page_size")
			overlap := rapid.IntRange(0, size-1).Draw(t, "overlap")
			sinceMode := rapid.Bool().Draw(t, "since_mode")

			commits := history(n)
			var pages [][]models.Commit
			for end := 0; end < n; {
				start := max(0, end-overlap)
				end = min(start+size, n)
				if end <= start {
					break
				}
				pages = append(pages, commits[start:end])
			}
			src := &pagedSource{pages: pages}

			collector := NewHistoryCollector(src)
			var (
				got []models.Commit
				err error
			)
			if sinceMode {
				got, err = collector.CollectSinceDate(context.Background(), "p", "main", time.Time{})
			} else {
				got, err = collector.CollectUntilBump(context.Background(), "p", "main")
			}
			require.NoError(t, err)

			counts := make(map[string]int)
			for _, c := range got {
				counts[c.ID]++
			}
			assert.Len(t, counts, n)
			for id, count := range counts {
				assert.Equal(t, 1, count, id)
			}
		})
	})

	t.Run("a source that ignores the cursor is read a bounded number of times", func(t *testing.T) {
		rapid.Check(t, func(t *rapid.T) {
			n := rapid.IntRange(1, 15).Draw(t, "commits")
			commits := history(n)
			pageCount := rapid.IntRange(1, 5).Draw(t, "pages")

			pages := make([][]models.Commit, pageCount)
			for i := range pages {
				idx := rapid.SliceOfN(rapid.IntRange(0, n-1), 1, 6).Draw(t, fmt.Sprintf("page_%d", i))
				for _, j := range idx {
					pages[i] = append(pages[i], commits[j])
				}
			}
			src := &cyclingSource{pagedSource: pagedSource{pages: pages}, maxCalls: 1000}

			got, err := NewHistoryCollector(src).CollectSinceDate(context.Background(), "p", "main", time.Time{})
			require.NoError(t, err)

			assert.LessOrEqual(t, len(src.queries), n+1)
			seen := make(map[string]bool)
			for _, c := range got {
				assert.False(t, seen[c.ID], c.ID)
				seen[c.ID] = true
			}
		})
	})
}
