package models

// CommitTypeGroups holds the classified commits of one run, bucketed by
// change type. Every added commit lands in exactly one bucket.
type CommitTypeGroups struct {
	order  []ChangeType
	groups map[ChangeType][]Commit
}

// NewCommitTypeGroups creates empty buckets for the given display order.
// Unclassified is always present.
func NewCommitTypeGroups(order []ChangeType) *CommitTypeGroups {
	g := &CommitTypeGroups{groups: make(map[ChangeType][]Commit, len(order)+1)}
	hasUnclassified := false
	for _, t := range order {
		if _, dup := g.groups[t]; dup {
			continue
		}
		g.order = append(g.order, t)
		g.groups[t] = nil
		if t == Unclassified {
			hasUnclassified = true
		}
	}
	if !hasUnclassified {
		g.order = append(g.order, Unclassified)
		g.groups[Unclassified] = nil
	}
	return g
}

// Add appends the commit to the bucket of its type, or to Unclassified when
// the type has no bucket.
func (g *CommitTypeGroups) Add(c Commit) {
	if _, ok := g.groups[c.Type]; !ok {
		c.Type = Unclassified
	}
	g.groups[c.Type] = append(g.groups[c.Type], c)
}

// Get returns the commits of one type in insertion order.
func (g *CommitTypeGroups) Get(t ChangeType) []Commit {
	return g.groups[t]
}

// Order returns the bucket order.
func (g *CommitTypeGroups) Order() []ChangeType {
	return append([]ChangeType(nil), g.order...)
}

// Has reports whether at least one commit of the type was added.
func (g *CommitTypeGroups) Has(t ChangeType) bool {
	return len(g.groups[t]) > 0
}

// Present returns the types with at least one commit, in bucket order.
func (g *CommitTypeGroups) Present() []ChangeType {
	var present []ChangeType
	for _, t := range g.order {
		if len(g.groups[t]) > 0 {
			present = append(present, t)
		}
	}
	return present
}

// Len is the total number of grouped commits.
func (g *CommitTypeGroups) Len() int {
	n := 0
	for _, commits := range g.groups {
		n += len(commits)
	}
	return n
}
