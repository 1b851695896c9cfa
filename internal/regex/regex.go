package regex

import "regexp"

var (
	// Commit title patterns
	CommitTitle  = regexp.MustCompile(`^([^():]+)(?:\(([^():]*)\))?:(.*)$`)
	MergeRequest = regexp.MustCompile(`\(?!\d+\)?\s*$`)

	// Changelog version headers
	VersionHeader       = regexp.MustCompile(`^## v([0-9.]+) - [0-9/]+$`)
	LegacyVersionHeader = regexp.MustCompile(`^## v([0-9.]+) \([0-9-]+\)$`)

	// Strict major.minor.patch, no prefix and no pre-release
	StrictSemVer = regexp.MustCompile(`^(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)$`)
)

// BumpMarker builds the stop pattern for release commits, e.g. "bump: 1.2.0".
func BumpMarker(prefix string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `:.+$`)
}
