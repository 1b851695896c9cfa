package config

// System selects the generator variant.
type System string

const (
	// SystemBump collects the history of one branch back to the last
	// version-bump commit and writes "## vX.Y.Z (YYYY-MM-DD)" headers.
	SystemBump System = "bump"
	// SystemCompare collects the commits of a branch newer than the head of
	// a reference branch and writes "## vX.Y.Z - YYYY/MM/DD" headers.
	SystemCompare System = "compare"
)

type TokenType string

const (
	TokenPrivate TokenType = "private"
	TokenOAuth   TokenType = "oauth"
)

func SupportedSystems() []System {
	return []System{
		SystemBump,
		SystemCompare,
	}
}

// BranchCount is the number of --branches a system expects.
func BranchCount(s System) int {
	switch s {
	case SystemCompare:
		return 2
	default:
		return 1
	}
}

func SupportedTokenTypes() []TokenType {
	return []TokenType{
		TokenPrivate,
		TokenOAuth,
	}
}
