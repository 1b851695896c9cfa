package errors

import "fmt"

// ErrorType defines the category of the error
type ErrorType string

const (
	TypeConfiguration ErrorType = "CONFIGURATION"
	TypeTransport     ErrorType = "TRANSPORT"
	TypeVersion       ErrorType = "VERSION"
	TypeChangelog     ErrorType = "CHANGELOG"
	TypeInternal      ErrorType = "INTERNAL"
)

// AppError represents a domain-level error with a type and an underlying error
type AppError struct {
	Type       ErrorType
	Message    string
	Context    map[string]interface{}
	Err        error
	Suggestion string
}

func (e *AppError) Error() string {
	var msg string
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	} else {
		msg = fmt.Sprintf("%s: %s", e.Type, e.Message)
	}

	if e.Context != nil {
		if op, ok := e.Context["operation"].(string); ok && op != "" {
			msg += fmt.Sprintf(" [operation=%s]", op)
		}
		if status, ok := e.Context["status"].(int); ok && status != 0 {
			msg += fmt.Sprintf(" [status=%d]", status)
		}
	}

	return msg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches sentinels by type and message so that errors derived with
// WithError/WithContext still satisfy errors.Is against the sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Message == t.Message
}

// WithError creates a new AppError with an underlying error
func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Type:       e.Type,
		Message:    e.Message,
		Context:    e.Context,
		Err:        err,
		Suggestion: e.Suggestion,
	}
}

// WithContext creates a new AppError with additional context
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	ctx := make(map[string]interface{})
	for k, v := range e.Context {
		ctx[k] = v
	}
	ctx[key] = value
	return &AppError{
		Type:       e.Type,
		Message:    e.Message,
		Context:    ctx,
		Err:        e.Err,
		Suggestion: e.Suggestion,
	}
}

func (e *AppError) WithSuggestion(suggestion string) *AppError {
	return &AppError{
		Type:       e.Type,
		Message:    e.Message,
		Context:    e.Context,
		Err:        e.Err,
		Suggestion: suggestion,
	}
}

// NewAppError creates a new AppError
func NewAppError(t ErrorType, msg string, err error) *AppError {
	return &AppError{
		Type:    t,
		Message: msg,
		Err:     err,
	}
}

// Configuration errors
var (
	ErrInvalidConfig = NewAppError(TypeConfiguration, "invalid configuration", nil).
				WithSuggestion("Run: changegen --help")

	ErrConfigFile = NewAppError(TypeConfiguration, "failed to read configuration file", nil).
			WithSuggestion("Check the TOML syntax of the file passed with --config")

	ErrUnsupportedAPI = NewAppError(TypeConfiguration, "GitLab API version not supported", nil).
				WithSuggestion("Only API v4 is supported: use --api 4")

	ErrInvalidURL = NewAppError(TypeConfiguration, "invalid GitLab URL", nil).
			WithSuggestion("Include the protocol, for example: https://gitlab.example.com")
)

// Transport errors
var (
	ErrBranchHead = NewAppError(TypeTransport, "failed to get branch head commit", nil).
			WithSuggestion("Check that the branch exists and your token can read the repository")

	ErrListCommits = NewAppError(TypeTransport, "failed to list commits", nil).
			WithSuggestion("Check the GitLab URL, the project id and network access")

	ErrListTags = NewAppError(TypeTransport, "failed to list tags", nil).
			WithSuggestion("Check your token has 'read_repository' scope")

	ErrListIssues = NewAppError(TypeTransport, "failed to list closed issues", nil).
			WithSuggestion("Check your token has 'read_api' scope")

	ErrUnauthorized = NewAppError(TypeTransport, "GitLab token is invalid or expired", nil).
			WithSuggestion("Create a new personal access token and pass it with --token")

	ErrProjectNotFound = NewAppError(TypeTransport, "project or branch not found", nil).
				WithSuggestion("Use the numeric project id or the URL-encoded 'group/project' path")
)

// Version errors
var (
	ErrInvalidVersion = NewAppError(TypeVersion, "version is not a valid semantic version (X.Y.Z)", nil).
				WithSuggestion("Fix the latest '## vX.Y.Z' header in the changelog or pass --version")
)

// Changelog errors
var (
	ErrReadChangelog = NewAppError(TypeChangelog, "failed to read changelog", nil).
				WithSuggestion("Check the file permissions")

	ErrWriteChangelog = NewAppError(TypeChangelog, "failed to write changelog", nil).
				WithSuggestion("Check the directory is writable")
)
