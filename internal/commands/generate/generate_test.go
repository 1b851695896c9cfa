package generate

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/thomas-vilte/changegen/internal/changelog"
	cfg "github.com/thomas-vilte/changegen/internal/config"
	domainErrors "github.com/thomas-vilte/changegen/internal/errors"
	"github.com/thomas-vilte/changegen/internal/i18n"
	"github.com/thomas-vilte/changegen/internal/services"
)

func init() {
	color.NoColor = true
}

type runResult struct {
	out    string
	err    error
	config *cfg.Config
}

func runGenerateTest(t *testing.T, args []string, gen *MockChangelogGenerator) runResult {
	t.Helper()

	trans, err := i18n.NewTranslations("en", "")
	require.NoError(t, err)

	var (
		buf bytes.Buffer
		res runResult
	)
	factory := NewGenerateCommandFactory(
		WithOutput(&buf),
		WithGeneratorFactory(func(config *cfg.Config) (changelogGenerator, error) {
			res.config = config
			return gen, nil
		}),
	)

	app := factory.CreateCommand(trans)
	res.err = app.Run(context.Background(), append([]string{"changegen"}, args...))
	res.out = buf.String()
	return res
}

func baseArgs(file string) []string {
	return []string{
		"--ip", "https://gitlab.example.com",
		"--project", "42",
		"--subproject", "api",
		"--file", file,
	}
}

func TestGenerateCommand_Success(t *testing.T) {
	file := filepath.Join(t.TempDir(), "CHANGELOG.md")

	gen := new(MockChangelogGenerator)
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(req services.GenerateRequest) bool {
		return req.Project == "42" &&
			req.Variant == changelog.VariantCompare &&
			assert.ObjectsAreEqual([]string{"main", "develop"}, req.Branches) &&
			assert.ObjectsAreEqual([]string{"shared", "api"}, req.AllowedScopes) &&
			req.Version == "" &&
			req.File == file &&
			req.WithIssues
	})).Return(&services.GenerateResult{
		File:     file,
		Version:  "1.3.0",
		Previous: "1.2.0",
		Commits:  4,
	}, nil)

	args := append(baseArgs(file),
		"--system", "compare",
		"--branches", "main,develop",
		"--scope", "shared",
		"--issues",
	)
	res := runGenerateTest(t, args, gen)

	require.NoError(t, res.err)
	assert.Contains(t, res.out, "4 commits collected")
	assert.Contains(t, res.out, "1.2.0 → 1.3.0")
	assert.Contains(t, res.out, file+" updated successfully")
	gen.AssertExpectations(t)
}

func TestGenerateCommand_FlagsReachTheConfiguration(t *testing.T) {
	file := filepath.Join(t.TempDir(), "CHANGELOG.md")
	gen := new(MockChangelogGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return(&services.GenerateResult{File: file, Version: "9.0.0"}, nil)

	args := append(baseArgs(file),
		"-b", "main",
		"-v", "9.0.0",
		"--token", "secret",
		"--token-type", "oauth",
		"--ssl", "no",
		"--per-page", "50",
		"--timeout", "5s",
		"--bump-prefix", "release",
	)
	res := runGenerateTest(t, args, gen)

	require.NoError(t, res.err)
	require.NotNil(t, res.config)
	assert.Equal(t, "9.0.0", res.config.Version)
	assert.Equal(t, "secret", res.config.Token)
	assert.Equal(t, cfg.TokenOAuth, res.config.TokenType)
	assert.False(t, res.config.VerifySSL)
	assert.Equal(t, 50, res.config.PerPage)
	assert.Equal(t, 5*time.Second, res.config.Timeout)
	assert.Equal(t, "release", res.config.BumpPrefix)
	assert.Equal(t, cfg.SystemBump, res.config.System)
}

func TestGenerateCommand_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "changegen.toml")
	content := `
url = "https://gitlab.example.com"
project = "group%2Fproject"
branches = ["main"]
sub_project = "web"
include_scopes = ["shared"]
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	gen := new(MockChangelogGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return(&services.GenerateResult{File: "CHANGELOG.md"}, nil)

	res := runGenerateTest(t, []string{"--config", configPath, "--project", "7"}, gen)

	require.NoError(t, res.err)
	assert.Equal(t, "https://gitlab.example.com", res.config.URL)
	assert.Equal(t, "7", res.config.Project, "flags win over the file")
	assert.Equal(t, []string{"shared", "web"}, res.config.AllowedScopes())
}

func TestGenerateCommand_ConfigurationErrors(t *testing.T) {
	file := filepath.Join(t.TempDir(), "CHANGELOG.md")

	tests := []struct {
		name string
		args []string
		want *domainErrors.AppError
	}{
		{
			name: "missing project",
			args: []string{"--ip", "https://gitlab.example.com", "--subproject", "api", "-b", "main"},
			want: domainErrors.ErrInvalidConfig,
		},
		{
			name: "compare needs two branches",
			args: append(baseArgs(file), "--system", "compare", "-b", "main"),
			want: domainErrors.ErrInvalidConfig,
		},
		{
			name: "unsupported api version",
			args: append(baseArgs(file), "--api", "3", "-b", "main"),
			want: domainErrors.ErrUnsupportedAPI,
		},
		{
			name: "address without protocol",
			args: []string{"--ip", "gitlab.example.com", "--project", "42", "--subproject", "api", "-b", "main"},
			want: domainErrors.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := new(MockChangelogGenerator)

			res := runGenerateTest(t, tt.args, gen)

			require.Error(t, res.err)
			assert.True(t, errors.Is(res.err, tt.want), res.err.Error())

			var appErr *domainErrors.AppError
			require.True(t, errors.As(res.err, &appErr))
			assert.Equal(t, domainErrors.TypeConfiguration, appErr.Type)
			assert.Nil(t, res.config, "no generator is built for an invalid configuration")
			gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
		})
	}
}

func TestGenerateCommand_GenerateError(t *testing.T) {
	file := filepath.Join(t.TempDir(), "CHANGELOG.md")
	gen := new(MockChangelogGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).
		Return(nil, domainErrors.ErrListCommits.WithContext("operation", "list commits"))

	res := runGenerateTest(t, append(baseArgs(file), "-b", "main"), gen)

	require.Error(t, res.err)
	assert.True(t, errors.Is(res.err, domainErrors.ErrListCommits))
	assert.NotContains(t, res.out, "updated successfully")
}

func TestGenerateCommand_Language(t *testing.T) {
	file := filepath.Join(t.TempDir(), "CHANGELOG.md")
	gen := new(MockChangelogGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return(&services.GenerateResult{File: file, Commits: 1}, nil)

	res := runGenerateTest(t, append(baseArgs(file), "-b", "main", "--lang", "es"), gen)

	require.NoError(t, res.err)
	assert.Contains(t, res.out, "1 commit obtenido")
	assert.Contains(t, res.out, file+" actualizado correctamente")
}

func TestVersionCommand(t *testing.T) {
	res := runGenerateTest(t, []string{"version"}, new(MockChangelogGenerator))

	require.NoError(t, res.err)
	assert.Contains(t, res.out, "changegen v")
	assert.Nil(t, res.config)
}

func TestNewGitLabGenerator(t *testing.T) {
	t.Run("should build a changelog service", func(t *testing.T) {
		config := cfg.Default()
		config.URL = "https://gitlab.example.com"

		gen, err := newGitLabGenerator(config)

		require.NoError(t, err)
		assert.IsType(t, &services.ChangelogService{}, gen)
	})

	t.Run("should reject an address without protocol", func(t *testing.T) {
		config := cfg.Default()
		config.URL = "gitlab.example.com"

		_, err := newGitLabGenerator(config)

		assert.True(t, errors.Is(err, domainErrors.ErrInvalidURL))
	})
}
