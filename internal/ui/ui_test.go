package ui

import (
	"bytes"
	"errors"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainErrors "github.com/thomas-vilte/changegen/internal/errors"
	"github.com/thomas-vilte/changegen/internal/i18n"
)

func init() {
	color.NoColor = true
}

func TestHandleAppError(t *testing.T) {
	t.Run("should render type, details, context and suggestion", func(t *testing.T) {
		var buf bytes.Buffer
		err := domainErrors.ErrListCommits.
			WithError(errors.New("connection refused")).
			WithContext("operation", "list commits").
			WithContext("status", 502)

		HandleAppError(&buf, err, nil)

		out := buf.String()
		assert.Contains(t, out, "TRANSPORT: failed to list commits")
		assert.Contains(t, out, "Details: connection refused")
		assert.Contains(t, out, "operation: list commits")
		assert.Contains(t, out, "status: 502")
		assert.Contains(t, out, "💡 Try: Check the GitLab URL")
		assert.Less(t, bytes.Index(buf.Bytes(), []byte("operation")), bytes.Index(buf.Bytes(), []byte("status")))
	})

	t.Run("should translate the suggestion prefix", func(t *testing.T) {
		trans, err := i18n.NewTranslations("es", "")
		require.NoError(t, err)
		var buf bytes.Buffer

		HandleAppError(&buf, domainErrors.ErrInvalidVersion, trans)

		assert.Contains(t, buf.String(), "💡 Probá: Fix the latest")
	})

	t.Run("should indent multi-line suggestions", func(t *testing.T) {
		var buf bytes.Buffer

		HandleAppError(&buf, domainErrors.ErrInvalidConfig.WithSuggestion("first\nsecond"), nil)

		assert.Contains(t, buf.String(), "first\n       second\n")
	})

	t.Run("should print plain errors as is", func(t *testing.T) {
		var buf bytes.Buffer

		HandleAppError(&buf, errors.New("boom"), nil)

		assert.Equal(t, "❌ boom\n", buf.String())
	})

	t.Run("should ignore nil", func(t *testing.T) {
		var buf bytes.Buffer

		HandleAppError(&buf, nil, nil)

		assert.Empty(t, buf.String())
	})
}

func TestWithSpinner(t *testing.T) {
	t.Run("should print the done message on success", func(t *testing.T) {
		var buf bytes.Buffer
		called := false

		err := WithSpinner(&buf, "working", "done", func() error {
			called = true
			return nil
		})

		require.NoError(t, err)
		assert.True(t, called)
		assert.Contains(t, buf.String(), "done")
	})

	t.Run("should return the error untouched", func(t *testing.T) {
		var buf bytes.Buffer
		want := domainErrors.ErrListTags

		err := WithSpinner(&buf, "working", "done", func() error { return want })

		assert.Same(t, want, err)
		assert.NotContains(t, buf.String(), "done")
	})
}

func TestPrinters(t *testing.T) {
	var buf bytes.Buffer

	PrintSuccess(&buf, "CHANGELOG.md updated successfully")
	PrintWarning(&buf, "no commits")
	PrintInfo(&buf, "3 commits collected")
	PrintKeyValue(&buf, "version", "1.0.0")

	out := buf.String()
	assert.Contains(t, out, "CHANGELOG.md updated successfully\n")
	assert.Contains(t, out, "no commits\n")
	assert.Contains(t, out, "3 commits collected\n")
	assert.Contains(t, out, "version: 1.0.0\n")
}
