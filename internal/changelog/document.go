package changelog

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	domainErrors "github.com/thomas-vilte/changegen/internal/errors"
	"github.com/thomas-vilte/changegen/internal/regex"
)

const defaultFileMode fs.FileMode = 0644

// Document is the changelog as found on disk. Its content is kept as an
// opaque blob; only version headers are ever looked up.
type Document struct {
	Path    string
	Content string
	Exists  bool
	mode    fs.FileMode
}

// Read loads the changelog at path. A missing file is an empty document.
func Read(path string) (*Document, error) {
	doc := &Document{Path: path, mode: defaultFileMode}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, domainErrors.ErrReadChangelog.WithError(err).WithContext("file", path)
	}
	if info.IsDir() {
		return nil, domainErrors.ErrReadChangelog.
			WithError(errors.New("path is a directory")).
			WithContext("file", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domainErrors.ErrReadChangelog.WithError(err).WithContext("file", path)
	}

	doc.Content = string(data)
	doc.Exists = true
	doc.mode = info.Mode().Perm()
	return doc, nil
}

// LatestVersion returns the version of the first header found scanning
// from the top. Both header formats are recognised.
func (d *Document) LatestVersion() (string, bool) {
	return LatestVersion(d.Content)
}

// LatestVersion is the header lookup used by Document.LatestVersion.
func LatestVersion(content string) (string, bool) {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimRight(line, "\r")
		if m := regex.VersionHeader.FindStringSubmatch(line); m != nil {
			return m[1], true
		}
		if m := regex.LegacyVersionHeader.FindStringSubmatch(line); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// Write replaces the file with content. The data goes to a temporary file
// in the same directory which is then renamed over the original, so readers
// see either the old or the new document.
func (d *Document) Write(content string) error {
	return WriteAtomic(d.Path, []byte(content), d.mode)
}

func WriteAtomic(path string, data []byte, perm fs.FileMode) error {
	if perm == 0 {
		perm = defaultFileMode
	}
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return domainErrors.ErrWriteChangelog.WithError(err).WithContext("file", path)
	}
	tmpName := tmp.Name()

	cleanup := func(cause error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return domainErrors.ErrWriteChangelog.WithError(cause).WithContext("file", path)
	}

	if _, err := tmp.Write(data); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Chmod(perm); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return domainErrors.ErrWriteChangelog.WithError(err).WithContext("file", path)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return domainErrors.ErrWriteChangelog.WithError(err).WithContext("file", path)
	}
	return nil
}
