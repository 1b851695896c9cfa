package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/thomas-vilte/changegen/internal/changelog"
	domainErrors "github.com/thomas-vilte/changegen/internal/errors"
	"github.com/thomas-vilte/changegen/internal/logger"
	"github.com/thomas-vilte/changegen/internal/models"
	"github.com/thomas-vilte/changegen/internal/regex"
	"golang.org/x/mod/semver"
)

const DefaultVersion = "0.0.0"

// CurrentVersion returns the override when there is one, otherwise the
// version of the most recent header in the document, or DefaultVersion.
func CurrentVersion(doc *changelog.Document, override string) string {
	if override != "" {
		return override
	}
	if doc == nil {
		return DefaultVersion
	}
	if v, ok := doc.LatestVersion(); ok {
		return v
	}
	return DefaultVersion
}

// ResolveVersion computes the version of the new section. An override is
// returned verbatim. Otherwise current must be a strict X.Y.Z version; the
// minor component is bumped when a minor-bump type is present and the patch
// component in every other case.
func ResolveVersion(ctx context.Context, current string, present []models.ChangeType, override string) (string, error) {
	log := logger.FromContext(ctx)

	if override != "" {
		if current != "" && current != override && semver.IsValid("v"+current) && semver.IsValid("v"+override) &&
			semver.Compare("v"+override, "v"+current) <= 0 {
			log.Warn("explicit version is not greater than the current one",
				"version", current,
				"next_version", override)
		}
		return override, nil
	}

	major, minor, patch, err := parseVersion(current)
	if err != nil {
		return "", err
	}

	bump := models.PatchBump
	for _, t := range present {
		if t.Bump() == models.MinorBump {
			bump = models.MinorBump
			break
		}
	}

	var next string
	if bump == models.MinorBump {
		next = fmt.Sprintf("%d.%d.0", major, minor+1)
	} else {
		next = fmt.Sprintf("%d.%d.%d", major, minor, patch+1)
	}

	log.Debug("next version resolved",
		"version", current,
		"next_version", next,
		"minor_bump", bump == models.MinorBump)

	return next, nil
}

func parseVersion(v string) (major, minor, patch int, err error) {
	m := regex.StrictSemVer.FindStringSubmatch(v)
	if m == nil || !semver.IsValid("v"+v) {
		return 0, 0, 0, domainErrors.ErrInvalidVersion.
			WithError(fmt.Errorf("cannot parse %q", v)).
			WithContext("version", v)
	}

	nums := make([]int, 3)
	for i := range nums {
		n, convErr := strconv.Atoi(m[i+1])
		if convErr != nil {
			return 0, 0, 0, domainErrors.ErrInvalidVersion.WithError(convErr).WithContext("version", v)
		}
		nums[i] = n
	}
	return nums[0], nums[1], nums[2], nil
}
