package git

import (
	"regexp"

	"github.com/Masterminds/semver/v3"

	gitsyncErrors "github.com/bashhack/gitsync/internal/errors"
)

// MinimumVersion is the oldest git release the CLI backend is tested with.
const MinimumVersion = "2.20.0"

var versionPattern = regexp.MustCompile(`(\d+\.\d+(?:\.\d+)?)`)

// ParseVersion extracts the version from "git version" output such as
// "git version 2.39.5 (Apple Git-154)" or "git version 2.43.0.windows.1".
func ParseVersion(output string) (*semver.Version, error) {
	match := versionPattern.FindString(output)
	if match == "" {
		return nil, gitsyncErrors.Errorf("cannot parse git version from %q", output)
	}
	v, err := semver.NewVersion(match)
	if err != nil {
		return nil, gitsyncErrors.Wrapf(err, "cannot parse git version %q", match)
	}
	return v, nil
}

// CheckVersion reports ErrUnsupportedGitVersion when v is older than MinimumVersion.
func CheckVersion(v *semver.Version) error {
	constraint, err := semver.NewConstraint(">= " + MinimumVersion)
	if err != nil {
		return err
	}
	if !constraint.Check(v) {
		return gitsyncErrors.Wrapf(gitsyncErrors.ErrUnsupportedGitVersion, "git %s is older than %s", v, MinimumVersion)
	}
	return nil
}
