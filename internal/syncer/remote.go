package syncer

import (
	"regexp"
	"sort"

	gitsyncErrors "github.com/bashhack/gitsync/internal/errors"
	"github.com/bashhack/gitsync/internal/git"
)

var remoteNamePattern = regexp.MustCompile(`^[A-Za-z0-9_@:./-]+$`)

// ValidRemoteName returns ErrInvalidRemoteName unless name consists only of
// letters, digits and the characters "_@:./-". A leading "-" is rejected
// too, since git would parse the name as an option.
func ValidRemoteName(name string) error {
	if !remoteNamePattern.MatchString(name) {
		return gitsyncErrors.Wrapf(gitsyncErrors.ErrInvalidRemoteName, "%q contains disallowed characters", name)
	}
	if name[0] == '-' {
		return gitsyncErrors.Wrapf(gitsyncErrors.ErrInvalidRemoteName, "%q starts with '-'", name)
	}
	return nil
}

// sortRemotes orders remotes by name. Backends list remotes in no
// guaranteed order.
func sortRemotes(remotes []git.Remote) []git.Remote {
	sorted := make([]git.Remote, len(remotes))
	copy(sorted, remotes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})
	return sorted
}
