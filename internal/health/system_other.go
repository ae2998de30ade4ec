//go:build !linux

package health

import gitsyncErrors "github.com/bashhack/gitsync/internal/errors"

func systemStats() (SystemStats, error) {
	return SystemStats{}, gitsyncErrors.ErrNotSupported
}
