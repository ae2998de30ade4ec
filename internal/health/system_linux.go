//go:build linux

package health

import "golang.org/x/sys/unix"

// loadShift is SI_LOAD_SHIFT from sys/sysinfo.h.
const loadShift = 16

func systemStats() (SystemStats, error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return SystemStats{}, err
	}

	unit := uint64(info.Unit)
	if unit == 0 {
		unit = 1
	}
	return SystemStats{
		TotalMemory:     uint64(info.Totalram) * unit,
		AvailableMemory: (uint64(info.Freeram) + uint64(info.Bufferram)) * unit,
		Load1:           float64(info.Loads[0]) / float64(1<<loadShift),
	}, nil
}
