package configfat

import "errors"

// Engine errors. Nothing in the core is fatal; these are returned to
// callers (chiefly the msc.Storage methods) and otherwise only surface
// through the integrator's logger.
var (
	// ErrEntryTableFull indicates the 8-slot registry has no free slot.
	ErrEntryTableFull = errors.New("configfat: entry registry full")

	// ErrNoConfigFile indicates CONFIG.TXT could not be located in the
	// root directory.
	ErrNoConfigFile = errors.New("configfat: CONFIG.TXT not found")

	// ErrCapacityExceeded indicates the rendered file would overflow the
	// file data window; offending entries are dropped rather than
	// returned as a hard failure.
	ErrCapacityExceeded = errors.New("configfat: rendered file exceeds data window")

	// ErrOutOfRange indicates a requested LBA/block range falls outside
	// the volume's sector count.
	ErrOutOfRange = errors.New("configfat: block address out of range")

	// ErrShortBuffer indicates the caller's buffer is smaller than the
	// requested transfer length.
	ErrShortBuffer = errors.New("configfat: buffer too small for transfer")
)
