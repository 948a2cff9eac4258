// Package flash provides the Flash Abstraction (FA) capability interface
// and two backends: an in-memory simulation of erase/program-once flash
// semantics, and an afero.Fs-backed region for host-side persistence.
package flash

import "errors"

// Errors returned by Flash implementations.
var (
	// ErrNotErased is returned by ProgramHalfword when the target
	// half-word is not in the erased state (0xFFFF).
	ErrNotErased = errors.New("flash: target half-word not erased")

	// ErrLocked is returned when a write-path operation is attempted
	// outside an Unlock/Lock bracket.
	ErrLocked = errors.New("flash: region is locked")

	// ErrOutOfRange is returned when an address falls outside the region.
	ErrOutOfRange = errors.New("flash: address out of range")
)

// Flash is the capability interface the engine uses to persist its RAM
// mirror. Implementations model one logically erasable region; on
// hardware with a finer native granularity, the implementation decomposes
// internally (see SimRegion for an example over a single coarse sector).
//
// All write-path methods (EraseRegion, ProgramHalfword) must only be
// called between Unlock and Lock. Read is always permitted and never
// blocks.
type Flash interface {
	// Unlock permits writes to the region. Must precede EraseRegion or
	// ProgramHalfword.
	Unlock() error

	// Lock forbids further writes until the next Unlock.
	Lock() error

	// EraseRegion erases the entire region starting at base, leaving
	// every half-word in the erased state (0xFFFF). May block for tens
	// to hundreds of milliseconds.
	EraseRegion(base uint32) error

	// ProgramHalfword writes a single 16-bit value at addr. Fails with
	// ErrNotErased if the target half-word is not already erased.
	ProgramHalfword(addr uint32, value uint16) error

	// ReadAt copies len(buf) bytes starting at addr into buf. Never
	// blocks and requires no lock.
	ReadAt(addr uint32, buf []byte)

	// Size returns the size in bytes of the region.
	Size() uint32
}
