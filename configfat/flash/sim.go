package flash

import (
	"sync"
	"time"
)

// SimRegion simulates a single coarse-erase flash sector in memory,
// enforcing the erase-before-program discipline real NOR/NAND flash
// imposes. It is the backend used by the tests; a real integrator swaps
// it for a QSPI/internal-flash backend
// implementing the same Flash interface.
type SimRegion struct {
	mutex   sync.Mutex
	data    []byte
	locked  bool
	erase   time.Duration // simulated EraseRegion latency
	program time.Duration // simulated per-halfword ProgramHalfword latency
}

// NewSimRegion creates a simulated flash region of the given size,
// initialized to the erased state (all bytes 0xFF).
func NewSimRegion(size uint32) *SimRegion {
	r := &SimRegion{
		data:   make([]byte, size),
		locked: true,
	}
	for i := range r.data {
		r.data[i] = 0xFF
	}
	return r
}

// WithLatency sets the simulated erase and per-halfword program delays.
// Zero (the default) makes the region instantaneous, which is what tests
// want; a real integrator's hardware-backed Flash would report latency
// on the order of tens to hundreds of milliseconds for erase.
func (r *SimRegion) WithLatency(erase, program time.Duration) *SimRegion {
	r.erase = erase
	r.program = program
	return r
}

func (r *SimRegion) Size() uint32 {
	return uint32(len(r.data))
}

func (r *SimRegion) Unlock() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.locked = false
	return nil
}

func (r *SimRegion) Lock() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.locked = true
	return nil
}

func (r *SimRegion) EraseRegion(base uint32) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.locked {
		return ErrLocked
	}
	if base >= uint32(len(r.data)) {
		return ErrOutOfRange
	}

	if r.erase > 0 {
		time.Sleep(r.erase)
	}

	for i := base; i < uint32(len(r.data)); i++ {
		r.data[i] = 0xFF
	}
	return nil
}

func (r *SimRegion) ProgramHalfword(addr uint32, value uint16) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.locked {
		return ErrLocked
	}
	if addr+2 > uint32(len(r.data)) {
		return ErrOutOfRange
	}

	lo, hi := byte(value), byte(value>>8)
	if r.data[addr] != 0xFF || r.data[addr+1] != 0xFF {
		return ErrNotErased
	}

	if r.program > 0 {
		time.Sleep(r.program)
	}

	r.data[addr] = lo
	r.data[addr+1] = hi
	return nil
}

func (r *SimRegion) ReadAt(addr uint32, buf []byte) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if addr >= uint32(len(r.data)) {
		return
	}
	n := copy(buf, r.data[addr:])
	for i := n; i < len(buf); i++ {
		buf[i] = 0xFF
	}
}

var _ Flash = (*SimRegion)(nil)
