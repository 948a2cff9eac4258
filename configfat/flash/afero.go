package flash

import (
	"sync"

	"github.com/spf13/afero"
)

// AferoRegion persists a flash region through an afero.Fs, so the same
// engine can run against a real file (afero.NewOsFs, useful for a
// development board whose "flash" is just a file on disk) or a purely
// in-memory filesystem (afero.NewMemMapFs, useful for hermetic tests)
// without any code change. This mirrors how aligator-GoFAT treats a FAT
// filesystem as an afero.Fs-compatible object rather than hard-coding
// *os.File access.
type AferoRegion struct {
	mutex  sync.Mutex
	fs     afero.Fs
	path   string
	size   uint32
	locked bool
}

// NewAferoRegion opens (creating if necessary) path on fs as a flash
// region of the given size. A freshly created file is seeded to the
// erased state (0xFF); an existing file is left as-is.
func NewAferoRegion(fs afero.Fs, path string, size uint32) (*AferoRegion, error) {
	r := &AferoRegion{fs: fs, path: path, size: size, locked: true}

	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, err
	}
	if !exists {
		erased := make([]byte, size)
		for i := range erased {
			erased[i] = 0xFF
		}
		if err := afero.WriteFile(fs, path, erased, 0o600); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *AferoRegion) Size() uint32 { return r.size }

func (r *AferoRegion) Unlock() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.locked = false
	return nil
}

func (r *AferoRegion) Lock() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.locked = true
	return nil
}

func (r *AferoRegion) EraseRegion(base uint32) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.locked {
		return ErrLocked
	}
	if base >= r.size {
		return ErrOutOfRange
	}

	f, err := r.fs.OpenFile(r.path, flagsRDWR, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	erased := make([]byte, r.size-base)
	for i := range erased {
		erased[i] = 0xFF
	}
	_, err = f.WriteAt(erased, int64(base))
	return err
}

func (r *AferoRegion) ProgramHalfword(addr uint32, value uint16) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.locked {
		return ErrLocked
	}
	if addr+2 > r.size {
		return ErrOutOfRange
	}

	f, err := r.fs.OpenFile(r.path, flagsRDWR, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	var current [2]byte
	if _, err := f.ReadAt(current[:], int64(addr)); err != nil {
		return err
	}
	if current[0] != 0xFF || current[1] != 0xFF {
		return ErrNotErased
	}

	buf := [2]byte{byte(value), byte(value >> 8)}
	_, err = f.WriteAt(buf[:], int64(addr))
	return err
}

func (r *AferoRegion) ReadAt(addr uint32, buf []byte) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if addr >= r.size {
		for i := range buf {
			buf[i] = 0xFF
		}
		return
	}

	f, err := r.fs.Open(r.path)
	if err != nil {
		for i := range buf {
			buf[i] = 0xFF
		}
		return
	}
	defer f.Close()

	n, _ := f.ReadAt(buf, int64(addr))
	for i := n; i < len(buf); i++ {
		buf[i] = 0xFF
	}
}

var _ Flash = (*AferoRegion)(nil)
