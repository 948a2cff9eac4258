package configfat

import (
	"github.com/ardnew/cfgfat12/configfat/flash"
	"github.com/ardnew/cfgfat12/pkg"
)

// Image is the 16 KiB RAM mirror of the persisted flash region,
// subdivided into the FAT1, FAT2, root directory, and file data windows.
// A 32-bit dirty bitmap tracks which flash pages of the mirror differ
// from what was last flushed.
type Image struct {
	buf   [ImageSize]byte
	dirty uint32 // bit i set => page i differs from flash
}

// NewImage returns a zeroed image. Callers typically populate it via
// LoadFromFlash or by writing a fresh layout before the first flush.
func NewImage() *Image {
	return &Image{}
}

// FAT1 returns the FAT1 window (512 bytes).
func (img *Image) FAT1() []byte { return img.buf[OffsetFAT1 : OffsetFAT1+SectorSize] }

// FAT2 returns the FAT2 window (512 bytes).
func (img *Image) FAT2() []byte { return img.buf[OffsetFAT2 : OffsetFAT2+SectorSize] }

// Root returns the root directory window (512 bytes, 16 usable entries).
func (img *Image) Root() []byte { return img.buf[OffsetRoot : OffsetRoot+SectorSize] }

// File returns the full file data window.
func (img *Image) File() []byte { return img.buf[OffsetFile:] }

// Raw returns the entire mirror, for bulk load/flush operations.
func (img *Image) Raw() []byte { return img.buf[:] }

// LoadFromFlash copies the persisted region from fl into the mirror and
// clears the dirty bitmap, as the first step of Init.
func (img *Image) LoadFromFlash(fl flash.Flash) {
	fl.ReadAt(0, img.buf[:])
	img.ClearAllDirty()
}

// MarkDirty sets the dirty bit for page, the only mutator that sets
// bits in the bitmap.
func (img *Image) MarkDirty(page int) {
	if page < 0 || page >= DirtyPages {
		return
	}
	img.dirty |= 1 << uint(page)
}

// MarkDirtyRange marks every page whose byte range intersects
// [offset, offset+length).
func (img *Image) MarkDirtyRange(offset, length int) {
	if length <= 0 {
		return
	}
	first := offset / PageSize
	last := (offset + length - 1) / PageSize
	for p := first; p <= last; p++ {
		img.MarkDirty(p)
	}
}

// ClearAllDirty clears the entire bitmap, the only mutator that clears
// bits.
func (img *Image) ClearAllDirty() {
	img.dirty = 0
}

// IsDirty reports whether any page is marked dirty.
func (img *Image) IsDirty() bool {
	return img.dirty != 0
}

// DirtyMask returns the raw dirty-page bitmap, for diagnostics (e.g. the
// cfgfatctl dashboard) that want to visualize it directly.
func (img *Image) DirtyMask() uint32 {
	return img.dirty
}

// FlushDirty persists the mirror to fl if any page is dirty. The
// supported flash model has a single coarse erasable sector covering the
// whole region, so any dirty bit triggers a full erase + full program of
// the mirror; the bitmap is cleared only on success. Implementations
// backed by page-erasable flash could erase only dirty pages, but must
// preserve the same externally observed content.
func (img *Image) FlushDirty(fl flash.Flash) error {
	if !img.IsDirty() {
		return nil
	}

	if err := fl.Unlock(); err != nil {
		return err
	}
	defer fl.Lock()

	if err := fl.EraseRegion(0); err != nil {
		// Abort this flush cycle; dirty bits remain set so the next
		// Process() call retries.
		return err
	}

	for addr := 0; addr+2 <= len(img.buf); addr += 2 {
		value := uint16(img.buf[addr]) | uint16(img.buf[addr+1])<<8
		if err := fl.ProgramHalfword(uint32(addr), value); err != nil {
			// Log and continue programming remaining halfwords; the
			// image in RAM remains the source of truth until the next
			// successful flush.
			pkg.LogWarn(pkg.ComponentDiskImage, "halfword program failed", "addr", addr, "error", err)
			continue
		}
	}

	img.ClearAllDirty()
	return nil
}
