package configfat

import (
	"bytes"

	"github.com/ardnew/cfgfat12/configfat/flash"
	"github.com/ardnew/cfgfat12/pkg"
)

// Disk is the Block I/O Dispatcher (BIO): it wraps the RAM image, the
// entry registry, a flash backend, a clock, and the deferred-flush
// controller's state, and implements msc.Storage so the existing USB
// Bulk-Only Transport/SCSI stack can drive it directly.
//
// Disk does no internal locking: the integrator must serialize calls to
// the msc.Storage methods against Process.
type Disk struct {
	img *Image
	reg *Registry
	fl  flash.Flash
	clk Clock
	dfc dfc

	// StrictHostileFilter enables the dot-file heuristic in Write's
	// hostile-write filter. Defaults to true; set false to accept every
	// cluster-2+ write unconditionally.
	StrictHostileFilter bool
}

// New constructs a Disk over the given flash backend, registry, and
// clock. Call Init before attaching it to a transport.
func New(fl flash.Flash, reg *Registry, clk Clock) *Disk {
	return &Disk{
		img:                 NewImage(),
		reg:                 reg,
		fl:                  fl,
		clk:                 clk,
		StrictHostileFilter: true,
	}
}

// Init loads the persisted mirror, locates CONFIG.TXT, and either
// normalizes what's there or synthesizes a fresh volume from registry
// defaults.
func (d *Disk) Init() {
	d.img.LoadFromFlash(d.fl)
	d.img.ClearAllDirty()

	root := d.img.Root()
	if entry := findConfigEntry(root); entry != nil {
		pkg.LogDebug(pkg.ComponentBlockIO, "found existing CONFIG.TXT at init")
		Parse(d.reg, d.img, d.img.File(), d.fl)
		d.dfc.Arm(d.clk.NowMS())
		return
	}

	pkg.LogInfo(pkg.ComponentBlockIO, "no CONFIG.TXT found, synthesizing defaults")
	raw := d.img.Raw()
	for i := range raw {
		raw[i] = 0
	}

	writeConfigDirEntry(d.img.Root(), configStartCluster, 0)

	fat1 := d.img.FAT1()
	copy(fat1[0:3], fatReservedSignature[:])
	copy(d.img.FAT2(), fat1)

	for i := 0; i < d.reg.Len(); i++ {
		if e := d.reg.At(i); e.Update != nil {
			e.Update([]byte(e.DefaultValue))
		}
	}
	content := Render(d.reg)
	file := d.img.File()
	n := copy(file, content)
	for i := n; i < len(file); i++ {
		file[i] = 0
	}
	setConfigSize(d.img.Root(), uint32(len(content)))
	updateFATChain(d.img, len(content))

	d.img.MarkDirtyRange(0, ImageSize)
	d.dfc.Arm(d.clk.NowMS())
}

// Process drives the deferred-flush controller forward one tick. Call
// this from the application's main loop; it may block for the
// underlying flash's worst-case erase+program latency.
func (d *Disk) Process() bool {
	return d.dfc.Process(d.clk.NowMS(), d.fl, d.reg, d.img)
}

// BlockSize implements msc.Storage.
func (d *Disk) BlockSize() uint32 { return SectorSize }

// BlockCount implements msc.Storage.
func (d *Disk) BlockCount() uint64 { return SectorCount }

// IsReadOnly implements msc.Storage: the volume always accepts writes.
func (d *Disk) IsReadOnly() bool { return false }

// IsRemovable implements msc.Storage.
func (d *Disk) IsRemovable() bool { return true }

// IsPresent implements msc.Storage: the volume is always mounted.
func (d *Disk) IsPresent() bool { return true }

// Sync implements msc.Storage by forcing an immediate flush of any
// dirty pages, bypassing the deferred-flush quiescent window.
func (d *Disk) Sync() error {
	return d.img.FlushDirty(d.fl)
}

// DirtyMask exposes the image's dirty-page bitmap for diagnostics.
func (d *Disk) DirtyMask() uint32 {
	return d.img.DirtyMask()
}

// Eject implements msc.Storage. Physical media cannot really be
// ejected here; the closest analogue is resetting the in-RAM mirror
// back to registry defaults, as if freshly initialized.
func (d *Disk) Eject() error {
	lines := make([][]byte, d.reg.Len())
	for i := range lines {
		lines[i] = entryDefaultLine(d.reg.At(i))
	}
	content := render(d.reg, lines, FileWindowSize)
	file := d.img.File()
	for i := range file {
		file[i] = 0
	}
	copy(file, content)
	writeConfigDirEntry(d.img.Root(), configStartCluster, uint32(len(content)))
	updateFATChain(d.img, len(content))
	d.img.MarkDirtyRange(0, ImageSize)
	return nil
}

// Read implements msc.Storage's read path: each sector
// is served from the matching image window, or zero-filled.
func (d *Disk) Read(lba uint64, blocks uint32, buf []byte) (uint32, error) {
	if lba+uint64(blocks) > SectorCount {
		return 0, ErrOutOfRange
	}
	if uint64(len(buf)) < uint64(blocks)*SectorSize {
		return 0, ErrShortBuffer
	}

	for i := uint32(0); i < blocks; i++ {
		sector := int(lba) + int(i)
		out := buf[int(i)*SectorSize : (int(i)+1)*SectorSize]
		d.readSector(sector, out)
	}
	return blocks, nil
}

func (d *Disk) readSector(sector int, out []byte) {
	switch {
	case sector == 0:
		boot := BootSector()
		copy(out, boot[:])
	case sector == FAT1Sector:
		copy(out, d.img.FAT1())
	case sector == FAT2Sector:
		copy(out, d.img.FAT2())
	case sector == RootDirSector:
		copy(out, d.img.Root())
	case sector >= DataFirstSector && sector < DataFirstSector+fileWindowSectors():
		offset := (sector - DataFirstSector) * SectorSize
		copy(out, d.img.File()[offset:offset+SectorSize])
	default:
		for i := range out {
			out[i] = 0
		}
	}
}

// Write implements msc.Storage's write path: FAT/root
// sectors replace the corresponding window if changed, data sectors
// pass through the hostile-write filter, and every accepted request
// arms the deferred-flush controller. FPV and FR never run here;
// validation only runs from Process.
func (d *Disk) Write(lba uint64, blocks uint32, buf []byte) (uint32, error) {
	if lba+uint64(blocks) > SectorCount {
		return 0, ErrOutOfRange
	}
	if uint64(len(buf)) < uint64(blocks)*SectorSize {
		return 0, ErrShortBuffer
	}

	for i := uint32(0); i < blocks; i++ {
		sector := int(lba) + int(i)
		block := buf[int(i)*SectorSize : (int(i)+1)*SectorSize]
		d.writeSector(sector, block)
	}

	d.dfc.Arm(d.clk.NowMS())
	return blocks, nil
}

func (d *Disk) writeSector(sector int, block []byte) {
	switch {
	case sector == FAT1Sector:
		d.replaceWindow(d.img.FAT1(), block, OffsetFAT1)
	case sector == FAT2Sector:
		d.replaceWindow(d.img.FAT2(), block, OffsetFAT2)
	case sector == RootDirSector:
		d.replaceWindow(d.img.Root(), block, OffsetRoot)
	case sector >= DataFirstSector && sector < DataFirstSector+fileWindowSectors():
		d.writeDataSector(sector, block)
	default:
		// Other sectors in reserved ranges are discarded.
	}
}

func (d *Disk) replaceWindow(window, block []byte, pageOffset int) {
	if bytes.Equal(window, block) {
		return
	}
	copy(window, block)
	d.img.MarkDirtyRange(pageOffset, SectorSize)
}

// writeDataSector applies the hostile-write filter described below
// before committing a data-area sector.
func (d *Disk) writeDataSector(sector int, block []byte) {
	wc := sectorToCluster(sector)
	cc := int(configStartClusterOf(d.img.Root()))
	imageHasConfig := looksLikeConfig(d.img.File(), d.reg)

	accept := false
	switch {
	case cc > 0 && wc == cc:
		accept = true
	case wc == configStartCluster && looksLikeConfig(block, d.reg):
		accept = true
	case wc == configStartCluster:
		accept = false
	case d.StrictHostileFilter && wc > configStartCluster && wc <= configStartCluster+fileWindowSectors() &&
		imageHasConfig && looksLikeDotFile(block):
		accept = false
	default:
		accept = true
	}

	if !accept {
		pkg.LogDebug(pkg.ComponentBlockIO, "rejected hostile write", "sector", sector, "cluster", wc)
		return
	}

	offset := (sector - DataFirstSector) * SectorSize
	window := d.img.File()[offset : offset+SectorSize]
	if bytes.Equal(window, block) {
		return
	}
	copy(window, block)
	d.img.MarkDirtyRange(OffsetFile+offset, SectorSize)
}

// looksLikeDotFile implements the dot-file heuristic
// §4.7's footnote.
func looksLikeDotFile(block []byte) bool {
	if len(block) == 0 {
		return false
	}
	switch block[0] {
	case 0x00, 0x05:
		return true
	case '.':
		return len(block) > 1 && block[1] != 0
	}
	return false
}
