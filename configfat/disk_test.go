package configfat

import (
	"bytes"
	"testing"

	"github.com/ardnew/cfgfat12/configfat/flash"
)

func newTestDisk(t *testing.T, brightness *int) (*Disk, *FakeClock) {
	t.Helper()
	reg := newBrightnessRegistry(brightness)
	fl := flash.NewSimRegion(ImageSize)
	clk := NewFakeClock(0)
	d := New(fl, reg, clk)
	d.Init()
	return d, clk
}

func TestDiskInitFreshFlashSynthesizesDefaults(t *testing.T) {
	var brightness int
	d, _ := newTestDisk(t, &brightness)

	root := make([]byte, SectorSize)
	if n, err := d.Read(RootDirSector, 1, root); err != nil || n != 1 {
		t.Fatalf("Read(root) = (%d, %v)", n, err)
	}
	if findConfigEntry(root) == nil {
		t.Fatalf("CONFIG.TXT entry not synthesized on fresh flash")
	}
	if cc := configStartClusterOf(root); cc != configStartCluster {
		t.Errorf("starting cluster = %d, want %d", cc, configStartCluster)
	}

	file := make([]byte, SectorSize)
	if _, err := d.Read(DataFirstSector, 1, file); err != nil {
		t.Fatalf("Read(data) error = %v", err)
	}
	want := "brightness=50\t#(0~100)\r\n"
	if string(file[:len(want)]) != want {
		t.Errorf("file window = %q, want prefix %q", file[:len(want)], want)
	}

	fat1 := make([]byte, SectorSize)
	d.Read(FAT1Sector, 1, fat1)
	if !bytes.Equal(fat1[0:3], []byte{0xF8, 0xFF, 0xFF}) {
		t.Errorf("FAT1 reserved signature = % X, want F8 FF FF", fat1[0:3])
	}
	if getFAT12Entry(fat1, 2) != 0xFFF {
		t.Errorf("FAT entry for cluster 2 = 0x%03X, want 0xFFF", getFAT12Entry(fat1, 2))
	}
}

func TestDiskReadSector0IsBootSector(t *testing.T) {
	var brightness int
	d, _ := newTestDisk(t, &brightness)

	out := make([]byte, SectorSize)
	d.Read(0, 1, out)

	boot := BootSector()
	if !bytes.Equal(out, boot[:]) {
		t.Errorf("sector 0 != BootSector()")
	}
}

func TestDiskReadUnusedSectorIsZeroFilled(t *testing.T) {
	var brightness int
	d, _ := newTestDisk(t, &brightness)

	out := make([]byte, SectorSize)
	for i := range out {
		out[i] = 0xAA
	}
	d.Read(1, 1, out) // reserved, unused

	for i, b := range out {
		if b != 0 {
			t.Fatalf("sector 1 byte %d = 0x%02X, want 0", i, b)
			break
		}
	}
}

func TestDiskReadOutOfRange(t *testing.T) {
	var brightness int
	d, _ := newTestDisk(t, &brightness)

	buf := make([]byte, SectorSize)
	if _, err := d.Read(SectorCount, 1, buf); err != ErrOutOfRange {
		t.Errorf("Read() past end error = %v, want ErrOutOfRange", err)
	}
}

func TestDiskWriteArmsDeferredFlush(t *testing.T) {
	var brightness int
	d, clk := newTestDisk(t, &brightness)

	block := make([]byte, SectorSize)
	copy(block, "brightness=75\t#(0~100)\r\n")
	if _, err := d.Write(DataFirstSector, 1, block); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if !d.dfc.pending {
		t.Fatalf("dfc.pending = false after Write, want true")
	}

	clk.Advance(quiescentWindowMS)
	if !d.Process() {
		t.Errorf("Process() did not fire after quiescent window")
	}
	if brightness != 75 {
		t.Errorf("brightness = %d, want 75 after deferred parse", brightness)
	}
}

func TestDiskWriteNeverInvokesParser(t *testing.T) {
	var brightness int
	d, _ := newTestDisk(t, &brightness)

	block := make([]byte, SectorSize)
	copy(block, "brightness=75\t#(0~100)\r\n")
	d.Write(DataFirstSector, 1, block)

	// BIO must never call FPV directly; only Process (via DFC) does.
	if brightness != 50 {
		t.Errorf("brightness = %d, want 50 (Write must not parse)", brightness)
	}
}

func TestDiskWriteRejectsDotFileAtNeighboringCluster(t *testing.T) {
	var brightness int
	d, _ := newTestDisk(t, &brightness)

	// CONFIG.TXT occupies cluster 2 after Init; a macOS-style shadow file
	// write targets the adjacent cluster 3 (sector DataFirstSector+1),
	// which is not the file's current location.
	neighborSector := uint64(DataFirstSector + 1)

	before := make([]byte, SectorSize)
	d.Read(neighborSector, 1, before)

	dotFile := make([]byte, SectorSize)
	dotFile[0] = 0x05 // deleted-entry sentinel

	d.Write(neighborSector, 1, dotFile)

	after := make([]byte, SectorSize)
	d.Read(neighborSector, 1, after)
	if !bytes.Equal(before, after) {
		t.Errorf("dot-file write to a neighboring cluster was not rejected")
	}
}

func TestDiskWriteAcceptsDotFileAtNeighboringClusterWhenFilterDisabled(t *testing.T) {
	var brightness int
	d, _ := newTestDisk(t, &brightness)
	d.StrictHostileFilter = false

	neighborSector := uint64(DataFirstSector + 1)

	dotFile := make([]byte, SectorSize)
	dotFile[0] = 0x05

	d.Write(neighborSector, 1, dotFile)

	after := make([]byte, SectorSize)
	d.Read(neighborSector, 1, after)
	if !bytes.Equal(after, dotFile) {
		t.Errorf("write with filter disabled was rejected, want accepted")
	}
}

func TestDiskWriteAcceptsAnyContentAtCurrentFileCluster(t *testing.T) {
	var brightness int
	d, _ := newTestDisk(t, &brightness)

	// cc == wc == 2 takes priority over the dot-file heuristic: writes to
	// the file's own current cluster are always accepted.
	dotFile := make([]byte, SectorSize)
	dotFile[0] = 0x05

	d.Write(DataFirstSector, 1, dotFile)

	after := make([]byte, SectorSize)
	d.Read(DataFirstSector, 1, after)
	if !bytes.Equal(after, dotFile) {
		t.Errorf("write to the file's current cluster was rejected, want accepted")
	}
}

func TestDiskWriteAcceptsHostRelocatedCluster(t *testing.T) {
	var brightness int
	d, clk := newTestDisk(t, &brightness)

	// Host moves CONFIG.TXT to cluster 5 (sector 67).
	root := make([]byte, SectorSize)
	d.Read(RootDirSector, 1, root)
	setConfigCluster(root, 5)
	d.Write(RootDirSector, 1, root)

	relocatedSector := clusterToSector(5)
	data := make([]byte, SectorSize)
	copy(data, "brightness=33\t#(0~100)\r\n")
	if _, err := d.Write(uint64(relocatedSector), 1, data); err != nil {
		t.Fatalf("Write() to relocated cluster error = %v", err)
	}

	clk.Advance(quiescentWindowMS)
	d.Process()

	if brightness != 33 {
		t.Errorf("brightness = %d, want 33 after relocated-cluster parse", brightness)
	}

	newRoot := make([]byte, SectorSize)
	d.Read(RootDirSector, 1, newRoot)
	if cc := configStartClusterOf(newRoot); cc != configStartCluster {
		t.Errorf("starting cluster after normalize = %d, want %d (forced back to 2)", cc, configStartCluster)
	}
}

func TestDiskSyncFlushesImmediately(t *testing.T) {
	var brightness int
	d, _ := newTestDisk(t, &brightness)

	block := make([]byte, SectorSize)
	copy(block, "hello")
	d.Write(RootDirSector, 1, block)

	if err := d.Sync(); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if d.img.IsDirty() {
		t.Errorf("image still dirty after Sync()")
	}
}

func TestDiskBlockGeometry(t *testing.T) {
	var brightness int
	d, _ := newTestDisk(t, &brightness)

	if d.BlockSize() != SectorSize {
		t.Errorf("BlockSize() = %d, want %d", d.BlockSize(), SectorSize)
	}
	if d.BlockCount() != SectorCount {
		t.Errorf("BlockCount() = %d, want %d", d.BlockCount(), SectorCount)
	}
	if d.IsReadOnly() {
		t.Errorf("IsReadOnly() = true, want false")
	}
	if !d.IsRemovable() {
		t.Errorf("IsRemovable() = false, want true")
	}
	if !d.IsPresent() {
		t.Errorf("IsPresent() = false, want true")
	}
}
