package configfat

// Root directory entry 0 layout (FAT12/16 8.3 directory entry, 32 bytes).
const (
	dirEntrySize       = 32
	dirNameOffset      = 0x00
	dirNameLength      = 11
	dirAttrOffset      = 0x0B
	dirClusterOffset   = 0x1A
	dirSizeOffset      = 0x1C
	dirMaxEntries      = SectorSize / dirEntrySize // 16 usable entries
)

// configFilenameFAT is the 8.3 short name for CONFIG.TXT, space-padded.
const configFilenameFAT = "CONFIG  TXT"

// findConfigEntry returns a slice over directory entry 0's 32 bytes if it
// holds the CONFIG.TXT short name, else nil. Only entry 0 is ever used;
// the engine hosts exactly one file.
func findConfigEntry(root []byte) []byte {
	if len(root) < dirEntrySize {
		return nil
	}
	entry := root[0:dirEntrySize]
	if string(entry[dirNameOffset:dirNameOffset+dirNameLength]) != configFilenameFAT {
		return nil
	}
	return entry
}

// writeConfigDirEntry (re)writes directory entry 0 as CONFIG.TXT with the
// given starting cluster and size, zeroing the rest of the entry's
// timestamp/attribute fields.
func writeConfigDirEntry(root []byte, cluster uint16, size uint32) {
	entry := root[0:dirEntrySize]
	for i := range entry {
		entry[i] = 0
	}
	copy(entry[dirNameOffset:], configFilenameFAT)
	entry[dirAttrOffset] = 0x00
	putU16(entry[dirClusterOffset:], cluster)
	putU32(entry[dirSizeOffset:], size)
}

// configStartClusterOf reads the starting cluster recorded in directory
// entry 0, or 0 if the entry is absent.
func configStartClusterOf(root []byte) uint16 {
	entry := findConfigEntry(root)
	if entry == nil {
		return 0
	}
	return uint16(entry[dirClusterOffset]) | uint16(entry[dirClusterOffset+1])<<8
}

// configSizeOf reads the size recorded in directory entry 0, or 0 if the
// entry is absent.
func configSizeOf(root []byte) uint32 {
	entry := findConfigEntry(root)
	if entry == nil {
		return 0
	}
	return uint32(entry[dirSizeOffset]) | uint32(entry[dirSizeOffset+1])<<8 |
		uint32(entry[dirSizeOffset+2])<<16 | uint32(entry[dirSizeOffset+3])<<24
}

// setConfigSize rewrites just the size field of directory entry 0.
func setConfigSize(root []byte, size uint32) {
	entry := findConfigEntry(root)
	if entry == nil {
		return
	}
	putU32(entry[dirSizeOffset:], size)
}

// setConfigCluster rewrites just the starting cluster field of directory
// entry 0.
func setConfigCluster(root []byte, cluster uint16) {
	entry := findConfigEntry(root)
	if entry == nil {
		return
	}
	putU16(entry[dirClusterOffset:], cluster)
}
