package configfat

// bootSector is the constant boot sector served for sector 0. It is a
// read-only BPB (BIOS Parameter Block), never mirrored in Image — there
// is nothing for a host write to that sector to ever need to persist.
//
// The "total sectors" 16-bit field at offset 0x13 intentionally keeps
// the legacy value 0x0050 (80) for bit-exact compatibility with
// already-deployed firmware images; the 32-bit "large total sectors"
// field at offset 0x20 carries the real count (4096) for drivers that
// prefer it when the 16-bit field looks implausibly small. This is the
// compatibility choice a careful implementer has to make explicit.
var bootSector = buildBootSector()

func buildBootSector() [SectorSize]byte {
	var b [SectorSize]byte

	b[0], b[1], b[2] = 0xEB, 0x3C, 0x90 // jump to bootstrap code

	copy(b[0x03:0x0B], "mkdosfs\x00") // OEM name, 8 bytes

	putU16(b[0x0B:], SectorSize)    // bytes per sector
	b[0x0D] = 1                     // sectors per cluster
	putU16(b[0x0E:], ReservedSectors)
	b[0x10] = 2                     // FAT copies
	putU16(b[0x11:], RootDirEntries) // root entries
	putU16(b[0x13:], 0x0050)         // total sectors (legacy 16-bit field)
	b[0x15] = 0xF8                   // media descriptor: fixed disk
	putU16(b[0x16:], FATSectorsEach) // sectors per FAT
	putU16(b[0x18:], 1)              // sectors per track
	putU16(b[0x1A:], 1)              // number of heads
	putU32(b[0x1C:], 0)              // hidden sectors
	putU32(b[0x20:], SectorCount)    // large total sectors (32-bit)

	b[0x24] = 0x00 // drive number
	b[0x25] = 0x00 // reserved
	b[0x26] = 0x29 // extended boot signature

	putU32(b[0x27:], 0x40DD8D18) // volume serial number

	copy(b[0x2B:0x36], "RAMDISK    ") // volume label, 11 bytes
	copy(b[0x36:0x3E], "FAT12   ")    // filesystem type, 8 bytes

	b[510], b[511] = 0x55, 0xAA // boot sector signature

	return b
}

// BootSector returns a copy of the constant boot sector bytes.
func BootSector() [SectorSize]byte {
	return bootSector
}

func putU16(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

func putU32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
