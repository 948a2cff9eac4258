// Package configfat implements a virtual FAT12 disk engine that presents a
// microcontroller's on-chip flash region as a single-file removable USB
// mass storage volume (CONFIG.TXT).
//
// # Architecture
//
// The engine is built from the same leaf-first components regardless of
// which host touches it:
//
//  1. Flash Abstraction ([github.com/ardnew/cfgfat12/configfat/flash]) -
//     erase/program/read primitives over a fixed-size region.
//  2. Image - a 16 KiB RAM mirror of the persisted region, subdivided into
//     FAT1, FAT2, root directory, and file data windows, with a dirty
//     page bitmap.
//  3. Registry - a fixed 8-slot table of configuration entries, each with
//     a validate/update/print callback triad.
//  4. Render - serializes the registry into CONFIG.TXT bytes.
//  5. Parse - parses host-submitted CONFIG.TXT bytes, validates each
//     entry, applies callbacks, and rebuilds canonical content.
//  6. FAT12 synthesis - maintains the boot sector, FAT chain, and root
//     directory entry for the single file.
//  7. Disk - the block I/O dispatcher. It implements
//     [github.com/ardnew/cfgfat12/device/class/msc.Storage] so the
//     existing USB Mass Storage Bulk-Only Transport stack in
//     [github.com/ardnew/cfgfat12/device] can drive it directly.
//  8. Deferred-flush controller - coalesces bursts of host writes into a
//     single erase-program cycle after a quiescent interval.
//
// # Usage
//
//	fl := flash.NewSimRegion(configfat.ImageSize)
//	reg := configfat.NewRegistry()
//	reg.Register("brightness", "50", "#(0~100)", validateBrightness, updateBrightness, printBrightness)
//	disk := configfat.New(fl, reg, configfat.NewSystemClock())
//	disk.Init()
//
//	msc := msc.New(disk, "cfgfat12", "Config Disk")
//
// Reads and writes never block; only [Disk.Process], driven from the
// integrator's main loop, may perform flash I/O.
package configfat
