package configfat

import (
	"github.com/ardnew/cfgfat12/configfat/flash"
	"github.com/ardnew/cfgfat12/pkg"
)

// quiescentWindowMS is the idle period BIO writes must satisfy before DFC
// runs the parser and requests a flush, coalescing a multi-sector burst
// (file, then directory, then FAT updates) into one erase-program cycle.
const quiescentWindowMS = 500

// dfc is the Deferred-Flush Controller. BIO arms it on every accepted
// write; the application's main loop drives it forward via Process.
type dfc struct {
	pending     bool
	lastWriteMS uint32
}

// Arm records that a write occurred at now, the only thing BIO does to
// dfc directly.
func (d *dfc) Arm(now uint32) {
	d.pending = true
	d.lastWriteMS = now
}

// fileOffsetForCluster returns the byte offset within img.File() that
// corresponds to cluster, or -1 if cluster lies outside the data region.
func fileOffsetForCluster(cluster int) int {
	sector := clusterToSector(cluster)
	if sector < DataFirstSector {
		return -1
	}
	offset := (sector - DataFirstSector) * SectorSize
	if offset < 0 || offset >= FileWindowSize {
		return -1
	}
	return offset
}

// Process runs once per main-loop tick. If a write is pending and at
// least quiescentWindowMS have elapsed since the last one, it locates
// CONFIG.TXT, runs the parser against the host's claimed location when
// the entry has non-zero size, and requests a flush; pending is cleared
// only if that flush succeeds, so a failed erase retries on the next
// call. It reports whether it acted on this call.
func (d *dfc) Process(now uint32, fl flash.Flash, reg *Registry, img *Image) bool {
	if !d.pending || now-d.lastWriteMS < quiescentWindowMS {
		return false
	}

	root := img.Root()
	if entry := findConfigEntry(root); entry != nil {
		if size := configSizeOf(root); size > 0 {
			cluster := int(configStartClusterOf(root))
			hostWindow := img.File()
			if offset := fileOffsetForCluster(cluster); offset >= 0 {
				hostWindow = img.File()[offset:]
			}
			Parse(reg, img, hostWindow, fl)
		}
	}

	if err := img.FlushDirty(fl); err != nil {
		// Erase failed: the image remains dirty and pending stays set so
		// the next Process call retries the whole flush.
		pkg.LogWarn(pkg.ComponentDeferredFlush, "flush failed, will retry", "error", err)
		return true
	}

	pkg.LogDebug(pkg.ComponentDeferredFlush, "flushed dirty pages", "quiescent_ms", now-d.lastWriteMS)
	d.pending = false
	return true
}
