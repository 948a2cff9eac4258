package configfat

import (
	"bytes"

	"github.com/ardnew/cfgfat12/pkg"
)

// maxLineBytes is the per-line content cap: a value of exactly 2047
// bytes parses without truncation, 2048 truncates the final byte.
const maxLineBytes = 2047

// commentMarker separates an entry's value from an in-band comment on
// the same line, as written by the renderer.
var commentMarker = []byte("\t#")

// splitLines splits src into at most MaxEntries lines on CRLF or LF (a
// bare CR is not a terminator), truncating each line at maxLineBytes. An
// empty line or end of input terminates parsing; remaining slots are
// left nil.
func splitLines(src []byte) [MaxEntries][]byte {
	var lines [MaxEntries][]byte

	pos := 0
	for slot := 0; slot < MaxEntries; slot++ {
		if pos >= len(src) {
			break
		}

		i := pos
		termLen := 0
		for i < len(src) {
			if src[i] == '\r' && i+1 < len(src) && src[i+1] == '\n' {
				termLen = 2
				break
			}
			if src[i] == '\n' {
				termLen = 1
				break
			}
			i++
		}

		content := src[pos:i]
		if len(content) > maxLineBytes {
			content = content[:maxLineBytes]
		}
		if len(content) == 0 {
			break
		}

		lines[slot] = content
		pos = i + termLen
		if termLen == 0 {
			break
		}
	}

	return lines
}

// findLine returns the line among lines that begins with name followed
// immediately by '=', or nil if none matches.
func findLine(lines [MaxEntries][]byte, name string) []byte {
	prefix := name + "="
	for _, line := range lines {
		if line == nil {
			continue
		}
		if len(line) >= len(prefix) && string(line[:len(prefix)]) == prefix {
			return line
		}
	}
	return nil
}

// extractValue returns the value portion of a matched line (everything
// after "name=") up to the first "\t#" in-band comment marker, or the
// line's remainder if no such marker is present.
func extractValue(line []byte, name string) []byte {
	value := line[len(name)+1:]
	if idx := bytes.Index(value, commentMarker); idx >= 0 {
		return value[:idx]
	}
	return value
}

// looksLikeConfig reports whether window begins with some registered
// entry's name followed by '=' — the test FPV and the hostile-write
// filter both use to decide whether a byte region holds legitimate
// CONFIG.TXT content.
func looksLikeConfig(window []byte, reg *Registry) bool {
	for i := 0; i < reg.Len(); i++ {
		name := reg.At(i).Name
		if len(window) > len(name) && string(window[:len(name)]) == name && window[len(name)] == '=' {
			return true
		}
	}
	return false
}

// selectSource implements the input-source selection order:
// prefer the host's claimed location if it looks like config, else the
// canonical file window, else reload flash and retry the canonical
// window, else fall back to the host's claimed location (yielding
// defaults on parse).
func selectSource(reg *Registry, img *Image, hostWindow []byte, fl Flasher) []byte {
	canonical := img.File()

	if looksLikeConfig(hostWindow, reg) {
		return hostWindow
	}
	if looksLikeConfig(canonical, reg) {
		return canonical
	}
	if fl != nil {
		fl.ReadAt(0, img.Raw())
		img.ClearAllDirty()
		canonical = img.File()
		if looksLikeConfig(canonical, reg) {
			return canonical
		}
	}
	return hostWindow
}

// Parse is the File Parser & Validator (FPV). It reads CONFIG.TXT-shaped
// bytes chosen by selectSource, validates each registered entry against
// its submitted line (or applies the default when missing/invalid),
// rebuilds canonical bytes via Render, writes them into img's file
// window, updates the directory entry's size, forces its starting
// cluster to 2, rebuilds the FAT chain, and marks the affected pages
// dirty.
//
// It returns illegal=true if any entry was missing or failed
// validation — DFC uses this only as a hint that a flush is warranted.
func Parse(reg *Registry, img *Image, hostWindow []byte, fl Flasher) bool {
	source := selectSource(reg, img, hostWindow, fl)
	lines := splitLines(source)

	illegal := false
	rendered := make([][]byte, reg.Len())

	for i := 0; i < reg.Len(); i++ {
		e := reg.At(i)

		line := findLine(lines, e.Name)
		if line == nil {
			pkg.LogDebug(pkg.ComponentParser, "entry missing, applying default", "name", e.Name)
			rendered[i] = entryDefaultLine(e)
			if e.Update != nil {
				e.Update([]byte(e.DefaultValue))
			}
			illegal = true
			continue
		}

		value := extractValue(line, e.Name)
		ok := e.Validate == nil || e.Validate(value)
		if !ok {
			pkg.LogWarn(pkg.ComponentParser, "entry failed validation, applying default", "name", e.Name)
			rendered[i] = entryDefaultLine(e)
			illegal = true
			continue
		}

		if e.Update != nil {
			e.Update(value)
		}
		rendered[i] = entryLine(e)
	}

	canonical := render(reg, rendered, FileWindowSize)

	file := img.File()
	n := copy(file, canonical)
	for i := n; i < len(file); i++ {
		file[i] = 0
	}

	root := img.Root()
	if findConfigEntry(root) == nil {
		writeConfigDirEntry(root, configStartCluster, uint32(len(canonical)))
	} else {
		setConfigSize(root, uint32(len(canonical)))
		setConfigCluster(root, configStartCluster)
	}

	updateFATChain(img, len(canonical))

	img.MarkDirtyRange(OffsetRoot, SectorSize)
	img.MarkDirtyRange(OffsetFile, len(file))

	return illegal
}

// Flasher is the minimal capability Parse needs from a Flash backend:
// enough to reload the persisted mirror when neither RAM candidate looks
// valid. Declared locally (rather than importing the flash package) so
// Parse stays usable against any byte-addressable source with a ReadAt
// method.
type Flasher interface {
	ReadAt(addr uint32, buf []byte)
}
