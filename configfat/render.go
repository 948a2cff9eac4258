package configfat

// MaxEntryLineLength bounds a single printer-rendered "name=value" line:
// one byte more than the parser's per-line 2047-byte limit.
const MaxEntryLineLength = 2048

// entryLine returns the entry's current "name=value" text, without its
// trailing comment: the printer's rendering if one is registered, else
// "name=default_value".
func entryLine(e *Entry) []byte {
	if e.Print != nil {
		var buf [MaxEntryLineLength]byte
		n := e.Print(buf[:])
		if n < 0 {
			n = 0
		}
		if n > len(buf) {
			n = len(buf)
		}
		out := make([]byte, n)
		copy(out, buf[:n])
		return out
	}
	return []byte(e.Name + "=" + e.DefaultValue)
}

// entryDefaultLine returns "name=default_value" for e, ignoring any
// Printer — used when the host's submission for an entry was missing or
// failed validation.
func entryDefaultLine(e *Entry) []byte {
	return []byte(e.Name + "=" + e.DefaultValue)
}

// render concatenates, for each occupied registry slot in registration
// order, a caller-supplied line followed by the entry's pre-formatted
// comment, capping the result at max bytes. A line+comment pair that
// would overflow the cap is dropped silently (a documented limitation)
// rather than truncated mid-line.
func render(reg *Registry, lines [][]byte, max int) []byte {
	out := make([]byte, 0, max)

	for i := 0; i < reg.Len(); i++ {
		e := reg.At(i)
		line := lines[i]
		comment := []byte(e.Comment())

		if len(out)+len(line)+len(comment) > max {
			continue
		}

		out = append(out, line...)
		out = append(out, comment...)
	}

	return out
}

// Render materializes CONFIG.TXT bytes from the registry's current
// printer state, capped at the file data window size. This is the File
// Renderer (FR) component used both directly (at Init, when no
// CONFIG.TXT exists yet) and by Parse to rebuild canonical content after
// applying host edits.
func Render(reg *Registry) []byte {
	lines := make([][]byte, reg.Len())
	for i := range lines {
		lines[i] = entryLine(reg.At(i))
	}
	return render(reg, lines, FileWindowSize)
}
