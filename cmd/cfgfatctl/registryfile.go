package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/ardnew/cfgfat12/configfat"
)

// entryDesc is one line of a registry description file:
// "name|default_value|comment". Comment may be empty.
type entryDesc struct {
	name    string
	def     string
	comment string
}

// loadRegistryFile reads a registry description file and returns the
// entries in file order. Values registered from it have no validator or
// updater: the built image simply renders the defaults, which is all
// the operator CLI needs (it never runs live device callbacks).
func loadRegistryFile(path string) ([]entryDesc, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []entryDesc
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.SplitN(line, "|", 3)
		if len(fields) < 2 {
			return nil, fmt.Errorf("malformed registry line %q: want name|default[|comment]", line)
		}
		e := entryDesc{name: fields[0], def: fields[1]}
		if len(fields) == 3 {
			e.comment = fields[2]
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%s: no registry entries found", path)
	}
	return entries, nil
}

// buildRegistry registers each descriptor with a print callback that
// always renders its default (the CLI has no live device state to
// reflect), so Render produces exactly "name=default\t<comment>\r\n"
// per entry.
func buildRegistry(entries []entryDesc) (*configfat.Registry, error) {
	reg := configfat.NewRegistry()
	for _, e := range entries {
		def := e.def
		ok := reg.Register(e.name, e.def, e.comment, nil, nil, func(out []byte) int {
			return copy(out, e.name+"="+def)
		})
		if !ok {
			return nil, fmt.Errorf("registry full: could not register %q (max %d entries)", e.name, configfat.MaxEntries)
		}
	}
	return reg, nil
}
