package io

import (
	"io/fs"
	"iter"
	"maps"
	"path"
	"regexp"
	"slices"
	"strings"
)

var romName = regexp.MustCompile(`(?i)\.(ch8|c8)$`)

// Library is a set of ROM images, keyed by base name without extension.
type Library struct {
	Roms map[string][]byte
}

// Unmarshal loads every *.ch8 or *.c8 file found under filesys.
func (lib *Library) Unmarshal(filesys fs.FS) (err error) {
	return fs.WalkDir(filesys, ".", func(name string, d fs.DirEntry, err_in error) (err error) {
		if err_in != nil {
			err = err_in
			return
		}
		if d.IsDir() || !romName.MatchString(d.Name()) {
			return
		}

		inf, err := filesys.Open(name)
		if err != nil {
			return
		}
		defer inf.Close()

		rom, err := ReadRom(inf)
		if err != nil {
			return
		}

		if lib.Roms == nil {
			lib.Roms = make(map[string][]byte)
		}
		base := path.Base(name)
		lib.Roms[strings.TrimSuffix(base, path.Ext(base))] = rom
		return
	})
}

// Names returns the ROM names in sorted order.
func (lib *Library) Names() iter.Seq[string] {
	return slices.Values(slices.Sorted(maps.Keys(lib.Roms)))
}

// Rom returns the named image.
func (lib *Library) Rom(name string) (rom []byte, err error) {
	rom, ok := lib.Roms[name]
	if !ok {
		err = ErrRomMissing
	}
	return
}
