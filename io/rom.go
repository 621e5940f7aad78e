package io

import (
	"io"

	"github.com/ezrec/chip8/memory"
)

// ReadRom reads a raw CHIP-8 program image.
func ReadRom(input io.Reader) (rom []byte, err error) {
	rom, err = io.ReadAll(io.LimitReader(input, memory.PROGRAM_SIZE+1))
	if err != nil {
		return
	}

	switch {
	case len(rom) == 0:
		err = ErrRomEmpty
	case len(rom) > memory.PROGRAM_SIZE:
		err = ErrRomTooLarge
	}

	if err != nil {
		rom = nil
	}

	return
}
