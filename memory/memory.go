// Package memory implements the 4 KiB CHIP-8 address space.
//
// The low 512 bytes belong to the interpreter. Programs may not read or
// write them; the only exception is the sprite fetch of the font table.
package memory

import (
	"fmt"
	"iter"
	"maps"
)

const (
	MEMORY_SIZE  = 4096  // Addressable bytes.
	PROGRAM_BASE = 0x200 // First program-visible address.
	PROGRAM_SIZE = MEMORY_SIZE - PROGRAM_BASE
)

var _memory_defines = map[string]string{
	"MEMORY_SIZE":     fmt.Sprintf("%#x", MEMORY_SIZE),
	"PROGRAM_BASE":    fmt.Sprintf("%#x", PROGRAM_BASE),
	"FONT_BASE":       fmt.Sprintf("%#x", FONT_BASE),
	"FONT_GLYPH_SIZE": fmt.Sprintf("%v", FONT_GLYPH_SIZE),
}

// Memory is the byte-addressable store of one machine.
type Memory struct {
	data [MEMORY_SIZE]byte
}

// New returns a zeroed memory with the font table loaded.
func New() (mem *Memory) {
	mem = &Memory{}
	mem.LoadFont()
	return
}

// Defines for the memory map.
func (mem *Memory) Defines() iter.Seq2[string, string] {
	return maps.All(_memory_defines)
}

// Reset zero-fills memory and reloads the font table.
func (mem *Memory) Reset() {
	clear(mem.data[:])
	mem.LoadFont()
}

// LoadFont writes the hex digit glyphs at FONT_BASE.
func (mem *Memory) LoadFont() {
	copy(mem.data[FONT_BASE:], font[:])
}

// LoadProgram copies program into memory starting at PROGRAM_BASE.
func (mem *Memory) LoadProgram(program []byte) (err error) {
	if len(program) > PROGRAM_SIZE {
		err = ErrProgramSize
		return
	}

	copy(mem.data[PROGRAM_BASE:], program)
	return
}

func check(addr int, write bool) (err error) {
	if addr < PROGRAM_BASE || addr >= MEMORY_SIZE {
		err = ErrAddress{Address: addr, Write: write}
	}
	return
}

// Read a program-visible byte.
func (mem *Memory) Read(addr uint16) (value byte, err error) {
	err = check(int(addr), false)
	if err != nil {
		return
	}

	value = mem.data[addr]
	return
}

// Write a program-visible byte.
func (mem *Memory) Write(addr uint16, value byte) (err error) {
	err = check(int(addr), true)
	if err != nil {
		return
	}

	mem.data[addr] = value
	return
}

// Sprite returns a copy of the rows bytes at addr. The range must lie
// wholly in program space or wholly within the font table.
func (mem *Memory) Sprite(addr uint16, rows int) (sprite []byte, err error) {
	start := int(addr)
	if rows == 0 {
		return
	}

	if !inFont(start, rows) {
		err = check(start, false)
		if err != nil {
			return
		}
		err = check(start+rows-1, false)
		if err != nil {
			return
		}
	}

	sprite = make([]byte, rows)
	copy(sprite, mem.data[start:start+rows])
	return
}
