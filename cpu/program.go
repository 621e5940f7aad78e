package cpu

import (
	"iter"

	"github.com/ezrec/chip8/memory"
)

// Opcode represents a line of assembled code with its source location and
// generated bytes.
type Opcode struct {
	LineNo    int
	Address   int
	Words     []string
	Bytes     []byte
	LinkLabel string
	Data      bool // Set for .byte and .word lines.
}

// Program is an assembled listing.
type Program struct {
	Opcodes []Opcode
}

type Debug struct {
	*Opcode
	Index int
}

// Debug finds the listing line covering addr.
func (prog *Program) Debug(addr uint16) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if int(addr) >= op.Address && int(addr) < op.Address+len(op.Bytes) {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  int(addr) - op.Address,
			}
			break
		}
	}

	return
}

// Binary returns the ROM image, to be loaded at PROGRAM_BASE.
func (prog *Program) Binary() (bin []byte) {
	end := memory.PROGRAM_BASE
	for _, op := range prog.Opcodes {
		end = max(end, op.Address+len(op.Bytes))
	}

	bin = make([]byte, end-memory.PROGRAM_BASE)
	for _, op := range prog.Opcodes {
		copy(bin[op.Address-memory.PROGRAM_BASE:], op.Bytes)
	}

	return
}

// Instructions iterates the decoded instructions, by address, skipping data.
func (prog *Program) Instructions() iter.Seq2[uint16, Instruction] {
	return func(yield func(addr uint16, inst Instruction) bool) {
		for _, op := range prog.Opcodes {
			if op.Data {
				continue
			}
			for n := 0; n+1 < len(op.Bytes); n += 2 {
				word := uint16(op.Bytes[n])<<8 | uint16(op.Bytes[n+1])
				if !yield(uint16(op.Address+n), Decode(word)) {
					return
				}
			}
		}
	}
}
