package emulator

import (
	"github.com/ezrec/chip8/translate"
)

var f = translate.From

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	Address uint16 // Address of the faulting instruction.
	Word    uint16 // Faulting instruction word.
	LineNo  int    // Source line, if the program was assembled.
	Err     error
}

func (err *ErrRuntime) Error() string {
	if err.LineNo == 0 {
		return f("0x%03x: 0x%04x %v", err.Address, err.Word, err.Err)
	}
	return f("line %d 0x%03x: 0x%04x %v", err.LineNo, err.Address, err.Word, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
