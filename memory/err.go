package memory

import (
	"errors"

	"github.com/ezrec/chip8/translate"
)

var f = translate.From

var (
	ErrOutOfRange  = errors.New(f("memory out of range"))
	ErrProgramSize = errors.New(f("program too large"))
)

// ErrAddress reports a rejected access, and unwraps to ErrOutOfRange.
type ErrAddress struct {
	Address int
	Write   bool
}

func (err ErrAddress) Error() string {
	if err.Write {
		return f("write 0x%03x: %v", err.Address, ErrOutOfRange)
	}
	return f("read 0x%03x: %v", err.Address, ErrOutOfRange)
}

func (err ErrAddress) Unwrap() error {
	return ErrOutOfRange
}
