//go:build headless

package frontend

import (
	"context"

	"github.com/ezrec/chip8/emulator"
)

// Window is unavailable without a window system; Run always fails.
type Window struct {
	Emulator *emulator.Emulator
	Title    string
	Scale    int
	Cancel   context.CancelFunc
}

// Run returns ErrHeadless.
func (win *Window) Run() error {
	return ErrHeadless
}
