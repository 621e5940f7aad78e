package cpu

import (
	"context"
)

// Keyboard is the host keyboard, addressed by CHIP-8 key codes 0x0-0xF.
type Keyboard interface {
	// Pressed reports whether key is currently held.
	Pressed(key uint8) bool
	// WaitKey blocks until a key is held, or ctx is done.
	WaitKey(ctx context.Context) (key uint8, err error)
}
