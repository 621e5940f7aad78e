// Package io provides the host-facing devices of the CHIP-8 system: the
// hexadecimal keypad and ROM images.
package io

import (
	"context"
	"sync/atomic"
	"time"
)

const (
	KEY_COUNT     = 16                   // Keys 0x0-0xF.
	POLL_INTERVAL = 2 * time.Millisecond // WaitKey poll period.
)

// Keypad is the 16 key CHIP-8 keypad. Host input goroutines update it;
// the cycle loop reads it.
type Keypad struct {
	state atomic.Uint32
}

// Press marks key as held.
func (kp *Keypad) Press(key uint8) {
	bit := uint32(1) << (key & 0xf)
	kp.state.Or(bit)
}

// Release marks key as not held.
func (kp *Keypad) Release(key uint8) {
	bit := uint32(1) << (key & 0xf)
	kp.state.And(^bit)
}

// Set replaces the state of all keys; bit n is key n.
func (kp *Keypad) Set(mask uint16) {
	kp.state.Store(uint32(mask))
}

// State returns the key mask; bit n is key n.
func (kp *Keypad) State() uint16 {
	return uint16(kp.state.Load())
}

// Pressed reports whether key is held.
func (kp *Keypad) Pressed(key uint8) bool {
	return kp.state.Load()&(1<<(key&0xf)) != 0
}

// first returns the lowest held key.
func (kp *Keypad) first() (key uint8, ok bool) {
	state := kp.state.Load()
	for key = range KEY_COUNT {
		if state&(1<<key) != 0 {
			ok = true
			return
		}
	}
	return
}

// WaitKey polls until a key is held and returns the lowest one, or returns
// ctx.Err() once ctx is done.
func (kp *Keypad) WaitKey(ctx context.Context) (key uint8, err error) {
	ticker := time.NewTicker(POLL_INTERVAL)
	defer ticker.Stop()

	for {
		var ok bool
		key, ok = kp.first()
		if ok {
			return
		}

		select {
		case <-ctx.Done():
			err = ctx.Err()
			return
		case <-ticker.C:
		}
	}
}
