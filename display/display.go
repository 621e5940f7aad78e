// Package display implements the 64x32 monochrome CHIP-8 framebuffer.
package display

import (
	"fmt"
	"iter"
	"maps"
)

const (
	WIDTH  = 64
	HEIGHT = 32
)

var _display_defines = map[string]string{
	"DISPLAY_WIDTH":  fmt.Sprintf("%v", WIDTH),
	"DISPLAY_HEIGHT": fmt.Sprintf("%v", HEIGHT),
}

// Display is the live framebuffer. It is owned by the cycle loop;
// renderers consume Snapshot() copies.
type Display struct {
	cell       Frame
	generation uint64
}

// Defines for the display geometry.
func (disp *Display) Defines() iter.Seq2[string, string] {
	return maps.All(_display_defines)
}

// Generation increments on every mutation.
func (disp *Display) Generation() uint64 {
	return disp.generation
}

// Clear turns every pixel off.
func (disp *Display) Clear() {
	disp.cell = Frame{}
	disp.generation++
}

// Draw XORs sprite onto the framebuffer with its top-left corner at (x, y).
// Each byte is one row, MSB leftmost. Coordinates wrap on both axes.
// Returns true if any lit pixel was turned off.
func (disp *Display) Draw(x, y int, sprite []byte) (collision bool) {
	for r, row := range sprite {
		py := (y + r) % HEIGHT
		for c := range 8 {
			if row&(0x80>>c) == 0 {
				continue
			}
			px := (x + c) % WIDTH
			if disp.cell[py][px] {
				collision = true
			}
			disp.cell[py][px] = !disp.cell[py][px]
		}
	}

	disp.generation++

	return
}

// Snapshot returns a copy of the current framebuffer.
func (disp *Display) Snapshot() Frame {
	return disp.cell
}
