package display

import (
	"image"
	"image/color"
	"strings"
)

// Frame is a value copy of the framebuffer, indexed [y][x].
type Frame [HEIGHT][WIDTH]bool

// Palette used by Image(): index 0 is off, index 1 is on.
var Palette = color.Palette{
	color.Gray{Y: 0x00},
	color.Gray{Y: 0xff},
}

// Pixel returns the state at (x, y); coordinates wrap like Draw.
func (frame *Frame) Pixel(x, y int) bool {
	return frame[((y%HEIGHT)+HEIGHT)%HEIGHT][((x%WIDTH)+WIDTH)%WIDTH]
}

// Lit counts the pixels that are on.
func (frame *Frame) Lit() (count int) {
	for y := range HEIGHT {
		for x := range WIDTH {
			if frame[y][x] {
				count++
			}
		}
	}
	return
}

// Image renders the frame as a WIDTH x HEIGHT paletted image.
func (frame *Frame) Image() *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, WIDTH, HEIGHT), Palette)
	for y := range HEIGHT {
		for x := range WIDTH {
			if frame[y][x] {
				img.Pix[y*img.Stride+x] = 1
			}
		}
	}
	return img
}

// String renders one character per pixel, one line per row.
func (frame *Frame) String() string {
	var sb strings.Builder
	sb.Grow((WIDTH + 1) * HEIGHT)
	for y := range HEIGHT {
		for x := range WIDTH {
			if frame[y][x] {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// HalfBlocks renders two pixel rows per text line using block characters,
// with eol appended to each of the HEIGHT/2 lines.
func (frame *Frame) HalfBlocks(eol string) string {
	var sb strings.Builder
	for y := 0; y < HEIGHT; y += 2 {
		for x := range WIDTH {
			top, bottom := frame[y][x], frame[y+1][x]
			switch {
			case top && bottom:
				sb.WriteRune('█')
			case top:
				sb.WriteRune('▀')
			case bottom:
				sb.WriteRune('▄')
			default:
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(eol)
	}
	return sb.String()
}
