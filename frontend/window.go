//go:build !headless

package frontend

import (
	"context"
	"image/color"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"

	"github.com/ezrec/chip8/display"
	"github.com/ezrec/chip8/emulator"
)

const (
	WINDOW_SCALE = 10 // Default host pixels per CHIP-8 pixel.
)

// windowKeys are the host keys for CHIP-8 keys 0x0-0xF, as KEY_ORDER.
var windowKeys = [len(KEY_ORDER)]ebiten.Key{
	ebiten.KeyX, ebiten.KeyDigit1, ebiten.KeyDigit2, ebiten.KeyDigit3,
	ebiten.KeyQ, ebiten.KeyW, ebiten.KeyE, ebiten.KeyA,
	ebiten.KeyS, ebiten.KeyD, ebiten.KeyZ, ebiten.KeyC,
	ebiten.KeyDigit4, ebiten.KeyR, ebiten.KeyF, ebiten.KeyV,
}

var (
	colorOn  = color.Gray{Y: 0xff}
	colorOff = color.Gray{Y: 0x00}
	colorBuz = color.RGBA{R: 0xff, G: 0x40, B: 0x40, A: 0xff}
)

// keyMask returns the keypad state for the host keys held.
func keyMask(pressed func(ebiten.Key) bool) (mask uint16) {
	for n, key := range windowKeys {
		if pressed(key) {
			mask |= 1 << n
		}
	}

	return
}

// Window runs an emulator in a desktop window. Escape or closing the
// window calls Cancel.
type Window struct {
	Emulator *emulator.Emulator
	Title    string
	Scale    int
	Cancel   context.CancelFunc

	screen *ebiten.Image
	pixels []byte
	last   *display.Frame
}

// Update implements ebiten.Game.
func (win *Window) Update() error {
	if ebiten.IsWindowBeingClosed() || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		if win.Cancel != nil {
			win.Cancel()
		}
		return ebiten.Termination
	}

	win.Emulator.Keypad.Set(keyMask(ebiten.IsKeyPressed))

	return nil
}

// fill renders frame as RGBA pixels.
func (win *Window) fill(frame *display.Frame) {
	if len(win.pixels) != display.WIDTH*display.HEIGHT*4 {
		win.pixels = make([]byte, display.WIDTH*display.HEIGHT*4)
	}

	for y := range display.HEIGHT {
		for x := range display.WIDTH {
			c := colorOff
			if frame[y][x] {
				c = colorOn
			}
			offset := (y*display.WIDTH + x) * 4
			win.pixels[offset+0] = c.Y
			win.pixels[offset+1] = c.Y
			win.pixels[offset+2] = c.Y
			win.pixels[offset+3] = 0xff
		}
	}
}

// Draw implements ebiten.Game.
func (win *Window) Draw(screen *ebiten.Image) {
	if win.screen == nil {
		win.screen = ebiten.NewImage(display.WIDTH, display.HEIGHT)
	}

	frame := win.Emulator.Frame()
	if frame != win.last {
		win.fill(frame)
		win.screen.WritePixels(win.pixels)
		win.last = frame
	}

	opts := &ebiten.DrawImageOptions{}
	opts.GeoM.Scale(float64(win.scale()), float64(win.scale()))
	screen.DrawImage(win.screen, opts)

	if win.Emulator.Buzzer() {
		text.Draw(screen, "BEEP", basicfont.Face7x13, 4, 13, colorBuz)
	}
}

// Layout implements ebiten.Game.
func (win *Window) Layout(_, _ int) (int, int) {
	return display.WIDTH * win.scale(), display.HEIGHT * win.scale()
}

func (win *Window) scale() int {
	if win.Scale <= 0 {
		return WINDOW_SCALE
	}
	return win.Scale
}

// Run the window until it is closed. Must be called from the main goroutine.
func (win *Window) Run() (err error) {
	title := win.Title
	if len(title) == 0 {
		title = "CHIP-8"
	}

	ebiten.SetWindowSize(win.Layout(0, 0))
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizable(true)
	ebiten.SetWindowClosingHandled(true)
	ebiten.SetTPS(emulator.FRAME_RATE)

	if win.Emulator.Verbose {
		log.Print(f("window: %v at %vx", title, win.scale()))
	}

	err = ebiten.RunGame(win)

	return
}
