package frontend

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/ezrec/chip8/display"
	"github.com/ezrec/chip8/emulator"
)

const (
	KEY_HOLD   = 150 * time.Millisecond // Terminals report taps, not releases.
	CTRL_C     = 0x03
	ESCAPE     = 0x1b
	HOME_CLEAR = "\x1b[H\x1b[2J"
	HOME       = "\x1b[H"
)

// Terminal runs an emulator on a text terminal: raw mode key taps in,
// half-block frames out.
type Terminal struct {
	Emulator *emulator.Emulator
	In       io.Reader // Defaults to os.Stdin.
	Out      io.Writer // Defaults to os.Stdout.
	Hold     time.Duration

	mutex   sync.Mutex
	release [len(KEY_ORDER)]*time.Timer
	last    *display.Frame
}

// press taps key, releasing it after Hold unless it is tapped again.
func (tm *Terminal) press(key uint8) {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	hold := tm.Hold
	if hold == 0 {
		hold = KEY_HOLD
	}

	tm.Emulator.Keypad.Press(key)

	if tm.release[key] != nil {
		tm.release[key].Reset(hold)
		return
	}
	tm.release[key] = time.AfterFunc(hold, func() {
		tm.Emulator.Keypad.Release(key)
	})
}

// input handles one byte from the terminal, returning false on quit.
func (tm *Terminal) input(b byte) bool {
	switch b {
	case CTRL_C, ESCAPE:
		return false
	}

	key, ok := KeyOf(rune(b))
	if ok {
		tm.press(key)
	}

	return true
}

// render writes the current frame if it has changed.
func (tm *Terminal) render(w io.Writer) (err error) {
	frame := tm.Emulator.Frame()
	if frame == tm.last {
		return
	}
	tm.last = frame

	_, err = fmt.Fprint(w, HOME+frame.HalfBlocks("\r\n"))

	return
}

// Run reads keys and renders frames until ctx is done, or the user quits
// with Ctrl-C or Escape, which calls cancel.
func (tm *Terminal) Run(ctx context.Context, cancel context.CancelFunc) (err error) {
	in := tm.In
	if in == nil {
		in = os.Stdin
	}
	out := tm.Out
	if out == nil {
		out = os.Stdout
	}

	if file, ok := in.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		var state *term.State
		state, err = term.MakeRaw(int(file.Fd()))
		if err != nil {
			return
		}
		defer term.Restore(int(file.Fd()), state)
	}

	go func() {
		defer cancel()
		buf := make([]byte, 16)
		for {
			n, err := in.Read(buf)
			for _, b := range buf[:n] {
				if !tm.input(b) {
					return
				}
			}
			if err != nil {
				if tm.Emulator.Verbose {
					log.Print(f("terminal: %v", err))
				}
				return
			}
		}
	}()

	_, err = fmt.Fprint(out, HOME_CLEAR)
	if err != nil {
		return
	}

	ticker := time.NewTicker(time.Second / emulator.FRAME_RATE)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err = tm.render(out)
			if err != nil {
				return
			}
		}
	}
}
