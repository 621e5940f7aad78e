// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"
	"sync/atomic"
	"time"

	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/display"
	"github.com/ezrec/chip8/internal"
	"github.com/ezrec/chip8/io"
)

const (
	CYCLES_PER_SECOND = 700 // Default instruction rate.
	FRAME_RATE        = 60  // Display and timer rate, in Hz.
)

var _emulator_defines = map[string]string{
	"CYCLES_PER_SECOND": fmt.Sprintf("%v", CYCLES_PER_SECOND),
	"FRAME_RATE":        fmt.Sprintf("%v", FRAME_RATE),
}

// Emulator state. CPU + keypad + published display.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Listing of the running program, if assembled.
	Rom      []byte       // Image loaded at PROGRAM_BASE on reset.
	Keypad   io.Keypad    // Host key state.

	CyclesPerSecond int // Instruction rate for Run.

	frame      atomic.Pointer[display.Frame]
	generation uint64
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		CyclesPerSecond: CYCLES_PER_SECOND,
	}
	emu.Cpu = cpu.NewCpu(&emu.Keypad)
	emu.publish()

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		emu.Cpu.Defines(),
	)
}

// Assembler returns an assembler with the emulator defines predefined.
func (emu *Emulator) Assembler() (asm *cpu.Assembler) {
	asm = &cpu.Assembler{Verbose: emu.Verbose}
	for equ, value := range emu.Defines() {
		asm.Predefine(equ, value)
	}

	return
}

// Load a ROM image, and reset the machine.
func (emu *Emulator) Load(rom []byte) (err error) {
	emu.Program = nil
	emu.Rom = rom

	err = emu.Reset()

	return
}

// LoadProgram loads an assembled program, and resets the machine.
func (emu *Emulator) LoadProgram(prog *cpu.Program) (err error) {
	err = emu.Load(prog.Binary())
	if err != nil {
		return
	}

	emu.Program = prog

	return
}

// Reset the machine to power-on state, with the ROM loaded.
func (emu *Emulator) Reset() (err error) {
	emu.Cpu.Verbose = emu.Verbose

	emu.Cpu.Reset()
	emu.Keypad.Set(0)

	err = emu.Cpu.Memory.LoadProgram(emu.Rom)
	if err != nil {
		return
	}

	emu.publish()

	return
}

// Ticks returns the total instructions executed since a reset.
func (emu *Emulator) Ticks() int {
	return emu.Cpu.Ticks
}

// LineNo returns the source line number for the instruction at the
// program counter, or 0 if unknown.
func (emu *Emulator) LineNo() int {
	if emu.Program == nil {
		return 0
	}

	dbg := emu.Program.Debug(emu.Cpu.Pc)
	if dbg.Opcode == nil {
		return 0
	}

	return dbg.LineNo
}

// Buzzer reports whether the sound timer is active.
func (emu *Emulator) Buzzer() bool {
	return emu.Cpu.Sound.Get() > 0
}

// Frame returns the most recently published display snapshot.
func (emu *Emulator) Frame() *display.Frame {
	return emu.frame.Load()
}

// publish a snapshot of the display, if it has changed.
func (emu *Emulator) publish() {
	generation := emu.Cpu.Display.Generation()
	if emu.frame.Load() != nil && generation == emu.generation {
		return
	}

	frame := emu.Cpu.Display.Snapshot()
	emu.frame.Store(&frame)
	emu.generation = generation
}

// Tick performs a single instruction cycle of the emulator.
func (emu *Emulator) Tick(ctx context.Context) (err error) {
	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	address := emu.Cpu.Pc
	lineno := emu.LineNo()
	defer func() {
		if err != nil {
			err = &ErrRuntime{Address: address, Word: emu.Cpu.Opcode, LineNo: lineno, Err: err}
		}
	}()

	err = emu.Cpu.Tick(ctx)

	return
}

// Step runs count instruction cycles, and publishes the display.
func (emu *Emulator) Step(ctx context.Context, count int) (err error) {
	defer emu.publish()

	for range count {
		err = emu.Tick(ctx)
		if err != nil {
			return
		}
	}

	return
}

// Run the emulator at CyclesPerSecond, publishing the display at FRAME_RATE,
// until ctx is done. Returns nil when ctx ends, or the first fault.
func (emu *Emulator) Run(ctx context.Context) (err error) {
	batch := max(1, emu.CyclesPerSecond/FRAME_RATE)

	if emu.Verbose {
		log.Print(f("emulator: running %v cycles per frame", batch))
	}

	emu.Cpu.Start(ctx)

	ticker := time.NewTicker(time.Second / FRAME_RATE)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		err = emu.Step(ctx, batch)
		if err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				err = nil
			}
			return
		}
	}
}

// Dump returns the machine state, with the source line if known.
func (emu *Emulator) Dump() (text string) {
	text = emu.Cpu.String()

	if emu.Program == nil {
		return
	}

	dbg := emu.Program.Debug(emu.Cpu.Pc)
	if dbg.Opcode != nil {
		text += fmt.Sprintf("% 5s: %d %v\n", "line", dbg.LineNo, dbg.Words)
	}

	return
}
