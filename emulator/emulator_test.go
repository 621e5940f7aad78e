package emulator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/memory"
)

func TestEmulator(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()

	assert.False(emu.Verbose)
	assert.Equal(CYCLES_PER_SECOND, emu.CyclesPerSecond)
	assert.NotNil(emu.Cpu.Keyboard)
	if assert.NotNil(emu.Frame()) {
		assert.Equal(0, emu.Frame().Lit())
	}

	defines := map[string]string{}
	for key, value := range emu.Defines() {
		defines[key] = value
	}
	assert.Equal("700", defines["CYCLES_PER_SECOND"])
	assert.Equal("0x200", defines["PROGRAM_BASE"])
	assert.Equal("16", defines["STACK_LIMIT"])
}

func doAssemble(emu *Emulator, program []string, t *testing.T) {
	asm := emu.Assembler()
	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	if err != nil {
		t.Fatal(err)
	}

	err = emu.LoadProgram(prog)
	if err != nil {
		t.Fatal(err)
	}
}

func doRunSingle(emu *Emulator, program []string, t *testing.T) {
	assert := assert.New(t)

	doAssemble(emu, program, t)

	for _, op := range emu.Program.Opcodes {
		if op.Data {
			continue
		}
		here := program[op.LineNo-1]
		assert.Equal(op.LineNo, emu.LineNo(), here)
		assert.Equal(uint16(op.Address), emu.Cpu.Pc, here)
		err := emu.Tick(context.Background())
		if err != nil {
			t.Log(emu.Dump())
			t.Fatalf("%v", err)
		}
	}
}

func TestEmulatorRegisters(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()

	program := []string{
		"ld v0, 0x10",
		"ld v1, $(0x10 * 2)",
		"ld v2, v1",
		"add v2, v0",
		"ld v3, $(LINENO * 0x10)",
		"ld i, $(PROGRAM_BASE + 0x100)",
		"ld [i], v3",
		"ld v0, 0",
		"ld v3, [i]",
	}

	doRunSingle(emu, program, t)

	assert.Equal(uint8(0x10), emu.Cpu.V[0])
	assert.Equal(uint8(0x20), emu.Cpu.V[1])
	assert.Equal(uint8(0x30), emu.Cpu.V[2])
	assert.Equal(uint8(0x50), emu.Cpu.V[3])
	assert.Equal(uint16(0x300), emu.Cpu.I)
	assert.Equal(9, emu.Ticks())
}

func TestEmulatorMacro(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	program := []string{
		".macro SETADD vn a b",
		"ld vn, a",
		"add vn, b",
		".endm",
		"SETADD v0 8 8",
		".equ CONST_10 0x10",
		"SETADD v1 CONST_10 CONST_10",
		"SETADD v2 $(CONST_10 + CONST_10) v0",
		"SETADD v3 0x20 0x20",
	}

	asm := emu.Assembler()
	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	err = emu.LoadProgram(prog)
	assert.NoError(err)

	err = emu.Step(context.Background(), len(prog.Opcodes))
	assert.NoError(err)

	assert.Equal(uint8(0x10), emu.Cpu.V[0])
	assert.Equal(uint8(0x20), emu.Cpu.V[1])
	assert.Equal(uint8(0x30), emu.Cpu.V[2])
	assert.Equal(uint8(0x40), emu.Cpu.V[3])
}

func TestEmulatorLabel(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	program := []string{
		"jp R0",
		"AddOneToV0:",
		"add v0, 1",
		"ret",
		"R1: ld v1, 0x20",
		"jp R2",
		"R0: AND_ALSO:",
		"ld v0, 0x10",
		"jp R1",
		"R2:",
		"call AddOneToV0",
		"call AddOneToV0",
		"",
		"ld v2, 0x30",
		"ld v3, 0x40",
		"DONE: jp DONE",
	}

	doAssemble(emu, program, t)

	err := emu.Step(context.Background(), 16)
	assert.NoError(err)

	assert.Equal(uint8(0x12), emu.Cpu.V[0])
	assert.Equal(uint8(0x20), emu.Cpu.V[1])
	assert.Equal(uint8(0x30), emu.Cpu.V[2])
	assert.Equal(uint8(0x40), emu.Cpu.V[3])
	assert.Equal(16, emu.LineNo())
}

func TestEmulatorDraw(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	program := []string{
		"cls",
		"ld v0, 10",
		"ld i, sprite",
		"drw v0, v0, 1",
		"DONE: jp DONE",
		"sprite: .byte 0x80",
	}

	doAssemble(emu, program, t)

	first := emu.Frame()
	err := emu.Step(context.Background(), 4)
	assert.NoError(err)

	frame := emu.Frame()
	assert.NotSame(first, frame)
	assert.True(frame.Pixel(10, 10))
	assert.Equal(1, frame.Lit())
	assert.Equal(0, first.Lit())

	// Nothing drawn, nothing published.
	err = emu.Step(context.Background(), 10)
	assert.NoError(err)
	assert.Same(frame, emu.Frame())
}

func TestEmulatorRom(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	err := emu.Load([]byte{0x00, 0xe0, 0x60, 0x0a, 0xa2, 0x50, 0xd0, 0x05})
	assert.NoError(err)
	assert.Nil(emu.Program)
	assert.Equal(0, emu.LineNo())

	err = emu.Step(context.Background(), 4)
	assert.NoError(err)
	assert.Equal(uint16(0x208), emu.Cpu.Pc)

	err = emu.Load(make([]byte, memory.PROGRAM_SIZE+1))
	assert.ErrorIs(err, memory.ErrProgramSize)
}

func TestEmulatorReset(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	doAssemble(emu, []string{"ld v0, 1", "ld v1, 2"}, t)

	err := emu.Step(context.Background(), 2)
	assert.NoError(err)
	emu.Keypad.Press(4)

	err = emu.Reset()
	assert.NoError(err)
	assert.Equal(uint8(0), emu.Cpu.V[0])
	assert.Equal(uint16(memory.PROGRAM_BASE), emu.Cpu.Pc)
	assert.False(emu.Keypad.Pressed(4))

	// The ROM survives a reset.
	word, err := emu.Cpu.Fetch()
	assert.NoError(err)
	assert.Equal(uint16(0x6001), word)
}

func TestEmulatorErrRuntime(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	program := []string{
		"ld v0, 1",
		"",
		"ret",
	}

	doAssemble(emu, program, t)

	err := emu.Step(context.Background(), 2)
	assert.ErrorIs(err, cpu.ErrStackUnderflow)

	var er *ErrRuntime
	if assert.True(errors.As(err, &er)) {
		assert.Equal(3, er.LineNo)
		assert.Equal(uint16(0x202), er.Address)
		assert.Equal(uint16(0x00ee), er.Word)
	}
	assert.Contains(emu.Dump(), "stack: ---")
}

func TestEmulatorRun(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	emu.CyclesPerSecond = 600
	program := []string{
		"ld v0, 0xff",
		"ld dt, v0",
		"LOOP: add v1, 1",
		"jp LOOP",
	}

	doAssemble(emu, program, t)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := emu.Run(ctx)
	assert.NoError(err)
	assert.Greater(emu.Ticks(), 10)
	assert.Less(emu.Cpu.Delay.Get(), uint8(0xff))
}

func TestEmulatorRunRestart(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	emu.CyclesPerSecond = 600
	program := []string{
		"ld v0, 0xff",
		"ld dt, v0",
		"LOOP: jp LOOP",
	}

	doAssemble(emu, program, t)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	err := emu.Run(ctx)
	cancel()
	assert.NoError(err)

	emu.Reset()
	assert.Equal(uint8(0), emu.Cpu.Delay.Get())

	// The timers count down again on the second run.
	ctx, cancel = context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	err = emu.Run(ctx)
	assert.NoError(err)
	assert.Less(emu.Cpu.Delay.Get(), uint8(0xff))
	assert.Greater(emu.Cpu.Delay.Get(), uint8(0))
}

func TestEmulatorRunFault(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	err := emu.Load([]byte{0x00, 0x00})
	assert.NoError(err)

	err = emu.Run(context.Background())
	assert.ErrorIs(err, cpu.ErrInvalidInstruction)
}

func TestEmulatorRunWaitKey(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	err := emu.Load([]byte{0xf0, 0x0a})
	assert.NoError(err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	// Cancelled while waiting for a key is a clean exit.
	err = emu.Run(ctx)
	assert.NoError(err)
	assert.Equal(uint16(memory.PROGRAM_BASE), emu.Cpu.Pc)
}
