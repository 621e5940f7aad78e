package cpu

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"
	"math/rand/v2"
	"time"

	"github.com/ezrec/chip8/display"
	"github.com/ezrec/chip8/internal"
	"github.com/ezrec/chip8/memory"
	"github.com/ezrec/chip8/timer"
)

const (
	REGISTER_COUNT = 16 // V0-VF
	REGISTER_FLAG  = 0xf
)

var _cpu_defines = map[string]string{
	"STACK_LIMIT":    fmt.Sprintf("%v", STACK_LIMIT),
	"REGISTER_COUNT": fmt.Sprintf("%v", REGISTER_COUNT),
}

// Cpu is the simulation context for one CHIP-8 machine.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.
	Lenient bool // Set to skip, rather than fault on, invalid instructions.

	Pc    uint16                // Program counter.
	I     uint16                // Index register.
	V     [REGISTER_COUNT]uint8 // Register bank; VF doubles as the flag.
	Stack Stack                 // Return addresses.

	Memory  *memory.Memory   // Address space.
	Display *display.Display // Framebuffer.
	Delay   timer.Timer      // Delay timer.
	Sound   timer.Timer      // Sound timer.

	Keyboard Keyboard   // Key state provider.
	Rand     *rand.Rand // Source for RND.

	Opcode uint16 // Last fetched instruction word.
	Ticks  int    // Instructions executed since reset.
}

// NewCpu creates a powered-on CPU reading keys from keyboard.
func NewCpu(keyboard Keyboard) (cpu *Cpu) {
	seed := uint64(time.Now().UnixNano())
	cpu = &Cpu{
		Memory:   memory.New(),
		Display:  &display.Display{},
		Keyboard: keyboard,
		Rand:     rand.New(rand.NewPCG(seed, seed>>32)),
	}

	cpu.Reset()

	return
}

// Defines for the cpu, memory map and display.
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_cpu_defines),
		cpu.Memory.Defines(),
		cpu.Display.Defines(),
	)
}

// Reset the CPU to its power-on state.
// - Clears the registers, stack, timers and display.
// - Zero-fills memory and reloads the font.
// - Points the program counter at PROGRAM_BASE.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Print(f("cpu: reset"))
	}

	clear(cpu.V[:])
	cpu.I = 0
	cpu.Pc = memory.PROGRAM_BASE
	cpu.Stack.Reset()
	cpu.Memory.Reset()
	cpu.Display.Clear()
	cpu.Delay.Set(0)
	cpu.Sound.Set(0)
	cpu.Opcode = 0
	cpu.Ticks = 0
}

// Start the delay and sound timers. They run until ctx is done.
func (cpu *Cpu) Start(ctx context.Context) {
	cpu.Delay.Start(ctx)
	cpu.Sound.Start(ctx)
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	text += fmt.Sprintf("% 5s: %03X\n", "pc", cpu.Pc)
	text += fmt.Sprintf("% 5s: %04X\n", "i", cpu.I)
	text += fmt.Sprintf("% 5s: %d\n", "sp", len(cpu.Stack.Data))
	text += fmt.Sprintf("% 5s: %02X\n", "dt", cpu.Delay.Get())
	text += fmt.Sprintf("% 5s: %02X\n", "st", cpu.Sound.Get())
	for n, val := range cpu.V {
		text += fmt.Sprintf("% 5s: %02X\n", fmt.Sprintf("v%X", n), val)
	}
	var stack string
	for n := len(cpu.Stack.Data) - 1; n >= 0; n-- {
		stack += fmt.Sprintf(" %03X", cpu.Stack.Data[n])
	}
	if len(stack) == 0 {
		stack = " ---"
	}
	text += fmt.Sprintf("% 5s:%v\n", "stack", stack)

	return
}

// Fetch reads the instruction word at the program counter, and advances it.
func (cpu *Cpu) Fetch() (word uint16, err error) {
	hi, err := cpu.Memory.Read(cpu.Pc)
	if err != nil {
		return
	}
	lo, err := cpu.Memory.Read(cpu.Pc + 1)
	if err != nil {
		return
	}

	word = uint16(hi)<<8 | uint16(lo)
	cpu.Opcode = word
	cpu.Pc += 2

	return
}

// Tick executes a single fetch, decode, execute cycle.
func (cpu *Cpu) Tick(ctx context.Context) (err error) {
	word, err := cpu.Fetch()
	if err != nil {
		return
	}

	err = cpu.Execute(ctx, Decode(word))

	return
}

// setFlag stores a boolean in VF.
func (cpu *Cpu) setFlag(flag bool) {
	if flag {
		cpu.V[REGISTER_FLAG] = 1
	} else {
		cpu.V[REGISTER_FLAG] = 0
	}
}

// skip advances past the next instruction when cond holds.
func (cpu *Cpu) skip(cond bool) {
	if cond {
		cpu.Pc += 2
	}
}

// Execute executes a single decoded instruction. The program counter has
// already been advanced past it.
//
// Where an instruction sets both VF and Vx, VF is written first: with
// x == 0xF the result, not the flag, is left in VF.
func (cpu *Cpu) Execute(ctx context.Context, inst Instruction) (err error) {
	defer func() {
		if err != nil {
			word, eerr := inst.Encode()
			if eerr != nil {
				word = cpu.Opcode
			}
			err = errors.Join(ErrOpcode{Word: word, Instruction: inst}, err)
		}
	}()

	if cpu.Verbose {
		log.Printf("%03x: %v", cpu.Pc-2, inst)
	}

	if !inst.Valid() {
		if cpu.Lenient && inst.Op == OP_INVALID {
			if cpu.Verbose {
				log.Print(f("cpu: skipping invalid instruction 0x%04x", cpu.Opcode))
			}
			cpu.Ticks++
			return
		}
		err = ErrInvalidInstruction
		return
	}

	v := &cpu.V
	x, y := inst.X, inst.Y

	switch inst.Op {
	case OP_CLS:
		cpu.Display.Clear()
	case OP_RET:
		var pc uint16
		pc, err = cpu.Stack.Pop()
		if err != nil {
			return
		}
		cpu.Pc = pc
	case OP_JP:
		cpu.Pc = inst.Addr
	case OP_CALL:
		err = cpu.Stack.Push(cpu.Pc)
		if err != nil {
			return
		}
		cpu.Pc = inst.Addr
	case OP_SE_BYTE:
		cpu.skip(v[x] == inst.Byte)
	case OP_SNE_BYTE:
		cpu.skip(v[x] != inst.Byte)
	case OP_SE_REG:
		cpu.skip(v[x] == v[y])
	case OP_SNE_REG:
		cpu.skip(v[x] != v[y])
	case OP_LD_BYTE:
		v[x] = inst.Byte
	case OP_ADD_BYTE:
		v[x] += inst.Byte
	case OP_LD_REG:
		v[x] = v[y]
	case OP_OR:
		v[x] |= v[y]
	case OP_AND:
		v[x] &= v[y]
	case OP_XOR:
		v[x] ^= v[y]
	case OP_ADD_REG:
		sum := uint16(v[x]) + uint16(v[y])
		cpu.setFlag(sum > 0xff)
		v[x] = uint8(sum)
	case OP_SUB:
		a, b := v[x], v[y]
		cpu.setFlag(a >= b)
		v[x] = a - b
	case OP_SUBN:
		a, b := v[x], v[y]
		cpu.setFlag(b >= a)
		v[x] = b - a
	case OP_SHR:
		a := v[x]
		cpu.setFlag(a&0x01 != 0)
		v[x] = a >> 1
	case OP_SHL:
		a := v[x]
		cpu.setFlag(a&0x80 != 0)
		v[x] = a << 1
	case OP_LD_I:
		cpu.I = inst.Addr
	case OP_JP_V0:
		cpu.Pc = inst.Addr + uint16(v[0])
	case OP_RND:
		v[x] = uint8(cpu.Rand.UintN(256)) & inst.Byte
	case OP_DRW:
		var sprite []byte
		sprite, err = cpu.Memory.Sprite(cpu.I, int(inst.N))
		if err != nil {
			return
		}
		cpu.setFlag(cpu.Display.Draw(int(v[x]), int(v[y]), sprite))
	case OP_SKP, OP_SKNP:
		if cpu.Keyboard == nil {
			err = ErrKeyboardMissing
			return
		}
		pressed := cpu.Keyboard.Pressed(v[x] & 0xf)
		cpu.skip(pressed == (inst.Op == OP_SKP))
	case OP_LD_VX_K:
		if cpu.Keyboard == nil {
			err = ErrKeyboardMissing
			return
		}
		var key uint8
		key, err = cpu.Keyboard.WaitKey(ctx)
		if err != nil {
			// Re-execute once the host resumes.
			cpu.Pc -= 2
			return
		}
		v[x] = key
	case OP_LD_VX_DT:
		v[x] = cpu.Delay.Get()
	case OP_LD_DT_VX:
		cpu.Delay.Set(v[x])
	case OP_LD_ST_VX:
		cpu.Sound.Set(v[x])
	case OP_ADD_I:
		cpu.I += uint16(v[x])
	case OP_LD_F:
		cpu.I = memory.Glyph(v[x])
	case OP_LD_B:
		value := v[x]
		digits := [3]uint8{value / 100, (value / 10) % 10, value % 10}
		for n, digit := range digits {
			err = cpu.Memory.Write(cpu.I+uint16(n), digit)
			if err != nil {
				return
			}
		}
	case OP_LD_MEM_VX:
		for n := range x + 1 {
			err = cpu.Memory.Write(cpu.I+uint16(n), v[n])
			if err != nil {
				return
			}
		}
	case OP_LD_VX_MEM:
		for n := range x + 1 {
			var value uint8
			value, err = cpu.Memory.Read(cpu.I + uint16(n))
			if err != nil {
				return
			}
			v[n] = value
		}
	default:
		err = ErrInvalidInstruction
		return
	}

	cpu.Ticks++

	return
}
