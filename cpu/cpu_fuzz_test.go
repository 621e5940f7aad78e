package cpu

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/chip8/io"
	"github.com/ezrec/chip8/memory"
)

func FuzzCpu(f *testing.F) {
	for rv := range 0x10 {
		f.Add(uint16(rv<<12), uint8(rv), uint8(0xff-rv), uint16(0x300), rv&1 == 1)
		f.Add(uint16(rv<<12|0xfff), uint8(0), uint8(0xff), uint16(0xffe), rv&1 == 0)
	}

	f.Fuzz(func(t *testing.T, word uint16, vx uint8, vy uint8, index uint16, stack bool) {
		assert := assert.New(t)

		keypad := &io.Keypad{}
		keypad.Press(3)

		cpu := NewCpu(keypad)
		err := cpu.Memory.LoadProgram([]byte{byte(word >> 8), byte(word)})
		if err != nil {
			t.Fatal(err)
		}
		for n := range cpu.V {
			cpu.V[n] = vx + uint8(n)*vy
		}
		cpu.I = index & 0xfff
		if stack {
			cpu.Stack.Push(0x2aa)
		}

		inst := Decode(word)
		pre_ticks := cpu.Ticks
		pre_v0 := cpu.V[0]
		pre_i := cpu.I

		ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
		defer cancel()

		err = cpu.Tick(ctx)

		code_str := fmt.Sprintf("0x%04x (%v)\ncpu:%v", word, inst, cpu.String())

		if err != nil {
			assert.ErrorIs(err, ErrOpcode{}, code_str)
			assert.Equal(pre_ticks, cpu.Ticks, code_str)
			switch {
			case errors.Is(err, ErrInvalidInstruction):
				assert.Equal(OP_INVALID, inst.Op, code_str)
			case errors.Is(err, ErrStackUnderflow):
				assert.Equal(OP_RET, inst.Op, code_str)
				assert.False(stack, code_str)
			case errors.Is(err, memory.ErrOutOfRange):
				switch inst.Op {
				case OP_DRW, OP_LD_B, OP_LD_MEM_VX, OP_LD_VX_MEM:
					// expected error
				default:
					assert.NoError(err, code_str)
				}
			default:
				assert.NoError(err, code_str)
			}
			return
		}

		assert.Equal(pre_ticks+1, cpu.Ticks, code_str)

		next := uint16(memory.PROGRAM_BASE + 2)
		switch inst.Op {
		case OP_JP, OP_CALL:
			next = inst.Addr
		case OP_JP_V0:
			next = inst.Addr + uint16(pre_v0)
		case OP_RET:
			next = 0x2aa
		case OP_SE_BYTE, OP_SNE_BYTE, OP_SE_REG, OP_SNE_REG, OP_SKP, OP_SKNP:
			if cpu.Pc == next+2 {
				next += 2
			}
		case OP_LD_VX_K:
			assert.Equal(uint8(3), cpu.V[inst.X], code_str)
		}
		assert.Equal(next, cpu.Pc, code_str)

		switch inst.Op {
		case OP_ADD_REG, OP_SUB, OP_SUBN, OP_SHR, OP_SHL, OP_DRW:
			if inst.X != REGISTER_FLAG {
				assert.LessOrEqual(cpu.V[REGISTER_FLAG], uint8(1), code_str)
			}
		case OP_LD_MEM_VX, OP_LD_VX_MEM, OP_LD_B:
			assert.Equal(pre_i, cpu.I, code_str)
		}
	})
}
