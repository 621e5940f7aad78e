package cpu

import (
	"fmt"
)

// Op identifies a CHIP-8 instruction family.
type Op int

//go:generate go tool stringer -linecomment -type=Op
const (
	OP_INVALID   = Op(0)  // invalid
	OP_CLS       = Op(1)  // cls
	OP_RET       = Op(2)  // ret
	OP_JP        = Op(3)  // jp
	OP_CALL      = Op(4)  // call
	OP_SE_BYTE   = Op(5)  // se
	OP_SNE_BYTE  = Op(6)  // sne
	OP_SE_REG    = Op(7)  // se
	OP_LD_BYTE   = Op(8)  // ld
	OP_ADD_BYTE  = Op(9)  // add
	OP_LD_REG    = Op(10) // ld
	OP_OR        = Op(11) // or
	OP_AND       = Op(12) // and
	OP_XOR       = Op(13) // xor
	OP_ADD_REG   = Op(14) // add
	OP_SUB       = Op(15) // sub
	OP_SHR       = Op(16) // shr
	OP_SUBN      = Op(17) // subn
	OP_SHL       = Op(18) // shl
	OP_SNE_REG   = Op(19) // sne
	OP_LD_I      = Op(20) // ld
	OP_JP_V0     = Op(21) // jp
	OP_RND       = Op(22) // rnd
	OP_DRW       = Op(23) // drw
	OP_SKP       = Op(24) // skp
	OP_SKNP      = Op(25) // sknp
	OP_LD_VX_DT  = Op(26) // ld
	OP_LD_VX_K   = Op(27) // ld
	OP_LD_DT_VX  = Op(28) // ld
	OP_LD_ST_VX  = Op(29) // ld
	OP_ADD_I     = Op(30) // add
	OP_LD_F      = Op(31) // ld
	OP_LD_B      = Op(32) // ld
	OP_LD_MEM_VX = Op(33) // ld
	OP_LD_VX_MEM = Op(34) // ld
)

// Instruction is a decoded instruction word. Op selects the variant; only
// the operand fields that variant uses are non-zero.
type Instruction struct {
	Op   Op
	X    uint8  // Register index from bits 8-11.
	Y    uint8  // Register index from bits 4-7.
	N    uint8  // 4-bit immediate from bits 0-3.
	Byte uint8  // 8-bit immediate from bits 0-7.
	Addr uint16 // 12-bit address from bits 0-11.
}

// Valid returns false for OP_INVALID, or for operand fields wider than
// their encoding allows.
func (inst Instruction) Valid() bool {
	if inst.Op <= OP_INVALID || inst.Op > OP_LD_VX_MEM {
		return false
	}
	return inst.X <= 0xf && inst.Y <= 0xf && inst.N <= 0xf && inst.Addr <= 0xfff
}

// Encode returns the instruction word. Decode(word) yields inst again.
func (inst Instruction) Encode() (word uint16, err error) {
	if !inst.Valid() {
		err = ErrOpcode{Instruction: inst}
		return
	}

	x := uint16(inst.X) << 8
	y := uint16(inst.Y) << 4
	kk := uint16(inst.Byte)
	nnn := inst.Addr

	switch inst.Op {
	case OP_CLS:
		word = 0x00e0
	case OP_RET:
		word = 0x00ee
	case OP_JP:
		word = 0x1000 | nnn
	case OP_CALL:
		word = 0x2000 | nnn
	case OP_SE_BYTE:
		word = 0x3000 | x | kk
	case OP_SNE_BYTE:
		word = 0x4000 | x | kk
	case OP_SE_REG:
		word = 0x5000 | x | y
	case OP_LD_BYTE:
		word = 0x6000 | x | kk
	case OP_ADD_BYTE:
		word = 0x7000 | x | kk
	case OP_LD_REG:
		word = 0x8000 | x | y | 0x0
	case OP_OR:
		word = 0x8000 | x | y | 0x1
	case OP_AND:
		word = 0x8000 | x | y | 0x2
	case OP_XOR:
		word = 0x8000 | x | y | 0x3
	case OP_ADD_REG:
		word = 0x8000 | x | y | 0x4
	case OP_SUB:
		word = 0x8000 | x | y | 0x5
	case OP_SHR:
		word = 0x8000 | x | y | 0x6
	case OP_SUBN:
		word = 0x8000 | x | y | 0x7
	case OP_SHL:
		word = 0x8000 | x | y | 0xe
	case OP_SNE_REG:
		word = 0x9000 | x | y
	case OP_LD_I:
		word = 0xa000 | nnn
	case OP_JP_V0:
		word = 0xb000 | nnn
	case OP_RND:
		word = 0xc000 | x | kk
	case OP_DRW:
		word = 0xd000 | x | y | uint16(inst.N)
	case OP_SKP:
		word = 0xe09e | x
	case OP_SKNP:
		word = 0xe0a1 | x
	case OP_LD_VX_DT:
		word = 0xf007 | x
	case OP_LD_VX_K:
		word = 0xf00a | x
	case OP_LD_DT_VX:
		word = 0xf015 | x
	case OP_LD_ST_VX:
		word = 0xf018 | x
	case OP_ADD_I:
		word = 0xf01e | x
	case OP_LD_F:
		word = 0xf029 | x
	case OP_LD_B:
		word = 0xf033 | x
	case OP_LD_MEM_VX:
		word = 0xf055 | x
	case OP_LD_VX_MEM:
		word = 0xf065 | x
	}

	return
}

// String returns the assembly language form of the instruction.
func (inst Instruction) String() (out string) {
	op := inst.Op.String()
	vx := fmt.Sprintf("v%x", inst.X)
	vy := fmt.Sprintf("v%x", inst.Y)
	kk := fmt.Sprintf("0x%02x", inst.Byte)
	nnn := fmt.Sprintf("0x%03x", inst.Addr)

	switch inst.Op {
	case OP_INVALID:
		out = op
	case OP_CLS, OP_RET:
		out = op
	case OP_JP, OP_CALL:
		out = fmt.Sprintf("%v %v", op, nnn)
	case OP_SE_BYTE, OP_SNE_BYTE, OP_LD_BYTE, OP_ADD_BYTE, OP_RND:
		out = fmt.Sprintf("%v %v, %v", op, vx, kk)
	case OP_SE_REG, OP_SNE_REG, OP_LD_REG, OP_OR, OP_AND, OP_XOR,
		OP_ADD_REG, OP_SUB, OP_SHR, OP_SUBN, OP_SHL:
		out = fmt.Sprintf("%v %v, %v", op, vx, vy)
	case OP_LD_I:
		out = fmt.Sprintf("%v i, %v", op, nnn)
	case OP_JP_V0:
		out = fmt.Sprintf("%v v0, %v", op, nnn)
	case OP_DRW:
		out = fmt.Sprintf("%v %v, %v, %d", op, vx, vy, inst.N)
	case OP_SKP, OP_SKNP:
		out = fmt.Sprintf("%v %v", op, vx)
	case OP_LD_VX_DT:
		out = fmt.Sprintf("%v %v, dt", op, vx)
	case OP_LD_VX_K:
		out = fmt.Sprintf("%v %v, k", op, vx)
	case OP_LD_DT_VX:
		out = fmt.Sprintf("%v dt, %v", op, vx)
	case OP_LD_ST_VX:
		out = fmt.Sprintf("%v st, %v", op, vx)
	case OP_ADD_I:
		out = fmt.Sprintf("%v i, %v", op, vx)
	case OP_LD_F:
		out = fmt.Sprintf("%v f, %v", op, vx)
	case OP_LD_B:
		out = fmt.Sprintf("%v b, %v", op, vx)
	case OP_LD_MEM_VX:
		out = fmt.Sprintf("%v [i], %v", op, vx)
	case OP_LD_VX_MEM:
		out = fmt.Sprintf("%v %v, [i]", op, vx)
	default:
		out = op
	}

	return
}
