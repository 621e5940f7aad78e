package cpu

// Decode maps an instruction word to its Instruction. It never fails:
// unrecognized words decode to OP_INVALID.
func Decode(word uint16) (inst Instruction) {
	head := uint8(word >> 12)
	x := uint8(word>>8) & 0xf
	y := uint8(word>>4) & 0xf
	n := uint8(word) & 0xf
	kk := uint8(word)
	nnn := word & 0xfff

	switch head {
	case 0x0:
		switch {
		case nnn == 0x0e0:
			inst = Instruction{Op: OP_CLS}
		case nnn == 0x0ee:
			inst = Instruction{Op: OP_RET}
		}
	case 0x1:
		inst = Instruction{Op: OP_JP, Addr: nnn}
	case 0x2:
		inst = Instruction{Op: OP_CALL, Addr: nnn}
	case 0x3:
		inst = Instruction{Op: OP_SE_BYTE, X: x, Byte: kk}
	case 0x4:
		inst = Instruction{Op: OP_SNE_BYTE, X: x, Byte: kk}
	case 0x5:
		if n == 0x0 {
			inst = Instruction{Op: OP_SE_REG, X: x, Y: y}
		}
	case 0x6:
		inst = Instruction{Op: OP_LD_BYTE, X: x, Byte: kk}
	case 0x7:
		inst = Instruction{Op: OP_ADD_BYTE, X: x, Byte: kk}
	case 0x8:
		var op Op
		switch n {
		case 0x0:
			op = OP_LD_REG
		case 0x1:
			op = OP_OR
		case 0x2:
			op = OP_AND
		case 0x3:
			op = OP_XOR
		case 0x4:
			op = OP_ADD_REG
		case 0x5:
			op = OP_SUB
		case 0x6:
			op = OP_SHR
		case 0x7:
			op = OP_SUBN
		case 0xe:
			op = OP_SHL
		}
		if op != OP_INVALID {
			inst = Instruction{Op: op, X: x, Y: y}
		}
	case 0x9:
		if n == 0x0 {
			inst = Instruction{Op: OP_SNE_REG, X: x, Y: y}
		}
	case 0xa:
		inst = Instruction{Op: OP_LD_I, Addr: nnn}
	case 0xb:
		inst = Instruction{Op: OP_JP_V0, Addr: nnn}
	case 0xc:
		inst = Instruction{Op: OP_RND, X: x, Byte: kk}
	case 0xd:
		inst = Instruction{Op: OP_DRW, X: x, Y: y, N: n}
	case 0xe:
		switch kk {
		case 0x9e:
			inst = Instruction{Op: OP_SKP, X: x}
		case 0xa1:
			inst = Instruction{Op: OP_SKNP, X: x}
		}
	case 0xf:
		var op Op
		switch kk {
		case 0x07:
			op = OP_LD_VX_DT
		case 0x0a:
			op = OP_LD_VX_K
		case 0x15:
			op = OP_LD_DT_VX
		case 0x18:
			op = OP_LD_ST_VX
		case 0x1e:
			op = OP_ADD_I
		case 0x29:
			op = OP_LD_F
		case 0x33:
			op = OP_LD_B
		case 0x55:
			op = OP_LD_MEM_VX
		case 0x65:
			op = OP_LD_VX_MEM
		}
		if op != OP_INVALID {
			inst = Instruction{Op: op, X: x}
		}
	}

	return
}
