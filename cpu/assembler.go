// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/chip8/display"
	"github.com/ezrec/chip8/memory"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO":          "0",
	"PROGRAM_BASE":    fmt.Sprintf("%#x", memory.PROGRAM_BASE),
	"MEMORY_SIZE":     fmt.Sprintf("%#x", memory.MEMORY_SIZE),
	"FONT_BASE":       fmt.Sprintf("%#x", memory.FONT_BASE),
	"FONT_GLYPH_SIZE": fmt.Sprintf("%v", memory.FONT_GLYPH_SIZE),
	"DISPLAY_WIDTH":   fmt.Sprintf("%v", display.WIDTH),
	"DISPLAY_HEIGHT":  fmt.Sprintf("%v", display.HEIGHT),
}

// Assembler is a single pass macro assembler for CHIP-8 programs, using
// the conventional mnemonics (cls, ld v0, 0x0a, drw v0, v1, 5, ...).
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string   // Predefines
	Label     map[string]int      // Map of labels to addresses.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.

	expansions int // Count of macro expansions, for '@' local labels.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// valueOf returns the value of a numeric word.
func (asm *Assembler) valueOf(word string) (value int, err error) {
	v64, err := strconv.ParseInt(word, 0, 32)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	value = int(v64)
	return
}

// byteOf returns an 8-bit immediate. Negative values down to -128 are
// accepted as their two's complement.
func (asm *Assembler) byteOf(word string) (value uint8, err error) {
	v, err := asm.valueOf(word)
	if err != nil {
		return
	}
	if v < -0x80 || v > 0xff {
		err = ErrValueRange
		return
	}

	value = uint8(v)
	return
}

// nibbleOf returns a 4-bit immediate.
func (asm *Assembler) nibbleOf(word string) (value uint8, err error) {
	v, err := asm.valueOf(word)
	if err != nil {
		return
	}
	if v < 0 || v > 0xf {
		err = ErrValueRange
		return
	}

	value = uint8(v)
	return
}

var (
	labelSyntax = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)
	charSyntax  = regexp.MustCompile(`'\\?[^']'`)
	parenSyntax = regexp.MustCompile(`\$\([^\$]*\)`)
)

// addrOf returns a 12-bit address, or the label to link it to.
func (asm *Assembler) addrOf(word string) (addr uint16, label string, err error) {
	v, err := asm.valueOf(word)
	if err != nil {
		if !labelSyntax.MatchString(word) {
			return
		}
		err = nil
		label = word
		return
	}
	if v < 0 || v > 0xfff {
		err = ErrValueRange
		return
	}

	addr = uint16(v)
	return
}

// regOf returns the index of a v0-vf register name.
func regOf(word string) (reg uint8, ok bool) {
	if len(word) != 2 || word[0] != 'v' {
		return
	}

	index, err := strconv.ParseUint(word[1:], 16, 4)
	if err != nil {
		return
	}

	reg = uint8(index)
	ok = true
	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var v int
		v, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt(v)
	}
	for key, addr := range asm.Label {
		pred[key] = starlark.MakeInt(addr)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = int(st_int64)
	return
}

// parseLine parses a single line into words, handling equates, labels and
// macro expansion.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	line = charSyntax.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	line = parenSyntax.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%v", value)
	})
	if err != nil {
		return
	}

	// Operand commas are optional.
	line = strings.ReplaceAll(line, ",", " ")
	words = slices.DeleteFunc(strings.Split(line, " "), func(a string) bool { return len(a) == 0 })

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		if asm.Label == nil {
			asm.Label = make(map[string]int, 16)
		}
		asm.Label[label] = asm.currentAddress()
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = words[1+n]
		}
		defer func() { asm.Equate = old_equate }()

		asm.expansions++
		local := fmt.Sprintf("%v_%v_", name, asm.expansions)

		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", local)
			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}

			err = asm.parseWords(words, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// currentAddress gets the address of the next emitted byte.
func (asm *Assembler) currentAddress() int {
	if len(asm.Opcode) == 0 {
		return memory.PROGRAM_BASE
	}

	last := asm.Opcode[len(asm.Opcode)-1]

	return last.Address + len(last.Bytes)
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {

	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.expansions = 0
	asm.Opcode = asm.Opcode[:0]
	if asm.Macro == nil {
		asm.Macro = make(map[string](*Macro))
	}
	clear(asm.Macro)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(text_comment[0])
		words := strings.Fields(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	// Final linking of address labels.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]

		if len(op.LinkLabel) == 0 {
			continue
		}
		label := op.LinkLabel
		addr, ok := asm.Label[label]
		if !ok {
			lineno = op.LineNo
			line = strings.Join(op.Words, " ")
			err = ErrLabelMissing(label)
			return
		}
		if addr > 0xfff {
			lineno = op.LineNo
			line = strings.Join(op.Words, " ")
			err = ErrValueRange
			return
		}
		op.Bytes[0] |= byte(addr>>8) & 0xf
		op.Bytes[1] |= byte(addr)
	}

	if asm.currentAddress() > memory.MEMORY_SIZE {
		err = memory.ErrProgramSize
		return
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
	}

	return
}

// aluMap maps the register-register 8xyN mnemonics.
var aluMap = map[string]Op{
	"or":   OP_OR,
	"and":  OP_AND,
	"xor":  OP_XOR,
	"sub":  OP_SUB,
	"subn": OP_SUBN,
	"shr":  OP_SHR,
	"shl":  OP_SHL,
}

// specialLoad maps the Fx ld forms by their non-register operand.
var specialLoad = map[string]Op{
	"dt":  OP_LD_DT_VX,
	"st":  OP_LD_ST_VX,
	"f":   OP_LD_F,
	"b":   OP_LD_B,
	"[i]": OP_LD_MEM_VX,
}

// parseData encodes .byte and .word operands.
func (asm *Assembler) parseData(words []string) (data []byte, err error) {
	if len(words) < 2 {
		err = ErrOpcodeValueMissing
		return
	}

	for _, word := range words[1:] {
		switch words[0] {
		case ".byte":
			var value uint8
			value, err = asm.byteOf(word)
			if err != nil {
				return
			}
			data = append(data, value)
		case ".word":
			var value int
			value, err = asm.valueOf(word)
			if err != nil {
				return
			}
			if value < -0x8000 || value > 0xffff {
				err = ErrValueRange
				return
			}
			data = append(data, byte(value>>8), byte(value))
		}
	}

	return
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	var bytes []byte
	var label string
	var data bool

	// no-op
	if len(words) == 0 {
		return
	}

	initial_words := words

	defer func() {
		if len(bytes) == 0 {
			return
		}
		opcode := Opcode{LineNo: lineno, Address: asm.currentAddress(), Words: initial_words, Bytes: bytes, LinkLabel: label, Data: data}
		asm.Opcode = append(asm.Opcode, opcode)
	}()

	if words[0] == ".byte" || words[0] == ".word" {
		data = true
		bytes, err = asm.parseData(words)
		return
	}

	var inst Instruction
	inst, label, err = asm.parseInstruction(words)
	if err != nil {
		return
	}

	word, err := inst.Encode()
	if err != nil {
		return
	}
	bytes = []byte{byte(word >> 8), byte(word)}

	return
}

// parseInstruction parses a mnemonic and its operands.
func (asm *Assembler) parseInstruction(words []string) (inst Instruction, label string, err error) {
	op := words[0]
	args := words[1:]

	need := func(count int) bool {
		switch {
		case len(args) < count:
			err = ErrOpcodeValueMissing
		case len(args) > count:
			err = ErrOpcodeExtraArgs
		}
		return err == nil
	}

	reg := func(n int) (r uint8) {
		if err != nil {
			return
		}
		r, ok := regOf(args[n])
		if !ok {
			err = ErrRegisterInvalid
		}
		return
	}

	switch op {
	case "cls", "ret":
		if !need(0) {
			return
		}
		inst.Op = OP_CLS
		if op == "ret" {
			inst.Op = OP_RET
		}
	case "jp", "call":
		inst.Op = OP_JP
		if op == "call" {
			inst.Op = OP_CALL
		}
		if op == "jp" && len(args) == 2 {
			if args[0] != "v0" {
				err = ErrRegisterInvalid
				return
			}
			inst.Op = OP_JP_V0
			args = args[1:]
		}
		if !need(1) {
			return
		}
		inst.Addr, label, err = asm.addrOf(args[0])
	case "se", "sne":
		if !need(2) {
			return
		}
		inst.X = reg(0)
		if err != nil {
			return
		}
		if y, ok := regOf(args[1]); ok {
			inst.Op = OP_SE_REG
			if op == "sne" {
				inst.Op = OP_SNE_REG
			}
			inst.Y = y
		} else {
			inst.Op = OP_SE_BYTE
			if op == "sne" {
				inst.Op = OP_SNE_BYTE
			}
			inst.Byte, err = asm.byteOf(args[1])
		}
	case "ld":
		if !need(2) {
			return
		}
		if op, ok := specialLoad[args[0]]; ok {
			inst.Op = op
			args = args[1:]
			inst.X = reg(0)
			return
		}
		if args[0] == "i" {
			inst.Op = OP_LD_I
			inst.Addr, label, err = asm.addrOf(args[1])
			return
		}
		inst.X = reg(0)
		if err != nil {
			return
		}
		if y, ok := regOf(args[1]); ok {
			inst.Op = OP_LD_REG
			inst.Y = y
			return
		}
		switch args[1] {
		case "dt":
			inst.Op = OP_LD_VX_DT
		case "k":
			inst.Op = OP_LD_VX_K
		case "[i]":
			inst.Op = OP_LD_VX_MEM
		default:
			inst.Op = OP_LD_BYTE
			inst.Byte, err = asm.byteOf(args[1])
		}
	case "add":
		if !need(2) {
			return
		}
		if args[0] == "i" {
			inst.Op = OP_ADD_I
			args = args[1:]
			inst.X = reg(0)
			return
		}
		inst.X = reg(0)
		if err != nil {
			return
		}
		if y, ok := regOf(args[1]); ok {
			inst.Op = OP_ADD_REG
			inst.Y = y
		} else {
			inst.Op = OP_ADD_BYTE
			inst.Byte, err = asm.byteOf(args[1])
		}
	case "or", "and", "xor", "sub", "subn":
		if !need(2) {
			return
		}
		inst.Op = aluMap[op]
		inst.X = reg(0)
		inst.Y = reg(1)
	case "shr", "shl":
		// The second register is optional, and ignored when executed.
		if len(args) == 1 {
			args = append(args, "v0")
		}
		if !need(2) {
			return
		}
		inst.Op = aluMap[op]
		inst.X = reg(0)
		inst.Y = reg(1)
	case "rnd":
		if !need(2) {
			return
		}
		inst.Op = OP_RND
		inst.X = reg(0)
		if err == nil {
			inst.Byte, err = asm.byteOf(args[1])
		}
	case "drw":
		if !need(3) {
			return
		}
		inst.Op = OP_DRW
		inst.X = reg(0)
		inst.Y = reg(1)
		if err == nil {
			inst.N, err = asm.nibbleOf(args[2])
		}
	case "skp", "sknp":
		if !need(1) {
			return
		}
		inst.Op = OP_SKP
		if op == "sknp" {
			inst.Op = OP_SKNP
		}
		inst.X = reg(0)
	default:
		err = ErrInstructionInvalid
	}

	return
}
