// Package cpu implements the interpreter and assembler for the CHIP-8 virtual
// machine.
//
// The CPU consists of a program counter, a 12-bit index register (I), sixteen
// 8-bit general-purpose registers (v0-vf, with vf doubling as the carry,
// borrow and collision flag), a 16 entry return stack, and the delay and sound
// timers. Instructions are 16-bit big-endian words, decoded into an
// Instruction and then executed against the memory, display and keyboard.
//
// The assembler provides the conventional CHIP-8 mnemonics, supporting macros,
// labels, equates, data directives, and compile-time expression evaluation.
package cpu
