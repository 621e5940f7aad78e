package memory

const (
	FONT_BASE       = 0x50 // Address of the glyph for '0'.
	FONT_GLYPH_SIZE = 5    // Bytes (rows) per glyph.
	FONT_GLYPHS     = 16   // Hex digits 0-F.
)

var font = [FONT_GLYPHS * FONT_GLYPH_SIZE]byte{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// Glyph returns the address of the font sprite for the low nibble of digit.
func Glyph(digit byte) uint16 {
	return FONT_BASE + uint16(digit&0xf)*FONT_GLYPH_SIZE
}

// inFont reports whether [addr, addr+rows) lies within the font table.
func inFont(addr int, rows int) bool {
	return addr >= FONT_BASE && addr+rows <= FONT_BASE+len(font)
}
