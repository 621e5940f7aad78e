// Package frontend connects an emulator to the host: a window, a terminal,
// and screenshots.
package frontend

import (
	"strings"
	"unicode"
)

// KEY_ORDER lists the host keys for CHIP-8 keys 0x0-0xF. The layout puts
// the 4x4 COSMAC VIP keypad on 1234/QWER/ASDF/ZXCV:
//
//	1 2 3 C      1 2 3 4
//	4 5 6 D  ->  Q W E R
//	7 8 9 E      A S D F
//	A 0 B F      Z X C V
const KEY_ORDER = "x123qweasdzc4rfv"

// KeyOf returns the CHIP-8 key for a host key rune, ignoring case.
func KeyOf(r rune) (key uint8, ok bool) {
	index := strings.IndexRune(KEY_ORDER, unicode.ToLower(r))
	if index < 0 {
		return
	}

	key = uint8(index)
	ok = true
	return
}
