package io

import (
	"errors"

	"github.com/ezrec/chip8/translate"
)

var f = translate.From

var (
	// Rom errors
	ErrRomEmpty    = errors.New(f("rom empty"))
	ErrRomTooLarge = errors.New(f("rom too large"))
	ErrRomMissing  = errors.New(f("rom missing"))
)
