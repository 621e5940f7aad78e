// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/emulator"
	"github.com/ezrec/chip8/frontend"
	"github.com/ezrec/chip8/io"
	"github.com/ezrec/chip8/translate"
)

func main() {
	var rom string
	var dir string
	var compile string
	var hz int
	var terminal bool
	var cycles int
	var screenshot string
	var lenient bool
	var verbose bool
	var lang string

	flag.StringVar(&rom, "r", "", "ROM file to run, or ROM name with -d")
	flag.StringVar(&dir, "d", "", "Directory of .ch8 ROMs")
	flag.StringVar(&compile, "c", "", "Assembly file to compile and run")
	flag.IntVar(&hz, "hz", emulator.CYCLES_PER_SECOND, "Instructions per second")
	flag.BoolVar(&terminal, "t", false, "Run in the terminal")
	flag.IntVar(&cycles, "n", 0, "Run N instructions without a display, then print the screen")
	flag.StringVar(&screenshot, "s", "", "Save the final screen as a .bmp")
	flag.BoolVar(&lenient, "lenient", false, "Skip invalid instructions")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.StringVar(&lang, "lang", "", "Message language, overriding the host locale")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	if len(lang) != 0 {
		translate.SetLocales(lang)
	}

	emu := emulator.NewEmulator()
	emu.Verbose = verbose
	emu.Lenient = lenient
	emu.CyclesPerSecond = hz

	title := "CHIP-8"

	switch {
	case len(compile) != 0:
		// Compile a new instruction stream.
		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		defer inf.Close()

		prog, err := emu.Assembler().Parse(inf)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		err = emu.LoadProgram(prog)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		title = filepath.Base(compile)
	case len(dir) != 0:
		lib := &io.Library{}
		err := lib.Unmarshal(os.DirFS(dir))
		if err != nil {
			log.Fatalf("%v: %v", dir, err)
		}
		if len(rom) == 0 {
			for name := range lib.Names() {
				fmt.Println(name)
			}
			return
		}
		data, err := lib.Rom(rom)
		if err != nil {
			log.Fatalf("%v: %v", rom, err)
		}
		err = emu.Load(data)
		if err != nil {
			log.Fatalf("%v: %v", rom, err)
		}
		title = rom
	case len(rom) != 0:
		inf, err := os.Open(rom)
		if err != nil {
			log.Fatalf("%v: %v", rom, err)
		}
		defer inf.Close()

		data, err := io.ReadRom(inf)
		if err != nil {
			log.Fatalf("%v: %v", rom, err)
		}
		err = emu.Load(data)
		if err != nil {
			log.Fatalf("%v: %v", rom, err)
		}
		title = filepath.Base(rom)
	default:
		log.Fatalf("%v: one of -r, -d or -c is required", os.Args[0])
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var err error
	switch {
	case cycles > 0:
		emu.Cpu.Start(ctx)
		err = emu.Step(ctx, cycles)
		if err == nil {
			fmt.Print(emu.Frame().String())
		}
	case terminal:
		tm := &frontend.Terminal{Emulator: emu}
		done := make(chan error, 1)
		go func() {
			done <- tm.Run(ctx, cancel)
		}()
		err = emu.Run(ctx)
		cancel()
		// Restores the terminal mode.
		terr := <-done
		if terr != nil {
			log.Print(terr)
		}
	default:
		win := &frontend.Window{Emulator: emu, Title: title, Cancel: cancel}
		done := make(chan error, 1)
		go func() {
			done <- emu.Run(ctx)
			cancel()
		}()
		err = win.Run()
		cancel()
		// The emulator must be idle before its state is read.
		eerr := <-done
		if err == nil {
			err = eerr
		}
	}

	if len(screenshot) != 0 {
		ouf, serr := os.Create(screenshot)
		if serr != nil {
			log.Fatalf("%v: %v", screenshot, serr)
		}
		defer ouf.Close()
		serr = frontend.WriteScreenshot(ouf, emu.Frame(), 1)
		if serr != nil {
			log.Fatalf("%v: %v", screenshot, serr)
		}
	}

	if err != nil {
		var er *emulator.ErrRuntime
		if errors.As(err, &er) && errors.Is(er, cpu.ErrInvalidInstruction) {
			log.Printf("%v: try -lenient", title)
		}
		fmt.Fprint(os.Stderr, emu.Dump())
		log.Fatal(err)
	}
}
