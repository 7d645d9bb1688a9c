package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/codeboard/mips/cpu"
	"github.com/codeboard/mips/emulator"
)

func main() {
	var source string
	var dump bool
	var verbose bool

	flag.StringVar(&source, "c", "", ".s file to assemble and run")
	flag.BoolVar(&dump, "d", false, "Dump machine state after the run")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	if len(source) == 0 {
		log.Fatalf("%v: no source file (-c)", os.Args[0])
	}

	inf, err := os.Open(source)
	if err != nil {
		log.Fatalf("%v: %v", source, err)
	}
	defer inf.Close()

	asm := &cpu.Assembler{Verbose: verbose}
	prog, err := asm.Parse(inf)
	if err != nil {
		log.Fatalf("%v: %v", source, err)
	}

	emu, err := emulator.NewEmulator(prog)
	if err != nil {
		log.Fatalf("%v: %v", source, err)
	}
	emu.Verbose = verbose

	runErr := emu.Run()

	fmt.Print(emu.Output())

	if dump {
		fmt.Fprint(os.Stderr, emu.Machine.String())
	}

	if runErr != nil {
		log.Fatalf("%v: %v", source, runErr)
	}
}
