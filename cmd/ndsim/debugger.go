package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/sarchlab/ndsim/machine"
	"github.com/sarchlab/ndsim/script"
)

const debuggerHelp = `Every line is Lua. CPUs are selected with 9 or 7.
  step(cpu)  run(ticks)  frame([n])
  reg(cpu, n)  setreg(cpu, n, v)  cpsr(cpu)  halted(cpu)
  read8/16/32(cpu, addr)  write8/16/32(cpu, addr, v)
  disasm(cpu[, addr])  stats()
Type "quit" to leave.`

// runDebugger reads Lua lines from the terminal until quit or end of input.
func runDebugger(m *machine.Machine) error {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		oldState, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("failed to set raw mode: %w", err)
		}
		defer func() { _ = term.Restore(fd, oldState) }()
	}

	rw := struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}
	t := term.NewTerminal(rw, "ndsim> ")

	return debugLoop(m, t)
}

// lineReader is the part of term.Terminal the loop needs.
type lineReader interface {
	io.Writer
	ReadLine() (string, error)
}

func debugLoop(m *machine.Machine, t lineReader) error {
	e := script.New(m, t)
	defer e.Close()

	_, _ = fmt.Fprintln(t, debuggerHelp)

	for {
		line, err := t.ReadLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "quit", "exit":
			return nil
		case "help":
			_, _ = fmt.Fprintln(t, debuggerHelp)
			continue
		}

		if err := e.Run(line); err != nil {
			_, _ = fmt.Fprintln(t, err)
		}
	}
}
