// Package cpm emulates just enough of the CP/M BDOS to run the
// standard 8080 instruction-exerciser COM files (TST8080, CPUTEST,
// 8080EXM): the warm-boot vector at 0x0000 and the BDOS entry at
// 0x0005, trapped through port 0x00 and port 0x01 respectively.
package cpm

import (
	"fmt"
	"io"

	"github.com/nsavage/i8080emu/pkg/cpu"
	"github.com/nsavage/i8080emu/pkg/mem"
)

// Install pokes the two trap vectors these test programs expect into m:
//
//	0x0000: OUT 0   ; warm boot -> exit
//	0x0005: OUT 1   ; BDOS call -> console print
//	        RET
//
// A real CP/M BIOS occupies far more of low memory; these COM files
// only ever touch the two entry points, so that's all Harness installs.
func Install(m mem.Memory) {
	m.Write(0x0000, 0xD3)
	m.Write(0x0001, 0x00)

	m.Write(0x0005, 0xD3)
	m.Write(0x0006, 0x01)
	m.Write(0x0007, 0xC9)
}

// Harness is an io.Bus that answers the two ports Install's trap vectors
// use. Function 2 (C register) prints the character in E; function 9
// prints the $-terminated string at DE. Output goes to Writer, letting a
// caller capture it instead of writing straight to stdout.
type Harness struct {
	Mem    mem.Memory
	Writer io.Writer
}

// NewHarness wires a harness to w for console output and installs the
// trap vectors into m. w is typically os.Stdout for a CLI runner or a
// bytes.Buffer for a conformance test comparing captured output.
func NewHarness(m mem.Memory, w io.Writer) *Harness {
	Install(m)
	return &Harness{Mem: m, Writer: w}
}

func (h *Harness) In(port uint8) uint8 { return 0 }

// Out satisfies io.Bus; these COM files never read anything meaningful
// back from an OUT, so there is nothing to do beyond the trap detection
// ServiceStep performs after the instruction completes.
func (h *Harness) Out(port uint8, value uint8) {}

// Step runs s until it raises SignalExit (the warm-boot trap) or an
// instruction faults, servicing BDOS console calls as they occur.
// The CPU's own io.Bus must be h for the traps to be observed here
// rather than silently discarded by a NullBus.
func (h *Harness) Step(s *cpu.State) error {
	for s.Signal != cpu.SignalExit {
		if _, err := cpu.Exec(s, h.Mem, h); err != nil {
			return err
		}
		h.ServiceStep(s)
	}
	return nil
}

// ServiceStep inspects CPU state right after each instruction and reacts
// to the two BDOS-call shapes these test ROMs issue: it is triggered by
// seeing PC parked just past the trap's OUT instruction, same as the port
// handler in the reference harness, because Go's io.Bus callback alone
// can't see the register file. Exported so a caller driving its own
// fetch-execute loop (for tracing, instruction limits, and so on) can
// still get BDOS emulation by calling it after every cpu.Exec.
func (h *Harness) ServiceStep(s *cpu.State) {
	switch s.PC {
	case 0x0002: // just executed OUT 0 at 0x0000
		s.Signal = cpu.SignalExit
	case 0x0007: // just executed OUT 1 at 0x0005, about to RET
		switch s.C {
		case 2:
			fmt.Fprintf(h.Writer, "%c", s.E)
		case 9:
			addr := s.DE()
			for {
				b := h.Mem.Read(addr)
				if b == '$' {
					break
				}
				fmt.Fprintf(h.Writer, "%c", b)
				addr++
			}
		}
	}
}
