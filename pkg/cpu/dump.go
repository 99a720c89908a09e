package cpu

import (
	"fmt"

	"github.com/nsavage/i8080emu/pkg/mem"
)

// Dump renders a one-line trace record in the same shape the reference
// test harness prints: PC, every register pair, SP, the running cycle
// count, and the four bytes at PC so a diff against a known-good trace
// can be read instruction by instruction.
func Dump(s *State, m mem.Memory) string {
	return fmt.Sprintf(
		"PC: %04X, AF: %04X, BC: %04X, DE: %04X, HL: %04X, SP: %04X, CYC: %d\t(%02X %02X %02X %02X)",
		s.PC, s.PSW(), s.BC(), s.DE(), s.HL(), s.SP, s.Cycles,
		m.Read(s.PC), m.Read(s.PC+1), m.Read(s.PC+2), m.Read(s.PC+3),
	)
}

// DumpFlags renders the registers-plus-flags form, broken out flag by
// flag rather than packed into F, for human-readable failure reports.
func DumpFlags(s *State) string {
	return fmt.Sprintf(
		"registers: bc %04X de %04X hl %04X psw %04X\n\tflags: c:%d p:%d ac:%d z:%d s:%d\nsp: %04X\ncycles: %d",
		s.BC(), s.DE(), s.HL(), s.PSW(),
		b2i(s.F&FlagC != 0), b2i(s.F&FlagP != 0), b2i(s.F&FlagAC != 0),
		b2i(s.F&FlagZ != 0), b2i(s.F&FlagS != 0),
		s.SP, s.Cycles,
	)
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
