package cpu

import "github.com/nsavage/i8080emu/pkg/bit"

// 8080 flag bit positions in the F register (spec.md §3).
const (
	FlagC  uint8 = 0x01 // Carry: carry/borrow out of MSB
	flagB1 uint8 = 0x02 // always 1
	FlagP  uint8 = 0x04 // Parity: 1 iff result has an even number of set bits
	flagB3 uint8 = 0x08 // always 0
	FlagAC uint8 = 0x10 // Auxiliary carry: carry out of bit 3
	flagB5 uint8 = 0x20 // always 0
	FlagZ  uint8 = 0x40 // Zero
	FlagS  uint8 = 0x80 // Sign: bit 7 of the result

	// The three "always" bits have fixed values whenever F is pushed as
	// the low byte of PSW: PUSH PSW masks with fMaskOnPush, POP PSW ORs
	// the fixed bit back in.
	fMaskOnPush  uint8 = 0xD7
	fFixedOnPush uint8 = 0x02
)

// Bit indices of the five meaningful flags within F, for call sites that
// set or test exactly one flag via pkg/bit rather than composing a mask
// by hand.
const (
	bitC  uint = 0
	bitP  uint = 2
	bitAC uint = 4
	bitZ  uint = 6
	bitS  uint = 7
)

// setFlag sets or clears a single flag bit in F via pkg/bit's Assign,
// the primitive this engine's flag manipulation routes through.
func setFlag(s *State, i uint, v bool) {
	s.F = bit.Assign(s.F, i, v)
}

// flagSet reports whether a single flag bit is set in F.
func flagSet(s *State, i uint) bool {
	return bit.IsSet(s.F, i)
}

// Precomputed flag tables, ported from the teacher's remogatto/z80-style
// lookup approach and re-derived for the 8080's own bit layout (no
// undocumented bit3/bit5 copy-through, no half-carry-from-bit-11 table —
// the 8080's AC/carry rules below are simple enough to compute directly).
var (
	// SzpTable[v] is the Z/S/P portion of F for result v. Callers OR in
	// C and AC separately, since those depend on the operands, not just
	// the result.
	SzpTable [256]uint8
	// ParityTable[v] is FlagP iff v has an even number of set bits.
	ParityTable [256]uint8
)

func init() {
	for i := 0; i < 256; i++ {
		v := uint8(i)

		p := v
		p ^= p >> 4
		p ^= p >> 2
		p ^= p >> 1
		if p&1 == 0 {
			ParityTable[i] = FlagP
		}

		SzpTable[i] = (v & FlagS) | ParityTable[i]
	}
	SzpTable[0] |= FlagZ
}

// resetFlags clears every meaningful flag, preserving only the
// always-one bit. The ALU helpers in exec.go do not call it: each one
// assigns F in full from the flags it computes.
func resetFlags(s *State) {
	s.F = fFixedOnPush
}

// bsel is a branchless flag selector: a if cond, else b.
func bsel(cond bool, a, b uint8) uint8 {
	if cond {
		return a
	}
	return b
}
