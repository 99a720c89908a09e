package cpu

import (
	"github.com/nsavage/i8080emu/pkg/io"
	"github.com/nsavage/i8080emu/pkg/mem"
)

// Exec executes a single instruction: fetch, decode, dispatch, mutate,
// account cycles. Returns the T-state cost of the instruction executed.
// The only error this ever returns is a *FaultError, and only when
// State.StrictIllegal disables the illegal-opcode alias table.
func Exec(s *State, m mem.Memory, ports io.Bus) (int, error) {
	op := m.Read(s.PC)
	s.PC++

	if s.StrictIllegal && isIllegalOpcode(op) {
		return 0, &FaultError{Op: op, PC: s.PC - 1, Reason: "illegal opcode, strict mode enabled"}
	}

	var cycles int
	switch {
	case op >= 0x40 && op <= 0x7F:
		cycles = execMov(s, m, op)
	case op >= 0x80 && op <= 0xBF:
		cycles = execAluOp(s, m, op)
	default:
		var err error
		cycles, err = execMisc(s, m, ports, op)
		if err != nil {
			return 0, err
		}
	}

	s.Cycles += uint64(cycles)
	return cycles, nil
}

func isIllegalOpcode(op uint8) bool {
	switch op {
	case 0x08, 0x10, 0x18, 0x20, 0x28, 0x30, 0x38, 0xCB, 0xD9, 0xDD, 0xED, 0xFD:
		return true
	}
	return false
}

// --- register/pair decoding, shared by the MOV and ALU families ---
//
// Register field encoding (3 bits): 0=B 1=C 2=D 3=E 4=H 5=L 6=M 7=A.
// Register-pair field encoding (2 bits) for LXI/DAD/INX/DCX: 0=BC 1=DE
// 2=HL 3=SP. PUSH/POP use the same 2 bits but with 3=PSW instead of SP.

func reg8(s *State, m mem.Memory, code uint8) uint8 {
	switch code {
	case 0:
		return s.B
	case 1:
		return s.C
	case 2:
		return s.D
	case 3:
		return s.E
	case 4:
		return s.H
	case 5:
		return s.L
	case 6:
		return m.Read(s.HL())
	default:
		return s.A
	}
}

func setReg8(s *State, m mem.Memory, code uint8, v uint8) {
	switch code {
	case 0:
		s.B = v
	case 1:
		s.C = v
	case 2:
		s.D = v
	case 3:
		s.E = v
	case 4:
		s.H = v
	case 5:
		s.L = v
	case 6:
		m.Write(s.HL(), v)
	default:
		s.A = v
	}
}

func getRP16(s *State, rp uint8) uint16 {
	switch rp {
	case 0:
		return s.BC()
	case 1:
		return s.DE()
	case 2:
		return s.HL()
	default:
		return s.SP
	}
}

func setRP16(s *State, rp uint8, v uint16) {
	switch rp {
	case 0:
		s.SetBC(v)
	case 1:
		s.SetDE(v)
	case 2:
		s.SetHL(v)
	default:
		s.SP = v
	}
}

// condTrue evaluates one of the eight condition codes encoded in bits
// 3-5 of a conditional jump/call/return opcode: NZ,Z,NC,C,PO,PE,P,M.
func condTrue(s *State, ccc uint8) bool {
	switch ccc {
	case 0:
		return !flagSet(s, bitZ)
	case 1:
		return flagSet(s, bitZ)
	case 2:
		return !flagSet(s, bitC)
	case 3:
		return flagSet(s, bitC)
	case 4:
		return !flagSet(s, bitP)
	case 5:
		return flagSet(s, bitP)
	case 6:
		return !flagSet(s, bitS)
	default:
		return flagSet(s, bitS)
	}
}

func imm8(s *State, m mem.Memory) uint8 {
	v := m.Read(s.PC)
	s.PC++
	return v
}

func imm16(s *State, m mem.Memory) uint16 {
	v := m.ReadWord(s.PC)
	s.PC += 2
	return v
}

// --- MOV family: opcodes 0x40-0x7F, dst in bits 3-5, src in bits 0-2 ---
// 0x76 (dst=M, src=M) is reserved for HLT rather than "MOV M, M".

func execMov(s *State, m mem.Memory, op uint8) int {
	if op == 0x76 {
		return execHlt(s)
	}
	dst := (op >> 3) & 0x07
	src := op & 0x07
	setReg8(s, m, dst, reg8(s, m, src))
	if dst == 6 || src == 6 {
		return 7
	}
	return 5
}

func execHlt(s *State) int {
	if s.HaltExits {
		s.Signal = SignalExit
	}
	return 7
}

// --- ALU family: opcodes 0x80-0xBF, op in bits 3-5, src in bits 0-2 ---

func execAluOp(s *State, m mem.Memory, op uint8) int {
	fn := (op >> 3) & 0x07
	src := op & 0x07
	v := reg8(s, m, src)
	dispatchAlu(s, fn, v)
	if src == 6 {
		return 7
	}
	return 4
}

func dispatchAlu(s *State, fn uint8, v uint8) {
	switch fn {
	case 0:
		execAdd(s, v)
	case 1:
		execAdc(s, v)
	case 2:
		execSub(s, v)
	case 3:
		execSbb(s, v)
	case 4:
		execAnd(s, v)
	case 5:
		execXor(s, v)
	case 6:
		execOr(s, v)
	default:
		execCmp(s, v)
	}
}

// --- ALU helpers, flags per spec.md §4.5 ---

func execAdd(s *State, v uint8) {
	sum := uint16(s.A) + uint16(v)
	ac := (s.A&0x0F)+(v&0x0F) > 0x0F
	c := sum&0x100 != 0
	s.A = uint8(sum)
	s.F = bsel(c, FlagC, 0) | bsel(ac, FlagAC, 0) | SzpTable[s.A]
}

func execAdc(s *State, v uint8) {
	cin := s.F & FlagC
	sum := uint16(s.A) + uint16(v) + uint16(cin)
	ac := (s.A&0x0F)+(v&0x0F)+cin > 0x0F
	c := sum&0x100 != 0
	s.A = uint8(sum)
	s.F = bsel(c, FlagC, 0) | bsel(ac, FlagAC, 0) | SzpTable[s.A]
}

func execSub(s *State, v uint8) {
	diff := int16(s.A) - int16(v)
	ac := (s.A & 0x0F) >= (v & 0x0F)
	c := diff < 0
	s.A = uint8(diff)
	s.F = bsel(c, FlagC, 0) | bsel(ac, FlagAC, 0) | SzpTable[s.A]
}

// execSbb must read the incoming carry before anything touches F: an
// earlier reset-then-read ordering here would silently zero the borrow
// SBI needs, per spec.md §9.
func execSbb(s *State, v uint8) {
	cin := uint16(s.F & FlagC)
	v2 := uint16(v) + cin
	diff := int16(s.A) - int16(v2)
	ac := uint16(s.A&0x0F) >= (v2 & 0x0F)
	c := diff < 0
	s.A = uint8(diff)
	s.F = bsel(c, FlagC, 0) | bsel(ac, FlagAC, 0) | SzpTable[s.A]
}

// execAnd's AC bit follows the documented 8080 behaviour, not the more
// common "carry out of bit 3" rule: AC = bit 3 of (A | operand). One of
// the two source variants this was distilled from computes this from F's
// bit 3 instead of A's — almost certainly a transcription bug — and
// 8080EXM.COM will catch it if repeated here.
func execAnd(s *State, v uint8) {
	ac := ((s.A | v) >> 3) & 1
	s.A &= v
	s.F = bsel(ac == 1, FlagAC, 0) | SzpTable[s.A]
}

func execOr(s *State, v uint8) {
	s.A |= v
	s.F = SzpTable[s.A]
}

func execXor(s *State, v uint8) {
	s.A ^= v
	s.F = SzpTable[s.A]
}

// execCmp computes A-v for flags only; A is left untouched.
func execCmp(s *State, v uint8) {
	diff := int16(s.A) - int16(v)
	ac := (s.A & 0x0F) >= (v & 0x0F)
	c := diff < 0
	result := uint8(diff)
	s.F = bsel(c, FlagC, 0) | bsel(ac, FlagAC, 0) | SzpTable[result]
}

// execInr/execDcr set Z/S/P/AC but never touch C — the 8080's one
// arithmetic-carry exception.
func execInr(s *State, v uint8) uint8 {
	ac := v&0x0F == 0x0F
	v++
	s.F = (s.F & FlagC) | bsel(ac, FlagAC, 0) | SzpTable[v]
	return v
}

func execDcr(s *State, v uint8) uint8 {
	ac := v&0x0F != 0x00
	v--
	s.F = (s.F & FlagC) | bsel(ac, FlagAC, 0) | SzpTable[v]
	return v
}

// execDad: HL += value, affects only C (from the 17-bit overflow).
func execDad(s *State, value uint16) {
	sum := uint32(s.HL()) + uint32(value)
	s.SetHL(uint16(sum))
	setFlag(s, bitC, sum&0x10000 != 0)
}

// execDaa follows the two-step low-nibble-then-high-nibble correction
// exactly as the reference implementation performs it: the high-nibble
// check reads A *after* the low-nibble correction has already been
// applied.
func execDaa(s *State) {
	a := s.A
	if a&0x0F > 9 || flagSet(s, bitAC) {
		setFlag(s, bitAC, a&0x0F+6 > 0x0F)
		a += 6
	}
	if a>>4 > 9 || flagSet(s, bitC) {
		setFlag(s, bitC, uint16(a)+0x60 > 0xFF)
		a += 0x60
	}
	s.A = a
	s.F = (s.F &^ (FlagZ | FlagS | FlagP)) | SzpTable[a]
}

func execRlc(s *State) {
	hi := s.A>>7 != 0
	s.A = s.A<<1 | boolBit(hi)
	setFlag(s, bitC, hi)
}

func execRrc(s *State) {
	lo := s.A&1 != 0
	s.A = s.A>>1 | boolBit(lo)<<7
	setFlag(s, bitC, lo)
}

func execRal(s *State) {
	oldC := boolBit(flagSet(s, bitC))
	hi := s.A>>7 != 0
	s.A = s.A<<1 | oldC
	setFlag(s, bitC, hi)
}

func execRar(s *State) {
	oldC := boolBit(flagSet(s, bitC))
	lo := s.A&1 != 0
	s.A = s.A>>1 | oldC<<7
	setFlag(s, bitC, lo)
}

// boolBit converts a bool to 0/1, for slotting a flag into a shifted
// register value.
func boolBit(v bool) uint8 {
	if v {
		return 1
	}
	return 0
}

func push(s *State, m mem.Memory, word uint16) {
	s.SP -= 2
	m.WriteWord(s.SP, word)
}

func pop(s *State, m mem.Memory) uint16 {
	word := m.ReadWord(s.SP)
	s.SP += 2
	return word
}

func pushRP(s *State, m mem.Memory, rp uint8) int {
	var v uint16
	switch rp {
	case 0:
		v = s.BC()
	case 1:
		v = s.DE()
	default:
		v = s.HL()
	}
	push(s, m, v)
	return 11
}

func popRP(s *State, m mem.Memory, rp uint8) int {
	v := pop(s, m)
	switch rp {
	case 0:
		s.SetBC(v)
	case 1:
		s.SetDE(v)
	default:
		s.SetHL(v)
	}
	return 10
}

func jumpIf(s *State, m mem.Memory, cond bool) int {
	addr := imm16(s, m)
	if cond {
		s.PC = addr
	}
	return 10
}

func callIf(s *State, m mem.Memory, cond bool) int {
	addr := m.ReadWord(s.PC)
	if !cond {
		s.PC += 2
		return 11
	}
	ret := s.PC + 2
	s.PC += 2
	push(s, m, ret)
	s.PC = addr
	return 17
}

// retIf is for the eight conditional returns only: taken costs 11, not
// taken costs 5. Unconditional RET is cheaper than a taken conditional
// return on real silicon (10 vs 11) and has its own ret below — folding
// it into retIf(s, m, true) would silently overcharge it by one T-state.
func retIf(s *State, m mem.Memory, cond bool) int {
	if !cond {
		return 5
	}
	s.PC = pop(s, m)
	return 11
}

func ret(s *State, m mem.Memory) int {
	s.PC = pop(s, m)
	return 10
}

func rst(s *State, m mem.Memory, n uint8) int {
	push(s, m, s.PC)
	s.PC = uint16(n) * 8
	return 11
}

// execMisc handles everything outside the MOV (0x40-0x7F) and ALU
// (0x80-0xBF) families: control transfer, stack/register-pair
// instructions, immediate ALU forms, I/O, and the twelve illegal-opcode
// aliases.
func execMisc(s *State, m mem.Memory, ports io.Bus, op uint8) (int, error) {
	switch op {
	case 0x00:
		return 4, nil // NOP
	case 0x01:
		s.SetBC(imm16(s, m))
		return 10, nil
	case 0x02:
		m.Write(s.BC(), s.A)
		return 7, nil
	case 0x03:
		s.SetBC(s.BC() + 1)
		return 5, nil
	case 0x04:
		s.B = execInr(s, s.B)
		return 5, nil
	case 0x05:
		s.B = execDcr(s, s.B)
		return 5, nil
	case 0x06:
		s.B = imm8(s, m)
		return 7, nil
	case 0x07:
		execRlc(s)
		return 4, nil
	case 0x08:
		return 4, nil // illegal: NOP alias
	case 0x09:
		execDad(s, s.BC())
		return 10, nil
	case 0x0A:
		s.A = m.Read(s.BC())
		return 7, nil
	case 0x0B:
		s.SetBC(s.BC() - 1)
		return 5, nil
	case 0x0C:
		s.C = execInr(s, s.C)
		return 5, nil
	case 0x0D:
		s.C = execDcr(s, s.C)
		return 5, nil
	case 0x0E:
		s.C = imm8(s, m)
		return 7, nil
	case 0x0F:
		execRrc(s)
		return 4, nil
	case 0x10:
		return 4, nil // illegal: NOP alias
	case 0x11:
		s.SetDE(imm16(s, m))
		return 10, nil
	case 0x12:
		m.Write(s.DE(), s.A)
		return 7, nil
	case 0x13:
		s.SetDE(s.DE() + 1)
		return 5, nil
	case 0x14:
		s.D = execInr(s, s.D)
		return 5, nil
	case 0x15:
		s.D = execDcr(s, s.D)
		return 5, nil
	case 0x16:
		s.D = imm8(s, m)
		return 7, nil
	case 0x17:
		execRal(s)
		return 4, nil
	case 0x18:
		return 4, nil // illegal: NOP alias
	case 0x19:
		execDad(s, s.DE())
		return 10, nil
	case 0x1A:
		s.A = m.Read(s.DE())
		return 7, nil
	case 0x1B:
		s.SetDE(s.DE() - 1)
		return 5, nil
	case 0x1C:
		s.E = execInr(s, s.E)
		return 5, nil
	case 0x1D:
		s.E = execDcr(s, s.E)
		return 5, nil
	case 0x1E:
		s.E = imm8(s, m)
		return 7, nil
	case 0x1F:
		execRar(s)
		return 4, nil
	case 0x20:
		return 4, nil // illegal: NOP alias
	case 0x21:
		s.SetHL(imm16(s, m))
		return 10, nil
	case 0x22:
		addr := imm16(s, m)
		m.Write(addr, s.L)
		m.Write(addr+1, s.H)
		return 16, nil
	case 0x23:
		s.SetHL(s.HL() + 1)
		return 5, nil
	case 0x24:
		s.H = execInr(s, s.H)
		return 5, nil
	case 0x25:
		s.H = execDcr(s, s.H)
		return 5, nil
	case 0x26:
		s.H = imm8(s, m)
		return 7, nil
	case 0x27:
		execDaa(s)
		return 4, nil
	case 0x28:
		return 4, nil // illegal: NOP alias
	case 0x29:
		execDad(s, s.HL())
		return 10, nil
	case 0x2A:
		addr := imm16(s, m)
		s.L = m.Read(addr)
		s.H = m.Read(addr + 1)
		return 16, nil
	case 0x2B:
		s.SetHL(s.HL() - 1)
		return 5, nil
	case 0x2C:
		s.L = execInr(s, s.L)
		return 5, nil
	case 0x2D:
		s.L = execDcr(s, s.L)
		return 5, nil
	case 0x2E:
		s.L = imm8(s, m)
		return 7, nil
	case 0x2F:
		s.A = ^s.A
		return 4, nil
	case 0x30:
		return 4, nil // illegal: NOP alias
	case 0x31:
		s.SP = imm16(s, m)
		return 10, nil
	case 0x32:
		m.Write(imm16(s, m), s.A)
		return 13, nil
	case 0x33:
		s.SP++
		return 5, nil
	case 0x34:
		m.Write(s.HL(), execInr(s, m.Read(s.HL())))
		return 10, nil
	case 0x35:
		m.Write(s.HL(), execDcr(s, m.Read(s.HL())))
		return 10, nil
	case 0x36:
		m.Write(s.HL(), imm8(s, m))
		return 10, nil
	case 0x37:
		setFlag(s, bitC, true)
		return 4, nil
	case 0x38:
		return 4, nil // illegal: NOP alias
	case 0x39:
		execDad(s, s.SP)
		return 10, nil
	case 0x3A:
		s.A = m.Read(imm16(s, m))
		return 13, nil
	case 0x3B:
		s.SP--
		return 5, nil
	case 0x3C:
		s.A = execInr(s, s.A)
		return 5, nil
	case 0x3D:
		s.A = execDcr(s, s.A)
		return 5, nil
	case 0x3E:
		s.A = imm8(s, m)
		return 7, nil
	case 0x3F:
		setFlag(s, bitC, !flagSet(s, bitC))
		return 4, nil

	case 0xC0:
		return retIf(s, m, condTrue(s, 0)), nil
	case 0xC1:
		return popRP(s, m, 0), nil
	case 0xC2:
		return jumpIf(s, m, condTrue(s, 0)), nil
	case 0xC3:
		return jumpIf(s, m, true), nil
	case 0xC4:
		return callIf(s, m, condTrue(s, 0)), nil
	case 0xC5:
		return pushRP(s, m, 0), nil
	case 0xC6:
		execAdd(s, imm8(s, m))
		return 7, nil
	case 0xC7:
		return rst(s, m, 0), nil
	case 0xC8:
		return retIf(s, m, condTrue(s, 1)), nil
	case 0xC9:
		return ret(s, m), nil
	case 0xCA:
		return jumpIf(s, m, condTrue(s, 1)), nil
	case 0xCB:
		return jumpIf(s, m, true), nil // illegal: JMP alias
	case 0xCC:
		return callIf(s, m, condTrue(s, 1)), nil
	case 0xCD:
		return callIf(s, m, true), nil
	case 0xCE:
		execAdc(s, imm8(s, m))
		return 7, nil
	case 0xCF:
		return rst(s, m, 1), nil

	case 0xD0:
		return retIf(s, m, condTrue(s, 2)), nil
	case 0xD1:
		return popRP(s, m, 1), nil
	case 0xD2:
		return jumpIf(s, m, condTrue(s, 2)), nil
	case 0xD3:
		ports.Out(imm8(s, m), s.A)
		return 10, nil
	case 0xD4:
		return callIf(s, m, condTrue(s, 2)), nil
	case 0xD5:
		return pushRP(s, m, 1), nil
	case 0xD6:
		execSub(s, imm8(s, m))
		return 7, nil
	case 0xD7:
		return rst(s, m, 2), nil
	case 0xD8:
		return retIf(s, m, condTrue(s, 3)), nil
	case 0xD9:
		return ret(s, m), nil // illegal: RET alias
	case 0xDA:
		return jumpIf(s, m, condTrue(s, 3)), nil
	case 0xDB:
		s.A = ports.In(imm8(s, m))
		return 10, nil
	case 0xDC:
		return callIf(s, m, condTrue(s, 3)), nil
	case 0xDD:
		return callIf(s, m, true), nil // illegal: CALL alias
	case 0xDE:
		execSbb(s, imm8(s, m))
		return 7, nil
	case 0xDF:
		return rst(s, m, 3), nil

	case 0xE0:
		return retIf(s, m, condTrue(s, 4)), nil
	case 0xE1:
		return popRP(s, m, 2), nil
	case 0xE2:
		return jumpIf(s, m, condTrue(s, 4)), nil
	case 0xE3:
		lo := m.Read(s.SP)
		hi := m.Read(s.SP + 1)
		m.Write(s.SP, s.L)
		m.Write(s.SP+1, s.H)
		s.L, s.H = lo, hi
		return 18, nil
	case 0xE4:
		return callIf(s, m, condTrue(s, 4)), nil
	case 0xE5:
		return pushRP(s, m, 2), nil
	case 0xE6:
		execAnd(s, imm8(s, m))
		return 7, nil
	case 0xE7:
		return rst(s, m, 4), nil
	case 0xE8:
		return retIf(s, m, condTrue(s, 5)), nil
	case 0xE9:
		s.PC = s.HL()
		return 5, nil
	case 0xEA:
		return jumpIf(s, m, condTrue(s, 5)), nil
	case 0xEB:
		s.D, s.H = s.H, s.D
		s.E, s.L = s.L, s.E
		return 4, nil
	case 0xEC:
		return callIf(s, m, condTrue(s, 5)), nil
	case 0xED:
		return callIf(s, m, true), nil // illegal: CALL alias
	case 0xEE:
		execXor(s, imm8(s, m))
		return 7, nil
	case 0xEF:
		return rst(s, m, 5), nil

	case 0xF0:
		return retIf(s, m, condTrue(s, 6)), nil
	case 0xF1:
		word := pop(s, m)
		s.A = uint8(word >> 8)
		s.F = uint8(word)&fMaskOnPush | fFixedOnPush
		return 10, nil
	case 0xF2:
		return jumpIf(s, m, condTrue(s, 6)), nil
	case 0xF3:
		return 4, nil // DI: recognized, no observable state change
	case 0xF4:
		return callIf(s, m, condTrue(s, 6)), nil
	case 0xF5:
		push(s, m, uint16(s.A)<<8|uint16(s.F&fMaskOnPush|fFixedOnPush))
		return 11, nil
	case 0xF6:
		execOr(s, imm8(s, m))
		return 7, nil
	case 0xF7:
		return rst(s, m, 6), nil
	case 0xF8:
		return retIf(s, m, condTrue(s, 7)), nil
	case 0xF9:
		s.SP = s.HL()
		return 5, nil
	case 0xFA:
		return jumpIf(s, m, condTrue(s, 7)), nil
	case 0xFB:
		return 4, nil // EI: recognized, no observable state change
	case 0xFC:
		return callIf(s, m, condTrue(s, 7)), nil
	case 0xFD:
		return callIf(s, m, true), nil // illegal: CALL alias
	case 0xFE:
		execCmp(s, imm8(s, m))
		return 7, nil
	case 0xFF:
		return rst(s, m, 7), nil
	}

	return 0, &FaultError{Op: op, PC: s.PC - 1, Reason: "no dispatch entry for opcode"}
}
