package cpu

import (
	"testing"

	"github.com/nsavage/i8080emu/pkg/io"
	"github.com/nsavage/i8080emu/pkg/mem"
)

func TestLxiAndMov(t *testing.T) {
	m := mem.NewFlatMemory()
	// LXI H, 0x1234 ; MOV A, H ; MOV B, A
	prog := []uint8{0x21, 0x34, 0x12, 0x7C, 0x47}
	for i, b := range prog {
		m.Write(uint16(i), b)
	}
	s := New()
	bus := io.NullBus{}
	for s.PC < uint16(len(prog)) {
		if _, err := Exec(s, m, bus); err != nil {
			t.Fatalf("Exec: %v", err)
		}
	}
	if s.HL() != 0x1234 {
		t.Errorf("HL = %04X, want 1234", s.HL())
	}
	if s.A != 0x12 {
		t.Errorf("A = %02X, want 12", s.A)
	}
	if s.B != 0x12 {
		t.Errorf("B = %02X, want 12", s.B)
	}
}

func TestDaa(t *testing.T) {
	tests := []struct {
		name    string
		a       uint8
		fIn     uint8
		wantA   uint8
		wantC   bool
		wantAC  bool
		wantZ   bool
		wantS   bool
		wantP   bool
	}{
		{"low and high nibble", 0x9B, 0x02, 0x01, true, true, false, false, false},
		{"already valid BCD", 0x00, 0x02, 0x00, false, false, true, false, true},
		{"low nibble only", 0x8A, 0x02, 0x90, false, true, false, true, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := New()
			s.A = tc.a
			s.F = tc.fIn
			execDaa(s)
			if s.A != tc.wantA {
				t.Errorf("A = %02X, want %02X", s.A, tc.wantA)
			}
			if (s.F&FlagC != 0) != tc.wantC {
				t.Errorf("C = %v, want %v", s.F&FlagC != 0, tc.wantC)
			}
			if (s.F&FlagAC != 0) != tc.wantAC {
				t.Errorf("AC = %v, want %v", s.F&FlagAC != 0, tc.wantAC)
			}
			if (s.F&FlagZ != 0) != tc.wantZ {
				t.Errorf("Z = %v, want %v", s.F&FlagZ != 0, tc.wantZ)
			}
			if (s.F&FlagS != 0) != tc.wantS {
				t.Errorf("S = %v, want %v", s.F&FlagS != 0, tc.wantS)
			}
			if (s.F&FlagP != 0) != tc.wantP {
				t.Errorf("P = %v, want %v", s.F&FlagP != 0, tc.wantP)
			}
		})
	}
}

func TestDadOverflow(t *testing.T) {
	s := New()
	s.SetHL(0xFFFF)
	s.SetBC(0x0001)
	execDad(s, s.BC())
	if s.HL() != 0x0000 {
		t.Errorf("HL = %04X, want 0000", s.HL())
	}
	if s.F&FlagC == 0 {
		t.Error("carry should be set on 16-bit overflow")
	}
}

func TestPushPopPswMasksReservedBits(t *testing.T) {
	m := mem.NewFlatMemory()
	s := New()
	s.SP = 0x2000
	s.A = 0x42
	s.F = 0xFF // every bit set, including the three that must not survive
	if _, err := execMisc(s, m, io.NullBus{}, 0xF5); err != nil { // PUSH PSW
		t.Fatalf("PUSH PSW: %v", err)
	}
	s.A, s.F = 0, 0
	if _, err := execMisc(s, m, io.NullBus{}, 0xF1); err != nil { // POP PSW
		t.Fatalf("POP PSW: %v", err)
	}
	if s.A != 0x42 {
		t.Errorf("A = %02X, want 42", s.A)
	}
	want := uint8(0xD7 | 0x02) // only real flag bits plus the fixed bit survive
	if s.F != want {
		t.Errorf("F = %02X, want %02X", s.F, want)
	}
}

func TestCallRetRoundTrip(t *testing.T) {
	m := mem.NewFlatMemory()
	// at 0x0000: CALL 0x0010 ; HLT
	m.Write(0x0000, 0xCD)
	m.WriteWord(0x0001, 0x0010)
	m.Write(0x0003, 0x76)
	// at 0x0010: RET
	m.Write(0x0010, 0xC9)

	s := New()
	s.SP = 0x2000
	s.HaltExits = true
	bus := io.NullBus{}

	if _, err := Exec(s, m, bus); err != nil { // CALL
		t.Fatalf("CALL: %v", err)
	}
	if s.PC != 0x0010 {
		t.Fatalf("after CALL, PC = %04X, want 0010", s.PC)
	}
	if _, err := Exec(s, m, bus); err != nil { // RET
		t.Fatalf("RET: %v", err)
	}
	if s.PC != 0x0003 {
		t.Fatalf("after RET, PC = %04X, want 0003", s.PC)
	}
	if s.SP != 0x2000 {
		t.Fatalf("after RET, SP = %04X, want 2000", s.SP)
	}
	if s.Cycles != 27 { // CALL (17) + unconditional RET (10), not 11
		t.Fatalf("after CALL+RET, Cycles = %d, want 27", s.Cycles)
	}
	if _, err := Exec(s, m, bus); err != nil { // HLT
		t.Fatalf("HLT: %v", err)
	}
	if s.Signal != SignalExit {
		t.Error("HLT with HaltExits should raise SignalExit")
	}
}

func TestSubUnderflowBorrow(t *testing.T) {
	s := New()
	s.A = 0x00
	execSub(s, 0x01)
	if s.A != 0xFF {
		t.Errorf("A = %02X, want FF", s.A)
	}
	if s.F&FlagC == 0 {
		t.Error("borrow should set carry on 0x00 - 0x01")
	}
}

func TestAndAuxCarryQuirk(t *testing.T) {
	// Documented 8080 quirk: ANA's AC bit is bit 3 of (A | operand), not a
	// "real" carry-out-of-bit-3 computation.
	s := New()
	s.A = 0x00
	execAnd(s, 0x0F) // A|operand = 0x0F, bit3 = 1
	if s.F&FlagAC == 0 {
		t.Error("AC should be set: bit 3 of (A|operand) is 1")
	}
	if s.A != 0x00 {
		t.Errorf("A = %02X, want 00", s.A)
	}
}

func TestIllegalOpcodeAliasing(t *testing.T) {
	m := mem.NewFlatMemory()
	m.Write(0, 0xDD) // illegal: aliased to CALL
	m.WriteWord(1, 0x0050)
	s := New()
	s.SP = 0x2000
	if _, err := Exec(s, m, io.NullBus{}); err != nil {
		t.Fatalf("aliased illegal opcode should not fault: %v", err)
	}
	if s.PC != 0x0050 {
		t.Errorf("PC = %04X, want 0050 (0xDD aliases to CALL)", s.PC)
	}
}

func TestStrictIllegalFaults(t *testing.T) {
	m := mem.NewFlatMemory()
	m.Write(0, 0xDD)
	s := New()
	s.StrictIllegal = true
	_, err := Exec(s, m, io.NullBus{})
	if err == nil {
		t.Fatal("expected a FaultError with StrictIllegal set")
	}
	if _, ok := err.(*FaultError); !ok {
		t.Errorf("err type = %T, want *FaultError", err)
	}
}

func TestInrDcrDoNotTouchCarry(t *testing.T) {
	s := New()
	s.F = FlagC
	s.B = 0xFF
	s.B = execInr(s, s.B)
	if s.F&FlagC == 0 {
		t.Error("INR must not clear a pre-existing carry")
	}
	if s.B != 0x00 {
		t.Errorf("B = %02X, want 00", s.B)
	}
	if s.F&FlagZ == 0 {
		t.Error("INR wrapping to 0 should set Z")
	}
	s.B = execDcr(s, s.B)
	if s.F&FlagC == 0 {
		t.Error("DCR must not clear a pre-existing carry")
	}
	if s.B != 0xFF {
		t.Errorf("B = %02X, want FF", s.B)
	}
}
