package mem

import "testing"

func TestReadWriteWord(t *testing.T) {
	m := NewFlatMemory()
	m.WriteWord(0x2000, 0x1234)

	if got := m.Read(0x2000); got != 0x34 {
		t.Errorf("low byte: got %02X, want 34", got)
	}
	if got := m.Read(0x2001); got != 0x12 {
		t.Errorf("high byte: got %02X, want 12", got)
	}
	if got := m.ReadWord(0x2000); got != 0x1234 {
		t.Errorf("ReadWord: got %04X, want 1234", got)
	}
}

func TestAddressWrap(t *testing.T) {
	m := NewFlatMemory()
	m.Write(0xFFFF, 0xAB)
	m.Write(0x0000, 0xCD)

	if got := m.ReadWord(0xFFFF); got != 0xCDAB {
		t.Errorf("wrap-around ReadWord: got %04X, want CDAB", got)
	}
}

func TestEveryAddressValid(t *testing.T) {
	m := NewFlatMemory()
	for _, addr := range []uint16{0x0000, 0x0001, 0x7FFF, 0x8000, 0xFFFE, 0xFFFF} {
		m.Write(addr, 0x42)
		if got := m.Read(addr); got != 0x42 {
			t.Errorf("addr %04X: got %02X, want 42", addr, got)
		}
	}
}
