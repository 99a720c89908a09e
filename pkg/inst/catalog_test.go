package inst

import (
	"testing"

	"github.com/nsavage/i8080emu/pkg/mem"
)

func TestCatalogCoversEveryByte(t *testing.T) {
	for op := 0; op < 256; op++ {
		if Catalog[op].Mnemonic == "???" {
			t.Errorf("opcode %02X has no catalog entry", op)
		}
		if Catalog[op].Len < 1 || Catalog[op].Len > 3 {
			t.Errorf("opcode %02X has implausible length %d", op, Catalog[op].Len)
		}
	}
}

func TestIllegalOpcodesFlagged(t *testing.T) {
	illegal := []uint8{0x08, 0x10, 0x18, 0x20, 0x28, 0x30, 0x38, 0xCB, 0xD9, 0xDD, 0xED, 0xFD}
	for _, op := range illegal {
		if !Catalog[op].Illegal {
			t.Errorf("opcode %02X should be flagged illegal", op)
		}
	}
	if Catalog[0x00].Illegal {
		t.Error("NOP (0x00) should not be flagged illegal")
	}
}

func TestDisassemble(t *testing.T) {
	m := mem.NewFlatMemory()
	m.Write(0, 0x3E) // MVI A,n
	m.Write(1, 0x42)
	m.Write(2, 0x21) // LXI H,nn
	m.WriteWord(3, 0x1234)
	m.Write(5, 0x76) // HLT

	text, next := Disassemble(m, 0)
	if text != "MVI A,42h" {
		t.Errorf("got %q, want MVI A,42h", text)
	}
	if next != 2 {
		t.Errorf("next = %d, want 2", next)
	}

	text, next = Disassemble(m, 2)
	if text != "LXI H,1234h" {
		t.Errorf("got %q, want LXI H,1234h", text)
	}
	if next != 5 {
		t.Errorf("next = %d, want 5", next)
	}

	text, next = Disassemble(m, 5)
	if text != "HLT" {
		t.Errorf("got %q, want HLT", text)
	}
	if next != 6 {
		t.Errorf("next = %d, want 6", next)
	}
}

func TestMovAndAluMnemonics(t *testing.T) {
	if Catalog[0x41].Mnemonic != "MOV B,C" {
		t.Errorf("0x41 = %q, want MOV B,C", Catalog[0x41].Mnemonic)
	}
	if Catalog[0x76].Mnemonic != "HLT" {
		t.Errorf("0x76 = %q, want HLT", Catalog[0x76].Mnemonic)
	}
	if Catalog[0x80].Mnemonic != "ADD B" {
		t.Errorf("0x80 = %q, want ADD B", Catalog[0x80].Mnemonic)
	}
	if Catalog[0xBF].Mnemonic != "CMP A" {
		t.Errorf("0xBF = %q, want CMP A", Catalog[0xBF].Mnemonic)
	}
}
