package cpm

import (
	"bytes"
	"testing"

	"github.com/nsavage/i8080emu/pkg/cpu"
	"github.com/nsavage/i8080emu/pkg/mem"
)

func TestPrintChar(t *testing.T) {
	m := mem.NewFlatMemory()
	var out bytes.Buffer
	h := NewHarness(m, &out)

	// MVI C,2 ; MVI E,'!' ; CALL 0x0005 ; JMP 0x0000 (warm boot)
	prog := []uint8{0x0E, 0x02, 0x1E, '!', 0xCD, 0x05, 0x00, 0xC3, 0x00, 0x00}
	for i, b := range prog {
		m.Write(0x0100+uint16(i), b)
	}

	s := cpu.New()
	s.PC = 0x0100
	s.SP = 0x2000

	if err := h.Step(s); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if out.String() != "!" {
		t.Errorf("output = %q, want %q", out.String(), "!")
	}
}

func TestPrintString(t *testing.T) {
	m := mem.NewFlatMemory()
	var out bytes.Buffer
	h := NewHarness(m, &out)

	msg := "hi$"
	for i := 0; i < len(msg); i++ {
		m.Write(0x0200+uint16(i), msg[i])
	}

	// MVI C,9 ; LXI D,0x0200 ; CALL 0x0005 ; JMP 0x0000
	prog := []uint8{0x0E, 0x09, 0x11, 0x00, 0x02, 0xCD, 0x05, 0x00, 0xC3, 0x00, 0x00}
	for i, b := range prog {
		m.Write(0x0100+uint16(i), b)
	}

	s := cpu.New()
	s.PC = 0x0100
	s.SP = 0x2000

	if err := h.Step(s); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if out.String() != "hi" {
		t.Errorf("output = %q, want %q", out.String(), "hi")
	}
}
