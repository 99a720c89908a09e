// Package inst provides static metadata about the 8080 instruction set —
// mnemonics, encoded length, and T-state cost — and a disassembler built
// from that metadata. Unlike a CPU whose encoding is opaque enough to
// need a synthetic opcode enum, the 8080's raw byte IS the opcode, so the
// catalog is simply indexed [0..255].
package inst

import "github.com/nsavage/i8080emu/pkg/mem"

// Info describes one opcode: its assembly mnemonic (with "n"/"nn"
// placeholders for operand bytes), its total encoded length including
// the opcode byte, and its T-state cost. Conditional control transfer
// opcodes carry the "taken" cost; Disassemble does not need the
// not-taken cost, only the engine does (see pkg/cpu).
type Info struct {
	Mnemonic string
	Len      uint8
	TStates  int
	Illegal  bool
}

// Catalog is indexed by raw opcode byte.
var Catalog [256]Info

var regNames = [8]string{"B", "C", "D", "E", "H", "L", "M", "A"}

func init() {
	for op := 0; op < 256; op++ {
		Catalog[op] = Info{Mnemonic: "???", Len: 1, TStates: 4}
	}

	// MOV family, 0x40-0x7F. 0x76 is HLT, not "MOV M,M".
	for op := 0x40; op <= 0x7F; op++ {
		if op == 0x76 {
			Catalog[op] = Info{Mnemonic: "HLT", Len: 1, TStates: 7}
			continue
		}
		dst := regNames[(op>>3)&7]
		src := regNames[op&7]
		t := 5
		if dst == "M" || src == "M" {
			t = 7
		}
		Catalog[op] = Info{Mnemonic: "MOV " + dst + "," + src, Len: 1, TStates: t}
	}

	// ALU-register family, 0x80-0xBF.
	aluNames := [8]string{"ADD", "ADC", "SUB", "SBB", "ANA", "XRA", "ORA", "CMP"}
	for op := 0x80; op <= 0xBF; op++ {
		fn := aluNames[(op>>3)&7]
		src := regNames[op&7]
		t := 4
		if src == "M" {
			t = 7
		}
		Catalog[op] = Info{Mnemonic: fn + " " + src, Len: 1, TStates: t}
	}

	for _, e := range fixedEntries {
		Catalog[e.op] = Info{Mnemonic: e.mnemonic, Len: e.length, TStates: e.tstates, Illegal: e.illegal}
	}
}

type fixedEntry struct {
	op       uint8
	mnemonic string
	length   uint8
	tstates  int
	illegal  bool
}

var fixedEntries = []fixedEntry{
	{0x00, "NOP", 1, 4, false},
	{0x01, "LXI B,nn", 3, 10, false},
	{0x02, "STAX B", 1, 7, false},
	{0x03, "INX B", 1, 5, false},
	{0x04, "INR B", 1, 5, false},
	{0x05, "DCR B", 1, 5, false},
	{0x06, "MVI B,n", 2, 7, false},
	{0x07, "RLC", 1, 4, false},
	{0x08, "NOP", 1, 4, true},
	{0x09, "DAD B", 1, 10, false},
	{0x0A, "LDAX B", 1, 7, false},
	{0x0B, "DCX B", 1, 5, false},
	{0x0C, "INR C", 1, 5, false},
	{0x0D, "DCR C", 1, 5, false},
	{0x0E, "MVI C,n", 2, 7, false},
	{0x0F, "RRC", 1, 4, false},

	{0x10, "NOP", 1, 4, true},
	{0x11, "LXI D,nn", 3, 10, false},
	{0x12, "STAX D", 1, 7, false},
	{0x13, "INX D", 1, 5, false},
	{0x14, "INR D", 1, 5, false},
	{0x15, "DCR D", 1, 5, false},
	{0x16, "MVI D,n", 2, 7, false},
	{0x17, "RAL", 1, 4, false},
	{0x18, "NOP", 1, 4, true},
	{0x19, "DAD D", 1, 10, false},
	{0x1A, "LDAX D", 1, 7, false},
	{0x1B, "DCX D", 1, 5, false},
	{0x1C, "INR E", 1, 5, false},
	{0x1D, "DCR E", 1, 5, false},
	{0x1E, "MVI E,n", 2, 7, false},
	{0x1F, "RAR", 1, 4, false},

	{0x20, "NOP", 1, 4, true},
	{0x21, "LXI H,nn", 3, 10, false},
	{0x22, "SHLD nn", 3, 16, false},
	{0x23, "INX H", 1, 5, false},
	{0x24, "INR H", 1, 5, false},
	{0x25, "DCR H", 1, 5, false},
	{0x26, "MVI H,n", 2, 7, false},
	{0x27, "DAA", 1, 4, false},
	{0x28, "NOP", 1, 4, true},
	{0x29, "DAD H", 1, 10, false},
	{0x2A, "LHLD nn", 3, 16, false},
	{0x2B, "DCX H", 1, 5, false},
	{0x2C, "INR L", 1, 5, false},
	{0x2D, "DCR L", 1, 5, false},
	{0x2E, "MVI L,n", 2, 7, false},
	{0x2F, "CMA", 1, 4, false},

	{0x30, "NOP", 1, 4, true},
	{0x31, "LXI SP,nn", 3, 10, false},
	{0x32, "STA nn", 3, 13, false},
	{0x33, "INX SP", 1, 5, false},
	{0x34, "INR M", 1, 10, false},
	{0x35, "DCR M", 1, 10, false},
	{0x36, "MVI M,n", 2, 10, false},
	{0x37, "STC", 1, 4, false},
	{0x38, "NOP", 1, 4, true},
	{0x39, "DAD SP", 1, 10, false},
	{0x3A, "LDA nn", 3, 13, false},
	{0x3B, "DCX SP", 1, 5, false},
	{0x3C, "INR A", 1, 5, false},
	{0x3D, "DCR A", 1, 5, false},
	{0x3E, "MVI A,n", 2, 7, false},
	{0x3F, "CMC", 1, 4, false},

	{0xC0, "RNZ", 1, 11, false},
	{0xC1, "POP B", 1, 10, false},
	{0xC2, "JNZ nn", 3, 10, false},
	{0xC3, "JMP nn", 3, 10, false},
	{0xC4, "CNZ nn", 3, 17, false},
	{0xC5, "PUSH B", 1, 11, false},
	{0xC6, "ADI n", 2, 7, false},
	{0xC7, "RST 0", 1, 11, false},
	{0xC8, "RZ", 1, 11, false},
	{0xC9, "RET", 1, 10, false},
	{0xCA, "JZ nn", 3, 10, false},
	{0xCB, "JMP nn", 3, 10, true},
	{0xCC, "CZ nn", 3, 17, false},
	{0xCD, "CALL nn", 3, 17, false},
	{0xCE, "ACI n", 2, 7, false},
	{0xCF, "RST 1", 1, 11, false},

	{0xD0, "RNC", 1, 11, false},
	{0xD1, "POP D", 1, 10, false},
	{0xD2, "JNC nn", 3, 10, false},
	{0xD3, "OUT n", 2, 10, false},
	{0xD4, "CNC nn", 3, 17, false},
	{0xD5, "PUSH D", 1, 11, false},
	{0xD6, "SUI n", 2, 7, false},
	{0xD7, "RST 2", 1, 11, false},
	{0xD8, "RC", 1, 11, false},
	{0xD9, "RET", 1, 10, true},
	{0xDA, "JC nn", 3, 10, false},
	{0xDB, "IN n", 2, 10, false},
	{0xDC, "CC nn", 3, 17, false},
	{0xDD, "CALL nn", 3, 17, true},
	{0xDE, "SBI n", 2, 7, false},
	{0xDF, "RST 3", 1, 11, false},

	{0xE0, "RPO", 1, 11, false},
	{0xE1, "POP H", 1, 10, false},
	{0xE2, "JPO nn", 3, 10, false},
	{0xE3, "XTHL", 1, 18, false},
	{0xE4, "CPO nn", 3, 17, false},
	{0xE5, "PUSH H", 1, 11, false},
	{0xE6, "ANI n", 2, 7, false},
	{0xE7, "RST 4", 1, 11, false},
	{0xE8, "RPE", 1, 11, false},
	{0xE9, "PCHL", 1, 5, false},
	{0xEA, "JPE nn", 3, 10, false},
	{0xEB, "XCHG", 1, 4, false},
	{0xEC, "CPE nn", 3, 17, false},
	{0xED, "CALL nn", 3, 17, true},
	{0xEE, "XRI n", 2, 7, false},
	{0xEF, "RST 5", 1, 11, false},

	{0xF0, "RP", 1, 11, false},
	{0xF1, "POP PSW", 1, 10, false},
	{0xF2, "JP nn", 3, 10, false},
	{0xF3, "DI", 1, 4, false},
	{0xF4, "CP nn", 3, 17, false},
	{0xF5, "PUSH PSW", 1, 11, false},
	{0xF6, "ORI n", 2, 7, false},
	{0xF7, "RST 6", 1, 11, false},
	{0xF8, "RM", 1, 11, false},
	{0xF9, "SPHL", 1, 5, false},
	{0xFA, "JM nn", 3, 10, false},
	{0xFB, "EI", 1, 4, false},
	{0xFC, "CM nn", 3, 17, false},
	{0xFD, "CALL nn", 3, 17, true},
	{0xFE, "CPI n", 2, 7, false},
	{0xFF, "RST 7", 1, 11, false},
}

// Disassemble renders the instruction at addr and returns the text along
// with the address of the following instruction.
func Disassemble(m mem.Memory, addr uint16) (string, uint16) {
	op := m.Read(addr)
	info := Catalog[op]
	switch info.Len {
	case 2:
		return disasmImm8(info.Mnemonic, m.Read(addr+1)), addr + 2
	case 3:
		return disasmImm16(info.Mnemonic, m.ReadWord(addr+1)), addr + 3
	default:
		return info.Mnemonic, addr + 1
	}
}

func disasmImm8(mnemonic string, imm uint8) string {
	buf := make([]byte, 0, len(mnemonic)+4)
	for i := 0; i < len(mnemonic); i++ {
		if mnemonic[i] == 'n' {
			buf = appendHex8(buf, imm)
		} else {
			buf = append(buf, mnemonic[i])
		}
	}
	return string(buf)
}

func disasmImm16(mnemonic string, imm uint16) string {
	buf := make([]byte, 0, len(mnemonic)+6)
	for i := 0; i < len(mnemonic); i++ {
		if i+1 < len(mnemonic) && mnemonic[i] == 'n' && mnemonic[i+1] == 'n' {
			buf = appendHex16(buf, imm)
			i++
		} else if mnemonic[i] != 'n' {
			buf = append(buf, mnemonic[i])
		}
	}
	return string(buf)
}

func appendHex8(buf []byte, v uint8) []byte {
	const hex = "0123456789ABCDEF"
	if v >= 0xA0 {
		buf = append(buf, '0')
	}
	return append(buf, hex[v>>4], hex[v&0x0F], 'h')
}

func appendHex16(buf []byte, v uint16) []byte {
	const hex = "0123456789ABCDEF"
	if v>>12 >= 0xA {
		buf = append(buf, '0')
	}
	return append(buf, hex[v>>12], hex[(v>>8)&0x0F], hex[(v>>4)&0x0F], hex[v&0x0F], 'h')
}
