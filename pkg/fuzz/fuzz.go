// Package fuzz generates randomized 8080 instruction streams and runs
// them to look for engine anomalies: an unexpected fault, or a run that
// never terminates within its cycle budget. It replaces the teacher's MCMC
// superoptimizer search with something appropriate to an interpreter
// instead of a candidate-sequence search — there is no "better"
// instruction sequence to hill-climb toward here, only "does this
// sequence execute without the engine going off the rails."
package fuzz

import (
	"fmt"
	"math/rand"

	"github.com/nsavage/i8080emu/pkg/cpu"
	"github.com/nsavage/i8080emu/pkg/io"
	"github.com/nsavage/i8080emu/pkg/mem"
)

// illegalOpcodes are the twelve undocumented bytes, aliased by Exec to
// a documented instruction rather than faulting.
var illegalOpcodes = map[uint8]bool{
	0x08: true, 0x10: true, 0x18: true, 0x20: true, 0x28: true, 0x30: true,
	0x38: true, 0xCB: true, 0xD9: true, 0xDD: true, 0xED: true, 0xFD: true,
}

// legalOpcodes excludes the twelve undocumented bytes so a fuzz run
// exercises the documented instruction set by default; Config.Illegal
// opts into also emitting the aliased forms via allOpcodes.
var legalOpcodes = func() []uint8 {
	ops := make([]uint8, 0, 244)
	for op := 0; op < 256; op++ {
		if !illegalOpcodes[uint8(op)] {
			ops = append(ops, uint8(op))
		}
	}
	return ops
}()

// allOpcodes is every byte 0x00-0xFF, legal and aliased alike.
var allOpcodes = func() []uint8 {
	ops := make([]uint8, 256)
	for op := 0; op < 256; op++ {
		ops[op] = uint8(op)
	}
	return ops
}()

// Config parameterizes a fuzz run.
type Config struct {
	Seed        int64
	Iterations  int
	ProgramLen  int
	MaxCycles   uint64
	Illegal     bool // also emit the twelve undocumented opcodes
	StrictCheck bool // set State.StrictIllegal on the generated CPU
}

// Finding describes one fuzz iteration that tripped an anomaly.
type Finding struct {
	Seed    int64
	Program []uint8
	Reason  string
}

func (f Finding) String() string {
	return fmt.Sprintf("seed=%d len=%d: %s (program: % 02X)", f.Seed, len(f.Program), f.Reason, f.Program)
}

// Run generates cfg.Iterations random programs, executes each for up to
// cfg.MaxCycles T-states, and returns every iteration that produced an
// anomaly: a fault, or exceeding the cycle budget before HLT. PC and SP
// are not range-checked; as uint16 values they wrap rather than leave
// the address space.
func Run(cfg Config) []Finding {
	if cfg.ProgramLen <= 0 {
		cfg.ProgramLen = 32
	}
	if cfg.MaxCycles == 0 {
		cfg.MaxCycles = 100_000
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	var findings []Finding

	for i := 0; i < cfg.Iterations; i++ {
		seed := rng.Int63()
		prog := generateProgram(rand.New(rand.NewSource(seed)), cfg)
		if reason, bad := runOne(prog, cfg); bad {
			findings = append(findings, Finding{Seed: seed, Program: prog, Reason: reason})
		}
	}
	return findings
}

func generateProgram(r *rand.Rand, cfg Config) []uint8 {
	pool := legalOpcodes
	if cfg.Illegal {
		pool = allOpcodes
	}
	prog := make([]uint8, 0, cfg.ProgramLen*3)
	for len(prog) < cfg.ProgramLen {
		op := pool[r.Intn(len(pool))]
		prog = append(prog, op)
		switch instByteLen(op) {
		case 2:
			prog = append(prog, uint8(r.Intn(256)))
		case 3:
			prog = append(prog, uint8(r.Intn(256)), uint8(r.Intn(256)))
		}
	}
	prog = append(prog, 0x76) // HLT terminator
	return prog
}

// instByteLen reports an opcode's encoded length without importing
// pkg/inst's mnemonic table, since fuzz only needs the length to know
// how many operand bytes to synthesize.
func instByteLen(op uint8) int {
	switch op {
	case 0x01, 0x11, 0x21, 0x31, // LXI
		0x22, 0x2A, 0x32, 0x3A, // SHLD/LHLD/STA/LDA
		0xC2, 0xC3, 0xC4, 0xCA, 0xCB, 0xCC, 0xCD, // JNZ/JMP/CNZ/JZ/JMP alias/CZ/CALL
		0xD2, 0xD4, 0xDA, 0xDC, 0xDD,
		0xE2, 0xE4, 0xEA, 0xEC, 0xED,
		0xF2, 0xF4, 0xFA, 0xFC, 0xFD:
		return 3
	case 0x06, 0x0E, 0x16, 0x1E, 0x26, 0x2E, 0x36, 0x3E, // MVI
		0xC6, 0xCE, 0xD3, 0xD6, 0xDB, 0xDE, 0xE6, 0xEE, 0xF6, 0xFE: // immediate ALU / IN / OUT
		return 2
	}
	return 1
}

func runOne(prog []uint8, cfg Config) (string, bool) {
	m := mem.NewFlatMemory()
	for i, b := range prog {
		m.Write(uint16(i), b)
	}
	s := cpu.New()
	s.StrictIllegal = cfg.StrictCheck
	s.HaltExits = true
	bus := io.NullBus{}

	for s.Signal != cpu.SignalExit {
		if s.Cycles > cfg.MaxCycles {
			return "exceeded cycle budget without halting", true
		}
		if _, err := cpu.Exec(s, m, bus); err != nil {
			return err.Error(), true
		}
	}
	return "", false
}
