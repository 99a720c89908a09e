// Command i8080 runs, disassembles, and checks programs for the Intel
// 8080 interpreter in pkg/cpu.
package main

import (
	"fmt"
	"os"

	"github.com/nsavage/i8080emu/pkg/conformance"
	"github.com/nsavage/i8080emu/pkg/cpm"
	"github.com/nsavage/i8080emu/pkg/cpu"
	"github.com/nsavage/i8080emu/pkg/fuzz"
	"github.com/nsavage/i8080emu/pkg/inst"
	"github.com/nsavage/i8080emu/pkg/loader"
	"github.com/nsavage/i8080emu/pkg/mem"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "i8080",
		Short: "Intel 8080 interpreter — run, disassemble, and check CP/M-style COM images",
	}

	rootCmd.AddCommand(newRunCmd(), newDisasmCmd(), newConformanceCmd(), newFuzzCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	var origin uint16
	var trace bool
	var maxInstructions int
	var strictIllegal bool
	var haltExits bool

	cmd := &cobra.Command{
		Use:   "run [file.com]",
		Short: "Load a CP/M-style COM image at 0x100 and run it to completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := mem.NewFlatMemory()
			if _, err := loader.LoadFile(m, args[0], origin); err != nil {
				return fmt.Errorf("run: %w", err)
			}

			h := cpm.NewHarness(m, os.Stdout)
			s := cpu.New()
			s.PC = origin
			s.SP = 0xFFFE
			s.StrictIllegal = strictIllegal
			s.HaltExits = haltExits

			for s.Signal != cpu.SignalExit {
				if trace {
					fmt.Fprintln(os.Stderr, cpu.Dump(s, m))
				}
				if _, err := cpu.Exec(s, m, h); err != nil {
					return fmt.Errorf("run: %w", err)
				}
				h.ServiceStep(s)
				if maxInstructions > 0 {
					maxInstructions--
					if maxInstructions == 0 {
						return fmt.Errorf("run: instruction limit reached without halting")
					}
				}
			}

			fmt.Printf("\n%s\n", cpu.DumpFlags(s))
			return nil
		},
	}
	cmd.Flags().Uint16Var(&origin, "origin", 0x0100, "load address, also the initial PC")
	cmd.Flags().BoolVarP(&trace, "trace", "t", false, "print a state dump before every instruction")
	cmd.Flags().IntVar(&maxInstructions, "max-instructions", 0, "abort after N instructions (0 = unlimited)")
	cmd.Flags().BoolVar(&strictIllegal, "strict-illegal", false, "fault on undocumented opcodes instead of aliasing them")
	cmd.Flags().BoolVar(&haltExits, "halt-exits", false, "treat HLT as a program exit instead of a no-op (non-CP/M convention)")
	return cmd
}

func newDisasmCmd() *cobra.Command {
	var origin uint16
	cmd := &cobra.Command{
		Use:   "disasm [file.com]",
		Short: "Disassemble a raw binary image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := mem.NewFlatMemory()
			n, err := loader.LoadFile(m, args[0], origin)
			if err != nil {
				return fmt.Errorf("disasm: %w", err)
			}
			addr := origin
			end := origin + uint16(n)
			for addr < end {
				text, next := inst.Disassemble(m, addr)
				fmt.Printf("%04X  %s\n", addr, text)
				if next <= addr {
					break // guard against a malformed table entry looping forever
				}
				addr = next
			}
			return nil
		},
	}
	cmd.Flags().Uint16Var(&origin, "origin", 0x0100, "address of the first byte in the file")
	return cmd
}

func newConformanceCmd() *cobra.Command {
	var workers int
	var verbose bool
	cmd := &cobra.Command{
		Use:   "conformance",
		Short: "Exhaustively check ALU flag computation against independent reference formulas",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool := conformance.NewWorkerPool(workers)
			report := pool.Run(conformance.StandardProperties(), verbose)
			violations := report.Violations()
			for _, v := range violations {
				fmt.Println(v)
			}
			fmt.Printf("%d properties checked, %d violations\n", report.Checked(), len(violations))
			if len(violations) > 0 {
				return fmt.Errorf("conformance: %d violations found", len(violations))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 0, "number of workers (0 = 1)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print progress while checking")
	return cmd
}

func newFuzzCmd() *cobra.Command {
	var seed int64
	var iterations int
	var programLen int
	var maxCycles uint64
	var strictIllegal bool
	var includeIllegal bool

	cmd := &cobra.Command{
		Use:   "fuzz",
		Short: "Generate and run random instruction streams, reporting any engine anomalies",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := fuzz.Config{
				Seed:        seed,
				Iterations:  iterations,
				ProgramLen:  programLen,
				MaxCycles:   maxCycles,
				Illegal:     includeIllegal,
				StrictCheck: strictIllegal,
			}
			findings := fuzz.Run(cfg)
			for _, f := range findings {
				fmt.Println(f)
			}
			fmt.Printf("%d iterations, %d findings\n", iterations, len(findings))
			return nil
		},
	}
	cmd.Flags().Int64Var(&seed, "seed", 1, "PRNG seed")
	cmd.Flags().IntVar(&iterations, "iterations", 1000, "number of random programs to run")
	cmd.Flags().IntVar(&programLen, "program-len", 32, "instructions per generated program")
	cmd.Flags().Uint64Var(&maxCycles, "max-cycles", 100000, "T-state budget before a program counts as hung")
	cmd.Flags().BoolVar(&strictIllegal, "strict-illegal", false, "fault on undocumented opcodes instead of aliasing them")
	cmd.Flags().BoolVar(&includeIllegal, "illegal", false, "also generate the twelve undocumented opcodes")
	return cmd
}
