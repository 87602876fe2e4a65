package pipeline

import (
	"github.com/rv32pipe/rv32pipe/emu/inst"
	"github.com/rv32pipe/rv32pipe/emu/mem"
)

// Fetcher resolves a PC to the next Instruction record. Both ingress
// paths described by the external interface (assembly mnemonics,
// binary RV32I encodings) reduce to this single method so the F stage
// never branches on ingress kind (the Open Question this spec leaves
// unresolved is answered here: one Fetcher interface, two
// implementations, selected once at wiring time).
type Fetcher interface {
	// Fetch returns the record at pc and ok=true, or ok=false once the
	// instruction stream is exhausted.
	Fetch(pc uint32) (inst.Record, bool)
}

// AssemblyFetcher serves a pre-decoded, densely packed instruction
// table addressed by (pc-Base)/4 — the shape produced by an external
// assembly-mnemonic feeder.
type AssemblyFetcher struct {
	Base     uint32
	Program  []inst.Record
}

// NewAssemblyFetcher returns a Fetcher over program, with program[0]
// located at base.
func NewAssemblyFetcher(base uint32, program []inst.Record) *AssemblyFetcher {
	return &AssemblyFetcher{Base: base, Program: program}
}

func (f *AssemblyFetcher) Fetch(pc uint32) (inst.Record, bool) {
	if pc < f.Base {
		return inst.Record{}, false
	}
	idx := (pc - f.Base) / 4
	if idx >= uint32(len(f.Program)) {
		return inst.Record{}, false
	}
	r := f.Program[idx]
	r.PC = pc
	return r, true
}

// BinaryFetcher decodes 32-bit little-endian RV32I words directly out
// of the shared byte memory, for images loaded by the ELF or raw-binary
// ingress path. It is exhausted only by a structurally invalid
// encoding (spec.md §7: structural errors are rejected before pipeline
// entry) or by reaching Limit.
type BinaryFetcher struct {
	Mem   *mem.Memory
	Limit uint32 // address one past the last valid instruction; 0 = unbounded
}

// NewBinaryFetcher returns a Fetcher decoding from m, stopping at limit
// (exclusive) if limit is nonzero.
func NewBinaryFetcher(m *mem.Memory, limit uint32) *BinaryFetcher {
	return &BinaryFetcher{Mem: m, Limit: limit}
}

func (f *BinaryFetcher) Fetch(pc uint32) (inst.Record, bool) {
	if f.Limit != 0 && pc >= f.Limit {
		return inst.Record{}, false
	}
	word := f.Mem.Load(pc, 4, false)
	r, ok := inst.DecodeBinary(word, pc)
	if !ok {
		return inst.Record{}, false
	}
	return r, true
}
