/*
 * rv32pipe - Decoded instruction record
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package inst defines the decoded instruction record shared by both
// ingress paths (assembly feeder, binary decoder) and mutated in place
// by the execution unit. Op is a closed enumeration rather than an
// open string mnemonic so the pipeline's category checks (IsBranch,
// IsLoad, ...) are a field lookup, not a parse.
package inst

// Op identifies one of the 40 RV32I operations, MRET, or BUBBLE.
type Op int

const (
	OpBubble Op = iota

	// R-type arithmetic/logic.
	OpADD
	OpSUB
	OpSLL
	OpSLT
	OpSLTU
	OpXOR
	OpSRL
	OpSRA
	OpOR
	OpAND

	// I-type arithmetic/logic.
	OpADDI
	OpSLTI
	OpSLTIU
	OpXORI
	OpORI
	OpANDI
	OpSLLI
	OpSRLI
	OpSRAI

	// U-type.
	OpLUI
	OpAUIPC

	// Jumps.
	OpJAL
	OpJALR

	// Branches.
	OpBEQ
	OpBNE
	OpBLT
	OpBGE
	OpBLTU
	OpBGEU

	// Loads.
	OpLB
	OpLH
	OpLW
	OpLBU
	OpLHU

	// Stores.
	OpSB
	OpSH
	OpSW

	// Memory ordering (no-ops here).
	OpFENCE
	OpFENCEI

	// System.
	OpECALL
	OpEBREAK
	OpMRET

	// CSR.
	OpCSRRW
	OpCSRRS
	OpCSRRC
	OpCSRRWI
	OpCSRRSI
	OpCSRRCI
)

// RegNone marks an absent register operand (destination or source).
const RegNone = -1

// BranchPred identifies the comparison a branch op evaluates.
type BranchPred int

const (
	PredEQ BranchPred = iota
	PredNE
	PredLT
	PredGE
	PredLTU
	PredGEU
)

// Flags carries the category bits a non-bubble record falls into. A
// record has exactly one operation, but IsLoad/IsStore/IsBranch/IsJump/
// IsCSR/IsSystem/IsBubble let the pipeline and hazard detector switch on
// shape without a type assertion back to Op.
type Flags struct {
	IsJump   bool
	IsBranch bool
	IsLoad   bool
	IsStore  bool
	IsCSR    bool
	IsSystem bool
	IsBubble bool
}

// ResultKind tags which variant of Result is populated.
type ResultKind int

const (
	ResultNone ResultKind = iota
	ResultArithmetic
	ResultBranch
	ResultJump
	ResultLoad
	ResultStore
	ResultCSR
	ResultTrap
)

// Result is the mutable descriptor EXE populates at X and later stages
// consume. Only the field matching Kind is meaningful.
type Result struct {
	Kind ResultKind

	// ResultArithmetic: Value is written to Dest at W.
	Value uint32

	// ResultBranch.
	BranchTaken bool
	Target      uint32

	// ResultJump: Target is the jump destination, LinkValue -> Dest.
	LinkValue uint32

	// ResultLoad / ResultStore.
	Addr   uint32
	Width  int
	Signed bool

	// ResultLoad: populated by MEM in the M stage.
	LoadedValue uint32
	// ResultStore: populated by MEM in the M stage, read from the
	// register file at that point rather than sampled at Execute (see
	// emu/exec.store).
	StoreData uint32

	// ResultCSR.
	CSRAddr   uint32
	CSROp     CSROp
	CSROperand uint32
	Suppress  bool // zero-operand shortcut: sample only, never write.

	// ResultTrap.
	Cause uint32
	Tval  uint32
}

// CSROp mirrors emu/csr.Op so inst does not import csr; the pipeline
// maps it onto csr.Op at Writeback.
type CSROp int

const (
	CSROpW CSROp = iota
	CSROpS
	CSROpC
)

// Record is the decoded instruction: header fields common to every
// operation, category flags, and the EXE-populated Result slot. Source
// register indices are -1 (RegNone) when the operation has fewer than
// two, and Dest is RegNone for branches, stores, FENCE/FENCE.I, ECALL,
// EBREAK, MRET.
type Record struct {
	Op Op

	PC uint32

	Dest  int
	Src1  int
	Src2  int
	Imm   int32 // sign-extended; for IsCSR ops holds the 12-bit CSR address
	Zimm  uint32 // CSRRWI/CSRRSI/CSRRCI: zero-extended 5-bit immediate operand
	Pred  BranchPred

	Flags Flags

	Result Result
}

// Bubble returns an inert record carrying no operation and no side effects.
func Bubble() Record {
	return Record{Op: OpBubble, Dest: RegNone, Src1: RegNone, Src2: RegNone, Flags: Flags{IsBubble: true}}
}

// IsBubble reports whether r is the inert bubble record.
func (r Record) IsBubble() bool {
	return r.Flags.IsBubble
}

// WritesDest reports whether r, once retired, stores a value to a
// non-R0 architectural register. Used by the hazard detector, which
// treats RegNone and R0 identically: neither can create a RAW hazard.
func (r Record) WritesDest() bool {
	return r.Dest != RegNone && r.Dest != 0
}
