/*
 * rv32pipe - Execution unit
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

// Package exec is the pipeline's pure Execute stage: given a decoded
// instruction and a snapshot of the source operands it needs, it
// returns the instruction with its Result slot populated. Execute
// never touches RF, MEM, or CSR directly — every side effect is
// expressed as a descriptor for a later stage to apply. This mirrors
// the teacher's separation between decoding an operation and
// committing its effect at Writeback, generalized from S/370 op
// dispatch (cpu_standard.go's per-opcode switch) to RV32I's
// arithmetic/branch/load-store/CSR/system operations.
package exec

import "github.com/rv32pipe/rv32pipe/emu/inst"

// Exceptions raised at Execute. Kept local so that exec depends only on
// emu/inst; the pipeline translates these into trap.Controller calls.
const (
	CauseIllegalInstr = 2
	CauseBreakpoint   = 3
	CauseEcallM       = 11
)

// Execute resolves r's source operands via read (which must apply RF's
// R0-reads-zero rule) and populates r.Result. r.PC is the instruction's
// own fetch address, used by branches/jumps/AUIPC. It returns the
// mutated record.
func Execute(r inst.Record, read func(idx int) uint32) inst.Record {
	switch r.Op {
	case inst.OpBubble:
		return r

	case inst.OpADD:
		r.Result = arith(read(r.Src1) + read(r.Src2))
	case inst.OpSUB:
		r.Result = arith(read(r.Src1) - read(r.Src2))
	case inst.OpSLL:
		r.Result = arith(read(r.Src1) << (read(r.Src2) & 0x1f))
	case inst.OpSLT:
		r.Result = arith(boolToWord(int32(read(r.Src1)) < int32(read(r.Src2))))
	case inst.OpSLTU:
		r.Result = arith(boolToWord(read(r.Src1) < read(r.Src2)))
	case inst.OpXOR:
		r.Result = arith(read(r.Src1) ^ read(r.Src2))
	case inst.OpSRL:
		r.Result = arith(read(r.Src1) >> (read(r.Src2) & 0x1f))
	case inst.OpSRA:
		r.Result = arith(uint32(int32(read(r.Src1)) >> (read(r.Src2) & 0x1f)))
	case inst.OpOR:
		r.Result = arith(read(r.Src1) | read(r.Src2))
	case inst.OpAND:
		r.Result = arith(read(r.Src1) & read(r.Src2))

	case inst.OpADDI:
		r.Result = arith(read(r.Src1) + uint32(r.Imm))
	case inst.OpSLTI:
		r.Result = arith(boolToWord(int32(read(r.Src1)) < r.Imm))
	case inst.OpSLTIU:
		r.Result = arith(boolToWord(read(r.Src1) < uint32(r.Imm)))
	case inst.OpXORI:
		r.Result = arith(read(r.Src1) ^ uint32(r.Imm))
	case inst.OpORI:
		r.Result = arith(read(r.Src1) | uint32(r.Imm))
	case inst.OpANDI:
		r.Result = arith(read(r.Src1) & uint32(r.Imm))
	case inst.OpSLLI:
		r.Result = arith(read(r.Src1) << (uint32(r.Imm) & 0x1f))
	case inst.OpSRLI:
		r.Result = arith(read(r.Src1) >> (uint32(r.Imm) & 0x1f))
	case inst.OpSRAI:
		r.Result = arith(uint32(int32(read(r.Src1)) >> (uint32(r.Imm) & 0x1f)))

	case inst.OpLUI:
		r.Result = arith(uint32(r.Imm))
	case inst.OpAUIPC:
		r.Result = arith(r.PC + uint32(r.Imm))

	case inst.OpJAL:
		r.Result = jump(r.PC+uint32(r.Imm), r.PC+4)
	case inst.OpJALR:
		target := (read(r.Src1) + uint32(r.Imm)) &^ 1
		r.Result = jump(target, r.PC+4)

	case inst.OpBEQ, inst.OpBNE, inst.OpBLT, inst.OpBGE, inst.OpBLTU, inst.OpBGEU:
		r.Result = branch(evalPredicate(r.Pred, read(r.Src1), read(r.Src2)), r.PC+uint32(r.Imm))

	case inst.OpLB:
		r.Result = load(read(r.Src1)+uint32(r.Imm), 1, true)
	case inst.OpLH:
		r.Result = load(read(r.Src1)+uint32(r.Imm), 2, true)
	case inst.OpLW:
		r.Result = load(read(r.Src1)+uint32(r.Imm), 4, true)
	case inst.OpLBU:
		r.Result = load(read(r.Src1)+uint32(r.Imm), 1, false)
	case inst.OpLHU:
		r.Result = load(read(r.Src1)+uint32(r.Imm), 2, false)

	case inst.OpSB:
		r.Result = store(read(r.Src1)+uint32(r.Imm), 1)
	case inst.OpSH:
		r.Result = store(read(r.Src1)+uint32(r.Imm), 2)
	case inst.OpSW:
		r.Result = store(read(r.Src1)+uint32(r.Imm), 4)

	case inst.OpFENCE, inst.OpFENCEI:
		r.Result = inst.Result{Kind: inst.ResultNone}

	case inst.OpECALL:
		r.Result = trapResult(CauseEcallM, 0)
	case inst.OpEBREAK:
		r.Result = trapResult(CauseBreakpoint, 0)
	case inst.OpMRET:
		r.Result = inst.Result{Kind: inst.ResultTrap, Cause: mretSentinel}

	case inst.OpCSRRW:
		r.Result = csrReg(inst.CSROpW, uint32(r.Imm), read(r.Src1), r.Src1 == 0)
	case inst.OpCSRRS:
		r.Result = csrReg(inst.CSROpS, uint32(r.Imm), read(r.Src1), r.Src1 == 0)
	case inst.OpCSRRC:
		r.Result = csrReg(inst.CSROpC, uint32(r.Imm), read(r.Src1), r.Src1 == 0)
	case inst.OpCSRRWI:
		r.Result = csrImm(inst.CSROpW, uint32(r.Imm), r.Zimm)
	case inst.OpCSRRSI:
		r.Result = csrImm(inst.CSROpS, uint32(r.Imm), r.Zimm)
	case inst.OpCSRRCI:
		r.Result = csrImm(inst.CSROpC, uint32(r.Imm), r.Zimm)

	default:
		r.Result = trapResult(CauseIllegalInstr, 0)
	}
	return r
}

// mretSentinel marks a ResultTrap descriptor as "return from trap"
// rather than "enter trap"; the pipeline checks for it before invoking
// TRAP.RaiseException.
const mretSentinel = ^uint32(0)

func arith(v uint32) inst.Result {
	return inst.Result{Kind: inst.ResultArithmetic, Value: v}
}

func jump(target, link uint32) inst.Result {
	return inst.Result{Kind: inst.ResultJump, Target: target, LinkValue: link}
}

func branch(taken bool, target uint32) inst.Result {
	return inst.Result{Kind: inst.ResultBranch, BranchTaken: taken, Target: target}
}

func load(addr uint32, width int, signed bool) inst.Result {
	return inst.Result{Kind: inst.ResultLoad, Addr: addr, Width: width, Signed: signed}
}

// store computes only the effective address at Execute. The data
// register (Src2) is read in the Memory stage instead of here: the
// pipeline's decode-time hazard check does not stall a store on its
// data operand, relying on the one-cycle gap between a producer's
// Writeback and the store's Memory stage to make the value visible by
// the time it is needed (see emu/pipeline's hazard/memoryStage).
func store(addr uint32, width int) inst.Result {
	return inst.Result{Kind: inst.ResultStore, Addr: addr, Width: width}
}

func trapResult(cause, tval uint32) inst.Result {
	return inst.Result{Kind: inst.ResultTrap, Cause: cause, Tval: tval}
}

// csrReg builds a CSR descriptor for the register-source variants
// (CSRRW/S/C). suppressZero is true only for S/C when the source
// register is R0: the zero-operand shortcut never applies to CSRRW,
// which always writes per spec.md's "never W" carve-out.
func csrReg(op inst.CSROp, addr, operand uint32, srcIsR0 bool) inst.Result {
	suppress := srcIsR0 && op != inst.CSROpW
	return inst.Result{Kind: inst.ResultCSR, CSROp: op, CSRAddr: addr, CSROperand: operand, Suppress: suppress}
}

// csrImm builds a CSR descriptor for the immediate variants
// (CSRRWI/SI/CI). The shortcut applies to S/C when the 5-bit immediate
// is 0, never to W.
func csrImm(op inst.CSROp, addr, zimm uint32) inst.Result {
	suppress := zimm == 0 && op != inst.CSROpW
	return inst.Result{Kind: inst.ResultCSR, CSROp: op, CSRAddr: addr, CSROperand: zimm, Suppress: suppress}
}

func boolToWord(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func evalPredicate(p inst.BranchPred, a, b uint32) bool {
	switch p {
	case inst.PredEQ:
		return a == b
	case inst.PredNE:
		return a != b
	case inst.PredLT:
		return int32(a) < int32(b)
	case inst.PredGE:
		return int32(a) >= int32(b)
	case inst.PredLTU:
		return a < b
	case inst.PredGEU:
		return a >= b
	}
	return false
}

// IsMret reports whether a ResultTrap descriptor represents MRET
// rather than a raised exception.
func IsMret(res inst.Result) bool {
	return res.Kind == inst.ResultTrap && res.Cause == mretSentinel
}
