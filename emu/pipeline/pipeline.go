/*
 * rv32pipe - Five-stage pipeline orchestrator
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

// Package pipeline drives the five-stage F/D/X/M/W engine: a single
// Tick call reads every inter-stage latch's value from the start of
// the tick and writes each stage's output latch only once every stage
// has computed its result from that shared snapshot, so no stage reads
// a latch another stage wrote in the same cycle. Two effects do cross
// stages within one Tick: the register writes made by W are visible to
// M's store-data read, and a flush raised by X is applied by D and F.
// This double-buffering discipline is the Go expression
// of the teacher's single-threaded tick-driven core loop (emu/core's
// CycleCPU/Advance pairing), generalized from one CPU state machine
// advancing per call to five cooperating stage functions advancing
// together.
package pipeline

import (
	"github.com/rv32pipe/rv32pipe/emu/clint"
	"github.com/rv32pipe/rv32pipe/emu/csr"
	"github.com/rv32pipe/rv32pipe/emu/exec"
	"github.com/rv32pipe/rv32pipe/emu/inst"
	"github.com/rv32pipe/rv32pipe/emu/mem"
	"github.com/rv32pipe/rv32pipe/emu/rf"
	"github.com/rv32pipe/rv32pipe/emu/trap"
)

// Config are the simulator-wide knobs that affect halt behavior.
type Config struct {
	HaltOnBreak bool
	CycleLimit  uint64 // 0 = unbounded
}

// Metrics accumulates the externally observable run statistics
// (spec.md §6 exit/completion record).
type Metrics struct {
	Cycles    uint64
	Retired   uint64
	Stalls    uint64
	Flushes   uint64
}

// Pipeline wires RF/MEM/CSR/TRAP together with the four inter-stage
// latches and runs them one tick at a time.
type Pipeline struct {
	RF    *rf.File
	Mem   *mem.Memory
	CSR   *csr.Bank
	Trap  *trap.Controller
	CLINT *clint.Device

	Fetcher Fetcher

	cfg Config

	lFD, lDX, lXM, lMW inst.Record

	fetchExhausted bool
	halted         bool
	haltReason     string

	Metrics Metrics

	// Completed holds every retired record (bubbles included) in
	// program order, for inspection and the 6 end-to-end scenarios.
	Completed []inst.Record
}

// New wires a pipeline over its resources, starting PC at 0.
func New(r *rf.File, m *mem.Memory, bank *csr.Bank, tc *trap.Controller, cl *clint.Device, f Fetcher, cfg Config) *Pipeline {
	r.SetPC(0)
	p := &Pipeline{
		RF: r, Mem: m, CSR: bank, Trap: tc, CLINT: cl, Fetcher: f, cfg: cfg,
		lFD: inst.Bubble(), lDX: inst.Bubble(), lXM: inst.Bubble(), lMW: inst.Bubble(),
	}
	if cl != nil {
		bank.SetTimeSource(cl.MTime)
	}
	return p
}

// SetCycleLimit overrides the configured cycle budget; 0 means unbounded.
func (p *Pipeline) SetCycleLimit(limit uint64) {
	p.cfg.CycleLimit = limit
}

// Halted reports whether the pipeline has reached a halt condition.
func (p *Pipeline) Halted() bool {
	return p.halted
}

// HaltReason describes why Halted is true ("", "exhausted", "ebreak",
// or "cycle-limit").
func (p *Pipeline) HaltReason() string {
	return p.haltReason
}

// Run ticks the pipeline until it halts.
func (p *Pipeline) Run() {
	for !p.halted {
		p.Tick()
	}
}

// Tick advances every stage by exactly one cycle.
func (p *Pipeline) Tick() {
	if p.halted {
		return
	}

	if p.CLINT != nil {
		p.CLINT.Tick()
	}

	oldFD, oldDX, oldXM, oldMW := p.lFD, p.lDX, p.lXM, p.lMW

	// W: retire oldMW.
	p.writeback(oldMW)

	// M: oldXM -> newMW.
	newMW := p.memoryStage(oldXM)

	// X: oldDX -> newXM. A taken branch, jump, trap or MRET raises a
	// flush that D and F apply in this same tick.
	newXM, flushNow, flushTarget := p.executeStage(oldDX)

	// D: oldFD -> newDX. A flush discards oldFD (the wrong-path slot);
	// otherwise oldFD is consumed unless the hazard check stalls it.
	stall := !flushNow && p.hazard(oldFD, oldDX, oldXM, oldMW)
	var newDX inst.Record
	consumedFD := false
	switch {
	case flushNow:
		newDX = inst.Bubble()
		p.Metrics.Flushes++
		consumedFD = true
	case stall:
		newDX = inst.Bubble()
		p.Metrics.Stalls++
		consumedFD = false
	default:
		newDX = oldFD
		consumedFD = true
	}

	// F: compute newFD and the next PC.
	newFD := p.fetchStage(oldFD, consumedFD, stall, flushNow, flushTarget)

	p.lFD, p.lDX, p.lXM, p.lMW = newFD, newDX, newXM, newMW

	p.CSR.IncrCycle()
	p.Metrics.Cycles++

	p.evaluateHalt(oldMW, newFD, newDX, newXM, newMW)
}

// hazard reports whether the instruction awaiting decode (oldFD) has a
// source register produced by a live destination still in lDX, lXM, or
// lMW. Writeback of the lMW producer has already run earlier in the
// same Tick call, but the check still stalls on it: the consumer is
// decoded only once the producer has drained from every latch, so a
// consumer right behind its producer stalls three cycles.
func (p *Pipeline) hazard(oldFD, oldDX, oldXM, oldMW inst.Record) bool {
	if oldFD.IsBubble() {
		return false
	}
	return producesSource(oldDX, oldFD) || producesSource(oldXM, oldFD) || producesSource(oldMW, oldFD)
}

// producesSource reports whether producer's destination is a source
// consumer needs before it may enter Decode. A store's Src2 is its
// data operand, not read until the Memory stage (one cycle after
// Execute), so it is excluded here: stalling a store on its data
// register would be too conservative, and the one-cycle producer-to-M
// gap already guarantees the value is visible by the time it is
// needed (see memoryStage).
func producesSource(producer, consumer inst.Record) bool {
	if !producer.WritesDest() {
		return false
	}
	if producer.Dest == consumer.Src1 {
		return true
	}
	if consumer.Flags.IsStore {
		return false
	}
	return producer.Dest == consumer.Src2
}

func (p *Pipeline) executeStage(r inst.Record) (out inst.Record, flush bool, target uint32) {
	if r.IsBubble() {
		return r, false, 0
	}
	out = exec.Execute(r, func(idx int) uint32 { return p.RF.Read(uint32(idx)) })

	switch out.Result.Kind {
	case inst.ResultBranch:
		if out.Result.BranchTaken {
			return out, true, out.Result.Target
		}
	case inst.ResultJump:
		return out, true, out.Result.Target
	case inst.ResultTrap:
		if exec.IsMret(out.Result) {
			pc := p.Trap.ExecuteMret()
			return out, true, pc
		}
		handler := p.Trap.RaiseException(out.Result.Cause, r.PC, out.Result.Tval)
		return out, true, handler
	}
	return out, false, 0
}

func (p *Pipeline) memoryStage(r inst.Record) inst.Record {
	if r.IsBubble() {
		return r
	}
	switch r.Result.Kind {
	case inst.ResultLoad:
		r.Result.LoadedValue = p.Mem.Load(r.Result.Addr, r.Result.Width, r.Result.Signed)
	case inst.ResultStore:
		// Read the data operand here, not at Execute: writeback(oldMW)
		// above already ran this tick, so a same-cycle producer's
		// result is already visible in the register file.
		r.Result.StoreData = p.RF.Read(uint32(r.Src2))
		p.Mem.Store(r.Result.Addr, r.Result.Width, r.Result.StoreData)
	}
	return r
}

func (p *Pipeline) writeback(r inst.Record) {
	if r.IsBubble() {
		p.Completed = append(p.Completed, r)
		return
	}

	switch r.Result.Kind {
	case inst.ResultArithmetic:
		p.RF.Write(uint32(r.Dest), r.Result.Value)
	case inst.ResultLoad:
		p.RF.Write(uint32(r.Dest), r.Result.LoadedValue)
	case inst.ResultJump:
		p.RF.Write(uint32(r.Dest), r.Result.LinkValue)
	case inst.ResultCSR:
		old, newVal := p.CSR.Atomic(toCSROp(r.Result.CSROp), r.Result.CSRAddr, r.Result.CSROperand, r.Result.Suppress)
		_ = newVal
		p.RF.Write(uint32(r.Dest), old)
	}

	p.CSR.IncrInstret()
	p.Metrics.Retired++
	p.Completed = append(p.Completed, r)
}

func toCSROp(op inst.CSROp) csr.Op {
	switch op {
	case inst.CSROpS:
		return csr.OpS
	case inst.CSROpC:
		return csr.OpC
	default:
		return csr.OpW
	}
}

// fetchStage computes the new lFD content and advances PC. Interrupt
// polling and new fetches are skipped while D is stalled: a stall
// means decode cannot accept the already-fetched instruction, so
// fetch must keep re-presenting it rather than race ahead or redirect
// PC underneath it (spec.md leaves the stall/interrupt interaction
// unspecified; this is the resolution this implementation commits to).
func (p *Pipeline) fetchStage(oldFD inst.Record, consumedFD, stalling, flushWasPending bool, flushTarget uint32) inst.Record {
	if stalling {
		return oldFD
	}

	if flushWasPending {
		p.RF.SetPC(flushTarget)
	}

	pc := p.RF.PC()
	if handler, ok := p.Trap.CheckAndDeliverInterrupt(pc); ok {
		p.RF.SetPC(handler)
		p.Metrics.Flushes++
		return inst.Bubble()
	}

	rec, ok := p.Fetcher.Fetch(pc)
	if !ok {
		p.fetchExhausted = true
		return inst.Bubble()
	}
	p.RF.SetPC(pc + 4)
	return rec
}

func (p *Pipeline) evaluateHalt(retired, newFD, newDX, newXM, newMW inst.Record) {
	if p.halted {
		return
	}
	if p.cfg.CycleLimit != 0 && p.Metrics.Cycles >= p.cfg.CycleLimit {
		p.halted = true
		p.haltReason = "cycle-limit"
		return
	}
	if p.cfg.HaltOnBreak && retired.Op == inst.OpEBREAK {
		p.halted = true
		p.haltReason = "ebreak"
		return
	}
	if p.fetchExhausted && newFD.IsBubble() && newDX.IsBubble() && newXM.IsBubble() && newMW.IsBubble() {
		p.halted = true
		p.haltReason = "exhausted"
		return
	}
}
