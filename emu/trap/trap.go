/*
 * rv32pipe - Trap controller (synchronous exceptions and interrupt delivery)
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

// Package trap implements RV32I machine-mode trap entry: saving the
// faulting/next PC to mepc, recording mcause/mtval, pushing
// mstatus.MIE into MPIE, and redirecting to the mtvec-derived handler PC.
// It delegates "is anything deliverable?" to emu/intc and only answers
// "how do we get there?".
package trap

import (
	"log/slog"

	"github.com/rv32pipe/rv32pipe/emu/csr"
	"github.com/rv32pipe/rv32pipe/emu/intc"
)

// Synchronous exception cause codes (spec.md §4.5).
const (
	CauseInstrMisaligned uint32 = 0
	CauseInstrAccessFault uint32 = 1
	CauseIllegalInstr    uint32 = 2
	CauseBreakpoint      uint32 = 3
	CauseLoadMisaligned  uint32 = 4
	CauseLoadAccessFault uint32 = 5
	CauseStoreMisaligned uint32 = 6
	CauseStoreAccessFault uint32 = 7
	CauseEcallU          uint32 = 8
	CauseEcallM          uint32 = 11
)

// interruptBit bit31 marks mcause as an interrupt rather than an exception.
const interruptBit uint32 = 1 << 31

// machineMode is the value written into mstatus.MPP on trap entry: this
// core always executes and traps into machine mode.
const machineMode = 3

// Controller performs trap entry against a CSR bank and consults an
// interrupt controller for pending asynchronous interrupts.
type Controller struct {
	csr *csr.Bank
	ic  *intc.Controller
}

// New returns a trap controller wired to bank and ic.
func New(bank *csr.Bank, ic *intc.Controller) *Controller {
	return &Controller{csr: bank, ic: ic}
}

// enter performs the save-and-redirect sequence common to both
// synchronous exceptions and interrupt delivery, returning the handler PC.
func (t *Controller) enter(mepc, mcause, mtval uint32) uint32 {
	t.csr.Write(csr.Mepc, mepc)
	t.csr.Write(csr.Mcause, mcause)
	t.csr.Write(csr.Mtval, mtval)

	t.csr.SetMstatusMPIE(t.csr.MstatusMIE())
	t.csr.SetMstatusMIE(false)
	t.csr.SetMstatusMPP(machineMode)

	base := t.csr.MtvecBase()
	handler := base
	if t.csr.MtvecMode() == 1 && mcause&interruptBit != 0 {
		handler = base + 4*(mcause&^interruptBit)
	}
	slog.Debug("trap entry", "mepc", mepc, "mcause", mcause, "mtval", mtval, "handler", handler)
	return handler
}

// RaiseException performs trap entry for a synchronous exception
// encountered while executing the instruction at pc, with the given
// architectural cause code and trap-value, and returns the handler PC.
func (t *Controller) RaiseException(cause, pc, tval uint32) uint32 {
	return t.enter(pc, cause&^interruptBit, tval)
}

// CheckAndDeliverInterrupt consults the interrupt controller; if an
// interrupt is deliverable it performs trap entry using nextPC as mepc
// and returns the handler PC. It returns ok=false if nothing is
// deliverable. mip is left untouched for level-triggered sources per
// spec.md §4.5 — the handler must quiet the source itself.
func (t *Controller) CheckAndDeliverInterrupt(nextPC uint32) (handlerPC uint32, ok bool) {
	bit, deliverable := t.ic.Deliverable()
	if !deliverable {
		return 0, false
	}
	cause := interruptBit | uint32(bit)
	handlerPC = t.enter(nextPC, cause, 0)
	t.ic.Acknowledge(bit)
	return handlerPC, true
}

// ExecuteMret performs the MRET return-from-trap sequence: PC <- mepc,
// mstatus.MIE <- mstatus.MPIE, mstatus.MPIE <- 1, mstatus.MPP <- 0 (user).
// It returns the PC to resume at.
func (t *Controller) ExecuteMret() uint32 {
	mepc := t.csr.Read(csr.Mepc)
	t.csr.SetMstatusMIE(t.csr.MstatusMPIE())
	t.csr.SetMstatusMPIE(true)
	t.csr.SetMstatusMPP(0)
	return mepc
}
