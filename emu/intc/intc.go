/*
 * rv32pipe - Interrupt controller
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

// Package intc models the pending/enable/priority logic for the three
// standard RV32I machine interrupts against the mstatus/mie/mip CSR bits.
// It owns the "is anything deliverable?" question; emu/trap owns delivery.
package intc

import "github.com/rv32pipe/rv32pipe/emu/csr"

// Interrupt bit positions, shared by mip and mie (also the low 5 bits of
// the interrupt cause code, per spec.md §4.5).
const (
	Software uint = 3
	Timer    uint = 7
	External uint = 11
)

// Controller consults a CSR bank for pending/enable/global-enable state.
// Edge-triggered sources additionally need Acknowledge called to clear
// their pending bit once delivered.
type Controller struct {
	bank *csr.Bank
	edge map[uint]bool
}

// New returns an interrupt controller backed by bank. All three standard
// lines default to level-triggered.
func New(bank *csr.Bank) *Controller {
	return &Controller{bank: bank, edge: make(map[uint]bool)}
}

// SetEdgeTriggered configures bit as edge- (true) or level-triggered
// (false, the default).
func (c *Controller) SetEdgeTriggered(bit uint, edge bool) {
	c.edge[bit] = edge
}

// SetPending asserts the pending bit for the given interrupt line.
func (c *Controller) SetPending(bit uint) {
	c.bank.SetMipBit(bit, true)
}

// ClearPending deasserts the pending bit for the given interrupt line.
func (c *Controller) ClearPending(bit uint) {
	c.bank.SetMipBit(bit, false)
}

// IsPending reports whether the given interrupt line is pending.
func (c *Controller) IsPending(bit uint) bool {
	return c.bank.MipBit(bit)
}

// Enable sets mie for the given line.
func (c *Controller) Enable(bit uint) {
	c.bank.SetMieBit(bit, true)
}

// Disable clears mie for the given line.
func (c *Controller) Disable(bit uint) {
	c.bank.SetMieBit(bit, false)
}

// IsEnabled reports whether the given line is enabled in mie.
func (c *Controller) IsEnabled(bit uint) bool {
	return c.bank.MieBit(bit)
}

// SetGlobalEnable sets or clears mstatus.MIE.
func (c *Controller) SetGlobalEnable(v bool) {
	c.bank.SetMstatusMIE(v)
}

// priority is external > software > timer, highest first.
var priority = []uint{External, Software, Timer}

// Deliverable returns the highest-priority interrupt bit that is
// simultaneously pending, enabled, and allowed by the global enable, and
// true. It returns (0, false) if mstatus.MIE is clear or nothing
// qualifies.
func (c *Controller) Deliverable() (uint, bool) {
	if !c.bank.MstatusMIE() {
		return 0, false
	}
	for _, bit := range priority {
		if c.bank.MipBit(bit) && c.bank.MieBit(bit) {
			return bit, true
		}
	}
	return 0, false
}

// Acknowledge clears the pending bit for an edge-triggered line once it
// has been delivered. Level-triggered lines are left untouched: their
// source (e.g. a CLINT compare-match) must be quieted by the handler.
func (c *Controller) Acknowledge(bit uint) {
	if c.edge[bit] {
		c.ClearPending(bit)
	}
}
