/*
 * rv32pipe - Control and status register bank
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

// Package csr implements the 12-bit-addressed machine-mode control and
// status register bank: a dense array of 4096 words whose [0xF00, 0xFFF]
// range is read-only, with field-level helpers for the RV32I machine CSRs
// and the atomic W/S/C read-modify-write protocol.
package csr

// Fixed CSR address roster (spec.md §3, §6).
const (
	Mstatus  uint32 = 0x300
	Misa     uint32 = 0x301
	Mie      uint32 = 0x304
	Mtvec    uint32 = 0x305
	Mscratch uint32 = 0x340
	Mepc     uint32 = 0x341
	Mcause   uint32 = 0x342
	Mtval    uint32 = 0x343
	Mip      uint32 = 0x344
	Mcycle   uint32 = 0xB00
	Minstret uint32 = 0xB02
	Cycle    uint32 = 0xC00 // read-only shadow of Mcycle
	Time     uint32 = 0xC01 // read-only shadow of CLINT mtime
	Instret  uint32 = 0xC02 // read-only shadow of Minstret
)

// mstatus field masks/shifts.
const (
	MstatusMIEBit  = 3
	MstatusMPIEBit = 7
	MstatusMPPShift = 11
	MstatusMPPMask  = 0x3
)

// mtvec field layout.
const (
	MtvecModeMask = 0x3
	MtvecBaseMask = ^uint32(0x3)
)

// Atomic operation kinds for the CSRRW/S/C family.
type Op int

const (
	OpW Op = iota
	OpS
	OpC
)

// readOnlyBase is the first address of the read-only vendor/architecture
// ID range [0xF00, 0xFFF].
const readOnlyBase = 0xF00

// Bank is the 4096-entry CSR register file.
type Bank struct {
	regs    [4096]uint32
	unknown map[uint32]uint32 // side table for addresses outside the roster
	timeFn  func() uint64     // supplies the CLINT mtime value for the `time` shadow
}

// New returns a zeroed CSR bank. misa reports RV32I ("I" extension only,
// MXL=1 for 32-bit).
func New() *Bank {
	b := &Bank{unknown: make(map[uint32]uint32)}
	b.regs[Misa] = (1 << 30) | (1 << 8) // MXL=01 (32-bit), Extensions bit I
	return b
}

// SetTimeSource wires the function CLINT uses to report its free-running
// counter, consulted when the guest reads the `time` shadow CSR.
func (b *Bank) SetTimeSource(fn func() uint64) {
	b.timeFn = fn
}

func isReadOnly(addr uint32) bool {
	return addr >= readOnlyBase && addr <= 0xFFF
}

func isKnown(addr uint32) bool {
	switch addr {
	case Mstatus, Misa, Mie, Mtvec, Mscratch, Mepc, Mcause, Mtval, Mip,
		Mcycle, Minstret, Cycle, Time, Instret:
		return true
	}
	return false
}

// Read returns the value of the CSR at addr. The counter shadows return
// the live value of their backing counter rather than stored storage.
func (b *Bank) Read(addr uint32) uint32 {
	addr &= 0xFFF
	switch addr {
	case Cycle:
		return b.regs[Mcycle]
	case Time:
		if b.timeFn != nil {
			return uint32(b.timeFn())
		}
		return 0
	case Instret:
		return b.regs[Minstret]
	}
	if isKnown(addr) {
		return b.regs[addr]
	}
	return b.unknown[addr]
}

// Write stores val into the CSR at addr. Addresses in [0xF00, 0xFFF] are
// read-only: the write is a silent no-op, never a fault. Unknown
// addresses accept writes only into the side table.
func (b *Bank) Write(addr uint32, val uint32) {
	addr &= 0xFFF
	if isReadOnly(addr) {
		return
	}
	if isKnown(addr) {
		b.regs[addr] = val
		return
	}
	b.unknown[addr] = val
}

// Atomic performs the CSRRW/S/C read-modify-write protocol and returns the
// value observed before the write. suppressWrite implements the RV32I
// zero-operand shortcut: when set, S/C atomically sample the CSR without
// modifying it (the read still happens). It must never be set for OpW,
// whose zero operand legitimately clears the register.
func (b *Bank) Atomic(op Op, addr uint32, operand uint32, suppressWrite bool) (oldVal, newVal uint32) {
	old := b.Read(addr)
	if suppressWrite {
		return old, old
	}

	var next uint32
	switch op {
	case OpW:
		next = operand
	case OpS:
		next = old | operand
	case OpC:
		next = old &^ operand
	default:
		next = old
	}

	b.Write(addr, next)
	return old, b.Read(addr)
}

// MstatusMIE reports mstatus.MIE (bit 3), the global machine-mode
// interrupt enable.
func (b *Bank) MstatusMIE() bool {
	return b.regs[Mstatus]&(1<<MstatusMIEBit) != 0
}

// SetMstatusMIE sets or clears mstatus.MIE.
func (b *Bank) SetMstatusMIE(v bool) {
	if v {
		b.regs[Mstatus] |= 1 << MstatusMIEBit
	} else {
		b.regs[Mstatus] &^= 1 << MstatusMIEBit
	}
}

// MstatusMPIE reports mstatus.MPIE (bit 7), the saved prior interrupt
// enable.
func (b *Bank) MstatusMPIE() bool {
	return b.regs[Mstatus]&(1<<MstatusMPIEBit) != 0
}

// SetMstatusMPIE sets or clears mstatus.MPIE.
func (b *Bank) SetMstatusMPIE(v bool) {
	if v {
		b.regs[Mstatus] |= 1 << MstatusMPIEBit
	} else {
		b.regs[Mstatus] &^= 1 << MstatusMPIEBit
	}
}

// SetMstatusMPP sets the 2-bit mstatus.MPP field (bits 12:11).
func (b *Bank) SetMstatusMPP(v uint32) {
	b.regs[Mstatus] = (b.regs[Mstatus] &^ (MstatusMPPMask << MstatusMPPShift)) |
		((v & MstatusMPPMask) << MstatusMPPShift)
}

// MieBit reports whether bit is set in mie.
func (b *Bank) MieBit(bit uint) bool {
	return b.regs[Mie]&(1<<bit) != 0
}

// SetMieBit sets or clears bit in mie.
func (b *Bank) SetMieBit(bit uint, v bool) {
	if v {
		b.regs[Mie] |= 1 << bit
	} else {
		b.regs[Mie] &^= 1 << bit
	}
}

// MipBit reports whether bit is set in mip.
func (b *Bank) MipBit(bit uint) bool {
	return b.regs[Mip]&(1<<bit) != 0
}

// SetMipBit sets or clears bit in mip.
func (b *Bank) SetMipBit(bit uint, v bool) {
	if v {
		b.regs[Mip] |= 1 << bit
	} else {
		b.regs[Mip] &^= 1 << bit
	}
}

// MtvecMode returns mtvec.MODE: 0 = direct, 1 = vectored.
func (b *Bank) MtvecMode() uint32 {
	return b.regs[Mtvec] & MtvecModeMask
}

// MtvecBase returns mtvec.BASE, the vector base with the low two bits
// cleared.
func (b *Bank) MtvecBase() uint32 {
	return b.regs[Mtvec] & MtvecBaseMask
}

// IncrCycle bumps mcycle by one; called once per pipeline tick.
func (b *Bank) IncrCycle() {
	b.regs[Mcycle]++
}

// IncrInstret bumps minstret by one; called once per non-bubble
// retirement.
func (b *Bank) IncrInstret() {
	b.regs[Minstret]++
}

// Raw returns the raw value in the dense array at addr without shadow
// redirection or read-only enforcement — used by the REPL/test harness
// to inspect state. Values written to addresses outside the fixed roster
// are held in the side table and are not returned by Raw.
func (b *Bank) Raw(addr uint32) uint32 {
	return b.regs[addr&0xFFF]
}
