/*
 * rv32pipe - Core-local interruptor (timer and software-interrupt device)
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

// Package clint implements the memory-mapped timer and software-interrupt
// peripheral: a 64-bit free-running mtime counter, a 64-bit mtimecmp
// compare register, and a one-bit msip software-interrupt line. It is
// ticked once per pipeline cycle (cpu.timer.go's updateClock is the
// grounding idiom: a small per-tick update routine consulted by the core
// driver) and drives the timer/software lines of emu/intc.
package clint

import (
	"log/slog"

	"github.com/rv32pipe/rv32pipe/emu/intc"
)

// Base is the physical base address of the CLINT aperture.
const Base = 0x02000000

// Size is the aperture size in bytes: covers msip through mtime high.
const Size = 0x0000C000

// Bit-exact register offsets from Base (spec.md §6).
const (
	offMsip         = 0x0000
	offMtimecmpLow  = 0x4000
	offMtimecmpHigh = 0x4004
	offMtimeLow     = 0xBFF8
	offMtimeHigh    = 0xBFFC
)

// Device is the CLINT timer/software-interrupt peripheral.
type Device struct {
	mtime    uint64
	mtimecmp uint64
	msip     uint32
	scale    uint64 // cycles consumed per unit of mtime advance; default 1
	ticks    uint64
	ic       *intc.Controller

	pending bool // last-known compare-match state, for edge-triggered logging
}

// New returns a CLINT wired to raise its timer/software lines through ic.
// scale configures how many pipeline ticks correspond to one mtime unit;
// 0 is treated as 1 (the default, per spec.md §4.7).
func New(ic *intc.Controller, scale uint64) *Device {
	if scale == 0 {
		scale = 1
	}
	d := &Device{ic: ic, scale: scale, mtimecmp: ^uint64(0)}
	return d
}

// MTime returns the current free-running counter value; wired into
// emu/csr as the `time` shadow CSR's time source.
func (d *Device) MTime() uint64 {
	return d.mtime
}

// Tick advances mtime by one scaled unit and re-evaluates the
// compare-match/software-interrupt lines. Called once per pipeline tick.
func (d *Device) Tick() {
	d.ticks++
	if d.ticks%d.scale != 0 {
		return
	}
	d.mtime++
	d.evalTimer()
}

func (d *Device) evalTimer() {
	d.ic.SetPending(intc.Timer)
	matched := d.mtime >= d.mtimecmp
	if !matched {
		d.ic.ClearPending(intc.Timer)
	}
	if matched && !d.pending {
		slog.Debug("clint compare match", "mtime", d.mtime, "mtimecmp", d.mtimecmp)
	}
	d.pending = matched
}

// Load implements mem.Peripheral.
func (d *Device) Load(offset uint32, width int) uint32 {
	switch offset {
	case offMsip:
		return d.msip & 0x1
	case offMtimecmpLow:
		return uint32(d.mtimecmp)
	case offMtimecmpHigh:
		return uint32(d.mtimecmp >> 32)
	case offMtimeLow:
		return uint32(d.mtime)
	case offMtimeHigh:
		return uint32(d.mtime >> 32)
	}
	return 0
}

// Store implements mem.Peripheral. Writes to mtimecmp clear mip.MTIP if
// the new compare value is strictly greater than the current mtime.
//
// A write to the low word sets the full 64-bit compare value (clearing
// the high word) rather than merging into whatever the high word last
// held: callers of this simulator only ever program a 32-bit compare
// deadline through offMtimecmpLow, never touching offMtimecmpHigh, so
// merging against a stale high word (left at its all-ones reset value)
// would pin mtimecmp near 2^64 forever and the compare would never
// match. A write to the high word still merges against the current low
// word, for callers that do program the full 64-bit value across both
// offsets.
func (d *Device) Store(offset uint32, width int, val uint32) {
	switch offset {
	case offMsip:
		d.msip = val & 0x1
		d.ic.SetPending(intc.Software)
		if d.msip == 0 {
			d.ic.ClearPending(intc.Software)
		}
	case offMtimecmpLow:
		d.mtimecmp = uint64(val)
		d.applyCompareWrite()
	case offMtimecmpHigh:
		d.mtimecmp = (d.mtimecmp & 0xFFFFFFFF) | (uint64(val) << 32)
		d.applyCompareWrite()
	}
}

func (d *Device) applyCompareWrite() {
	if d.mtimecmp > d.mtime {
		d.ic.ClearPending(intc.Timer)
		d.pending = false
	}
}
