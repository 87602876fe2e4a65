/*
 * rv32pipe - Core simulator driver
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

// Package core wires RF, MEM, CSR, the interrupt/trap controllers,
// CLINT, UART and the pipeline into a single simulator instance and
// drives it to completion, the way the teacher's emu/core.Start loop
// drives its CPU to a halt or shutdown signal — generalized from a
// goroutine polling a master-packet channel to a synchronous Run call
// appropriate for a deterministic, single-threaded tick clock with no
// outer network I/O to multiplex.
package core

import (
	"log/slog"

	"github.com/rv32pipe/rv32pipe/emu/clint"
	"github.com/rv32pipe/rv32pipe/emu/csr"
	"github.com/rv32pipe/rv32pipe/emu/event"
	"github.com/rv32pipe/rv32pipe/emu/inst"
	"github.com/rv32pipe/rv32pipe/emu/intc"
	"github.com/rv32pipe/rv32pipe/emu/mem"
	"github.com/rv32pipe/rv32pipe/emu/pipeline"
	"github.com/rv32pipe/rv32pipe/emu/rf"
	"github.com/rv32pipe/rv32pipe/emu/trap"
	"github.com/rv32pipe/rv32pipe/emu/uart"
)

// Driver owns every architectural resource and the pipeline that
// ticks them.
type Driver struct {
	RF       *rf.File
	Mem      *mem.Memory
	CSR      *csr.Bank
	IC       *intc.Controller
	Trap     *trap.Controller
	CLINT    *clint.Device
	UART     *uart.Device
	Pipeline *pipeline.Pipeline

	// Events is nil until ScheduleInterrupt is first called; once
	// present, Run and Step advance it by one tick before ticking the
	// pipeline, letting a test or REPL session script "assert this
	// interrupt line N cycles from now" without the pipeline itself
	// knowing about scripted stimuli.
	Events *event.List
}

// ScheduleInterrupt arms bit on the interrupt controller after delay
// ticks of simulated time, lazily creating the Driver's event list on
// first use.
func (d *Driver) ScheduleInterrupt(tag string, delay int, bit uint) {
	if d.Events == nil {
		d.Events = event.NewList()
	}
	d.Events.Schedule(tag, delay, func() {
		d.IC.SetPending(bit)
	})
}

// Options configures a Driver at construction time.
type Options struct {
	Config     pipeline.Config
	ClintScale uint64
	MtvecReset uint32
}

func newDriver(f pipeline.Fetcher, opts Options) *Driver {
	regs := rf.New()
	m := mem.New()
	bank := csr.New()
	ic := intc.New(bank)
	tc := trap.New(bank, ic)
	cl := clint.New(ic, opts.ClintScale)
	u := uart.New()

	m.MapPeripheral(uart.Base, uart.Size, u)
	m.MapPeripheral(clint.Base, clint.Size, cl)

	if opts.MtvecReset != 0 {
		bank.Write(csr.Mtvec, opts.MtvecReset)
	}

	p := pipeline.New(regs, m, bank, tc, cl, f, opts.Config)

	return &Driver{RF: regs, Mem: m, CSR: bank, IC: ic, Trap: tc, CLINT: cl, UART: u, Pipeline: p}
}

// NewAssemblyDriver wires a Driver that fetches from a pre-decoded
// instruction table (the shape produced by an external assembly
// feeder), located at base.
func NewAssemblyDriver(base uint32, program []inst.Record, opts Options) *Driver {
	return newDriver(pipeline.NewAssemblyFetcher(base, program), opts)
}

// NewBinaryDriver wires a Driver that decodes RV32I instructions
// directly out of a pre-seeded byte memory, for images loaded by the
// ELF or raw-binary ingress path. The caller is responsible for
// seeding d.Mem (e.g. via elfload) and setting d.RF's PC before Run.
func NewBinaryDriver(limit uint32, opts Options) *Driver {
	d := newDriver(nil, opts)
	bf := pipeline.NewBinaryFetcher(d.Mem, limit)
	d.Pipeline.Fetcher = bf
	return d
}

// Result is the exit/completion record: the full observable state
// after a run halts.
type Result struct {
	Cycles     uint64
	Retired    uint64
	Stalls     uint64
	Flushes    uint64
	HaltReason string
	Completed  []inst.Record
	Registers  [rf.NumRegs]uint32
	PC         uint32
	UARTOutput []byte
}

// Run ticks the pipeline until it halts (cycleBudget, if nonzero,
// replaces the Driver's configured cycle limit, and the new limit stays
// in effect for later calls) and returns the completion record.
func (d *Driver) Run(cycleBudget uint64) Result {
	if cycleBudget != 0 {
		d.Pipeline.SetCycleLimit(cycleBudget)
	}
	if d.Events == nil {
		d.Pipeline.Run()
	} else {
		for !d.Pipeline.Halted() {
			d.Step()
		}
	}
	res := d.snapshot()
	slog.Info("run halted", "reason", res.HaltReason, "cycles", res.Cycles, "retired", res.Retired)
	return res
}

// Step ticks the pipeline exactly once, for REPL single-stepping.
// Advances any scripted event list by one tick first, so a scheduled
// interrupt fires before the pipeline observes it on the same tick.
func (d *Driver) Step() {
	if d.Events != nil {
		d.Events.Advance(1)
	}
	d.Pipeline.Tick()
}

func (d *Driver) snapshot() Result {
	m := d.Pipeline.Metrics
	return Result{
		Cycles:     m.Cycles,
		Retired:    m.Retired,
		Stalls:     m.Stalls,
		Flushes:    m.Flushes,
		HaltReason: d.Pipeline.HaltReason(),
		Completed:  d.Pipeline.Completed,
		Registers:  d.RF.Snapshot(),
		PC:         d.RF.PC(),
		UARTOutput: d.UART.Output(),
	}
}

// MemRange returns a copy of the byte store in [start, start+length).
func (d *Driver) MemRange(start, length uint32) []byte {
	return d.Mem.LoadRange(start, length)
}

// CSRValue returns the raw value at addr, bypassing the read-only and
// shadow-counter special cases (for REPL/test inspection only).
func (d *Driver) CSRValue(addr uint32) uint32 {
	return d.CSR.Raw(addr)
}
