/*
 * rv32pipe - Command line parser
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

// Package parser implements the REPL command table: prefix-matched
// command names dispatching into small process functions, the same
// shape as the teacher's command/parser (cmd{name, min, process} plus
// a cmdLine scanner), generalized from S/370 device-management commands
// (attach/detach/set/show) to RV32 debugger commands (step/run/regs/
// csr/mem/break/load/quit) since this core has one fixed pipeline
// instead of a channel of attachable devices.
package parser

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/rv32pipe/rv32pipe/emu/asm"
	"github.com/rv32pipe/rv32pipe/emu/core"
	"github.com/rv32pipe/rv32pipe/emu/elfload"
	"github.com/rv32pipe/rv32pipe/emu/pipeline"
	"github.com/rv32pipe/rv32pipe/util/hex"
)

type cmd struct {
	Name     string
	Min      int
	Process  func(*cmdLine, *core.Driver) (bool, error)
	Complete func(*cmdLine) []string
}

type cmdLine struct {
	line string
	pos  int
}

var cmdList = []cmd{
	{Name: "step", Min: 1, Process: step},
	{Name: "run", Min: 1, Process: run},
	{Name: "regs", Min: 1, Process: regs},
	{Name: "csr", Min: 1, Process: csr},
	{Name: "mem", Min: 1, Process: mem},
	{Name: "break", Min: 1, Process: setBreak},
	{Name: "load", Min: 1, Process: load},
	{Name: "irq", Min: 1, Process: scheduleIRQ},
	{Name: "quit", Min: 1, Process: quit},
	{Name: "help", Min: 1, Process: help},
}

// breakpoint is the single PC-match breakpoint set by the "break"
// command; breakArmed=false means none is armed. A REPL is single-session,
// so package-level state mirrors the teacher's lineNumber-style scoping.
var breakpoint uint32
var breakArmed bool

// ProcessCommand parses and executes one REPL line against d.
func ProcessCommand(commandLine string, d *core.Driver) (quit bool, err error) {
	line := cmdLine{line: commandLine}
	name := strings.ToLower(line.getWord())

	match := matchList(name)
	if len(match) == 0 {
		return false, errors.New("command not found: " + name)
	}
	if len(match) > 1 {
		return false, errors.New("ambiguous command: " + name)
	}
	return match[0].Process(&line, d)
}

// CompleteCmd returns completion candidates for line, for liner's
// SetCompleter.
func CompleteCmd(commandLine string) []string {
	line := cmdLine{line: commandLine}
	name := line.getWord()
	if !line.isEOL() {
		return nil
	}
	var out []string
	for _, m := range cmdList {
		if strings.HasPrefix(m.Name, name) {
			out = append(out, m.Name+" ")
		}
	}
	return out
}

func matchCommand(m cmd, name string) bool {
	if len(name) > len(m.Name) {
		return false
	}
	for i := 0; i < len(name); i++ {
		if m.Name[i] != name[i] {
			return false
		}
	}
	return len(name) >= m.Min
}

func matchList(name string) []cmd {
	if name == "" {
		return nil
	}
	var match []cmd
	for _, m := range cmdList {
		if matchCommand(m, name) {
			match = append(match, m)
		}
	}
	return match
}

func (l *cmdLine) skipSpace() {
	for l.pos < len(l.line) && unicode.IsSpace(rune(l.line[l.pos])) {
		l.pos++
	}
}

func (l *cmdLine) isEOL() bool {
	return l.pos >= len(l.line)
}

func (l *cmdLine) getWord() string {
	l.skipSpace()
	start := l.pos
	for l.pos < len(l.line) && !unicode.IsSpace(rune(l.line[l.pos])) {
		l.pos++
	}
	return l.line[start:l.pos]
}

func (l *cmdLine) getUint(bits int) (uint64, error) {
	w := l.getWord()
	if w == "" {
		return 0, errors.New("expected a number")
	}
	return strconv.ParseUint(w, 0, bits)
}

func step(l *cmdLine, d *core.Driver) (bool, error) {
	n := uint64(1)
	if !l.isEOL() {
		var err error
		if n, err = l.getUint(32); err != nil {
			return false, err
		}
	}
	for i := uint64(0); i < n && !d.Pipeline.Halted(); i++ {
		d.Step()
	}
	fmt.Printf("PC=%#08x cycles=%d retired=%d\n", d.RF.PC(), d.Pipeline.Metrics.Cycles, d.Pipeline.Metrics.Retired)
	return false, nil
}

func run(l *cmdLine, d *core.Driver) (bool, error) {
	var budget uint64
	if !l.isEOL() {
		var err error
		if budget, err = l.getUint(64); err != nil {
			return false, err
		}
	}

	if breakArmed {
		for !d.Pipeline.Halted() {
			d.Step()
			if budget != 0 && d.Pipeline.Metrics.Cycles >= budget {
				break
			}
			if d.RF.PC() == breakpoint {
				fmt.Printf("breakpoint hit at %#08x\n", breakpoint)
				return false, nil
			}
		}
		return false, nil
	}

	res := d.Run(budget)
	fmt.Printf("halted: %s cycles=%d retired=%d stalls=%d flushes=%d\n",
		res.HaltReason, res.Cycles, res.Retired, res.Stalls, res.Flushes)
	return false, nil
}

func regs(_ *cmdLine, d *core.Driver) (bool, error) {
	snap := d.RF.Snapshot()
	var b strings.Builder
	for i := 0; i < len(snap); i += 4 {
		fmt.Printf("x%-2d..x%-2d: ", i, i+3)
		b.Reset()
		hex.FormatWord(&b, snap[i:i+4])
		fmt.Println(b.String())
	}
	b.Reset()
	hex.FormatWord(&b, []uint32{d.RF.PC()})
	fmt.Println("pc:      " + b.String())
	return false, nil
}

func csr(l *cmdLine, d *core.Driver) (bool, error) {
	addr, err := l.getUint(12)
	if err != nil {
		return false, err
	}
	fmt.Printf("csr[%#03x] = %#010x\n", addr, d.CSRValue(uint32(addr)))
	return false, nil
}

func mem(l *cmdLine, d *core.Driver) (bool, error) {
	addr, err := l.getUint(32)
	if err != nil {
		return false, err
	}
	length, err := l.getUint(32)
	if err != nil {
		return false, err
	}
	data := d.MemRange(uint32(addr), uint32(length))
	var b strings.Builder
	for i := 0; i < len(data); i += 16 {
		end := i + 16
		if end > len(data) {
			end = len(data)
		}
		fmt.Printf("%#08x: ", uint32(addr)+uint32(i))
		b.Reset()
		hex.FormatBytes(&b, true, data[i:end])
		fmt.Println(b.String())
	}
	return false, nil
}

func setBreak(l *cmdLine, _ *core.Driver) (bool, error) {
	if l.isEOL() {
		breakArmed = false
		fmt.Println("breakpoint cleared")
		return false, nil
	}
	addr, err := l.getUint(32)
	if err != nil {
		return false, err
	}
	breakpoint = uint32(addr)
	breakArmed = true
	fmt.Printf("breakpoint set at %#08x\n", breakpoint)
	return false, nil
}

func load(l *cmdLine, d *core.Driver) (bool, error) {
	path := l.getWord()
	if path == "" {
		return false, errors.New("load requires a file path")
	}
	if strings.HasSuffix(path, ".s") || strings.HasSuffix(path, ".asm") {
		src, err := os.ReadFile(path)
		if err != nil {
			return false, err
		}
		prog, err := asm.Assemble(string(src), 0)
		if err != nil {
			return false, err
		}
		d.Pipeline.Fetcher = pipeline.NewAssemblyFetcher(0, prog)
		d.RF.SetPC(0)
		fmt.Printf("loaded %d instructions\n", len(prog))
		return false, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	img, err := elfload.Load(f, d.Mem)
	if err != nil {
		return false, err
	}
	d.RF.SetPC(img.Entry)
	fmt.Printf("loaded ELF, entry=%#08x\n", img.Entry)
	return false, nil
}

// scheduleIRQ arms a scripted interrupt line to fire delay ticks from
// now, for exercising interrupt delivery without hand-assembling a
// program that raises it.
func scheduleIRQ(l *cmdLine, d *core.Driver) (bool, error) {
	bit, err := l.getUint(8)
	if err != nil {
		return false, err
	}
	delay, err := l.getUint(32)
	if err != nil {
		return false, err
	}
	d.ScheduleInterrupt("repl-irq", int(delay), uint(bit))
	fmt.Printf("scheduled irq bit %d in %d ticks\n", bit, delay)
	return false, nil
}

func quit(_ *cmdLine, _ *core.Driver) (bool, error) {
	return true, nil
}

func help(_ *cmdLine, _ *core.Driver) (bool, error) {
	fmt.Println("commands: step [n], run [cycles], regs, csr <addr>, mem <addr> <len>, break [addr], load <file>, irq <bit> <delay>, quit")
	return false, nil
}
