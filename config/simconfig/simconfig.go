/*
 * rv32pipe - Simulator configuration file parser
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

// Package simconfig parses the simulator's key=value configuration file.
// There is no channel/device model registry to dispatch into here (this
// core has one fixed pipeline and two fixed peripherals), so this is a
// flat key=value reader rather than the teacher's per-line model
// dispatcher, keeping its line-scanning idiom (skip space, read a bare
// or quoted value, '#' starts a comment) for a single pass over simpler
// data.
package simconfig

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"
)

// Config is every tunable knob the CLI and REPL can set from a file.
type Config struct {
	CycleLimit  uint64
	MtvecReset  uint32
	ClintScale  uint64
	HaltOnBreak bool
	LogFile     string
	LogLevel    string // debug, info, warn, error
}

// Default returns the simulator's built-in defaults.
func Default() Config {
	return Config{
		CycleLimit:  0,
		MtvecReset:  0x80000000,
		ClintScale:  1,
		HaltOnBreak: true,
		LogLevel:    "info",
	}
}

var lineNumber int

// Load reads name and applies each key=value line onto a copy of Default.
func Load(name string) (Config, error) {
	cfg := Default()

	file, err := os.Open(name)
	if err != nil {
		return cfg, err
	}
	defer file.Close()

	lineNumber = 0
	reader := bufio.NewReader(file)
	for {
		raw, err := reader.ReadString('\n')
		lineNumber++
		if len(raw) == 0 && err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return cfg, err
		}
		if err := apply(&cfg, raw); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

type scanLine struct {
	line string
	pos  int
}

func (l *scanLine) skipSpace() {
	for l.pos < len(l.line) && unicode.IsSpace(rune(l.line[l.pos])) {
		l.pos++
	}
}

func (l *scanLine) isEOL() bool {
	return l.pos >= len(l.line) || l.line[l.pos] == '#'
}

func (l *scanLine) readToken() string {
	start := l.pos
	for l.pos < len(l.line) {
		by := l.line[l.pos]
		if unicode.IsSpace(rune(by)) || by == '#' || by == '=' {
			break
		}
		l.pos++
	}
	return l.line[start:l.pos]
}

func (l *scanLine) readValue() (string, error) {
	l.skipSpace()
	if l.pos >= len(l.line) {
		return "", nil
	}
	if l.line[l.pos] == '"' {
		l.pos++
		start := l.pos
		for l.pos < len(l.line) && l.line[l.pos] != '"' {
			l.pos++
		}
		if l.pos >= len(l.line) {
			return "", fmt.Errorf("unterminated quoted value, line %d", lineNumber)
		}
		v := l.line[start:l.pos]
		l.pos++
		return v, nil
	}
	start := l.pos
	for l.pos < len(l.line) && !unicode.IsSpace(rune(l.line[l.pos])) && l.line[l.pos] != '#' {
		l.pos++
	}
	return l.line[start:l.pos], nil
}

func apply(cfg *Config, raw string) error {
	l := &scanLine{line: raw}
	l.skipSpace()
	if l.isEOL() {
		return nil
	}

	key := strings.ToLower(l.readToken())
	l.skipSpace()
	if l.pos >= len(l.line) || l.line[l.pos] != '=' {
		return fmt.Errorf("expected '=' after %q, line %d", key, lineNumber)
	}
	l.pos++
	val, err := l.readValue()
	if err != nil {
		return err
	}

	switch key {
	case "cyclelimit":
		n, err := strconv.ParseUint(val, 0, 64)
		if err != nil {
			return fmt.Errorf("cyclelimit: %w, line %d", err, lineNumber)
		}
		cfg.CycleLimit = n
	case "mtvecreset":
		n, err := strconv.ParseUint(val, 0, 32)
		if err != nil {
			return fmt.Errorf("mtvecreset: %w, line %d", err, lineNumber)
		}
		cfg.MtvecReset = uint32(n)
	case "clintscale":
		n, err := strconv.ParseUint(val, 0, 64)
		if err != nil {
			return fmt.Errorf("clintscale: %w, line %d", err, lineNumber)
		}
		cfg.ClintScale = n
	case "haltonbreak":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("haltonbreak: %w, line %d", err, lineNumber)
		}
		cfg.HaltOnBreak = b
	case "logfile":
		cfg.LogFile = val
	case "loglevel":
		cfg.LogLevel = strings.ToLower(val)
	default:
		return fmt.Errorf("unknown option %q, line %d", key, lineNumber)
	}
	return nil
}
