/*
 * rv32pipe - Main process.
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

package main

import (
	"log/slog"
	"os"

	getopt "github.com/pborman/getopt/v2"

	"github.com/rv32pipe/rv32pipe/command/reader"
	"github.com/rv32pipe/rv32pipe/config/simconfig"
	"github.com/rv32pipe/rv32pipe/emu/core"
	"github.com/rv32pipe/rv32pipe/emu/elfload"
	"github.com/rv32pipe/rv32pipe/emu/pipeline"
	"github.com/rv32pipe/rv32pipe/util/logger"
)

var Logger *slog.Logger

func main() {
	optConfig := getopt.StringLong("config", 'c', "", "Configuration file")
	optImage := getopt.StringLong("image", 'i', "", "ELF32 RV32I image to load")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optBatch := getopt.BoolLong("batch", 'b', "Run to completion instead of opening the REPL")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var file *os.File
	if *optLogFile != "" {
		file, _ = os.Create(*optLogFile)
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelInfo)
	debug := false
	Logger = slog.New(logger.NewHandler(file, &slog.HandlerOptions{Level: programLevel, AddSource: false}, &debug))
	slog.SetDefault(Logger)

	cfg := simconfig.Default()
	if *optConfig != "" {
		var err error
		cfg, err = simconfig.Load(*optConfig)
		if err != nil {
			Logger.Error(err.Error())
			os.Exit(1)
		}
	}
	if cfg.LogLevel == "debug" {
		programLevel.Set(slog.LevelDebug)
		debug = true
	}

	Logger.Info("rv32pipe started")

	opts := core.Options{
		Config: pipeline.Config{
			HaltOnBreak: cfg.HaltOnBreak,
			CycleLimit:  cfg.CycleLimit,
		},
		ClintScale: cfg.ClintScale,
		MtvecReset: cfg.MtvecReset,
	}

	d := core.NewBinaryDriver(0, opts)

	if *optImage != "" {
		f, err := os.Open(*optImage)
		if err != nil {
			Logger.Error(err.Error())
			os.Exit(1)
		}
		img, err := elfload.Load(f, d.Mem)
		f.Close()
		if err != nil {
			Logger.Error(err.Error())
			os.Exit(1)
		}
		d.RF.SetPC(img.Entry)
	}

	// Batch mode runs until the pipeline halts and then prints the UART
	// output; no signal handler is installed for it. The REPL has its
	// own Ctrl-C handling via liner.SetCtrlCAborts.
	if *optBatch {
		res := d.Run(cfg.CycleLimit)
		Logger.Info("run complete",
			"haltReason", res.HaltReason,
			"cycles", res.Cycles,
			"retired", res.Retired,
			"stalls", res.Stalls,
			"flushes", res.Flushes)
		os.Stdout.Write(res.UARTOutput)
		return
	}

	reader.ConsoleReader(d)
	Logger.Info("rv32pipe exiting")
}
