// Copyright 2024 The wrkstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Wrkstat reads a directory of wrk reports and container resource
// logs and writes the aggregated results as a JSON dataset.
//
// Usage:
//
//	wrkstat [flags] dir
//
// Every file in dir ending in the report suffix (default ".txt") is
// parsed as a wrk report, and every file ending in the log suffix
// (default ".log") as a resource log with lines of the form
//
//	2024-03-01T10:00:05,153.20%,182.5MiB / 7.675GiB,2.32%
//
// Each benchmark run is correlated with the resource samples taken
// while it ran, and the results are grouped by endpoint. The dataset
// is written to results.json unless -o is given.
//
// The flags are:
//
//	-o, --output file
//		Write the JSON dataset to file.
//	--csv file
//		Also write the dataset as CSV to file.
//	--table
//		Print a summary table to standard output.
//	--report-suffix, --log-suffix suffix
//		Select input files by name suffix.
//	-j, --workers n
//		Parse at most n files at once.
//	-v, --verbose
//		Log progress to standard error.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"runtime"

	"github.com/aclements/go-gg/table"
	"github.com/spf13/pflag"

	"github.com/frameworkbench/wrkstat/dataset"
	"github.com/frameworkbench/wrkstat/pipeline"
)

// errUsage is returned after the usage message has been printed.
var errUsage = errors.New("usage")

func main() {
	log.SetPrefix("wrkstat: ")
	log.SetFlags(0)
	err := wrkstat(os.Stdout, os.Stderr, os.Args[1:])
	switch {
	case err == nil:
	case errors.Is(err, pflag.ErrHelp):
	case errors.Is(err, errUsage):
		os.Exit(2)
	default:
		log.Fatal(err)
	}
}

// tableFormats are the column formats for --table, in Row field
// order. Latencies are printed in seconds.
var tableFormats = []string{
	"%s", "%s", "%.0f", "%.2f", "%.2f",
	"%.6f", "%.6f", "%.6f", "%.6f",
	"%d",
	"%.2f", "%.2f", "%.2f", "%.2f", "%d",
}

func wrkstat(stdout, stderr io.Writer, args []string) error {
	fs := pflag.NewFlagSet("wrkstat", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: wrkstat [flags] dir\n")
		fs.PrintDefaults()
	}
	defaults := pipeline.DefaultOptions("")
	output := fs.StringP("output", "o", "results.json", "write the dataset to `file`")
	csvFile := fs.String("csv", "", "also write the dataset as CSV to `file`")
	printTable := fs.Bool("table", false, "print a summary table to stdout")
	reportSuffix := fs.String("report-suffix", defaults.ReportSuffix, "read wrk reports from files ending in `suffix`")
	logSuffix := fs.String("log-suffix", defaults.LogSuffix, "read resource logs from files ending in `suffix`")
	workers := fs.IntP("workers", "j", runtime.GOMAXPROCS(0), "parse up to `n` files in parallel")
	verbose := fs.BoolP("verbose", "v", false, "log progress to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errUsage
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: dropTime,
	}))

	opts := pipeline.Options{
		Dir:          fs.Arg(0),
		ReportSuffix: *reportSuffix,
		LogSuffix:    *logSuffix,
		Workers:      *workers,
		Logger:       logger,
	}
	d, err := pipeline.Load(context.Background(), opts)
	if err != nil {
		return err
	}

	if err := d.WriteFile(*output); err != nil {
		return err
	}
	logger.Info("wrote dataset", "file", *output, "entries", d.Len())
	if *csvFile != "" {
		if err := writeCSV(d, *csvFile); err != nil {
			return err
		}
		logger.Info("wrote CSV", "file", *csvFile)
	}
	if *printTable {
		return table.Fprint(stdout, d.Table(), tableFormats...)
	}
	return nil
}

func writeCSV(d *dataset.Dataset, name string) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := d.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// dropTime removes the timestamp from log records.
func dropTime(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey && len(groups) == 0 {
		return slog.Attr{}
	}
	return a
}
