package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/chanzuckerberg/s3mi/internal/logging"
	"github.com/chanzuckerberg/s3mi/internal/sink"
)

func runCp(args []string) int {
	fs := flag.NewFlagSet("cp", flag.ExitOnError)

	var tf transferFlags
	addTransferFlags(fs, &tf)

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: s3mi cp [options] s3://bucket/key dest

Download an object to a local file. Bytes stream into a partial file
next to dest, which is renamed into place only after the full object
arrived; a failed transfer removes the partial. 'cp ... -' streams to
stdout like cat.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "Error: an object URL and a destination are required")
		fs.Usage()
		return ExitInvalidArgs
	}
	rawURL, dest := fs.Arg(0), fs.Arg(1)

	cfg, err := loadConfig(tf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}

	ctx, cancel := setup(cfg)
	defer cancel()

	if dest == "-" {
		return transfer(ctx, cfg, rawURL, os.Stdout)
	}

	out, err := sink.Create(dest)
	if err != nil {
		logging.Component("main").Error("cannot create destination", "dest", dest, "error", err)
		return ExitSinkError
	}

	code := transfer(ctx, cfg, rawURL, out)
	if code != ExitSuccess {
		out.Abort()
		return code
	}

	if err := out.Commit(); err != nil {
		logging.Component("main").Error("cannot finalize destination", "dest", dest, "error", err)
		out.Abort()
		return ExitSinkError
	}

	return ExitSuccess
}
