package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/chanzuckerberg/s3mi/internal/logging"
	"github.com/chanzuckerberg/s3mi/internal/sink"
	"github.com/chanzuckerberg/s3mi/internal/source"
)

func runCat(args []string) int {
	fs := flag.NewFlagSet("cat", flag.ExitOnError)

	var tf transferFlags
	addTransferFlags(fs, &tf)
	decompress := fs.String("decompress", "", "Decompress while streaming: auto, zstd, gzip, or none")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: s3mi cat [options] s3://bucket/key

Stream an object to stdout using parallel range fetches, emitting bytes
in strict offset order.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one object URL is required")
		fs.Usage()
		return ExitInvalidArgs
	}
	rawURL := fs.Arg(0)

	cfg, err := loadConfig(tf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}

	ctx, cancel := setup(cfg)
	defer cancel()

	var out io.Writer = os.Stdout

	if *decompress != "" && *decompress != "none" {
		format := sink.FormatNone
		if *decompress == "auto" {
			loc, perr := source.ParseLocator(rawURL)
			if perr == nil {
				format = sink.DetectFormat(loc.Key)
			}
		} else {
			format, err = sink.ParseFormat(*decompress)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				return ExitInvalidArgs
			}
		}

		if format != sink.FormatNone {
			dec, derr := sink.NewDecompressor(os.Stdout, format)
			if derr != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", derr)
				return ExitInvalidArgs
			}
			out = dec
			defer func() {
				if cerr := dec.Close(); cerr != nil {
					logging.Component("main").Error("decompression failed", "error", cerr)
				}
			}()
		}
	}

	return transfer(ctx, cfg, rawURL, out)
}
