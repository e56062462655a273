// Command s3mi transfers big objects fast between an object store and
// the local machine: cat streams an object to stdout, cp downloads it to
// a file. Both run many concurrent range fetches and reassemble the
// object in strict byte order.
package main

import (
	"fmt"
	"os"
)

// Exit codes
const (
	ExitSuccess        = 0
	ExitTransferFailed = 1
	ExitInvalidArgs    = 2
	ExitSourceError    = 3
	ExitSinkError      = 4
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return ExitInvalidArgs
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "cat":
		return runCat(cmdArgs)
	case "cp":
		return runCp(cmdArgs)
	case "version":
		printVersion()
		return ExitSuccess
	case "help", "-h", "--help":
		printUsage()
		return ExitSuccess
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		return ExitInvalidArgs
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: s3mi <command> [options]

Commands:
  cat      Stream an object to stdout with parallel range fetches
  cp       Download an object to a local file, renamed into place on success
  version  Print version information

Run 's3mi <command> -h' for command-specific help.`)
}
