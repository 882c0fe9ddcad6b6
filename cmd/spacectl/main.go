// Command spacectl is a small operator CLI for a capsule store: write a
// file in as a capsule, read one back out, delete one, force a GC sweep,
// or rotate the active encryption key.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out, errOut *os.File) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 1
	}

	ctx := context.Background()
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "put":
		return cmdPut(ctx, out, errOut, rest)
	case "get":
		return cmdGet(ctx, out, errOut, rest)
	case "rm":
		return cmdRm(ctx, out, errOut, rest)
	case "gc":
		return cmdGC(ctx, out, errOut, rest)
	case "rotate-key":
		return cmdRotateKey(ctx, out, errOut, rest)
	case "-h", "--help", "help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "spacectl: unknown command %q\n\n", cmd)
		printUsage(errOut)
		return 1
	}
}

func printUsage(w *os.File) {
	fmt.Fprint(w, `Usage: spacectl <command> [options]

Commands:
  put --file <path>          Write a file as a new capsule, prints its id
  get <capsule-id>           Read a capsule out to stdout
  rm <capsule-id>            Delete a capsule
  gc                         Run an immediate garbage collection sweep
  rotate-key                 Begin using a new encryption key version

Run 'spacectl <command> --help' for command-specific options.
`)
}
