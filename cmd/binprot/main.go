// binprot encodes, decodes and verifies binprot values described by runtime
// type descriptors, and serves a websocket echo endpoint.
//
// Usage:
//
//	binprot encode -t TYPE [-t TYPE...] [--out FILE] VALUE...
//	binprot decode -t TYPE [-t TYPE...] HEX
//	binprot verify [-c CONFIG] FILE...
//	binprot serve  [-c CONFIG]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

var errUsage = errors.New("usage: binprot encode|decode|verify|serve [flags] [args]")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	command, rest := args[0], args[1:]
	switch command {
	case "encode":
		return runEncode(rest, stdout)
	case "decode":
		return runDecode(rest, stdout)
	case "verify":
		return runVerify(ctx, rest, stdout)
	case "serve":
		return runServe(ctx, rest)
	case "help", "-h", "--help":
		fmt.Fprintln(stdout, errUsage.Error())
		return nil
	default:
		return fmt.Errorf("unknown command %q: %w", command, errUsage)
	}
}
