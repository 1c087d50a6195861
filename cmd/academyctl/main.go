package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/jrsteele09/go-academy-client/internal/config"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

func run(args []string, in io.Reader, out, errOut io.Writer) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(errOut, "Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := newCLI(config.New(), in, out, errOut)
	defer c.close()

	root := newRootCmd(c)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		c.report(err)
		return err
	}
	return nil
}
