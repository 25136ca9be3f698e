package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/epidata/internal/bench"
	"github.com/okian/epidata/internal/cli"
	"github.com/okian/epidata/internal/config"
	"github.com/okian/epidata/pkg/epidata"
)

// Exit codes.
const (
	exitOK         = 0
	exitFailure    = 1
	exitUsage      = 2
	exitNoResponse = 3
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the CLI and maps its error to a process exit code.
func run(ctx context.Context, argv []string, stdout, stderr io.Writer) int {
	err := cli.Execute(ctx, argv, stdout, stderr)
	if err == nil {
		return exitOK
	}

	_, _ = io.WriteString(stderr, "epidata: "+err.Error()+"\n")

	switch {
	case errors.Is(err, epidata.ErrValidation), errors.Is(err, config.ErrInvalidConfig), errors.Is(err, config.ErrLoadConfig),
		errors.Is(err, bench.ErrUnknownSource), errors.Is(err, bench.ErrInvalidConfig):
		return exitUsage
	case errors.Is(err, cli.ErrRequestFailed):
		return exitNoResponse
	default:
		return exitFailure
	}
}
