// SPDX-License-Identifier: EPL-2.0

// Command audwmark embeds and detects audio watermarks.
//
//	audwmark [-config FILE] [-log-level LEVEL] <command> [flags] [args]
//
// Commands:
//
//	embed   watermark an audio file into a WAV file
//	detect  report the watermark of one or more files
//	listen  detect continuously on raw float32 PCM read from stdin
//	hex     print the hex payload of a text message
//	text    print the text of a hex payload
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ik5/audwmark/internal/config"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// env carries what every command needs.
type env struct {
	cfg    *config.Config
	log    *slog.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

type command func(ctx context.Context, e *env, args []string) error

var commands = map[string]command{
	"embed":  runEmbed,
	"detect": runDetect,
	"listen": runListen,
	"hex":    runHex,
	"text":   runText,
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("audwmark", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to a YAML configuration file")
	logLevel := fs.String("log-level", "", "override log_level (debug, info, warn, error)")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: audwmark [-config FILE] [-log-level LEVEL] <embed|detect|listen|hex|text> [flags] [args]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "audwmark: %v\n", err)
			return 1
		}
		cfg = loaded
	}
	if *logLevel != "" {
		cfg.LogLevel = config.LogLevel(*logLevel)
		if !cfg.LogLevel.IsValid() {
			fmt.Fprintf(stderr, "audwmark: invalid log level %q\n", *logLevel)
			return 2
		}
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cmd, ok := commands[fs.Arg(0)]
	if !ok {
		fmt.Fprintf(stderr, "audwmark: unknown command %q\n", fs.Arg(0))
		fs.Usage()
		return 2
	}

	e := &env{
		cfg:    cfg,
		log:    newLogger(stderr, cfg.LogLevel),
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}

	if err := cmd(ctx, e, fs.Args()[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) || errors.Is(err, errUsage) {
			return 2
		}
		if errors.Is(err, context.Canceled) {
			return 130
		}
		fmt.Fprintf(stderr, "audwmark %s: %v\n", fs.Arg(0), err)
		return 1
	}

	return 0
}

// errUsage marks an error already reported by a flag set.
var errUsage = errors.New("usage")

func newFlagSet(e *env, name, usage string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	fs.Usage = func() {
		fmt.Fprintf(e.stderr, "usage: audwmark %s %s\n", name, usage)
		fs.PrintDefaults()
	}
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return errUsage
	}
	return nil
}

func newLogger(w io.Writer, level config.LogLevel) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level.Level()}))
}
