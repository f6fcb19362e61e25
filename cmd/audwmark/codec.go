// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/ik5/audwmark/payload"
	"github.com/ik5/audwmark/stream"
)

func runHex(_ context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "hex", "TEXT...")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}

	text := strings.Join(fs.Args(), " ")
	if limit := stream.MaxMessageLength(e.cfg.Params()); len(text) > limit {
		return fmt.Errorf("message is %d bytes, at most %d fit", len(text), limit)
	}

	fmt.Fprintln(e.stdout, payload.TextToHex(text))
	return nil
}

func runText(_ context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "text", "HEX")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errUsage
	}

	text, err := payload.HexToText(fs.Arg(0))
	if err != nil {
		return err
	}

	fmt.Fprintln(e.stdout, text)
	return nil
}
