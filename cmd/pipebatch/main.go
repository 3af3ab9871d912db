// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main contains the pipebatch command-line interface (CLI).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/matt-FFFFFF/pipebatch"
	"github.com/matt-FFFFFF/pipebatch/cmd/pipebatch/clean"
	"github.com/matt-FFFFFF/pipebatch/cmd/pipebatch/matrix"
	"github.com/matt-FFFFFF/pipebatch/cmd/pipebatch/run"
	"github.com/matt-FFFFFF/pipebatch/internal/ctxlog"
	"github.com/matt-FFFFFF/pipebatch/internal/signalbroker"
	"github.com/urfave/cli/v3"
)

// rootCmd is the root command for the CLI.
var rootCmd = &cli.Command{
	Commands: []*cli.Command{
		run.RunCmd,
		matrix.MatrixCmd,
		clean.CleanCmd,
	},
	Writer:    os.Stdout,
	ErrWriter: os.Stderr,
	Name:      "pipebatch",
	Description: `pipebatch runs a matrix of experiment pipelines through an external tool,
one compute instance at a time. Each compute instance gets its own output directory,
its output is streamed as it is produced and a per-instance timeout terminates
instances that run too long.`,
	Usage:     "pipebatch run --input ./dataset",
	Copyright: "Copyright (c) matt-FFFFFF 2025. All rights reserved.",
	Authors: []any{
		"Matt White (matt-FFFFFF)",
	},
	EnableShellCompletion: true,
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)
	defer cancel()

	sigCh := signalbroker.New(ctx)

	go signalbroker.Watch(ctx, sigCh, cancel)

	rootCmd.Version = fmt.Sprintf("%s (commit: %s)", pipebatch.Version, pipebatch.Commit)

	for i, arg := range os.Args {
		ctxlog.Debug(ctx, "program argument", "index", i, "value", arg)
	}

	err := rootCmd.Run(ctx, os.Args) // Err is handled by cli framework

	if ctx.Err() != nil {
		ctxlog.Logger(ctx).Error("command terminated due to cancellation", "error", ctx.Err())
		os.Exit(1)
	}

	if err != nil {
		ctxlog.Logger(ctx).Error("command execution failed", "error", err)
		os.Exit(1)
	}
}
