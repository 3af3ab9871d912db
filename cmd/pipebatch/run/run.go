// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package run contains the command that runs the compute instances.
package run

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/matt-FFFFFF/pipebatch/cmd/pipebatch/jobflags"
	"github.com/matt-FFFFFF/pipebatch/internal/ctxlog"
	"github.com/matt-FFFFFF/pipebatch/internal/jobspec"
	"github.com/matt-FFFFFF/pipebatch/internal/outdir"
	"github.com/matt-FFFFFF/pipebatch/internal/progress"
	"github.com/matt-FFFFFF/pipebatch/internal/runbatch"
	"github.com/matt-FFFFFF/pipebatch/internal/selector"
	"github.com/matt-FFFFFF/pipebatch/internal/tui"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
)

const (
	dryRunFlag        = "dry-run"
	keepOldOutputFlag = "keep-old-output"
	runSelectedFlag   = "run-selected"
	timeoutFlag       = "timeout"
	tuiFlag           = "tui"
	outFlag           = "out"
	successFlag       = "output-success-details"
	tailLinesFlag     = "tail-lines"
	cliExitStr        = ""
)

var (
	// ErrInputNotFound is returned when the input dataset does not exist.
	ErrInputNotFound = errors.New("input path does not exist")
	// ErrNegativeTimeout is returned for a timeout below zero.
	ErrNegativeTimeout = errors.New("timeout must not be negative")
	// ErrUnexpectedArgument is returned for a positional argument that is not a --run-selected index.
	ErrUnexpectedArgument = errors.New("unexpected argument")
)

// FS is the filesystem used for the input check, output directories and the results file.
var FS = afero.NewOsFs()

// RunCmd is the command that builds the job matrix and runs it.
var RunCmd = newRunCmd()

func newRunCmd() *cli.Command {
	flags := jobflags.Flags()
	flags = append(flags,
		&cli.BoolFlag{
			Name:        dryRunFlag,
			Usage:       "Print the compute instances without running them",
			Value:       false,
			DefaultText: "false",
			OnlyOnce:    true,
		},
		&cli.BoolFlag{
			Name:        keepOldOutputFlag,
			Aliases:     []string{"k"},
			Usage:       "Keep .csv and .gv files left in the output directories by earlier runs",
			Value:       false,
			DefaultText: "false",
			OnlyOnce:    true,
		},
		&cli.IntSliceFlag{
			Name:    runSelectedFlag,
			Aliases: []string{"r"},
			Usage: "Only run the compute instances with these indices, in the given order. " +
				"Indices may follow the flag as separate arguments, e.g. -r 2 0, " +
				"or be given as a comma separated list or by repeating the flag.",
		},
		&cli.IntFlag{
			Name:        timeoutFlag,
			Aliases:     []string{"t"},
			Usage:       "Per compute instance timeout in seconds, 0 for none",
			Value:       0,
			DefaultText: "0",
			OnlyOnce:    true,
			Validator: func(i int) error {
				if i < 0 {
					return ErrNegativeTimeout
				}

				return nil
			},
		},
		&cli.BoolFlag{
			Name:        tuiFlag,
			Aliases:     []string{"interactive"},
			Usage:       "Run with interactive Terminal User Interface (TUI) showing real-time progress",
			Value:       false,
			DefaultText: "false",
			OnlyOnce:    true,
		},
		&cli.StringFlag{
			Name:      outFlag,
			Usage:     "Write the results as YAML to this file",
			TakesFile: true,
			OnlyOnce:  true,
		},
		&cli.BoolFlag{
			Name:        successFlag,
			Aliases:     []string{"success"},
			Usage:       "Include the output of completed compute instances in the results",
			Value:       false,
			DefaultText: "false",
			OnlyOnce:    true,
		},
		&cli.IntFlag{
			Name:        tailLinesFlag,
			Usage:       "Number of output lines shown per compute instance in the results, 0 for all",
			Value:       runbatch.DefaultOutputOptions().TailLines,
			DefaultText: fmt.Sprint(runbatch.DefaultOutputOptions().TailLines),
			OnlyOnce:    true,
		},
	)

	return &cli.Command{
		Name:  "run",
		Usage: "Run the compute instances of the job matrix",
		Description: `Build the job matrix and run each compute instance in turn.
Every compute instance invokes the external tool with the shared input dataset and
its own output directory. Output directories are created and purged of stale
.csv and .gv files before the first compute instance starts.

A compute instance that exceeds --timeout is terminated and the batch continues.
A compute instance that cannot be launched stops the batch.`,
		Flags:  flags,
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)
	logger.Debug("Running run command")

	out := cmd.Root().Writer

	cfg, err := configFromCommand(cmd)
	if err != nil {
		logger.Error("🔴 Invalid arguments", "error", err)
		return cli.Exit(cliExitStr, 1)
	}

	logger.Info("effective configuration",
		"input", cfg.InputPath,
		"outputRoot", cfg.OutputRoot,
		"tool", cfg.Tool,
		"dryRun", cfg.DryRun,
		"keepOldOutput", cfg.KeepOldOutput,
		"timeout", cfg.Timeout,
		"pipeline", cfg.Pipeline,
		"selected", cfg.Selected,
		"matrix", cfg.MatrixURL,
		"tui", cfg.TUI,
	)

	if err := checkInput(cfg.InputPath); err != nil {
		logger.Error(fmt.Sprintf("🔴 Input path %q does not exist. Abort processing.", cfg.InputPath), "error", err)
		return cli.Exit(cliExitStr, 1)
	}

	jobs, err := jobflags.FromCommand(cmd).Jobs(ctx)
	if err != nil {
		logger.Error("🔴 Failed to build the job matrix", "error", err)
		return cli.Exit(cliExitStr, 1)
	}

	jobs, err = selector.Select(jobs, cfg.Selected)
	if err != nil {
		logger.Error("🔴 Invalid compute instance selection", "error", err)
		return cli.Exit(cliExitStr, 1)
	}

	res, execErr := execute(ctx, cmd, cfg, jobs, out)

	if res != nil && !cfg.DryRun {
		if err := writeResults(ctx, cmd, cfg, res, out); err != nil {
			logger.Error("🔴 Failed to write results", "error", err)
			return cli.Exit(cliExitStr, 1)
		}
	}

	if execErr != nil {
		logger.Error("🔴 Batch aborted", "error", execErr)
		return cli.Exit(cliExitStr, 1)
	}

	if res != nil && res.HasFailures() {
		logger.Warn("Some compute instances timed out. See above for details.")
	}

	return nil
}

func configFromCommand(cmd *cli.Command) (*runbatch.BatchConfig, error) {
	shared := jobflags.FromCommand(cmd)

	selected, err := selectedIndices(cmd)
	if err != nil {
		return nil, err
	}

	return &runbatch.BatchConfig{
		InputPath:     shared.Input,
		OutputRoot:    shared.OutputRoot,
		Tool:          shared.Tool,
		DryRun:        cmd.Bool(dryRunFlag),
		KeepOldOutput: cmd.Bool(keepOldOutputFlag),
		Timeout:       time.Duration(cmd.Int(timeoutFlag)) * time.Second,
		Pipeline:      shared.Pipeline,
		Selected:      selected,
		MatrixURL:     shared.MatrixURL,
		TUI:           cmd.Bool(tuiFlag),
		ResultsFile:   cmd.String(outFlag),
	}, nil
}

// selectedIndices returns the --run-selected indices followed by any indices
// given as positional arguments, or nil when the flag is not set.
// Positional arguments are only accepted after --run-selected.
func selectedIndices(cmd *cli.Command) ([]int, error) {
	args := cmd.Args().Slice()

	if !cmd.IsSet(runSelectedFlag) {
		if len(args) > 0 {
			return nil, fmt.Errorf("%w: %q", ErrUnexpectedArgument, args[0])
		}

		return nil, nil
	}

	selected := append([]int{}, cmd.IntSlice(runSelectedFlag)...)

	for _, arg := range args {
		i, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a compute instance index", ErrUnexpectedArgument, arg)
		}

		selected = append(selected, i)
	}

	return selected, nil
}

func checkInput(path string) error {
	if path == "" {
		return ErrInputNotFound
	}

	if _, err := FS.Stat(path); err != nil {
		return errors.Join(ErrInputNotFound, err)
	}

	return nil
}

func execute(
	ctx context.Context,
	cmd *cli.Command,
	cfg *runbatch.BatchConfig,
	jobs []jobspec.JobSpec,
	out io.Writer,
) (*runbatch.BatchResults, error) {
	if !cfg.TUI || cfg.DryRun {
		exec := runbatch.NewExecutor(runbatch.NewRunner(out, nil), outdir.New(FS), out, nil)
		return exec.Execute(ctx, jobs, cfg)
	}

	ctxlog.Info(ctx, "Starting interactive TUI mode...")

	buf := new(bytes.Buffer)
	tuiCtx := ctxlog.NewForTUI(ctx, buf)

	runner := tui.NewRunner(tuiCtx, jobs)

	res, err := runner.Run(tuiCtx, func(ctx context.Context, reporter progress.Reporter) (*runbatch.BatchResults, error) {
		exec := runbatch.NewExecutor(runbatch.NewRunner(io.Discard, reporter), outdir.New(FS), io.Discard, reporter)
		return exec.Execute(ctx, jobs, cfg)
	})

	buf.WriteTo(out) //nolint:errcheck

	if res != nil && err == nil {
		fmt.Fprintf(out, "Finished! Total time: %s\n", runbatch.FormatTotal(res.Elapsed)) //nolint:errcheck
	}

	if errors.Is(err, tui.ErrTUI) {
		ctxlog.Error(ctx, fmt.Sprintf("TUI execution error: %s", err.Error()), "command", cmd.Name)
	}

	return res, err
}

func writeResults(
	ctx context.Context,
	cmd *cli.Command,
	cfg *runbatch.BatchConfig,
	res *runbatch.BatchResults,
	out io.Writer,
) error {
	if cfg.ResultsFile != "" {
		if err := res.SaveYAML(FS, cfg.ResultsFile); err != nil {
			return err
		}

		ctxlog.Info(ctx, fmt.Sprintf("Results written to %s", cfg.ResultsFile))
	}

	opts := runbatch.DefaultOutputOptions()
	opts.ShowSuccessDetails = cmd.Bool(successFlag)
	opts.TailLines = cmd.Int(tailLinesFlag)

	return res.Results.WriteWithOptions(out, opts)
}
