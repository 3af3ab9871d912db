// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package clean contains the command that removes job output directories.
package clean

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/matt-FFFFFF/pipebatch/internal/ctxlog"
	"github.com/matt-FFFFFF/pipebatch/internal/outdir"
	"github.com/matt-FFFFFF/pipebatch/internal/runbatch"
	"github.com/peterh/liner"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
)

const (
	outputRootFlag = "output-root"
	yesFlag        = "yes"
	cliExitStr     = ""
)

var (
	// FS is the filesystem the output root is cleaned on.
	FS = afero.NewOsFs()

	// confirm asks the user a yes/no question on the terminal.
	confirm = promptConfirm
)

// CleanCmd removes every directory below the output root.
var CleanCmd = newCleanCmd()

func newCleanCmd() *cli.Command {
	return &cli.Command{
		Name:  "clean",
		Usage: "Remove every job output directory below the output root",
		Description: `Remove every directory directly inside the output root, including the results
they hold. Files directly inside the output root are kept.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        outputRootFlag,
				Usage:       "Directory holding one output directory per job",
				Value:       runbatch.DefaultOutputRoot,
				DefaultText: runbatch.DefaultOutputRoot,
				TakesFile:   true,
				OnlyOnce:    true,
			},
			&cli.BoolFlag{
				Name:        yesFlag,
				Aliases:     []string{"y"},
				Usage:       "Do not ask for confirmation",
				Value:       false,
				DefaultText: "false",
				OnlyOnce:    true,
			},
		},
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)
	logger.Debug("Running clean command")

	root := cmd.String(outputRootFlag)
	mgr := outdir.New(FS)

	dirs, err := mgr.Subdirectories(root)
	if errors.Is(err, outdir.ErrRootNotFound) {
		logger.Warn(fmt.Sprintf("The directory %s doesn't exist.", root))
		return nil
	}

	if err != nil {
		logger.Error("🔴 Failed to list output directories", "root", root, "error", err)
		return cli.Exit(cliExitStr, 1)
	}

	if len(dirs) == 0 {
		logger.Info("nothing to clean", "root", root)
		return nil
	}

	if !cmd.Bool(yesFlag) {
		ok, err := confirm(fmt.Sprintf("Remove %d directories in %s? [y/N] ", len(dirs), root))
		if err != nil {
			logger.Error("🔴 Failed to read confirmation", "error", err)
			return cli.Exit(cliExitStr, 1)
		}

		if !ok {
			logger.Info("clean aborted")
			return nil
		}
	}

	removed, err := mgr.Clean(ctx, root)
	for _, d := range removed {
		fmt.Fprintf(cmd.Root().Writer, "Removed directory: %s\n", d) //nolint:errcheck
	}

	if err != nil {
		logger.Error("🔴 Failed to clean output directories", "root", root, "error", err)
		return cli.Exit(cliExitStr, 1)
	}

	return nil
}

// promptConfirm reads one answer from the terminal. Ctrl+C counts as no.
func promptConfirm(prompt string) (bool, error) {
	line := liner.NewLiner()
	defer line.Close() //nolint:errcheck

	line.SetCtrlCAborts(true)

	answer, err := line.Prompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
