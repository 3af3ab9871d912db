// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package matrix contains the command that prints the job matrix.
package matrix

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/goccy/go-yaml"
	"github.com/matt-FFFFFF/pipebatch/cmd/pipebatch/jobflags"
	"github.com/matt-FFFFFF/pipebatch/internal/ctxlog"
	"github.com/matt-FFFFFF/pipebatch/internal/jobspec"
	"github.com/urfave/cli/v3"
)

const (
	formatFlag  = "format"
	formatText  = "text"
	formatYAML  = "yaml"
	yamlIndent  = 2
	cliExitStr  = ""
	jobsMessage = "Number of compute instances: %d\n"
)

// ErrUnknownFormat is returned for a --format value other than text or yaml.
var ErrUnknownFormat = errors.New("unknown output format")

// MatrixCmd prints the job matrix without running anything.
var MatrixCmd = newMatrixCmd()

func newMatrixCmd() *cli.Command {
	flags := jobflags.Flags()
	flags = append(flags, &cli.StringFlag{
		Name:        formatFlag,
		Aliases:     []string{"f"},
		Usage:       "Output format, text or yaml",
		Value:       formatText,
		DefaultText: formatText,
		OnlyOnce:    true,
		Validator: func(s string) error {
			if !slices.Contains([]string{formatText, formatYAML}, s) {
				return fmt.Errorf("%w: %q", ErrUnknownFormat, s)
			}

			return nil
		},
	})

	return &cli.Command{
		Name:  "matrix",
		Usage: "Print the compute instances of the job matrix",
		Description: `Build the job matrix and print every compute instance with its index and
command line. Use the indices with 'run --run-selected'.
The filesystem is not touched.`,
		Flags:  flags,
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)
	logger.Debug("Running matrix command")

	jobs, err := jobflags.FromCommand(cmd).Jobs(ctx)
	if err != nil {
		logger.Error("🔴 Failed to build the job matrix", "error", err)
		return cli.Exit(cliExitStr, 1)
	}

	out := cmd.Root().Writer

	switch cmd.String(formatFlag) {
	case formatYAML:
		err = writeYAML(out, jobs)
	default:
		err = writeText(out, jobs)
	}

	if err != nil {
		logger.Error("🔴 Failed to write the job matrix", "error", err)
		return cli.Exit(cliExitStr, 1)
	}

	return nil
}

func writeText(w io.Writer, jobs []jobspec.JobSpec) error {
	if _, err := fmt.Fprintf(w, jobsMessage, len(jobs)); err != nil {
		return err
	}

	for _, job := range jobs {
		if _, err := fmt.Fprintf(w, " + [Compute instance: %d] %s\n", job.Index, job.CommandLine()); err != nil {
			return err
		}
	}

	return nil
}

type yamlJob struct {
	Index          int      `yaml:"index"`
	Pipeline       string   `yaml:"pipeline"`
	EntropyFilter  string   `yaml:"entropy_filter,omitempty"`
	ByteSizeFilter string   `yaml:"byte_size_filter,omitempty"`
	OutputPath     string   `yaml:"output_path"`
	Command        []string `yaml:"command"`
}

func writeYAML(w io.Writer, jobs []jobspec.JobSpec) error {
	doc := make([]yamlJob, 0, len(jobs))

	for _, job := range jobs {
		doc = append(doc, yamlJob{
			Index:          job.Index,
			Pipeline:       job.PipelineName,
			EntropyFilter:  job.EntropyFilter,
			ByteSizeFilter: job.ByteSizeFilter,
			OutputPath:     job.OutputPath,
			Command:        job.Command(),
		})
	}

	enc := yaml.NewEncoder(w, yaml.Indent(yamlIndent), yaml.IndentSequence(true))
	if err := enc.Encode(doc); err != nil {
		return err
	}

	return enc.Close()
}
