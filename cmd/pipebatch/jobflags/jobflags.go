// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package jobflags holds the command line flags shared by every command that
// builds the job matrix.
package jobflags

import (
	"context"
	"slices"
	"strings"

	"github.com/matt-FFFFFF/pipebatch/internal/ctxlog"
	"github.com/matt-FFFFFF/pipebatch/internal/jobspec"
	"github.com/matt-FFFFFF/pipebatch/internal/matrixfile"
	"github.com/matt-FFFFFF/pipebatch/internal/runbatch"
	"github.com/urfave/cli/v3"
)

const (
	// MatrixFlag is the matrix file URL.
	MatrixFlag = "matrix"
	// PipelineFlag restricts the matrix to one pipeline name.
	PipelineFlag = "pipeline"
	// InputFlag is the shared input dataset.
	InputFlag = "input"
	// OutputRootFlag is the parent of every job output directory.
	OutputRootFlag = "output-root"
	// ToolFlag is the tool runner command line.
	ToolFlag = "tool"

	inputEnvVar = "PIPEBATCH_INPUT"
	toolEnvVar  = "PIPEBATCH_TOOL"
)

// Values are the parsed shared flags.
type Values struct {
	MatrixURL  string
	Pipeline   string
	Input      string
	OutputRoot string
	Tool       []string
}

// Flags returns a fresh set of the shared flags.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    MatrixFlag,
			Aliases: []string{"m"},
			Usage: "URL of a YAML or HCL matrix file. " +
				"Supports Hashicorp's go-getter syntax for fetching files from various sources. " +
				"The built-in matrix is used when unset.",
			TakesFile: true,
			OnlyOnce:  true,
		},
		&cli.StringFlag{
			Name:     PipelineFlag,
			Aliases:  []string{"p"},
			Usage:    "Only build jobs for this pipeline name, e.g. " + strings.Join(jobspec.DefaultMatrix().PipelineNames(), ", "),
			OnlyOnce: true,
		},
		&cli.StringFlag{
			Name:      InputFlag,
			Aliases:   []string{"i"},
			Usage:     "Path of the input dataset passed to every job",
			Sources:   cli.EnvVars(inputEnvVar),
			TakesFile: true,
			OnlyOnce:  true,
		},
		&cli.StringFlag{
			Name:        OutputRootFlag,
			Usage:       "Directory holding one output directory per job",
			Value:       runbatch.DefaultOutputRoot,
			DefaultText: runbatch.DefaultOutputRoot,
			TakesFile:   true,
			OnlyOnce:    true,
		},
		&cli.StringFlag{
			Name:        ToolFlag,
			Usage:       "Command that builds and runs the external tool, split on whitespace",
			Value:       strings.Join(runbatch.DefaultTool, " "),
			DefaultText: strings.Join(runbatch.DefaultTool, " "),
			Sources:     cli.EnvVars(toolEnvVar),
			OnlyOnce:    true,
		},
	}
}

// FromCommand reads the shared flags from cmd. A blank tool falls back to runbatch.DefaultTool.
func FromCommand(cmd *cli.Command) Values {
	tool := strings.Fields(cmd.String(ToolFlag))
	if len(tool) == 0 {
		tool = slices.Clone(runbatch.DefaultTool)
	}

	return Values{
		MatrixURL:  cmd.String(MatrixFlag),
		Pipeline:   cmd.String(PipelineFlag),
		Input:      cmd.String(InputFlag),
		OutputRoot: cmd.String(OutputRootFlag),
		Tool:       tool,
	}
}

// Matrix loads the matrix file, or returns the built-in matrix when no URL is
// set, and checks that the pipeline restriction names a declared pipeline.
func (v Values) Matrix(ctx context.Context) (jobspec.Matrix, error) {
	m := jobspec.DefaultMatrix()

	if v.MatrixURL != "" {
		var err error

		m, err = matrixfile.Load(ctx, v.MatrixURL, matrixfile.Vars{
			Input:      v.Input,
			OutputRoot: v.OutputRoot,
		})
		if err != nil {
			return jobspec.Matrix{}, err
		}
	}

	if err := m.ValidatePipeline(v.Pipeline); err != nil {
		return jobspec.Matrix{}, err
	}

	return m, nil
}

// Jobs builds the job list described by v.
func (v Values) Jobs(ctx context.Context) ([]jobspec.JobSpec, error) {
	m, err := v.Matrix(ctx)
	if err != nil {
		return nil, err
	}

	jobs := jobspec.Build(m, jobspec.Options{
		InputPath:  v.Input,
		OutputRoot: v.OutputRoot,
		Tool:       v.Tool,
		Pipeline:   v.Pipeline,
	})

	ctxlog.Debug(ctx, "built job matrix", "jobs", len(jobs), "pipeline", v.Pipeline)

	return jobs, nil
}
