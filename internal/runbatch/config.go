// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"time"
)

// DefaultOutputRoot is the parent directory of every job output directory.
const DefaultOutputRoot = "data"

// DefaultTool is the command that builds and runs the external tool.
var DefaultTool = []string{"cargo", "run", "--"}

// BatchConfig is built once from the command line and not modified afterwards.
type BatchConfig struct {
	InputPath     string        // shared input dataset
	OutputRoot    string        // parent of the job output directories
	Tool          []string      // tool runner prefix
	DryRun        bool          // print the job list and run nothing
	KeepOldOutput bool          // skip purging stale result files
	Timeout       time.Duration // per-job timeout, zero for none
	Pipeline      string        // restrict the matrix to one pipeline name
	Selected      []int         // job indices to run, nil for all
	MatrixURL     string        // optional matrix file
	TUI           bool          // show the interactive progress view
	ResultsFile   string        // optional YAML results destination
}
