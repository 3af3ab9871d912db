// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package jobspec

import (
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

const filteredTag = "filtered_"

// JobSpec is one invocation of the external tool. It is not mutated after Build returns it.
type JobSpec struct {
	Index          int      `yaml:"index"`
	PipelineName   string   `yaml:"pipeline"`
	Arguments      []string `yaml:"args,omitempty"`
	EntropyFilter  string   `yaml:"entropy_filter,omitempty"`
	ByteSizeFilter string   `yaml:"byte_size_filter,omitempty"`
	InputPath      string   `yaml:"input"`
	OutputPath     string   `yaml:"output"`
	Tool           []string `yaml:"tool"`
}

// Label is a short human-readable name for the job.
func (j JobSpec) Label() string {
	return fmt.Sprintf("[%d] %s", j.Index, j.PipelineName)
}

// Command returns the full argument vector, starting with the tool runner.
func (j JobSpec) Command() []string {
	cmd := slices.Concat(j.Tool, []string{
		"-d", j.InputPath,
		"-o", j.OutputPath,
		"-p", j.PipelineName,
	})

	if j.EntropyFilter != "" {
		cmd = append(cmd, "-e", j.EntropyFilter)
	}

	if j.ByteSizeFilter != "" {
		cmd = append(cmd, "-s", j.ByteSizeFilter)
	}

	return append(cmd, j.Arguments...)
}

// CommandLine is Command joined with spaces, for display.
func (j JobSpec) CommandLine() string {
	return strings.Join(j.Command(), " ")
}

// Options carries the per-batch values every JobSpec shares.
type Options struct {
	InputPath  string   // shared input dataset
	OutputRoot string   // parent of every job output directory
	Tool       []string // tool runner prefix, e.g. ["cargo", "run", "--"]
	Pipeline   string   // when set, only pipelines with this name are built
}

// Build expands m into JobSpecs. The filtered family comes first, then the
// unfiltered family; each JobSpec's Index equals its position in the result.
// The pipeline restriction is applied before expansion, so indices are only
// stable for a given restriction.
func Build(m Matrix, opts Options) []JobSpec {
	m = m.Restrict(opts.Pipeline)
	jobs := make([]JobSpec, 0, m.Size())

	for _, p := range m.Filtered {
		for _, entropy := range m.EntropyFilters {
			for _, byteSize := range m.ByteSizeFilters {
				idx := len(jobs)
				jobs = append(jobs, JobSpec{
					Index:          idx,
					PipelineName:   p.Name,
					Arguments:      slices.Clone(p.Args),
					EntropyFilter:  entropy,
					ByteSizeFilter: byteSize,
					InputPath:      opts.InputPath,
					OutputPath:     filepath.Join(opts.OutputRoot, filteredDirName(idx, p, entropy, byteSize)),
					Tool:           slices.Clone(opts.Tool),
				})
			}
		}
	}

	for _, p := range m.Unfiltered {
		idx := len(jobs)
		jobs = append(jobs, JobSpec{
			Index:        idx,
			PipelineName: p.Name,
			Arguments:    slices.Clone(p.Args),
			InputPath:    opts.InputPath,
			OutputPath:   filepath.Join(opts.OutputRoot, unfilteredDirName(idx, p)),
			Tool:         slices.Clone(opts.Tool),
		})
	}

	return jobs
}

// filteredDirName is "<idx>_[filtered_]<name>_<args>_-e_<entropy>_-s_<bytesize>".
func filteredDirName(idx int, p Pipeline, entropy, byteSize string) string {
	tag := ""
	if entropy != NeutralFilter || byteSize != NeutralFilter {
		tag = filteredTag
	}

	return strconv.Itoa(idx) + "_" + tag + snakeName(p.Name) +
		"_" + strings.Join(p.Args, "_") +
		"_-e_" + entropy +
		"_-s_" + byteSize
}

// unfilteredDirName is "<idx>_<name>_-e_none_<args>".
func unfilteredDirName(idx int, p Pipeline) string {
	return strconv.Itoa(idx) + "_" + snakeName(p.Name) + "_-e_" + NeutralFilter + "_" + strings.Join(p.Args, "_")
}

func snakeName(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}
