// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package jobspec

import (
	"errors"
	"fmt"
	"slices"

	"github.com/hashicorp/go-multierror"
)

// NeutralFilter is the filter value that disables filtering in the external tool.
const NeutralFilter = "none"

var (
	// ErrInvalidMatrix is returned when a matrix fails validation.
	ErrInvalidMatrix = errors.New("invalid pipeline matrix")
	// ErrUnknownPipeline is returned when a pipeline filter matches no matrix entry.
	ErrUnknownPipeline = errors.New("unknown pipeline name")
)

// Pipeline is one pipeline declaration: a tool mode and the extra arguments passed with it.
type Pipeline struct {
	Name string   `yaml:"name"`
	Args []string `yaml:"args,omitempty"`
}

// Matrix is the declarative job matrix.
type Matrix struct {
	EntropyFilters  []string   `yaml:"entropy_filters"`
	ByteSizeFilters []string   `yaml:"byte_size_filters"`
	Filtered        []Pipeline `yaml:"filtered"`   // crossed with every filter pair
	Unfiltered      []Pipeline `yaml:"unfiltered"` // used as-is
}

// DefaultMatrix returns the built-in experiment matrix.
func DefaultMatrix() Matrix {
	chunkHeader := []string{"-a", "chunk-header-node"}
	withComments := func(embedding, entropy, byteSize string) Pipeline {
		return Pipeline{
			Name: "graph-with-embedding-comments",
			Args: []string{"-v", "-a", "chunk-header-node", "-c", embedding, "-e", entropy, "-s", byteSize},
		}
	}

	return Matrix{
		EntropyFilters: []string{
			NeutralFilter,
			"only-max-entropy",
			"min-of-chunk-treshold-entropy",
		},
		ByteSizeFilters: []string{
			NeutralFilter,
			"activate",
		},
		Filtered: []Pipeline{
			{Name: "value-node-embedding"},
			{Name: "chunk-top-vn-semantic-embedding"},
			{Name: "chunk-semantic-embedding", Args: []string{"-v", "-a", "chunk-header-node"}},
			{Name: "chunk-semantic-embedding", Args: chunkHeader},
			{Name: "chunk-statistic-embedding", Args: chunkHeader},
			{Name: "chunk-start-bytes-embedding", Args: chunkHeader},
			{Name: "chunk-extraction", Args: chunkHeader},
		},
		Unfiltered: []Pipeline{
			{Name: "graph"},
			{Name: "graph", Args: []string{"-a", "none"}},
			{Name: "graph", Args: []string{"-v", "-a", "chunk-header-node"}},
			{Name: "graph", Args: []string{"-v", "-a", "none"}},
			withComments("chunk-semantic-embedding", NeutralFilter, NeutralFilter),
			withComments("chunk-statistic-embedding", NeutralFilter, NeutralFilter),
			withComments("chunk-start-bytes-embedding", NeutralFilter, NeutralFilter),
			withComments("chunk-semantic-embedding", "only-max-entropy", "activate"),
			withComments("chunk-statistic-embedding", "only-max-entropy", "activate"),
			withComments("chunk-start-bytes-embedding", "only-max-entropy", "activate"),
		},
	}
}

// Size returns the number of jobs Build would produce for m.
func (m Matrix) Size() int {
	return len(m.Filtered)*len(m.EntropyFilters)*len(m.ByteSizeFilters) + len(m.Unfiltered)
}

// PipelineNames returns the distinct pipeline names of both families, sorted.
func (m Matrix) PipelineNames() []string {
	names := make([]string, 0, len(m.Filtered)+len(m.Unfiltered))
	for _, p := range slices.Concat(m.Filtered, m.Unfiltered) {
		names = append(names, p.Name)
	}

	slices.Sort(names)

	return slices.Compact(names)
}

// Restrict returns a copy of m keeping only pipelines called name in both families.
// An empty name returns m unchanged.
func (m Matrix) Restrict(name string) Matrix {
	if name == "" {
		return m
	}

	keep := func(p Pipeline) bool { return p.Name != name }
	m.Filtered = slices.DeleteFunc(slices.Clone(m.Filtered), keep)
	m.Unfiltered = slices.DeleteFunc(slices.Clone(m.Unfiltered), keep)

	return m
}

// ValidatePipeline checks that name is empty or declared somewhere in m.
func (m Matrix) ValidatePipeline(name string) error {
	if name == "" || slices.Contains(m.PipelineNames(), name) {
		return nil
	}

	return fmt.Errorf("%w: %q, possible values: %v", ErrUnknownPipeline, name, m.PipelineNames())
}

// Validate reports every structural problem in m.
func (m Matrix) Validate() error {
	var result *multierror.Error

	for i, p := range m.Filtered {
		if p.Name == "" {
			result = multierror.Append(result, fmt.Errorf("filtered pipeline %d has no name", i))
		}
	}

	for i, p := range m.Unfiltered {
		if p.Name == "" {
			result = multierror.Append(result, fmt.Errorf("unfiltered pipeline %d has no name", i))
		}
	}

	if len(m.Filtered) > 0 {
		if len(m.EntropyFilters) == 0 {
			result = multierror.Append(result, errors.New("filtered pipelines need at least one entropy filter"))
		}

		if len(m.ByteSizeFilters) == 0 {
			result = multierror.Append(result, errors.New("filtered pipelines need at least one byte-size filter"))
		}
	}

	result = multierror.Append(result, duplicates("entropy filter", m.EntropyFilters)...)
	result = multierror.Append(result, duplicates("byte-size filter", m.ByteSizeFilters)...)

	if err := result.ErrorOrNil(); err != nil {
		return errors.Join(ErrInvalidMatrix, err)
	}

	return nil
}

func duplicates(kind string, values []string) []error {
	var errs []error

	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v == "" {
			errs = append(errs, fmt.Errorf("empty %s", kind))
			continue
		}

		if _, ok := seen[v]; ok {
			errs = append(errs, fmt.Errorf("duplicate %s %q", kind, v))
		}

		seen[v] = struct{}{}
	}

	return errs
}
