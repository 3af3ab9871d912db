// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package matrixfile

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/matt-FFFFFF/pipebatch/internal/jobspec"
	"github.com/zclconf/go-cty/cty"
)

const (
	familyFiltered   = "filtered"
	familyUnfiltered = "unfiltered"
)

type hclFile struct {
	EntropyFilters  []string       `hcl:"entropy_filters,optional"`
	ByteSizeFilters []string       `hcl:"byte_size_filters,optional"`
	Pipelines       []*hclPipeline `hcl:"pipeline,block"`
}

type hclPipeline struct {
	Family string   `hcl:"family,label"`
	Name   string   `hcl:"name"`
	Args   []string `hcl:"args,optional"`
}

func evalContext(vars Vars) *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"var": cty.ObjectVal(map[string]cty.Value{
				"input":       cty.StringVal(vars.Input),
				"output_root": cty.StringVal(vars.OutputRoot),
			}),
		},
	}
}

func decodeHCL(fileName string, data []byte, vars Vars) (jobspec.Matrix, error) {
	parser := hclparse.NewParser()

	file, diags := parser.ParseHCL(data, fileName)
	if diags.HasErrors() {
		return jobspec.Matrix{}, fmt.Errorf("failed to parse HCL file %s: %w", fileName, diags)
	}

	var root hclFile
	if diags := gohcl.DecodeBody(file.Body, evalContext(vars), &root); diags.HasErrors() {
		return jobspec.Matrix{}, fmt.Errorf("failed to decode HCL file %s: %w", fileName, diags)
	}

	m := jobspec.Matrix{
		EntropyFilters:  root.EntropyFilters,
		ByteSizeFilters: root.ByteSizeFilters,
	}

	for _, p := range root.Pipelines {
		entry := jobspec.Pipeline{Name: p.Name, Args: p.Args}

		switch p.Family {
		case familyFiltered:
			m.Filtered = append(m.Filtered, entry)
		case familyUnfiltered:
			m.Unfiltered = append(m.Unfiltered, entry)
		default:
			return jobspec.Matrix{}, fmt.Errorf("%w: pipeline %q has family %q, expected %q or %q",
				jobspec.ErrInvalidMatrix, p.Name, p.Family, familyFiltered, familyUnfiltered)
		}
	}

	return m, nil
}
