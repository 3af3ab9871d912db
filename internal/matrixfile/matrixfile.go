// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package matrixfile

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/matt-FFFFFF/pipebatch/internal/ctxlog"
	"github.com/matt-FFFFFF/pipebatch/internal/jobspec"
)

var (
	// ErrLoadMatrix is returned when a matrix file cannot be fetched, decoded or validated.
	ErrLoadMatrix = errors.New("failed to load matrix file")
	// ErrUnsupportedFormat is returned for file names without a known extension.
	ErrUnsupportedFormat = errors.New("unsupported matrix file format, expected .yaml, .yml or .hcl")
)

// Vars are the values exposed to HCL matrix files as var.input and var.output_root.
type Vars struct {
	Input      string
	OutputRoot string
}

// Load fetches the matrix document at url, decodes it according to its file
// extension and validates the result.
func Load(ctx context.Context, url string, vars Vars) (jobspec.Matrix, error) {
	name, data, err := fetch(ctx, url)
	if err != nil {
		return jobspec.Matrix{}, err
	}

	ctxlog.Debug(ctx, "fetched matrix file", "url", url, "file", name, "bytes", len(data))

	m, err := Decode(name, data, vars)
	if err != nil {
		return jobspec.Matrix{}, err
	}

	if err := m.Validate(); err != nil {
		return jobspec.Matrix{}, errors.Join(ErrLoadMatrix, err)
	}

	ctxlog.Info(ctx, "loaded matrix file", "url", url, "jobs", m.Size())

	return m, nil
}

// Decode parses data as YAML or HCL based on the extension of fileName.
// The result is not validated.
func Decode(fileName string, data []byte, vars Vars) (jobspec.Matrix, error) {
	var (
		m   jobspec.Matrix
		err error
	)

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".yaml", ".yml":
		err = yaml.UnmarshalWithOptions(data, &m, yaml.DisallowUnknownField())
	case ".hcl":
		m, err = decodeHCL(fileName, data, vars)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedFormat, fileName)
	}

	if err != nil {
		return jobspec.Matrix{}, errors.Join(ErrLoadMatrix, err)
	}

	return m, nil
}
