// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"errors"
	"io"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// ErrWriteResults is returned when the results file cannot be written.
var ErrWriteResults = errors.New("failed to write results")

// BatchResults is the outcome of one Execute call.
type BatchResults struct {
	RunID   uuid.UUID
	Started time.Time
	Elapsed time.Duration
	Results Results
}

func newBatchResults(started time.Time) *BatchResults {
	return &BatchResults{
		RunID:   uuid.New(),
		Started: started,
	}
}

// HasFailures reports whether any job did not complete.
func (b *BatchResults) HasFailures() bool {
	return b.Results.HasFailures()
}

type yamlResult struct {
	Index    int      `yaml:"index"`
	Label    string   `yaml:"label"`
	Command  string   `yaml:"command"`
	Status   Status   `yaml:"status"`
	Duration string   `yaml:"duration"`
	ExitCode int      `yaml:"exit_code"`
	Error    string   `yaml:"error,omitempty"`
	Output   []string `yaml:"output,omitempty"`
}

type yamlBatch struct {
	RunID   string       `yaml:"run_id"`
	Started string       `yaml:"started"`
	Elapsed string       `yaml:"elapsed"`
	Results []yamlResult `yaml:"results"`
}

// WriteYAML encodes the batch, one entry per job, to w.
func (b *BatchResults) WriteYAML(w io.Writer) error {
	doc := yamlBatch{
		RunID:   b.RunID.String(),
		Started: b.Started.Format(time.RFC3339),
		Elapsed: b.Elapsed.Round(time.Millisecond).String(),
		Results: make([]yamlResult, 0, len(b.Results)),
	}

	for _, r := range b.Results {
		yr := yamlResult{
			Index:    r.Index,
			Label:    r.Label,
			Command:  r.CommandLine,
			Status:   r.Status,
			Duration: r.Duration.Round(time.Millisecond).String(),
			ExitCode: r.ExitCode,
			Output:   r.Lines,
		}

		if r.Error != nil {
			yr.Error = r.Error.Error()
		}

		doc.Results = append(doc.Results, yr)
	}

	enc := yaml.NewEncoder(w, yaml.Indent(2), yaml.IndentSequence(true))
	if err := enc.Encode(doc); err != nil {
		return errors.Join(ErrWriteResults, err)
	}

	return nil
}

// SaveYAML writes the batch as YAML to path on fs.
func (b *BatchResults) SaveYAML(fs afero.Fs, path string) error {
	f, err := fs.Create(path)
	if err != nil {
		return errors.Join(ErrWriteResults, err)
	}

	if err := b.WriteYAML(f); err != nil {
		_ = f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return errors.Join(ErrWriteResults, err)
	}

	return nil
}
