// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package selector narrows a built job list to an explicit set of indices.
package selector

import (
	"errors"
	"fmt"

	"github.com/matt-FFFFFF/pipebatch/internal/jobspec"
)

// ErrInvalidSelection matches every *InvalidSelectionError.
var ErrInvalidSelection = errors.New("invalid job selection")

// InvalidSelectionError identifies the first index that is out of range.
type InvalidSelectionError struct {
	Index int // offending index
	Len   int // number of jobs available
}

// Error implements the error interface.
func (e *InvalidSelectionError) Error() string {
	return fmt.Sprintf("%s: index %d is out of range [0, %d)", ErrInvalidSelection, e.Index, e.Len)
}

// Is makes errors.Is(err, ErrInvalidSelection) true.
func (e *InvalidSelectionError) Is(target error) bool {
	return target == ErrInvalidSelection
}

// Select returns the jobs at indices, in the order given and keeping duplicates.
// A nil indices returns jobs itself, which callers must not modify.
// If any index is out of range nothing is selected.
func Select(jobs []jobspec.JobSpec, indices []int) ([]jobspec.JobSpec, error) {
	if indices == nil {
		return jobs, nil
	}

	for _, idx := range indices {
		if idx < 0 || idx >= len(jobs) {
			return nil, &InvalidSelectionError{Index: idx, Len: len(jobs)}
		}
	}

	selected := make([]jobspec.JobSpec, 0, len(indices))
	for _, idx := range indices {
		selected = append(selected, jobs[idx])
	}

	return selected, nil
}
