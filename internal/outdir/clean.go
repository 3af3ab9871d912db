// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package outdir

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/pipebatch/internal/ctxlog"
	"github.com/spf13/afero"
)

// ErrRootNotFound is returned by Subdirectories and Clean when the output root does not exist.
var ErrRootNotFound = errors.New("output root does not exist")

// Subdirectories lists the directories directly inside root, in name order.
func (m *Manager) Subdirectories(root string) ([]string, error) {
	entries, err := afero.ReadDir(m.Fs, root)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrRootNotFound
	}

	if err != nil {
		return nil, errors.Join(ErrClean, err)
	}

	var dirs []string

	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(root, e.Name()))
		}
	}

	return dirs, nil
}

// Clean recursively removes every directory directly inside root. Files in
// root are kept. It returns the directories that were removed; failures are
// collected and returned together after every directory has been attempted.
func (m *Manager) Clean(ctx context.Context, root string) ([]string, error) {
	dirs, err := m.Subdirectories(root)
	if err != nil {
		return nil, err
	}

	var (
		removed []string
		result  *multierror.Error
	)

	for _, d := range dirs {
		if err := ctx.Err(); err != nil {
			result = multierror.Append(result, err)
			break
		}

		if err := m.Fs.RemoveAll(d); err != nil {
			result = multierror.Append(result, err)
			continue
		}

		ctxlog.Info(ctx, "removed directory", "path", d)

		removed = append(removed, d)
	}

	if err := result.ErrorOrNil(); err != nil {
		return removed, errors.Join(ErrClean, err)
	}

	return removed, nil
}
