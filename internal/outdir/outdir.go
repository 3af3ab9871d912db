// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package outdir

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/pipebatch/internal/ctxlog"
	"github.com/spf13/afero"
)

const dirMode = 0o755

var (
	// ErrPrepare is returned when an output directory cannot be made ready.
	ErrPrepare = errors.New("failed to prepare output directory")
	// ErrPurge is returned alongside ErrPrepare when stale result files cannot be removed.
	ErrPurge = errors.New("failed to purge stale result files")
	// ErrNotDirectory is returned when the output path exists but is not a directory.
	ErrNotDirectory = errors.New("path exists and is not a directory")
	// ErrClean is returned when the output root cannot be cleaned.
	ErrClean = errors.New("failed to clean output root")
)

// ResultExtensions are the suffixes of files the external tool writes into an output directory.
var ResultExtensions = []string{".csv", ".gv"}

// Manager performs output directory side effects on Fs.
type Manager struct {
	Fs afero.Fs
}

// New returns a Manager backed by fs, or by the OS file system when fs is nil.
func New(fs afero.Fs) *Manager {
	if fs == nil {
		fs = afero.NewOsFs()
	}

	return &Manager{Fs: fs}
}

// Prepare makes path ready for a job. A missing path is created with its parents.
// For an existing directory, purgeStale removes the result files directly inside it
// and leaves subdirectories and other files alone.
func (m *Manager) Prepare(ctx context.Context, path string, purgeStale bool) error {
	info, err := m.Fs.Stat(path)

	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := m.Fs.MkdirAll(path, dirMode); err != nil {
			return errors.Join(ErrPrepare, err)
		}

		ctxlog.Debug(ctx, "created output directory", "path", path)

		return nil
	case err != nil:
		return errors.Join(ErrPrepare, err)
	case !info.IsDir():
		return errors.Join(ErrPrepare, fmt.Errorf("%w: %s", ErrNotDirectory, path))
	case !purgeStale:
		return nil
	}

	return m.purge(ctx, path)
}

func (m *Manager) purge(ctx context.Context, path string) error {
	entries, err := afero.ReadDir(m.Fs, path)
	if err != nil {
		return errors.Join(ErrPrepare, ErrPurge, err)
	}

	var result *multierror.Error

	for _, e := range entries {
		if e.IsDir() || !IsResultFile(e.Name()) {
			continue
		}

		if err := m.Fs.Remove(filepath.Join(path, e.Name())); err != nil {
			result = multierror.Append(result, err)
			continue
		}

		ctxlog.Info(ctx, "removed stale result file", "file", e.Name(), "dir", path)
	}

	if err := result.ErrorOrNil(); err != nil {
		return errors.Join(ErrPrepare, ErrPurge, err)
	}

	return nil
}

// IsResultFile reports whether name carries one of the ResultExtensions.
func IsResultFile(name string) bool {
	return slices.ContainsFunc(ResultExtensions, func(ext string) bool {
		return strings.HasSuffix(name, ext)
	})
}
