// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package outdir prepares per-job output directories and cleans the output root.
//
// All file system access goes through an afero.Fs so tests can run against
// an in-memory file system.
package outdir
