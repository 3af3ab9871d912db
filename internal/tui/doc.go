// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package tui provides a terminal user interface for watching a batch run.
// It lists every selected job with its status, elapsed time and last output
// line, above a progress bar for the batch as a whole.
//
// The view is driven by progress events, so it needs nothing from the
// executor beyond a progress.Reporter.
package tui
