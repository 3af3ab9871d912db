// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package progress carries real-time job events from the batch executor to
// whatever is watching it, such as the interactive progress view.
package progress
