// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package color decides whether terminal output should be coloured and wraps
// strings in ANSI escape sequences when it should.
//
// Colour is disabled when NO_COLOR is set, forced on when FORCE_COLOR is set,
// and otherwise enabled only when stdout is a terminal (golang.org/x/term).
package color
