// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package jobspec expands a declarative pipeline matrix into an ordered list
// of JobSpecs, one per invocation of the external graph tool.
//
// Pipelines in the filtered family are crossed with every entropy filter and
// every byte-size filter (entropy outer, byte-size inner). Pipelines in the
// unfiltered family produce exactly one job each. A job's index is its
// position in the built list, and its output directory embeds that index, so
// output directories never collide within one build.
package jobspec
