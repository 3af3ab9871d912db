// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package matrixfile loads a pipeline matrix from a YAML or HCL document.
//
// Sources use go-getter URL syntax, so a matrix can live on disk, in a git
// repository or behind HTTP. Local files are read through FsFactory.
package matrixfile
