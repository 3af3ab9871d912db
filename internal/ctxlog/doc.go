// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package ctxlog carries a *slog.Logger in a context.Context.
//
// The default logger renders records with PrettyHandler: a timestamp, a
// coloured level, the message and the attributes as indented JSON. The level
// is read once from the PIPEBATCH_LOG_LEVEL environment variable
// ("DEBUG", "INFO", "WARN" or "ERROR"), defaulting to INFO.
package ctxlog
