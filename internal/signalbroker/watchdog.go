// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"

	"github.com/matt-FFFFFF/pipebatch/internal/ctxlog"
)

// Watch reads sigCh until it is closed or ctx is done. The second signal of
// any given type calls cancel and returns.
func Watch(ctx context.Context, sigCh <-chan os.Signal, cancel context.CancelFunc) {
	logger := ctxlog.Logger(ctx)
	seen := make(map[os.Signal]struct{})

	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-sigCh:
			if !ok {
				return
			}

			if _, dup := seen[sig]; dup {
				logger.Warn("second signal received, cancelling batch", "signal", sig.String())
				cancel()

				return
			}

			logger.Warn("signal received, send again to cancel the batch", "signal", sig.String())

			seen[sig] = struct{}{}
		}
	}
}
