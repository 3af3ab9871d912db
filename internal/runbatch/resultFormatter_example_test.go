// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"fmt"
	"os"
	"time"
)

// ExampleResults_WriteWithOptions shows the report printed after a batch.
func ExampleResults_WriteWithOptions() {
	results := Results{
		{
			Index:    0,
			Label:    "[0] graph",
			Status:   StatusCompleted,
			Duration: 1500 * time.Millisecond,
			ExitCode: 2,
			Lines:    []string{"loading", "done"},
		},
		{
			Index:    1,
			Label:    "[1] chunk-extraction",
			Status:   StatusTimedOut,
			Duration: 60 * time.Second,
			ExitCode: -1,
			Error:    fmt.Errorf("%w after 1m0s", ErrTimeoutExceeded),
			Lines:    []string{"step 1", "step 2", "step 3"},
		},
	}

	_ = results.WriteWithOptions(os.Stdout, &OutputOptions{IncludeOutput: true, TailLines: 2})

	// Output:
	// ===== Results =====
	//
	// ✓ [0] graph (1.5s, exit code: 2)
	// ⏱ [1] chunk-extraction (1m0s)
	//   ➜ Error: timeout exceeded after 1m0s
	//   ➜ Output:
	//      step 2
	//      step 3
	//
	// 1 completed, 1 timed out, 0 launch failed, 0 cancelled
}
