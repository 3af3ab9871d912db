// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build !windows

package runbatch

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matt-FFFFFF/pipebatch/internal/jobspec"
	"github.com/matt-FFFFFF/pipebatch/internal/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sys/unix"
)

// syncBuffer is a bytes.Buffer safe for the supervisor and the test to share.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

// shellJob returns a job whose tool runner is a shell script. The job's own
// flags end up as positional parameters and are ignored by the script.
func shellJob(script string) jobspec.JobSpec {
	return jobspec.JobSpec{
		Index:        7,
		PipelineName: "graph",
		InputPath:    "in",
		OutputPath:   "out",
		Tool:         []string{"sh", "-c", script, "sh"},
	}
}

func newTestRunner(out *syncBuffer) *Runner {
	r := NewRunner(out, nil)
	r.KillGrace = 500 * time.Millisecond

	return r
}

func processGone(pid int) bool {
	return unix.Kill(pid, 0) == unix.ESRCH
}

func TestRun_CapturesLinesInOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	out := &syncBuffer{}
	res := newTestRunner(out).Run(context.Background(), shellJob("echo one; echo two >&2; echo three"), 0)

	require.NoError(t, res.Error)
	assert.Equal(t, StatusCompleted, res.Status)
	assert.Equal(t, []string{"one", "two", "three"}, res.Lines)
	assert.Equal(t, "one\ntwo\nthree\n", out.String())
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, 7, res.Index)
	assert.Equal(t, "[7] graph", res.Label)
	assert.Positive(t, res.Duration)
}

func TestRun_NonZeroExitIsCompleted(t *testing.T) {
	defer goleak.VerifyNone(t)

	res := newTestRunner(&syncBuffer{}).Run(context.Background(), shellJob("echo bye; exit 3"), time.Minute)

	assert.Equal(t, StatusCompleted, res.Status)
	assert.NoError(t, res.Error)
	assert.Equal(t, 3, res.ExitCode)
}

func TestRun_NoOutput(t *testing.T) {
	defer goleak.VerifyNone(t)

	res := newTestRunner(&syncBuffer{}).Run(context.Background(), shellJob("true"), 0)

	assert.Equal(t, StatusCompleted, res.Status)
	assert.Empty(t, res.Lines)
}

func TestRun_PartialLastLine(t *testing.T) {
	defer goleak.VerifyNone(t)

	res := newTestRunner(&syncBuffer{}).Run(context.Background(), shellJob("printf 'a\\r\\nb'"), 0)

	assert.Equal(t, []string{"a", "b"}, res.Lines)
}

func TestRun_Timeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	out := &syncBuffer{}
	start := time.Now()
	res := newTestRunner(out).Run(context.Background(), shellJob("echo start; while true; do sleep 0.1; done"), time.Second)

	assert.Equal(t, StatusTimedOut, res.Status)
	require.ErrorIs(t, res.Error, ErrTimeoutExceeded)
	assert.Equal(t, []string{"start"}, res.Lines)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.GreaterOrEqual(t, res.Duration, time.Second)
	assert.Eventually(t, func() bool { return processGone(res.PID) }, 2*time.Second, 20*time.Millisecond)
}

func TestRun_TimeoutEscalatesToKill(t *testing.T) {
	defer goleak.VerifyNone(t)

	res := newTestRunner(&syncBuffer{}).Run(
		context.Background(),
		shellJob("trap '' TERM; echo stubborn; while true; do sleep 0.1; done"),
		500*time.Millisecond,
	)

	assert.Equal(t, StatusTimedOut, res.Status)
	assert.Equal(t, -1, res.ExitCode)
	assert.Eventually(t, func() bool { return processGone(res.PID) }, 2*time.Second, 20*time.Millisecond)
}

func TestRun_NoLinesAfterStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	out := &syncBuffer{}
	res := newTestRunner(out).Run(
		context.Background(),
		shellJob("trap '' TERM; while true; do echo tick; sleep 0.01; done"),
		300*time.Millisecond,
	)

	require.Equal(t, StatusTimedOut, res.Status)
	require.NotEmpty(t, res.Lines)

	printed := out.String()
	time.Sleep(200 * time.Millisecond)

	assert.Equal(t, printed, out.String())
	assert.Equal(t, len(res.Lines), strings.Count(printed, "tick\n"))
}

func TestRun_ContextCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(200*time.Millisecond, cancel)

	res := newTestRunner(&syncBuffer{}).Run(ctx, shellJob("echo waiting; sleep 30"), 0)

	assert.Equal(t, StatusCancelled, res.Status)
	require.ErrorIs(t, res.Error, context.Canceled)
	assert.Eventually(t, func() bool { return processGone(res.PID) }, 2*time.Second, 20*time.Millisecond)
}

func TestRun_IndependentStopState(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := newTestRunner(&syncBuffer{})

	first := r.Run(context.Background(), shellJob("echo a; sleep 30"), 200*time.Millisecond)
	require.Equal(t, StatusTimedOut, first.Status)

	second := r.Run(context.Background(), shellJob("echo b; echo c"), 0)
	assert.Equal(t, StatusCompleted, second.Status)
	assert.Equal(t, []string{"b", "c"}, second.Lines)
}

func TestRun_ReportsOutputEvents(t *testing.T) {
	defer goleak.VerifyNone(t)

	reporter := progress.NewBufferedReporter(context.Background(), 10)
	log := &eventLog{}
	reporter.Listen(log)

	r := NewRunner(&syncBuffer{}, reporter)

	res := r.Run(context.Background(), shellJob("echo x; echo y"), 0)
	require.Equal(t, StatusCompleted, res.Status)
	reporter.Close()

	var lines []string
	for _, e := range log.all() {
		assert.Equal(t, progress.EventOutput, e.Type)
		assert.Equal(t, 7, e.JobIndex)
		lines = append(lines, e.Data.OutputLine)
	}

	assert.Equal(t, []string{"x", "y"}, lines)
}
