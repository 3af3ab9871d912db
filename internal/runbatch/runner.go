// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/matt-FFFFFF/pipebatch/internal/ctxlog"
	"github.com/matt-FFFFFF/pipebatch/internal/jobspec"
	"github.com/matt-FFFFFF/pipebatch/internal/progress"
)

// DefaultKillGrace is how long a terminated job may take to exit before it is killed.
const DefaultKillGrace = 5 * time.Second

var (
	// ErrCouldNotStartProcess is returned when the process could not be started.
	ErrCouldNotStartProcess = errors.New("could not start process")
	// ErrFailedToCreatePipe is returned when the operating system pipe could not be created.
	ErrFailedToCreatePipe = errors.New("failed to create pipe")
	// ErrEmptyCommand is returned for a job without a tool runner.
	ErrEmptyCommand = errors.New("job has an empty command")
	// ErrTimeoutExceeded is returned when the job runs longer than its timeout.
	ErrTimeoutExceeded = errors.New("timeout exceeded")
	// ErrSupervisorFailed is returned when the goroutine watching a job fails.
	ErrSupervisorFailed = errors.New("job supervisor failed")
)

// lookPath resolves the tool runner executable.
var lookPath = exec.LookPath

// Runner launches one job at a time and supervises it until it ends.
type Runner struct {
	Out       io.Writer         // receives every output line, os.Stdout when nil
	Reporter  progress.Reporter // receives an output event per line
	KillGrace time.Duration     // DefaultKillGrace when zero
}

// NewRunner creates a Runner that prints job output to out.
// A nil reporter discards the output events.
func NewRunner(out io.Writer, reporter progress.Reporter) *Runner {
	if reporter == nil {
		reporter = progress.NewNullReporter()
	}

	return &Runner{
		Out:       out,
		Reporter:  reporter,
		KillGrace: DefaultKillGrace,
	}
}

// Run launches job and blocks until it has ended. The child's stdout and
// stderr share one pipe; each line is printed, recorded and reported.
// A zero timeout waits for the job indefinitely. Once the timeout elapses or
// ctx is cancelled the job is terminated, no further line is printed and Run
// returns only after the supervising goroutine has exited.
func (r *Runner) Run(ctx context.Context, job jobspec.JobSpec, timeout time.Duration) *Result {
	start := time.Now()
	res := &Result{
		Index:       job.Index,
		Label:       job.Label(),
		CommandLine: job.CommandLine(),
		ExitCode:    -1,
	}

	defer func() {
		res.Duration = time.Since(start)
	}()

	logger := ctxlog.Logger(ctx).With("label", res.Label)

	if len(job.Tool) == 0 || strings.TrimSpace(job.Tool[0]) == "" {
		res.Status = StatusLaunchFailed
		res.Error = errors.Join(ErrCouldNotStartProcess, ErrEmptyCommand)

		return res
	}

	argv := job.Command()

	path, err := lookPath(argv[0])
	if err != nil {
		res.Status = StatusLaunchFailed
		res.Error = errors.Join(ErrCouldNotStartProcess, err)

		return res
	}

	rd, wr, err := os.Pipe()
	if err != nil {
		res.Status = StatusLaunchFailed
		res.Error = errors.Join(ErrCouldNotStartProcess, ErrFailedToCreatePipe, err)

		return res
	}

	logger.Debug("starting process", "path", path, "args", argv[1:])

	ps, err := os.StartProcess(path, argv, &os.ProcAttr{
		Env:   os.Environ(),
		Files: []*os.File{os.Stdin, wr, wr},
		Sys:   sysProcAttr(),
	})

	// The child holds its own copy of the write end.
	_ = wr.Close()

	if err != nil {
		_ = rd.Close()
		res.Status = StatusLaunchFailed
		res.Error = errors.Join(ErrCouldNotStartProcess, err)

		return res
	}

	res.PID = ps.Pid
	logger.Debug("process started", "pid", ps.Pid)

	sv := &supervisor{
		sink: &lineSink{
			out:      r.out(),
			reporter: r.Reporter,
			index:    job.Index,
			label:    res.Label,
		},
		done: make(chan struct{}),
	}

	go sv.run(rd, ps)

	var deadline <-chan time.Time

	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()

		deadline = timer.C
	}

	select {
	case <-sv.done:
		if sv.err != nil {
			logger.Error("job supervisor failed", "error", sv.err)
			r.forceStop(ctx, ps, rd, sv)
			res.Status = StatusTimedOut
			res.Error = sv.err

			break
		}

		res.Status = StatusCompleted
	case <-deadline:
		logger.Warn("timeout reached for compute instance", "timeout", timeout, "command", res.CommandLine)
		r.forceStop(ctx, ps, rd, sv)
		res.Status = StatusTimedOut
		res.Error = fmt.Errorf("%w after %s", ErrTimeoutExceeded, timeout)
	case <-ctx.Done():
		logger.Warn("batch cancelled, terminating compute instance", "pid", ps.Pid)
		r.forceStop(ctx, ps, rd, sv)
		res.Status = StatusCancelled
		res.Error = context.Cause(ctx)
	}

	_ = rd.Close()

	res.Lines = sv.sink.snapshot()
	if sv.state != nil {
		res.ExitCode = sv.state.ExitCode()
	}

	logger.Debug("process finished", "status", res.Status, "exitCode", res.ExitCode, "lines", len(res.Lines))

	return res
}

func (r *Runner) out() io.Writer {
	if r.Out == nil {
		return os.Stdout
	}

	return r.Out
}

func (r *Runner) killGrace() time.Duration {
	if r.KillGrace <= 0 {
		return DefaultKillGrace
	}

	return r.KillGrace
}

// forceStop silences the job, terminates it, escalates to a kill after the
// grace period and joins the supervising goroutine.
func (r *Runner) forceStop(ctx context.Context, ps *os.Process, rd *os.File, sv *supervisor) {
	sv.sink.stop()

	if err := terminate(ps); err != nil && !errors.Is(err, os.ErrProcessDone) {
		ctxlog.Debug(ctx, "terminate failed", "pid", ps.Pid, "error", err)
	}

	grace := time.NewTimer(r.killGrace())
	defer grace.Stop()

	select {
	case <-sv.done:
	case <-grace.C:
		ctxlog.Warn(ctx, "process did not exit after termination, killing", "pid", ps.Pid)
		killPs(ctx, ps)
	}

	// A descendant may still hold the write end open.
	_ = rd.Close()

	<-sv.done

	// The supervisor did not reap the child if it failed before Wait.
	if sv.state == nil && sv.err != nil {
		_, _ = ps.Wait()
	}
}

// killPs kills the process group, logging rather than returning errors.
func killPs(ctx context.Context, ps *os.Process) {
	if err := kill(ps); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			ctxlog.Debug(ctx, "process already done", "pid", ps.Pid)
			return
		}

		ctxlog.Error(ctx, "process kill error", "pid", ps.Pid, "error", err)

		return
	}

	ctxlog.Info(ctx, "process killed", "pid", ps.Pid)
}

// supervisor reads a job's output and reaps the process. Its fields other
// than done and sink may only be read after done is closed.
type supervisor struct {
	sink  *lineSink
	done  chan struct{}
	state *os.ProcessState
	err   error
}

func (s *supervisor) run(rd io.Reader, ps *os.Process) {
	defer close(s.done)

	defer func() {
		if p := recover(); p != nil {
			s.err = fmt.Errorf("%w: panic: %v", ErrSupervisorFailed, p)
		}
	}()

	br := bufio.NewReader(rd)

	for {
		line, err := br.ReadString('\n')
		if line != "" && !s.sink.emit(strings.TrimRight(line, "\r\n")) {
			break
		}

		if err != nil {
			break
		}
	}

	state, err := ps.Wait()
	s.state = state

	if err != nil {
		s.err = errors.Join(ErrSupervisorFailed, err)
	}
}

// lineSink prints and records output lines until it is stopped.
type lineSink struct {
	mu       sync.Mutex
	stopped  bool
	out      io.Writer
	lines    []string
	reporter progress.Reporter
	index    int
	label    string
}

// emit handles one line and reports whether the sink still accepts lines.
func (s *lineSink) emit(line string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return false
	}

	fmt.Fprintln(s.out, line) //nolint:errcheck
	s.lines = append(s.lines, line)

	s.reporter.Report(progress.Event{
		JobIndex:  s.index,
		Label:     s.label,
		Type:      progress.EventOutput,
		Timestamp: time.Now(),
		Data:      progress.EventData{OutputLine: line},
	})

	return true
}

// stop returns once no further line can be printed.
func (s *lineSink) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
}

func (s *lineSink) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.lines...)
}
