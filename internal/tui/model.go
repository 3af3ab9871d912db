// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"sync"
	"time"

	progressbar "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/pipebatch/internal/jobspec"
	"github.com/matt-FFFFFF/pipebatch/internal/progress"
	"github.com/matt-FFFFFF/pipebatch/internal/runbatch"
)

// JobStatus represents the current state of a job in the TUI.
type JobStatus int

const (
	StatusPending JobStatus = iota
	StatusRunning
	StatusCompleted
	StatusTimedOut
	StatusFailed
	StatusCancelled
)

// String returns a string representation of the job status.
func (s JobStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusTimedOut:
		return "timed out"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

func (s JobStatus) finished() bool {
	return s >= StatusCompleted
}

// statusFromEvent maps a terminal event type to a job status.
func statusFromEvent(et progress.EventType) JobStatus {
	switch et {
	case progress.EventCompleted:
		return StatusCompleted
	case progress.EventTimedOut:
		return StatusTimedOut
	case progress.EventFailed:
		return StatusFailed
	case progress.EventCancelled:
		return StatusCancelled
	default:
		return StatusRunning
	}
}

// JobRow is the display state of one job.
type JobRow struct {
	Index      int
	Label      string
	Status     JobStatus
	StartTime  time.Time
	EndTime    time.Time
	LastOutput string
	ErrorMsg   string
}

// Elapsed is the running time so far, or the total once the job has finished.
func (r *JobRow) Elapsed(now time.Time) time.Duration {
	switch {
	case r.StartTime.IsZero():
		return 0
	case r.EndTime.IsZero():
		return now.Sub(r.StartTime)
	default:
		return r.EndTime.Sub(r.StartTime)
	}
}

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	cancel    context.CancelFunc // cancels the batch when the user quits early
	rows      []*JobRow
	width     int
	height    int
	quitting  bool
	completed bool
	results   *runbatch.BatchResults
	batchErr  error
	autoQuit  bool
	viewport  viewport.Model
	bar       progressbar.Model
	styles    *Styles
	now       func() time.Time
	mutex     sync.RWMutex
}

// Styles contains all the styling for the TUI.
type Styles struct {
	Title     lipgloss.Style
	Pending   lipgloss.Style
	Running   lipgloss.Style
	Completed lipgloss.Style
	TimedOut  lipgloss.Style
	Failed    lipgloss.Style
	Output    lipgloss.Style
	Error     lipgloss.Style
	Help      lipgloss.Style
	Border    lipgloss.Style
}

// NewStyles creates the default styling for the TUI.
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")),
		Pending: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
		Running: lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true),
		Completed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")),
		TimedOut: lipgloss.NewStyle().
			Foreground(lipgloss.Color("13")),
		Failed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")),
		Output: lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")).
			Italic(true),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Italic(true),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")),
	}
}

// NewModel creates a model listing jobs as pending.
func NewModel(ctx context.Context, jobs []jobspec.JobSpec) *Model {
	m := &Model{
		ctx:      ctx,
		viewport: viewport.New(defaultWidth, defaultHeight),
		bar:      progressbar.New(progressbar.WithDefaultGradient(), progressbar.WithWidth(defaultWidth)),
		styles:   NewStyles(),
		now:      time.Now,
	}

	for _, job := range jobs {
		m.rows = append(m.rows, &JobRow{Index: job.Index, Label: job.Label()})
	}

	return m
}

// SetCancel registers the function called when the user quits before the batch ends.
func (m *Model) SetCancel(cancel context.CancelFunc) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.cancel = cancel
}

// rowFor returns the row an event for job index applies to. A selection may
// repeat an index, so a start goes to the first pending row and anything else
// to the running one.
func (m *Model) rowFor(index int, starting bool) *JobRow {
	want := StatusRunning
	if starting {
		want = StatusPending
	}

	for _, row := range m.rows {
		if row.Index == index && row.Status == want {
			return row
		}
	}

	return nil
}

// processProgressEvent applies a progress event to the job rows.
func (m *Model) processProgressEvent(event progress.Event) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	row := m.rowFor(event.JobIndex, event.Type == progress.EventStarted)
	if row == nil {
		return
	}

	switch {
	case event.Type == progress.EventStarted:
		row.Status = StatusRunning
		row.StartTime = event.Timestamp
	case event.Type == progress.EventOutput:
		row.LastOutput = event.Data.OutputLine
	case event.Type.Terminal():
		row.Status = statusFromEvent(event.Type)
		row.EndTime = event.Timestamp

		if event.Data.Error != nil {
			row.ErrorMsg = event.Data.Error.Error()
		}
	}
}

// fraction is the share of jobs that have finished.
func (m *Model) fraction() float64 {
	if len(m.rows) == 0 {
		return 1
	}

	done := 0

	for _, row := range m.rows {
		if row.Status.finished() {
			done++
		}
	}

	return float64(done) / float64(len(m.rows))
}
