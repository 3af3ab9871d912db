// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/pipebatch/internal/jobspec"
	"github.com/matt-FFFFFF/pipebatch/internal/progress"
	"github.com/matt-FFFFFF/pipebatch/internal/runbatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJobs() []jobspec.JobSpec {
	return jobspec.Build(jobspec.Matrix{
		Unfiltered: []jobspec.Pipeline{{Name: "graph"}, {Name: "chunk-extraction"}},
	}, jobspec.Options{InputPath: "in", OutputRoot: "data", Tool: []string{"tool"}})
}

func event(idx int, et progress.EventType, at time.Time) progress.Event {
	return progress.Event{JobIndex: idx, Type: et, Timestamp: at}
}

func TestNewModel_AllPending(t *testing.T) {
	m := NewModel(context.Background(), testJobs())

	require.Len(t, m.rows, 2)
	assert.Equal(t, "[0] graph", m.rows[0].Label)
	assert.Equal(t, StatusPending, m.rows[1].Status)
	assert.InDelta(t, 0.0, m.fraction(), 0.001)
}

func TestModel_ProcessProgressEvent(t *testing.T) {
	m := NewModel(context.Background(), testJobs())
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	m.processProgressEvent(event(0, progress.EventStarted, start))
	assert.Equal(t, StatusRunning, m.rows[0].Status)

	out := event(0, progress.EventOutput, start)
	out.Data.OutputLine = "loading graph"
	m.processProgressEvent(out)
	assert.Equal(t, "loading graph", m.rows[0].LastOutput)

	timedOut := event(0, progress.EventTimedOut, start.Add(3*time.Second))
	timedOut.Data.Error = runbatch.ErrTimeoutExceeded
	m.processProgressEvent(timedOut)

	assert.Equal(t, StatusTimedOut, m.rows[0].Status)
	assert.Equal(t, runbatch.ErrTimeoutExceeded.Error(), m.rows[0].ErrorMsg)
	assert.Equal(t, 3*time.Second, m.rows[0].Elapsed(time.Now()))
	assert.InDelta(t, 0.5, m.fraction(), 0.001)

	// Output for a job that is not running is ignored.
	m.processProgressEvent(out)
	assert.Equal(t, StatusPending, m.rows[1].Status)
}

func TestModel_RepeatedSelection(t *testing.T) {
	jobs := testJobs()
	m := NewModel(context.Background(), []jobspec.JobSpec{jobs[1], jobs[1]})
	now := time.Now()

	m.processProgressEvent(event(1, progress.EventStarted, now))
	m.processProgressEvent(event(1, progress.EventCompleted, now))
	m.processProgressEvent(event(1, progress.EventStarted, now))

	assert.Equal(t, StatusCompleted, m.rows[0].Status)
	assert.Equal(t, StatusRunning, m.rows[1].Status)
}

func TestModel_UpdateAndView(t *testing.T) {
	m := NewModel(context.Background(), testJobs())

	_, cmd := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	assert.Nil(t, cmd)
	assert.Equal(t, 98, m.viewport.Width)

	m.Update(ProgressEventMsg{Event: event(1, progress.EventStarted, time.Now())})

	view := m.View()
	assert.Contains(t, view, "[0] graph")
	assert.Contains(t, view, "[1] chunk-extraction")
	assert.Contains(t, view, "0/2 done · 1 running")

	_, cmd = m.Update(BatchCompletedMsg{Err: errors.New("boom")})
	assert.Nil(t, cmd, "the user closes the view")
	assert.Contains(t, m.View(), "stopped: boom")
}

func TestModel_QuitCancelsRunningBatch(t *testing.T) {
	m := NewModel(context.Background(), testJobs())

	cancelled := false
	m.SetCancel(func() { cancelled = true })

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.True(t, cancelled)
	assert.Equal(t, "Shutting down...\n", m.View())
}

func TestModel_QuitAfterCompletionDoesNotCancel(t *testing.T) {
	m := NewModel(context.Background(), testJobs())

	cancelled := false
	m.SetCancel(func() { cancelled = true })

	m.Update(BatchCompletedMsg{})
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.False(t, cancelled)
}

func TestModel_AutoQuit(t *testing.T) {
	m := NewModel(context.Background(), testJobs())
	m.autoQuit = true

	_, cmd := m.Update(BatchCompletedMsg{})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd...", truncate("abcdefghij", 7))
	assert.Equal(t, "ab", truncate("abcdef", 2))
	assert.Equal(t, "⚡ é...", truncate("⚡ éééééé", 5))
}

func TestProgramListener_NilProgram(t *testing.T) {
	assert.NotPanics(t, func() {
		programListener{}.OnEvent(event(0, progress.EventStarted, time.Now()))
	})
}
