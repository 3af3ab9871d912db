// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/pipebatch/internal/progress"
	"github.com/matt-FFFFFF/pipebatch/internal/runbatch"
)

const (
	defaultWidth        = 80
	defaultHeight       = 20
	reservedLines       = 8 // title, progress bar, border, status and help
	minViewportWidth    = 20
	durationRounding    = 100 * time.Millisecond
	ellipsis            = "..."
	tickInterval        = 250 * time.Millisecond
	labelColumnFraction = 2 // the label column takes 1/labelColumnFraction of the width
)

// ProgressEventMsg wraps a progress event for the tea framework.
type ProgressEventMsg struct {
	Event progress.Event
}

// BatchCompletedMsg indicates that the executor has returned.
type BatchCompletedMsg struct {
	Results *runbatch.BatchResults
	Err     error
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init implements bubbletea.Model.Init.
func (m *Model) Init() tea.Cmd {
	return tick()
}

// Update implements bubbletea.Model.Update.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.mutex.Lock()
		m.width = msg.Width
		m.height = msg.Height
		m.updateSizes()
		m.mutex.Unlock()

		return m, nil

	case ProgressEventMsg:
		m.processProgressEvent(msg.Event)
		return m, nil

	case BatchCompletedMsg:
		m.mutex.Lock()
		m.completed = true
		m.results = msg.Results
		m.batchErr = msg.Err
		autoQuit := m.autoQuit
		m.mutex.Unlock()

		if autoQuit {
			return m, tea.Quit
		}

		return m, nil

	case tickMsg:
		// Redraw elapsed times while jobs are running.
		if m.isCompleted() {
			return m, nil
		}

		return m, tick()
	}

	var cmd tea.Cmd

	m.mutex.Lock()
	m.viewport, cmd = m.viewport.Update(msg)
	m.mutex.Unlock()

	return m, cmd
}

func (m *Model) isCompleted() bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.completed
}

func (m *Model) updateSizes() {
	w := max(m.width-2, minViewportWidth)
	m.viewport.Width = w
	m.viewport.Height = max(m.height-reservedLines, 1)
	m.bar.Width = w
}

// handleKeyPress processes keyboard input. Quitting before the batch has
// finished cancels it.
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.mutex.Lock()
		m.quitting = true
		cancel := m.cancel
		completed := m.completed
		m.mutex.Unlock()

		if !completed && cancel != nil {
			cancel()
		}

		return m, tea.Quit
	}

	var cmd tea.Cmd

	m.mutex.Lock()
	m.viewport, cmd = m.viewport.Update(msg)
	m.mutex.Unlock()

	return m, cmd
}

// View implements bubbletea.Model.View.
func (m *Model) View() string {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.quitting {
		return "Shutting down...\n"
	}

	var content strings.Builder
	for _, row := range m.rows {
		m.renderRow(&content, row)
	}

	m.viewport.SetContent(content.String())

	var view strings.Builder

	view.WriteString(m.styles.Title.Render("pipebatch compute instances"))
	view.WriteString("\n")
	view.WriteString(m.bar.ViewAs(m.fraction()))
	view.WriteString("\n")
	view.WriteString(m.styles.Border.Render(m.viewport.View()))
	view.WriteString("\n")
	view.WriteString(m.renderStatusBar())
	view.WriteString("\n")

	help := "↑/↓ to scroll, 'q' to cancel the batch and quit"
	if m.completed {
		help = "↑/↓ to scroll, 'q' to quit"
	}

	view.WriteString(m.styles.Help.Render(help))

	return view.String()
}

func (m *Model) renderRow(b *strings.Builder, row *JobRow) {
	var (
		icon  string
		style lipgloss.Style
	)

	switch row.Status {
	case StatusRunning:
		icon, style = "⚡", m.styles.Running
	case StatusCompleted:
		icon, style = "✅", m.styles.Completed
	case StatusTimedOut:
		icon, style = "⏱", m.styles.TimedOut
	case StatusFailed, StatusCancelled:
		icon, style = "❌", m.styles.Failed
	default:
		icon, style = "⏳", m.styles.Pending
	}

	left := fmt.Sprintf("%s %s", icon, row.Label)
	if elapsed := row.Elapsed(m.now()); elapsed > 0 {
		left += fmt.Sprintf(" (%v)", elapsed.Round(durationRounding))
	}

	var right string

	switch {
	case row.ErrorMsg != "" && row.Status.finished():
		right = "Error: " + row.ErrorMsg
	case row.Status == StatusRunning:
		right = row.LastOutput
	}

	width := max(m.viewport.Width-2, minViewportWidth)
	leftWidth := width / labelColumnFraction
	rightWidth := width - leftWidth

	left = truncate(left, leftWidth)
	right = truncate(right, rightWidth)

	b.WriteString(style.Render(left))
	b.WriteString(strings.Repeat(" ", max(leftWidth-lipgloss.Width(left), 0)))

	if right != "" {
		if row.Status == StatusRunning {
			b.WriteString(m.styles.Output.Render(right))
		} else {
			b.WriteString(m.styles.Error.Render(right))
		}
	}

	b.WriteString("\n")
}

func (m *Model) renderStatusBar() string {
	counts := make(map[JobStatus]int)
	for _, row := range m.rows {
		counts[row.Status]++
	}

	status := fmt.Sprintf("%d/%d done · %d running · %d timed out · %d failed",
		len(m.rows)-counts[StatusPending]-counts[StatusRunning],
		len(m.rows),
		counts[StatusRunning],
		counts[StatusTimedOut],
		counts[StatusFailed]+counts[StatusCancelled],
	)

	if !m.completed {
		return status
	}

	switch {
	case m.batchErr != nil:
		return m.styles.Failed.Render(fmt.Sprintf("%s · stopped: %s", status, m.batchErr))
	case m.results != nil && m.results.HasFailures():
		return m.styles.TimedOut.Render(status + " · finished with timeouts")
	default:
		return m.styles.Completed.Render(status + " · finished")
	}
}

// truncate shortens s to at most width runes.
func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}

	if width <= len(ellipsis) {
		return string(r[:width])
	}

	return string(r[:width-len(ellipsis)]) + ellipsis
}
