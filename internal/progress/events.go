// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"time"
)

// Event is a single update about a job.
type Event struct {
	JobIndex  int       // JobSpec index of the job the event is about
	Label     string    // Job label, e.g. "[3] graph"
	Type      EventType // What happened
	Message   string    // Human-readable status message
	Timestamp time.Time // When the event occurred
	Data      EventData // Type-specific data
}

// EventType represents the type of progress event.
type EventType int

const (
	// EventStarted indicates a job has been launched.
	EventStarted EventType = iota
	// EventOutput indicates the job printed a line.
	EventOutput
	// EventCompleted indicates the job's output ended and the process exited.
	EventCompleted
	// EventTimedOut indicates the job was terminated after exceeding its timeout.
	EventTimedOut
	// EventFailed indicates the job could not be launched.
	EventFailed
	// EventCancelled indicates the job was terminated because the batch was cancelled.
	EventCancelled
)

// String implements the Stringer interface for EventType.
func (et EventType) String() string {
	switch et {
	case EventStarted:
		return "started"
	case EventOutput:
		return "output"
	case EventCompleted:
		return "completed"
	case EventTimedOut:
		return "timed out"
	case EventFailed:
		return "failed"
	case EventCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further events follow for the job.
func (et EventType) Terminal() bool {
	return et >= EventCompleted && et <= EventCancelled
}

// EventData contains type-specific information for progress events.
type EventData struct {
	// For EventStarted
	Position int // 1-based position of the job in the batch
	Total    int // number of jobs in the batch

	// For EventOutput
	OutputLine string

	// For terminal events
	ExitCode int
	Duration time.Duration
	Error    error
}

// Reporter is the interface for sending progress events.
type Reporter interface {
	// Report sends an event. Implementations must not block.
	Report(event Event)
	// Close signals that no more events will be sent.
	Close()
}

// Listener receives progress events.
type Listener interface {
	OnEvent(event Event)
}

// NullReporter discards every event.
type NullReporter struct{}

// Report does nothing.
func (nr *NullReporter) Report(Event) {}

// Close does nothing.
func (nr *NullReporter) Close() {}

// NewNullReporter creates a new NullReporter.
func NewNullReporter() Reporter {
	return &NullReporter{}
}
