// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"context"
	"sync"
	"sync/atomic"
)

// BufferedReporter queues events for a single listener goroutine, so a job
// writing output quickly is not slowed down by a slow consumer.
// When the queue is full, output events are dropped and counted; every other
// event waits for room, so a listener always sees each job start and end.
type BufferedReporter struct {
	queue   chan Event
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
	wg      sync.WaitGroup
	once    sync.Once
}

// NewBufferedReporter creates a reporter holding up to size queued events.
// Cancelling ctx stops delivery and unblocks any waiting Report call.
func NewBufferedReporter(ctx context.Context, size int) *BufferedReporter {
	ctx, cancel := context.WithCancel(ctx)

	return &BufferedReporter{
		queue:  make(chan Event, size),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Report queues event. Events reported after Close are discarded.
func (br *BufferedReporter) Report(event Event) {
	br.mu.RLock()
	defer br.mu.RUnlock()

	if br.closed {
		return
	}

	if event.Type == EventOutput {
		select {
		case br.queue <- event:
		default:
			br.dropped.Add(1)
		}

		return
	}

	select {
	case br.queue <- event:
	case <-br.ctx.Done():
	}
}

// Listen delivers queued events to listener, in order, on a new goroutine.
// Call it once, before the first Report.
func (br *BufferedReporter) Listen(listener Listener) {
	br.wg.Add(1)

	go func() {
		defer br.wg.Done()

		for {
			select {
			case event, ok := <-br.queue:
				if !ok {
					return
				}

				listener.OnEvent(event)
			case <-br.ctx.Done():
				return
			}
		}
	}()
}

// Close stops accepting events and returns once the listener has been given
// everything already queued. It is safe to call more than once.
func (br *BufferedReporter) Close() {
	br.once.Do(func() {
		br.mu.Lock()
		br.closed = true
		close(br.queue)
		br.mu.Unlock()

		br.wg.Wait()
		br.cancel()
	})
}

// Dropped is the number of output events discarded because the queue was full.
func (br *BufferedReporter) Dropped() int64 {
	return br.dropped.Load()
}
