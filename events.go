package xcorr

import (
	"sync"
	"time"
)

// Event marks a point in a stream's work queue. Recording an event
// enqueues a timestamp task: the event completes, and captures its time,
// only after every operation submitted to the stream before it has run.
// Pairs of events bracket work for timing, as on a GPU runtime.
type Event struct {
	mu   sync.Mutex
	when time.Time
	done chan struct{}
}

// NewEvent creates an unrecorded event.
func NewEvent() *Event {
	return &Event{done: make(chan struct{})}
}

// Record enqueues the event on a stream. A nil stream records on the
// default stream. An event must not be recorded twice.
func (e *Event) Record(stream *Stream) {
	if stream == nil {
		stream = defaultContext.defaultStream
	}
	stream.Submit(func() {
		e.mu.Lock()
		e.when = time.Now()
		e.mu.Unlock()
		close(e.done)
	})
}

// Synchronize blocks until the event has completed.
func (e *Event) Synchronize() {
	<-e.done
}

// Completed reports whether the event has completed without blocking.
func (e *Event) Completed() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

func (e *Event) time() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.when
}

// ElapsedTime returns the elapsed wall time between two completed events
// in milliseconds. It waits for both events first.
func ElapsedTime(start, end *Event) float64 {
	start.Synchronize()
	end.Synchronize()
	return float64(end.time().Sub(start.time())) / float64(time.Millisecond)
}
