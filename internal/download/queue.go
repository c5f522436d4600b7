package download

import (
	"sync"

	"github.com/ytget/vdl/internal/model"
)

// EventQueue is an unbounded FIFO sink. Publish never blocks; a single
// goroutine hands events to the Events channel as the consumer reads them.
type EventQueue struct {
	mu      sync.Mutex
	pending []model.Event
	closed  bool
	wake    chan struct{}
	out     chan model.Event
}

// NewEventQueue creates a queue and starts its delivery goroutine
func NewEventQueue() *EventQueue {
	q := &EventQueue{
		wake: make(chan struct{}, 1),
		out:  make(chan model.Event),
	}
	go q.run()
	return q
}

// Publish appends event to the queue. Events published after Close are dropped.
func (q *EventQueue) Publish(event model.Event) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.pending = append(q.pending, event)
	q.mu.Unlock()
	q.signal()
}

// Events returns the receive side. It is closed after Close once every queued event was delivered.
func (q *EventQueue) Events() <-chan model.Event {
	return q.out
}

// Close stops accepting events. It is safe to call more than once.
func (q *EventQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.signal()
}

// Len returns the number of events not yet handed to the consumer
func (q *EventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *EventQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *EventQueue) run() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			closed := q.closed
			q.mu.Unlock()
			if closed {
				close(q.out)
				return
			}
			<-q.wake
			continue
		}
		event := q.pending[0]
		q.pending[0] = model.Event{}
		q.pending = q.pending[1:]
		q.mu.Unlock()

		q.out <- event
	}
}
