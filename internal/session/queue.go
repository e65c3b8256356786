package session

import (
	"sync"

	"github.com/ytget/vidgrab/internal/model"
)

// eventQueue is an unbounded FIFO in front of the public event channel.
// push never blocks, so the controller can publish while holding its lock.
type eventQueue struct {
	mu      sync.Mutex
	pending []model.Event
	notify  chan struct{}
	out     chan model.Event
	done    chan struct{}
	once    sync.Once
}

func newEventQueue() *eventQueue {
	q := &eventQueue{
		notify: make(chan struct{}, 1),
		out:    make(chan model.Event),
		done:   make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *eventQueue) push(ev model.Event) {
	q.mu.Lock()
	q.pending = append(q.pending, ev)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// close stops delivery and closes the output channel. Events not yet
// received by the consumer are dropped.
func (q *eventQueue) close() {
	q.once.Do(func() { close(q.done) })
}

func (q *eventQueue) run() {
	defer close(q.out)
	for {
		q.mu.Lock()
		batch := q.pending
		q.pending = nil
		q.mu.Unlock()

		for _, ev := range batch {
			select {
			case q.out <- ev:
			case <-q.done:
				return
			}
		}
		if len(batch) > 0 {
			continue
		}

		select {
		case <-q.notify:
		case <-q.done:
			return
		}
	}
}
