package queue

import "sync"

const (
	// QueueBufferSize represents the maximum size of a queue
	QueueBufferSize = 1024
)

// InMemoryQueue implements a bounded in-memory queue.
type InMemoryQueue struct {
	ch   chan interface{}
	lock sync.Mutex
}

// NewInMemoryQueue creates a new queue with the given capacity.
// A non-positive size uses QueueBufferSize.
func NewInMemoryQueue(size int) *InMemoryQueue {
	if size <= 0 {
		size = QueueBufferSize
	}
	return &InMemoryQueue{
		ch: make(chan interface{}, size),
	}
}

// Enqueue adds an item to the end of the queue without blocking.
func (q *InMemoryQueue) Enqueue(item interface{}) error {
	select {
	case q.ch <- item:
		return nil
	default:
		return ErrQueueFull
	}
}

// Size returns the current size of the queue.
func (q *InMemoryQueue) Size() int {
	return len(q.ch)
}

// ReadAllMessages reads all pending messages in the queue
func (q *InMemoryQueue) ReadAllMessages() ([]interface{}, error) {
	q.lock.Lock()
	defer q.lock.Unlock()

	var messages []interface{}
	for {
		select {
		case item := <-q.ch:
			messages = append(messages, item)
		default:
			return messages, nil
		}
	}
}

// ClearQueue clears all messages from the queue.
func (q *InMemoryQueue) ClearQueue() {
	q.lock.Lock()
	defer q.lock.Unlock()

	for {
		select {
		case <-q.ch:
		default:
			return
		}
	}
}
