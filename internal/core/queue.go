package core

import "sync"

// Queue holds browser capture jobs for one generation run.
type Queue struct {
	mu    sync.Mutex
	items []ImageSpec
}

func NewQueue() *Queue {
	return &Queue{}
}

func (q *Queue) Enqueue(spec ImageSpec) {
	q.mu.Lock()
	q.items = append(q.items, spec)
	q.mu.Unlock()
}

// DrainAll returns every queued job in enqueue order and empties the queue.
func (q *Queue) DrainAll() []ImageSpec {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue) Reset() {
	q.mu.Lock()
	q.items = nil
	q.mu.Unlock()
}
