package lsm9ds1

import (
	"sync"

	"github.com/donny0101/Base11-FC/internal/sensor"
)

// readingQueue holds decoded samples in acquisition order until the
// consumer pops them. The drain goroutine appends and the consumer
// pops, so access is guarded internally.
type readingQueue struct {
	mu    sync.Mutex
	items []sensor.IMUReading
}

func (q *readingQueue) push(r sensor.IMUReading) {
	q.mu.Lock()
	q.items = append(q.items, r)
	q.mu.Unlock()
}

func (q *readingQueue) pop() (sensor.IMUReading, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return sensor.IMUReading{}, false
	}
	r := q.items[0]
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}
	return r, true
}

func (q *readingQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
