package sqsfake

import (
	"cmp"
	"iter"
	"slices"
	"sync"
)

// NewQueues returns a new queues storage.
func NewQueues() *Queues {
	return &Queues{
		queueURLs: make(map[string]string),
		queues:    make(map[string]*Queue),
	}
}

// Queues holds every queue of a server, by name and by url.
type Queues struct {
	mu        sync.Mutex
	queueURLs map[string]string
	queues    map[string]*Queue
}

// AddQueue registers a queue, returning the existing queue if one with the
// same name and attributes is already present.
func (q *Queues) AddQueue(queue *Queue) (*Queue, *Error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if existingURL, ok := q.queueURLs[queue.Name]; ok {
		existing := q.queues[existingURL]
		if existing.HasAttributes(queue.Attributes) {
			return existing, nil
		}
		return nil, ErrorQueueNameExists().WithMessagef("A queue already exists with the same name and a different value for attribute(s): %s", queue.Name)
	}
	q.queueURLs[queue.Name] = queue.URL
	q.queues[queue.URL] = queue
	return queue, nil
}

func (q *Queues) GetQueueURL(queueName string) (queueURL string, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	queueURL, ok = q.queueURLs[queueName]
	return
}

func (q *Queues) GetQueue(queueURL string) (queue *Queue, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	queue, ok = q.queues[queueURL]
	return
}

// GetQueueByName resolves and returns a queue by name.
func (q *Queues) GetQueueByName(queueName string) (queue *Queue, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var queueURL string
	if queueURL, ok = q.queueURLs[queueName]; !ok {
		return
	}
	queue, ok = q.queues[queueURL]
	return
}

func (q *Queues) PurgeQueue(queueURL string) (ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var queue *Queue
	queue, ok = q.queues[queueURL]
	if !ok {
		return
	}
	queue.Purge()
	return
}

func (q *Queues) DeleteQueue(queueURL string) (ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var queue *Queue
	queue, ok = q.queues[queueURL]
	if !ok {
		return
	}
	delete(q.queueURLs, queue.Name)
	delete(q.queues, queueURL)
	return
}

// EachQueue returns an iterator over the queues sorted by name.
func (q *Queues) EachQueue() iter.Seq[*Queue] {
	q.mu.Lock()
	sorted := make([]*Queue, 0, len(q.queues))
	for _, queue := range q.queues {
		sorted = append(sorted, queue)
	}
	q.mu.Unlock()
	slices.SortFunc(sorted, func(a, b *Queue) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return slices.Values(sorted)
}
