// Package frontier holds the pending-URL queue of a crawl run together with the
// set of every URL ever admitted to it.
package frontier

import (
	"errors"
	"sync"
)

// ErrAlreadySeeded is returned when Seed is called a second time.
var ErrAlreadySeeded = errors.New("frontier already seeded")

type Frontier interface {
	Seed(urls []string) error
	Offer(url string) bool
	MarkVisited(url string) bool
	Take() (string, bool)
	Len() int
	Visited() int
}

// Memory is an in-process FIFO frontier. A URL is marked visited when it is
// accepted into the queue, not when it is fetched.
type Memory struct {
	mu      sync.Mutex
	seeded  bool
	pending []string
	visited map[string]struct{}
}

func NewMemory() *Memory {
	return &Memory{
		pending: make([]string, 0),
		visited: make(map[string]struct{}),
	}
}

func (f *Memory) Seed(urls []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.seeded {
		return ErrAlreadySeeded
	}
	f.seeded = true
	for _, u := range urls {
		f.offerLocked(u)
	}
	return nil
}

func (f *Memory) Offer(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.offerLocked(url)
}

// MarkVisited records url as seen without queueing it, e.g. the target of a
// redirect. It reports false when url was already known.
func (f *Memory) MarkVisited(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.visited[url]; exists {
		return false
	}
	f.visited[url] = struct{}{}
	return true
}

func (f *Memory) offerLocked(url string) bool {
	if _, exists := f.visited[url]; exists {
		return false
	}
	f.visited[url] = struct{}{}
	f.pending = append(f.pending, url)
	return true
}

func (f *Memory) Take() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.pending) == 0 {
		return "", false
	}
	next := f.pending[0]
	f.pending[0] = ""
	f.pending = f.pending[1:]
	return next, true
}

func (f *Memory) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

func (f *Memory) Visited() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited)
}
