package frontier

import "sync"

type limited struct {
	Frontier
	mu  sync.Mutex
	max int
}

// WithLimit caps the number of URLs f will ever admit. Offers beyond max are
// rejected as if the URL had been seen. Seeds are always admitted. A max of
// zero or less returns f unchanged.
func WithLimit(f Frontier, max int) Frontier {
	if max <= 0 {
		return f
	}
	return &limited{Frontier: f, max: max}
}

func (l *limited) Offer(url string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.Frontier.Visited() >= l.max {
		return false
	}
	return l.Frontier.Offer(url)
}
