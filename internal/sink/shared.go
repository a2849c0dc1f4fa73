package sink

import (
	"context"
	"sync"

	"newsharvest/internal/domain"
	"newsharvest/internal/models"
)

// Shared lets several site runs write into one sink. Writes are serialized and
// the underlying sink is closed once every handle has been closed.
type Shared struct {
	mu   sync.Mutex
	sink domain.Sink
	open int
}

func NewShared(s domain.Sink) *Shared {
	return &Shared{sink: s}
}

// Handle returns a new holder of the shared sink.
func (s *Shared) Handle() domain.Sink {
	s.mu.Lock()
	s.open++
	s.mu.Unlock()
	return &handle{shared: s}
}

func (s *Shared) write(ctx context.Context, rec models.ArticleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sink.Write(ctx, rec)
}

func (s *Shared) release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open--
	if s.open > 0 {
		return nil
	}
	return s.sink.Close()
}

type handle struct {
	shared *Shared
	once   sync.Once
	closed bool
}

func (h *handle) Write(ctx context.Context, rec models.ArticleRecord) error {
	if h.closed {
		return errClosed
	}
	return h.shared.write(ctx, rec)
}

// Close releases the handle. Closing twice is a no-op.
func (h *handle) Close() error {
	var err error
	h.once.Do(func() {
		h.closed = true
		err = h.shared.release()
	})
	return err
}
