package frontier

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(f Frontier) []string {
	var out []string
	for {
		u, ok := f.Take()
		if !ok {
			return out
		}
		out = append(out, u)
	}
}

func TestMemory_OfferIsIdempotent(t *testing.T) {
	f := NewMemory()
	assert.True(t, f.Offer("https://example.test/a"))
	assert.False(t, f.Offer("https://example.test/a"))
	assert.Equal(t, 1, f.Len())
	assert.Equal(t, []string{"https://example.test/a"}, drain(f))

	// taken URLs stay visited
	assert.False(t, f.Offer("https://example.test/a"))
	assert.Equal(t, 0, f.Len())
}

func TestMemory_FIFO(t *testing.T) {
	f := NewMemory()
	for _, u := range []string{"u1", "u2", "u3"} {
		require.True(t, f.Offer(u))
	}
	assert.Equal(t, []string{"u1", "u2", "u3"}, drain(f))

	_, ok := f.Take()
	assert.False(t, ok)
}

func TestMemory_QueryAndFragmentAreDistinct(t *testing.T) {
	f := NewMemory()
	assert.True(t, f.Offer("https://example.test/a"))
	assert.True(t, f.Offer("https://example.test/a?x=1"))
	assert.True(t, f.Offer("https://example.test/a#top"))
	assert.Equal(t, 3, f.Visited())
}

func TestMemory_Seed(t *testing.T) {
	f := NewMemory()
	require.NoError(t, f.Seed([]string{"s1", "s2", "s1"}))
	assert.ErrorIs(t, f.Seed([]string{"s3"}), ErrAlreadySeeded)
	assert.False(t, f.Offer("s2"))
	assert.True(t, f.Offer("s3"))
	assert.Equal(t, []string{"s1", "s2", "s3"}, drain(f))
}

func TestMemory_ConcurrentOffers(t *testing.T) {
	f := NewMemory()
	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if f.Offer(fmt.Sprintf("u%d", j)) {
					mu.Lock()
					accepted++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, accepted)
	assert.Len(t, drain(f), 100)
}

func TestMemory_MarkVisited(t *testing.T) {
	f := NewMemory()
	require.True(t, f.Offer("https://example.test/a"))

	assert.True(t, f.MarkVisited("https://example.test/b"))
	assert.False(t, f.MarkVisited("https://example.test/b"))
	assert.False(t, f.MarkVisited("https://example.test/a"))
	assert.False(t, f.Offer("https://example.test/b"))

	assert.Equal(t, 1, f.Len())
	assert.Equal(t, 2, f.Visited())
}

func TestWithLimit(t *testing.T) {
	f := WithLimit(NewMemory(), 3)
	require.NoError(t, f.Seed([]string{"s1"}))
	assert.True(t, f.Offer("a"))
	assert.True(t, f.Offer("b"))
	assert.False(t, f.Offer("c"))
	assert.Equal(t, []string{"s1", "a", "b"}, drain(f))

	unlimited := NewMemory()
	assert.Same(t, Frontier(unlimited), WithLimit(unlimited, 0))
}
