package grpc

import (
	"sync"
	"sync/atomic"

	"github.com/mr1hm/go-disaster-feed/internal/models"
)

// Broadcaster fans volunteer interests out to live subscribers. A slow
// subscriber misses events instead of blocking the publisher.
type Broadcaster struct {
	subscribers map[uint64]chan models.VolunteerInterest
	nextID      atomic.Uint64
	mu          sync.RWMutex
	closed      bool
	bufferSize  int
}

func NewBroadcaster(bufferSize int) *Broadcaster {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &Broadcaster{
		subscribers: make(map[uint64]chan models.VolunteerInterest),
		bufferSize:  bufferSize,
	}
}

// Subscribe returns a closed channel once the broadcaster has been closed.
func (b *Broadcaster) Subscribe() (uint64, <-chan models.VolunteerInterest) {
	id := b.nextID.Add(1)
	ch := make(chan models.VolunteerInterest, b.bufferSize)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return id, ch
	}
	b.subscribers[id] = ch

	return id, ch
}

func (b *Broadcaster) Unsubscribe(id uint64) {
	b.mu.Lock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

// Broadcast returns how many subscribers received v.
func (b *Broadcaster) Broadcast(v models.VolunteerInterest) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := 0
	for _, ch := range b.subscribers {
		select {
		case ch <- v:
			delivered++
		default:
		}
	}
	return delivered
}

func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close closes all subscriber channels so open streams end.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
}
