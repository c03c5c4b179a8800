package messages

import (
	"sync"
	"sync/atomic"
)

// Bus delivers every published message to every current subscriber.
// Publish never blocks: a subscriber whose buffer is full misses the message
// and Dropped is incremented.
type Bus struct {
	mu      sync.RWMutex
	subs    map[int]chan Message
	next    int
	dropped atomic.Int64
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Message)}
}

// Subscribe returns a receive channel with the given buffer and a function
// that unsubscribes and closes the channel.
func (b *Bus) Subscribe(buffer int) (<-chan Message, func()) {
	ch := make(chan Message, buffer)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

func (b *Bus) Publish(msg Message) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		select {
		case ch <- msg:
		default:
			b.dropped.Add(1)
		}
	}
}

// Subscribers is the number of live subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}
