package events

import (
	"context"
	"sync"
	"sync/atomic"
)

const defaultBuffer = 16

// LocalBroker fans events out to in-process subscribers. A subscriber whose
// buffer is full misses the event; publishers never block.
type LocalBroker struct {
	mu      sync.RWMutex
	subs    map[string]map[*Subscription]struct{}
	buffer  int
	dropped atomic.Uint64
}

// Subscription receives the events of one user until Close.
type Subscription struct {
	ch     chan Event
	userID string
	broker *LocalBroker
	once   sync.Once
}

func NewLocalBroker(buffer int) *LocalBroker {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &LocalBroker{subs: make(map[string]map[*Subscription]struct{}), buffer: buffer}
}

func (b *LocalBroker) Subscribe(userID string) *Subscription {
	sub := &Subscription{ch: make(chan Event, b.buffer), userID: userID, broker: b}
	b.mu.Lock()
	set, ok := b.subs[userID]
	if !ok {
		set = make(map[*Subscription]struct{})
		b.subs[userID] = set
	}
	set[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

func (b *LocalBroker) Publish(_ context.Context, ev Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs[ev.UserID] {
		select {
		case sub.ch <- ev:
		default:
			b.dropped.Add(1)
		}
	}
	return nil
}

// Subscribers reports the number of open subscriptions for userID.
func (b *LocalBroker) Subscribers(userID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[userID])
}

func (b *LocalBroker) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if set, ok := b.subs[sub.userID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(b.subs, sub.userID)
		}
	}
	close(sub.ch)
}

// C yields events; it is closed after Close.
func (s *Subscription) C() <-chan Event { return s.ch }

// Close detaches the subscription. Calling it more than once is safe.
func (s *Subscription) Close() {
	s.once.Do(func() { s.broker.remove(s) })
}

var _ Broker = (*LocalBroker)(nil)
