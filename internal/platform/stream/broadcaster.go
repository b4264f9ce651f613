package stream

import (
	"slices"
	"sync"
)

// Broadcaster fans events out to every live subscription. Late subscribers
// only see events published after they subscribed. Subscriptions are keyed
// internally, so two subscribers may share an id.
type Broadcaster[T any] struct {
	mu    sync.Mutex
	next  uint64
	subs  map[uint64]*Subscription[T]
	order []uint64
}

func NewBroadcaster[T any]() *Broadcaster[T] {
	return &Broadcaster[T]{subs: map[uint64]*Subscription[T]{}}
}

func (b *Broadcaster[T]) Subscribe(id string) *Subscription[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := b.next
	b.next++
	sub := NewSubscription[T](id, func() { b.remove(key) })
	b.subs[key] = sub
	b.order = append(b.order, key)
	return sub
}

// Publish returns the number of subscriptions the event was queued on.
func (b *Broadcaster[T]) Publish(ev T) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	delivered := 0
	for _, key := range b.order {
		if b.subs[key].Push(ev) {
			delivered++
		}
	}
	return delivered
}

func (b *Broadcaster[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.order)
}

// Close ends every subscription with err.
func (b *Broadcaster[T]) Close(err error) {
	b.mu.Lock()
	subs := make([]*Subscription[T], 0, len(b.order))
	for _, key := range b.order {
		subs = append(subs, b.subs[key])
	}
	b.mu.Unlock()
	for _, sub := range subs {
		sub.Close(err)
	}
}

func (b *Broadcaster[T]) remove(key uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[key]; !ok {
		return
	}
	delete(b.subs, key)
	if i := slices.Index(b.order, key); i >= 0 {
		b.order = slices.Delete(b.order, i, i+1)
	}
}
