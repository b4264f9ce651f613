// Package stream carries server-push events to a single consumer.
//
// A Subscription is a lazy, unbounded, non-restartable sequence: events are
// queued by the producer without blocking, handed to the consumer in arrival
// order, and nothing is delivered once the subscription has been cancelled.
package stream

import (
	"errors"
	"sync"
)

// ErrRemoteClosed reports that the producing side ended the stream.
var ErrRemoteClosed = errors.New("subscription closed by remote")

type State int

const (
	StateActive State = iota
	StateCancelled
)

func (s State) String() string {
	if s == StateActive {
		return "active"
	}
	return "cancelled"
}

type Subscription[T any] struct {
	id     string
	events chan T
	stop   chan struct{}
	done   chan struct{}
	wake   chan struct{}

	stopOnce   sync.Once
	cancelOnce sync.Once
	onCancel   func()

	mu    sync.Mutex
	queue []T
	ended bool
	err   error
}

// NewSubscription starts delivery. onCancel runs once, when either side ends
// the subscription, and should release whatever feeds it.
func NewSubscription[T any](id string, onCancel func()) *Subscription[T] {
	s := &Subscription[T]{
		id:       id,
		events:   make(chan T),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		wake:     make(chan struct{}, 1),
		onCancel: onCancel,
	}
	go s.pump()
	return s
}

func (s *Subscription[T]) ID() string {
	return s.id
}

// Events is closed after the last event has been delivered.
func (s *Subscription[T]) Events() <-chan T {
	return s.events
}

// Done is closed once no further events can be delivered.
func (s *Subscription[T]) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription[T]) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return StateCancelled
	}
	return StateActive
}

// Err is nil while active and after a consumer unsubscribe. It carries the
// producer's reason when the producer ended the stream.
func (s *Subscription[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Push queues ev for delivery. It never blocks and reports false once the
// subscription is cancelled.
func (s *Subscription[T]) Push(ev T) bool {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return false
	}
	s.queue = append(s.queue, ev)
	s.mu.Unlock()
	s.signal()
	return true
}

// Close ends the stream from the producer side. Queued events are still
// delivered before Events is closed.
func (s *Subscription[T]) Close(err error) {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return
	}
	s.ended = true
	s.err = err
	s.mu.Unlock()
	s.signal()
	s.release()
}

// Unsubscribe cancels silently and drops anything still queued. When it
// returns, no further event will be handed to the consumer.
func (s *Subscription[T]) Unsubscribe() {
	s.mu.Lock()
	s.ended = true
	s.queue = nil
	s.mu.Unlock()
	s.stopOnce.Do(func() { close(s.stop) })
	s.release()
	<-s.done
}

// Each calls fn for every event until the subscription ends and returns Err.
func (s *Subscription[T]) Each(fn func(T)) error {
	for ev := range s.events {
		fn(ev)
	}
	return s.Err()
}

func (s *Subscription[T]) release() {
	s.cancelOnce.Do(func() {
		if s.onCancel != nil {
			s.onCancel()
		}
	})
}

func (s *Subscription[T]) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Subscription[T]) pump() {
	defer close(s.done)
	defer close(s.events)
	var zero T
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			ended := s.ended
			s.mu.Unlock()
			if ended {
				return
			}
			select {
			case <-s.wake:
				continue
			case <-s.stop:
				return
			}
		}
		ev := s.queue[0]
		s.queue[0] = zero
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.events <- ev:
		case <-s.stop:
			return
		}
	}
}

// Map forwards src through fn into a new subscription. Unsubscribing the
// result unsubscribes src.
func Map[A, B any](src *Subscription[A], fn func(A) B) *Subscription[B] {
	dst := NewSubscription[B](src.ID(), src.Unsubscribe)
	go func() {
		for ev := range src.Events() {
			if !dst.Push(fn(ev)) {
				return
			}
		}
		dst.Close(src.Err())
	}()
	return dst
}
