package service

import (
	"context"
	"log"
	"sync"

	"bobbystable/internal/entities"
)

const DefaultObserverBuffer = 64

// Notifier fans committed store mutations out to observers. Each observer
// owns a bounded queue; Publish never blocks, and a full queue loses its
// oldest event instead.
type Notifier struct {
	mu       sync.RWMutex
	subs     map[*Subscription]struct{}
	sequence uint64
	closed   bool
}

func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[*Subscription]struct{})}
}

// Publish stamps evt with the next sequence number and enqueues it for
// every current observer. The store calls it while holding its write
// lock, so sequence order is commit order.
func (n *Notifier) Publish(evt entities.ChangeEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.sequence++
	evt.Sequence = n.sequence
	for sub := range n.subs {
		sub.push(evt)
	}
}

// Subscribe registers an observer with a queue of the given capacity.
// Events published after Subscribe returns are delivered to it.
func (n *Notifier) Subscribe(name string, capacity int) *Subscription {
	if capacity < 1 {
		capacity = DefaultObserverBuffer
	}
	sub := &Subscription{
		name:     name,
		notifier: n,
		ring:     make([]entities.ChangeEvent, capacity),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		sub.finish()
		return sub
	}
	n.subs[sub] = struct{}{}
	return sub
}

// Observe subscribes fn and drains its queue on a dedicated goroutine
// until ctx ends or the notifier closes.
func (n *Notifier) Observe(ctx context.Context, name string, capacity int, fn func(context.Context, entities.ChangeEvent)) *Subscription {
	sub := n.Subscribe(name, capacity)
	go func() {
		defer sub.Close()
		for {
			evt, err := sub.Next(ctx)
			if err != nil {
				return
			}
			fn(ctx, evt)
		}
	}()
	return sub
}

func (n *Notifier) ObserverCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs)
}

// Close detaches every observer. Queued events can still be drained.
func (n *Notifier) Close() {
	n.mu.Lock()
	subs := n.subs
	n.subs = make(map[*Subscription]struct{})
	n.closed = true
	n.mu.Unlock()
	for sub := range subs {
		sub.finish()
	}
}

func (n *Notifier) remove(sub *Subscription) {
	n.mu.Lock()
	delete(n.subs, sub)
	n.mu.Unlock()
}

// Subscription is one observer's queue.
type Subscription struct {
	name     string
	notifier *Notifier

	mu      sync.Mutex
	ring    []entities.ChangeEvent
	start   int
	size    int
	dropped uint64

	wake      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func (s *Subscription) push(evt entities.ChangeEvent) {
	s.mu.Lock()
	if s.size == len(s.ring) {
		s.start = (s.start + 1) % len(s.ring)
		s.size--
		s.dropped++
		if s.dropped == 1 || s.dropped%100 == 0 {
			log.Printf("Notifier: observer %s is behind, %d events dropped so far", s.name, s.dropped)
		}
	}
	s.ring[(s.start+s.size)%len(s.ring)] = evt
	s.size++
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Subscription) pop() (entities.ChangeEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.size == 0 {
		return entities.ChangeEvent{}, false
	}
	evt := s.ring[s.start]
	s.ring[s.start] = entities.ChangeEvent{}
	s.start = (s.start + 1) % len(s.ring)
	s.size--
	return evt, true
}

// Next blocks until an event is queued, ctx ends or the subscription is
// closed. Queued events are returned before a close is reported.
func (s *Subscription) Next(ctx context.Context) (entities.ChangeEvent, error) {
	for {
		if evt, ok := s.pop(); ok {
			return evt, nil
		}
		select {
		case <-s.wake:
		case <-s.done:
			if evt, ok := s.pop(); ok {
				return evt, nil
			}
			return entities.ChangeEvent{}, context.Canceled
		case <-ctx.Done():
			return entities.ChangeEvent{}, ctx.Err()
		}
	}
}

func (s *Subscription) Name() string { return s.name }

// Dropped is the number of events discarded because the queue was full.
func (s *Subscription) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func (s *Subscription) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// Close unregisters the observer. Safe to call more than once.
func (s *Subscription) Close() {
	s.notifier.remove(s)
	s.finish()
}

func (s *Subscription) finish() {
	s.closeOnce.Do(func() { close(s.done) })
}
