// Package eventbus provides a typed, synchronous publish/subscribe channel for
// decoupled notifications between the patient registry and its consumers.
// Topics are declared in this package only, and each topic carries exactly one
// message variant, so payload shapes are checked at compile time.
package eventbus

import (
	"sync"
	"sync/atomic"
)

// Message is implemented by every payload that can travel on the bus. The
// marker method keeps the set of variants closed to this package.
type Message interface {
	busMessage()
}

// Topic names a channel carrying messages of type T.
type Topic[T any] struct {
	name string
}

// Name returns the wire name of the topic.
func (t Topic[T]) Name() string { return t.name }

// Unsubscribe removes a handler from the bus. Calling it more than once is a
// no-op.
type Unsubscribe func()

type subscription struct {
	id      uint64
	active  atomic.Bool
	deliver func(msg Message)
}

// Bus dispatches published messages to the handlers subscribed to the same
// topic, synchronously and in registration order. A Bus is safe for use by
// multiple goroutines; handlers run on the publishing goroutine.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	topics map[string][]*subscription
	taps   []*tap
}

type tap struct {
	active atomic.Bool
	fn     func(topic string, msg Message)
}

// New returns an empty Bus.
func New() *Bus {
	return &Bus{topics: make(map[string][]*subscription)}
}

// Subscribe registers handler for topic and returns the function that
// deregisters it. Views must call it on teardown.
func Subscribe[T any, PT interface {
	*T
	Message
}](b *Bus, topic Topic[T], handler func(PT)) Unsubscribe {
	sub := &subscription{
		deliver: func(msg Message) {
			if m, ok := msg.(PT); ok {
				handler(m)
			}
		},
	}
	sub.active.Store(true)

	b.mu.Lock()
	b.nextID++
	sub.id = b.nextID
	b.topics[topic.name] = append(b.topics[topic.name], sub)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.active.Store(false)
			b.remove(topic.name, sub.id)
		})
	}
}

// Publish hands msg to every handler currently subscribed to topic. It
// returns once all handlers have returned. Messages published while nobody
// is subscribed are dropped.
func Publish[T any, PT interface {
	*T
	Message
}](b *Bus, topic Topic[T], msg PT) {
	b.dispatch(topic.name, msg)
}

// Tap registers fn to observe every message published on any topic, after
// the topic's own subscribers have run.
func (b *Bus) Tap(fn func(topic string, msg Message)) Unsubscribe {
	t := &tap{fn: fn}
	t.active.Store(true)

	b.mu.Lock()
	b.taps = append(b.taps, t)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.active.Store(false)
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, cur := range b.taps {
				if cur == t {
					b.taps = append(b.taps[:i:i], b.taps[i+1:]...)
					break
				}
			}
		})
	}
}

// SubscriberCount returns the number of handlers registered for topic name.
func (b *Bus) SubscriberCount(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[name])
}

func (b *Bus) dispatch(name string, msg Message) {
	// Snapshot under the lock so handlers may subscribe, unsubscribe or
	// publish without deadlocking.
	b.mu.RLock()
	subs := append([]*subscription(nil), b.topics[name]...)
	taps := append([]*tap(nil), b.taps...)
	b.mu.RUnlock()

	for _, s := range subs {
		if s.active.Load() {
			s.deliver(msg)
		}
	}
	for _, t := range taps {
		if t.active.Load() {
			t.fn(name, msg)
		}
	}
}

func (b *Bus) remove(name string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.topics[name]
	for i, s := range subs {
		if s.id == id {
			// Copy so in-flight snapshots keep their view.
			next := make([]*subscription, 0, len(subs)-1)
			next = append(next, subs[:i]...)
			next = append(next, subs[i+1:]...)
			if len(next) == 0 {
				delete(b.topics, name)
			} else {
				b.topics[name] = next
			}
			return
		}
	}
}
