// Package pubsub is an in-process topic broker for GraphQL subscriptions.
package pubsub

import (
	"context"
	"sync"
)

const defaultBuffer = 16

// Broker fans messages out to per-topic subscribers. Publish never blocks:
// a subscriber whose buffer is full misses the message.
type Broker[T any] struct {
	mu     sync.RWMutex
	topics map[string]map[int]chan T
	nextID int
	buffer int
	onDrop func(topic string)
}

type Option[T any] func(*Broker[T])

func WithBuffer[T any](n int) Option[T] {
	return func(b *Broker[T]) {
		if n > 0 {
			b.buffer = n
		}
	}
}

// WithDropHook is called for every message a slow subscriber misses.
func WithDropHook[T any](fn func(topic string)) Option[T] {
	return func(b *Broker[T]) { b.onDrop = fn }
}

func New[T any](opts ...Option[T]) *Broker[T] {
	b := &Broker[T]{topics: make(map[string]map[int]chan T), buffer: defaultBuffer}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe returns a channel that receives topic messages until ctx is done,
// at which point the channel is closed.
func (b *Broker[T]) Subscribe(ctx context.Context, topic string) <-chan T {
	ch := make(chan T, b.buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	subs, ok := b.topics[topic]
	if !ok {
		subs = make(map[int]chan T)
		b.topics[topic] = subs
	}
	subs[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		if subs, ok := b.topics[topic]; ok {
			delete(subs, id)
			if len(subs) == 0 {
				delete(b.topics, topic)
			}
		}
		close(ch)
	}()
	return ch
}

func (b *Broker[T]) Publish(topic string, msg T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.topics[topic] {
		select {
		case ch <- msg:
		default:
			if b.onDrop != nil {
				b.onDrop(topic)
			}
		}
	}
}

// Subscribers counts active subscriptions on topic.
func (b *Broker[T]) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}
