package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrokerDeliversToTopicSubscribers(t *testing.T) {
	b := New[string]()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	created := b.Subscribe(ctx, "created")
	deleted := b.Subscribe(ctx, "deleted")

	b.Publish("created", "book-9")

	select {
	case got := <-created:
		assert.Equal(t, "book-9", got)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
	select {
	case got := <-deleted:
		t.Fatalf("unexpected message on other topic: %v", got)
	default:
	}
}

func TestBrokerClosesOnCancel(t *testing.T) {
	b := New[int]()
	ctx, cancel := context.WithCancel(context.Background())
	ch := b.Subscribe(ctx, "t")
	require.Equal(t, 1, b.Subscribers("t"))

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}
	assert.Eventually(t, func() bool { return b.Subscribers("t") == 0 }, time.Second, 10*time.Millisecond)

	b.Publish("t", 1)
}

func TestBrokerDropsForSlowSubscribers(t *testing.T) {
	dropped := 0
	b := New(WithBuffer[int](1), WithDropHook[int](func(string) { dropped++ }))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := b.Subscribe(ctx, "t")

	b.Publish("t", 1)
	b.Publish("t", 2)

	assert.Equal(t, 1, <-ch)
	assert.Equal(t, 1, dropped)
}
