package bookstore

import (
	"context"

	"github.com/leviettung200/ByteDefence/internal/domain/books"
	"github.com/leviettung200/ByteDefence/internal/metrics"
)

func (r *Resolver) OnBookCreated(ctx context.Context) <-chan *bookResolver {
	return forward(ctx, r.svc, books.TopicBookCreated, func(e books.Event) (*bookResolver, bool) {
		if e.Book == nil {
			return nil, false
		}
		return &bookResolver{r: r, b: *e.Book}, true
	})
}

func (r *Resolver) OnBookUpdated(ctx context.Context) <-chan *bookResolver {
	return forward(ctx, r.svc, books.TopicBookUpdated, func(e books.Event) (*bookResolver, bool) {
		if e.Book == nil {
			return nil, false
		}
		return &bookResolver{r: r, b: *e.Book}, true
	})
}

func (r *Resolver) OnBookDeleted(ctx context.Context) <-chan string {
	return forward(ctx, r.svc, books.TopicBookDeleted, func(e books.Event) (string, bool) {
		return e.BookID, e.BookID != ""
	})
}

func (r *Resolver) OnReviewAdded(ctx context.Context) <-chan *reviewResolver {
	return forward(ctx, r.svc, books.TopicReviewAdded, func(e books.Event) (*reviewResolver, bool) {
		if e.Review == nil {
			return nil, false
		}
		return &reviewResolver{r: r, v: *e.Review}, true
	})
}

// forward converts broker events for one topic until ctx ends.
func forward[T any](ctx context.Context, svc *books.Service, topic string, convert func(books.Event) (T, bool)) <-chan T {
	events := svc.Events().Subscribe(ctx, topic)
	out := make(chan T)
	gauge := metrics.GraphQLSubscriptionsActive.WithLabelValues(topic)
	gauge.Inc()
	go func() {
		defer close(out)
		defer gauge.Dec()
		for e := range events {
			v, ok := convert(e)
			if !ok {
				continue
			}
			select {
			case out <- v:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
