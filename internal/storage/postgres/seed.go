package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/leviettung200/ByteDefence/internal/domain/books"
	"github.com/leviettung200/ByteDefence/internal/domain/orders"
)

// SeedIfEmpty loads the demo catalogue and orders into empty tables.
// Tables that already hold rows are left alone.
func (s *Store) SeedIfEmpty(ctx context.Context, now time.Time) error {
	empty, err := s.isEmpty(ctx, "authors")
	if err != nil {
		return err
	}
	if empty {
		if err := s.seedBooks(ctx, books.Seed(now)); err != nil {
			return err
		}
	}

	empty, err = s.isEmpty(ctx, "orders")
	if err != nil {
		return err
	}
	if empty {
		return s.seedOrders(ctx, orders.Seed(now))
	}
	return nil
}

func (s *Store) seedBooks(ctx context.Context, seed books.SeedData) error {
	for _, a := range seed.Authors {
		if err := s.books.CreateAuthor(ctx, a); err != nil {
			return fmt.Errorf("seed author %s: %w", a.ID, err)
		}
	}
	for _, b := range seed.Books {
		if err := s.books.CreateBook(ctx, b); err != nil {
			return fmt.Errorf("seed book %s: %w", b.ID, err)
		}
	}
	for _, rv := range seed.Reviews {
		if err := s.books.CreateReview(ctx, rv); err != nil {
			return fmt.Errorf("seed review %s: %w", rv.ID, err)
		}
	}
	return nil
}

func (s *Store) seedOrders(ctx context.Context, seed orders.SeedData) error {
	for _, u := range seed.Users {
		if err := s.orders.UpsertUser(ctx, u); err != nil {
			return fmt.Errorf("seed user %s: %w", u.ID, err)
		}
	}
	for _, o := range seed.Orders {
		if err := s.orders.CreateOrder(ctx, o); err != nil {
			return fmt.Errorf("seed order %s: %w", o.ID, err)
		}
	}
	return nil
}

func (s *Store) isEmpty(ctx context.Context, table string) (bool, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM `+table+`)`).Scan(&exists); err != nil {
		return false, fmt.Errorf("check %s: %w", table, err)
	}
	return !exists, nil
}
