// Package memory provides seeded, mutex-guarded in-process repositories.
// State is lost on restart.
package memory

import (
	"context"

	"github.com/leviettung200/ByteDefence/internal/domain/books"
	"github.com/leviettung200/ByteDefence/internal/domain/orders"
)

type Store struct {
	books  *BookRepository
	orders *OrderRepository
}

// NewStore returns a store holding the demo data for both APIs.
func NewStore() *Store {
	return &Store{books: NewSeededBookRepository(), orders: NewSeededOrderRepository()}
}

func (s *Store) Books() books.Repository {
	return s.books
}

func (s *Store) Orders() orders.Repository {
	return s.orders
}

func (s *Store) Ping(context.Context) error {
	return nil
}

func (s *Store) Kind() string {
	return "memory"
}

func (s *Store) Close() {}
