package storage

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leviettung200/ByteDefence/internal/config"
	"github.com/leviettung200/ByteDefence/internal/domain/books"
)

func TestOpenWithoutURLUsesSeededMemory(t *testing.T) {
	store, err := Open(context.Background(), config.DatabaseConfig{}, zerolog.Nop())
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, "memory", store.Kind())
	require.NoError(t, store.Ping(context.Background()))

	list, err := store.Books().ListBooks(context.Background(), books.BookQuery{})
	require.NoError(t, err)
	assert.Len(t, list, 4)
}

func TestOpenRejectsBadURL(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{URL: "://not-a-url"}, zerolog.Nop())
	assert.Error(t, err)
}
