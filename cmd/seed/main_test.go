package main

import (
	"context"
	"math/rand"
	"testing"

	"bookshelf/internal/book"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeed_CreatesValidBooks(t *testing.T) {
	service := book.NewService(book.NewMemoryRepo(), nil)
	ctx := context.Background()

	n, err := seed(ctx, service, "seed-owner", 25, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, 25, n)

	stats, err := service.Stats(ctx, "seed-owner")
	require.NoError(t, err)
	assert.Equal(t, 25, stats.TotalCount)
	assert.LessOrEqual(t, len(stats.YearStats), 10)
}
