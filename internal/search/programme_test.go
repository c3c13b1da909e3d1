package search_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jgraeger/contentfeeds/internal/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveID(t *testing.T) {
	store := newsStore(t)
	resolver := search.NewProgrammeResolver(search.NewExecutor(store), "programme")
	ctx := context.Background()

	id, err := resolver.ResolveID(ctx, "BID")
	require.NoError(t, err)
	assert.Equal(t, "p1", id)

	_, err = resolver.ResolveID(ctx, "ABC")
	assert.ErrorIs(t, err, search.ErrNotFound)
	assert.Contains(t, err.Error(), "ABC")
	assert.EqualValues(t, 2, store.Searches("programme"))
}

func TestProgrammeFilter(t *testing.T) {
	resolver := search.NewProgrammeResolver(search.NewExecutor(newsStore(t)), "programme")

	filter, err := resolver.ProgrammeFilter(context.Background(), "BID")
	require.NoError(t, err)
	assert.Equal(t, search.Term{Field: search.ProgrammeField, Value: "p1"}, filter)
}

func TestResolveIDQuery(t *testing.T) {
	store := &recordingStore{err: errors.New("timeout")}
	resolver := search.NewProgrammeResolver(search.NewExecutor(store), "programme")

	_, err := resolver.ResolveID(context.Background(), "BID")
	assert.ErrorIs(t, err, search.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, search.ErrNotFound)

	require.Len(t, store.requests, 1)
	req := store.requests[0]
	assert.Equal(t, "programme", req.Index)
	assert.Equal(t, 1, req.Size)
	assert.Contains(t, req.Query.Filter, search.Clause(search.Term{Field: search.AcronymField, Value: "BID"}))
}
