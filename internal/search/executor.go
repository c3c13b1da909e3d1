package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jgraeger/contentfeeds/internal/content"
)

var (
	// ErrNotFound indicates a lookup with zero hits.
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable wraps every failure of the document store.
	ErrStoreUnavailable = errors.New("document store unavailable")
)

// Store executes composed requests against the document index.
type Store interface {
	Search(ctx context.Context, req Request) ([]content.Document, error)
	// Get returns the document with the given id, or an error wrapping
	// ErrNotFound.
	Get(ctx context.Context, index, id string) (content.Document, error)
}

// Executor runs queries against a Store. It neither retries nor sets
// timeouts; both are left to the caller's context.
type Executor struct {
	store Store
}

func NewExecutor(store Store) *Executor {
	return &Executor{store: store}
}

// Execute composes q and returns the matching documents in descending
// sort order. Documents with equal sort values keep the store's order.
func (e *Executor) Execute(ctx context.Context, q Query) ([]content.Document, error) {
	req := Compose(q)
	zerolog.Ctx(ctx).Debug().
		Str("index", req.Index).
		Str("sort_field", req.SortField).
		Int("size", req.Size).
		Msg("executing search")

	docs, err := e.store.Search(ctx, req)
	if err != nil {
		return nil, storeError(fmt.Sprintf("searching index %s", req.Index), err)
	}
	if len(docs) > req.Size {
		docs = docs[:req.Size]
	}

	return docs, nil
}

// Get looks a single document up by id.
func (e *Executor) Get(ctx context.Context, index, id string) (content.Document, error) {
	doc, err := e.store.Get(ctx, index, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return content.Document{}, err
		}
		return content.Document{}, storeError(fmt.Sprintf("getting %s from index %s", id, index), err)
	}

	return doc, nil
}

func storeError(op string, err error) error {
	if errors.Is(err, ErrStoreUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
