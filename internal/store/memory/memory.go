// Package memory is an in-process document store backed by a fixture
// file. It evaluates query clauses in Go and is used for local runs and
// tests.
package memory

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/atomic"

	"github.com/jgraeger/contentfeeds/internal/content"
	"github.com/jgraeger/contentfeeds/internal/search"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Store holds immutable per-index document lists. It is safe for
// concurrent use.
type Store struct {
	indexes  map[string][]content.Document
	searches map[string]*atomic.Int64
	now      func() time.Time
}

type Option func(*Store)

// WithClock sets the clock used to evaluate date math.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a store over the given documents, keyed by index name.
// Document order within an index breaks sort ties.
func New(indexes map[string][]content.Document, opts ...Option) *Store {
	s := &Store{
		indexes:  make(map[string][]content.Document, len(indexes)),
		searches: make(map[string]*atomic.Int64, len(indexes)),
		now:      time.Now,
	}
	for name, docs := range indexes {
		s.indexes[name] = append([]content.Document(nil), docs...)
		s.searches[name] = atomic.NewInt64(0)
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

type fixtureDocument struct {
	ID     string         `json:"id"`
	Source map[string]any `json:"source"`
}

// Parse reads a fixture of the form {"<index>": [{"id": ..., "source": {...}}]}.
func Parse(data []byte, opts ...Option) (*Store, error) {
	var fixture map[string][]fixtureDocument
	if err := json.Unmarshal(data, &fixture); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}

	indexes := make(map[string][]content.Document, len(fixture))
	for index, raw := range fixture {
		docs := make([]content.Document, 0, len(raw))
		for _, r := range raw {
			doc, err := content.NewDocument(r.ID, r.Source)
			if err != nil {
				return nil, fmt.Errorf("index %s: %w", index, err)
			}
			docs = append(docs, doc)
		}
		indexes[index] = docs
	}

	return New(indexes, opts...), nil
}

// Load reads a fixture file, see Parse.
func Load(path string, opts ...Option) (*Store, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return Parse(b, opts...)
}

// Searches returns how many searches ran against index.
func (s *Store) Searches(index string) int64 {
	counter, ok := s.searches[index]
	if !ok {
		return 0
	}
	return counter.Load()
}

func (s *Store) Search(ctx context.Context, req search.Request) ([]content.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	docs, ok := s.indexes[req.Index]
	if !ok {
		return nil, fmt.Errorf("index %s does not exist", req.Index)
	}
	s.searches[req.Index].Inc()

	now := s.now()
	var hits []content.Document
	for _, doc := range docs {
		ok, err := matches(doc, req.Query, now)
		if err != nil {
			return nil, err
		}
		if ok {
			hits = append(hits, doc)
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return compareField(hits[i], hits[j], req.SortField) > 0
	})
	if len(hits) > req.Size {
		hits = hits[:req.Size]
	}

	return hits, nil
}

func (s *Store) Get(ctx context.Context, index, id string) (content.Document, error) {
	if err := ctx.Err(); err != nil {
		return content.Document{}, err
	}

	docs, ok := s.indexes[index]
	if !ok {
		return content.Document{}, fmt.Errorf("index %s does not exist", index)
	}
	for _, doc := range docs {
		if doc.ID == id {
			return doc, nil
		}
	}

	return content.Document{}, fmt.Errorf("%w: document %s in index %s", search.ErrNotFound, id, index)
}

func matches(doc content.Document, c search.Clause, now time.Time) (bool, error) {
	switch c := c.(type) {
	case search.MatchAllClause:
		return true, nil
	case search.Term:
		return termMatches(doc.Field(c.Field), c.Value), nil
	case search.Range:
		from, err := search.ResolveDateMath(c.GTE, now)
		if err != nil {
			return false, fmt.Errorf("range on %s: %w", c.Field, err)
		}
		t, ok, err := content.DateField(doc, c.Field)
		if err != nil || !ok {
			return false, nil
		}
		return !t.Before(from), nil
	case search.Bool:
		for _, group := range [][]search.Clause{c.Must, c.Filter} {
			for _, child := range group {
				ok, err := matches(doc, child, now)
				if err != nil || !ok {
					return false, err
				}
			}
		}
		return true, nil
	case search.Wrapper:
		return false, fmt.Errorf("wrapper queries are not supported by the memory store")
	}

	return false, fmt.Errorf("unsupported clause %T", c)
}

// termMatches compares a scalar exactly. A list matches when any of its
// items does.
func termMatches(v content.Value, want any) bool {
	if v.Kind() == content.KindList {
		for _, item := range v.Items() {
			if termMatches(item, want) {
				return true
			}
		}
		return false
	}

	switch w := want.(type) {
	case string:
		s, ok := v.Str()
		return ok && s == w
	case bool:
		b, ok := v.Boolean()
		return ok && b == w
	case int:
		f, ok := v.Float()
		return ok && f == float64(w)
	case float64:
		f, ok := v.Float()
		return ok && f == w
	}

	return false
}

// compareField orders a against b on field. Missing values sort last in
// descending order.
func compareField(a, b content.Document, field string) int {
	av, bv := a.Field(field), b.Field(field)
	switch {
	case !av.IsPresent() && !bv.IsPresent():
		return 0
	case !av.IsPresent():
		return -1
	case !bv.IsPresent():
		return 1
	}

	at, aok, aerr := content.DateField(a, field)
	bt, bok, berr := content.DateField(b, field)
	if aok && bok && aerr == nil && berr == nil {
		return at.Compare(bt)
	}

	if af, ok := av.Float(); ok {
		if bf, ok := bv.Float(); ok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			}
			return 0
		}
	}

	as, _ := av.Str()
	bs, _ := bv.Str()
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	}
	return 0
}
