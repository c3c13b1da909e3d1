// Package postgres is a document store keeping sources as jsonb rows in
// the content_documents table.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jgraeger/contentfeeds/internal/content"
	"github.com/jgraeger/contentfeeds/internal/search"
)

var getDocumentQuery string = `
	SELECT id, source
	FROM content_documents
	WHERE index_name = $1 AND id = $2;`

type Store struct {
	pool *pgxpool.Pool
}

// Connect opens a connection pool for dsn.
func Connect(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Search(ctx context.Context, req search.Request) ([]content.Document, error) {
	query, args, err := BuildSearch(req)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying index %s: %w", req.Index, err)
	}
	defer rows.Close()

	var docs []content.Document
	for rows.Next() {
		var id string
		var source []byte
		if err := rows.Scan(&id, &source); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		doc, err := content.ParseSource(id, source)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

func (s *Store) Get(ctx context.Context, index, id string) (content.Document, error) {
	var docID string
	var source []byte
	err := s.pool.QueryRow(ctx, getDocumentQuery, index, id).Scan(&docID, &source)
	if errors.Is(err, pgx.ErrNoRows) {
		return content.Document{}, fmt.Errorf("%w: document %s in index %s", search.ErrNotFound, id, index)
	}
	if err != nil {
		return content.Document{}, fmt.Errorf("getting document %s: %w", id, err)
	}

	return content.ParseSource(docID, source)
}

// BuildSearch translates req into SQL. Field names and values are bind
// parameters; wrapper queries are SQL predicates inserted verbatim.
func BuildSearch(req search.Request) (string, []any, error) {
	b := &builder{}
	index := b.param(req.Index)
	where, err := b.clause(req.Query)
	if err != nil {
		return "", nil, err
	}
	sortField := b.param(req.SortField)
	order := "DESC"
	if req.Order != search.SortDesc {
		order = "ASC"
	}
	limit := b.param(req.Size)

	query := fmt.Sprintf(`
	SELECT id, source
	FROM content_documents
	WHERE index_name = %s AND %s
	ORDER BY source ->> %s %s NULLS LAST
	LIMIT %s;`, index, where, sortField, order, limit)

	return query, b.args, nil
}

type builder struct {
	args []any
}

func (b *builder) param(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *builder) clause(c search.Clause) (string, error) {
	switch c := c.(type) {
	case search.MatchAllClause:
		return "TRUE", nil
	case search.Term:
		field, value := b.param(c.Field), b.param(fmt.Sprint(c.Value))
		return fmt.Sprintf("(source ->> %s = %s OR source -> %s ? %s)", field, value, field, value), nil
	case search.Range:
		from := "date_trunc('day', now())"
		switch c.GTE {
		case "now/d":
		case "now":
			from = "now()"
		default:
			from = b.param(c.GTE) + "::timestamptz"
		}
		return fmt.Sprintf("(source ->> %s)::timestamptz >= %s", b.param(c.Field), from), nil
	case search.Wrapper:
		return "(" + c.Query + ")", nil
	case search.Bool:
		var parts []string
		for _, group := range [][]search.Clause{c.Must, c.Filter} {
			for _, child := range group {
				part, err := b.clause(child)
				if err != nil {
					return "", err
				}
				parts = append(parts, part)
			}
		}
		if len(parts) == 0 {
			return "TRUE", nil
		}
		return "(" + strings.Join(parts, " AND ") + ")", nil
	}

	return "", fmt.Errorf("unsupported clause %T", c)
}
