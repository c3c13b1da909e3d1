// Package search composes the filtered, sorted and paginated queries run
// against the content index.
package search

import (
	"time"

	"github.com/jgraeger/contentfeeds/internal/content"
)

// DefaultPageSize is the number of documents returned when a query does
// not set a size.
const DefaultPageSize = 10

// Clause is one node of a query tree. Stores translate the tree into
// their own query language.
type Clause interface {
	clause()
}

// MatchAllClause matches every document.
type MatchAllClause struct{}

// Term matches documents whose field equals Value exactly.
type Term struct {
	Field string
	Value any
}

// Range matches documents whose field is greater than or equal to GTE.
// GTE is either a date-time literal or the date math expressions "now"
// and "now/d" (start of the current UTC day).
type Range struct {
	Field string
	GTE   string
}

// Wrapper is a pre-built query expression passed to the store verbatim.
type Wrapper struct {
	Query string
}

// Bool requires every Must and every Filter clause to match.
type Bool struct {
	Must   []Clause
	Filter []Clause
}

func (MatchAllClause) clause() {}
func (Term) clause()           {}
func (Range) clause()          {}
func (Wrapper) clause()        {}
func (Bool) clause()           {}

const (
	SearchableField = "searchable"
	StartField      = "start"
	CreatedAtField  = "createdAt"
	RegionField     = "gbifRegion"
	AcronymField    = "acronym"
	ProgrammeField  = "programmeTag"
)

var (
	MatchAll = MatchAllClause{}

	// Searchable restricts results to publish-ready documents. It is part
	// of every query.
	Searchable = Term{Field: SearchableField, Value: true}

	// UpcomingEvents matches events starting today or later.
	UpcomingEvents = Range{Field: StartField, GTE: "now/d"}
)

// Query describes one search against a single index.
type Query struct {
	Index string
	// Raw is an optional pre-built query expression. Empty means match all.
	Raw string
	// Filter is an optional structured constraint ANDed with the rest.
	Filter Clause
	// SortField is always sorted in descending order.
	SortField string
	Size      int
}

// SortOrder is fixed to descending in this domain, stores still receive
// it explicitly.
type SortOrder string

const SortDesc SortOrder = "desc"

// Request is the fully composed query a Store executes.
type Request struct {
	Index     string
	Query     Bool
	SortField string
	Order     SortOrder
	Size      int
}

// Compose builds the store request for q. The searchable predicate is
// always part of the filter.
func Compose(q Query) Request {
	var must Clause = MatchAll
	if q.Raw != "" {
		must = Wrapper{Query: q.Raw}
	}

	filter := []Clause{Searchable}
	if q.Filter != nil {
		filter = append(filter, q.Filter)
	}

	size := q.Size
	if size <= 0 {
		size = DefaultPageSize
	}

	return Request{
		Index:     q.Index,
		Query:     Bool{Must: []Clause{must}, Filter: filter},
		SortField: q.SortField,
		Order:     SortDesc,
		Size:      size,
	}
}

// ResolveDateMath evaluates the date math subset used by Range clauses.
// Anything else is parsed as a date-time literal.
func ResolveDateMath(expr string, now time.Time) (time.Time, error) {
	switch expr {
	case "now":
		return now, nil
	case "now/d":
		y, m, d := now.UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}

	return content.ParseDate(expr)
}
