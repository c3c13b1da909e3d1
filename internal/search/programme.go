package search

import (
	"context"
	"fmt"
)

// ProgrammeResolver maps programme acronyms to programme document ids.
type ProgrammeResolver struct {
	executor *Executor
	index    string
}

func NewProgrammeResolver(executor *Executor, programmeIndex string) *ProgrammeResolver {
	return &ProgrammeResolver{executor: executor, index: programmeIndex}
}

// ResolveID returns the id of the first programme whose acronym matches.
func (r *ProgrammeResolver) ResolveID(ctx context.Context, acronym string) (string, error) {
	docs, err := r.executor.Execute(ctx, Query{
		Index:     r.index,
		Filter:    Term{Field: AcronymField, Value: acronym},
		SortField: CreatedAtField,
		Size:      1,
	})
	if err != nil {
		return "", err
	}
	if len(docs) == 0 {
		return "", fmt.Errorf("%w: project acronym %s", ErrNotFound, acronym)
	}

	return docs[0].ID, nil
}

// ProgrammeFilter builds the programmeTag clause for news scoped to the
// programme with the given acronym.
func (r *ProgrammeResolver) ProgrammeFilter(ctx context.Context, acronym string) (Clause, error) {
	id, err := r.ResolveID(ctx, acronym)
	if err != nil {
		return nil, err
	}

	return Term{Field: ProgrammeField, Value: id}, nil
}
