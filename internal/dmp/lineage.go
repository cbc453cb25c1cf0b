package dmp

import (
	"context"
	"fmt"
)

// Edge is one derivation link in a file's lineage: Child was produced
// from Parent.
type Edge struct {
	Child  string
	Parent string
}

// History returns the deduplicated set of derivation edges reachable
// from fileID via source_id links, scoped to one tenant. An unknown
// fileID yields an empty result. These ids can be fed back into
// GetByID to recover the metadata at each step of the derivation.
func (s *Service) History(ctx context.Context, userID, fileID string) ([]Edge, error) {
	return s.ancestry(ctx, userID, fileID)
}

// ancestry walks the lineage graph with an explicit stack instead of
// recursion. A well-formed catalog is a DAG, but the data is mutable
// store state, so the walk keeps a visited set to terminate on cycles
// and on diamonds reaching the same node twice. Edges are emitted in
// discovery order with set semantics: a diamond produces each edge
// exactly once.
func (s *Service) ancestry(ctx context.Context, userID, fileID string) ([]Edge, error) {
	edges := []Edge{}
	emitted := make(map[Edge]struct{})
	visited := make(map[string]struct{})
	stack := []string{fileID}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, done := visited[id]; done {
			continue
		}
		visited[id] = struct{}{}

		rec, err := s.store.FindOne(ctx, Filter{FieldID: id, FieldUserID: userID})
		if err != nil {
			return nil, fmt.Errorf("fetching lineage node %s: %w", id, err)
		}
		if rec == nil {
			// Unresolvable node: dead end, not an error. Covers both an
			// unknown root and an orphaned source_id left behind by a
			// failed register-then-link sequence.
			continue
		}

		for _, parent := range rec.SourceID {
			e := Edge{Child: id, Parent: parent}
			if _, dup := emitted[e]; !dup {
				emitted[e] = struct{}{}
				edges = append(edges, e)
			}
			stack = append(stack, parent)
		}
	}

	return edges, nil
}
