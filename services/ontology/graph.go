// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ontology

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// ConceptGraph is the result of a bounded-depth traversal: the root,
// every concept reached, and every relation walked, both in visit
// order.
type ConceptGraph struct {
	Root      *Concept
	Concepts  []*Concept
	Relations []*Relation
}

// Subgraph walks outgoing relations from the root concept, decrementing
// maxDepth by one per hop. A concept already visited is never
// re-expanded, so traversal terminates on cyclic graphs and self-loops.
// Traversal order is the insertion order of outgoing relations.
//
// Returns ErrConceptNotFound (wrapped) if the root does not exist.
func (s *Service) Subgraph(ctx context.Context, rootID uuid.UUID, maxDepth int) (*ConceptGraph, error) {
	root, err := s.store.GetConcept(ctx, rootID)
	if err != nil {
		return nil, fmt.Errorf("subgraph root %s: %w", rootID, err)
	}

	graph := &ConceptGraph{Root: root}
	visited := make(map[uuid.UUID]bool)
	if err := s.traverse(ctx, root, maxDepth, visited, graph); err != nil {
		return nil, err
	}
	return graph, nil
}

// traverse performs the depth-guarded DFS. The visited set is the
// cycle guard: depth < 0 or a seen concept stops recursion.
func (s *Service) traverse(ctx context.Context, concept *Concept, depth int, visited map[uuid.UUID]bool, graph *ConceptGraph) error {
	if depth < 0 || visited[concept.ID] {
		return nil
	}
	visited[concept.ID] = true
	graph.Concepts = append(graph.Concepts, concept)

	outgoing, err := s.store.FindRelationsBySource(ctx, concept.ID)
	if err != nil {
		return fmt.Errorf("outgoing relations of %s: %w", concept.ID, err)
	}
	for _, rel := range outgoing {
		graph.Relations = append(graph.Relations, rel)

		target, err := s.store.GetConcept(ctx, rel.TargetID)
		if err != nil {
			return fmt.Errorf("relation %s target %s: %w", rel.ID, rel.TargetID, err)
		}
		if err := s.traverse(ctx, target, depth-1, visited, graph); err != nil {
			return err
		}
	}
	return nil
}
