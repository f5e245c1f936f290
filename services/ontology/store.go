// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ontology

import (
	"context"

	"github.com/google/uuid"
)

// ConceptStore is the persistence contract for concepts. Lookup
// predicates mirror the access paths the expansion engine needs:
// by id, by exact name, by synonym membership, by abbreviation
// membership.
//
// Implementations return ErrConceptNotFound (possibly wrapped) from
// GetConcept and FindConceptByName when nothing matches; the slice
// predicates return an empty slice instead.
type ConceptStore interface {
	SaveConcept(ctx context.Context, concept *Concept) error
	GetConcept(ctx context.Context, id uuid.UUID) (*Concept, error)
	FindConceptByName(ctx context.Context, name string) (*Concept, error)
	FindConceptsBySynonym(ctx context.Context, term string) ([]*Concept, error)
	FindConceptsByAbbreviation(ctx context.Context, term string) ([]*Concept, error)

	// DeleteConcept removes a concept. Implementations choose the
	// referential policy; the badger store rejects deletion with
	// ErrConceptInUse while relations still reference the concept.
	DeleteConcept(ctx context.Context, id uuid.UUID) error
}

// RelationStore is the persistence contract for relations. Relations
// returned by the source predicates preserve insertion order; graph
// traversal and expansion depend on that ordering being stable.
//
// SaveRelation upserts by Relation.ID: saving an id twice overwrites
// the stored relation and keeps its original insertion position.
type RelationStore interface {
	SaveRelation(ctx context.Context, relation *Relation) error
	FindRelationsBySource(ctx context.Context, sourceID uuid.UUID) ([]*Relation, error)
	FindRelationsByTypeAndSource(ctx context.Context, relType RelationType, sourceID uuid.UUID) ([]*Relation, error)
	DeleteRelation(ctx context.Context, id uuid.UUID) error
}

// RuleStore is the persistence contract for rules.
type RuleStore interface {
	SaveRule(ctx context.Context, rule *Rule) error
	GetRule(ctx context.Context, id uuid.UUID) (*Rule, error)

	// FindActiveRulesByType returns active rules of the given type in
	// descending priority order. Inactive rules are never returned.
	FindActiveRulesByType(ctx context.Context, ruleType RuleType) ([]*Rule, error)

	DeleteRule(ctx context.Context, id uuid.UUID) error
}

// Store aggregates the three ontology persistence contracts. The query
// path only reads; the administrative path (Service) also writes.
type Store interface {
	ConceptStore
	RelationStore
	RuleStore
}
