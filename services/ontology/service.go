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
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service is the administrative surface of the ontology: creating and
// deleting concepts, relations, and rules, plus read operations that
// combine several store lookups (Subgraph, TermDefinition).
type Service struct {
	store Store
}

// NewService creates a Service over the given store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Store exposes the underlying store, mainly so callers can hand the
// same backend to NewExpander and NewRuleEngine.
func (s *Service) Store() Store {
	return s.store
}

// CreateConcept validates and persists a concept. A zero ID is
// assigned; timestamps are set to now.
func (s *Service) CreateConcept(ctx context.Context, concept *Concept) error {
	if strings.TrimSpace(concept.Name) == "" {
		return &ValidationError{Field: "name", Value: concept.Name}
	}
	if !concept.Type.Valid() {
		return &ValidationError{Field: "concept_type", Value: string(concept.Type)}
	}

	if concept.ID == uuid.Nil {
		concept.ID = uuid.New()
	}
	now := time.Now().UTC()
	if concept.CreatedAt.IsZero() {
		concept.CreatedAt = now
	}
	concept.UpdatedAt = now

	if err := s.store.SaveConcept(ctx, concept); err != nil {
		return fmt.Errorf("saving concept %q: %w", concept.Name, err)
	}
	slog.Debug("concept created", "id", concept.ID, "name", concept.Name, "type", concept.Type)
	return nil
}

// CreateRelation validates and persists a relation. Both endpoints must
// already exist; a missing endpoint surfaces as ErrConceptNotFound.
// A zero Weight is replaced with DefaultRelationWeight.
func (s *Service) CreateRelation(ctx context.Context, relation *Relation) error {
	if !relation.Type.Valid() {
		return &ValidationError{Field: "relation_type", Value: string(relation.Type)}
	}
	if _, err := s.store.GetConcept(ctx, relation.SourceID); err != nil {
		return fmt.Errorf("relation source %s: %w", relation.SourceID, err)
	}
	if _, err := s.store.GetConcept(ctx, relation.TargetID); err != nil {
		return fmt.Errorf("relation target %s: %w", relation.TargetID, err)
	}

	if relation.ID == uuid.Nil {
		relation.ID = uuid.New()
	}
	if relation.Weight == 0 {
		relation.Weight = DefaultRelationWeight
	}
	if relation.CreatedAt.IsZero() {
		relation.CreatedAt = time.Now().UTC()
	}

	if err := s.store.SaveRelation(ctx, relation); err != nil {
		return fmt.Errorf("saving relation %s: %w", relation.ID, err)
	}
	slog.Debug("relation created",
		"id", relation.ID, "type", relation.Type,
		"source", relation.SourceID, "target", relation.TargetID)
	return nil
}

// CreateRule validates and persists a rule. Rules default to active.
func (s *Service) CreateRule(ctx context.Context, rule *Rule) error {
	if strings.TrimSpace(rule.Name) == "" {
		return &ValidationError{Field: "name", Value: rule.Name}
	}
	if !rule.Type.Valid() {
		return &ValidationError{Field: "rule_type", Value: string(rule.Type)}
	}
	if strings.TrimSpace(rule.Condition) == "" {
		return &ValidationError{Field: "condition", Value: rule.Condition}
	}

	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	now := time.Now().UTC()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
		rule.Active = true
	}
	rule.UpdatedAt = now

	if err := s.store.SaveRule(ctx, rule); err != nil {
		return fmt.Errorf("saving rule %q: %w", rule.Name, err)
	}
	slog.Debug("rule created", "id", rule.ID, "name", rule.Name, "type", rule.Type, "priority", rule.Priority)
	return nil
}

// DeleteConcept removes a concept. The store enforces the referential
// policy and returns ErrConceptInUse when relations still point at it.
func (s *Service) DeleteConcept(ctx context.Context, id uuid.UUID) error {
	return s.store.DeleteConcept(ctx, id)
}

// DeleteRelation removes a relation by id.
func (s *Service) DeleteRelation(ctx context.Context, id uuid.UUID) error {
	return s.store.DeleteRelation(ctx, id)
}

// DeleteRule removes a rule by id.
func (s *Service) DeleteRule(ctx context.Context, id uuid.UUID) error {
	return s.store.DeleteRule(ctx, id)
}

// TermDefinition is a curated glossary entry: a concept's stored
// definition plus the names of whatever it is defined_in.
type TermDefinition struct {
	Term       string   `json:"term"`
	Definition string   `json:"definition"`
	Sources    []string `json:"sources,omitempty"`
}

// TermDefinition looks up a concept by exact canonical name and builds
// its glossary entry. Returns ErrConceptNotFound (wrapped) when the
// term is unknown or has no stored definition.
func (s *Service) TermDefinition(ctx context.Context, name string) (*TermDefinition, error) {
	concept, err := s.store.FindConceptByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("term %q: %w", name, err)
	}
	if strings.TrimSpace(concept.Definition) == "" {
		return nil, fmt.Errorf("term %q has no definition: %w", name, ErrConceptNotFound)
	}

	def := &TermDefinition{Term: concept.Name, Definition: concept.Definition}
	definedIn, err := s.store.FindRelationsByTypeAndSource(ctx, RelationDefinedIn, concept.ID)
	if err != nil {
		return nil, fmt.Errorf("defined_in relations of %q: %w", name, err)
	}
	for _, rel := range definedIn {
		target, err := s.store.GetConcept(ctx, rel.TargetID)
		if err != nil {
			continue
		}
		def.Sources = append(def.Sources, target.Name)
	}
	if def.Sources == nil && concept.SourceReference != "" {
		def.Sources = []string{concept.SourceReference}
	}
	return def, nil
}
