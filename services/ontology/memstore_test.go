// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ontology

import (
	"context"
	"sort"

	"github.com/google/uuid"
)

// memStore is a map-backed Store for tests. Relations keep insertion
// order; rules are returned in descending priority.
type memStore struct {
	concepts  map[uuid.UUID]*Concept
	relations []*Relation
	rules     []*Rule
}

func newMemStore() *memStore {
	return &memStore{concepts: make(map[uuid.UUID]*Concept)}
}

func (m *memStore) SaveConcept(_ context.Context, c *Concept) error {
	m.concepts[c.ID] = c
	return nil
}

func (m *memStore) GetConcept(_ context.Context, id uuid.UUID) (*Concept, error) {
	c, ok := m.concepts[id]
	if !ok {
		return nil, ErrConceptNotFound
	}
	return c, nil
}

func (m *memStore) FindConceptByName(_ context.Context, name string) (*Concept, error) {
	for _, c := range m.concepts {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, ErrConceptNotFound
}

func (m *memStore) FindConceptsBySynonym(_ context.Context, term string) ([]*Concept, error) {
	var out []*Concept
	for _, c := range m.concepts {
		if c.HasSynonym(term) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) FindConceptsByAbbreviation(_ context.Context, term string) ([]*Concept, error) {
	var out []*Concept
	for _, c := range m.concepts {
		if c.HasAbbreviation(term) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) DeleteConcept(_ context.Context, id uuid.UUID) error {
	if _, ok := m.concepts[id]; !ok {
		return ErrConceptNotFound
	}
	for _, r := range m.relations {
		if r.SourceID == id || r.TargetID == id {
			return ErrConceptInUse
		}
	}
	delete(m.concepts, id)
	return nil
}

func (m *memStore) SaveRelation(_ context.Context, r *Relation) error {
	for i, existing := range m.relations {
		if existing.ID == r.ID {
			m.relations[i] = r
			return nil
		}
	}
	m.relations = append(m.relations, r)
	return nil
}

func (m *memStore) FindRelationsBySource(_ context.Context, sourceID uuid.UUID) ([]*Relation, error) {
	var out []*Relation
	for _, r := range m.relations {
		if r.SourceID == sourceID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) FindRelationsByTypeAndSource(_ context.Context, relType RelationType, sourceID uuid.UUID) ([]*Relation, error) {
	var out []*Relation
	for _, r := range m.relations {
		if r.SourceID == sourceID && r.Type == relType {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) DeleteRelation(_ context.Context, id uuid.UUID) error {
	for i, r := range m.relations {
		if r.ID == id {
			m.relations = append(m.relations[:i], m.relations[i+1:]...)
			return nil
		}
	}
	return ErrRelationNotFound
}

func (m *memStore) SaveRule(_ context.Context, r *Rule) error {
	for i, existing := range m.rules {
		if existing.ID == r.ID {
			m.rules[i] = r
			return nil
		}
	}
	m.rules = append(m.rules, r)
	return nil
}

func (m *memStore) GetRule(_ context.Context, id uuid.UUID) (*Rule, error) {
	for _, r := range m.rules {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, ErrRuleNotFound
}

func (m *memStore) FindActiveRulesByType(_ context.Context, ruleType RuleType) ([]*Rule, error) {
	var out []*Rule
	for _, r := range m.rules {
		if r.Active && r.Type == ruleType {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out, nil
}

func (m *memStore) DeleteRule(_ context.Context, id uuid.UUID) error {
	for i, r := range m.rules {
		if r.ID == id {
			m.rules = append(m.rules[:i], m.rules[i+1:]...)
			return nil
		}
	}
	return ErrRuleNotFound
}
