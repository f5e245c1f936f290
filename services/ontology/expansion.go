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
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Expansion weights. First write wins: once a term enters the set, a
// later step cannot change its weight.
const (
	// WeightOriginal is the weight of the query itself.
	WeightOriginal = 1.0

	// WeightSynonym is the weight of a synonym of an exactly-matched
	// concept.
	WeightSynonym = 0.8

	// WeightAbbreviation is the weight of an abbreviation of an
	// exactly-matched concept.
	WeightAbbreviation = 0.7

	// WeightConceptName is the weight of a concept's canonical name when
	// the query matched it through its synonym or abbreviation table
	// rather than exactly.
	WeightConceptName = 0.9
)

// WeightedTerm is one search term with its retrieval weight.
type WeightedTerm struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

// TermSet is an insertion-ordered set of weighted terms with
// first-write-wins semantics. The zero value is not usable; call
// NewTermSet.
type TermSet struct {
	order   []string
	weights map[string]float64
}

// NewTermSet returns an empty term set.
func NewTermSet() *TermSet {
	return &TermSet{weights: make(map[string]float64)}
}

// Add inserts the term at the given weight unless it is already
// present. Empty and whitespace-only terms are ignored.
func (s *TermSet) Add(term string, weight float64) {
	term = strings.TrimSpace(term)
	if term == "" {
		return
	}
	if _, ok := s.weights[term]; ok {
		return
	}
	s.weights[term] = weight
	s.order = append(s.order, term)
}

// Contains reports whether the term is already in the set.
func (s *TermSet) Contains(term string) bool {
	_, ok := s.weights[strings.TrimSpace(term)]
	return ok
}

// Len returns the number of terms in the set.
func (s *TermSet) Len() int {
	return len(s.order)
}

// Terms returns the weighted terms in insertion order.
func (s *TermSet) Terms() []WeightedTerm {
	out := make([]WeightedTerm, 0, len(s.order))
	for _, t := range s.order {
		out = append(out, WeightedTerm{Term: t, Weight: s.weights[t]})
	}
	return out
}

// Expansion is the result of expanding a query against the ontology:
// the ordered weighted terms and the concepts that contributed them.
type Expansion struct {
	OriginalQuery   string         `json:"original_query"`
	Terms           []WeightedTerm `json:"terms"`
	MatchedConcepts []*Concept     `json:"matched_concepts,omitempty"`
}

// Expander turns a user query into a weighted term set using the
// concept tables (names, synonyms, abbreviations), synonym rules, and
// one hop of outgoing relations from each matched concept.
type Expander struct {
	store Store
	rules *RuleEngine
}

// NewExpander creates an Expander over the given store.
func NewExpander(store Store, rules *RuleEngine) *Expander {
	return &Expander{store: store, rules: rules}
}

var expansionTracer = otel.Tracer("policyqna/ontology/expansion")

// Expand produces the weighted term set for a query. Steps run in a
// fixed order so that first-write-wins resolves weight conflicts
// deterministically:
//
//  1. the query itself at 1.0
//  2. exact concept-name match: synonyms at 0.8, abbreviations at 0.7
//  3. synonym-table match: the concept's canonical name at 0.9
//  4. abbreviation-table match: same as step 3
//  5. active synonym rules at 0.7
//  6. outgoing relations of every matched concept: target name at
//     relation weight times the relation type's multiplier
func (e *Expander) Expand(ctx context.Context, query string) (*Expansion, error) {
	ctx, span := expansionTracer.Start(ctx, "ontology.Expand")
	defer span.End()

	query = strings.TrimSpace(query)
	terms := NewTermSet()
	terms.Add(query, WeightOriginal)

	matched := make([]*Concept, 0, 4)
	seen := make(map[uuid.UUID]bool)
	collect := func(c *Concept) {
		if !seen[c.ID] {
			seen[c.ID] = true
			matched = append(matched, c)
		}
	}

	// Step 2: exact canonical-name match.
	if concept, err := e.store.FindConceptByName(ctx, query); err == nil {
		collect(concept)
		addConceptFanout(terms, concept)
	} else if !isNotFound(err) {
		return nil, fmt.Errorf("concept lookup %q: %w", query, err)
	}

	// Steps 3 and 4: reverse lookups through the synonym and
	// abbreviation tables. Only the canonical name comes in, at 0.9;
	// sibling synonyms and abbreviations do not fan out here.
	bySynonym, err := e.store.FindConceptsBySynonym(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("synonym lookup %q: %w", query, err)
	}
	for _, concept := range bySynonym {
		collect(concept)
		terms.Add(concept.Name, WeightConceptName)
	}

	byAbbrev, err := e.store.FindConceptsByAbbreviation(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("abbreviation lookup %q: %w", query, err)
	}
	for _, concept := range byAbbrev {
		collect(concept)
		terms.Add(concept.Name, WeightConceptName)
	}

	// Step 5: synonym rules.
	if e.rules != nil {
		if err := e.rules.ApplySynonymRules(ctx, query, terms); err != nil {
			return nil, err
		}
	}

	// Step 6: one hop of outgoing relations per matched concept.
	for _, concept := range matched {
		if err := e.addRelatedTerms(ctx, concept, terms); err != nil {
			return nil, err
		}
	}

	span.SetAttributes(
		attribute.Int("expansion.terms", terms.Len()),
		attribute.Int("expansion.matched_concepts", len(matched)),
	)
	return &Expansion{
		OriginalQuery:   query,
		Terms:           terms.Terms(),
		MatchedConcepts: matched,
	}, nil
}

// addConceptFanout inserts a concept's synonyms and abbreviations at
// their fixed weights.
func addConceptFanout(terms *TermSet, concept *Concept) {
	for _, syn := range concept.Synonyms {
		terms.Add(syn, WeightSynonym)
	}
	for _, abbr := range concept.Abbreviations {
		terms.Add(abbr, WeightAbbreviation)
	}
}

// addRelatedTerms inserts the canonical names of relation targets,
// weighted by the relation's own weight scaled by the type multiplier.
func (e *Expander) addRelatedTerms(ctx context.Context, concept *Concept, terms *TermSet) error {
	relations, err := e.store.FindRelationsBySource(ctx, concept.ID)
	if err != nil {
		return fmt.Errorf("outgoing relations of %s: %w", concept.ID, err)
	}
	for _, rel := range relations {
		target, err := e.store.GetConcept(ctx, rel.TargetID)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return fmt.Errorf("relation %s target: %w", rel.ID, err)
		}
		terms.Add(target.Name, rel.Weight*rel.Type.ExpansionMultiplier())
	}
	return nil
}
