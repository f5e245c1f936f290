// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ontology

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weightOf(exp *Expansion, term string) (float64, bool) {
	for _, wt := range exp.Terms {
		if wt.Term == term {
			return wt.Weight, true
		}
	}
	return 0, false
}

func TestExpandOriginalQueryAlwaysFirst(t *testing.T) {
	e := NewExpander(newMemStore(), nil)

	exp, err := e.Expand(context.Background(), "출장비 정산")
	require.NoError(t, err)
	require.NotEmpty(t, exp.Terms)
	assert.Equal(t, "출장비 정산", exp.Terms[0].Term)
	assert.Equal(t, WeightOriginal, exp.Terms[0].Weight)
	assert.Empty(t, exp.MatchedConcepts)
}

func TestExpandExactNameMatch(t *testing.T) {
	store := newMemStore()
	c := &Concept{
		ID:            uuid.New(),
		Name:          "연차휴가",
		Type:          ConceptTerm,
		Synonyms:      []string{"연차", "연가"},
		Abbreviations: []string{"AL"},
	}
	require.NoError(t, store.SaveConcept(context.Background(), c))

	e := NewExpander(store, nil)
	exp, err := e.Expand(context.Background(), "연차휴가")
	require.NoError(t, err)

	w, ok := weightOf(exp, "연차")
	require.True(t, ok)
	assert.Equal(t, WeightSynonym, w)

	w, ok = weightOf(exp, "연가")
	require.True(t, ok)
	assert.Equal(t, WeightSynonym, w)

	w, ok = weightOf(exp, "AL")
	require.True(t, ok)
	assert.Equal(t, WeightAbbreviation, w)

	require.Len(t, exp.MatchedConcepts, 1)
	assert.Equal(t, c.ID, exp.MatchedConcepts[0].ID)
}

func TestExpandSynonymTableAddsCanonicalName(t *testing.T) {
	store := newMemStore()
	c := &Concept{
		ID:       uuid.New(),
		Name:     "인사팀",
		Type:     ConceptDepartment,
		Synonyms: []string{"인사부", "HR팀"},
	}
	require.NoError(t, store.SaveConcept(context.Background(), c))

	e := NewExpander(store, nil)
	exp, err := e.Expand(context.Background(), "인사부")
	require.NoError(t, err)

	w, ok := weightOf(exp, "인사팀")
	require.True(t, ok)
	assert.Equal(t, WeightConceptName, w)

	// The querying synonym itself is already in at 1.0, not 0.8.
	w, _ = weightOf(exp, "인사부")
	assert.Equal(t, WeightOriginal, w)

	// A table match contributes only the canonical name; sibling
	// synonyms stay out of the term set.
	_, ok = weightOf(exp, "HR팀")
	assert.False(t, ok)
}

func TestExpandAbbreviationTableAddsCanonicalName(t *testing.T) {
	store := newMemStore()
	c := &Concept{
		ID:            uuid.New(),
		Name:          "인적자원관리",
		Type:          ConceptProcess,
		Abbreviations: []string{"HRM"},
	}
	require.NoError(t, store.SaveConcept(context.Background(), c))

	e := NewExpander(store, nil)
	exp, err := e.Expand(context.Background(), "HRM")
	require.NoError(t, err)

	w, ok := weightOf(exp, "인적자원관리")
	require.True(t, ok)
	assert.Equal(t, WeightConceptName, w)
}

// A term reachable both as a concept synonym (0.8) and through a
// synonym rule (0.7) keeps the concept-table weight: the concept steps
// run first and the first write wins.
func TestExpandFirstWriteWinsAcrossSteps(t *testing.T) {
	store := newMemStore()
	c := &Concept{
		ID:       uuid.New(),
		Name:     "HR",
		Type:     ConceptDepartment,
		Synonyms: []string{"인사"},
	}
	require.NoError(t, store.SaveConcept(context.Background(), c))
	require.NoError(t, store.SaveRule(context.Background(), &Rule{
		ID:          uuid.New(),
		Name:        "hr-synonym",
		Type:        RuleSynonym,
		Condition:   "HR",
		Consequence: "인사",
		Active:      true,
	}))

	e := NewExpander(store, NewRuleEngine(store))
	exp, err := e.Expand(context.Background(), "HR")
	require.NoError(t, err)

	w, ok := weightOf(exp, "인사")
	require.True(t, ok)
	assert.Equal(t, WeightSynonym, w, "concept-table weight must not be overwritten by the rule")
}

func TestExpandRelatedConceptWeights(t *testing.T) {
	store := newMemStore()
	src := &Concept{ID: uuid.New(), Name: "연차휴가", Type: ConceptTerm}
	parent := &Concept{ID: uuid.New(), Name: "휴가", Type: ConceptTerm}
	ref := &Concept{ID: uuid.New(), Name: "근태관리", Type: ConceptProcess}
	other := &Concept{ID: uuid.New(), Name: "인사팀", Type: ConceptDepartment}
	for _, c := range []*Concept{src, parent, ref, other} {
		require.NoError(t, store.SaveConcept(context.Background(), c))
	}

	save := func(target *Concept, relType RelationType, weight float64) {
		require.NoError(t, store.SaveRelation(context.Background(), &Relation{
			ID: uuid.New(), SourceID: src.ID, TargetID: target.ID,
			Type: relType, Weight: weight,
		}))
	}
	save(parent, RelationIsA, 1.0)
	save(ref, RelationReferences, 1.0)
	save(other, RelationBelongsTo, 0.5)

	e := NewExpander(store, nil)
	exp, err := e.Expand(context.Background(), "연차휴가")
	require.NoError(t, err)

	w, ok := weightOf(exp, "휴가")
	require.True(t, ok)
	assert.InDelta(t, 0.8, w, 1e-9)

	w, ok = weightOf(exp, "근태관리")
	require.True(t, ok)
	assert.InDelta(t, 0.6, w, 1e-9)

	w, ok = weightOf(exp, "인사팀")
	require.True(t, ok)
	assert.InDelta(t, 0.25, w, 1e-9)
}

func TestExpandDedupesMatchedConcepts(t *testing.T) {
	store := newMemStore()
	// Matches by exact name AND carries the query as a synonym: must
	// appear once in MatchedConcepts.
	c := &Concept{
		ID:       uuid.New(),
		Name:     "복리후생",
		Type:     ConceptPolicy,
		Synonyms: []string{"복리후생"},
	}
	require.NoError(t, store.SaveConcept(context.Background(), c))

	e := NewExpander(store, nil)
	exp, err := e.Expand(context.Background(), "복리후생")
	require.NoError(t, err)
	assert.Len(t, exp.MatchedConcepts, 1)
}

func TestTermSetFirstWriteWins(t *testing.T) {
	s := NewTermSet()
	s.Add("연차", 0.8)
	s.Add("연차", 0.3)
	s.Add("  ", 1.0)
	s.Add("", 1.0)

	require.Equal(t, 1, s.Len())
	assert.Equal(t, []WeightedTerm{{Term: "연차", Weight: 0.8}}, s.Terms())
	assert.True(t, s.Contains("연차"))
	assert.False(t, s.Contains("휴가"))
}
