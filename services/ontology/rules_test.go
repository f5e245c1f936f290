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

func saveRule(t *testing.T, store *memStore, name string, ruleType RuleType, condition, consequence string, priority int, active bool) {
	t.Helper()
	require.NoError(t, store.SaveRule(context.Background(), &Rule{
		ID:          uuid.New(),
		Name:        name,
		Type:        ruleType,
		Condition:   condition,
		Consequence: consequence,
		Priority:    priority,
		Active:      active,
	}))
}

func TestMatchRedirectHighestPriorityWins(t *testing.T) {
	store := newMemStore()
	saveRule(t, store, "generic-leave", RuleRedirect, "휴가", "휴가규정", 1, true)
	saveRule(t, store, "annual-leave", RuleRedirect, "연차", "휴가규정 제5조", 10, true)

	engine := NewRuleEngine(store)
	res, err := engine.MatchRedirect(context.Background(), "연차 휴가 며칠인가요")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "휴가규정 제5조", res.TargetReference)
	assert.Equal(t, "annual-leave", res.RuleName)
}

func TestMatchRedirectCaseInsensitive(t *testing.T) {
	store := newMemStore()
	saveRule(t, store, "vpn", RuleRedirect, "VPN", "보안규정 제12조", 5, true)

	engine := NewRuleEngine(store)
	res, err := engine.MatchRedirect(context.Background(), "vpn 접속 방법 알려줘")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "보안규정 제12조", res.TargetReference)
}

func TestMatchRedirectNoMatch(t *testing.T) {
	store := newMemStore()
	saveRule(t, store, "annual-leave", RuleRedirect, "연차", "휴가규정 제5조", 10, true)

	engine := NewRuleEngine(store)
	res, err := engine.MatchRedirect(context.Background(), "법인카드 한도")
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestMatchRedirectIgnoresInactive(t *testing.T) {
	store := newMemStore()
	saveRule(t, store, "old-rule", RuleRedirect, "연차", "구 휴가규정", 100, false)
	saveRule(t, store, "new-rule", RuleRedirect, "연차", "휴가규정 제5조", 1, true)

	engine := NewRuleEngine(store)
	res, err := engine.MatchRedirect(context.Background(), "연차 문의")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "new-rule", res.RuleName)
}

func TestApplySynonymRules(t *testing.T) {
	store := newMemStore()
	saveRule(t, store, "welfare", RuleSynonym, "복지", "복리후생", 1, true)
	saveRule(t, store, "unrelated", RuleSynonym, "출장", "여비규정", 1, true)
	saveRule(t, store, "empty-consequence", RuleSynonym, "복지", "", 1, true)

	engine := NewRuleEngine(store)
	terms := NewTermSet()
	terms.Add("복지 제도", WeightOriginal)

	require.NoError(t, engine.ApplySynonymRules(context.Background(), "복지 제도", terms))

	got := terms.Terms()
	require.Len(t, got, 2)
	assert.Equal(t, WeightedTerm{Term: "복리후생", Weight: WeightSynonymRule}, got[1])
}

func TestApplySynonymRulesKeepsExistingWeight(t *testing.T) {
	store := newMemStore()
	saveRule(t, store, "welfare", RuleSynonym, "복지", "복리후생", 1, true)

	engine := NewRuleEngine(store)
	terms := NewTermSet()
	terms.Add("복리후생", 0.9)

	require.NoError(t, engine.ApplySynonymRules(context.Background(), "복지 문의", terms))
	got := terms.Terms()
	require.Len(t, got, 1)
	assert.Equal(t, 0.9, got[0].Weight)
}
