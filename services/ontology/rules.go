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
)

// WeightSynonymRule is the fixed weight a synonym rule's consequence
// receives in the expansion set, unless an earlier step already
// assigned the term a weight.
const WeightSynonymRule = 0.7

// RedirectResult describes a matched redirect rule: the reference text
// to retrieve with instead of the original query.
type RedirectResult struct {
	TargetReference string `json:"target_reference"`
	Description     string `json:"description,omitempty"`
	RuleName        string `json:"rule_name"`
}

// RuleEngine evaluates active rules against incoming queries. It is
// read-only and safe for concurrent use as long as rule mutation does
// not run concurrently (see package doc).
type RuleEngine struct {
	rules RuleStore
}

// NewRuleEngine creates a RuleEngine backed by the given store.
func NewRuleEngine(rules RuleStore) *RuleEngine {
	return &RuleEngine{rules: rules}
}

// MatchRedirect returns the first active redirect rule, in descending
// priority order, whose condition is a case-insensitive substring of
// the query. A nil result with nil error means no rule matched and the
// caller proceeds with normal expansion.
func (e *RuleEngine) MatchRedirect(ctx context.Context, query string) (*RedirectResult, error) {
	rules, err := e.rules.FindActiveRulesByType(ctx, RuleRedirect)
	if err != nil {
		return nil, fmt.Errorf("loading redirect rules: %w", err)
	}

	for _, rule := range rules {
		if matchesCondition(query, rule.Condition) {
			return &RedirectResult{
				TargetReference: rule.Consequence,
				Description:     rule.Description,
				RuleName:        rule.Name,
			}, nil
		}
	}
	return nil, nil
}

// ApplySynonymRules adds the consequence of every matching active
// synonym rule to the term set at WeightSynonymRule. Terms already
// present keep their earlier weight (first write wins).
func (e *RuleEngine) ApplySynonymRules(ctx context.Context, query string, terms *TermSet) error {
	rules, err := e.rules.FindActiveRulesByType(ctx, RuleSynonym)
	if err != nil {
		return fmt.Errorf("loading synonym rules: %w", err)
	}

	for _, rule := range rules {
		if matchesCondition(query, rule.Condition) && rule.Consequence != "" {
			terms.Add(rule.Consequence, WeightSynonymRule)
		}
	}
	return nil
}

// matchesCondition is simple case-insensitive keyword containment:
// the query contains the rule's condition text.
func matchesCondition(query, condition string) bool {
	if condition == "" {
		return false
	}
	return strings.Contains(strings.ToLower(query), strings.ToLower(condition))
}
