// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ontology

import (
	"time"

	"github.com/google/uuid"
)

// RuleType classifies a condition→consequence rule.
type RuleType string

const (
	// RuleRedirect maps a keyword directly to a document/article
	// reference, bypassing expansion and retrieval-by-query.
	RuleRedirect RuleType = "redirect"

	// RuleConstraint expresses value ranges or mandatory conditions.
	// Constraints are stored for curation but play no role at query time.
	RuleConstraint RuleType = "constraint"

	// RuleInference means "when A is asked, also search B".
	RuleInference RuleType = "inference"

	// RuleSynonym adds a consequence term to the expansion set when the
	// condition appears in the query.
	RuleSynonym RuleType = "synonym"

	// RuleHierarchy widens a search to parent/child concepts.
	RuleHierarchy RuleType = "hierarchy"
)

var ruleTypeTable = map[RuleType]relationTypeInfo{
	RuleRedirect:   {"검색 리다이렉트", "특정 키워드 -> 특정 문서/조항으로 연결"},
	RuleConstraint: {"제약조건", "값 범위, 필수 조건 등"},
	RuleInference:  {"추론규칙", "A이면 B도 검색"},
	RuleSynonym:    {"동의어 확장", "검색어 확장"},
	RuleHierarchy:  {"계층 확장", "상위/하위 개념 포함 검색"},
}

// KoreanName returns the Korean display name for the rule type.
func (t RuleType) KoreanName() string {
	if info, ok := ruleTypeTable[t]; ok {
		return info.korean
	}
	return string(t)
}

// Description returns the short Korean description of the rule type.
func (t RuleType) Description() string {
	return ruleTypeTable[t].description
}

// Valid reports whether t is a member of the closed enumeration.
func (t RuleType) Valid() bool {
	_, ok := ruleTypeTable[t]
	return ok
}

// ParseRuleType converts a string to a RuleType, returning a
// *ValidationError for values outside the enumeration.
func ParseRuleType(s string) (RuleType, error) {
	t := RuleType(s)
	if !t.Valid() {
		return "", &ValidationError{Field: "rule_type", Value: s}
	}
	return t, nil
}

// Rule is an ordered condition→consequence pair. Among active rules of
// the same type, evaluation order is descending Priority; inactive
// rules are never evaluated.
type Rule struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Type        RuleType  `json:"rule_type"`
	Condition   string    `json:"condition"`
	Consequence string    `json:"consequence,omitempty"`
	Description string    `json:"description,omitempty"`
	Priority    int       `json:"priority"`
	Active      bool      `json:"active"`

	SourceDocumentID string `json:"source_document_id,omitempty"`
	SourceReference  string `json:"source_reference,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
