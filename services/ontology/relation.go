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

// RelationType classifies a directed edge between two concepts. The
// types fall into five families: hierarchical, referential,
// sequential/process, organizational, and document.
type RelationType string

const (
	// Hierarchical
	RelationIsA     RelationType = "is_a"
	RelationPartOf  RelationType = "part_of"
	RelationHasPart RelationType = "has_part"

	// Referential
	RelationReferences RelationType = "references"
	RelationDefinedIn  RelationType = "defined_in"
	RelationAppliesTo  RelationType = "applies_to"

	// Sequential / process
	RelationPrecedes RelationType = "precedes"
	RelationFollows  RelationType = "follows"
	RelationRequires RelationType = "requires"

	// Organizational
	RelationBelongsTo RelationType = "belongs_to"
	RelationReportsTo RelationType = "reports_to"
	RelationApproves  RelationType = "approves"

	// Document
	RelationSupersedes RelationType = "supersedes"
	RelationRelatedTo  RelationType = "related_to"
)

// relationTypeInfo carries the display metadata attached to each
// relation type variant.
type relationTypeInfo struct {
	korean      string
	description string
}

var relationTypeTable = map[RelationType]relationTypeInfo{
	RelationIsA:        {"~의 일종", "상위 개념"},
	RelationPartOf:     {"~의 일부", "포함 관계"},
	RelationHasPart:    {"~을 포함", "구성 요소"},
	RelationReferences: {"참조", "다른 조항/문서 참조"},
	RelationDefinedIn:  {"정의됨", "용어 정의 위치"},
	RelationAppliesTo:  {"적용대상", "정책 적용 범위"},
	RelationPrecedes:   {"선행", "순서 관계"},
	RelationFollows:    {"후행", "순서 관계"},
	RelationRequires:   {"필요", "의존 관계"},
	RelationBelongsTo:  {"소속", "부서 소속"},
	RelationReportsTo:  {"보고", "보고 체계"},
	RelationApproves:   {"승인권한", "결재 관계"},
	RelationSupersedes: {"대체", "문서 버전"},
	RelationRelatedTo:  {"관련", "일반 관계"},
}

// KoreanName returns the Korean display name for the relation type.
func (t RelationType) KoreanName() string {
	if info, ok := relationTypeTable[t]; ok {
		return info.korean
	}
	return string(t)
}

// Description returns the short Korean description of the relation type.
func (t RelationType) Description() string {
	return relationTypeTable[t].description
}

// Valid reports whether t is a member of the closed enumeration.
func (t RelationType) Valid() bool {
	_, ok := relationTypeTable[t]
	return ok
}

// ParseRelationType converts a string to a RelationType, returning a
// *ValidationError for values outside the enumeration.
func ParseRelationType(s string) (RelationType, error) {
	t := RelationType(s)
	if !t.Valid() {
		return "", &ValidationError{Field: "relation_type", Value: s}
	}
	return t, nil
}

// ExpansionMultiplier returns the factor applied to a relation's stored
// weight when its target concept is pulled into a query expansion.
// Tight hierarchy beats loose reference, which beats everything else.
func (t RelationType) ExpansionMultiplier() float64 {
	switch t {
	case RelationIsA, RelationPartOf:
		return 0.8
	case RelationReferences, RelationRelatedTo:
		return 0.6
	default:
		return 0.5
	}
}

// DefaultRelationWeight is used when a relation is created without an
// explicit weight.
const DefaultRelationWeight = 1.0

// Relation is a directed, typed, weighted edge between two concepts.
// It holds non-owning references to its endpoints; both must exist
// when the relation is created.
type Relation struct {
	ID       uuid.UUID    `json:"id"`
	SourceID uuid.UUID    `json:"source_id"`
	TargetID uuid.UUID    `json:"target_id"`
	Type     RelationType `json:"relation_type"`
	Weight   float64      `json:"weight"`

	Description      string `json:"description,omitempty"`
	SourceDocumentID string `json:"source_document_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
