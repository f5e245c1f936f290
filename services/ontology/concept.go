// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ontology models the domain ontology behind policy Q&A:
// concepts (terms, departments, roles, ...), typed weighted relations
// between them, and condition→consequence rules. It also implements the
// read-side algorithms built on those types: bounded-depth graph
// traversal, redirect/synonym rule evaluation, and weighted query
// expansion.
//
// All query-time operations are read-only; administrative writes go
// through Service and must not run concurrently with readers of the
// same concepts (the store provides whatever isolation it needs).
package ontology

import (
	"time"

	"github.com/google/uuid"
)

// ConceptType classifies a concept. The enumeration is closed; unknown
// strings are rejected by ParseConceptType.
type ConceptType string

const (
	ConceptTerm       ConceptType = "term"
	ConceptDepartment ConceptType = "department"
	ConceptRole       ConceptType = "role"
	ConceptProcess    ConceptType = "process"
	ConceptPolicy     ConceptType = "policy"
	ConceptRegulation ConceptType = "regulation"
	ConceptArticle    ConceptType = "article"
	ConceptForm       ConceptType = "form"
	ConceptSystem     ConceptType = "system"
)

// conceptTypeKorean maps each variant to its Korean display name. The
// corpus and its users are Korean; answers surface these labels.
var conceptTypeKorean = map[ConceptType]string{
	ConceptTerm:       "용어",
	ConceptDepartment: "부서",
	ConceptRole:       "직급/역할",
	ConceptProcess:    "프로세스",
	ConceptPolicy:     "정책",
	ConceptRegulation: "규정",
	ConceptArticle:    "조항",
	ConceptForm:       "양식",
	ConceptSystem:     "시스템",
}

// KoreanName returns the Korean display name for the concept type, or
// the raw value if the type is unknown.
func (t ConceptType) KoreanName() string {
	if name, ok := conceptTypeKorean[t]; ok {
		return name
	}
	return string(t)
}

// Valid reports whether t is a member of the closed enumeration.
func (t ConceptType) Valid() bool {
	_, ok := conceptTypeKorean[t]
	return ok
}

// ParseConceptType converts a string to a ConceptType, returning a
// *ValidationError for values outside the enumeration.
func ParseConceptType(s string) (ConceptType, error) {
	t := ConceptType(s)
	if !t.Valid() {
		return "", &ValidationError{Field: "concept_type", Value: s}
	}
	return t, nil
}

// Concept is a named domain entity in the ontology.
//
// Identity is the ID; Name is the primary lookup path but is not
// required to be unique. Synonyms and Abbreviations feed query
// expansion (see Expander).
type Concept struct {
	ID            uuid.UUID   `json:"id"`
	Name          string      `json:"name"`
	NameEN        string      `json:"name_en,omitempty"`
	Type          ConceptType `json:"concept_type"`
	Definition    string      `json:"definition,omitempty"`
	Synonyms      []string    `json:"synonyms,omitempty"`
	Abbreviations []string    `json:"abbreviations,omitempty"`

	// Provenance: where this concept was defined, if known.
	SourceDocumentID string `json:"source_document_id,omitempty"`
	SourceReference  string `json:"source_reference,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasSynonym reports whether term matches one of the concept's
// synonyms exactly.
func (c *Concept) HasSynonym(term string) bool {
	for _, s := range c.Synonyms {
		if s == term {
			return true
		}
	}
	return false
}

// HasAbbreviation reports whether term matches one of the concept's
// abbreviations exactly.
func (c *Concept) HasAbbreviation(term string) bool {
	for _, a := range c.Abbreviations {
		if a == term {
			return true
		}
	}
	return false
}
