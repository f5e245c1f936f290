// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package rag orchestrates a policy question through redirect check,
// ontology query expansion, fused vector retrieval, and answer
// generation.
package rag

import (
	"github.com/go-playground/validator/v10"

	"github.com/AleutianAI/policyqna/services/ontology"
)

// ragValidate is the validator instance for rag datatypes.
var ragValidate = validator.New()

// QnaRequest is one question against the policy corpus.
type QnaRequest struct {
	Question string `json:"question" validate:"required,min=1,max=2000"`

	// TopK overrides the pipeline's configured result count when > 0.
	TopK int `json:"top_k" validate:"gte=0,lte=50"`
}

// Validate validates the request fields.
func (r *QnaRequest) Validate() error {
	return ragValidate.Struct(r)
}

// SourceInfo is one evidence source behind an answer.
type SourceInfo struct {
	DocumentTitle  string  `json:"document_title"`
	DocumentCode   string  `json:"document_code,omitempty"`
	SectionTitle   string  `json:"section_title,omitempty"`
	ArticleNumber  string  `json:"article_number,omitempty"`
	RelevanceScore float64 `json:"relevance_score"`

	// Snippet is the chunk content truncated for display.
	Snippet string `json:"snippet"`
}

// FullReference renders "title (code) article" with empty parts
// omitted.
func (s *SourceInfo) FullReference() string {
	ref := s.DocumentTitle
	if s.DocumentCode != "" {
		ref += " (" + s.DocumentCode + ")"
	}
	if s.ArticleNumber != "" {
		ref += " " + s.ArticleNumber
	}
	return ref
}

// TermInfo is a glossary entry surfaced alongside an answer.
type TermInfo struct {
	Term        string   `json:"term"`
	Definition  string   `json:"definition"`
	ConceptType string   `json:"concept_type,omitempty"`
	Synonyms    []string `json:"synonyms,omitempty"`
	Sources     []string `json:"sources,omitempty"`
}

// QnaResponse is the full answer package for one question.
type QnaResponse struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`

	Sources      []SourceInfo `json:"sources"`
	RelatedTerms []TermInfo   `json:"related_terms,omitempty"`

	// ExpandedTerms lists the weighted search terms used, in expansion
	// order. Empty on the redirect path.
	ExpandedTerms []string `json:"expanded_terms,omitempty"`

	// SearchScores maps chunk id to fused relevance score.
	SearchScores map[string]float64 `json:"search_scores,omitempty"`

	// RedirectInfo is set when a redirect rule short-circuited
	// expansion.
	RedirectInfo *ontology.RedirectResult `json:"redirect_info,omitempty"`
}
