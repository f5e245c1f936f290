// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package document owns the ingestion side of the pipeline: policy
// document records, structural chunking of extracted text, and the
// lifecycle operations (upload, reindex, delete) that keep the vector
// index consistent with the document store.
package document

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DocumentType is the domain category of a policy document.
type DocumentType string

const (
	TypePolicy     DocumentType = "policy"
	TypeRegulation DocumentType = "regulation"
	TypeManual     DocumentType = "manual"
	TypeGuideline  DocumentType = "guideline"
	TypeProcedure  DocumentType = "procedure"
	TypeTemplate   DocumentType = "template"
)

var documentTypeKorean = map[DocumentType]string{
	TypePolicy:     "정책",
	TypeRegulation: "규정",
	TypeManual:     "매뉴얼",
	TypeGuideline:  "지침",
	TypeProcedure:  "절차서",
	TypeTemplate:   "양식",
}

// KoreanName returns the Korean display name for the document type.
func (t DocumentType) KoreanName() string {
	if name, ok := documentTypeKorean[t]; ok {
		return name
	}
	return string(t)
}

// Valid reports whether t is a member of the closed enumeration.
func (t DocumentType) Valid() bool {
	_, ok := documentTypeKorean[t]
	return ok
}

// ParseDocumentType converts a string to a DocumentType, rejecting
// values outside the enumeration.
func ParseDocumentType(s string) (DocumentType, error) {
	t := DocumentType(s)
	if !t.Valid() {
		return "", fmt.Errorf("invalid document_type: %q", s)
	}
	return t, nil
}

// PolicyDocument is an ingested policy or manual document. It owns its
// chunks exclusively: deleting the document cascades to its chunks and
// their vector index entries.
type PolicyDocument struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`

	// Code is the stable document code, e.g. HR-001 or SEC-002.
	Code string       `json:"document_code"`
	Type DocumentType `json:"document_type"`

	Department  string `json:"department,omitempty"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version,omitempty"`

	FilePath string `json:"file_path,omitempty"`
	FileName string `json:"file_name,omitempty"`
	MimeType string `json:"mime_type,omitempty"`

	EffectiveDate *time.Time        `json:"effective_date,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`

	Indexed   bool      `json:"indexed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Chunk is a bounded, provenance-tagged slice of a document's extracted
// text. Offsets are approximate positions in the source text (see
// Chunker); within a document they are monotonically non-decreasing
// across ordinals.
type Chunk struct {
	ID         uuid.UUID `json:"id"`
	DocumentID uuid.UUID `json:"document_id"`

	// Ordinal is the zero-based position of the chunk within its
	// document.
	Ordinal int    `json:"chunk_index"`
	Content string `json:"content"`

	SectionTitle  string `json:"section_title,omitempty"`
	ArticleNumber string `json:"article_number,omitempty"`

	StartOffset int `json:"start_offset"`
	EndOffset   int `json:"end_offset"`

	// VectorID is the chunk's identifier in the vector index once it
	// has been indexed; empty before indexing.
	VectorID string `json:"vector_id,omitempty"`
}

// SourceReference renders the chunk's provenance for display, e.g.
// "휴가규정 > 제2장 휴가 > 제5조".
func (c *Chunk) SourceReference(docTitle string) string {
	ref := docTitle
	if c.SectionTitle != "" {
		ref += " > " + c.SectionTitle
	}
	if c.ArticleNumber != "" {
		ref += " > " + c.ArticleNumber
	}
	return ref
}
