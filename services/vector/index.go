// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package vector defines the vector index contract the pipeline
// retrieves against, the Weaviate-backed implementation, and weighted
// multi-term retrieval fusion.
package vector

import (
	"context"
	"errors"
	"fmt"
)

// Item is one chunk to be indexed, with the provenance metadata that
// must round-trip through the index so search results can render source
// references without a second lookup.
type Item struct {
	ID      string
	Content string

	DocumentID    string
	Title         string
	Code          string
	Type          string
	Department    string
	SectionTitle  string
	ArticleNumber string
}

// SearchResult is one scored hit from the index. Score is the index's
// raw relevance in [0, 1]; fusion reweights and accumulates it.
type SearchResult struct {
	ChunkID string
	Content string
	Score   float64

	DocumentID    string
	Title         string
	Code          string
	Type          string
	Department    string
	SectionTitle  string
	ArticleNumber string
}

// SourceReference renders the hit's provenance for display.
func (r *SearchResult) SourceReference() string {
	ref := r.Title
	if r.SectionTitle != "" {
		ref += " > " + r.SectionTitle
	}
	if r.ArticleNumber != "" {
		ref += " > " + r.ArticleNumber
	}
	return ref
}

// Index is the vector index collaborator contract. Implementations do
// the only I/O in the retrieval path; callers impose deadlines through
// ctx.
type Index interface {
	// Index upserts the items. Failures abort ingestion of the calling
	// document only.
	Index(ctx context.Context, items []Item) error

	// Search returns up to topK hits for the query text, ranked by
	// descending relevance.
	Search(ctx context.Context, query string, topK int) ([]SearchResult, error)

	// DeleteByDocument removes every indexed chunk of the document.
	DeleteByDocument(ctx context.Context, documentID string) error
}

// ErrIndexUnavailable marks a vector index that could not be reached at
// all, as opposed to a failed operation on a healthy one.
var ErrIndexUnavailable = errors.New("vector: index unavailable")

// CollaboratorError wraps a fault from the vector index or another
// external collaborator. It aborts the single request or document it
// occurred in; retries are the caller's concern.
type CollaboratorError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("vector %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// IsCollaborator reports whether err is (or wraps) a
// *CollaboratorError.
func IsCollaborator(err error) bool {
	var ce *CollaboratorError
	return errors.As(err, &ce)
}
