// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/policyqna/services/vector"
)

// ErrDocumentNotFound is returned when a referenced document does not
// exist in the store.
var ErrDocumentNotFound = errors.New("document: not found")

// DocumentStore is the persistence contract for documents and their
// chunks. Chunks are exclusively owned: SaveChunks replaces the
// document's chunk set, and DeleteDocument removes the document with
// all its chunks.
type DocumentStore interface {
	SaveDocument(ctx context.Context, doc *PolicyDocument) error
	GetDocument(ctx context.Context, id uuid.UUID) (*PolicyDocument, error)
	FindDocumentByCode(ctx context.Context, code string) (*PolicyDocument, error)
	ListDocuments(ctx context.Context) ([]*PolicyDocument, error)
	DeleteDocument(ctx context.Context, id uuid.UUID) error

	SaveChunks(ctx context.Context, documentID uuid.UUID, chunks []Chunk) error
	GetChunks(ctx context.Context, documentID uuid.UUID) ([]Chunk, error)
}

var tracer = otel.Tracer("policyqna/document")

// Service drives the ingestion lifecycle: extract, chunk, persist,
// index. Deletion cascades from the document to its chunks and their
// vector index entries.
type Service struct {
	store     DocumentStore
	extractor ContentExtractor
	chunker   *Chunker
	index     vector.Index
}

// NewService wires the ingestion dependencies together.
func NewService(store DocumentStore, extractor ContentExtractor, chunker *Chunker, index vector.Index) *Service {
	return &Service{store: store, extractor: extractor, chunker: chunker, index: index}
}

// UploadRequest carries the caller-supplied document metadata for
// ingestion.
type UploadRequest struct {
	Title      string       `validate:"required"`
	Code       string       `validate:"required"`
	Type       DocumentType `validate:"required"`
	Department string
	Version    string
	FilePath   string `validate:"required"`
}

// UploadAndIndex ingests one document: extracts its text, chunks it,
// persists document and chunks, and indexes the chunks. An extraction
// or index failure aborts this document only and is returned to the
// caller unretried.
func (s *Service) UploadAndIndex(ctx context.Context, req UploadRequest) (*PolicyDocument, error) {
	ctx, span := tracer.Start(ctx, "document.UploadAndIndex")
	defer span.End()
	span.SetAttributes(
		attribute.String("document.code", req.Code),
		attribute.String("document.type", string(req.Type)),
	)

	if !req.Type.Valid() {
		return nil, fmt.Errorf("invalid document_type: %q", req.Type)
	}

	extraction, err := s.extractor.Extract(ctx, req.FilePath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "extraction failed")
		return nil, err
	}

	now := time.Now().UTC()
	doc := &PolicyDocument{
		ID:         uuid.New(),
		Title:      req.Title,
		Code:       req.Code,
		Type:       req.Type,
		Department: req.Department,
		Version:    req.Version,
		FilePath:   req.FilePath,
		FileName:   extraction.Metadata["file_name"],
		MimeType:   extraction.MimeType,
		Metadata:   extraction.Metadata,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("saving document %q: %w", req.Code, err)
	}

	if err := s.chunkAndIndex(ctx, doc, extraction.Content); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "indexing failed")
		return nil, err
	}

	doc.Indexed = true
	doc.UpdatedAt = time.Now().UTC()
	if err := s.store.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("marking document %q indexed: %w", req.Code, err)
	}

	slog.Info("document ingested", "code", doc.Code, "title", doc.Title)
	return doc, nil
}

// Reindex re-extracts and re-chunks a stored document, replacing its
// chunks and vector entries.
func (s *Service) Reindex(ctx context.Context, documentID uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "document.Reindex")
	defer span.End()

	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("document %s: %w", documentID, err)
	}

	extraction, err := s.extractor.Extract(ctx, doc.FilePath)
	if err != nil {
		span.RecordError(err)
		return err
	}

	if err := s.index.DeleteByDocument(ctx, doc.ID.String()); err != nil {
		span.RecordError(err)
		return err
	}
	if err := s.chunkAndIndex(ctx, doc, extraction.Content); err != nil {
		span.RecordError(err)
		return err
	}

	doc.Indexed = true
	doc.UpdatedAt = time.Now().UTC()
	if err := s.store.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("updating document %q: %w", doc.Code, err)
	}

	slog.Info("document reindexed", "code", doc.Code)
	return nil
}

// Delete removes a document, cascading to its chunks and their vector
// index entries. The index is cleared first so a store failure never
// leaves orphaned vectors behind.
func (s *Service) Delete(ctx context.Context, documentID uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "document.Delete")
	defer span.End()

	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("document %s: %w", documentID, err)
	}

	if err := s.index.DeleteByDocument(ctx, doc.ID.String()); err != nil {
		span.RecordError(err)
		return err
	}
	if err := s.store.DeleteDocument(ctx, doc.ID); err != nil {
		return fmt.Errorf("deleting document %q: %w", doc.Code, err)
	}

	slog.Info("document deleted", "code", doc.Code)
	return nil
}

// chunkAndIndex splits the content and writes chunks to both the store
// and the vector index.
func (s *Service) chunkAndIndex(ctx context.Context, doc *PolicyDocument, content string) error {
	chunks := s.chunker.Chunk(doc.ID, content)
	if len(chunks) == 0 {
		slog.Warn("document produced no chunks", "code", doc.Code)
		return s.store.SaveChunks(ctx, doc.ID, nil)
	}

	items := make([]vector.Item, len(chunks))
	for i := range chunks {
		chunks[i].VectorID = chunks[i].ID.String()
		items[i] = vector.Item{
			ID:            chunks[i].VectorID,
			Content:       chunks[i].Content,
			DocumentID:    doc.ID.String(),
			Title:         doc.Title,
			Code:          doc.Code,
			Type:          string(doc.Type),
			Department:    doc.Department,
			SectionTitle:  chunks[i].SectionTitle,
			ArticleNumber: chunks[i].ArticleNumber,
		}
	}

	if err := s.store.SaveChunks(ctx, doc.ID, chunks); err != nil {
		return fmt.Errorf("saving chunks of %q: %w", doc.Code, err)
	}
	if err := s.index.Index(ctx, items); err != nil {
		return err
	}

	slog.Info("chunks indexed", "code", doc.Code, "count", len(chunks))
	return nil
}
