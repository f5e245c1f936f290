// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package vector

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/go-openapi/strfmt"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

// PolicyChunkClassName is the Weaviate class holding indexed document
// chunks.
const PolicyChunkClassName = "PolicyChunk"

// indexBatchSize is the number of chunks imported per batch request.
const indexBatchSize = 100

// WeaviateIndex implements Index on a Weaviate instance with a
// server-side text vectorizer.
type WeaviateIndex struct {
	client *weaviate.Client
}

// NewWeaviateIndex creates a client for the given base URL, e.g.
// "http://localhost:8080".
func NewWeaviateIndex(rawURL string) (*WeaviateIndex, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid weaviate URL %q: %w", rawURL, err)
	}

	client, err := weaviate.NewClient(weaviate.Config{
		Host:   parsed.Host,
		Scheme: parsed.Scheme,
	})
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}
	return &WeaviateIndex{client: client}, nil
}

// NewWeaviateIndexFromClient wraps an existing client; used by tests
// and callers that manage the client themselves.
func NewWeaviateIndexFromClient(client *weaviate.Client) *WeaviateIndex {
	return &WeaviateIndex{client: client}
}

func policyChunkSchema() *models.Class {
	indexFilterable := new(bool)
	*indexFilterable = true

	return &models.Class{
		Class:       PolicyChunkClassName,
		Description: "Chunk of a policy/manual document with structural provenance",
		Vectorizer:  "text2vec-transformers",
		InvertedIndexConfig: &models.InvertedIndexConfig{
			IndexTimestamps: true,
		},
		Properties: []*models.Property{
			{
				Name:            "chunk_id",
				DataType:        []string{"text"},
				Description:     "Stable chunk identifier",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:         "content",
				DataType:     []string{"text"},
				Description:  "Chunk text",
				Tokenization: "word",
			},
			{
				Name:            "document_id",
				DataType:        []string{"text"},
				Description:     "Owning document identifier",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:         "title",
				DataType:     []string{"text"},
				Description:  "Document title",
				Tokenization: "word",
			},
			{
				Name:            "document_code",
				DataType:        []string{"text"},
				Description:     "Stable document code (e.g. HR-001)",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "document_type",
				DataType:        []string{"text"},
				Description:     "Document category",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "department",
				DataType:        []string{"text"},
				Description:     "Owning department",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:         "section_title",
				DataType:     []string{"text"},
				Description:  "Section heading in effect at the chunk",
				Tokenization: "word",
			},
			{
				Name:         "article_number",
				DataType:     []string{"text"},
				Description:  "Article/clause label in effect at the chunk",
				Tokenization: "field",
			},
		},
	}
}

// EnsureSchema creates the PolicyChunk class if it does not exist.
// Idempotent.
func (w *WeaviateIndex) EnsureSchema(ctx context.Context) error {
	_, err := w.client.Schema().ClassGetter().WithClassName(PolicyChunkClassName).Do(ctx)
	if err == nil {
		slog.Debug("PolicyChunk schema already exists")
		return nil
	}

	slog.Info("Creating PolicyChunk schema")
	if err := w.client.Schema().ClassCreator().WithClass(policyChunkSchema()).Do(ctx); err != nil {
		return &CollaboratorError{Op: "ensure schema", Err: err}
	}
	return nil
}

// Index batch-imports the items. The chunk id doubles as the Weaviate
// object ID so re-indexing a document upserts instead of duplicating.
func (w *WeaviateIndex) Index(ctx context.Context, items []Item) error {
	if len(items) == 0 {
		return nil
	}

	for start := 0; start < len(items); start += indexBatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := start + indexBatchSize
		if end > len(items) {
			end = len(items)
		}
		batch := items[start:end]

		objects := make([]*models.Object, len(batch))
		for i, item := range batch {
			objects[i] = &models.Object{
				Class: PolicyChunkClassName,
				ID:    strfmt.UUID(item.ID),
				Properties: map[string]interface{}{
					"chunk_id":       item.ID,
					"content":        item.Content,
					"document_id":    item.DocumentID,
					"title":          item.Title,
					"document_code":  item.Code,
					"document_type":  item.Type,
					"department":     item.Department,
					"section_title":  item.SectionTitle,
					"article_number": item.ArticleNumber,
				},
			}
		}

		resp, err := w.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
		if err != nil {
			return &CollaboratorError{Op: "batch index", Err: err}
		}
		for _, obj := range resp {
			if obj.Result != nil && obj.Result.Errors != nil && len(obj.Result.Errors.Error) > 0 {
				return &CollaboratorError{
					Op:  "batch index",
					Err: fmt.Errorf("object %s: %s", obj.ID, obj.Result.Errors.Error[0].Message),
				}
			}
		}
		slog.Debug("indexed chunk batch", "count", len(batch))
	}
	return nil
}

var searchFields = []graphql.Field{
	{Name: "chunk_id"},
	{Name: "content"},
	{Name: "document_id"},
	{Name: "title"},
	{Name: "document_code"},
	{Name: "document_type"},
	{Name: "department"},
	{Name: "section_title"},
	{Name: "article_number"},
	{Name: "_additional { certainty distance }"},
}

// Search runs a nearText query and maps certainty to the result score.
func (w *WeaviateIndex) Search(ctx context.Context, query string, topK int) ([]SearchResult, error) {
	nearText := w.client.GraphQL().NearTextArgBuilder().
		WithConcepts([]string{query})

	result, err := w.client.GraphQL().Get().
		WithClassName(PolicyChunkClassName).
		WithFields(searchFields...).
		WithNearText(nearText).
		WithLimit(topK).
		Do(ctx)
	if err != nil {
		return nil, &CollaboratorError{Op: "search", Err: err}
	}
	if len(result.Errors) > 0 {
		return nil, &CollaboratorError{Op: "search", Err: fmt.Errorf("%s", result.Errors[0].Message)}
	}

	return parseSearchResults(result), nil
}

// DeleteByDocument removes every chunk of the document via a filtered
// batch delete.
func (w *WeaviateIndex) DeleteByDocument(ctx context.Context, documentID string) error {
	whereFilter := filters.Where().
		WithPath([]string{"document_id"}).
		WithOperator(filters.Equal).
		WithValueString(documentID)

	_, err := w.client.Batch().ObjectsBatchDeleter().
		WithClassName(PolicyChunkClassName).
		WithWhere(whereFilter).
		Do(ctx)
	if err != nil {
		return &CollaboratorError{Op: "delete by document", Err: err}
	}

	slog.Debug("deleted indexed chunks", "document_id", documentID)
	return nil
}

func parseSearchResults(result *models.GraphQLResponse) []SearchResult {
	data, ok := result.Data["Get"].(map[string]interface{})
	if !ok {
		return nil
	}
	objects, ok := data[PolicyChunkClassName].([]interface{})
	if !ok {
		return nil
	}

	results := make([]SearchResult, 0, len(objects))
	for _, obj := range objects {
		m, ok := obj.(map[string]interface{})
		if !ok {
			continue
		}

		hit := SearchResult{
			ChunkID:       getString(m, "chunk_id"),
			Content:       getString(m, "content"),
			DocumentID:    getString(m, "document_id"),
			Title:         getString(m, "title"),
			Code:          getString(m, "document_code"),
			Type:          getString(m, "document_type"),
			Department:    getString(m, "department"),
			SectionTitle:  getString(m, "section_title"),
			ArticleNumber: getString(m, "article_number"),
		}

		hit.Score = 0.5
		if additional, ok := m["_additional"].(map[string]interface{}); ok {
			if certainty, ok := additional["certainty"].(float64); ok {
				hit.Score = certainty
			}
		}
		results = append(results, hit)
	}
	return results
}

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
