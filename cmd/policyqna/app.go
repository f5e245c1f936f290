// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/AleutianAI/policyqna/services/document"
	"github.com/AleutianAI/policyqna/services/llm"
	"github.com/AleutianAI/policyqna/services/ontology"
	"github.com/AleutianAI/policyqna/services/rag"
	"github.com/AleutianAI/policyqna/services/storage/badgerstore"
	"github.com/AleutianAI/policyqna/services/vector"
)

// app bundles the wired services behind a command run.
type app struct {
	store    *badgerstore.Store
	index    *vector.WeaviateIndex
	ontology *ontology.Service
	docs     *document.Service
}

// openApp wires storage and the vector index. The answer generator is
// only constructed where a command needs it (see newPipeline), so
// ingestion works without an API key.
func openApp(ctx context.Context) (*app, error) {
	store, err := badgerstore.Open(badgerstore.DefaultConfig(expandHome(cfg.Storage.Path)))
	if err != nil {
		return nil, err
	}

	index, err := vector.NewWeaviateIndex(cfg.Weaviate.URL)
	if err != nil {
		store.Close()
		return nil, err
	}
	if err := index.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, err
	}

	chunker := document.NewChunker(cfg.Chunking.Size, cfg.Chunking.Overlap)
	return &app{
		store:    store,
		index:    index,
		ontology: ontology.NewService(store),
		docs:     document.NewService(store, document.PlainTextExtractor{}, chunker, index),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// newPipeline builds the question pipeline, constructing the OpenAI
// client on demand.
func (a *app) newPipeline() (*rag.Pipeline, error) {
	generator, err := llm.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	if err != nil {
		return nil, err
	}
	return rag.NewPipeline(a.ontology, a.index, generator, cfg.Retrieval.TopK), nil
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
