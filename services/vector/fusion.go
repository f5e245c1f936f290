// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package vector

import (
	"context"
	"sort"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/policyqna/services/ontology"
)

var fusionTracer = otel.Tracer("policyqna/vector/fusion")

// maxConcurrentSearches bounds the parallel per-term index calls so a
// wide expansion cannot flood the index.
const maxConcurrentSearches = 4

// Fuser merges independent per-term retrievals into one ranked result
// set.
type Fuser struct {
	index Index
}

// NewFuser creates a Fuser over the given index.
func NewFuser(index Index) *Fuser {
	return &Fuser{index: index}
}

// Search runs one retrieval per weighted term and fuses the results.
// Scores are additive: a chunk retrieved under several terms
// accumulates score×weight from each, which rewards chunks relevant to
// multiple expansion terms. The fused set is sorted by descending score
// (chunk id breaks ties for determinism) and truncated to topK.
//
// An empty term set returns an empty result with no index calls; the
// caller falls back to a plain single-query search.
func (f *Fuser) Search(ctx context.Context, terms []ontology.WeightedTerm, topK int) ([]SearchResult, error) {
	ctx, span := fusionTracer.Start(ctx, "vector.FusedSearch")
	defer span.End()
	span.SetAttributes(
		attribute.Int("fusion.terms", len(terms)),
		attribute.Int("fusion.top_k", topK),
	)

	if len(terms) == 0 || topK <= 0 {
		return nil, nil
	}

	var (
		mu    sync.Mutex
		fused = make(map[string]*SearchResult)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentSearches)
	for _, term := range terms {
		g.Go(func() error {
			hits, err := f.index.Search(gctx, term.Term, topK)
			if err != nil {
				return &CollaboratorError{Op: "search", Err: err}
			}

			mu.Lock()
			defer mu.Unlock()
			for _, hit := range hits {
				weighted := hit.Score * term.Weight
				if existing, ok := fused[hit.ChunkID]; ok {
					existing.Score += weighted
					continue
				}
				merged := hit
				merged.Score = weighted
				fused[hit.ChunkID] = &merged
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	results := make([]SearchResult, 0, len(fused))
	for _, r := range fused {
		results = append(results, *r)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ChunkID < results[j].ChunkID
	})
	if len(results) > topK {
		results = results[:topK]
	}

	span.SetAttributes(attribute.Int("fusion.results", len(results)))
	return results, nil
}
