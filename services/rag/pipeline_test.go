// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package rag

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/policyqna/services/llm"
	"github.com/AleutianAI/policyqna/services/ontology"
	"github.com/AleutianAI/policyqna/services/storage/badgerstore"
	"github.com/AleutianAI/policyqna/services/vector"
)

type fakeVectorIndex struct {
	mu   sync.Mutex
	hits map[string][]vector.SearchResult
}

func (f *fakeVectorIndex) Index(context.Context, []vector.Item) error { return nil }

func (f *fakeVectorIndex) Search(_ context.Context, query string, topK int) ([]vector.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	hits := f.hits[query]
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

func (f *fakeVectorIndex) DeleteByDocument(context.Context, string) error { return nil }

type fakeGenerator struct {
	mu         sync.Mutex
	calls      int
	lastSystem string
	lastUser   string
	answer     string
}

func (g *fakeGenerator) Generate(_ context.Context, systemPrompt, userPrompt string, _ llm.GenerationParams) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.lastSystem = systemPrompt
	g.lastUser = userPrompt
	if g.answer == "" {
		return "연차휴가는 휴가규정 제5조에 따라 부여됩니다.", nil
	}
	return g.answer, nil
}

func newTestOntology(t *testing.T) *ontology.Service {
	t.Helper()
	store, err := badgerstore.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return ontology.NewService(store)
}

func hit(id, content string, score float64) vector.SearchResult {
	return vector.SearchResult{
		ChunkID: id, Content: content, Score: score,
		Title: "휴가규정", Code: "HR-001", ArticleNumber: "제5조",
	}
}

func TestAskRedirectShortCircuit(t *testing.T) {
	ctx := context.Background()
	svc := newTestOntology(t)
	require.NoError(t, svc.CreateRule(ctx, &ontology.Rule{
		Name:        "annual-leave-redirect",
		Type:        ontology.RuleRedirect,
		Condition:   "연차",
		Consequence: "휴가규정 제5조",
		Priority:    10,
	}))

	idx := &fakeVectorIndex{hits: map[string][]vector.SearchResult{
		"휴가규정 제5조": {hit("c1", "연차휴가는 근속 1년당 15일 부여", 0.95)},
	}}
	gen := &fakeGenerator{}
	p := NewPipeline(svc, idx, gen, 5)

	resp, err := p.Ask(ctx, QnaRequest{Question: "연차 며칠 받을 수 있나요"})
	require.NoError(t, err)

	require.NotNil(t, resp.RedirectInfo)
	assert.Equal(t, "휴가규정 제5조", resp.RedirectInfo.TargetReference)
	assert.Equal(t, "annual-leave-redirect", resp.RedirectInfo.RuleName)
	// Redirect skips expansion entirely.
	assert.Empty(t, resp.ExpandedTerms)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, 1, gen.calls)
	assert.Contains(t, gen.lastUser, "연차휴가는 근속 1년당 15일 부여")
	assert.Contains(t, gen.lastSystem, "사내 정책")
}

func TestAskRedirectMiss(t *testing.T) {
	ctx := context.Background()
	svc := newTestOntology(t)
	require.NoError(t, svc.CreateRule(ctx, &ontology.Rule{
		Name:        "stale-redirect",
		Type:        ontology.RuleRedirect,
		Condition:   "연차",
		Consequence: "폐기된 규정",
		Priority:    10,
	}))

	idx := &fakeVectorIndex{hits: map[string][]vector.SearchResult{}}
	gen := &fakeGenerator{}
	p := NewPipeline(svc, idx, gen, 5)

	resp, err := p.Ask(ctx, QnaRequest{Question: "연차 문의"})
	require.NoError(t, err)

	assert.Contains(t, resp.Answer, "'폐기된 규정'을(를) 참조하도록 설정되어 있으나")
	assert.Empty(t, resp.Sources)
	assert.NotNil(t, resp.RedirectInfo)
	assert.Zero(t, gen.calls, "generator must not run on a redirect miss")
}

func TestAskNoEvidence(t *testing.T) {
	ctx := context.Background()
	svc := newTestOntology(t)

	idx := &fakeVectorIndex{hits: map[string][]vector.SearchResult{}}
	gen := &fakeGenerator{}
	p := NewPipeline(svc, idx, gen, 5)

	resp, err := p.Ask(ctx, QnaRequest{Question: "우주선 발사 절차"})
	require.NoError(t, err)

	assert.Equal(t, noEvidenceAnswer, resp.Answer)
	assert.Empty(t, resp.Sources)
	assert.Zero(t, gen.calls, "generator must not run without evidence")
	// The original query is still reported as the sole expansion term.
	require.NotEmpty(t, resp.ExpandedTerms)
	assert.Equal(t, "우주선 발사 절차", resp.ExpandedTerms[0])
}

func TestAskExpansionPath(t *testing.T) {
	ctx := context.Background()
	svc := newTestOntology(t)
	require.NoError(t, svc.CreateConcept(ctx, &ontology.Concept{
		Name:       "연차휴가",
		Type:       ontology.ConceptTerm,
		Definition: "근속 기간에 따라 부여되는 유급휴가",
		Synonyms:   []string{"연차"},
	}))

	idx := &fakeVectorIndex{hits: map[string][]vector.SearchResult{
		"연차휴가": {hit("c1", "연차휴가 조항 본문", 0.9)},
		"연차":   {hit("c1", "연차휴가 조항 본문", 0.8)},
	}}
	gen := &fakeGenerator{}
	p := NewPipeline(svc, idx, gen, 5)

	resp, err := p.Ask(ctx, QnaRequest{Question: "연차휴가"})
	require.NoError(t, err)

	assert.Nil(t, resp.RedirectInfo)
	require.Len(t, resp.Sources, 1)
	// 0.9×1.0 (query) + 0.8×0.8 (synonym) = 1.54
	assert.InDelta(t, 1.54, resp.SearchScores["c1"], 1e-9)

	require.NotEmpty(t, resp.ExpandedTerms)
	assert.Equal(t, "연차휴가", resp.ExpandedTerms[0])
	assert.Contains(t, resp.ExpandedTerms, "연차")

	// The matched concept's definition is surfaced and fed to the
	// generator.
	require.Len(t, resp.RelatedTerms, 1)
	assert.Equal(t, "연차휴가", resp.RelatedTerms[0].Term)
	assert.Contains(t, gen.lastUser, "근속 기간에 따라 부여되는 유급휴가")
	assert.Contains(t, gen.lastUser, "=== 관련 문서 내용 ===")
}

// flakyIndex returns nothing until the fused per-term pass is over,
// then serves the plain fallback query.
type flakyIndex struct {
	fakeVectorIndex
	failFirst int
	seen      int
}

func (f *flakyIndex) Search(ctx context.Context, query string, topK int) ([]vector.SearchResult, error) {
	f.mu.Lock()
	f.seen++
	empty := f.seen <= f.failFirst
	f.mu.Unlock()
	if empty {
		return nil, nil
	}
	return f.fakeVectorIndex.Search(ctx, query, topK)
}

func TestAskPlainFallbackWhenFusionEmpty(t *testing.T) {
	ctx := context.Background()
	svc := newTestOntology(t)

	question := "법인카드 한도"
	idx := &flakyIndex{
		fakeVectorIndex: fakeVectorIndex{hits: map[string][]vector.SearchResult{
			question: {hit("c9", "법인카드 사용 한도는 월 100만원", 0.7)},
		}},
		// Expansion yields only the raw query; its fused pass makes
		// one call, which comes back empty.
		failFirst: 1,
	}
	gen := &fakeGenerator{}
	p := NewPipeline(svc, idx, gen, 5)

	resp, err := p.Ask(ctx, QnaRequest{Question: question})
	require.NoError(t, err)
	require.Len(t, resp.Sources, 1)
	assert.InDelta(t, 0.7, resp.SearchScores["c9"], 1e-9, "fallback score is unweighted")
	assert.Equal(t, 1, gen.calls)
}

func TestAskSnippetTruncation(t *testing.T) {
	ctx := context.Background()
	svc := newTestOntology(t)

	long := make([]rune, 0, 300)
	for i := 0; i < 300; i++ {
		long = append(long, '내')
	}
	idx := &fakeVectorIndex{hits: map[string][]vector.SearchResult{
		"규정": {hit("c1", string(long), 0.9)},
	}}
	gen := &fakeGenerator{}
	p := NewPipeline(svc, idx, gen, 5)

	resp, err := p.Ask(ctx, QnaRequest{Question: "규정"})
	require.NoError(t, err)
	require.Len(t, resp.Sources, 1)

	snippet := []rune(resp.Sources[0].Snippet)
	assert.Len(t, snippet, snippetMaxRunes+3, "200 runes plus ellipsis marker")
	assert.Equal(t, "...", string(snippet[len(snippet)-3:]))
}

func TestAskValidation(t *testing.T) {
	svc := newTestOntology(t)
	p := NewPipeline(svc, &fakeVectorIndex{}, &fakeGenerator{}, 5)

	_, err := p.Ask(context.Background(), QnaRequest{Question: ""})
	require.Error(t, err)
}

func TestSourceInfoFullReference(t *testing.T) {
	s := &SourceInfo{DocumentTitle: "휴가규정", DocumentCode: "HR-001", ArticleNumber: "제5조"}
	assert.Equal(t, "휴가규정 (HR-001) 제5조", s.FullReference())

	bare := &SourceInfo{DocumentTitle: "휴가규정"}
	assert.Equal(t, "휴가규정", bare.FullReference())
}
