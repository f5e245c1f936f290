// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/policyqna/services/llm"
	"github.com/AleutianAI/policyqna/services/ontology"
	"github.com/AleutianAI/policyqna/services/vector"
)

// DefaultTopK is the evidence count per question unless overridden.
const DefaultTopK = 5

// snippetMaxRunes caps the source snippet length in responses.
const snippetMaxRunes = 200

var tracer = otel.Tracer("policyqna/rag")

// Pipeline is the request-scoped question orchestrator. It is
// stateless between requests and safe for concurrent use as long as
// ontology writes do not run concurrently with question processing.
type Pipeline struct {
	ontologySvc *ontology.Service
	rules       *ontology.RuleEngine
	expander    *ontology.Expander
	index       vector.Index
	fuser       *vector.Fuser
	generator   llm.AnswerGenerator
	topK        int
}

// NewPipeline wires the pipeline from its collaborators. topK <= 0
// falls back to DefaultTopK.
func NewPipeline(ontologySvc *ontology.Service, index vector.Index, generator llm.AnswerGenerator, topK int) *Pipeline {
	if topK <= 0 {
		topK = DefaultTopK
	}
	rules := ontology.NewRuleEngine(ontologySvc.Store())
	return &Pipeline{
		ontologySvc: ontologySvc,
		rules:       rules,
		expander:    ontology.NewExpander(ontologySvc.Store(), rules),
		index:       index,
		fuser:       vector.NewFuser(index),
		generator:   generator,
		topK:        topK,
	}
}

// Ask answers one question. The flow is: redirect check; on a match,
// retrieve directly against the redirect target; otherwise expand the
// query and run fused retrieval (falling back to a plain search when
// expansion is empty or fusion yields nothing). No evidence returns a
// fixed answer without calling the generator.
func (p *Pipeline) Ask(ctx context.Context, req QnaRequest) (*QnaResponse, error) {
	ctx, span := tracer.Start(ctx, "rag.Ask")
	defer span.End()
	start := time.Now()

	if err := req.Validate(); err != nil {
		questionsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	question := strings.TrimSpace(req.Question)
	topK := p.topK
	if req.TopK > 0 {
		topK = req.TopK
	}
	slog.Info("processing question", "question", question, "top_k", topK)

	redirect, err := p.rules.MatchRedirect(ctx, question)
	if err != nil {
		questionsTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		return nil, err
	}
	if redirect != nil {
		span.SetAttributes(attribute.String("rag.redirect_rule", redirect.RuleName))
		resp, err := p.askRedirected(ctx, question, topK, redirect)
		questionDuration.WithLabelValues("redirect").Observe(time.Since(start).Seconds())
		return resp, err
	}

	resp, err := p.askExpanded(ctx, question, topK)
	questionDuration.WithLabelValues("expansion").Observe(time.Since(start).Seconds())
	return resp, err
}

// askRedirected retrieves directly against the redirect target,
// skipping expansion and term definitions.
func (p *Pipeline) askRedirected(ctx context.Context, question string, topK int, redirect *ontology.RedirectResult) (*QnaResponse, error) {
	slog.Info("redirect rule matched", "rule", redirect.RuleName, "target", redirect.TargetReference)

	results, err := p.index.Search(ctx, redirect.TargetReference, topK)
	if err != nil {
		questionsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	if len(results) == 0 {
		questionsTotal.WithLabelValues("redirect_miss").Inc()
		return &QnaResponse{
			Question: question,
			Answer: fmt.Sprintf("'%s'을(를) 참조하도록 설정되어 있으나, 해당 문서를 찾을 수 없습니다.",
				redirect.TargetReference),
			Sources:      []SourceInfo{},
			RedirectInfo: redirect,
		}, nil
	}

	answer, err := p.generateAnswer(ctx, question, results, nil)
	if err != nil {
		questionsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	questionsTotal.WithLabelValues("redirect_answer").Inc()
	return &QnaResponse{
		Question:     question,
		Answer:       answer,
		Sources:      extractSources(results),
		SearchScores: extractScores(results),
		RedirectInfo: redirect,
	}, nil
}

// askExpanded runs the expansion path of the state machine.
func (p *Pipeline) askExpanded(ctx context.Context, question string, topK int) (*QnaResponse, error) {
	expansion, err := p.expander.Expand(ctx, question)
	if err != nil {
		questionsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	expansionTermCount.Observe(float64(len(expansion.Terms)))
	slog.Debug("query expanded", "terms", len(expansion.Terms), "matched_concepts", len(expansion.MatchedConcepts))

	results, err := p.fuser.Search(ctx, expansion.Terms, topK)
	if err != nil {
		questionsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if len(results) == 0 {
		// Plain fallback with the original question text.
		results, err = p.index.Search(ctx, question, topK)
		if err != nil {
			questionsTotal.WithLabelValues("error").Inc()
			return nil, err
		}
	}
	retrievalResultCount.Observe(float64(len(results)))

	if len(results) == 0 {
		questionsTotal.WithLabelValues("no_evidence").Inc()
		slog.Info("no evidence found", "question", question)
		return &QnaResponse{
			Question:      question,
			Answer:        noEvidenceAnswer,
			Sources:       []SourceInfo{},
			RelatedTerms:  []TermInfo{},
			ExpandedTerms: termStrings(expansion.Terms),
		}, nil
	}

	relatedTerms := p.collectTermDefinitions(ctx, expansion.MatchedConcepts)

	answer, err := p.generateAnswer(ctx, question, results, relatedTerms)
	if err != nil {
		questionsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	questionsTotal.WithLabelValues("answer").Inc()
	return &QnaResponse{
		Question:      question,
		Answer:        answer,
		Sources:       extractSources(results),
		RelatedTerms:  relatedTerms,
		ExpandedTerms: termStrings(expansion.Terms),
		SearchScores:  extractScores(results),
	}, nil
}

// buildContext concatenates evidence in descending score order with
// explicit delimiters.
func buildContext(results []vector.SearchResult) string {
	var sb strings.Builder
	sb.WriteString("=== 관련 문서 내용 ===\n\n")
	for i, r := range results {
		fmt.Fprintf(&sb, "[문서 %d] %s\n", i+1, r.SourceReference())
		sb.WriteString(r.Content)
		sb.WriteString("\n\n---\n\n")
	}
	return sb.String()
}

// collectTermDefinitions builds glossary entries for the matched
// concepts. Concepts without a stored definition are skipped silently.
func (p *Pipeline) collectTermDefinitions(ctx context.Context, concepts []*ontology.Concept) []TermInfo {
	var terms []TermInfo
	for _, concept := range concepts {
		def, err := p.ontologySvc.TermDefinition(ctx, concept.Name)
		if err != nil {
			continue
		}
		terms = append(terms, TermInfo{
			Term:        def.Term,
			Definition:  def.Definition,
			ConceptType: concept.Type.KoreanName(),
			Synonyms:    concept.Synonyms,
			Sources:     def.Sources,
		})
	}
	return terms
}

// generateAnswer invokes the answer generator with the assembled
// context block and any term definitions.
func (p *Pipeline) generateAnswer(ctx context.Context, question string, results []vector.SearchResult, relatedTerms []TermInfo) (string, error) {
	ctx, span := tracer.Start(ctx, "rag.generateAnswer")
	defer span.End()

	var prompt strings.Builder
	prompt.WriteString("## 질문\n")
	prompt.WriteString(question)
	prompt.WriteString("\n\n## 참조 문서\n")
	prompt.WriteString(buildContext(results))
	prompt.WriteString("\n")

	if len(relatedTerms) > 0 {
		prompt.WriteString("## 관련 용어 정의\n")
		for _, term := range relatedTerms {
			fmt.Fprintf(&prompt, "- %s: %s\n", term.Term, term.Definition)
		}
		prompt.WriteString("\n")
	}
	prompt.WriteString("위 문서를 참고하여 질문에 답변해 주세요.")

	answer, err := p.generator.Generate(ctx, systemPrompt, prompt.String(), llm.GenerationParams{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		return "", fmt.Errorf("answer generation: %w", err)
	}
	return answer, nil
}

func extractSources(results []vector.SearchResult) []SourceInfo {
	sources := make([]SourceInfo, 0, len(results))
	for _, r := range results {
		sources = append(sources, SourceInfo{
			DocumentTitle:  r.Title,
			DocumentCode:   r.Code,
			SectionTitle:   r.SectionTitle,
			ArticleNumber:  r.ArticleNumber,
			RelevanceScore: r.Score,
			Snippet:        truncate(r.Content, snippetMaxRunes),
		})
	}
	return sources
}

func extractScores(results []vector.SearchResult) map[string]float64 {
	scores := make(map[string]float64, len(results))
	for _, r := range results {
		scores[r.ChunkID] = r.Score
	}
	return scores
}

func termStrings(terms []ontology.WeightedTerm) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		out = append(out, t.Term)
	}
	return out
}

// truncate caps text at maxRunes, appending an ellipsis marker when
// anything was cut.
func truncate(text string, maxRunes int) string {
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	return string(runes[:maxRunes]) + "..."
}
