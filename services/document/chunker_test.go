// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package document

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// longText builds many distinct 90-rune lines so overlap boundaries
// land mid-line, never on a newline.
func longText(lines int) string {
	var sb strings.Builder
	for i := 0; i < lines; i++ {
		ch := rune('a' + i%26)
		sb.WriteString(strings.Repeat(string(ch), 90))
		sb.WriteString("\n")
	}
	return sb.String()
}

func TestChunkEmptyInput(t *testing.T) {
	c := NewChunker(1000, 200)
	assert.Empty(t, c.Chunk(uuid.New(), ""))
	assert.Empty(t, c.Chunk(uuid.New(), "\n\n   \n"))
}

func TestChunkSingleShortDocument(t *testing.T) {
	c := NewChunker(1000, 200)
	docID := uuid.New()

	chunks := c.Chunk(docID, "짧은 문서입니다.\n한 청크로 충분합니다.")
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Ordinal)
	assert.Equal(t, 0, chunks[0].StartOffset)
	assert.Equal(t, docID, chunks[0].DocumentID)
	assert.Contains(t, chunks[0].Content, "짧은 문서입니다.")
}

func TestChunkOffsetMonotonicity(t *testing.T) {
	c := NewChunker(1000, 200)
	chunks := c.Chunk(uuid.New(), longText(60))
	require.Greater(t, len(chunks), 2)

	for i, ch := range chunks {
		assert.GreaterOrEqual(t, ch.EndOffset, ch.StartOffset, "chunk %d", i)
		assert.Equal(t, i, ch.Ordinal)
		if i > 0 {
			assert.GreaterOrEqual(t, ch.StartOffset, chunks[i-1].StartOffset, "chunk %d", i)
		}
	}
}

func TestChunkOverlapPreservation(t *testing.T) {
	const (
		size    = 1000
		overlap = 200
	)
	c := NewChunker(size, overlap)
	chunks := c.Chunk(uuid.New(), longText(60))
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1].Content)
		next := []rune(chunks[i].Content)

		want := overlap
		if len(prev) < want {
			want = len(prev)
		}
		require.GreaterOrEqual(t, len(next), want, "chunk %d shorter than expected overlap", i)
		assert.Equal(t,
			string(prev[len(prev)-want:]),
			string(next[:want]),
			"chunks %d and %d do not share the overlap", i-1, i)
	}
}

// 199-rune lines place a newline at the head of the 200-rune overlap
// window; that leading newline must survive into the next chunk so the
// shared region stays byte-for-byte identical.
func TestChunkOverlapStartingAtLineBreak(t *testing.T) {
	const (
		size    = 1000
		overlap = 200
	)
	lines := make([]string, 12)
	for i := range lines {
		lines[i] = strings.Repeat(string(rune('a'+i)), 199)
	}

	c := NewChunker(size, overlap)
	chunks := c.Chunk(uuid.New(), strings.Join(lines, "\n"))
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1].Content)
		next := []rune(chunks[i].Content)

		want := overlap
		if len(prev) < want {
			want = len(prev)
		}
		require.GreaterOrEqual(t, len(next), want)
		require.Equal(t,
			string(prev[len(prev)-want:]),
			string(next[:want]),
			"chunks %d and %d do not share the overlap", i-1, i)
	}
}

func TestChunkSizeBound(t *testing.T) {
	c := NewChunker(1000, 200)
	chunks := c.Chunk(uuid.New(), longText(60))
	for i, ch := range chunks {
		assert.LessOrEqual(t, len([]rune(ch.Content)), 1000+91,
			"chunk %d exceeds the size bound by more than one segment", i)
	}
}

func TestChunkOversizedSegmentPassesThrough(t *testing.T) {
	c := NewChunker(1000, 200)
	oversized := strings.Repeat("깊", 1500)

	chunks := c.Chunk(uuid.New(), oversized)
	require.Len(t, chunks, 1)
	assert.Equal(t, 1500, len([]rune(chunks[0].Content)))
	assert.Equal(t, 0, chunks[0].StartOffset)
}

func TestChunkStructuralProvenance(t *testing.T) {
	text := strings.Join([]string{
		"제1장 총칙",
		"제1조 목적",
		"이 규정은 임직원의 휴가에 관한 사항을 정함을 목적으로 한다.",
		"제2장 휴가",
		"제5조 연차휴가",
		"연차휴가는 근속 1년당 15일을 부여한다.",
	}, "\n")

	c := NewChunker(1000, 200)
	chunks := c.Chunk(uuid.New(), text)
	require.Len(t, chunks, 1)

	// One chunk: tags reflect the markers active at close time.
	assert.Equal(t, "휴가", chunks[0].SectionTitle)
	assert.Equal(t, "제5조", chunks[0].ArticleNumber)
}

func TestChunkSectionCarriedAcrossChunks(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("제1장 복무\n")
	for i := 0; i < 30; i++ {
		sb.WriteString(strings.Repeat("내", 90))
		sb.WriteString("\n")
	}

	c := NewChunker(1000, 200)
	chunks := c.Chunk(uuid.New(), sb.String())
	require.Greater(t, len(chunks), 1)
	for i, ch := range chunks {
		assert.Equal(t, "복무", ch.SectionTitle, "chunk %d lost its section", i)
	}
}

func TestChunkerParamFallbacks(t *testing.T) {
	c := NewChunker(0, -1)
	assert.Equal(t, DefaultChunkSize, c.chunkSize)
	assert.Equal(t, DefaultChunkOverlap, c.chunkOverlap)

	// Overlap >= size is rejected too.
	c = NewChunker(500, 500)
	assert.Equal(t, DefaultChunkOverlap, c.chunkOverlap)
}

func TestSourceReference(t *testing.T) {
	ch := &Chunk{SectionTitle: "휴가", ArticleNumber: "제5조"}
	assert.Equal(t, "휴가규정 > 휴가 > 제5조", ch.SourceReference("휴가규정"))

	bare := &Chunk{}
	assert.Equal(t, "휴가규정", bare.SourceReference("휴가규정"))
}
