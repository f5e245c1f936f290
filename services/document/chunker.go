// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package document

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Default chunking parameters. 1000 characters with a 200-character
// overlap keeps Korean policy articles intact in most documents.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// articlePattern matches clause-like line openings: 제1조/제1장/제1절/
// 제1항, dotted multi-level numbering (1.1, 1.1.1), circled numbers, and
// Korean lettered clauses (가. 나. ...).
var articlePattern = regexp.MustCompile(`^(제\s*\d+\s*[조장절항]|\d+\.\d+(\.\d+)*|[①②③④⑤⑥⑦⑧⑨⑩]|[가나다라마바사아자차카타파하]\.)\s*`)

// sectionPattern matches heading-like lines: numbered chapters
// (제1장/제1절), roman numerals, and top-level numbered headings. The
// second group is the section title text.
var sectionPattern = regexp.MustCompile(`^(제\s*\d+\s*[장절]|[IVX]+\.|\d+\.)\s*(.+)$`)

// Chunker splits extracted document text into bounded, overlapping
// chunks tagged with structural provenance. It is pure computation:
// safe for concurrent use and free of I/O.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunker creates a Chunker. Non-positive size falls back to
// DefaultChunkSize; a negative overlap or one not smaller than the
// chunk size falls back to DefaultChunkOverlap.
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = DefaultChunkOverlap
	}
	return &Chunker{chunkSize: chunkSize, chunkOverlap: chunkOverlap}
}

// segment is one non-empty line with the structural context it
// inherited from the most recent markers above it.
type segment struct {
	text    string
	section string
	article string
}

// Chunk splits raw text into ordered chunks for the given document.
// Lengths are counted in runes, not bytes; Korean text dominates the
// corpus and byte counting would third the effective chunk size.
//
// Offsets advance by a fixed stride of chunkSize−chunkOverlap per
// closed chunk. They approximate position in the source text and are
// monotonically non-decreasing, nothing more.
func (c *Chunker) Chunk(documentID uuid.UUID, rawText string) []Chunk {
	segments := splitSegments(rawText)
	if len(segments) == 0 {
		return nil
	}

	var (
		chunks      []Chunk
		buf         []rune
		section     string
		article     string
		ordinal     int
		startOffset int
	)

	emit := func(content string) {
		chunks = append(chunks, Chunk{
			ID:            uuid.New(),
			DocumentID:    documentID,
			Ordinal:       ordinal,
			Content:       content,
			SectionTitle:  section,
			ArticleNumber: article,
			StartOffset:   startOffset,
			EndOffset:     startOffset + len([]rune(content)),
		})
		ordinal++
	}

	for _, seg := range segments {
		if seg.section != "" {
			section = seg.section
		}
		if seg.article != "" {
			article = seg.article
		}

		text := []rune(seg.text)
		if len(buf) > 0 && len(buf)+len(text) > c.chunkSize {
			// Trim the trailing edge only: the buffer head may be an
			// overlap tail that the next chunk must repeat verbatim.
			content := strings.TrimRight(string(buf), " \t\n")
			if content != "" {
				emit(content)
			}
			buf = overlapTail([]rune(content), c.chunkOverlap)
			startOffset += c.chunkSize - c.chunkOverlap
		}

		buf = append(buf, text...)
		buf = append(buf, '\n')
	}

	if content := strings.TrimRight(string(buf), " \t\n"); content != "" {
		emit(content)
	}
	return chunks
}

// splitSegments breaks text into trimmed non-empty lines, each carrying
// the section title and article label in effect at that line.
func splitSegments(rawText string) []segment {
	var (
		segments []segment
		section  string
		article  string
	)
	for _, line := range strings.Split(rawText, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if m := sectionPattern.FindStringSubmatch(line); m != nil {
			section = m[2]
		}
		if m := articlePattern.FindStringSubmatch(line); m != nil {
			article = strings.TrimSpace(m[1])
		}

		segments = append(segments, segment{text: line, section: section, article: article})
	}
	return segments
}

// overlapTail returns the trailing overlap runes of the closed chunk's
// content, or all of it if shorter than the overlap.
func overlapTail(content []rune, overlap int) []rune {
	if len(content) <= overlap {
		return append([]rune(nil), content...)
	}
	return append([]rune(nil), content[len(content)-overlap:]...)
}
