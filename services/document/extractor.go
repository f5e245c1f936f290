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
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Extraction is the result of pulling text out of a source file.
type Extraction struct {
	Content  string
	MimeType string
	Metadata map[string]string
}

// ContentExtractor turns a source file into raw text. Implementations
// fail with *ExtractionError on unreadable or corrupt input; the
// ingestion path aborts that document only.
type ContentExtractor interface {
	Extract(ctx context.Context, path string) (*Extraction, error)
}

// ExtractionError reports a file the extractor could not turn into
// text.
type ExtractionError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extracting %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// IsExtraction reports whether err is (or wraps) an *ExtractionError.
func IsExtraction(err error) bool {
	var ee *ExtractionError
	return errors.As(err, &ee)
}

// PlainTextExtractor extracts UTF-8 text files (.txt, .md). Binary
// document formats (PDF, HWP, DOCX) need an external extraction
// service plugged in behind the ContentExtractor interface.
type PlainTextExtractor struct{}

var textMimeTypes = map[string]string{
	".txt":      "text/plain",
	".md":       "text/markdown",
	".markdown": "text/markdown",
}

// Extract reads the file and validates it as UTF-8 text.
func (PlainTextExtractor) Extract(ctx context.Context, path string) (*Extraction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(path))
	mimeType, ok := textMimeTypes[ext]
	if !ok {
		return nil, &ExtractionError{Path: path, Err: fmt.Errorf("unsupported file extension %q", ext)}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ExtractionError{Path: path, Err: err}
	}
	if !utf8.Valid(data) {
		return nil, &ExtractionError{Path: path, Err: errors.New("not valid UTF-8 text")}
	}

	info, err := os.Stat(path)
	metadata := map[string]string{"file_name": filepath.Base(path)}
	if err == nil {
		metadata["size_bytes"] = fmt.Sprintf("%d", info.Size())
	}

	return &Extraction{
		Content:  string(data),
		MimeType: mimeType,
		Metadata: metadata,
	}, nil
}
