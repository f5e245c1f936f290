// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ontology

import (
	"errors"
	"fmt"
)

var (
	// ErrConceptNotFound is returned when a referenced concept does not
	// exist in the store.
	ErrConceptNotFound = errors.New("ontology: concept not found")

	// ErrRelationNotFound is returned when a referenced relation does
	// not exist in the store.
	ErrRelationNotFound = errors.New("ontology: relation not found")

	// ErrRuleNotFound is returned when a referenced rule does not exist
	// in the store.
	ErrRuleNotFound = errors.New("ontology: rule not found")

	// ErrConceptInUse is returned when deleting a concept that is still
	// an endpoint of one or more relations.
	ErrConceptInUse = errors.New("ontology: concept still referenced by relations")
)

// ValidationError reports a malformed enumerated-type value, such as an
// unknown concept, relation, or rule type string. It is raised
// immediately to the caller and never retried.
type ValidationError struct {
	Field string
	Value string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Field, e.Value)
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// isNotFound reports whether err is a missing-concept error. Expansion
// treats these as empty matches rather than failures.
func isNotFound(err error) bool {
	return errors.Is(err, ErrConceptNotFound)
}
