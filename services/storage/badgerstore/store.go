// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/AleutianAI/policyqna/services/document"
	"github.com/AleutianAI/policyqna/services/ontology"
)

// Key prefixes. Relations are keyed by a monotonic sequence number so
// prefix iteration returns them in insertion order, which the graph
// traversal and expansion contracts require.
const (
	prefixConcept  = "concept:"
	prefixRelation = "relation:"
	prefixRule     = "rule:"
	prefixDocument = "doc:"
	prefixChunks   = "chunks:"

	relationSeqKey = "seq:relation"
)

// Store is the BadgerDB-backed persistence layer. It implements
// ontology.Store and document.DocumentStore.
type Store struct {
	db     *badger.DB
	relSeq *badger.Sequence
}

// Open opens (creating if necessary) the store at the configured path.
// Callers must Close when done.
func Open(cfg Config) (*Store, error) {
	db, err := open(cfg)
	if err != nil {
		return nil, err
	}
	seq, err := db.GetSequence([]byte(relationSeqKey), 64)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("relation sequence: %w", err)
	}
	return &Store{db: db, relSeq: seq}, nil
}

// OpenInMemory opens a non-persistent store for tests.
func OpenInMemory() (*Store, error) {
	return Open(Config{InMemory: true})
}

// Close releases the sequence and closes the database.
func (s *Store) Close() error {
	if err := s.relSeq.Release(); err != nil {
		s.db.Close()
		return fmt.Errorf("release relation sequence: %w", err)
	}
	return s.db.Close()
}

func setJSON(txn *badger.Txn, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return txn.Set([]byte(key), data)
}

func getJSON(txn *badger.Txn, key string, v interface{}) error {
	item, err := txn.Get([]byte(key))
	if err != nil {
		return err
	}
	return item.Value(func(data []byte) error {
		return json.Unmarshal(data, v)
	})
}

// scanJSON iterates every value under the prefix in key order, decoding
// into a fresh T and passing it to fn.
func scanJSON[T any](txn *badger.Txn, prefix string, fn func(*T) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		var v T
		err := it.Item().Value(func(data []byte) error {
			return json.Unmarshal(data, &v)
		})
		if err != nil {
			return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
		}
		if err := fn(&v); err != nil {
			return err
		}
	}
	return nil
}

// --- ontology.ConceptStore ---

func (s *Store) SaveConcept(ctx context.Context, concept *ontology.Concept) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, prefixConcept+concept.ID.String(), concept)
	})
}

func (s *Store) GetConcept(ctx context.Context, id uuid.UUID) (*ontology.Concept, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var concept ontology.Concept
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, prefixConcept+id.String(), &concept)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ontology.ErrConceptNotFound
	}
	if err != nil {
		return nil, err
	}
	return &concept, nil
}

func (s *Store) FindConceptByName(ctx context.Context, name string) (*ontology.Concept, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var found *ontology.Concept
	err := s.db.View(func(txn *badger.Txn) error {
		return scanJSON(txn, prefixConcept, func(c *ontology.Concept) error {
			if found == nil && c.Name == name {
				found = c
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, ontology.ErrConceptNotFound
	}
	return found, nil
}

func (s *Store) FindConceptsBySynonym(ctx context.Context, term string) ([]*ontology.Concept, error) {
	return s.findConcepts(ctx, func(c *ontology.Concept) bool { return c.HasSynonym(term) })
}

func (s *Store) FindConceptsByAbbreviation(ctx context.Context, term string) ([]*ontology.Concept, error) {
	return s.findConcepts(ctx, func(c *ontology.Concept) bool { return c.HasAbbreviation(term) })
}

func (s *Store) findConcepts(ctx context.Context, match func(*ontology.Concept) bool) ([]*ontology.Concept, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*ontology.Concept
	err := s.db.View(func(txn *badger.Txn) error {
		return scanJSON(txn, prefixConcept, func(c *ontology.Concept) error {
			if match(c) {
				out = append(out, c)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteConcept rejects deletion with ontology.ErrConceptInUse while
// any relation still references the concept as source or target.
func (s *Store) DeleteConcept(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		key := prefixConcept + id.String()
		if _, err := txn.Get([]byte(key)); errors.Is(err, badger.ErrKeyNotFound) {
			return ontology.ErrConceptNotFound
		} else if err != nil {
			return err
		}

		inUse := false
		err := scanJSON(txn, prefixRelation, func(r *ontology.Relation) error {
			if r.SourceID == id || r.TargetID == id {
				inUse = true
			}
			return nil
		})
		if err != nil {
			return err
		}
		if inUse {
			return ontology.ErrConceptInUse
		}
		return txn.Delete([]byte(key))
	})
}

// --- ontology.RelationStore ---

// SaveRelation upserts by Relation.ID: re-saving an existing relation
// overwrites it in place, keeping its insertion-order position.
func (s *Store) SaveRelation(ctx context.Context, relation *ontology.Relation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := s.findRelationKey(relation.ID)
	if err != nil {
		return err
	}
	if key == "" {
		seq, err := s.relSeq.Next()
		if err != nil {
			return fmt.Errorf("relation sequence: %w", err)
		}
		key = relationKey(seq)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, key, relation)
	})
}

// findRelationKey returns the storage key holding the relation, or ""
// when the id is unknown.
func (s *Store) findRelationKey(id uuid.UUID) (string, error) {
	var key string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixRelation)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var r ontology.Relation
			err := it.Item().Value(func(data []byte) error {
				return json.Unmarshal(data, &r)
			})
			if err != nil {
				return err
			}
			if r.ID == id {
				key = string(it.Item().KeyCopy(nil))
				return nil
			}
		}
		return nil
	})
	return key, err
}

func relationKey(seq uint64) string {
	return fmt.Sprintf("%s%020d", prefixRelation, seq)
}

func (s *Store) FindRelationsBySource(ctx context.Context, sourceID uuid.UUID) ([]*ontology.Relation, error) {
	return s.findRelations(ctx, func(r *ontology.Relation) bool { return r.SourceID == sourceID })
}

func (s *Store) FindRelationsByTypeAndSource(ctx context.Context, relType ontology.RelationType, sourceID uuid.UUID) ([]*ontology.Relation, error) {
	return s.findRelations(ctx, func(r *ontology.Relation) bool {
		return r.SourceID == sourceID && r.Type == relType
	})
}

func (s *Store) findRelations(ctx context.Context, match func(*ontology.Relation) bool) ([]*ontology.Relation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*ontology.Relation
	err := s.db.View(func(txn *badger.Txn) error {
		return scanJSON(txn, prefixRelation, func(r *ontology.Relation) error {
			if match(r) {
				out = append(out, r)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) DeleteRelation(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixRelation)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var r ontology.Relation
			err := it.Item().Value(func(data []byte) error {
				return json.Unmarshal(data, &r)
			})
			if err != nil {
				return err
			}
			if r.ID == id {
				return txn.Delete(it.Item().KeyCopy(nil))
			}
		}
		return ontology.ErrRelationNotFound
	})
}

// --- ontology.RuleStore ---

func (s *Store) SaveRule(ctx context.Context, rule *ontology.Rule) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, prefixRule+rule.ID.String(), rule)
	})
}

func (s *Store) GetRule(ctx context.Context, id uuid.UUID) (*ontology.Rule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rule ontology.Rule
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, prefixRule+id.String(), &rule)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ontology.ErrRuleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

// FindActiveRulesByType returns active rules of the type in descending
// priority order. Key order breaks priority ties deterministically.
func (s *Store) FindActiveRulesByType(ctx context.Context, ruleType ontology.RuleType) ([]*ontology.Rule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*ontology.Rule
	err := s.db.View(func(txn *badger.Txn) error {
		return scanJSON(txn, prefixRule, func(r *ontology.Rule) error {
			if r.Active && r.Type == ruleType {
				out = append(out, r)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out, nil
}

func (s *Store) DeleteRule(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		key := []byte(prefixRule + id.String())
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return ontology.ErrRuleNotFound
		} else if err != nil {
			return err
		}
		return txn.Delete(key)
	})
}

// --- document.DocumentStore ---

func (s *Store) SaveDocument(ctx context.Context, doc *document.PolicyDocument) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, prefixDocument+doc.ID.String(), doc)
	})
}

func (s *Store) GetDocument(ctx context.Context, id uuid.UUID) (*document.PolicyDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var doc document.PolicyDocument
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, prefixDocument+id.String(), &doc)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, document.ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *Store) FindDocumentByCode(ctx context.Context, code string) (*document.PolicyDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var found *document.PolicyDocument
	err := s.db.View(func(txn *badger.Txn) error {
		return scanJSON(txn, prefixDocument, func(d *document.PolicyDocument) error {
			if found == nil && d.Code == code {
				found = d
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, document.ErrDocumentNotFound
	}
	return found, nil
}

func (s *Store) ListDocuments(ctx context.Context) ([]*document.PolicyDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*document.PolicyDocument
	err := s.db.View(func(txn *badger.Txn) error {
		return scanJSON(txn, prefixDocument, func(d *document.PolicyDocument) error {
			out = append(out, d)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// DeleteDocument removes the document and its chunk set in one
// transaction.
func (s *Store) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		key := []byte(prefixDocument + id.String())
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return document.ErrDocumentNotFound
		} else if err != nil {
			return err
		}
		if err := txn.Delete(key); err != nil {
			return err
		}
		err := txn.Delete([]byte(prefixChunks + id.String()))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// SaveChunks replaces the document's chunk set.
func (s *Store) SaveChunks(ctx context.Context, documentID uuid.UUID, chunks []document.Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		key := prefixChunks + documentID.String()
		if len(chunks) == 0 {
			err := txn.Delete([]byte(key))
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		return setJSON(txn, key, chunks)
	})
}

func (s *Store) GetChunks(ctx context.Context, documentID uuid.UUID) ([]document.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var chunks []document.Chunk
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, prefixChunks+documentID.String(), &chunks)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return chunks, nil
}
