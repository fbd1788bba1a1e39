// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/pathfinder/services/paths/source"
)

const (
	edgeKeyPrefix = "edge:"
	importMetaKey = "meta:import"
)

// ImportMeta describes the last import into the store.
type ImportMeta struct {
	// Source is a human-readable description, usually the CSV path.
	Source string `json:"source"`

	// Records is the number of records written by the import.
	Records int `json:"records"`

	// ImportedAt is when the import finished.
	ImportedAt time.Time `json:"imported_at"`
}

// EdgeStore persists edge records in insertion order.
//
// # Description
//
// Each record is stored under "edge:<seq>" with a zero-padded sequence
// number so key order equals insertion order. Values are JSON encoded
// source.EdgeRecord. The store does not validate records; validate them
// with source.BuildFromRecords before writing.
//
// # Thread Safety
//
// Safe for concurrent use. Writers are serialized so sequence numbers stay
// contiguous within a Put.
type EdgeStore struct {
	db     *DB
	mu     sync.Mutex
	seq    uint64
	logger *slog.Logger
}

// NewEdgeStore opens an edge store over db and recovers the sequence number.
func NewEdgeStore(ctx context.Context, db *DB, logger *slog.Logger) (*EdgeStore, error) {
	if db == nil {
		return nil, errors.New("db must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &EdgeStore{db: db, logger: logger}
	if err := s.initSeq(ctx); err != nil {
		return nil, fmt.Errorf("init sequence number: %w", err)
	}
	return s, nil
}

// initSeq finds the highest existing sequence number.
func (s *EdgeStore) initSeq(ctx context.Context) error {
	prefix := []byte(edgeKeyPrefix)
	return s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Reverse = true

		it := txn.NewIterator(opts)
		defer it.Close()

		seekKey := append(append([]byte{}, prefix...), 0xFF)
		it.Seek(seekKey)
		if it.ValidForPrefix(prefix) {
			var seq uint64
			if _, err := fmt.Sscanf(string(it.Item().Key()[len(prefix):]), "%016d", &seq); err == nil {
				s.seq = seq
			}
		}
		return nil
	})
}

func edgeKey(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%016d", edgeKeyPrefix, seq))
}

// Put appends records to the store.
//
// # Outputs
//
//   - int: Number of records written.
//   - error: Encoding, context, or BadgerDB write errors. Nothing is
//     visible to readers unless the whole batch is flushed.
func (s *EdgeStore) Put(ctx context.Context, records ...source.EdgeRecord) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	next := s.seq
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		value, err := json.Marshal(rec)
		if err != nil {
			return 0, fmt.Errorf("encode record %s->%s: %w", rec.From, rec.To, err)
		}
		next++
		if err := wb.Set(edgeKey(next), value); err != nil {
			return 0, fmt.Errorf("stage record %d: %w", next, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("flush edge records: %w", err)
	}

	s.seq = next
	return len(records), nil
}

// Load returns every stored record in insertion order.
func (s *EdgeStore) Load(ctx context.Context) ([]source.EdgeRecord, error) {
	var records []source.EdgeRecord
	prefix := []byte(edgeKeyPrefix)

	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			var rec source.EdgeRecord
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return fmt.Errorf("decode %s: %w", item.Key(), err)
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load edge records: %w", err)
	}
	return records, nil
}

// Count returns the number of stored records without decoding values.
func (s *EdgeStore) Count(ctx context.Context) (int, error) {
	n := 0
	prefix := []byte(edgeKeyPrefix)
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Clear removes all records and import metadata.
func (s *EdgeStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.DropPrefix([]byte(edgeKeyPrefix), []byte(importMetaKey)); err != nil {
		return fmt.Errorf("clear edge store: %w", err)
	}
	s.seq = 0
	return nil
}

// Replace clears the store, writes records, and records import metadata.
//
// # Description
//
// Used by the import command. The caller should have built a graph from
// records first so malformed data never reaches the store.
func (s *EdgeStore) Replace(ctx context.Context, sourceDesc string, records []source.EdgeRecord) (ImportMeta, error) {
	if err := s.Clear(ctx); err != nil {
		return ImportMeta{}, err
	}
	n, err := s.Put(ctx, records...)
	if err != nil {
		return ImportMeta{}, err
	}

	meta := ImportMeta{Source: sourceDesc, Records: n, ImportedAt: time.Now().UTC()}
	value, err := json.Marshal(meta)
	if err != nil {
		return ImportMeta{}, fmt.Errorf("encode import meta: %w", err)
	}
	err = s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		return txn.Set([]byte(importMetaKey), value)
	})
	if err != nil {
		return ImportMeta{}, fmt.Errorf("write import meta: %w", err)
	}

	s.logger.Info("edge store replaced",
		slog.String("source", sourceDesc),
		slog.Int("records", n))
	return meta, nil
}

// Meta returns the last import metadata. The bool is false if the store
// was never populated by Replace.
func (s *EdgeStore) Meta(ctx context.Context) (ImportMeta, bool, error) {
	var meta ImportMeta
	found := false
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(importMetaKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		})
	})
	if err != nil {
		return ImportMeta{}, false, fmt.Errorf("read import meta: %w", err)
	}
	return meta, found, nil
}
