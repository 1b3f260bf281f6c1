// AeroSentry - Drone Incident Correlation and Evidentiary Fusion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aerosentry

// Package archive persists enriched incident snapshots to an embedded
// BadgerDB store. The archive is append-only: every update to an incident
// writes a new timestamped snapshot, so the evidentiary trail of how an
// incident evolved is preserved across restarts.
package archive

import (
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/aerosentry/internal/logging"
	"github.com/tomtom215/aerosentry/internal/metrics"
	"github.com/tomtom215/aerosentry/internal/models"
)

// Key prefixes for BadgerDB storage.
const (
	incidentKeyPrefix = "incident:"
	patternKeyPrefix  = "pattern:"
)

// Store is an append-only archive backed by BadgerDB.
type Store struct {
	db *badger.DB
}

// Open creates (or reopens) the archive at the given path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("archive path is required")
	}

	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	logging.Info().Str("path", path).Msg("incident archive opened")
	return &Store{db: db}, nil
}

// Close flushes and closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// WriteIncident appends a snapshot of the incident. Keys embed the
// incident ID and the snapshot time, so per-incident history iterates in
// chronological order.
func (s *Store) WriteIncident(in *models.Incident) error {
	data, err := json.Marshal(in)
	if err != nil {
		metrics.RecordArchiveWrite(err)
		return fmt.Errorf("marshal incident snapshot: %w", err)
	}

	key := []byte(incidentKeyPrefix + in.ID + ":" + in.LastUpdatedAt.UTC().Format(time.RFC3339Nano))
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
	metrics.RecordArchiveWrite(err)
	if err != nil {
		return fmt.Errorf("archive incident %s: %w", in.ID, err)
	}
	return nil
}

// WritePattern stores a detected pattern.
func (s *Store) WritePattern(p *models.Pattern) error {
	data, err := json.Marshal(p)
	if err != nil {
		metrics.RecordArchiveWrite(err)
		return fmt.Errorf("marshal pattern: %w", err)
	}

	key := []byte(patternKeyPrefix + p.DetectedAt.UTC().Format(time.RFC3339Nano) + ":" + p.ID)
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
	metrics.RecordArchiveWrite(err)
	if err != nil {
		return fmt.Errorf("archive pattern %s: %w", p.ID, err)
	}
	return nil
}

// IncidentHistory returns all archived snapshots of an incident, oldest
// first.
func (s *Store) IncidentHistory(id string) ([]*models.Incident, error) {
	var history []*models.Incident

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		prefix := []byte(incidentKeyPrefix + id + ":")
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var in models.Incident
				if err := json.Unmarshal(val, &in); err != nil {
					return fmt.Errorf("unmarshal snapshot: %w", err)
				}
				history = append(history, &in)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return history, nil
}

// Patterns returns all archived patterns in detection order.
func (s *Store) Patterns() ([]*models.Pattern, error) {
	var patterns []*models.Pattern

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		prefix := []byte(patternKeyPrefix)
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var p models.Pattern
				if err := json.Unmarshal(val, &p); err != nil {
					return fmt.Errorf("unmarshal pattern: %w", err)
				}
				patterns = append(patterns, &p)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return patterns, nil
}
