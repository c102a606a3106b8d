// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package vault

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/sitka/pkg/telemetry"
)

var tracer = otel.Tracer("sitka/vault")

// Document is the shared on-disk JSON object: independent named sections
// (notes-by-date, drawing, boards, workspace index, ...) in one file.
// This layer treats section content as opaque.
type Document map[string]json.RawMessage

// DocumentStore owns the shared document file.
//
// # Description
//
// All operations go through one AccessQueue, so concurrent callers are
// serialized even when they touch unrelated sections. A write of any
// section re-serializes the entire document and persists it with Write.
//
// The file is created on first write. A missing file reads as an empty
// document.
//
// # Thread Safety
//
// Safe for concurrent use. Do not nest calls: UpdateSection callbacks must
// not call back into the store.
type DocumentStore struct {
	path   string
	queue  *AccessQueue
	logger *slog.Logger
}

// OpenDocumentStore creates a store for the document at path.
//
// The file itself is not touched until the first read or write; the parent
// directory is created if needed so the first atomic write can place its
// temp file.
func OpenDocumentStore(path string, logger *slog.Logger) (*DocumentStore, error) {
	if path == "" {
		return nil, fmt.Errorf("document path must not be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating document directory: %w", err)
	}
	return &DocumentStore{
		path:   path,
		queue:  NewAccessQueue(),
		logger: logger,
	}, nil
}

// Path returns the document's location on disk.
func (s *DocumentStore) Path() string {
	return s.path
}

// Read returns the full document under the lock.
func (s *DocumentStore) Read(ctx context.Context) (Document, error) {
	ctx, span := tracer.Start(ctx, "DocumentStore.Read")
	defer span.End()

	var doc Document
	err := s.queue.WithLock(ctx, func() error {
		var loadErr error
		doc, loadErr = s.load()
		return loadErr
	})
	return doc, err
}

// Section returns one section's raw JSON, or nil if the section is absent.
func (s *DocumentStore) Section(ctx context.Context, name string) (json.RawMessage, error) {
	doc, err := s.Read(ctx)
	if err != nil {
		return nil, err
	}
	return doc[name], nil
}

// UpdateSection applies a read-modify-write to one section.
//
// # Description
//
// Under the lock: the current document is loaded, fn receives the section's
// current raw JSON (nil if absent) and returns the replacement, and the
// whole document is re-serialized and atomically persisted. Returning nil
// raw JSON from fn removes the section.
//
// # Inputs
//
//   - ctx: Context for cancellation while waiting for the lock.
//   - name: Section name. Must not be empty.
//   - fn: Mutation. An error aborts the update; nothing is written.
//
// # Outputs
//
//   - error: Lock, load, mutation, or persistence error. On error the
//     on-disk document is unchanged.
func (s *DocumentStore) UpdateSection(ctx context.Context, name string,
	fn func(current json.RawMessage) (json.RawMessage, error)) error {

	if name == "" {
		return fmt.Errorf("section name must not be empty")
	}

	ctx, span := tracer.Start(ctx, "DocumentStore.UpdateSection")
	defer span.End()
	span.SetAttributes(attribute.String("vault.section", name))

	err := s.queue.WithLock(ctx, func() error {
		doc, err := s.load()
		if err != nil {
			return err
		}

		updated, err := fn(doc[name])
		if err != nil {
			return err
		}
		if updated == nil {
			delete(doc, name)
		} else {
			doc[name] = updated
		}

		return s.persist(doc)
	})

	if err != nil {
		sectionUpdatesTotal.WithLabelValues(name, "error").Inc()
		return err
	}
	sectionUpdatesTotal.WithLabelValues(name, "ok").Inc()
	telemetry.LoggerWithTrace(ctx, s.logger).Info("section updated",
		slog.String("section", name))
	return nil
}

// SetSection replaces one section wholesale.
func (s *DocumentStore) SetSection(ctx context.Context, name string, content json.RawMessage) error {
	return s.UpdateSection(ctx, name, func(json.RawMessage) (json.RawMessage, error) {
		return content, nil
	})
}

// load reads and parses the document. Caller must hold the lock.
func (s *DocumentStore) load() (Document, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return Document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading shared document: %w", err)
	}

	doc := Document{}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptDocument, s.path, err)
	}
	return doc, nil
}

// persist re-serializes the full document and writes it atomically.
// Caller must hold the lock.
func (s *DocumentStore) persist(doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling shared document: %w", err)
	}
	if err := Write(s.path, data, true); err != nil {
		s.logger.Error("shared document write failed",
			slog.String("path", s.path),
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}
