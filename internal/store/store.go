// Package store owns the application document: one versioned JSON blob kept
// in memory as the source of truth and written through to the key-value
// backend on every mutation, best effort.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/CareMeds-Health/medication-service/internal/model"
	"github.com/CareMeds-Health/medication-service/internal/storage"
)

// Key is the fixed key the document is persisted under.
const Key = "medication-tracker-data"

// ErrStorageUnavailable marks the degraded in-memory-only mode. The service
// keeps working; data is lost on restart and the user is warned persistently.
var ErrStorageUnavailable = errors.New("storage backend unavailable, running in-memory only")

// Store holds the in-memory document and coordinates write-through. All
// mutation funnels through Update; reads go through View. The in-memory state
// is authoritative: a failed write-through surfaces as a warning and is never
// rolled back.
type Store struct {
	mu  sync.RWMutex
	doc *model.Document
	kv  storage.KV

	degraded bool
	gen      uint64

	saveMu  sync.Mutex
	warnMu  sync.Mutex
	warning string
}

// New creates a store over the given backend with an empty document. Call
// Load to read any persisted state.
func New(kv storage.KV) *Store {
	return &Store{doc: model.NewDocument(), kv: kv}
}

// Load reads the persisted document. A missing key yields a fresh document;
// a version mismatch is loaded as-is with a warning; an unreachable backend
// switches the store into degraded mode.
func (s *Store) Load(ctx context.Context) error {
	if s.kv == nil || !s.kv.Available(ctx) {
		s.degraded = true
		s.setWarning(ErrStorageUnavailable.Error())
		log.Printf("Warning: %v", ErrStorageUnavailable)
		return ErrStorageUnavailable
	}

	raw, err := s.kv.Get(ctx, Key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		s.setWarning(fmt.Sprintf("failed to load data: %v", err))
		return fmt.Errorf("failed to load document: %w", err)
	}

	var doc model.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		s.setWarning(fmt.Sprintf("stored data is corrupt: %v", err))
		return fmt.Errorf("failed to decode document: %w", err)
	}

	if doc.Version != model.SchemaVersion {
		log.Printf("Warning: storage version mismatch: %s vs %s, loading as-is", doc.Version, model.SchemaVersion)
	}
	normalize(&doc)

	s.mu.Lock()
	s.doc = &doc
	s.mu.Unlock()
	return nil
}

// View runs fn with read access to the document. fn must not retain or
// mutate it.
func (s *Store) View(fn func(doc *model.Document)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.doc)
}

// Snapshot returns a deep copy of the current document.
func (s *Store) Snapshot() *model.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone()
}

// Update applies fn to the document as a single state update. On success the
// mutation is immediately visible to readers and written through to the
// backend asynchronously. A persistence failure never rolls the mutation
// back. An error from fn leaves the document untouched.
func (s *Store) Update(fn func(doc *model.Document) error) error {
	s.mu.Lock()
	next := s.doc.Clone()
	if err := fn(next); err != nil {
		s.mu.Unlock()
		return err
	}
	next.Version = model.SchemaVersion
	next.LastModified = time.Now().UTC()
	s.doc = next
	s.gen++
	gen := s.gen
	snapshot, marshalErr := json.Marshal(next)
	s.mu.Unlock()

	if marshalErr != nil {
		s.setWarning(fmt.Sprintf("failed to encode data: %v", marshalErr))
		return nil
	}

	go s.writeThrough(string(snapshot), gen)
	return nil
}

func (s *Store) writeThrough(payload string, gen uint64) {
	if s.degraded || s.kv == nil {
		return
	}
	// Serialize writes; skip snapshots already superseded by a newer update.
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	s.mu.RLock()
	stale := gen < s.gen
	s.mu.RUnlock()
	if stale {
		return
	}
	if err := s.kv.Set(context.Background(), Key, payload); err != nil {
		log.Printf("Warning: failed to persist data: %v", err)
		s.setWarning(fmt.Sprintf("failed to save data: %v", err))
		return
	}
	s.clearWarning()
}

// Flush writes the current document synchronously. Used on shutdown.
func (s *Store) Flush(ctx context.Context) error {
	if s.degraded || s.kv == nil {
		return ErrStorageUnavailable
	}
	s.mu.RLock()
	payload, err := json.Marshal(s.doc)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	return s.kv.Set(ctx, Key, string(payload))
}

// Clear wipes the document and removes the persisted key.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.doc = model.NewDocument()
	s.mu.Unlock()

	if s.degraded || s.kv == nil {
		return nil
	}
	if err := s.kv.Remove(ctx, Key); err != nil {
		s.setWarning(fmt.Sprintf("failed to clear stored data: %v", err))
		return fmt.Errorf("failed to clear storage: %w", err)
	}
	return nil
}

// Degraded reports whether the store is running without persistence.
func (s *Store) Degraded() bool { return s.degraded }

// Warning returns the last persistence warning, empty when healthy.
func (s *Store) Warning() string {
	s.warnMu.Lock()
	defer s.warnMu.Unlock()
	return s.warning
}

func (s *Store) setWarning(msg string) {
	s.warnMu.Lock()
	s.warning = msg
	s.warnMu.Unlock()
}

func (s *Store) clearWarning() {
	s.warnMu.Lock()
	if s.warning != ErrStorageUnavailable.Error() {
		s.warning = ""
	}
	s.warnMu.Unlock()
}

// normalize fills nil slices so the rest of the code can range freely.
func normalize(doc *model.Document) {
	if doc.Patients == nil {
		doc.Patients = []model.Patient{}
	}
	if doc.Medicines == nil {
		doc.Medicines = []model.Medicine{}
	}
	if doc.DoseRecords == nil {
		doc.DoseRecords = []model.DoseRecord{}
	}
	if doc.RefillRecords == nil {
		doc.RefillRecords = []model.RefillRecord{}
	}
	if doc.Settings == (model.Settings{}) {
		doc.Settings = model.DefaultSettings()
	}
}
