// Package store holds the in-memory paper catalog.
//
// The catalog is read once at startup. Readers get immutable snapshots
// through an atomic pointer and never block; a reload publishes a new
// snapshot instead of mutating the old one.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/checksum"
	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/models"
	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/parser"
)

// State is the load state of the catalog.
type State string

// Catalog states.
const (
	StatePending State = "pending"
	StateLoaded  State = "loaded"
	StateFailed  State = "failed"
)

// Snapshot is an immutable view of the catalog. Callers must not modify
// Records or Raw.
type Snapshot struct {
	Schema   models.Schema
	Records  []models.Record
	State    State
	Err      error
	Raw      []byte
	Checksum string
	Source   string
	LoadedAt time.Time
}

// Count returns the number of records.
func (s *Snapshot) Count() int { return len(s.Records) }

// Listener is notified after a snapshot is published.
type Listener func(*Snapshot)

// Store owns the catalog snapshot.
type Store struct {
	src    Source
	schema models.Schema
	format parser.Format
	logger *slog.Logger

	snap atomic.Pointer[Snapshot]

	loadOnce sync.Once
	loadErr  error
	reloadMu sync.Mutex

	mu        sync.Mutex
	listeners []Listener
}

// New creates a store that will read src under schema. Nothing is read
// until Load.
func New(src Source, schema models.Schema, logger *slog.Logger) *Store {
	s := &Store{
		src:    src,
		schema: schema,
		format: parser.FormatFor(src.Name()),
		logger: logger,
	}
	s.snap.Store(&Snapshot{
		Schema:  schema,
		Records: []models.Record{},
		State:   StatePending,
		Source:  src.Name(),
	})
	return s
}

// Snapshot returns the current catalog.
func (s *Store) Snapshot() *Snapshot {
	return s.snap.Load()
}

// Schema returns the configured record schema.
func (s *Store) Schema() models.Schema { return s.schema }

// Source returns the catalog source.
func (s *Store) Source() Source { return s.src }

// Subscribe registers fn for every published snapshot, including the
// failed one produced by an unsuccessful Load.
func (s *Store) Subscribe(fn Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Load reads the catalog once. Later calls return the first result without
// reading again. On failure the catalog stays empty and the snapshot
// carries the error.
func (s *Store) Load(ctx context.Context) error {
	s.loadOnce.Do(func() {
		s.reloadMu.Lock()
		defer s.reloadMu.Unlock()

		snap, err := s.read(ctx)
		if err != nil {
			s.logger.Error("catalog load failed",
				slog.String("source", s.src.Name()),
				slog.String("error", err.Error()))
			s.loadErr = err
			s.publish(&Snapshot{
				Schema:   s.schema,
				Records:  []models.Record{},
				State:    StateFailed,
				Err:      err,
				Source:   s.src.Name(),
				LoadedAt: time.Now(),
			})
			return
		}
		s.logger.Info("catalog loaded",
			slog.String("source", s.src.Name()),
			slog.String("schema", string(s.schema)),
			slog.Int("records", snap.Count()))
		s.publish(snap)
	})
	return s.loadErr
}

// Reload reads the catalog again and publishes it when its checksum has
// changed. A failed reload keeps the current records.
func (s *Store) Reload(ctx context.Context) (bool, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	snap, err := s.read(ctx)
	if err != nil {
		s.logger.Warn("catalog reload failed",
			slog.String("source", s.src.Name()),
			slog.String("error", err.Error()))
		return false, err
	}
	cur := s.snap.Load()
	if cur.State == StateLoaded && cur.Checksum == snap.Checksum {
		s.logger.Debug("catalog unchanged", slog.String("checksum", snap.Checksum))
		return false, nil
	}
	s.logger.Info("catalog reloaded",
		slog.String("source", s.src.Name()),
		slog.Int("records", snap.Count()))
	s.publish(snap)
	return true, nil
}

func (s *Store) read(ctx context.Context) (*Snapshot, error) {
	data, err := s.src.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: fetch: %w", err)
	}
	records, err := parser.Parse(data, s.format, s.schema)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	return &Snapshot{
		Schema:   s.schema,
		Records:  records,
		State:    StateLoaded,
		Raw:      data,
		Checksum: checksum.Sum(data),
		Source:   s.src.Name(),
		LoadedAt: time.Now(),
	}, nil
}

func (s *Store) publish(snap *Snapshot) {
	s.snap.Store(snap)

	s.mu.Lock()
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}
