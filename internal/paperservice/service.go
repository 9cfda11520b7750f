// Package paperservice answers catalog queries for the HTTP, page and MCP
// surfaces on top of the store snapshot and the search index.
package paperservice

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/apperr"
	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/filter"
	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/index"
	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/models"
	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/store"
)

// DefaultSearchLimit caps search results when the caller passes no limit.
const DefaultSearchLimit = 20

// Listing is a filtered view of the catalog.
type Listing struct {
	Schema  models.Schema   `json:"schema"`
	Total   int             `json:"total"`
	Matched int             `json:"matched"`
	Papers  []models.Record `json:"papers"`
}

// Status describes the catalog load state.
type Status struct {
	State    store.State   `json:"state"`
	Schema   models.Schema `json:"schema"`
	Source   string        `json:"source"`
	Count    int           `json:"count"`
	Checksum string        `json:"checksum,omitempty"`
	Error    string        `json:"error,omitempty"`
	LoadedAt *time.Time    `json:"loaded_at,omitempty"`
}

// Hit is a single search result.
type Hit struct {
	Position int           `json:"position"`
	Title    string        `json:"title"`
	Snippet  string        `json:"snippet"`
	Paper    models.Record `json:"paper"`
}

// Service coordinates the store and the search index.
type Service struct {
	store *store.Store
	idx   index.PaperIndex
}

// NewService creates a new paper service. idx may be nil, in which case
// search runs over the in-memory snapshot.
func NewService(st *store.Store, idx index.PaperIndex) *Service {
	return &Service{store: st, idx: idx}
}

// Schema returns the catalog schema.
func (s *Service) Schema() models.Schema { return s.store.Schema() }

// Subscribe registers fn for every catalog version the store publishes.
func (s *Service) Subscribe(fn store.Listener) { s.store.Subscribe(fn) }

// Snapshot returns the current catalog snapshot.
func (s *Service) Snapshot() *store.Snapshot { return s.store.Snapshot() }

// View applies f to the current snapshot. It never fails: a catalog that
// is not loaded yields an empty listing.
func (s *Service) View(f filter.Filter) Listing {
	return ListingOf(s.store.Snapshot(), f)
}

// ListingOf applies f to snap. Callers that also read other fields of the
// snapshot use it to stay on a single catalog version.
func ListingOf(snap *store.Snapshot, f filter.Filter) Listing {
	shown := filter.Apply(snap.Records, f)
	return Listing{
		Schema:  snap.Schema,
		Total:   snap.Count(),
		Matched: len(shown),
		Papers:  shown,
	}
}

// List is View for callers that must distinguish an unloaded catalog.
func (s *Service) List(_ context.Context, f filter.Filter) (*Listing, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	l := s.View(f)
	return &l, nil
}

// Facets returns the selectable values of every facet of the schema.
func (s *Service) Facets(_ context.Context) (map[models.Facet][]string, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	snap := s.store.Snapshot()
	return filter.OptionSet(snap.Records, snap.Schema), nil
}

// Search returns papers whose title or authors match query. The index is
// used when it holds the current catalog version.
func (s *Service) Search(_ context.Context, query string, limit int) ([]Hit, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	snap := s.store.Snapshot()

	if s.idx != nil {
		if cs, err := s.idx.Checksum(); err == nil && cs == snap.Checksum {
			results, err := s.idx.Search(query, limit)
			if err != nil {
				return nil, err
			}
			hits := make([]Hit, 0, len(results))
			for _, r := range results {
				if r.Position < 0 || r.Position >= snap.Count() {
					continue
				}
				hits = append(hits, Hit{
					Position: r.Position,
					Title:    r.Title,
					Snippet:  r.Snippet,
					Paper:    snap.Records[r.Position],
				})
			}
			return hits, nil
		}
	}
	return scan(snap.Records, query, limit), nil
}

// Status reports the catalog load state.
func (s *Service) Status(_ context.Context) Status {
	snap := s.store.Snapshot()
	st := Status{
		State:    snap.State,
		Schema:   snap.Schema,
		Source:   snap.Source,
		Count:    snap.Count(),
		Checksum: snap.Checksum,
	}
	if snap.Err != nil {
		st.Error = snap.Err.Error()
	}
	if !snap.LoadedAt.IsZero() {
		t := snap.LoadedAt
		st.LoadedAt = &t
	}
	return st
}

// Raw returns the catalog bytes as fetched and their checksum.
func (s *Service) Raw(_ context.Context) ([]byte, string, error) {
	if err := s.ready(); err != nil {
		return nil, "", err
	}
	snap := s.store.Snapshot()
	return snap.Raw, snap.Checksum, nil
}

// IndexListener returns a store listener that keeps idx in line with every
// loaded snapshot.
func IndexListener(idx index.PaperIndex, logger *slog.Logger) store.Listener {
	return func(snap *store.Snapshot) {
		if snap.State != store.StateLoaded {
			return
		}
		if err := index.Sync(idx, snap.Checksum, snap.Records, logger); err != nil {
			logger.Error("index sync failed", slog.String("error", err.Error()))
		}
	}
}

func (s *Service) ready() error {
	if s.store.Snapshot().State != store.StateLoaded {
		return apperr.ErrNotLoaded
	}
	return nil
}

// scan searches the snapshot when the index is unavailable or stale. Every
// query term must appear in the title or the authors.
func scan(records []models.Record, query string, limit int) []Hit {
	terms := strings.Fields(query)
	matchers := make([]*filter.Matcher, len(terms))
	for i, t := range terms {
		matchers[i] = filter.NewMatcher(t)
	}

	hits := make([]Hit, 0)
	if len(terms) == 0 {
		return hits
	}
	for i, r := range records {
		if len(hits) >= limit {
			break
		}
		card := r.Card()
		text := card.Title + "\n" + card.Authors
		matched := true
		for _, m := range matchers {
			if !m.Match(text) {
				matched = false
				break
			}
		}
		if matched {
			hits = append(hits, Hit{Position: i, Title: card.Title, Snippet: card.Authors, Paper: r})
		}
	}
	return hits
}
