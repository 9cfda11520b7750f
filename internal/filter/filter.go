// Package filter derives the visible subset of a paper catalog from the
// current search text and facet selections.
//
// Every function here is total: an empty catalog yields an empty view and
// empty option sets, and the input collection is never modified.
package filter

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/apperr"
	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/models"
)

// AllValue is the legacy "match everything" spelling accepted at input
// boundaries. Inside the package an unconstrained facet is simply absent.
const AllValue = "all"

// Filter is the active predicate. The zero value matches every record.
type Filter struct {
	// Search is matched case-insensitively against record titles.
	Search string

	selected map[models.Facet]string
}

// Select returns a copy of f with facet constrained to value.
func (f Filter) Select(facet models.Facet, value string) Filter {
	next := f.clone()
	next.selected[facet] = value
	return next
}

// Clear returns a copy of f with facet unconstrained.
func (f Filter) Clear(facet models.Facet) Filter {
	next := f.clone()
	delete(next.selected, facet)
	return next
}

// Selected returns the value facet is constrained to, if any.
func (f Filter) Selected(facet models.Facet) (string, bool) {
	v, ok := f.selected[facet]
	return v, ok
}

// Selections returns the constrained facets and their values, ordered by
// facet name.
func (f Filter) Selections() []Selection {
	out := make([]Selection, 0, len(f.selected))
	for facet, v := range f.selected {
		out = append(out, Selection{Facet: facet, Value: v})
	}
	slices.SortFunc(out, func(a, b Selection) int { return strings.Compare(string(a.Facet), string(b.Facet)) })
	return out
}

// Unconstrained reports whether f matches every record.
func (f Filter) Unconstrained() bool {
	return f.Search == "" && len(f.selected) == 0
}

func (f Filter) clone() Filter {
	sel := make(map[models.Facet]string, len(f.selected)+1)
	for k, v := range f.selected {
		sel[k] = v
	}
	return Filter{Search: f.Search, selected: sel}
}

// Selection is a single constrained facet.
type Selection struct {
	Facet models.Facet `json:"facet"`
	Value string       `json:"value"`
}

// NormalizeSelection maps raw user input to a facet selection. Empty input
// and "all" (any case) mean unconstrained.
func NormalizeSelection(raw string) (string, bool) {
	v := strings.TrimSpace(raw)
	if v == "" || strings.EqualFold(v, AllValue) {
		return "", false
	}
	return v, true
}

// FromQuery builds a Filter from request parameters: q for the search text
// and one parameter per facet of schema. Constraining a facet the schema
// does not have is an error.
func FromQuery(values url.Values, schema models.Schema) (Filter, error) {
	f := Filter{Search: values.Get("q")}
	for _, facet := range []models.Facet{models.FacetYear, models.FacetType, models.FacetProceedings} {
		v, ok := NormalizeSelection(values.Get(string(facet)))
		if !ok {
			continue
		}
		if !schema.HasFacet(facet) {
			return Filter{}, fmt.Errorf("%w: %s is not filterable in the %s schema", apperr.ErrInvalidFacet, facet, schema)
		}
		f = f.Select(facet, v)
	}
	return f, nil
}

// Query encodes f as request parameters, the inverse of FromQuery.
func (f Filter) Query() url.Values {
	q := url.Values{}
	if f.Search != "" {
		q.Set("q", f.Search)
	}
	for _, s := range f.Selections() {
		q.Set(string(s.Facet), s.Value)
	}
	return q
}

// Apply returns the records that satisfy every active predicate, in their
// original order. The result is always a fresh, non-nil slice.
func Apply[R models.Record](records []R, f Filter) []R {
	out := make([]R, 0, len(records))
	m := NewMatcher(f.Search)
	for _, r := range records {
		if !m.Match(r.SearchTitle()) {
			continue
		}
		if !matchesFacets(r, f.selected) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Matcher tests text for a search needle, ignoring case. An empty needle
// matches everything. A Matcher is not safe for concurrent use.
type Matcher struct {
	caser  cases.Caser
	needle string
}

// NewMatcher prepares search for repeated matching.
func NewMatcher(search string) *Matcher {
	m := &Matcher{}
	if search != "" {
		m.caser = cases.Fold()
		m.needle = fold(m.caser, search)
	}
	return m
}

// Match reports whether text contains the needle.
func (m *Matcher) Match(text string) bool {
	if m.needle == "" {
		return true
	}
	return strings.Contains(fold(m.caser, text), m.needle)
}

func matchesFacets(r models.Record, selected map[models.Facet]string) bool {
	for facet, want := range selected {
		got, ok := r.FacetValue(facet)
		if !ok || got != want {
			return false
		}
	}
	return true
}

// fold prepares text for case-insensitive comparison. A Caser is not safe
// for concurrent use, so callers own theirs.
func fold(c cases.Caser, s string) string {
	return c.String(norm.NFKC.String(s))
}
