package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Schema names one of the two catalog wire formats.
type Schema string

// Supported schemas.
const (
	// SchemaProceedings: title, authors, year, proceedings, type.
	SchemaProceedings Schema = "proceedings"
	// SchemaPreprint: title, authors, url, published_date.
	SchemaPreprint Schema = "preprint"
)

// Valid reports whether s is a known schema.
func (s Schema) Valid() bool {
	return s == SchemaProceedings || s == SchemaPreprint
}

// Facets returns the filterable facets of s in display order.
func (s Schema) Facets() []Facet {
	switch s {
	case SchemaProceedings:
		return []Facet{FacetYear, FacetProceedings, FacetType}
	case SchemaPreprint:
		return []Facet{FacetYear}
	}
	return nil
}

// HasFacet reports whether f is filterable under s.
func (s Schema) HasFacet(f Facet) bool {
	for _, sf := range s.Facets() {
		if sf == f {
			return true
		}
	}
	return false
}

// Facet is a record field used as an exact-match filter dimension.
type Facet string

// Known facets. The string value doubles as the query parameter name.
const (
	FacetYear        Facet = "year"
	FacetType        Facet = "type"
	FacetProceedings Facet = "proceedings"
)

// Label returns the capitalised facet name.
func (f Facet) Label() string {
	s := string(f)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// AllLabel is the caption of the unconstrained option, e.g. "All Years".
func (f Facet) AllLabel() string {
	l := f.Label()
	if !strings.HasSuffix(l, "s") {
		l += "s"
	}
	return "All " + l
}

const dateLayout = "2006-01-02"

// dateLayouts are tried in order. The second covers naive ISO timestamps
// such as Python's datetime.isoformat() output.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	dateLayout,
}

// Date is an ISO-8601 date or timestamp that keeps its original spelling.
type Date struct {
	time.Time
	raw string
}

// ParseDate parses s using the accepted ISO layouts.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Time: t, raw: s}, nil
		}
	}
	return Date{}, fmt.Errorf("invalid ISO date %q", s)
}

// String returns the original spelling, or the date part when none is known.
func (d Date) String() string {
	if d.raw != "" {
		return d.raw
	}
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("published_date: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
