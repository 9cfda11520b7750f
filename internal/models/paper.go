// Package models defines the catalog record shapes served by papershelf.
package models

import (
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Record is a single catalog entry. Paper and Preprint are the only
// implementations; a catalog never mixes the two.
type Record interface {
	// SearchTitle returns the text matched by free-text search.
	SearchTitle() string
	// FacetValue returns the record's value for f, or false when the
	// record's schema has no such facet.
	FacetValue(f Facet) (string, bool)
	// Card returns the display form of the record.
	Card() Card
}

// Card is the rendered form of a record.
type Card struct {
	Title   string   `json:"title"`
	Authors string   `json:"authors"`
	Details []Detail `json:"details"`
	Link    string   `json:"link,omitempty"`
}

// Detail is a labelled value shown on a card.
type Detail struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Paper is a record of the proceedings schema.
type Paper struct {
	Title       string   `json:"title" yaml:"title"`
	Authors     []string `json:"authors" yaml:"authors"`
	Year        int      `json:"year" yaml:"year"`
	Proceedings string   `json:"proceedings" yaml:"proceedings"`
	Type        string   `json:"type" yaml:"type"`
}

// Validate checks the fields the page cannot do without.
func (p Paper) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.Required),
		validation.Field(&p.Authors, validation.NotNil),
		validation.Field(&p.Year, validation.Required, validation.Min(1)),
	)
}

// SearchTitle implements Record.
func (p Paper) SearchTitle() string { return p.Title }

// FacetValue implements Record.
func (p Paper) FacetValue(f Facet) (string, bool) {
	switch f {
	case FacetYear:
		return strconv.Itoa(p.Year), true
	case FacetType:
		return p.Type, true
	case FacetProceedings:
		return p.Proceedings, true
	}
	return "", false
}

// Card implements Record.
func (p Paper) Card() Card {
	return Card{
		Title:   p.Title,
		Authors: strings.Join(p.Authors, ", "),
		Details: []Detail{
			{Label: "Year", Value: strconv.Itoa(p.Year)},
			{Label: "Proceedings", Value: p.Proceedings},
			{Label: "Type", Value: p.Type},
		},
	}
}

// Preprint is a record of the preprint schema. Its year facet comes from
// the publish date.
type Preprint struct {
	Title         string   `json:"title" yaml:"title"`
	Authors       []string `json:"authors" yaml:"authors"`
	URL           string   `json:"url" yaml:"url"`
	PublishedDate Date     `json:"published_date" yaml:"published_date"`
}

// Validate checks the fields the page cannot do without.
func (p Preprint) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.Required),
		validation.Field(&p.Authors, validation.NotNil),
		validation.Field(&p.URL, validation.Required, is.URL),
		validation.Field(&p.PublishedDate, validation.By(func(any) error {
			if p.PublishedDate.IsZero() {
				return validation.ErrRequired
			}
			return nil
		})),
	)
}

// SearchTitle implements Record.
func (p Preprint) SearchTitle() string { return p.Title }

// FacetValue implements Record.
func (p Preprint) FacetValue(f Facet) (string, bool) {
	if f != FacetYear || p.PublishedDate.IsZero() {
		return "", false
	}
	return strconv.Itoa(p.PublishedDate.Year()), true
}

// Card implements Record.
func (p Preprint) Card() Card {
	return Card{
		Title:   p.Title,
		Authors: strings.Join(p.Authors, ", "),
		Details: []Detail{
			{Label: "Published", Value: p.PublishedDate.Format(dateLayout)},
		},
		Link: p.URL,
	}
}
