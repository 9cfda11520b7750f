package api

import (
	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/models"
	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/paperservice"
)

// PaperListResponse is the filtered catalog view (aliased from the domain layer).
type PaperListResponse = paperservice.Listing

// StatusResponse is the catalog load state (aliased from the domain layer).
type StatusResponse = paperservice.Status

// SearchHit is a single search hit (aliased from the domain layer).
type SearchHit = paperservice.Hit

// FacetsResponse lists the selectable values of every facet.
type FacetsResponse struct {
	Schema models.Schema             `json:"schema" example:"proceedings" validate:"required"`
	Facets map[models.Facet][]string `json:"facets" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Query   string      `json:"query" example:"backdoor" validate:"required"`
	Results []SearchHit `json:"results" validate:"required"`
}
