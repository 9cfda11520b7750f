package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/apperr"
	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/filter"
	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/paperservice"
)

// maxSearchLimit bounds the limit query parameter of /search.
const maxSearchLimit = 200

// Handler holds API route handlers.
type Handler struct {
	svc *paperservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *paperservice.Service) *Handler {
	return &Handler{svc: svc}
}

// ListPapers handles GET /api/papers.
//
//	@Summary		List papers matching the search text and facet selections
//	@Tags			papers
//	@Produce		json
//	@Param			q			query		string	false	"Case-insensitive title search"
//	@Param			year		query		string	false	"Year, or all"
//	@Param			type		query		string	false	"Type, or all (proceedings schema)"
//	@Param			proceedings	query		string	false	"Proceedings, or all (proceedings schema)"
//	@Success		200			{object}	PaperListResponse
//	@Failure		400			{object}	errResponse
//	@Failure		503			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/papers [get]
func (h *Handler) ListPapers(w http.ResponseWriter, r *http.Request) {
	f, err := filter.FromQuery(r.URL.Query(), h.svc.Schema())
	if err != nil {
		writeServiceError(w, "list papers", err)
		return
	}
	listing, err := h.svc.List(r.Context(), f)
	if err != nil {
		writeServiceError(w, "list papers", err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

// Facets handles GET /api/facets.
//
//	@Summary		List the selectable values of every facet
//	@Tags			papers
//	@Produce		json
//	@Success		200	{object}	FacetsResponse
//	@Failure		503	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/facets [get]
func (h *Handler) Facets(w http.ResponseWriter, r *http.Request) {
	facets, err := h.svc.Facets(r.Context())
	if err != nil {
		writeServiceError(w, "facets", err)
		return
	}
	writeJSON(w, http.StatusOK, FacetsResponse{Schema: h.svc.Schema(), Facets: facets})
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search over titles and authors
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Failure		503		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("q is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	hits, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeServiceError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Query: q, Results: hits})
}

// Status handles GET /api/status.
//
//	@Summary		Report the catalog load state
//	@Tags			catalog
//	@Produce		json
//	@Success		200	{object}	StatusResponse
//	@Security		BearerAuth
//	@Router			/status [get]
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Status(r.Context()))
}

func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrInvalidFacet):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrNotLoaded):
		writeJSON(w, http.StatusServiceUnavailable, errorBody("catalog not loaded"))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}
