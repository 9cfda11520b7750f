// Package web serves the papers page and the raw catalog.
package web

import (
	"bytes"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/apperr"
	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/checksum"
	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/filter"
	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/models"
	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/paperservice"
	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/parser"
	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/store"
)

var page = template.Must(template.New("page").Parse(pageTemplate))

// Handler renders the catalog for browsers.
type Handler struct {
	svc       *paperservice.Service
	title     string
	eventsURL string
}

// NewHandler creates a page handler. eventsURL is the SSE endpoint the page
// listens on for catalog updates; empty disables live refresh.
func NewHandler(svc *paperservice.Service, title, eventsURL string) *Handler {
	return &Handler{svc: svc, title: title, eventsURL: eventsURL}
}

type pageData struct {
	Title     string
	EventsURL string
	Search    string
	Selects   []selectData
	Matched   int
	Total     int
	Cards     []models.Card
	Filtered  bool
	Pending   bool
	Error     string
}

type selectData struct {
	Name     string
	AllLabel string
	Options  []optionData
}

type optionData struct {
	Value    string
	Selected bool
}

// Page handles GET /.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	f, err := filter.FromQuery(r.URL.Query(), h.svc.Schema())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	snap := h.svc.Snapshot()
	listing := paperservice.ListingOf(snap, f)

	data := pageData{
		Title:     h.title,
		EventsURL: h.eventsURL,
		Search:    f.Search,
		Matched:   listing.Matched,
		Total:     listing.Total,
		Cards:     make([]models.Card, len(listing.Papers)),
		Filtered:  !f.Unconstrained(),
		Pending:   snap.State == store.StatePending,
	}
	if snap.State == store.StateFailed && snap.Err != nil {
		data.Error = snap.Err.Error()
	}
	for i, p := range listing.Papers {
		data.Cards[i] = p.Card()
	}
	for _, facet := range snap.Schema.Facets() {
		current, _ := f.Selected(facet)
		sel := selectData{Name: string(facet), AllLabel: facet.AllLabel()}
		for _, v := range filter.Options(snap.Records, facet) {
			sel.Options = append(sel.Options, optionData{Value: v, Selected: v == current})
		}
		data.Selects = append(data.Selects, sel)
	}

	var buf bytes.Buffer
	if err := page.Execute(&buf, data); err != nil {
		slog.Error("render page failed", slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(buf.Bytes())
}

// Catalog handles GET /papers.json with the bytes exactly as fetched.
// YAML catalogs keep their YAML content type.
func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	data, sum, err := h.svc.Raw(r.Context())
	if err != nil {
		if errors.Is(err, apperr.ErrNotLoaded) {
			http.Error(w, "catalog not loaded", http.StatusServiceUnavailable)
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("ETag", checksum.ETag(sum))
	w.Header().Set("Cache-Control", "no-cache")
	if checksum.MatchesETag(r.Header.Get("If-None-Match"), sum) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	ct := "application/json; charset=utf-8"
	if parser.FormatFor(h.svc.Snapshot().Source) == parser.FormatYAML {
		ct = "application/yaml; charset=utf-8"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}
