package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/checksum"
	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/models"
	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/paperservice"
	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/store"
	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/testutil"
)

func testHandler(t *testing.T, name, catalog string, schema models.Schema, load bool) *Handler {
	t.Helper()
	src := store.NewSource(testutil.WriteCatalog(t, name, catalog), 0)
	st := store.New(src, schema, testutil.Logger())
	if load {
		_ = st.Load(context.Background())
	}
	return NewHandler(paperservice.NewService(st, nil), "Backdoor Papers", "/events")
}

func render(t *testing.T, h *Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.Page(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestPage_RendersAllPapers(t *testing.T) {
	h := testHandler(t, "papers.json", testutil.ProceedingsCatalog, models.SchemaProceedings, true)

	w := render(t, h, "/")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()

	assert.Contains(t, body, "<title>Backdoor Papers</title>")
	assert.Contains(t, body, "3 of 3 papers")
	assert.Contains(t, body, "All Years")
	assert.Contains(t, body, "All Types")
	assert.Contains(t, body, "All Proceedings<")
	assert.Contains(t, body, "Proceedings: NeurIPS")
	assert.Contains(t, body, "Ann Lee, Bo Chen")
	assert.NotContains(t, body, `class="banner"`)
}

func TestPage_YearOptionsDescending(t *testing.T) {
	h := testHandler(t, "papers.json", testutil.ProceedingsCatalog, models.SchemaProceedings, true)
	body := render(t, h, "/").Body.String()

	i2023 := strings.Index(body, `<option value="2023"`)
	i2022 := strings.Index(body, `<option value="2022"`)
	i2021 := strings.Index(body, `<option value="2021"`)
	require.True(t, i2023 > 0 && i2022 > 0 && i2021 > 0)
	assert.True(t, i2023 < i2022 && i2022 < i2021, "years not descending")
}

func TestPage_Filtered(t *testing.T) {
	h := testHandler(t, "papers.json", testutil.ProceedingsCatalog, models.SchemaProceedings, true)

	body := render(t, h, "/?q=backdoor&year=2023&type=all").Body.String()
	assert.Contains(t, body, "1 of 3 papers")
	assert.Contains(t, body, "Backdoor B")
	assert.NotContains(t, body, "<h2>Backdoor A")
	assert.Contains(t, body, `<option value="2023" selected>`)
	assert.Contains(t, body, `value="backdoor"`)
}

func TestPage_ClearFiltersLink(t *testing.T) {
	h := testHandler(t, "papers.json", testutil.ProceedingsCatalog, models.SchemaProceedings, true)

	assert.NotContains(t, render(t, h, "/?year=all").Body.String(), "Clear filters")
	assert.Contains(t, render(t, h, "/?year=2022").Body.String(), `<a href="/">Clear filters</a>`)
}

func TestPage_LiveRefresh(t *testing.T) {
	h := testHandler(t, "papers.json", testutil.ProceedingsCatalog, models.SchemaProceedings, true)
	body := render(t, h, "/").Body.String()
	assert.Contains(t, body, "new EventSource(")
	assert.Contains(t, body, "events')")

	h.eventsURL = ""
	assert.NotContains(t, render(t, h, "/").Body.String(), "EventSource(")
}

func TestPage_EscapesContent(t *testing.T) {
	catalog := `[{"title":"<script>alert(1)</script>","authors":[],"year":2020}]`
	h := testHandler(t, "papers.json", catalog, models.SchemaProceedings, true)

	body := render(t, h, "/").Body.String()
	assert.NotContains(t, body, "<script>alert(1)</script>")
	assert.Contains(t, body, "&lt;script&gt;")
}

func TestPage_PreprintSchema(t *testing.T) {
	h := testHandler(t, "papers.yaml", `
- title: Hidden Triggers
  authors: [Ann Lee]
  url: http://arxiv.org/abs/2401.00001
  published_date: "2024-01-03"
`, models.SchemaPreprint, true)

	w := render(t, h, "/")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "All Years")
	assert.NotContains(t, body, "All Types")
	assert.Contains(t, body, `href="http://arxiv.org/abs/2401.00001"`)
	assert.Contains(t, body, "Published: 2024-01-03")

	w = render(t, h, "/?type=conference")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPage_FailedLoadShowsBanner(t *testing.T) {
	h := testHandler(t, "papers.json", `[{"title":`, models.SchemaProceedings, true)

	w := render(t, h, "/")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Could not load papers")
	assert.Contains(t, body, "0 of 0 papers")
}

func TestPage_Pending(t *testing.T) {
	h := testHandler(t, "papers.json", testutil.ProceedingsCatalog, models.SchemaProceedings, false)
	body := render(t, h, "/").Body.String()
	assert.Contains(t, body, "Papers are loading")
}

func TestCatalog_ETag(t *testing.T) {
	h := testHandler(t, "papers.json", testutil.ProceedingsCatalog, models.SchemaProceedings, true)

	w := httptest.NewRecorder()
	h.Catalog(w, httptest.NewRequest(http.MethodGet, "/papers.json", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, testutil.ProceedingsCatalog, w.Body.String())
	etag := w.Header().Get("ETag")
	assert.Equal(t, checksum.ETag(checksum.Sum([]byte(testutil.ProceedingsCatalog))), etag)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "application/json"))

	req := httptest.NewRequest(http.MethodGet, "/papers.json", nil)
	req.Header.Set("If-None-Match", etag)
	w = httptest.NewRecorder()
	h.Catalog(w, req)
	assert.Equal(t, http.StatusNotModified, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestCatalog_NotLoaded(t *testing.T) {
	h := testHandler(t, "papers.json", testutil.ProceedingsCatalog, models.SchemaProceedings, false)

	w := httptest.NewRecorder()
	h.Catalog(w, httptest.NewRequest(http.MethodGet, "/papers.json", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
