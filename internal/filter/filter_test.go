package filter

import (
	"errors"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/apperr"
	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/models"
)

func samplePapers() []models.Paper {
	return []models.Paper{
		{Title: "ML Backdoor Attacks", Authors: []string{"Ann"}, Year: 2021, Proceedings: "ICML", Type: "conference"},
		{Title: "Poisoning Federated Learning", Authors: []string{"Bob"}, Year: 2019, Proceedings: "NeurIPS", Type: "workshop"},
		{Title: "Trojaned Language Models", Authors: []string{"Cy"}, Year: 2021, Proceedings: "ACL", Type: "conference"},
		{Title: "Backdoor Defenses Survey", Authors: []string{"Di"}, Year: 2023, Proceedings: "ICML", Type: "journal"},
	}
}

func TestApply_Unconstrained(t *testing.T) {
	papers := samplePapers()
	got := Apply(papers, Filter{})
	if diff := cmp.Diff(papers, got); diff != "" {
		t.Errorf("unconstrained filter changed the collection (-want +got):\n%s", diff)
	}
}

func TestApply_CaseInsensitiveSearch(t *testing.T) {
	got := Apply(samplePapers(), Filter{Search: "ml"})
	require.Len(t, got, 1)
	assert.Equal(t, "ML Backdoor Attacks", got[0].Title)

	got = Apply(samplePapers(), Filter{Search: "BACKDOOR"})
	require.Len(t, got, 2)
	assert.Equal(t, "ML Backdoor Attacks", got[0].Title)
	assert.Equal(t, "Backdoor Defenses Survey", got[1].Title)
}

func TestApply_UnicodeFold(t *testing.T) {
	papers := []models.Paper{{Title: "STRASSE der Angriffe", Year: 2020}}
	got := Apply(papers, Filter{Search: "straße"})
	assert.Len(t, got, 1)
}

func TestApply_Conjunctive(t *testing.T) {
	f := Filter{}.Select(models.FacetYear, "2021").Select(models.FacetType, "conference")
	got := Apply(samplePapers(), f)
	require.Len(t, got, 2)

	f = f.Select(models.FacetProceedings, "ACL")
	got = Apply(samplePapers(), f)
	require.Len(t, got, 1)
	assert.Equal(t, "Trojaned Language Models", got[0].Title)

	f.Search = "backdoor"
	assert.Empty(t, Apply(samplePapers(), f))
}

func TestApply_SubsetPreservesOrder(t *testing.T) {
	papers := samplePapers()
	filters := []Filter{
		{Search: "o"},
		Filter{}.Select(models.FacetYear, "2021"),
		Filter{}.Select(models.FacetProceedings, "ICML"),
		{Search: "backdoor"},
	}
	for _, f := range filters {
		got := Apply(papers, f)
		i := 0
		for _, g := range got {
			for i < len(papers) && papers[i].Title != g.Title {
				i++
			}
			require.Less(t, i, len(papers), "result %q is not an in-order subsequence", g.Title)
			i++
		}
	}
}

func TestApply_Idempotent(t *testing.T) {
	papers := samplePapers()
	f := Filter{Search: "back"}.Select(models.FacetProceedings, "ICML")
	first := Apply(papers, f)
	second := Apply(papers, f)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated Apply differs (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(samplePapers(), papers); diff != "" {
		t.Errorf("Apply mutated its input:\n%s", diff)
	}
}

func TestApply_BackdoorScenario(t *testing.T) {
	papers := []models.Paper{
		{Title: "Backdoor A", Year: 2022, Type: "workshop", Proceedings: "ICML"},
		{Title: "Backdoor B", Year: 2023, Type: "conference", Proceedings: "NeurIPS"},
	}
	f, err := FromQuery(url.Values{"q": {"backdoor"}, "year": {"all"}, "type": {"conference"}}, models.SchemaProceedings)
	require.NoError(t, err)

	got := Apply(papers, f)
	if diff := cmp.Diff([]models.Paper{papers[1]}, got); diff != "" {
		t.Errorf("scenario mismatch (-want +got):\n%s", diff)
	}
}

func TestApply_EmptyCollection(t *testing.T) {
	got := Apply([]models.Paper(nil), Filter{Search: "x"}.Select(models.FacetYear, "2020"))
	assert.NotNil(t, got)
	assert.Empty(t, got)

	for _, facet := range models.SchemaProceedings.Facets() {
		opts := Options([]models.Paper(nil), facet)
		assert.NotNil(t, opts)
		assert.Empty(t, opts)
	}
}

func TestApply_PreprintYear(t *testing.T) {
	d1, _ := models.ParseDate("2024-03-01")
	d2, _ := models.ParseDate("2023-12-31T23:00:00Z")
	recs := []models.Preprint{
		{Title: "P1", URL: "http://a", PublishedDate: d1},
		{Title: "P2", URL: "http://b", PublishedDate: d2},
	}
	got := Apply(recs, Filter{}.Select(models.FacetYear, "2023"))
	require.Len(t, got, 1)
	assert.Equal(t, "P2", got[0].Title)

	// Preprints have no type; constraining it matches nothing.
	assert.Empty(t, Apply(recs, Filter{}.Select(models.FacetType, "journal")))
}

func TestOptions_YearsDescendingDeduplicated(t *testing.T) {
	papers := []models.Paper{{Year: 2021}, {Year: 2019}, {Year: 2021}, {Year: 2023}}
	assert.Equal(t, []string{"2023", "2021", "2019"}, Options(papers, models.FacetYear))
}

func TestOptions_FirstSeenOrder(t *testing.T) {
	assert.Equal(t, []string{"ICML", "NeurIPS", "ACL"}, Options(samplePapers(), models.FacetProceedings))
	assert.Equal(t, []string{"conference", "workshop", "journal"}, Options(samplePapers(), models.FacetType))
}

func TestOptionSet(t *testing.T) {
	set := OptionSet(samplePapers(), models.SchemaProceedings)
	assert.Len(t, set, 3)
	assert.Equal(t, []string{"2023", "2021", "2019"}, set[models.FacetYear])
}

func TestFromQuery(t *testing.T) {
	f, err := FromQuery(url.Values{"q": {"x"}, "year": {"2021"}, "type": {""}, "proceedings": {"ALL"}}, models.SchemaProceedings)
	require.NoError(t, err)
	assert.Equal(t, "x", f.Search)
	v, ok := f.Selected(models.FacetYear)
	assert.True(t, ok)
	assert.Equal(t, "2021", v)
	_, ok = f.Selected(models.FacetType)
	assert.False(t, ok)
	_, ok = f.Selected(models.FacetProceedings)
	assert.False(t, ok)

	_, err = FromQuery(url.Values{"type": {"journal"}}, models.SchemaPreprint)
	assert.True(t, errors.Is(err, apperr.ErrInvalidFacet))

	// Unconstrained values of foreign facets are tolerated.
	_, err = FromQuery(url.Values{"type": {"all"}}, models.SchemaPreprint)
	assert.NoError(t, err)
}

func TestFilter_QueryRoundTrip(t *testing.T) {
	f := Filter{Search: "trojan"}.Select(models.FacetType, "conference").Select(models.FacetYear, "2021")
	back, err := FromQuery(f.Query(), models.SchemaProceedings)
	require.NoError(t, err)
	assert.Equal(t, f.Search, back.Search)
	assert.Equal(t, f.Selections(), back.Selections())
}

func TestFilter_CopyOnWrite(t *testing.T) {
	base := Filter{}.Select(models.FacetYear, "2021")
	derived := base.Clear(models.FacetYear).Select(models.FacetType, "workshop")

	_, ok := base.Selected(models.FacetYear)
	assert.True(t, ok, "Clear must not modify the receiver")
	_, ok = base.Selected(models.FacetType)
	assert.False(t, ok, "Select must not modify the receiver")
	assert.False(t, derived.Unconstrained())
	assert.True(t, Filter{}.Unconstrained())
}
