package filter

import (
	"slices"
	"strconv"
	"strings"

	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/models"
)

// Options returns the distinct values of facet across records. Years are
// ordered most recent first; every other facet keeps first-seen order.
func Options[R models.Record](records []R, facet models.Facet) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, r := range records {
		v, ok := r.FacetValue(facet)
		if !ok {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if facet == models.FacetYear {
		slices.SortStableFunc(out, compareYearsDesc)
	}
	return out
}

// OptionSet returns Options for every facet of schema.
func OptionSet[R models.Record](records []R, schema models.Schema) map[models.Facet][]string {
	facets := schema.Facets()
	out := make(map[models.Facet][]string, len(facets))
	for _, f := range facets {
		out[f] = Options(records, f)
	}
	return out
}

func compareYearsDesc(a, b string) int {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		return bi - ai
	}
	return strings.Compare(b, a)
}
