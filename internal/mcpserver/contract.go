package mcpserver

import (
	"fmt"

	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/models"
)

const proceedingsSchema = `# papershelf catalog: proceedings schema

The catalog is a JSON (or YAML) array of paper records, in display order.

` + "```" + `json
[
  {
    "title": "Backdoor Attacks on Self-Supervised Learning",
    "authors": ["Aniruddha Saha", "Ajinkya Tejankar"],
    "year": 2022,
    "proceedings": "CVPR",
    "type": "conference"
  }
]
` + "```" + `

## Fields

- **title** (string, required): matched case-insensitively by the search text.
- **authors** (list of strings, required, may be empty).
- **year** (integer, required): facet ` + "`" + `year` + "`" + `.
- **proceedings** (string): facet ` + "`" + `proceedings` + "`" + `, e.g. ICML, NeurIPS.
- **type** (string): facet ` + "`" + `type` + "`" + `, e.g. conference, workshop, journal.
`

const preprintSchema = `# papershelf catalog: preprint schema

The catalog is a JSON (or YAML) array of preprint records, in display order.

` + "```" + `json
[
  {
    "title": "Hidden Triggers in Diffusion Models",
    "authors": ["Ann Lee"],
    "url": "http://arxiv.org/abs/2401.00001",
    "published_date": "2024-01-03T18:59:59Z"
  }
]
` + "```" + `

## Fields

- **title** (string, required): matched case-insensitively by the search text.
- **authors** (list of strings, required, may be empty).
- **url** (string, required): link to the preprint.
- **published_date** (string, required): ` + "`" + `YYYY-MM-DD` + "`" + ` or an ISO-8601
  timestamp. Its year is facet ` + "`" + `year` + "`" + `, the only facet of this schema.
`

const filterRules = `
## Filtering

- Filters combine with AND.
- A facet set to ` + "`" + `all` + "`" + ` (or left empty) is unconstrained.
- Facet values compare exactly; years are compared as their decimal string.
- Results keep catalog order.
`

// SchemaDocument describes the record schema the catalog is served under.
func SchemaDocument(schema models.Schema) string {
	switch schema {
	case models.SchemaPreprint:
		return preprintSchema + filterRules
	case models.SchemaProceedings:
		return proceedingsSchema + filterRules
	default:
		return fmt.Sprintf("# papershelf catalog\n\nUnknown schema %q.\n", schema)
	}
}
