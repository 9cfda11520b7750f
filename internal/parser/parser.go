// Package parser decodes catalog files into typed, validated records.
package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/apperr"
	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/models"
)

// Format is the encoding of a catalog file.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the format from a file name or URL path. Anything that
// is not .yaml/.yml is treated as JSON.
func FormatFor(name string) Format {
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// validatedRecord is a record shape that can check its own fields.
type validatedRecord interface {
	models.Record
	Validate() error
}

// Parse decodes data as a sequence of records of the given schema.
// The whole catalog is rejected when any record is invalid.
func Parse(data []byte, format Format, schema models.Schema) ([]models.Record, error) {
	if format == FormatYAML {
		normalized, err := yamlToJSON(data)
		if err != nil {
			return nil, err
		}
		data = normalized
	}

	switch schema {
	case models.SchemaProceedings:
		return decode[models.Paper](data)
	case models.SchemaPreprint:
		return decode[models.Preprint](data)
	}
	return nil, fmt.Errorf("parser: %w: %q", apperr.ErrUnsupportedSchema, schema)
}

func decode[T validatedRecord](data []byte) ([]models.Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("parser: empty catalog")
	}
	if trimmed[0] != '[' && !bytes.Equal(trimmed, []byte("null")) {
		return nil, fmt.Errorf("parser: catalog must be a JSON array")
	}

	var items []T
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("parser: decode catalog: %w", err)
	}

	out := make([]models.Record, 0, len(items))
	for i, item := range items {
		if err := item.Validate(); err != nil {
			return nil, fmt.Errorf("parser: %w: record %d: %v", apperr.ErrInvalidRecord, i, err)
		}
		out = append(out, item)
	}
	return out, nil
}

// yamlToJSON re-encodes a YAML document as JSON so both formats share the
// JSON field contract.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parser: decode yaml: %w", err)
	}
	if doc == nil {
		return []byte("null"), nil
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("parser: convert yaml: %w", err)
	}
	return out, nil
}
