package apperr

import "errors"

var (
	ErrNotLoaded         = errors.New("catalog not loaded")
	ErrInvalidRecord     = errors.New("invalid record")
	ErrUnsupportedSchema = errors.New("unsupported schema")
	ErrInvalidFacet      = errors.New("invalid facet")
)
