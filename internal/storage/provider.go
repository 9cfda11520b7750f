// Package storage defines the data-directory abstraction catalogs are read from.
package storage

// Provider is the interface for data-directory file operations.
type Provider interface {
	// Abs resolves path (relative to root) to an absolute path inside root.
	Abs(path string) (string, error)
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
}
