package index

// PaperIndex defines the search-index operations the service layer needs.
// Consumers should depend on this interface rather than the concrete *DB
// type to facilitate testing with fakes.
type PaperIndex interface {
	Replace(checksum string, rows []PaperRow) error
	Checksum() (string, error)
	Count() (int, error)
	Search(query string, limit int) ([]SearchResult, error)
	Close() error
}

// Verify *DB satisfies PaperIndex at compile time.
var _ PaperIndex = (*DB)(nil)
