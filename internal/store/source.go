package store

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/storage"
)

// maxCatalogBytes bounds a remote catalog body.
const maxCatalogBytes = 64 << 20

// Source is where the catalog bytes come from.
type Source interface {
	// Name identifies the source in logs and picks the parse format.
	Name() string
	// Fetch performs a single read of the catalog.
	Fetch(ctx context.Context) ([]byte, error)
}

// FileSource reads the catalog from a data directory. The directory is
// opened on first fetch, so a missing directory is a load failure rather
// than a startup error.
type FileSource struct {
	dir  string
	path string

	mu    sync.Mutex
	files storage.Provider
}

// Name implements Source.
func (s *FileSource) Name() string { return s.path }

// Path returns the absolute catalog path, for watching.
func (s *FileSource) Path() (string, error) {
	files, err := s.provider()
	if err != nil {
		return "", err
	}
	return files.Abs(s.path)
}

// Fetch implements Source.
func (s *FileSource) Fetch(_ context.Context) ([]byte, error) {
	files, err := s.provider()
	if err != nil {
		return nil, err
	}
	return files.Read(s.path)
}

func (s *FileSource) provider() (storage.Provider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.files != nil {
		return s.files, nil
	}
	files, err := storage.NewFS(s.dir)
	if err != nil {
		return nil, fmt.Errorf("store: catalog directory: %w", err)
	}
	s.files = files
	return files, nil
}

// HTTPSource fetches the catalog with a single GET.
type HTTPSource struct {
	Client *http.Client
	URL    string
}

// Name implements Source.
func (s *HTTPSource) Name() string { return s.URL }

// Fetch implements Source. Any non-2xx status is a failure.
func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("store: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9, */*;q=0.1")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("store: GET %s: %w", s.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("store: GET %s: HTTP error status %d", s.URL, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogBytes+1))
	if err != nil {
		return nil, fmt.Errorf("store: read body: %w", err)
	}
	if len(data) > maxCatalogBytes {
		return nil, fmt.Errorf("store: catalog exceeds %d bytes", maxCatalogBytes)
	}
	return data, nil
}

// IsRemote reports whether location is an HTTP(S) URL.
func IsRemote(location string) bool {
	l := strings.ToLower(location)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// NewSource picks an HTTPSource for URLs and a FileSource rooted at the
// file's directory otherwise. timeout of zero means no client timeout.
// The file's directory need not exist yet.
func NewSource(location string, timeout time.Duration) Source {
	if IsRemote(location) {
		return &HTTPSource{Client: &http.Client{Timeout: timeout}, URL: location}
	}
	return &FileSource{dir: filepath.Dir(location), path: filepath.Base(location)}
}
