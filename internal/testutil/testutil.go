// Package testutil provides shared test helpers for catalogs and databases.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/index"
)

// ProceedingsCatalog is a small proceedings-schema catalog used across tests.
const ProceedingsCatalog = `[
  {"title": "Backdoor A", "authors": ["Ann Lee", "Bo Chen"], "year": 2022, "proceedings": "ICML", "type": "workshop"},
  {"title": "Backdoor B", "authors": ["Cy Diaz"], "year": 2023, "proceedings": "NeurIPS", "type": "conference"},
  {"title": "Trojan Detection at Scale", "authors": ["Di Ek"], "year": 2021, "proceedings": "ICML", "type": "conference"}
]`

// PreprintCatalog is a small preprint-schema catalog used across tests.
const PreprintCatalog = `[
  {"title": "Hidden Triggers in Diffusion", "authors": ["Ann Lee"], "url": "http://arxiv.org/abs/2401.00001", "published_date": "2024-01-03"},
  {"title": "Clean-Label Backdoors", "authors": ["Bo Chen", "Cy Diaz"], "url": "http://arxiv.org/abs/2312.00002", "published_date": "2023-12-01T08:00:00Z"}
]`

// WriteCatalog writes content to name inside a fresh temp directory and
// returns the file's absolute path.
func WriteCatalog(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "papershelf-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
