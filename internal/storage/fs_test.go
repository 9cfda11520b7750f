package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func tempRoot(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func writeFile(t *testing.T, fs *FS, rel, content string) {
	t.Helper()
	abs := filepath.Join(fs.root, rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRead(t *testing.T) {
	s := tempRoot(t)
	writeFile(t, s, "papers.json", `[{"title":"x"}]`)
	got, err := s.Read("papers.json")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != `[{"title":"x"}]` {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestReadSubdir(t *testing.T) {
	s := tempRoot(t)
	writeFile(t, s, "public/papers.json", "[]")
	got, err := s.Read("public/papers.json")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "[]" {
		t.Errorf("content = %q", got)
	}
}

func TestReadMissingIsNotExist(t *testing.T) {
	s := tempRoot(t)
	_, err := s.Read("nope.json")
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want os.ErrNotExist", err)
	}
}

func TestReadDirectoryFails(t *testing.T) {
	s := tempRoot(t)
	_ = os.Mkdir(filepath.Join(s.root, "dir"), 0o755)
	if _, err := s.Read("dir"); err == nil {
		t.Error("expected error for directory")
	}
}

func TestAbs(t *testing.T) {
	s := tempRoot(t)
	got, err := s.Abs("papers.json")
	if err != nil {
		t.Fatalf("Abs: %v", err)
	}
	if got != filepath.Join(s.root, "papers.json") {
		t.Errorf("Abs = %q", got)
	}
	if root, _ := s.Abs(""); root != s.root {
		t.Errorf("Abs(\"\") = %q, want root", root)
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempRoot(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.json",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if _, err := s.Abs(p); err == nil {
			t.Errorf("expected error resolving %q", p)
		}
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want os.ErrNotExist", err)
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "papershelf-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}
