package index

import (
	"database/sql"
	"errors"
	"fmt"
)

const checksumKey = "checksum"

// PaperRow represents a row in the papers table. Position is the record's
// index in the catalog.
type PaperRow struct {
	Position int
	Title    string
	Authors  string
	Year     string
}

// SearchResult represents one search hit.
type SearchResult struct {
	Position int
	Title    string
	Snippet  string
}

// Replace swaps the indexed catalog for rows in a single transaction and
// records checksum as the catalog version.
func (db *DB) Replace(checksum string, rows []PaperRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.Exec(`DELETE FROM papers`); err != nil {
		return fmt.Errorf("index: clear papers: %w", err)
	}
	if err := ftsClear(tx); err != nil {
		return err
	}

	if len(rows) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO papers (position, title, authors, year) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare insert: %w", err)
		}
		defer stmt.Close()
		for _, r := range rows {
			if _, err := stmt.Exec(r.Position, r.Title, r.Authors, r.Year); err != nil {
				return fmt.Errorf("index: insert paper %d: %w", r.Position, err)
			}
			if err := ftsInsert(tx, r); err != nil {
				return err
			}
		}
	}

	_, err = tx.Exec(`
		INSERT INTO catalog_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, checksumKey, checksum)
	if err != nil {
		return fmt.Errorf("index: store checksum: %w", err)
	}

	return tx.Commit()
}

// Checksum returns the version of the indexed catalog, or "" when nothing
// has been indexed yet.
func (db *DB) Checksum() (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT value FROM catalog_meta WHERE key = ?`, checksumKey).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: checksum: %w", err)
	}
	return cs, nil
}

// Count returns the number of indexed papers.
func (db *DB) Count() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM papers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("index: count: %w", err)
	}
	return n, nil
}
