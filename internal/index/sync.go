package index

import (
	"log/slog"

	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/models"
)

// Sync brings the index in line with a catalog version. It is a no-op when
// the index already holds checksum.
func Sync(db PaperIndex, checksum string, records []models.Record, logger *slog.Logger) error {
	current, err := db.Checksum()
	if err != nil {
		return err
	}
	if current == checksum && checksum != "" {
		logger.Debug("index: up to date", slog.String("checksum", checksum))
		return nil
	}

	rows := make([]PaperRow, len(records))
	for i, r := range records {
		rows[i] = rowFor(i, r)
	}
	if err := db.Replace(checksum, rows); err != nil {
		return err
	}
	logger.Info("index: synced", slog.Int("papers", len(rows)), slog.String("checksum", checksum))
	return nil
}

func rowFor(position int, r models.Record) PaperRow {
	year, _ := r.FacetValue(models.FacetYear)
	return PaperRow{
		Position: position,
		Title:    r.SearchTitle(),
		Authors:  r.Card().Authors,
		Year:     year,
	}
}
