package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kpauljoseph/pdfannotate/pkg/models"
)

const archiveSchema = `
CREATE TABLE IF NOT EXISTS annotations (
    document    TEXT NOT NULL,
    ordinal     INTEGER NOT NULL,
    id          TEXT NOT NULL,
    page        INTEGER NOT NULL,
    kind        TEXT NOT NULL,
    record      TEXT NOT NULL,
    PRIMARY KEY (document, ordinal)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_annotations_id ON annotations(document, id);
CREATE INDEX IF NOT EXISTS idx_annotations_page ON annotations(document, page);
`

// Archive keeps store snapshots in SQLite, keyed by document name, so a
// session can be resumed after the process exits.
type Archive struct {
	db *sql.DB
}

func OpenArchive(path string) (*Archive, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	if _, err := db.Exec(archiveSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply archive schema: %w", err)
	}

	return &Archive{db: db}, nil
}

func (a *Archive) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// Save replaces the stored snapshot of document with records.
func (a *Archive) Save(document string, records []models.Record) error {
	tx, err := a.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM annotations WHERE document = ?`, document); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO annotations (document, ordinal, id, page, kind, record)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		data, err := json.Marshal(models.Serialize(r))
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", r.ID, err)
		}
		if _, err := stmt.Exec(document, i, r.ID, r.Page, string(r.Kind()), string(data)); err != nil {
			return fmt.Errorf("failed to insert %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

// Load returns the saved snapshot of document in its saved order. Rows that no
// longer decode are skipped and counted.
func (a *Archive) Load(document string) ([]models.Record, int, error) {
	rows, err := a.db.Query(`
		SELECT record FROM annotations WHERE document = ? ORDER BY ordinal`, document)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query snapshot: %w", err)
	}
	defer rows.Close()

	var (
		records []models.Record
		skipped int
	)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, 0, fmt.Errorf("failed to scan row: %w", err)
		}
		var value map[string]any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			skipped++
			continue
		}
		r, err := models.Deserialize(value)
		if err != nil {
			skipped++
			continue
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return records, skipped, nil
}

// Documents lists every document with a saved snapshot.
func (a *Archive) Documents() ([]string, error) {
	rows, err := a.db.Query(`SELECT DISTINCT document FROM annotations ORDER BY document`)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
