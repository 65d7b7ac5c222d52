package sink

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hazyhaar/adswap/dbopen"
	"github.com/hazyhaar/adswap/report"
)

// Schema for the SQLite sink.
const Schema = `
CREATE TABLE IF NOT EXISTS replacements (
	id         TEXT PRIMARY KEY,
	page_id    TEXT NOT NULL,
	page_url   TEXT NOT NULL,
	selector   TEXT NOT NULL,
	element    TEXT NOT NULL DEFAULT '',
	ref        TEXT NOT NULL,
	width      REAL NOT NULL,
	height     REAL NOT NULL,
	font_size  REAL NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_replacements_page ON replacements(page_id, created_at);

CREATE TABLE IF NOT EXISTS snapshots (
	id         TEXT PRIMARY KEY,
	page_id    TEXT NOT NULL,
	page_url   TEXT NOT NULL,
	html       BLOB NOT NULL,
	html_hash  TEXT NOT NULL,
	replaced   INTEGER NOT NULL,
	created_at INTEGER NOT NULL
);
`

// SQLite records reports in a database. Snapshots with an unchanged hash
// for the same page are not stored twice.
type SQLite struct {
	db    *sql.DB
	owned bool
}

// OpenSQLite opens (creating if needed) a database file and applies Schema.
// The caller blank-imports the driver.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := dbopen.Open(path, dbopen.WithMkdirAll(), dbopen.WithSchema(Schema))
	if err != nil {
		return nil, fmt.Errorf("sqlite sink: %w", err)
	}
	return &SQLite{db: db, owned: true}, nil
}

// NewSQLite wraps an open database. Schema must already be applied; Close
// leaves the database open.
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

func (s *SQLite) SendReplacement(ctx context.Context, r report.Replacement) error {
	return dbopen.RunTx(ctx, s.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO replacements
				(id, page_id, page_url, selector, element, ref, width, height, font_size, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.PageID, r.PageURL, r.Selector, r.Element, r.Ref,
			r.Width, r.Height, r.FontSize, r.Timestamp)
		return err
	})
}

func (s *SQLite) SendSnapshot(ctx context.Context, snap report.Snapshot) error {
	return dbopen.RunTx(ctx, s.db, func(tx *sql.Tx) error {
		var last string
		err := tx.QueryRowContext(ctx, `
			SELECT html_hash FROM snapshots WHERE page_id = ?
			ORDER BY created_at DESC LIMIT 1`, snap.PageID).Scan(&last)
		if err != nil && err != sql.ErrNoRows {
			return err
		}
		if last == snap.HTMLHash {
			return nil
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO snapshots (id, page_id, page_url, html, html_hash, replaced, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			snap.ID, snap.PageID, snap.PageURL, snap.HTML, snap.HTMLHash, snap.Replaced, snap.Timestamp)
		return err
	})
}

// CountByRef returns how many times each ref was shown, for one page or,
// with an empty pageID, for all pages.
func (s *SQLite) CountByRef(ctx context.Context, pageID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ref, COUNT(*) FROM replacements
		WHERE ? = '' OR page_id = ?
		GROUP BY ref`, pageID, pageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var ref string
		var n int
		if err := rows.Scan(&ref, &n); err != nil {
			return nil, err
		}
		out[ref] = n
	}
	return out, rows.Err()
}

func (s *SQLite) Close() error {
	if s.owned {
		return s.db.Close()
	}
	return nil
}
