// Package index persists short per-message previews so later messages can
// render a quote of what they reply to without re-reading the export.
package index

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// PreviewLen is the maximum preview length in runes before truncation.
const PreviewLen = 200

// Preview is the stored rendering of one message.
type Preview struct {
	Sender  string
	DateUTC string
	Text    string
}

// PreviewStore is a keyed preview lookup. Get returns (nil, nil) when the
// id was never indexed.
type PreviewStore interface {
	Put(msgID int64, p Preview) error
	Get(msgID int64) (*Preview, error)
	Close() error
}

const schema = `
CREATE TABLE IF NOT EXISTS msg_index (
    msg_id   INTEGER PRIMARY KEY,
    sender   TEXT,
    date_utc TEXT,
    preview  TEXT
);
`

// SQLiteStore is the file-backed PreviewStore. One row per message id;
// re-indexing the same id overwrites.
type SQLiteStore struct {
	db *sql.DB
}

func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)")
	if err != nil {
		return nil, fmt.Errorf("open index db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Put(msgID int64, p Preview) error {
	_, err := s.db.Exec(
		`INSERT INTO msg_index (msg_id, sender, date_utc, preview) VALUES (?, ?, ?, ?)
		 ON CONFLICT(msg_id) DO UPDATE SET sender = excluded.sender,
		   date_utc = excluded.date_utc, preview = excluded.preview`,
		msgID, p.Sender, p.DateUTC, p.Text,
	)
	if err != nil {
		return fmt.Errorf("index message %d: %w", msgID, err)
	}
	return nil
}

func (s *SQLiteStore) Get(msgID int64) (*Preview, error) {
	var p Preview
	err := s.db.QueryRow(
		`SELECT sender, date_utc, preview FROM msg_index WHERE msg_id = ?`, msgID,
	).Scan(&p.Sender, &p.DateUTC, &p.Text)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup message %d: %w", msgID, err)
	}
	return &p, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Truncate collapses a message body to a single line of at most max runes,
// marking truncation with an ellipsis.
func Truncate(text string, max int) string {
	s := strings.Join(strings.Fields(text), " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
