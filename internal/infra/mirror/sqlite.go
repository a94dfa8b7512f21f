package mirror

import (
	"context"
	"database/sql"

	"github.com/fintrackhq/fintrack-go/internal/port"

	// Pure-Go sqlite driver, no cgo.
	_ "modernc.org/sqlite"
)

// SQLite is the primary mirror backend: a single-file embedded database
// holding every collection's rows, keyed by (collection, id) and
// filterable by owner.
type SQLite struct {
	conn *sql.DB
}

// NewSQLite opens (or creates) the mirror database and runs migrations.
func NewSQLite(path string) (*SQLite, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(); err != nil {
		return nil, err
	}

	s := &SQLite{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	_, err := s.conn.Exec(`CREATE TABLE IF NOT EXISTS mirror_records (
		collection TEXT NOT NULL,
		id         TEXT NOT NULL,
		user_id    TEXT NOT NULL,
		data       BLOB NOT NULL,
		PRIMARY KEY (collection, id)
	)`)
	if err != nil {
		return err
	}
	_, err = s.conn.Exec(`CREATE INDEX IF NOT EXISTS idx_mirror_owner
		ON mirror_records (collection, user_id)`)
	return err
}

// Save replaces one user's rows in a collection with the given records.
// Other users' rows and other collections are untouched.
func (s *SQLite) Save(ctx context.Context, collection, userID string, records []port.MirrorRecord) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM mirror_records WHERE collection = ? AND user_id = ?",
		collection, userID,
	); err != nil {
		return err
	}

	for _, r := range records {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO mirror_records (collection, id, user_id, data) VALUES (?, ?, ?, ?)",
			collection, r.ID, userID, r.Data,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Load returns all rows a user has in a collection, empty if none.
func (s *SQLite) Load(ctx context.Context, collection, userID string) ([]port.MirrorRecord, error) {
	rows, err := s.conn.QueryContext(ctx,
		"SELECT id, data FROM mirror_records WHERE collection = ? AND user_id = ?",
		collection, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []port.MirrorRecord
	for rows.Next() {
		r := port.MirrorRecord{UserID: userID}
		if err := rows.Scan(&r.ID, &r.Data); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Clear wipes every collection for every user.
func (s *SQLite) Clear(ctx context.Context) error {
	_, err := s.conn.ExecContext(ctx, "DELETE FROM mirror_records")
	return err
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.conn.Close()
}
