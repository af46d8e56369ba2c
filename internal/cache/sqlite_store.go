package cache

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"chat-forwarder/internal/ports"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS fingerprints (
	chat_key    TEXT    NOT NULL,
	position    INTEGER NOT NULL,
	fingerprint TEXT    NOT NULL,
	PRIMARY KEY (chat_key, position)
);
CREATE TABLE IF NOT EXISTS fingerprint_keys (
	chat_key   TEXT PRIMARY KEY,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

// SQLiteStore хранит строки в базе SQLite. Запись по ключу заменяется
// целиком в одной транзакции.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore открывает (или создает) базу по пути и применяет схему.
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}
	// один писатель: процесс работает в единственном экземпляре
	db.SetMaxOpenConns(1)

	store, err := NewSQLiteStore(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLiteStore оборачивает готовое соединение и применяет схему.
func NewSQLiteStore(ctx context.Context, db *sql.DB) (*SQLiteStore, error) {
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, fmt.Errorf("failed to apply sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

var _ ports.LineStore = (*SQLiteStore)(nil)

// ReadLines реализует ports.LineStore.
func (s *SQLiteStore) ReadLines(ctx context.Context, key string) ([]string, bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fingerprint_keys WHERE chat_key = ?`, key).Scan(&exists)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up key %q: %w", key, err)
	}
	if exists == 0 {
		return nil, false, nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT fingerprint FROM fingerprints WHERE chat_key = ? ORDER BY position`, key)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	defer rows.Close()

	lines := []string{}
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, false, fmt.Errorf("failed to scan key %q: %w", key, err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return lines, true, nil
}

// WriteLines реализует ports.LineStore.
func (s *SQLiteStore) WriteLines(ctx context.Context, key string, lines []string) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM fingerprints WHERE chat_key = ?`, key); err != nil {
		return fmt.Errorf("failed to clear key %q: %w", key, err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO fingerprints (chat_key, position, fingerprint) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, line := range lines {
		if _, err = stmt.ExecContext(ctx, key, i, line); err != nil {
			return fmt.Errorf("failed to insert into key %q: %w", key, err)
		}
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO fingerprint_keys (chat_key, updated_at) VALUES (?, CURRENT_TIMESTAMP)
		 ON CONFLICT(chat_key) DO UPDATE SET updated_at = CURRENT_TIMESTAMP`, key); err != nil {
		return fmt.Errorf("failed to touch key %q: %w", key, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit key %q: %w", key, err)
	}
	return nil
}

// Close закрывает базу.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
