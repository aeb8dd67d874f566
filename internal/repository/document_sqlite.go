package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteDocument keeps the local claim document in a one-row-per-key table
// of an embedded sqlite database.
type SQLiteDocument struct {
	db  *sql.DB
	key string
}

func OpenSQLiteDocument(ctx context.Context, path, key string) (*SQLiteDocument, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS documents (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite %s: %w", path, err)
	}
	return &SQLiteDocument{db: db, key: key}, nil
}

func (d *SQLiteDocument) Load(ctx context.Context) ([]byte, error) {
	var doc []byte
	err := d.db.QueryRowContext(ctx, `SELECT value FROM documents WHERE key = ?`, d.key).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return doc, err
}

func (d *SQLiteDocument) Save(ctx context.Context, doc []byte) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO documents (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, d.key, doc)
	return err
}

func (d *SQLiteDocument) Close() error {
	return d.db.Close()
}
