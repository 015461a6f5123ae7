package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/24f2006233/vyappar-smart/internal/core/domain"
)

// SQLiteAdapter keeps every key in a single local database file.
type SQLiteAdapter struct {
	db *sqlx.DB
}

// OpenSQLite connects to the database file at path and creates the table.
func OpenSQLite(ctx context.Context, path string) (*SQLiteAdapter, error) {
	db, err := sqlx.ConnectContext(ctx, "sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w: %w", path, domain.ErrStorageUnavailable, err)
	}
	db.SetMaxOpenConns(1)

	a := &SQLiteAdapter{db: db}
	if err := a.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

func (s *SQLiteAdapter) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS kv_store (
			k          TEXT PRIMARY KEY,
			v          BLOB NOT NULL,
			updated_at DATETIME NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("create kv table: %w: %w", domain.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *SQLiteAdapter) Load(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	err := s.db.GetContext(ctx, &data, `SELECT v FROM kv_store WHERE k = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query %s: %w: %w", key, domain.ErrStorageUnavailable, err)
	}
	return data, true, nil
}

func (s *SQLiteAdapter) Store(ctx context.Context, key string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv_store (k, v, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(k) DO UPDATE SET v = excluded.v, updated_at = excluded.updated_at`,
		key, data, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert %s: %w: %w", key, domain.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *SQLiteAdapter) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite ping: %w: %w", domain.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *SQLiteAdapter) Close() error {
	return s.db.Close()
}
