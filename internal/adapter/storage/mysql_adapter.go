package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/24f2006233/vyappar-smart/internal/core/domain"
)

const kvTable = "kv_store"

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// Migrate creates the key-value table if it does not exist yet.
func (m *MySQLAdapter) Migrate(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS kv_store (
			k          VARCHAR(191) NOT NULL PRIMARY KEY,
			v          LONGBLOB     NOT NULL,
			updated_at DATETIME(6)  NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("create kv table: %w: %w", domain.ErrStorageUnavailable, err)
	}
	return nil
}

func (m *MySQLAdapter) Load(ctx context.Context, key string) ([]byte, bool, error) {
	query, args, err := sq.Select("v").From(kvTable).Where(sq.Eq{"k": key}).ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("build select: %w", err)
	}

	var data []byte
	err = m.db.QueryRowContext(ctx, query, args...).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query %s: %w: %w", key, domain.ErrStorageUnavailable, err)
	}

	return data, true, nil
}

func (m *MySQLAdapter) Store(ctx context.Context, key string, data []byte) error {
	query, args, err := sq.Insert(kvTable).
		Columns("k", "v", "updated_at").
		Values(key, data, time.Now().UTC()).
		Suffix("ON DUPLICATE KEY UPDATE v = VALUES(v), updated_at = VALUES(updated_at)").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := m.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert %s: %w: %w", key, domain.ErrStorageUnavailable, err)
	}
	return nil
}

func (m *MySQLAdapter) Ping(ctx context.Context) error {
	if err := m.db.PingContext(ctx); err != nil {
		return fmt.Errorf("mysql ping: %w: %w", domain.ErrStorageUnavailable, err)
	}
	return nil
}

func (m *MySQLAdapter) Close() error {
	return m.db.Close()
}
