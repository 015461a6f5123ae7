package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/24f2006233/vyappar-smart/internal/config"
	"github.com/24f2006233/vyappar-smart/internal/core/domain"
	"github.com/24f2006233/vyappar-smart/internal/port"
)

// Open connects to the backend selected by cfg.StoreBackend and prepares it for use.
func Open(ctx context.Context, cfg config.Config) (port.KVStore, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return NewMemoryAdapter(), nil

	case config.BackendSQLite:
		return OpenSQLite(ctx, cfg.SQLitePath)

	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("connect redis: %w: %w", domain.ErrStorageUnavailable, err)
		}
		return NewRedisAdapter(rdb), nil

	case config.BackendMySQL:
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return nil, fmt.Errorf("open mysql: %w: %w", domain.ErrStorageUnavailable, err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		adapter := NewMySQLAdapter(db)
		if err := adapter.Ping(ctx); err != nil {
			db.Close()
			return nil, err
		}
		if err := adapter.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return adapter, nil

	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w: %w", domain.ErrStorageUnavailable, err)
		}

		adapter := NewPostgresAdapter(pool)
		if err := adapter.Ping(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		if err := adapter.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return adapter, nil
	}

	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
