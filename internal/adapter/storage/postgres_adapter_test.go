package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getPostgresAdapter(t *testing.T) (*PostgresAdapter, *pgxpool.Pool) {
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		dsn = "postgres://postgres@localhost:5432/vyappar?sslmode=disable"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Skipf("Postgres not available: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("Postgres not available: %v", err)
	}

	adapter := NewPostgresAdapter(pool)
	require.NoError(t, adapter.Migrate(context.Background()))
	return adapter, pool
}

func TestPostgresAdapter_LoadMissingKey(t *testing.T) {
	adapter, pool := getPostgresAdapter(t)
	defer pool.Close()

	ctx := context.Background()
	pool.Exec(ctx, `DELETE FROM kv_store WHERE k = 'test-missing'`)

	_, found, err := adapter.Load(ctx, "test-missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPostgresAdapter_StoreOverwrites(t *testing.T) {
	adapter, pool := getPostgresAdapter(t)
	defer pool.Close()

	ctx := context.Background()
	defer pool.Exec(ctx, `DELETE FROM kv_store WHERE k = 'test-upsert'`)

	require.NoError(t, adapter.Store(ctx, "test-upsert", []byte("first")))
	require.NoError(t, adapter.Store(ctx, "test-upsert", []byte("second")))

	data, found, err := adapter.Load(ctx, "test-upsert")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "second", string(data))
}

func TestPostgresAdapter_CollectionsRoundTrip(t *testing.T) {
	adapter, pool := getPostgresAdapter(t)
	defer pool.Close()

	ctx := context.Background()
	defer pool.Exec(ctx, `DELETE FROM kv_store WHERE k LIKE 'pgtest:%'`)

	c := NewCollections(adapter, "pgtest:")
	items := sampleItems()
	require.NoError(t, c.SaveInventory(ctx, items))

	got, err := c.LoadInventory(ctx)
	require.NoError(t, err)
	require.Len(t, got, len(items))
	assert.Equal(t, items[0].ID, got[0].ID)
	assert.True(t, items[0].Price.Equal(got[0].Price))
}
