package storage

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getMySQLAdapter(t *testing.T) (*MySQLAdapter, *sql.DB) {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/vyappar?parseTime=true"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	adapter := NewMySQLAdapter(db)
	require.NoError(t, adapter.Migrate(context.Background()))
	return adapter, db
}

func TestMySQLAdapter_LoadMissingKey(t *testing.T) {
	adapter, db := getMySQLAdapter(t)
	defer db.Close()

	ctx := context.Background()
	db.ExecContext(ctx, `DELETE FROM kv_store WHERE k = 'test-missing'`)

	_, found, err := adapter.Load(ctx, "test-missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMySQLAdapter_StoreOverwrites(t *testing.T) {
	adapter, db := getMySQLAdapter(t)
	defer db.Close()

	ctx := context.Background()
	defer db.ExecContext(ctx, `DELETE FROM kv_store WHERE k = 'test-upsert'`)

	require.NoError(t, adapter.Store(ctx, "test-upsert", []byte("first")))
	require.NoError(t, adapter.Store(ctx, "test-upsert", []byte("second")))

	data, found, err := adapter.Load(ctx, "test-upsert")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "second", string(data))

	var count int
	db.QueryRowContext(ctx, `SELECT COUNT(*) FROM kv_store WHERE k = 'test-upsert'`).Scan(&count)
	assert.Equal(t, 1, count)
}
