package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "open sqlite")
	return db
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

func createPinTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE pins (
		cid TEXT PRIMARY KEY,
		backend TEXT NOT NULL,
		pin_id TEXT,
		wallet_address TEXT NOT NULL,
		type TEXT,
		entity_id TEXT,
		tags TEXT,
		pinned_at DATETIME NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}
