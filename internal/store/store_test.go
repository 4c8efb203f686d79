package store_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/youkaichao/WtfTicket/internal/models"
	"github.com/youkaichao/WtfTicket/internal/store"
)

func setupTestDB(t *testing.T) *store.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("Failed to open SQLite: %v", err)
	}
	// SQLite allows one writer at a time; a single connection avoids
	// spurious busy errors in the concurrency tests.
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	if err := store.ResetSchema(context.Background(), bunDB); err != nil {
		t.Fatalf("Failed to set up schema: %v", err)
	}
	t.Cleanup(func() { bunDB.Close() })

	return &store.DB{Bun: bunDB}
}

var keyCounter int64

// insertActivity writes a published activity with an open booking window
// and the given capacity, and returns its id.
func insertActivity(t *testing.T, db *store.DB, total, remain int) int64 {
	t.Helper()

	now := time.Now()
	activity := &models.Activity{
		Name:          "Test Activity",
		Key:           fmt.Sprintf("test-%d", atomic.AddInt64(&keyCounter, 1)),
		StartTime:     now.Add(24 * time.Hour),
		EndTime:       now.Add(26 * time.Hour),
		BookStart:     now.Add(-time.Hour),
		BookEnd:       now.Add(time.Hour),
		TotalTickets:  total,
		RemainTickets: remain,
		Status:        models.ActivityStatusPublished,
	}
	if err := db.CreateActivity(context.Background(), activity); err != nil {
		t.Fatalf("Failed to create activity: %v", err)
	}
	return activity.ID
}

func remainTickets(t *testing.T, db *store.DB, activityID int64) int {
	t.Helper()

	activity, err := db.GetActivityByID(context.Background(), activityID)
	if err != nil {
		t.Fatalf("Failed to load activity: %v", err)
	}
	return activity.RemainTickets
}
