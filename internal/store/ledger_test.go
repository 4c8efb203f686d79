package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
)

func TestTryReserveDecrements(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	activityID := insertActivity(t, db, 2, 2)

	ok, err := db.TryReserve(ctx, activityID)
	if err != nil {
		t.Fatalf("TryReserve failed: %v", err)
	}
	if !ok {
		t.Fatal("Expected reservation to succeed")
	}
	if remain := remainTickets(t, db, activityID); remain != 1 {
		t.Errorf("Expected 1 remaining ticket, got %d", remain)
	}
}

func TestTryReserveSoldOut(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	activityID := insertActivity(t, db, 3, 0)

	ok, err := db.TryReserve(ctx, activityID)
	if err != nil {
		t.Fatalf("TryReserve failed: %v", err)
	}
	if ok {
		t.Error("Expected reservation to fail on a sold out activity")
	}
	if remain := remainTickets(t, db, activityID); remain != 0 {
		t.Errorf("Remaining tickets went negative: %d", remain)
	}
}

func TestTryReserveUnknownActivity(t *testing.T) {
	db := setupTestDB(t)

	ok, err := db.TryReserve(context.Background(), 9999)
	if err != nil {
		t.Fatalf("TryReserve failed: %v", err)
	}
	if ok {
		t.Error("Expected reservation to fail for an unknown activity")
	}
}

func TestReleaseRestoresCapacity(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	activityID := insertActivity(t, db, 5, 5)

	if _, err := db.TryReserve(ctx, activityID); err != nil {
		t.Fatalf("TryReserve failed: %v", err)
	}
	if err := db.Release(ctx, activityID); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if remain := remainTickets(t, db, activityID); remain != 5 {
		t.Errorf("Expected 5 remaining tickets after release, got %d", remain)
	}
}

func TestReleaseNeverExceedsTotal(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	activityID := insertActivity(t, db, 5, 5)

	// Releasing at full capacity must not push remain above total.
	if err := db.Release(ctx, activityID); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if remain := remainTickets(t, db, activityID); remain != 5 {
		t.Errorf("Expected remain capped at 5, got %d", remain)
	}
}

func TestReleaseUnknownActivity(t *testing.T) {
	db := setupTestDB(t)

	if err := db.Release(context.Background(), 9999); err != nil {
		t.Fatalf("Release of unknown activity should be a no-op, got: %v", err)
	}
}

func TestConcurrentReserveNeverOversells(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	const capacity = 5
	const contenders = 20
	activityID := insertActivity(t, db, capacity, capacity)

	var successes int64
	var wg sync.WaitGroup
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := db.TryReserve(ctx, activityID)
			if err != nil {
				t.Errorf("TryReserve failed: %v", err)
				return
			}
			if ok {
				atomic.AddInt64(&successes, 1)
			}
		}()
	}
	wg.Wait()

	if successes != capacity {
		t.Errorf("Expected exactly %d successful reservations, got %d", capacity, successes)
	}
	if remain := remainTickets(t, db, activityID); remain != 0 {
		t.Errorf("Expected 0 remaining tickets, got %d", remain)
	}
}

func TestLastTicketHasSingleWinner(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	activityID := insertActivity(t, db, 1, 1)

	results := make(chan bool, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := db.TryReserve(ctx, activityID)
			if err != nil {
				t.Errorf("TryReserve failed: %v", err)
				return
			}
			results <- ok
		}()
	}
	wg.Wait()
	close(results)

	winners := 0
	for ok := range results {
		if ok {
			winners++
		}
	}
	if winners != 1 {
		t.Errorf("Expected exactly 1 winner for the last ticket, got %d", winners)
	}
}
