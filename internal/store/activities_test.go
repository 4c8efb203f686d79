package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/youkaichao/WtfTicket/internal/models"
	"github.com/youkaichao/WtfTicket/internal/store"
)

func TestGetActivityByKey(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	now := time.Now()
	activity := &models.Activity{
		Name:          "Spring Concert",
		Key:           "concert",
		StartTime:     now.Add(24 * time.Hour),
		EndTime:       now.Add(26 * time.Hour),
		BookStart:     now.Add(-time.Hour),
		BookEnd:       now.Add(time.Hour),
		TotalTickets:  100,
		RemainTickets: 100,
		Status:        models.ActivityStatusPublished,
	}
	if err := db.CreateActivity(ctx, activity); err != nil {
		t.Fatalf("CreateActivity failed: %v", err)
	}

	found, err := db.GetActivityByKey(ctx, "concert")
	if err != nil {
		t.Fatalf("GetActivityByKey failed: %v", err)
	}
	if found.ID != activity.ID {
		t.Errorf("Expected activity id %d, got %d", activity.ID, found.ID)
	}

	_, err = db.GetActivityByKey(ctx, "no-such-key")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestListBookableFiltersAndOrders(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Now()

	insert := func(key string, status int, bookEnd time.Time) {
		t.Helper()
		activity := &models.Activity{
			Name:          key,
			Key:           key,
			StartTime:     now.Add(24 * time.Hour),
			EndTime:       now.Add(26 * time.Hour),
			BookStart:     now.Add(-2 * time.Hour),
			BookEnd:       bookEnd,
			TotalTickets:  10,
			RemainTickets: 10,
			Status:        status,
		}
		if err := db.CreateActivity(ctx, activity); err != nil {
			t.Fatalf("CreateActivity failed: %v", err)
		}
	}

	insert("later", models.ActivityStatusPublished, now.Add(3*time.Hour))
	insert("sooner", models.ActivityStatusPublished, now.Add(time.Hour))
	insert("draft", models.ActivityStatusSaved, now.Add(time.Hour))
	insert("ended", models.ActivityStatusPublished, now.Add(-time.Hour))

	activities, err := db.ListBookable(ctx, now)
	if err != nil {
		t.Fatalf("ListBookable failed: %v", err)
	}
	if len(activities) != 2 {
		t.Fatalf("Expected 2 bookable activities, got %d", len(activities))
	}
	if activities[0].Key != "sooner" || activities[1].Key != "later" {
		t.Errorf("Expected order [sooner later], got [%s %s]", activities[0].Key, activities[1].Key)
	}
}

func TestUpdateActivityLeavesRemainAlone(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	activityID := insertActivity(t, db, 10, 10)

	if ok, err := db.TryReserve(ctx, activityID); err != nil || !ok {
		t.Fatalf("TryReserve failed: ok=%v err=%v", ok, err)
	}

	activity, err := db.GetActivityByID(ctx, activityID)
	if err != nil {
		t.Fatalf("GetActivityByID failed: %v", err)
	}
	activity.Name = "Renamed"
	activity.RemainTickets = 999 // must be ignored by the update
	if err := db.UpdateActivity(ctx, activity); err != nil {
		t.Fatalf("UpdateActivity failed: %v", err)
	}

	updated, err := db.GetActivityByID(ctx, activityID)
	if err != nil {
		t.Fatalf("GetActivityByID failed: %v", err)
	}
	if updated.Name != "Renamed" {
		t.Errorf("Expected name Renamed, got %s", updated.Name)
	}
	if updated.RemainTickets != 9 {
		t.Errorf("Expected remain untouched at 9, got %d", updated.RemainTickets)
	}
}

func TestAdjustCapacityMovesBothCounters(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	activityID := insertActivity(t, db, 10, 10)

	if err := db.AdjustCapacity(ctx, activityID, 5); err != nil {
		t.Fatalf("AdjustCapacity failed: %v", err)
	}

	activity, err := db.GetActivityByID(ctx, activityID)
	if err != nil {
		t.Fatalf("GetActivityByID failed: %v", err)
	}
	if activity.TotalTickets != 15 || activity.RemainTickets != 15 {
		t.Errorf("Expected 15/15, got %d/%d", activity.TotalTickets, activity.RemainTickets)
	}
}

func TestDeleteActivityIsSoft(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	activityID := insertActivity(t, db, 10, 10)

	if err := db.DeleteActivity(ctx, activityID); err != nil {
		t.Fatalf("DeleteActivity failed: %v", err)
	}

	// The row survives for tickets that reference it.
	activity, err := db.GetActivityByID(ctx, activityID)
	if err != nil {
		t.Fatalf("GetActivityByID failed: %v", err)
	}
	if activity.Status != models.ActivityStatusDeleted {
		t.Errorf("Expected status %d, got %d", models.ActivityStatusDeleted, activity.Status)
	}

	activities, err := db.ListActivities(ctx)
	if err != nil {
		t.Fatalf("ListActivities failed: %v", err)
	}
	for _, a := range activities {
		if a.ID == activityID {
			t.Error("Deleted activity still appears in the admin list")
		}
	}
}
