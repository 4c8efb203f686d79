package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/youkaichao/WtfTicket/internal/store"
)

func TestGetOrCreateUserByOpenID(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user, err := db.GetOrCreateUserByOpenID(ctx, "open-1")
	if err != nil {
		t.Fatalf("GetOrCreateUserByOpenID failed: %v", err)
	}
	if user.IsBound() {
		t.Error("Fresh user should be unbound")
	}

	again, err := db.GetOrCreateUserByOpenID(ctx, "open-1")
	if err != nil {
		t.Fatalf("GetOrCreateUserByOpenID failed: %v", err)
	}
	if again.ID != user.ID {
		t.Errorf("Expected the same user row, got ids %d and %d", user.ID, again.ID)
	}
}

func TestBindStudentID(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.GetOrCreateUserByOpenID(ctx, "open-1"); err != nil {
		t.Fatalf("GetOrCreateUserByOpenID failed: %v", err)
	}

	if err := db.BindStudentID(ctx, "open-1", "2020010001"); err != nil {
		t.Fatalf("BindStudentID failed: %v", err)
	}

	user, err := db.GetUserByOpenID(ctx, "open-1")
	if err != nil {
		t.Fatalf("GetUserByOpenID failed: %v", err)
	}
	if user.StudentID != "2020010001" {
		t.Errorf("Expected student id 2020010001, got %s", user.StudentID)
	}

	// Rebinding the same id to the same account is allowed.
	if err := db.BindStudentID(ctx, "open-1", "2020010001"); err != nil {
		t.Errorf("Rebinding own student id failed: %v", err)
	}
}

func TestBindStudentIDTaken(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.GetOrCreateUserByOpenID(ctx, "open-1"); err != nil {
		t.Fatalf("GetOrCreateUserByOpenID failed: %v", err)
	}
	if _, err := db.GetOrCreateUserByOpenID(ctx, "open-2"); err != nil {
		t.Fatalf("GetOrCreateUserByOpenID failed: %v", err)
	}
	if err := db.BindStudentID(ctx, "open-1", "2020010001"); err != nil {
		t.Fatalf("BindStudentID failed: %v", err)
	}

	err := db.BindStudentID(ctx, "open-2", "2020010001")
	if !errors.Is(err, store.ErrStudentIDTaken) {
		t.Errorf("Expected ErrStudentIDTaken, got %v", err)
	}
}

func TestBindStudentIDUnknownUser(t *testing.T) {
	db := setupTestDB(t)

	err := db.BindStudentID(context.Background(), "no-such-open-id", "2020010001")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestUnbindStudentID(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.GetOrCreateUserByOpenID(ctx, "open-1"); err != nil {
		t.Fatalf("GetOrCreateUserByOpenID failed: %v", err)
	}
	if err := db.BindStudentID(ctx, "open-1", "2020010001"); err != nil {
		t.Fatalf("BindStudentID failed: %v", err)
	}
	if err := db.UnbindStudentID(ctx, "open-1"); err != nil {
		t.Fatalf("UnbindStudentID failed: %v", err)
	}

	user, err := db.GetUserByOpenID(ctx, "open-1")
	if err != nil {
		t.Fatalf("GetUserByOpenID failed: %v", err)
	}
	if user.IsBound() {
		t.Errorf("Expected user to be unbound, got student id %q", user.StudentID)
	}
}
