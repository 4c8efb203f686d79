package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/youkaichao/WtfTicket/internal/models"
)

// Issue creates a new Valid ticket with a freshly generated unique id.
// The unique id is exposed externally as the ticket lookup key, so it is
// a UUID rather than anything derived from a row counter. The caller
// (the booking service) is responsible for having checked that no other
// Valid ticket exists for this (student, activity) pair.
func (d *DB) Issue(ctx context.Context, studentID string, activityID int64) (*models.Ticket, error) {
	ticket := &models.Ticket{
		UniqueID:   uuid.NewString(),
		StudentID:  studentID,
		ActivityID: activityID,
		Status:     models.TicketStatusValid,
		IssuedAt:   time.Now(),
	}
	if _, err := d.Bun.NewInsert().Model(ticket).Exec(ctx); err != nil {
		return nil, err
	}
	return ticket, nil
}

// Cancel transitions a Valid ticket to Cancelled. It reports whether the
// transition actually happened; a ticket that is already Cancelled or Used
// is left untouched.
func (d *DB) Cancel(ctx context.Context, uniqueID string) (bool, error) {
	return d.cancel(ctx, d.Bun, uniqueID)
}

func (d *DB) cancel(ctx context.Context, idb bun.IDB, uniqueID string) (bool, error) {
	res, err := idb.NewUpdate().
		Model((*models.Ticket)(nil)).
		Set("status = ?", models.TicketStatusCancelled).
		Where("unique_id = ?", uniqueID).
		Where("status = ?", models.TicketStatusValid).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// CancelWithRelease cancels the ticket and returns its capacity unit in a
// single transaction, so no reader can observe released capacity next to a
// still-Valid ticket. The release only happens when the ticket really
// moved out of Valid, which makes a second cancel a no-op for the counter.
func (d *DB) CancelWithRelease(ctx context.Context, ticket *models.Ticket) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		cancelled, err := d.cancel(ctx, tx, ticket.UniqueID)
		if err != nil {
			return err
		}
		if !cancelled {
			return nil
		}
		return d.release(ctx, tx, ticket.ActivityID)
	})
}

// MarkUsed transitions a Valid ticket to Used, reporting whether the
// transition happened. Used by the check-in gate.
func (d *DB) MarkUsed(ctx context.Context, uniqueID string) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Ticket)(nil)).
		Set("status = ?", models.TicketStatusUsed).
		Where("unique_id = ?", uniqueID).
		Where("status = ?", models.TicketStatusValid).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// FindActive returns the Valid ticket for a (student, activity) pair, or
// nil when the student holds none.
func (d *DB) FindActive(ctx context.Context, studentID string, activityID int64) (*models.Ticket, error) {
	var ticket models.Ticket
	err := d.Bun.NewSelect().
		Model(&ticket).
		Where("student_id = ?", studentID).
		Where("activity_id = ?", activityID).
		Where("status = ?", models.TicketStatusValid).
		Limit(1).
		Scan(ctx)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (d *DB) FindByUniqueID(ctx context.Context, uniqueID string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := d.Bun.NewSelect().
		Model(&ticket).
		Where("unique_id = ?", uniqueID).
		Limit(1).
		Scan(ctx)
	if isNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// FindLatestByStudent returns the most relevant ticket for a (student,
// activity) pair regardless of status: the Valid one when it exists,
// otherwise the most recently issued. Check-in uses this to tell "already
// used" apart from "never had a ticket".
func (d *DB) FindLatestByStudent(ctx context.Context, studentID string, activityID int64) (*models.Ticket, error) {
	ticket, err := d.FindActive(ctx, studentID, activityID)
	if err != nil {
		return nil, err
	}
	if ticket != nil {
		return ticket, nil
	}

	var latest models.Ticket
	err = d.Bun.NewSelect().
		Model(&latest).
		Where("student_id = ?", studentID).
		Where("activity_id = ?", activityID).
		Order("issued_at DESC").
		Limit(1).
		Scan(ctx)
	if isNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &latest, nil
}

// ListValidByStudent returns all Valid tickets a student currently holds,
// oldest first.
func (d *DB) ListValidByStudent(ctx context.Context, studentID string) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := d.Bun.NewSelect().
		Model(&tickets).
		Where("student_id = ?", studentID).
		Where("status = ?", models.TicketStatusValid).
		Order("issued_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tickets, nil
}
