package store

import (
	"context"
	"time"

	"github.com/youkaichao/WtfTicket/internal/models"
)

func (d *DB) GetActivityByID(ctx context.Context, id int64) (*models.Activity, error) {
	var activity models.Activity
	err := d.Bun.NewSelect().
		Model(&activity).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if isNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &activity, nil
}

func (d *DB) GetActivityByKey(ctx context.Context, key string) (*models.Activity, error) {
	var activity models.Activity
	err := d.Bun.NewSelect().
		Model(&activity).
		Where("key = ?", key).
		Limit(1).
		Scan(ctx)
	if isNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &activity, nil
}

// ListBookable returns published activities whose booking window has not
// ended yet, soonest deadline first. Used for the "what can I book" menu.
func (d *DB) ListBookable(ctx context.Context, now time.Time) ([]models.Activity, error) {
	var activities []models.Activity
	err := d.Bun.NewSelect().
		Model(&activities).
		Where("status = ?", models.ActivityStatusPublished).
		Where("book_end > ?", now).
		Order("book_end ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return activities, nil
}

// ListActivities returns every non-deleted activity for the admin list.
func (d *DB) ListActivities(ctx context.Context) ([]models.Activity, error) {
	var activities []models.Activity
	err := d.Bun.NewSelect().
		Model(&activities).
		Where("status != ?", models.ActivityStatusDeleted).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return activities, nil
}

func (d *DB) CreateActivity(ctx context.Context, activity *models.Activity) error {
	_, err := d.Bun.NewInsert().Model(activity).Exec(ctx)
	return err
}

// UpdateActivity writes the admin-editable fields. The remain_tickets
// counter is deliberately not in the column list: only the ledger touches
// it once an activity exists.
func (d *DB) UpdateActivity(ctx context.Context, activity *models.Activity) error {
	_, err := d.Bun.NewUpdate().
		Model(activity).
		Column("name", "key", "description", "start_time", "end_time",
			"place", "book_start", "book_end", "total_tickets", "status", "pic_url").
		Where("id = ?", activity.ID).
		Exec(ctx)
	return err
}

// AdjustCapacity changes total_tickets by delta and moves remain_tickets
// with it, for capacity edits on an unpublished activity.
func (d *DB) AdjustCapacity(ctx context.Context, activityID int64, delta int) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Activity)(nil)).
		Set("total_tickets = total_tickets + ?", delta).
		Set("remain_tickets = remain_tickets + ?", delta).
		Where("id = ?", activityID).
		Exec(ctx)
	return err
}

// DeleteActivity soft-deletes: tickets keep referencing the row.
func (d *DB) DeleteActivity(ctx context.Context, id int64) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Activity)(nil)).
		Set("status = ?", models.ActivityStatusDeleted).
		Where("id = ?", id).
		Exec(ctx)
	return err
}
