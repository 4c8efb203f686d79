package store

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/youkaichao/WtfTicket/internal/models"
)

// TryReserve takes one unit of remaining capacity for the activity.
// The decrement is a single conditional UPDATE, so the read-modify-write is
// atomic on the database side: of N concurrent callers contending for the
// last unit, exactly one sees a row affected. An unknown activity id
// matches no row and the reservation fails closed.
func (d *DB) TryReserve(ctx context.Context, activityID int64) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Activity)(nil)).
		Set("remain_tickets = remain_tickets - 1").
		Where("id = ?", activityID).
		Where("remain_tickets > 0").
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

// Release returns one unit of capacity. The caller must only release a
// unit it previously reserved; the guard against exceeding total_tickets
// keeps the 0 <= remain <= total invariant even if it doesn't. Releasing
// an unknown activity id is a silent no-op so cancelling a ticket for an
// already-deleted activity cannot fail the flow.
func (d *DB) Release(ctx context.Context, activityID int64) error {
	return d.release(ctx, d.Bun, activityID)
}

func (d *DB) release(ctx context.Context, idb bun.IDB, activityID int64) error {
	_, err := idb.NewUpdate().
		Model((*models.Activity)(nil)).
		Set("remain_tickets = remain_tickets + 1").
		Where("id = ?", activityID).
		Where("remain_tickets < total_tickets").
		Exec(ctx)
	return err
}
