package store

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/youkaichao/WtfTicket/internal/models"
)

// CreateSchema creates the three tables if they are missing. Production
// deployments run the SQL migrations instead (internal/database/migrations);
// this path serves tests and local development against SQLite.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	for _, model := range []interface{}{
		(*models.User)(nil),
		(*models.Activity)(nil),
		(*models.Ticket)(nil),
	} {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

// ResetSchema drops and recreates the tables. Test helper.
func ResetSchema(ctx context.Context, db *bun.DB) error {
	return db.ResetModel(ctx,
		(*models.User)(nil),
		(*models.Activity)(nil),
		(*models.Ticket)(nil),
	)
}
