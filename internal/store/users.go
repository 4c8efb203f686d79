package store

import (
	"context"
	"database/sql"

	"github.com/uptrace/bun"

	"github.com/youkaichao/WtfTicket/internal/models"
)

func (d *DB) GetUserByOpenID(ctx context.Context, openID string) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where("open_id = ?", openID).
		Limit(1).
		Scan(ctx)
	if isNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetOrCreateUserByOpenID makes first contact from the chat platform create
// the user row.
func (d *DB) GetOrCreateUserByOpenID(ctx context.Context, openID string) (*models.User, error) {
	user, err := d.GetUserByOpenID(ctx, openID)
	if err == nil {
		return user, nil
	}
	if err != ErrNotFound {
		return nil, err
	}
	user = &models.User{OpenID: openID}
	if _, err := d.Bun.NewInsert().Model(user).Exec(ctx); err != nil {
		return nil, err
	}
	return user, nil
}

func (d *DB) GetUserByStudentID(ctx context.Context, studentID string) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where("student_id = ?", studentID).
		Limit(1).
		Scan(ctx)
	if isNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// BindStudentID links a student id to the user. The uniqueness check and
// the write run in one transaction so two users cannot bind the same id.
func (d *DB) BindStudentID(ctx context.Context, openID, studentID string) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*models.User)(nil)).
			Where("student_id = ?", studentID).
			Where("open_id != ?", openID).
			Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			return ErrStudentIDTaken
		}
		res, err := tx.NewUpdate().
			Model((*models.User)(nil)).
			Set("student_id = ?", studentID).
			Where("open_id = ?", openID).
			Exec(ctx)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// UnbindStudentID clears the link; unbound users share the empty student id.
func (d *DB) UnbindStudentID(ctx context.Context, openID string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.User)(nil)).
		Set("student_id = ''").
		Where("open_id = ?", openID).
		Exec(ctx)
	return err
}
