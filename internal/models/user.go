package models

import (
	"github.com/uptrace/bun"
)

// User is a chat-platform account. StudentID is empty until the user binds
// one; a bound student id belongs to at most one user at a time.
type User struct {
	bun.BaseModel `bun:"table:users"`

	ID        int64  `bun:"id,pk,autoincrement" json:"id"`
	OpenID    string `bun:"open_id,unique,notnull" json:"open_id"`
	StudentID string `bun:"student_id" json:"student_id"`
}

func (u *User) IsBound() bool {
	return u.StudentID != ""
}
