package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Activity statuses. Deleted activities are kept as rows so that issued
// tickets can still reference them.
const (
	ActivityStatusDeleted   = -1
	ActivityStatusSaved     = 0
	ActivityStatusPublished = 1
)

type Activity struct {
	bun.BaseModel `bun:"table:activities"`

	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	Name          string    `bun:"name,notnull" json:"name"`
	Key           string    `bun:"key,unique,notnull" json:"key"`
	Description   string    `bun:"description" json:"description"`
	StartTime     time.Time `bun:"start_time,notnull" json:"start_time"`
	EndTime       time.Time `bun:"end_time,notnull" json:"end_time"`
	Place         string    `bun:"place" json:"place"`
	BookStart     time.Time `bun:"book_start,notnull" json:"book_start"`
	BookEnd       time.Time `bun:"book_end,notnull" json:"book_end"`
	TotalTickets  int       `bun:"total_tickets,notnull" json:"total_tickets"`
	RemainTickets int       `bun:"remain_tickets,notnull" json:"remain_tickets"`
	Status        int       `bun:"status,notnull" json:"status"`
	PicURL        string    `bun:"pic_url" json:"pic_url"`
}

func (a *Activity) IsPublished() bool {
	return a.Status == ActivityStatusPublished
}
