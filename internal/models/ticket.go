package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Ticket statuses. Tickets are never deleted, only moved between statuses,
// so the table doubles as an audit trail.
const (
	TicketStatusCancelled = 0
	TicketStatusValid     = 1
	TicketStatusUsed      = 2
)

type Ticket struct {
	bun.BaseModel `bun:"table:tickets"`

	UniqueID   string    `bun:"unique_id,pk" json:"unique_id"`
	StudentID  string    `bun:"student_id,notnull" json:"student_id"`
	ActivityID int64     `bun:"activity_id,notnull" json:"activity_id"`
	Status     int       `bun:"status,notnull" json:"status"`
	IssuedAt   time.Time `bun:"issued_at,notnull" json:"issued_at"`
}
