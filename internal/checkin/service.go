package checkin

import (
	"context"
	"errors"
	"fmt"

	"github.com/youkaichao/WtfTicket/internal/logger"
	"github.com/youkaichao/WtfTicket/internal/models"
	"github.com/youkaichao/WtfTicket/internal/store"
)

var (
	// ErrBadLookup is a caller error: a check-in request must carry exactly
	// one of ticket unique id or student id.
	ErrBadLookup = errors.New("provide exactly one of ticket id or student id")

	ErrAlreadyUsed      = errors.New("ticket already used")
	ErrAlreadyCancelled = errors.New("ticket already cancelled")
)

type Registry interface {
	FindByUniqueID(ctx context.Context, uniqueID string) (*models.Ticket, error)
	FindLatestByStudent(ctx context.Context, studentID string, activityID int64) (*models.Ticket, error)
	MarkUsed(ctx context.Context, uniqueID string) (bool, error)
}

type EventPublisher interface {
	PublishTicketCheckedIn(ticket models.Ticket) error
}

// Service is the staff-facing check-in gate. It bypasses the message
// router entirely and talks straight to the ticket registry.
type Service struct {
	Registry Registry
	Events   EventPublisher
	Logger   *logger.Logger
}

func NewService(registry Registry, events EventPublisher, log *logger.Logger) *Service {
	return &Service{Registry: registry, Events: events, Logger: log}
}

// Request identifies one ticket at the door. TicketID and StudentID are
// mutually exclusive; ActivityID scopes the student-id lookup to the event
// being checked in (a student id alone is ambiguous across activities).
type Request struct {
	TicketID   string
	StudentID  string
	ActivityID int64
}

// CheckIn marks a Valid ticket Used exactly once and returns it. A ticket
// that is already Used or Cancelled is rejected with an error naming which.
func (s *Service) CheckIn(ctx context.Context, req Request) (*models.Ticket, error) {
	ticket, err := s.resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	switch ticket.Status {
	case models.TicketStatusUsed:
		return nil, ErrAlreadyUsed
	case models.TicketStatusCancelled:
		return nil, ErrAlreadyCancelled
	}

	used, err := s.Registry.MarkUsed(ctx, ticket.UniqueID)
	if err != nil {
		return nil, fmt.Errorf("mark ticket %s used: %w", ticket.UniqueID, err)
	}
	if !used {
		// Lost the race against a concurrent scan of the same ticket.
		return nil, ErrAlreadyUsed
	}
	ticket.Status = models.TicketStatusUsed

	s.Logger.Info("CHECKIN", fmt.Sprintf("ticket %s checked in for student %s", ticket.UniqueID, ticket.StudentID))
	if s.Events != nil {
		if err := s.Events.PublishTicketCheckedIn(*ticket); err != nil {
			s.Logger.Warn("CHECKIN", fmt.Sprintf("publish ticket checked in: %v", err))
		}
	}
	return ticket, nil
}

func (s *Service) resolve(ctx context.Context, req Request) (*models.Ticket, error) {
	hasTicket := req.TicketID != ""
	hasStudent := req.StudentID != ""
	if hasTicket == hasStudent {
		return nil, ErrBadLookup
	}

	if hasTicket {
		return s.Registry.FindByUniqueID(ctx, req.TicketID)
	}
	if req.ActivityID == 0 {
		return nil, ErrBadLookup
	}
	ticket, err := s.Registry.FindLatestByStudent(ctx, req.StudentID, req.ActivityID)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, store.ErrNotFound
	}
	return ticket, nil
}
