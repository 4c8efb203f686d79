package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/youkaichao/WtfTicket/internal/logger"
	"github.com/youkaichao/WtfTicket/internal/models"
)

// reserveAttempts bounds the transparent retry on transient store errors
// (lock timeouts, deadlocks) before the caller sees ErrBusy.
const reserveAttempts = 3

type CapacityLedger interface {
	TryReserve(ctx context.Context, activityID int64) (bool, error)
	Release(ctx context.Context, activityID int64) error
}

type TicketRegistry interface {
	Issue(ctx context.Context, studentID string, activityID int64) (*models.Ticket, error)
	FindActive(ctx context.Context, studentID string, activityID int64) (*models.Ticket, error)
	CancelWithRelease(ctx context.Context, ticket *models.Ticket) error
}

// BookingLock serialises duplicate taps from the same student on the same
// activity. Optional; a nil lock skips the guard.
type BookingLock interface {
	Acquire(ctx context.Context, studentID string, activityID int64) (bool, error)
	Release(ctx context.Context, studentID string, activityID int64) error
}

type EventPublisher interface {
	PublishTicketIssued(ticket models.Ticket) error
	PublishTicketCancelled(ticket models.Ticket) error
}

// Service is the booking state machine. The clock is injected so window
// checks are deterministic under test.
type Service struct {
	Ledger   CapacityLedger
	Registry TicketRegistry
	Lock     BookingLock
	Events   EventPublisher
	Logger   *logger.Logger
	Now      func() time.Time
}

func NewService(ledger CapacityLedger, registry TicketRegistry, lock BookingLock, events EventPublisher, log *logger.Logger) *Service {
	return &Service{
		Ledger:   ledger,
		Registry: registry,
		Lock:     lock,
		Events:   events,
		Logger:   log,
		Now:      time.Now,
	}
}

// Result is a successful booking outcome. Existing is set when the student
// already held a Valid ticket and got it back instead of a new one.
type Result struct {
	Ticket   *models.Ticket
	Existing bool
}

// Book runs the admission gate in its fixed order: published, bound,
// existing ticket, window start, window end, capacity. The order decides
// which rejection an applicant with several failing conditions sees, so it
// must not be rearranged.
func (s *Service) Book(ctx context.Context, user *models.User, activity *models.Activity) (*Result, error) {
	if activity == nil || !activity.IsPublished() {
		return nil, ErrNotPublished
	}
	if !user.IsBound() {
		return nil, ErrNotBound
	}

	existing, err := s.Registry.FindActive(ctx, user.StudentID, activity.ID)
	if err != nil {
		return nil, fmt.Errorf("find active ticket: %w", err)
	}
	if existing != nil {
		return &Result{Ticket: existing, Existing: true}, nil
	}

	now := s.Now()
	if now.Before(activity.BookStart) {
		return nil, ErrNotStarted
	}
	if now.After(activity.BookEnd) {
		return nil, ErrEnded
	}

	if s.Lock != nil {
		ok, err := s.Lock.Acquire(ctx, user.StudentID, activity.ID)
		if err != nil {
			return nil, fmt.Errorf("booking lock: %w", err)
		}
		if !ok {
			return nil, ErrBusy
		}
		defer func() {
			if err := s.Lock.Release(ctx, user.StudentID, activity.ID); err != nil {
				s.Logger.Warn("BOOKING", fmt.Sprintf("failed to release booking lock for %s/%d: %v", user.StudentID, activity.ID, err))
			}
		}()
	}

	reserved, err := s.tryReserve(ctx, activity.ID)
	if err != nil {
		return nil, err
	}
	if !reserved {
		return nil, ErrSoldOut
	}

	ticket, err := s.Registry.Issue(ctx, user.StudentID, activity.ID)
	if err != nil {
		// The counter moved but no ticket exists; give the unit back so the
		// two stay consistent.
		if relErr := s.Ledger.Release(ctx, activity.ID); relErr != nil {
			s.Logger.Error("BOOKING", fmt.Sprintf("failed to roll back reservation for activity %d: %v", activity.ID, relErr))
		}
		return nil, fmt.Errorf("issue ticket: %w", err)
	}

	s.Logger.Info("BOOKING", fmt.Sprintf("issued ticket %s for student %s, activity %d", ticket.UniqueID, user.StudentID, activity.ID))
	if s.Events != nil {
		if err := s.Events.PublishTicketIssued(*ticket); err != nil {
			s.Logger.Warn("BOOKING", fmt.Sprintf("publish ticket issued: %v", err))
		}
	}
	return &Result{Ticket: ticket}, nil
}

func (s *Service) tryReserve(ctx context.Context, activityID int64) (bool, error) {
	var lastErr error
	for attempt := 0; attempt < reserveAttempts; attempt++ {
		reserved, err := s.Ledger.TryReserve(ctx, activityID)
		if err == nil {
			return reserved, nil
		}
		lastErr = err
		s.Logger.Warn("BOOKING", fmt.Sprintf("reserve attempt %d for activity %d: %v", attempt+1, activityID, err))
	}
	s.Logger.Error("BOOKING", fmt.Sprintf("reserve gave up for activity %d: %v", activityID, lastErr))
	return false, ErrBusy
}

// Cancel voids the student's Valid ticket for the activity and returns the
// capacity unit. Gate precedence matches Book for the shared conditions.
func (s *Service) Cancel(ctx context.Context, user *models.User, activity *models.Activity) (*models.Ticket, error) {
	if activity == nil || !activity.IsPublished() {
		return nil, ErrNotPublished
	}
	if !user.IsBound() {
		return nil, ErrNotBound
	}

	ticket, err := s.Registry.FindActive(ctx, user.StudentID, activity.ID)
	if err != nil {
		return nil, fmt.Errorf("find active ticket: %w", err)
	}
	if ticket == nil {
		return nil, ErrNoTicket
	}

	if err := s.Registry.CancelWithRelease(ctx, ticket); err != nil {
		return nil, fmt.Errorf("cancel ticket %s: %w", ticket.UniqueID, err)
	}
	ticket.Status = models.TicketStatusCancelled

	s.Logger.Info("BOOKING", fmt.Sprintf("cancelled ticket %s for student %s, activity %d", ticket.UniqueID, user.StudentID, activity.ID))
	if s.Events != nil {
		if err := s.Events.PublishTicketCancelled(*ticket); err != nil {
			s.Logger.Warn("BOOKING", fmt.Sprintf("publish ticket cancelled: %v", err))
		}
	}
	return ticket, nil
}

// Withdraw looks up the student's Valid ticket for the activity without
// changing any state.
func (s *Service) Withdraw(ctx context.Context, user *models.User, activity *models.Activity) (*models.Ticket, error) {
	if activity == nil || !activity.IsPublished() {
		return nil, ErrNotPublished
	}
	if !user.IsBound() {
		return nil, ErrNotBound
	}

	ticket, err := s.Registry.FindActive(ctx, user.StudentID, activity.ID)
	if err != nil {
		return nil, fmt.Errorf("find active ticket: %w", err)
	}
	if ticket == nil {
		return nil, ErrNoTicket
	}
	return ticket, nil
}
