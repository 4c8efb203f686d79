package checkin_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/youkaichao/WtfTicket/internal/checkin"
	"github.com/youkaichao/WtfTicket/internal/logger"
	"github.com/youkaichao/WtfTicket/internal/models"
	"github.com/youkaichao/WtfTicket/internal/store"
)

// MockRegistry holds a fixed set of tickets keyed by unique id.
type MockRegistry struct {
	tickets map[string]*models.Ticket
}

func NewMockRegistry() *MockRegistry {
	return &MockRegistry{tickets: make(map[string]*models.Ticket)}
}

func (m *MockRegistry) add(ticket *models.Ticket) {
	m.tickets[ticket.UniqueID] = ticket
}

func (m *MockRegistry) FindByUniqueID(ctx context.Context, uniqueID string) (*models.Ticket, error) {
	ticket, ok := m.tickets[uniqueID]
	if !ok {
		return nil, store.ErrNotFound
	}
	copy := *ticket
	return &copy, nil
}

func (m *MockRegistry) FindLatestByStudent(ctx context.Context, studentID string, activityID int64) (*models.Ticket, error) {
	var valid, latest *models.Ticket
	for _, ticket := range m.tickets {
		if ticket.StudentID != studentID || ticket.ActivityID != activityID {
			continue
		}
		if ticket.Status == models.TicketStatusValid {
			valid = ticket
		}
		if latest == nil || ticket.IssuedAt.After(latest.IssuedAt) {
			latest = ticket
		}
	}
	if valid != nil {
		copy := *valid
		return &copy, nil
	}
	if latest != nil {
		copy := *latest
		return &copy, nil
	}
	return nil, store.ErrNotFound
}

func (m *MockRegistry) MarkUsed(ctx context.Context, uniqueID string) (bool, error) {
	ticket, ok := m.tickets[uniqueID]
	if !ok || ticket.Status != models.TicketStatusValid {
		return false, nil
	}
	ticket.Status = models.TicketStatusUsed
	return true, nil
}

// MockPublisher records checked-in events.
type MockPublisher struct {
	checkedIn []models.Ticket
}

func (m *MockPublisher) PublishTicketCheckedIn(ticket models.Ticket) error {
	m.checkedIn = append(m.checkedIn, ticket)
	return nil
}

func validTicket(id, studentID string, activityID int64) *models.Ticket {
	return &models.Ticket{
		UniqueID:   id,
		StudentID:  studentID,
		ActivityID: activityID,
		Status:     models.TicketStatusValid,
		IssuedAt:   time.Now(),
	}
}

func TestCheckInByTicketID(t *testing.T) {
	registry := NewMockRegistry()
	registry.add(validTicket("t-1", "2020010001", 1))
	events := &MockPublisher{}
	svc := checkin.NewService(registry, events, logger.NewTestLogger())

	ticket, err := svc.CheckIn(context.Background(), checkin.Request{TicketID: "t-1"})
	if err != nil {
		t.Fatalf("CheckIn failed: %v", err)
	}
	if ticket.Status != models.TicketStatusUsed {
		t.Errorf("Expected status %d, got %d", models.TicketStatusUsed, ticket.Status)
	}
	if len(events.checkedIn) != 1 {
		t.Errorf("Expected 1 checked-in event, got %d", len(events.checkedIn))
	}
}

func TestCheckInByStudentID(t *testing.T) {
	registry := NewMockRegistry()
	registry.add(validTicket("t-1", "2020010001", 1))
	svc := checkin.NewService(registry, nil, logger.NewTestLogger())

	ticket, err := svc.CheckIn(context.Background(), checkin.Request{StudentID: "2020010001", ActivityID: 1})
	if err != nil {
		t.Fatalf("CheckIn failed: %v", err)
	}
	if ticket.UniqueID != "t-1" {
		t.Errorf("Expected ticket t-1, got %s", ticket.UniqueID)
	}
}

func TestCheckInExactlyOnce(t *testing.T) {
	registry := NewMockRegistry()
	registry.add(validTicket("t-1", "2020010001", 1))
	svc := checkin.NewService(registry, nil, logger.NewTestLogger())

	if _, err := svc.CheckIn(context.Background(), checkin.Request{TicketID: "t-1"}); err != nil {
		t.Fatalf("First check-in failed: %v", err)
	}

	_, err := svc.CheckIn(context.Background(), checkin.Request{TicketID: "t-1"})
	if !errors.Is(err, checkin.ErrAlreadyUsed) {
		t.Errorf("Expected ErrAlreadyUsed on the second scan, got %v", err)
	}
}

func TestCheckInRejectsCancelledTicket(t *testing.T) {
	registry := NewMockRegistry()
	ticket := validTicket("t-1", "2020010001", 1)
	ticket.Status = models.TicketStatusCancelled
	registry.add(ticket)
	svc := checkin.NewService(registry, nil, logger.NewTestLogger())

	_, err := svc.CheckIn(context.Background(), checkin.Request{TicketID: "t-1"})
	if !errors.Is(err, checkin.ErrAlreadyCancelled) {
		t.Errorf("Expected ErrAlreadyCancelled, got %v", err)
	}
}

func TestCheckInUnknownTicket(t *testing.T) {
	svc := checkin.NewService(NewMockRegistry(), nil, logger.NewTestLogger())

	_, err := svc.CheckIn(context.Background(), checkin.Request{TicketID: "no-such"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	_, err = svc.CheckIn(context.Background(), checkin.Request{StudentID: "2020019999", ActivityID: 1})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown student, got %v", err)
	}
}

func TestCheckInLookupIsExclusive(t *testing.T) {
	registry := NewMockRegistry()
	registry.add(validTicket("t-1", "2020010001", 1))
	svc := checkin.NewService(registry, nil, logger.NewTestLogger())

	cases := []checkin.Request{
		{},                                     // neither
		{TicketID: "t-1", StudentID: "2020010001"}, // both
		{StudentID: "2020010001"},              // student without activity
	}
	for _, req := range cases {
		if _, err := svc.CheckIn(context.Background(), req); !errors.Is(err, checkin.ErrBadLookup) {
			t.Errorf("Expected ErrBadLookup for %+v, got %v", req, err)
		}
	}
}

func TestCheckInByStudentReportsUsed(t *testing.T) {
	registry := NewMockRegistry()
	ticket := validTicket("t-1", "2020010001", 1)
	registry.add(ticket)
	svc := checkin.NewService(registry, nil, logger.NewTestLogger())

	if _, err := svc.CheckIn(context.Background(), checkin.Request{TicketID: "t-1"}); err != nil {
		t.Fatalf("First check-in failed: %v", err)
	}

	// The student-id path must say "already used", not "not found".
	_, err := svc.CheckIn(context.Background(), checkin.Request{StudentID: "2020010001", ActivityID: 1})
	if !errors.Is(err, checkin.ErrAlreadyUsed) {
		t.Errorf("Expected ErrAlreadyUsed, got %v", err)
	}
}
