package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/youkaichao/WtfTicket/internal/config"
	"github.com/youkaichao/WtfTicket/internal/logger"
	"github.com/youkaichao/WtfTicket/internal/models"
)

// Producer streams ticket lifecycle events, one topic per transition.
// Downstream consumers (mail, analytics) are outside this repo.
type Producer struct {
	issued    *kafka.Writer
	cancelled *kafka.Writer
	checkedIn *kafka.Writer
	Logger    *logger.Logger
}

func NewProducer(brokers []string, topics config.TopicConfig, log *logger.Logger) *Producer {
	writer := func(topic string) *kafka.Writer {
		return kafka.NewWriter(kafka.WriterConfig{
			Brokers: brokers,
			Topic:   topic,
		})
	}
	return &Producer{
		issued:    writer(topics.TicketIssued),
		cancelled: writer(topics.TicketCancelled),
		checkedIn: writer(topics.TicketCheckedIn),
		Logger:    log,
	}
}

func (p *Producer) publish(writer *kafka.Writer, ticket models.Ticket) error {
	msgBytes, err := json.Marshal(ticket)
	if err != nil {
		return err
	}
	p.Logger.Info("KAFKA", fmt.Sprintf("publishing to %s: ticket %s", writer.Topic, ticket.UniqueID))
	return writer.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(ticket.UniqueID),
		Value: msgBytes,
	})
}

func (p *Producer) PublishTicketIssued(ticket models.Ticket) error {
	return p.publish(p.issued, ticket)
}

func (p *Producer) PublishTicketCancelled(ticket models.Ticket) error {
	return p.publish(p.cancelled, ticket)
}

func (p *Producer) PublishTicketCheckedIn(ticket models.Ticket) error {
	return p.publish(p.checkedIn, ticket)
}

func (p *Producer) Close() error {
	for _, w := range []*kafka.Writer{p.issued, p.cancelled, p.checkedIn} {
		if err := w.Close(); err != nil {
			return err
		}
	}
	return nil
}

// MockPublisher satisfies the same surface but only logs, for local runs
// without a broker (KAFKA_MOCK_MODE).
type MockPublisher struct {
	Logger *logger.Logger
}

func (m *MockPublisher) PublishTicketIssued(ticket models.Ticket) error {
	m.Logger.Info("KAFKA", fmt.Sprintf("[mock] ticket issued: %s", ticket.UniqueID))
	return nil
}

func (m *MockPublisher) PublishTicketCancelled(ticket models.Ticket) error {
	m.Logger.Info("KAFKA", fmt.Sprintf("[mock] ticket cancelled: %s", ticket.UniqueID))
	return nil
}

func (m *MockPublisher) PublishTicketCheckedIn(ticket models.Ticket) error {
	m.Logger.Info("KAFKA", fmt.Sprintf("[mock] ticket checked in: %s", ticket.UniqueID))
	return nil
}
