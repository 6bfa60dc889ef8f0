package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"spots-clone-server/models"

	amqp "github.com/rabbitmq/amqp091-go"
)

// EventPublisher emits booking lifecycle events on a topic exchange.
// Publication is best effort and happens after the database commit, so a
// broker outage never blocks or rolls back a booking.
type EventPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewEventPublisher(url, exchange string) (*EventPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &EventPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

type bookingEvent struct {
	BookingID  uint   `json:"bookingID"`
	Reference  string `json:"reference"`
	SpotID     uint   `json:"spotID"`
	UserID     uint   `json:"userID"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	OccurredAt string `json:"occurredAt"`
}

func (p *EventPublisher) PublishBooking(ctx context.Context, key string, b *models.Booking) error {
	event := bookingEvent{
		BookingID:  b.ID,
		Reference:  b.Reference,
		SpotID:     b.SpotID,
		UserID:     b.UserID,
		StartDate:  b.StartDate.Format("2006-01-02"),
		EndDate:    b.EndDate.Format("2006-01-02"),
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}

func (p *EventPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
