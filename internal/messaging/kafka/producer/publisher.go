package producer

import (
	"context"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/pk2025teslead/smartlogx-app/internal/messaging/kafka"
)

func publishEvent(ctx context.Context, writer *kafkago.Writer, event kafka.OutboxEvent) error {
	msg := kafkago.Message{
		Topic: event.Topic,
		// Key by leave id so all events for one request land on the same
		// partition and are consumed in order.
		Key:   []byte(event.LeaveID),
		Value: event.Payload,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "outbox_id", Value: []byte(event.ID)},
		},
	}

	return writer.WriteMessages(ctx, msg)
}
