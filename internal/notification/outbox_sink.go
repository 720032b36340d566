package notification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pk2025teslead/smartlogx-app/internal/events"
	"github.com/pk2025teslead/smartlogx-app/internal/leave"
	"github.com/pk2025teslead/smartlogx-app/internal/messaging/kafka"
	"github.com/pk2025teslead/smartlogx-app/internal/shared/contextutil"
)

// OutboxSink persists lifecycle notifications into notification_outbox,
// from where the producer worker publishes them to Kafka. Enqueue runs
// after the lifecycle transaction has committed, so a lost row means a
// lost mail, never a phantom one.
type OutboxSink struct {
	outbox kafka.OutboxRepository
	logger *zap.Logger
}

func NewOutboxSink(outbox kafka.OutboxRepository, logger ...*zap.Logger) *OutboxSink {
	l := zap.L()
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	return &OutboxSink{outbox: outbox, logger: l.Named("notification.outbox_sink")}
}

func (s *OutboxSink) LeaveCreated(ctx context.Context, d leave.Detail) error {
	return s.enqueue(ctx, events.TypeLeaveCreated, d, "")
}

func (s *OutboxSink) LeaveEdited(ctx context.Context, d leave.Detail) error {
	return s.enqueue(ctx, events.TypeLeaveEdited, d, "")
}

func (s *OutboxSink) LeaveApproved(ctx context.Context, d leave.Detail) error {
	return s.enqueue(ctx, events.TypeLeaveApproved, d, "")
}

func (s *OutboxSink) LeaveRejected(ctx context.Context, d leave.Detail, reason string) error {
	return s.enqueue(ctx, events.TypeLeaveRejected, d, reason)
}

func (s *OutboxSink) enqueue(ctx context.Context, eventType string, d leave.Detail, reason string) error {
	event := events.LeaveNotificationEvent{
		EventID:      uuid.NewString(),
		EventType:    eventType,
		LeaveID:      d.ID.String(),
		UserID:       d.UserID.String(),
		EmpID:        d.EmpID,
		EmpName:      d.EmpName,
		UserEmail:    d.UserEmail,
		FromDate:     d.FromDate.Format("2006-01-02"),
		ToDate:       d.ToDate.Format("2006-01-02"),
		TotalDays:    d.TotalDays,
		LeaveType:    string(d.LeaveType),
		Status:       string(d.Status),
		Notes:        d.Notes,
		ApproverName: d.ApproverName,
		Reason:       reason,
		OccurredAt:   time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	row := kafka.OutboxEvent{
		ID:        event.EventID,
		RequestID: contextutil.GetRequestID(ctx),
		LeaveID:   event.LeaveID,
		EventType: eventType,
		Topic:     events.TopicLeaveNotifications,
		Payload:   payload,
		Status:    kafka.OutboxStatusPending,
	}

	if err := s.outbox.Enqueue(ctx, row); err != nil {
		return err
	}

	s.logger.Debug("leave notification enqueued",
		zap.String("event_id", event.EventID),
		zap.String("event_type", eventType),
		zap.String("leave_id", event.LeaveID),
	)
	return nil
}
