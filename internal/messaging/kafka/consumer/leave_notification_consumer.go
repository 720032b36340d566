package consumer

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/pk2025teslead/smartlogx-app/internal/events"
	"github.com/pk2025teslead/smartlogx-app/internal/leave"
	leaveerrors "github.com/pk2025teslead/smartlogx-app/internal/leave/errors"
	"github.com/pk2025teslead/smartlogx-app/internal/notification"
)

// ConsumeLeaveNotifications reads published leave lifecycle events, hands
// each one to the mailer and records delivery on the leave row. Decision
// events mail the employee; submissions and edits mail the admin inbox.
func ConsumeLeaveNotifications(
	ctx context.Context,
	reader *kafkago.Reader,
	leaveService leave.Service,
	mailer notification.Mailer,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.leave_notifications")
	log.Info("leave notification consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("leave notification consumer stopped")
				return
			}
			log.Error("fetch leave notification message failed", zap.Error(err))
			continue
		}

		var event events.LeaveNotificationEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			// A payload that never decodes will never decode; commit past it.
			log.Error("decode leave notification event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		if err := mailer.Send(ctx, event); err != nil {
			log.Error("send leave notification mail failed",
				zap.String("event_id", event.EventID),
				zap.String("event_type", event.EventType),
				zap.String("leave_id", event.LeaveID),
				zap.Error(err),
			)
			continue
		}

		if err := markDelivered(ctx, leaveService, event); err != nil {
			if isMissingLeaveRow(err) {
				// The leave row was purged after the event was published.
				log.Warn("leave row gone for delivered notification, skipping",
					zap.String("leave_id", event.LeaveID),
					zap.String("event_type", event.EventType),
				)
				_ = reader.CommitMessages(ctx, msg)
				continue
			}

			log.Error("mark notification delivered failed",
				zap.String("leave_id", event.LeaveID),
				zap.String("event_type", event.EventType),
				zap.Error(err),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit leave notification message failed", zap.Error(err))
			continue
		}

		log.Info("leave notification delivered",
			zap.String("event_id", event.EventID),
			zap.String("event_type", event.EventType),
			zap.String("leave_id", event.LeaveID),
		)
	}
}

func markDelivered(ctx context.Context, leaveService leave.Service, event events.LeaveNotificationEvent) error {
	if event.NotifiesUser() {
		return leaveService.MarkUserNotified(ctx, event.LeaveID)
	}
	return leaveService.MarkAdminNotified(ctx, event.LeaveID)
}

func isMissingLeaveRow(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// foreign_key_violation can only mean the leave row disappeared.
		return pgErr.Code == "23503"
	}
	return errors.Is(err, leaveerrors.ErrLeaveNotFound)
}
