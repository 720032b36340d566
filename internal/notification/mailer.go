package notification

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pk2025teslead/smartlogx-app/internal/events"
)

// Mailer delivers one rendered leave notification to its recipient.
// The consumer treats a nil error as delivered and flips the matching
// email flag on the leave row.
type Mailer interface {
	Send(ctx context.Context, event events.LeaveNotificationEvent) error
}

// LogMailer writes the rendered mail to the structured log instead of an
// SMTP relay. It stands in wherever a real mail gateway is not configured.
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger ...*zap.Logger) *LogMailer {
	l := zap.L()
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	return &LogMailer{logger: l.Named("notification.mailer")}
}

func (m *LogMailer) Send(_ context.Context, event events.LeaveNotificationEvent) error {
	recipient := "admin inbox"
	if event.NotifiesUser() {
		recipient = event.UserEmail
	}

	m.logger.Info("leave notification mail",
		zap.String("event_type", event.EventType),
		zap.String("recipient", recipient),
		zap.String("leave_id", event.LeaveID),
		zap.String("subject", subjectFor(event)),
	)
	return nil
}

func subjectFor(event events.LeaveNotificationEvent) string {
	switch event.EventType {
	case events.TypeLeaveCreated:
		return fmt.Sprintf("New leave request from %s (%s - %s)", event.EmpName, event.FromDate, event.ToDate)
	case events.TypeLeaveEdited:
		return fmt.Sprintf("Leave request updated by %s (%s - %s)", event.EmpName, event.FromDate, event.ToDate)
	case events.TypeLeaveApproved:
		return fmt.Sprintf("Your leave request %s - %s has been approved", event.FromDate, event.ToDate)
	case events.TypeLeaveRejected:
		return fmt.Sprintf("Your leave request %s - %s has been rejected", event.FromDate, event.ToDate)
	default:
		return "Leave request notification"
	}
}
