package notification

import (
	"context"

	"go.uber.org/zap"

	"github.com/pk2025teslead/smartlogx-app/internal/leave"
)

// LogSink records lifecycle notifications on the structured log only.
// It backs deployments without Kafka and is the default sink in tests.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger ...*zap.Logger) *LogSink {
	l := zap.L()
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	return &LogSink{logger: l.Named("notification.sink")}
}

func (s *LogSink) LeaveCreated(_ context.Context, d leave.Detail) error {
	s.log("leave request submitted", d, "")
	return nil
}

func (s *LogSink) LeaveEdited(_ context.Context, d leave.Detail) error {
	s.log("leave request edited", d, "")
	return nil
}

func (s *LogSink) LeaveApproved(_ context.Context, d leave.Detail) error {
	s.log("leave request approved", d, "")
	return nil
}

func (s *LogSink) LeaveRejected(_ context.Context, d leave.Detail, reason string) error {
	s.log("leave request rejected", d, reason)
	return nil
}

func (s *LogSink) log(msg string, d leave.Detail, reason string) {
	fields := []zap.Field{
		zap.String("leave_id", d.ID.String()),
		zap.String("emp_id", d.EmpID),
		zap.String("emp_name", d.EmpName),
		zap.String("status", string(d.Status)),
		zap.String("from_date", d.FromDate.Format("2006-01-02")),
		zap.String("to_date", d.ToDate.Format("2006-01-02")),
	}
	if reason != "" {
		fields = append(fields, zap.String("reason", reason))
	}
	s.logger.Info(msg, fields...)
}
