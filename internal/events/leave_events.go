package events

import "time"

const (
	TypeLeaveCreated  = "leave_created"
	TypeLeaveEdited   = "leave_edited"
	TypeLeaveApproved = "leave_approved"
	TypeLeaveRejected = "leave_rejected"

	TopicLeaveNotifications = "smartlogx.leave.notifications"
)

// LeaveNotificationEvent is the payload published for every observable
// lifecycle event. It carries a denormalized snapshot so the mail
// collaborator never has to query the database.
type LeaveNotificationEvent struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`

	LeaveID   string `json:"leave_id"`
	UserID    string `json:"user_id"`
	EmpID     string `json:"emp_id"`
	EmpName   string `json:"emp_name"`
	UserEmail string `json:"user_email"`

	FromDate  string `json:"from_date"`
	ToDate    string `json:"to_date"`
	TotalDays int    `json:"total_days"`
	LeaveType string `json:"leave_type"`
	Status    string `json:"status"`
	Notes     string `json:"notes,omitempty"`

	ApproverName *string `json:"approver_name,omitempty"`
	Reason       string  `json:"reason,omitempty"`

	OccurredAt time.Time `json:"occurred_at"`
}

// NotifiesUser reports whether the event targets the requesting employee
// (decision outcomes) rather than the admin inbox (new/changed requests).
func (e LeaveNotificationEvent) NotifiesUser() bool {
	return e.EventType == TypeLeaveApproved || e.EventType == TypeLeaveRejected
}
