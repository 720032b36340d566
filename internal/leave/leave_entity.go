package leave

import (
	"time"

	"github.com/google/uuid"
)

// Status is the leave request state. PENDING is the only non-terminal state;
// no operation ever transitions out of APPROVED, REJECTED or CANCELLED.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s.Valid() && s != StatusPending
}

type LeaveType string

const (
	TypePlanned   LeaveType = "PLANNED"
	TypeCasual    LeaveType = "CASUAL"
	TypeEmergency LeaveType = "EMERGENCY"
	TypeSick      LeaveType = "SICK"
)

func (t LeaveType) Valid() bool {
	switch t {
	case TypePlanned, TypeCasual, TypeEmergency, TypeSick:
		return true
	}
	return false
}

// LeaveRequest is the central row. EditableUntil is anchored at creation and
// never moves, even across edits. ApprovedBy/ApprovedAt are set exactly once
// by the terminal admin decision and stay nil for PENDING and CANCELLED.
type LeaveRequest struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID        uuid.UUID  `gorm:"type:uuid;not null;index:idx_leave_requests_user" json:"user_id"`
	FromDate      time.Time  `gorm:"type:date;not null;index:idx_leave_requests_dates" json:"from_date"`
	ToDate        time.Time  `gorm:"type:date;not null;index:idx_leave_requests_dates" json:"to_date"`
	TotalDays     int        `gorm:"type:int;not null;default:1" json:"total_days"`
	LeaveType     LeaveType  `gorm:"type:varchar(30);not null" json:"leave_type"`
	Notes         string     `gorm:"type:text" json:"notes"`
	Status        Status     `gorm:"type:varchar(20);not null;default:'PENDING';index:idx_leave_requests_status" json:"status"`
	CreatedAt     time.Time  `gorm:"not null" json:"created_at"`
	EditableUntil time.Time  `gorm:"not null;index:idx_leave_requests_editable_until" json:"editable_until"`
	UpdatedAt     time.Time  `gorm:"not null" json:"updated_at"`
	CreatedBy     uuid.UUID  `gorm:"type:uuid;not null" json:"created_by"`

	ApprovedBy    *uuid.UUID `gorm:"type:uuid" json:"approved_by,omitempty"`
	ApprovedAt    *time.Time `json:"approved_at,omitempty"`
	ApprovalNotes *string    `gorm:"type:text" json:"approval_notes,omitempty"`

	EmailSentAdmin bool `gorm:"not null;default:false" json:"email_sent_admin"`
	EmailSentUser  bool `gorm:"not null;default:false" json:"email_sent_user"`
}

func (LeaveRequest) TableName() string {
	return "leave_requests"
}

// TotalDaysBetween computes the inclusive day span of a range.
func TotalDaysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours()/24) + 1
}

/// Detail is a read-side projection row: the request joined with owner and
// approver identity, plus window fields recomputed against the clock at
// query time. Never persisted.
type Detail struct {
	LeaveRequest

	EmpID        string  `json:"emp_id"`
	EmpName      string  `json:"emp_name"`
	UserEmail    string  `json:"user_email"`
	UserMobile   string  `json:"user_mobile"`
	ApproverName *string `json:"approver_name,omitempty"`

	EditSecondsRemaining int64 `json:"edit_seconds_remaining"`
	IsCurrentlyEditable  bool  `json:"is_currently_editable"`
}

// Stats is the per-month status breakdown shown on dashboards.
type Stats struct {
	Total     int `json:"total"`
	Approved  int `json:"approved"`
	Rejected  int `json:"rejected"`
	Pending   int `json:"pending"`
	Cancelled int `json:"cancelled"`
}
