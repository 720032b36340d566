package leave

import "time"

type CreateLeaveRequest struct {
	FromDate  string `json:"from_date" binding:"required"`
	ToDate    string `json:"to_date" binding:"required"`
	LeaveType string `json:"leave_type" binding:"required,oneof=PLANNED CASUAL EMERGENCY SICK"`
	Notes     string `json:"notes"`
}

type UpdateLeaveRequest struct {
	FromDate  string `json:"from_date" binding:"required"`
	ToDate    string `json:"to_date" binding:"required"`
	LeaveType string `json:"leave_type" binding:"required,oneof=PLANNED CASUAL EMERGENCY SICK"`
	Notes     string `json:"notes"`
}

type CancelLeaveRequest struct {
	Reason string `json:"reason"`
}

type ApproveLeaveRequest struct {
	ApprovalNotes string `json:"approval_notes"`
}

type RejectLeaveRequest struct {
	Reason        string `json:"reason" binding:"required"`
	ApprovalNotes string `json:"approval_notes"`
}

type DeleteLeaveRequest struct {
	Reason string `json:"reason"`
}

type ListLeavesFilter struct {
	Year   int    `form:"year" binding:"required,min=2000,max=2100"`
	Month  int    `form:"month" binding:"required,min=1,max=12"`
	Status string `form:"status" binding:"omitempty,oneof=PENDING APPROVED REJECTED CANCELLED"`
	UserID string `form:"user_id" binding:"omitempty,uuid"`
}

type CreateLeaveResponse struct {
	ID            string `json:"id"`
	EditableUntil string `json:"editable_until"`
	TotalDays     int    `json:"total_days"`
	Status        string `json:"status"`
}

type EditWindowResponse struct {
	Editable         bool   `json:"editable"`
	Message          string `json:"message"`
	SecondsRemaining int64  `json:"seconds_remaining"`
}

type LeaveResponse struct {
	ID            string  `json:"id"`
	UserID        string  `json:"user_id"`
	EmpID         string  `json:"emp_id,omitempty"`
	EmpName       string  `json:"emp_name,omitempty"`
	FromDate      string  `json:"from_date"`
	ToDate        string  `json:"to_date"`
	TotalDays     int     `json:"total_days"`
	LeaveType     string  `json:"leave_type"`
	Notes         string  `json:"notes"`
	Status        string  `json:"status"`
	CreatedAt     string  `json:"created_at"`
	EditableUntil string  `json:"editable_until"`
	UpdatedAt     string  `json:"updated_at"`
	ApprovedBy    *string `json:"approved_by,omitempty"`
	ApproverName  *string `json:"approver_name,omitempty"`
	ApprovedAt    *string `json:"approved_at,omitempty"`
	ApprovalNotes *string `json:"approval_notes,omitempty"`

	EditSecondsRemaining int64 `json:"edit_seconds_remaining"`
	IsCurrentlyEditable  bool  `json:"is_currently_editable"`
}

type AuditEntryResponse struct {
	ID        int64   `json:"id"`
	Action    string  `json:"action"`
	ActorID   string  `json:"actor_id"`
	ActorRole string  `json:"actor_role"`
	ActorName string  `json:"actor_name"`
	OldData   any     `json:"old_data,omitempty"`
	NewData   any     `json:"new_data,omitempty"`
	Reason    *string `json:"reason,omitempty"`
	CreatedAt string  `json:"created_at"`
}

type FilterUserResponse struct {
	ID      string `json:"id"`
	EmpID   string `json:"emp_id"`
	EmpName string `json:"emp_name"`
}

const dateLayout = "2006-01-02"

// displayLayout matches the UI's IST-facing timestamp format.
const displayLayout = "02-Jan-2006 15:04 MST"

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}
