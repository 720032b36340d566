package audit

import (
	"encoding/json"
	"time"
)

// Action identifies the state change an entry records.
type Action string

const (
	ActionCreated   Action = "CREATED"
	ActionEdited    Action = "EDITED"
	ActionApproved  Action = "APPROVED"
	ActionRejected  Action = "REJECTED"
	ActionCancelled Action = "CANCELLED"
	ActionDeleted   Action = "DELETED"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ActorContext carries request metadata recorded alongside every entry.
type ActorContext struct {
	IPAddress string
	UserAgent string
}

// Entry is one immutable audit record. OldData/NewData hold full row
// snapshots; OldData is nil only for CREATED.
type Entry struct {
	ID        int64           `json:"id"`
	LeaveID   string          `json:"leave_id"`
	Action    Action          `json:"action"`
	ActorID   string          `json:"actor_id"`
	ActorRole Role            `json:"actor_role"`
	ActorName string          `json:"actor_name"`
	OldData   json.RawMessage `json:"old_data,omitempty"`
	NewData   json.RawMessage `json:"new_data,omitempty"`
	Reason    *string         `json:"reason,omitempty"`
	IPAddress *string         `json:"ip_address,omitempty"`
	UserAgent *string         `json:"user_agent,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
