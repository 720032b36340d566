package audit

import (
	"context"
	"database/sql"
)

//go:generate mockgen -source=audit_repo.go -destination=mock/audit_repo_mock.go -package=mock

// Repository appends and reads leave audit entries. Append must run on the
// same transaction as the row mutation it records, via WithTx.
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Append(ctx context.Context, e Entry) (int64, error)
	ListForLeave(ctx context.Context, leaveID string, limit int) ([]Entry, error)
}

type repository struct {
	db *sql.DB
	tx *sql.Tx
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) Append(ctx context.Context, e Entry) (int64, error) {
	// Actor name is denormalized at append time so the trail stays readable
	// even if the user row changes or is deactivated later.
	actorName := "Unknown"
	row := r.querier().QueryRowContext(ctx,
		`SELECT name FROM users WHERE id = $1`, e.ActorID)
	if err := row.Scan(&actorName); err != nil && err != sql.ErrNoRows {
		return 0, err
	}

	query := `
        INSERT INTO leave_audit
            (leave_id, action, actor_id, actor_role, actor_name,
             old_data, new_data, reason, ip_address, user_agent, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
        RETURNING id
    `

	var id int64
	err := r.querier().QueryRowContext(
		ctx, query,
		e.LeaveID, string(e.Action), e.ActorID, string(e.ActorRole), actorName,
		nullableJSON(e.OldData), nullableJSON(e.NewData),
		e.Reason, e.IPAddress, e.UserAgent,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) ListForLeave(ctx context.Context, leaveID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
        SELECT id, leave_id, action, actor_id, actor_role, actor_name,
               old_data, new_data, reason, ip_address, user_agent, created_at
        FROM leave_audit
        WHERE leave_id = $1
        ORDER BY created_at DESC, id DESC
        LIMIT $2
    `

	rows, err := r.querier().QueryContext(ctx, query, leaveID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var (
			e       Entry
			action  string
			role    string
			oldData []byte
			newData []byte
		)
		if err := rows.Scan(
			&e.ID, &e.LeaveID, &action, &e.ActorID, &role, &e.ActorName,
			&oldData, &newData, &e.Reason, &e.IPAddress, &e.UserAgent, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		e.Action = Action(action)
		e.ActorRole = Role(role)
		e.OldData = oldData
		e.NewData = newData
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *repository) querier() interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
