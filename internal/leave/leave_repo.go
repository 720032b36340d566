package leave

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

//go:generate mockgen -source=leave_repo.go -destination=mock/leave_repo_mock.go -package=mock

// Repository owns row access for leave requests. Every mutation that depends
// on current status goes through a Lock* read first, on the same transaction
// handed in via WithTx; the plain *sql.DB path is for reads only.
type Repository interface {
	WithTx(tx *sql.Tx) Repository

	Insert(ctx context.Context, l *LeaveRequest) error
	FindByID(ctx context.Context, id string) (*LeaveRequest, error)
	FindByIDOwned(ctx context.Context, id, userID string) (*LeaveRequest, error)
	LockByID(ctx context.Context, id string) (*LeaveRequest, error)
	LockByIDOwned(ctx context.Context, id, userID string) (*LeaveRequest, error)

	UpdateFields(ctx context.Context, l *LeaveRequest, ownerGuard bool) (int64, error)
	SetStatus(ctx context.Context, id string, status Status, updatedAt time.Time, requirePending bool) (int64, error)
	Decide(ctx context.Context, id string, status Status, adminID uuid.UUID, decidedAt time.Time, notes *string) (int64, error)

	ListByMonth(ctx context.Context, year, month int, status *Status, userID *string, now time.Time) ([]Detail, error)
	DetailByID(ctx context.Context, id string, now time.Time) (*Detail, error)
	StatsByMonth(ctx context.Context, year, month int, userID *string) (Stats, error)
	Recent(ctx context.Context, limit int, now time.Time) ([]Detail, error)
	PendingCount(ctx context.Context) (int64, error)
	UsersWithLeaves(ctx context.Context) ([]FilterUser, error)

	MarkEmailSentAdmin(ctx context.Context, id string) error
	MarkEmailSentUser(ctx context.Context, id string) error
}

type FilterUser struct {
	ID      uuid.UUID
	EmpID   string
	EmpName string
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

const leaveColumns = `
	id, user_id, from_date, to_date, total_days, leave_type, notes, status,
	created_at, editable_until, updated_at, created_by,
	approved_by, approved_at, approval_notes, email_sent_admin, email_sent_user
`

func (r *repository) Insert(ctx context.Context, l *LeaveRequest) error {
	query := `
        INSERT INTO leave_requests
            (id, user_id, from_date, to_date, total_days, leave_type, notes, status,
             created_at, editable_until, updated_at, created_by)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
    `
	_, err := r.querier().ExecContext(
		ctx, query,
		l.ID, l.UserID, l.FromDate, l.ToDate, l.TotalDays,
		string(l.LeaveType), l.Notes, string(l.Status),
		l.CreatedAt, l.EditableUntil, l.UpdatedAt, l.CreatedBy,
	)
	return err
}

func (r *repository) FindByID(ctx context.Context, id string) (*LeaveRequest, error) {
	return r.findOne(ctx, `SELECT `+leaveColumns+` FROM leave_requests WHERE id = $1`, id)
}

func (r *repository) FindByIDOwned(ctx context.Context, id, userID string) (*LeaveRequest, error) {
	// Deliberately indistinguishable from not-found so a user cannot probe
	// for other users' requests.
	return r.findOne(ctx,
		`SELECT `+leaveColumns+` FROM leave_requests WHERE id = $1 AND user_id = $2`,
		id, userID)
}

func (r *repository) LockByID(ctx context.Context, id string) (*LeaveRequest, error) {
	return r.findOne(ctx,
		`SELECT `+leaveColumns+` FROM leave_requests WHERE id = $1 FOR UPDATE`, id)
}

func (r *repository) LockByIDOwned(ctx context.Context, id, userID string) (*LeaveRequest, error) {
	return r.findOne(ctx,
		`SELECT `+leaveColumns+` FROM leave_requests WHERE id = $1 AND user_id = $2 FOR UPDATE`,
		id, userID)
}

func (r *repository) findOne(ctx context.Context, query string, args ...any) (*LeaveRequest, error) {
	row := r.querier().QueryRowContext(ctx, query, args...)
	l, err := scanLeave(row)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// UpdateFields writes the owner-editable columns. With ownerGuard the WHERE
// clause re-asserts ownership and PENDING status so a concurrent transition
// surfaces as zero rows affected instead of a silent overwrite.
func (r *repository) UpdateFields(ctx context.Context, l *LeaveRequest, ownerGuard bool) (int64, error) {
	query := `
        UPDATE leave_requests
        SET from_date = $2, to_date = $3, total_days = $4,
            leave_type = $5, notes = $6, updated_at = $7
        WHERE id = $1
    `
	args := []any{l.ID, l.FromDate, l.ToDate, l.TotalDays, string(l.LeaveType), l.Notes, l.UpdatedAt}
	if ownerGuard {
		query += ` AND user_id = $8 AND status = $9`
		args = append(args, l.UserID, string(StatusPending))
	}

	res, err := r.querier().ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *repository) SetStatus(ctx context.Context, id string, status Status, updatedAt time.Time, requirePending bool) (int64, error) {
	query := `
        UPDATE leave_requests
        SET status = $2, updated_at = $3
        WHERE id = $1
    `
	args := []any{id, string(status), updatedAt}
	if requirePending {
		query += ` AND status = $4`
		args = append(args, string(StatusPending))
	}

	res, err := r.querier().ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Decide records the terminal admin decision. The PENDING guard in the WHERE
// clause is the last line of defense under concurrency even though callers
// lock and validate first.
func (r *repository) Decide(ctx context.Context, id string, status Status, adminID uuid.UUID, decidedAt time.Time, notes *string) (int64, error) {
	query := `
        UPDATE leave_requests
        SET status = $2, approved_by = $3, approved_at = $4,
            approval_notes = $5, updated_at = $4
        WHERE id = $1 AND status = $6
    `
	res, err := r.querier().ExecContext(
		ctx, query,
		id, string(status), adminID, decidedAt, notes, string(StatusPending),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const detailColumns = `
	l.id, l.user_id, l.from_date, l.to_date, l.total_days, l.leave_type, l.notes, l.status,
	l.created_at, l.editable_until, l.updated_at, l.created_by,
	l.approved_by, l.approved_at, l.approval_notes, l.email_sent_admin, l.email_sent_user,
	u.emp_id, u.name, u.email, u.mobile, a.name,
	GREATEST(0, CAST(EXTRACT(EPOCH FROM (l.editable_until - $1::timestamptz)) AS bigint)),
	(l.status = 'PENDING' AND $1::timestamptz <= l.editable_until)
`

const detailJoins = `
	FROM leave_requests l
	JOIN users u ON l.user_id = u.id
	LEFT JOIN users a ON l.approved_by = a.id
`

func (r *repository) ListByMonth(ctx context.Context, year, month int, status *Status, userID *string, now time.Time) ([]Detail, error) {
	query := `SELECT ` + detailColumns + detailJoins + `
        WHERE EXTRACT(YEAR FROM l.from_date) = $2
          AND EXTRACT(MONTH FROM l.from_date) = $3`
	args := []any{now, year, month}

	if status != nil {
		args = append(args, string(*status))
		query += ` AND l.status = $4`
	}
	if userID != nil {
		args = append(args, *userID)
		if status != nil {
			query += ` AND l.user_id = $5`
		} else {
			query += ` AND l.user_id = $4`
		}
	}
	query += ` ORDER BY l.from_date DESC, l.created_at DESC`

	return r.queryDetails(ctx, query, args...)
}

func (r *repository) DetailByID(ctx context.Context, id string, now time.Time) (*Detail, error) {
	details, err := r.queryDetails(ctx,
		`SELECT `+detailColumns+detailJoins+` WHERE l.id = $2`, now, id)
	if err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return nil, sql.ErrNoRows
	}
	return &details[0], nil
}

func (r *repository) Recent(ctx context.Context, limit int, now time.Time) ([]Detail, error) {
	if limit <= 0 {
		limit = 10
	}
	return r.queryDetails(ctx,
		`SELECT `+detailColumns+detailJoins+` ORDER BY l.created_at DESC LIMIT $2`,
		now, limit)
}

func (r *repository) StatsByMonth(ctx context.Context, year, month int, userID *string) (Stats, error) {
	query := `
        SELECT
            COUNT(*),
            COUNT(*) FILTER (WHERE status = 'APPROVED'),
            COUNT(*) FILTER (WHERE status = 'REJECTED'),
            COUNT(*) FILTER (WHERE status = 'PENDING'),
            COUNT(*) FILTER (WHERE status = 'CANCELLED')
        FROM leave_requests
        WHERE EXTRACT(YEAR FROM from_date) = $1
          AND EXTRACT(MONTH FROM from_date) = $2
    `
	args := []any{year, month}
	if userID != nil {
		query += ` AND user_id = $3`
		args = append(args, *userID)
	}

	var s Stats
	err := r.querier().QueryRowContext(ctx, query, args...).
		Scan(&s.Total, &s.Approved, &s.Rejected, &s.Pending, &s.Cancelled)
	return s, err
}

func (r *repository) PendingCount(ctx context.Context) (int64, error) {
	var count int64
	err := r.querier().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM leave_requests WHERE status = 'PENDING'`).Scan(&count)
	return count, err
}

func (r *repository) UsersWithLeaves(ctx context.Context) ([]FilterUser, error) {
	rows, err := r.querier().QueryContext(ctx, `
        SELECT DISTINCT u.id, u.emp_id, u.name
        FROM users u
        JOIN leave_requests l ON u.id = l.user_id
        ORDER BY u.name
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []FilterUser
	for rows.Next() {
		var u FilterUser
		if err := rows.Scan(&u.ID, &u.EmpID, &u.EmpName); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *repository) MarkEmailSentAdmin(ctx context.Context, id string) error {
	return r.markFlag(ctx, `UPDATE leave_requests SET email_sent_admin = TRUE WHERE id = $1`, id)
}

func (r *repository) MarkEmailSentUser(ctx context.Context, id string) error {
	return r.markFlag(ctx, `UPDATE leave_requests SET email_sent_user = TRUE WHERE id = $1`, id)
}

func (r *repository) markFlag(ctx context.Context, query, id string) error {
	res, err := r.querier().ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *repository) queryDetails(ctx context.Context, query string, args ...any) ([]Detail, error) {
	rows, err := r.querier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var details []Detail
	for rows.Next() {
		var (
			d         Detail
			leaveType string
			status    string
		)
		if err := rows.Scan(
			&d.ID, &d.UserID, &d.FromDate, &d.ToDate, &d.TotalDays, &leaveType, &d.Notes, &status,
			&d.CreatedAt, &d.EditableUntil, &d.UpdatedAt, &d.CreatedBy,
			&d.ApprovedBy, &d.ApprovedAt, &d.ApprovalNotes, &d.EmailSentAdmin, &d.EmailSentUser,
			&d.EmpID, &d.EmpName, &d.UserEmail, &d.UserMobile, &d.ApproverName,
			&d.EditSecondsRemaining, &d.IsCurrentlyEditable,
		); err != nil {
			return nil, err
		}
		d.LeaveType = LeaveType(leaveType)
		d.Status = Status(status)
		details = append(details, d)
	}

	return details, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLeave(row rowScanner) (*LeaveRequest, error) {
	var (
		l         LeaveRequest
		leaveType string
		status    string
	)
	err := row.Scan(
		&l.ID, &l.UserID, &l.FromDate, &l.ToDate, &l.TotalDays, &leaveType, &l.Notes, &status,
		&l.CreatedAt, &l.EditableUntil, &l.UpdatedAt, &l.CreatedBy,
		&l.ApprovedBy, &l.ApprovedAt, &l.ApprovalNotes, &l.EmailSentAdmin, &l.EmailSentUser,
	)
	if err != nil {
		return nil, err
	}
	l.LeaveType = LeaveType(leaveType)
	l.Status = Status(status)
	return &l, nil
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
