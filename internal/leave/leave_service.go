package leave

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/pk2025teslead/smartlogx-app/internal/audit"
	leaveerrors "github.com/pk2025teslead/smartlogx-app/internal/leave/errors"
	"github.com/pk2025teslead/smartlogx-app/internal/shared/apperror"
	"github.com/pk2025teslead/smartlogx-app/internal/shared/clock"
	"github.com/pk2025teslead/smartlogx-app/internal/shared/contextutil"
)

// Config holds the lifecycle policy knobs. The edit window is a hard
// deadline anchored at creation; the span ceiling is policy, not domain law.
type Config struct {
	EditWindow  time.Duration
	MaxSpanDays int
}

func DefaultConfig() Config {
	return Config{
		EditWindow:  10 * time.Minute,
		MaxSpanDays: 30,
	}
}

// ConfigFromEnv reads LEAVE_EDIT_WINDOW_MINUTES and LEAVE_MAX_SPAN_DAYS,
// falling back to the defaults for anything unset or unparseable.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if v, err := strconv.Atoi(os.Getenv("LEAVE_EDIT_WINDOW_MINUTES")); err == nil && v > 0 {
		cfg.EditWindow = time.Duration(v) * time.Minute
	}
	if v, err := strconv.Atoi(os.Getenv("LEAVE_MAX_SPAN_DAYS")); err == nil && v > 0 {
		cfg.MaxSpanDays = v
	}
	return cfg
}

// Notifier is the external notification sink. Calls happen strictly after
// the lifecycle transaction commits; failures are logged and dropped.
type Notifier interface {
	LeaveCreated(ctx context.Context, d Detail) error
	LeaveEdited(ctx context.Context, d Detail) error
	LeaveApproved(ctx context.Context, d Detail) error
	LeaveRejected(ctx context.Context, d Detail, reason string) error
}

//go:generate mockgen -source=leave_service.go -destination=mock/leave_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, userID string, req CreateLeaveRequest, actor audit.ActorContext) (CreateLeaveResponse, error)
	GetByID(ctx context.Context, userID, id string) (LeaveResponse, error)
	CheckEditWindow(ctx context.Context, id, userID string) (EditWindowResponse, error)
	UpdateByOwner(ctx context.Context, id, userID string, req UpdateLeaveRequest, actor audit.ActorContext) (LeaveResponse, error)
	CancelByOwner(ctx context.Context, id, userID, reason string, actor audit.ActorContext) (LeaveResponse, error)

	Approve(ctx context.Context, id, adminID string, req ApproveLeaveRequest, actor audit.ActorContext) (LeaveResponse, error)
	Reject(ctx context.Context, id, adminID string, req RejectLeaveRequest, actor audit.ActorContext) (LeaveResponse, error)
	UpdateByAdmin(ctx context.Context, id, adminID string, req UpdateLeaveRequest, actor audit.ActorContext) (LeaveResponse, error)
	Delete(ctx context.Context, id, adminID, reason string, actor audit.ActorContext) error

	ListForUser(ctx context.Context, userID string, f ListLeavesFilter) ([]LeaveResponse, error)
	ListForAdmin(ctx context.Context, f ListLeavesFilter) ([]LeaveResponse, error)
	StatsForUser(ctx context.Context, userID string, year, month int) (Stats, error)
	StatsForAdmin(ctx context.Context, year, month int) (Stats, error)
	Recent(ctx context.Context, limit int) ([]LeaveResponse, error)
	PendingCount(ctx context.Context) (int64, error)
	FilterUsers(ctx context.Context) ([]FilterUserResponse, error)
	AuditTrail(ctx context.Context, id string, limit int) ([]AuditEntryResponse, error)

	MarkAdminNotified(ctx context.Context, id string) error
	MarkUserNotified(ctx context.Context, id string) error
}

type service struct {
	db       *sql.DB
	repo     Repository
	auditLog audit.Repository
	clk      clock.Clock
	cfg      Config
	notifier Notifier
	rdb      *redis.Client
	sf       *singleflight.Group
	logger   *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	auditLog audit.Repository,
	clk clock.Clock,
	cfg Config,
	logger ...*zap.Logger,
) Service {
	return NewServiceWithNotifier(db, repo, auditLog, clk, cfg, nil, nil, logger...)
}

func NewServiceWithNotifier(
	db *sql.DB,
	repo Repository,
	auditLog audit.Repository,
	clk clock.Clock,
	cfg Config,
	notifier Notifier,
	rdb *redis.Client,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	if cfg.EditWindow <= 0 {
		cfg.EditWindow = DefaultConfig().EditWindow
	}
	if cfg.MaxSpanDays <= 0 {
		cfg.MaxSpanDays = DefaultConfig().MaxSpanDays
	}
	return &service{
		db:       db,
		repo:     repo,
		auditLog: auditLog,
		clk:      clk,
		cfg:      cfg,
		notifier: notifier,
		rdb:      rdb,
		sf:       &singleflight.Group{},
		logger:   l,
	}
}

func (s *service) Create(ctx context.Context, userID string, req CreateLeaveRequest, actor audit.ActorContext) (CreateLeaveResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("create leave requested",
		zap.String("request_id", rid),
		zap.String("user_id", userID),
		zap.String("from_date", req.FromDate),
		zap.String("to_date", req.ToDate),
		zap.String("leave_type", req.LeaveType),
	)

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return CreateLeaveResponse{}, leaveerrors.ErrInvalidUserID
	}
	fromDate, toDate, totalDays, err := s.validateRange(req.FromDate, req.ToDate)
	if err != nil {
		s.logger.Warn("create leave validation failed", zap.Error(err))
		return CreateLeaveResponse{}, err
	}
	leaveType := LeaveType(req.LeaveType)
	if !leaveType.Valid() {
		return CreateLeaveResponse{}, leaveerrors.ErrInvalidLeaveType
	}

	now := s.clk.Now()
	l := &LeaveRequest{
		ID:            uuid.New(),
		UserID:        userUUID,
		FromDate:      fromDate,
		ToDate:        toDate,
		TotalDays:     totalDays,
		LeaveType:     leaveType,
		Notes:         req.Notes,
		Status:        StatusPending,
		CreatedAt:     now,
		EditableUntil: now.Add(s.cfg.EditWindow),
		UpdatedAt:     now,
		CreatedBy:     userUUID,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("create leave begin tx failed", zap.Error(err))
		return CreateLeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	if err := qtx.Insert(ctx, l); err != nil {
		s.logger.Error("create leave persist failed", zap.Error(err))
		return CreateLeaveResponse{}, err
	}

	newData, err := snapshot(l)
	if err != nil {
		return CreateLeaveResponse{}, err
	}
	if err := s.appendAudit(ctx, tx, audit.Entry{
		LeaveID:   l.ID.String(),
		Action:    audit.ActionCreated,
		ActorID:   userID,
		ActorRole: audit.RoleUser,
		NewData:   newData,
	}, actor); err != nil {
		return CreateLeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("create leave commit failed", zap.Error(err))
		return CreateLeaveResponse{}, err
	}
	s.logger.Info("create leave success",
		zap.String("request_id", rid),
		zap.String("leave_id", l.ID.String()),
		zap.String("user_id", userID),
		zap.Int("total_days", totalDays),
	)

	s.invalidateStats(l)
	s.notify(audit.ActionCreated, l.ID.String(), "")

	return CreateLeaveResponse{
		ID:            l.ID.String(),
		EditableUntil: l.EditableUntil.Format(time.RFC3339),
		TotalDays:     totalDays,
		Status:        string(StatusPending),
	}, nil
}

func (s *service) GetByID(ctx context.Context, userID, id string) (LeaveResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveID
	}
	d, err := s.repo.DetailByID(ctx, id, s.clk.Now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		return LeaveResponse{}, err
	}
	// Owner-scoped read: existence is not leaked to other users.
	if userID != "" && d.UserID.String() != userID {
		return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
	}
	return mapDetail(*d), nil
}

// CheckEditWindow is the advisory predicate used by the UI countdown. It is
// not sufficient for correctness under concurrency; UpdateByOwner repeats
// the check after acquiring the row lock.
func (s *service) CheckEditWindow(ctx context.Context, id, userID string) (EditWindowResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return EditWindowResponse{Message: leaveerrors.ErrLeaveNotFound.Message}, nil
	}

	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return EditWindowResponse{Message: leaveerrors.ErrLeaveNotFound.Message}, nil
		}
		return EditWindowResponse{}, err
	}

	remaining, err := s.evalEditWindow(l, userID)
	if err != nil {
		return EditWindowResponse{Message: err.Error()}, nil
	}
	return EditWindowResponse{
		Editable:         true,
		Message:          "Editable",
		SecondsRemaining: remaining,
	}, nil
}

func (s *service) UpdateByOwner(ctx context.Context, id, userID string, req UpdateLeaveRequest, actor audit.ActorContext) (LeaveResponse, error) {
	s.logger.Debug("update leave requested",
		zap.String("leave_id", id),
		zap.String("user_id", userID),
	)

	if _, err := uuid.Parse(id); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveID
	}
	fromDate, toDate, totalDays, err := s.validateRange(req.FromDate, req.ToDate)
	if err != nil {
		s.logger.Warn("update leave validation failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	leaveType := LeaveType(req.LeaveType)
	if !leaveType.Valid() {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveType
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("update leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	l, err := qtx.LockByIDOwned(ctx, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		return LeaveResponse{}, err
	}

	// The deadline must hold at mutation time, under the lock. Time may have
	// run out since the advisory check, or another transaction may have
	// moved the row to a terminal status.
	if _, err := s.evalEditWindow(l, userID); err != nil {
		s.logger.Warn("update leave window check failed",
			zap.String("leave_id", id),
			zap.Error(err),
		)
		return LeaveResponse{}, err
	}

	oldData, err := snapshot(l)
	if err != nil {
		return LeaveResponse{}, err
	}

	l.FromDate = fromDate
	l.ToDate = toDate
	l.TotalDays = totalDays
	l.LeaveType = leaveType
	l.Notes = req.Notes
	l.UpdatedAt = s.clk.Now()
	// EditableUntil stays anchored to creation. Edits never extend it.

	rows, err := qtx.UpdateFields(ctx, l, true)
	if err != nil {
		s.logger.Error("update leave persist failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}
	if rows == 0 {
		return LeaveResponse{}, leaveerrors.Conflict("Update")
	}

	newData, err := snapshot(l)
	if err != nil {
		return LeaveResponse{}, err
	}
	if err := s.appendAudit(ctx, tx, audit.Entry{
		LeaveID:   id,
		Action:    audit.ActionEdited,
		ActorID:   userID,
		ActorRole: audit.RoleUser,
		OldData:   oldData,
		NewData:   newData,
	}, actor); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("update leave commit failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}
	s.logger.Info("update leave success",
		zap.String("leave_id", id),
		zap.Int("total_days", totalDays),
	)

	s.invalidateStats(l)
	s.notify(audit.ActionEdited, id, "")

	return s.responseFor(l), nil
}

func (s *service) CancelByOwner(ctx context.Context, id, userID, reason string, actor audit.ActorContext) (LeaveResponse, error) {
	s.logger.Debug("cancel leave requested",
		zap.String("leave_id", id),
		zap.String("user_id", userID),
	)

	if _, err := uuid.Parse(id); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("cancel leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	l, err := qtx.LockByIDOwned(ctx, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		return LeaveResponse{}, err
	}

	// Cancellation has no time limit: a user may withdraw a PENDING request
	// any time before an admin acts on it. Only the status gate applies.
	if l.Status != StatusPending {
		return LeaveResponse{}, leaveerrors.CannotCancel(string(l.Status))
	}

	oldData, err := snapshot(l)
	if err != nil {
		return LeaveResponse{}, err
	}

	now := s.clk.Now()
	rows, err := qtx.SetStatus(ctx, id, StatusCancelled, now, true)
	if err != nil {
		s.logger.Error("cancel leave persist failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}
	if rows == 0 {
		return LeaveResponse{}, leaveerrors.Conflict("Cancel")
	}

	l.Status = StatusCancelled
	l.UpdatedAt = now
	newData, err := snapshot(l)
	if err != nil {
		return LeaveResponse{}, err
	}
	if err := s.appendAudit(ctx, tx, audit.Entry{
		LeaveID:   id,
		Action:    audit.ActionCancelled,
		ActorID:   userID,
		ActorRole: audit.RoleUser,
		OldData:   oldData,
		NewData:   newData,
		Reason:    optional(reason),
	}, actor); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("cancel leave commit failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}
	s.logger.Info("cancel leave success", zap.String("leave_id", id))

	s.invalidateStats(l)
	return s.responseFor(l), nil
}

func (s *service) Approve(ctx context.Context, id, adminID string, req ApproveLeaveRequest, actor audit.ActorContext) (LeaveResponse, error) {
	return s.decide(ctx, id, adminID, StatusApproved, req.ApprovalNotes, "", actor)
}

func (s *service) Reject(ctx context.Context, id, adminID string, req RejectLeaveRequest, actor audit.ActorContext) (LeaveResponse, error) {
	// A rejection without a reason is audit-incomplete; reject it before any
	// transaction starts.
	if req.Reason == "" {
		return LeaveResponse{}, leaveerrors.ErrRejectReasonRequired
	}
	notes := req.ApprovalNotes
	if notes == "" {
		notes = req.Reason
	}
	return s.decide(ctx, id, adminID, StatusRejected, notes, req.Reason, actor)
}

func (s *service) decide(ctx context.Context, id, adminID string, target Status, approvalNotes, reason string, actor audit.ActorContext) (LeaveResponse, error) {
	s.logger.Debug("leave decision requested",
		zap.String("leave_id", id),
		zap.String("admin_id", adminID),
		zap.String("target_status", string(target)),
	)

	if _, err := uuid.Parse(id); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveID
	}
	adminUUID, err := uuid.Parse(adminID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidActorID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("leave decision begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	// Lock before reading status: of two racing admins, the second blocks
	// here, then observes the terminal status and fails cleanly.
	qtx := s.repo.WithTx(tx)
	l, err := qtx.LockByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		return LeaveResponse{}, err
	}

	if l.Status != StatusPending {
		s.logger.Warn("leave decision invalid status",
			zap.String("leave_id", id),
			zap.String("status", string(l.Status)),
			zap.String("target_status", string(target)),
		)
		if target == StatusApproved {
			return LeaveResponse{}, leaveerrors.CannotApprove(string(l.Status))
		}
		return LeaveResponse{}, leaveerrors.CannotReject(string(l.Status))
	}

	oldData, err := snapshot(l)
	if err != nil {
		return LeaveResponse{}, err
	}

	now := s.clk.Now()
	rows, err := qtx.Decide(ctx, id, target, adminUUID, now, optional(approvalNotes))
	if err != nil {
		s.logger.Error("leave decision persist failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}
	if rows == 0 {
		if target == StatusApproved {
			return LeaveResponse{}, leaveerrors.Conflict("Approval")
		}
		return LeaveResponse{}, leaveerrors.Conflict("Rejection")
	}

	l.Status = target
	l.ApprovedBy = &adminUUID
	l.ApprovedAt = &now
	l.ApprovalNotes = optional(approvalNotes)
	l.UpdatedAt = now

	newData, err := snapshot(l)
	if err != nil {
		return LeaveResponse{}, err
	}
	action := audit.ActionApproved
	if target == StatusRejected {
		action = audit.ActionRejected
	}
	if err := s.appendAudit(ctx, tx, audit.Entry{
		LeaveID:   id,
		Action:    action,
		ActorID:   adminID,
		ActorRole: audit.RoleAdmin,
		OldData:   oldData,
		NewData:   newData,
		Reason:    optional(reason),
	}, actor); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("leave decision commit failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}
	s.logger.Info("leave decision success",
		zap.String("leave_id", id),
		zap.String("status", string(target)),
		zap.String("admin_id", adminID),
	)

	s.invalidateStats(l)
	s.notify(action, id, reason)

	return s.responseFor(l), nil
}

// UpdateByAdmin corrects a request's fields regardless of status or elapsed
// time. It still locks, and it still audits.
func (s *service) UpdateByAdmin(ctx context.Context, id, adminID string, req UpdateLeaveRequest, actor audit.ActorContext) (LeaveResponse, error) {
	s.logger.Debug("admin update leave requested",
		zap.String("leave_id", id),
		zap.String("admin_id", adminID),
	)

	if _, err := uuid.Parse(id); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveID
	}
	fromDate, toDate, totalDays, err := s.validateRange(req.FromDate, req.ToDate)
	if err != nil {
		return LeaveResponse{}, err
	}
	leaveType := LeaveType(req.LeaveType)
	if !leaveType.Valid() {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveType
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("admin update leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	l, err := qtx.LockByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		return LeaveResponse{}, err
	}

	oldData, err := snapshot(l)
	if err != nil {
		return LeaveResponse{}, err
	}

	l.FromDate = fromDate
	l.ToDate = toDate
	l.TotalDays = totalDays
	l.LeaveType = leaveType
	l.Notes = req.Notes
	l.UpdatedAt = s.clk.Now()

	if _, err := qtx.UpdateFields(ctx, l, false); err != nil {
		s.logger.Error("admin update leave persist failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}

	newData, err := snapshot(l)
	if err != nil {
		return LeaveResponse{}, err
	}
	if err := s.appendAudit(ctx, tx, audit.Entry{
		LeaveID:   id,
		Action:    audit.ActionEdited,
		ActorID:   adminID,
		ActorRole: audit.RoleAdmin,
		OldData:   oldData,
		NewData:   newData,
	}, actor); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("admin update leave commit failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}
	s.logger.Info("admin update leave success", zap.String("leave_id", id))

	s.invalidateStats(l)
	return s.responseFor(l), nil
}

// Delete is a soft delete: the row transitions to CANCELLED whatever its
// current status, and the trail records DELETED. Nothing is ever removed.
func (s *service) Delete(ctx context.Context, id, adminID, reason string, actor audit.ActorContext) error {
	s.logger.Debug("delete leave requested",
		zap.String("leave_id", id),
		zap.String("admin_id", adminID),
	)

	if _, err := uuid.Parse(id); err != nil {
		return leaveerrors.ErrInvalidLeaveID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("delete leave begin tx failed", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	l, err := qtx.LockByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return leaveerrors.ErrLeaveNotFound
		}
		return err
	}

	oldData, err := snapshot(l)
	if err != nil {
		return err
	}

	now := s.clk.Now()
	if _, err := qtx.SetStatus(ctx, id, StatusCancelled, now, false); err != nil {
		s.logger.Error("delete leave persist failed", zap.String("leave_id", id), zap.Error(err))
		return err
	}

	l.Status = StatusCancelled
	l.UpdatedAt = now
	newData, err := snapshot(l)
	if err != nil {
		return err
	}
	if err := s.appendAudit(ctx, tx, audit.Entry{
		LeaveID:   id,
		Action:    audit.ActionDeleted,
		ActorID:   adminID,
		ActorRole: audit.RoleAdmin,
		OldData:   oldData,
		NewData:   newData,
		Reason:    optional(reason),
	}, actor); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("delete leave commit failed", zap.String("leave_id", id), zap.Error(err))
		return err
	}
	s.logger.Info("delete leave success", zap.String("leave_id", id))

	s.invalidateStats(l)
	return nil
}

func (s *service) ListForUser(ctx context.Context, userID string, f ListLeavesFilter) ([]LeaveResponse, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, leaveerrors.ErrInvalidUserID
	}
	var status *Status
	if f.Status != "" {
		st := Status(f.Status)
		status = &st
	}
	details, err := s.repo.ListByMonth(ctx, f.Year, f.Month, status, &userID, s.clk.Now())
	if err != nil {
		return nil, err
	}
	return mapDetails(details), nil
}

func (s *service) ListForAdmin(ctx context.Context, f ListLeavesFilter) ([]LeaveResponse, error) {
	var status *Status
	if f.Status != "" {
		st := Status(f.Status)
		status = &st
	}
	var userID *string
	if f.UserID != "" {
		userID = &f.UserID
	}
	details, err := s.repo.ListByMonth(ctx, f.Year, f.Month, status, userID, s.clk.Now())
	if err != nil {
		return nil, err
	}
	return mapDetails(details), nil
}

func (s *service) StatsForUser(ctx context.Context, userID string, year, month int) (Stats, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return Stats{}, leaveerrors.ErrInvalidUserID
	}
	key := fmt.Sprintf("leave:stats:user:%s:%04d-%02d", userID, year, month)
	return s.cachedStats(ctx, key, func() (Stats, error) {
		return s.repo.StatsByMonth(ctx, year, month, &userID)
	})
}

func (s *service) StatsForAdmin(ctx context.Context, year, month int) (Stats, error) {
	key := fmt.Sprintf("leave:stats:admin:%04d-%02d", year, month)
	return s.cachedStats(ctx, key, func() (Stats, error) {
		return s.repo.StatsByMonth(ctx, year, month, nil)
	})
}

func (s *service) cachedStats(ctx context.Context, key string, load func() (Stats, error)) (Stats, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, key).Result(); err == nil {
			var stats Stats
			if err := json.Unmarshal([]byte(cached), &stats); err == nil {
				return stats, nil
			}
		}
	}

	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		stats, err := load()
		if err != nil {
			return Stats{}, err
		}
		if s.rdb != nil {
			if payload, merr := json.Marshal(stats); merr == nil {
				s.rdb.Set(ctx, key, payload, 5*time.Minute)
			}
		}
		return stats, nil
	})
	if err != nil {
		return Stats{}, err
	}
	return v.(Stats), nil
}

func (s *service) Recent(ctx context.Context, limit int) ([]LeaveResponse, error) {
	details, err := s.repo.Recent(ctx, limit, s.clk.Now())
	if err != nil {
		return nil, err
	}
	return mapDetails(details), nil
}

func (s *service) PendingCount(ctx context.Context) (int64, error) {
	return s.repo.PendingCount(ctx)
}

func (s *service) FilterUsers(ctx context.Context) ([]FilterUserResponse, error) {
	users, err := s.repo.UsersWithLeaves(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]FilterUserResponse, len(users))
	for i, u := range users {
		resp[i] = FilterUserResponse{
			ID:      u.ID.String(),
			EmpID:   u.EmpID,
			EmpName: u.EmpName,
		}
	}
	return resp, nil
}

func (s *service) AuditTrail(ctx context.Context, id string, limit int) ([]AuditEntryResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, leaveerrors.ErrInvalidLeaveID
	}
	entries, err := s.auditLog.ListForLeave(ctx, id, limit)
	if err != nil {
		return nil, err
	}

	resp := make([]AuditEntryResponse, len(entries))
	for i, e := range entries {
		r := AuditEntryResponse{
			ID:        e.ID,
			Action:    string(e.Action),
			ActorID:   e.ActorID,
			ActorRole: string(e.ActorRole),
			ActorName: e.ActorName,
			Reason:    e.Reason,
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		}
		if len(e.OldData) > 0 {
			var old map[string]any
			if err := json.Unmarshal(e.OldData, &old); err == nil {
				r.OldData = old
			}
		}
		if len(e.NewData) > 0 {
			var nw map[string]any
			if err := json.Unmarshal(e.NewData, &nw); err == nil {
				r.NewData = nw
			}
		}
		resp[i] = r
	}
	return resp, nil
}

// MarkAdminNotified and MarkUserNotified flip delivery flags after the
// external sink confirms a send. Best-effort bookkeeping, never part of a
// lifecycle transaction.
func (s *service) MarkAdminNotified(ctx context.Context, id string) error {
	if err := s.repo.MarkEmailSentAdmin(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return leaveerrors.ErrLeaveNotFound
		}
		return apperror.Wrap(err, apperror.CodeInternalError, "Failed to record admin notification", http.StatusInternalServerError)
	}
	return nil
}

func (s *service) MarkUserNotified(ctx context.Context, id string) error {
	if err := s.repo.MarkEmailSentUser(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return leaveerrors.ErrLeaveNotFound
		}
		return apperror.Wrap(err, apperror.CodeInternalError, "Failed to record user notification", http.StatusInternalServerError)
	}
	return nil
}

// evalEditWindow applies the full owner-edit precondition chain against the
// clock. Returns seconds remaining when editable.
func (s *service) evalEditWindow(l *LeaveRequest, userID string) (int64, error) {
	if l.UserID.String() != userID {
		return 0, leaveerrors.ErrNotOwner
	}
	if l.Status != StatusPending {
		return 0, leaveerrors.CannotEdit(string(l.Status))
	}
	now := s.clk.Now()
	if now.After(l.EditableUntil) {
		return 0, leaveerrors.WindowExpired(l.EditableUntil.Format(displayLayout))
	}
	remaining := int64(l.EditableUntil.Sub(now).Seconds())
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

func (s *service) validateRange(from, to string) (time.Time, time.Time, int, error) {
	fromDate, err := time.Parse(dateLayout, from)
	if err != nil {
		return time.Time{}, time.Time{}, 0, leaveerrors.ErrInvalidDateFormat
	}
	toDate, err := time.Parse(dateLayout, to)
	if err != nil {
		return time.Time{}, time.Time{}, 0, leaveerrors.ErrInvalidDateFormat
	}
	if toDate.Before(fromDate) {
		return time.Time{}, time.Time{}, 0, leaveerrors.ErrInvalidDateRange
	}
	if int(toDate.Sub(fromDate).Hours()/24) > s.cfg.MaxSpanDays {
		return time.Time{}, time.Time{}, 0, leaveerrors.SpanTooLong(s.cfg.MaxSpanDays)
	}
	return fromDate, toDate, TotalDaysBetween(fromDate, toDate), nil
}

// appendAudit runs on the mutation's transaction. A failed audit write must
// roll back the whole operation; the trail and the row never diverge.
func (s *service) appendAudit(ctx context.Context, tx *sql.Tx, e audit.Entry, actor audit.ActorContext) error {
	e.IPAddress = optional(actor.IPAddress)
	e.UserAgent = optional(actor.UserAgent)
	if _, err := s.auditLog.WithTx(tx).Append(ctx, e); err != nil {
		s.logger.Error("audit append failed",
			zap.String("leave_id", e.LeaveID),
			zap.String("action", string(e.Action)),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// notify dispatches to the sink after commit, detached from the request.
// Failures are logged and dropped: delivery is best-effort by contract.
func (s *service) notify(action audit.Action, leaveID, reason string) {
	if s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		d, err := s.repo.DetailByID(ctx, leaveID, s.clk.Now())
		if err != nil {
			s.logger.Warn("notification snapshot lookup failed",
				zap.String("leave_id", leaveID),
				zap.Error(err),
			)
			return
		}

		switch action {
		case audit.ActionCreated:
			err = s.notifier.LeaveCreated(ctx, *d)
		case audit.ActionEdited:
			err = s.notifier.LeaveEdited(ctx, *d)
		case audit.ActionApproved:
			err = s.notifier.LeaveApproved(ctx, *d)
		case audit.ActionRejected:
			err = s.notifier.LeaveRejected(ctx, *d, reason)
		default:
			return
		}
		if err != nil {
			s.logger.Warn("notification dispatch failed",
				zap.String("leave_id", leaveID),
				zap.String("action", string(action)),
				zap.Error(err),
			)
		}
	}()
}

func (s *service) invalidateStats(l *LeaveRequest) {
	if s.rdb == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	year, month := l.FromDate.Year(), int(l.FromDate.Month())
	keys := []string{
		fmt.Sprintf("leave:stats:admin:%04d-%02d", year, month),
		fmt.Sprintf("leave:stats:user:%s:%04d-%02d", l.UserID.String(), year, month),
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warn("stats cache invalidation failed", zap.Error(err))
	}
}

// responseFor maps a bare entity (no join data) with window fields computed
// against the clock.
func (s *service) responseFor(l *LeaveRequest) LeaveResponse {
	r := mapLeave(*l)
	now := s.clk.Now()
	if l.Status == StatusPending && !now.After(l.EditableUntil) {
		r.IsCurrentlyEditable = true
		r.EditSecondsRemaining = int64(l.EditableUntil.Sub(now).Seconds())
	}
	return r
}

func snapshot(l *LeaveRequest) (json.RawMessage, error) {
	b, err := json.Marshal(l)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInternalError,
			"failed to serialize leave snapshot", http.StatusInternalServerError)
	}
	return b, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func mapLeave(l LeaveRequest) LeaveResponse {
	r := LeaveResponse{
		ID:            l.ID.String(),
		UserID:        l.UserID.String(),
		FromDate:      formatDate(l.FromDate),
		ToDate:        formatDate(l.ToDate),
		TotalDays:     l.TotalDays,
		LeaveType:     string(l.LeaveType),
		Notes:         l.Notes,
		Status:        string(l.Status),
		CreatedAt:     l.CreatedAt.Format(time.RFC3339),
		EditableUntil: l.EditableUntil.Format(time.RFC3339),
		UpdatedAt:     l.UpdatedAt.Format(time.RFC3339),
		ApprovalNotes: l.ApprovalNotes,
	}
	if l.ApprovedBy != nil {
		v := l.ApprovedBy.String()
		r.ApprovedBy = &v
	}
	if l.ApprovedAt != nil {
		v := l.ApprovedAt.Format(time.RFC3339)
		r.ApprovedAt = &v
	}
	return r
}

func mapDetail(d Detail) LeaveResponse {
	r := mapLeave(d.LeaveRequest)
	r.EmpID = d.EmpID
	r.EmpName = d.EmpName
	r.ApproverName = d.ApproverName
	r.EditSecondsRemaining = d.EditSecondsRemaining
	r.IsCurrentlyEditable = d.IsCurrentlyEditable
	return r
}

func mapDetails(details []Detail) []LeaveResponse {
	resp := make([]LeaveResponse, len(details))
	for i, d := range details {
		resp[i] = mapDetail(d)
	}
	return resp
}
