package leave_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/pk2025teslead/smartlogx-app/internal/audit"
	"github.com/pk2025teslead/smartlogx-app/internal/leave"
	leaveerrors "github.com/pk2025teslead/smartlogx-app/internal/leave/errors"
)

type fakeService struct {
	createFn          func(ctx context.Context, userID string, req leave.CreateLeaveRequest, actor audit.ActorContext) (leave.CreateLeaveResponse, error)
	getByIDFn         func(ctx context.Context, userID, id string) (leave.LeaveResponse, error)
	checkEditWindowFn func(ctx context.Context, id, userID string) (leave.EditWindowResponse, error)
	updateByOwnerFn   func(ctx context.Context, id, userID string, req leave.UpdateLeaveRequest, actor audit.ActorContext) (leave.LeaveResponse, error)
	cancelByOwnerFn   func(ctx context.Context, id, userID, reason string, actor audit.ActorContext) (leave.LeaveResponse, error)
	approveFn         func(ctx context.Context, id, adminID string, req leave.ApproveLeaveRequest, actor audit.ActorContext) (leave.LeaveResponse, error)
	rejectFn          func(ctx context.Context, id, adminID string, req leave.RejectLeaveRequest, actor audit.ActorContext) (leave.LeaveResponse, error)
	listForUserFn     func(ctx context.Context, userID string, f leave.ListLeavesFilter) ([]leave.LeaveResponse, error)
	listForAdminFn    func(ctx context.Context, f leave.ListLeavesFilter) ([]leave.LeaveResponse, error)
	recentFn          func(ctx context.Context, limit int) ([]leave.LeaveResponse, error)
	pendingCountFn    func(ctx context.Context) (int64, error)
	auditTrailFn      func(ctx context.Context, id string, limit int) ([]leave.AuditEntryResponse, error)
}

func (f *fakeService) Create(ctx context.Context, userID string, req leave.CreateLeaveRequest, actor audit.ActorContext) (leave.CreateLeaveResponse, error) {
	return f.createFn(ctx, userID, req, actor)
}
func (f *fakeService) GetByID(ctx context.Context, userID, id string) (leave.LeaveResponse, error) {
	return f.getByIDFn(ctx, userID, id)
}
func (f *fakeService) CheckEditWindow(ctx context.Context, id, userID string) (leave.EditWindowResponse, error) {
	return f.checkEditWindowFn(ctx, id, userID)
}
func (f *fakeService) UpdateByOwner(ctx context.Context, id, userID string, req leave.UpdateLeaveRequest, actor audit.ActorContext) (leave.LeaveResponse, error) {
	return f.updateByOwnerFn(ctx, id, userID, req, actor)
}
func (f *fakeService) CancelByOwner(ctx context.Context, id, userID, reason string, actor audit.ActorContext) (leave.LeaveResponse, error) {
	return f.cancelByOwnerFn(ctx, id, userID, reason, actor)
}
func (f *fakeService) Approve(ctx context.Context, id, adminID string, req leave.ApproveLeaveRequest, actor audit.ActorContext) (leave.LeaveResponse, error) {
	return f.approveFn(ctx, id, adminID, req, actor)
}
func (f *fakeService) Reject(ctx context.Context, id, adminID string, req leave.RejectLeaveRequest, actor audit.ActorContext) (leave.LeaveResponse, error) {
	return f.rejectFn(ctx, id, adminID, req, actor)
}
func (f *fakeService) UpdateByAdmin(ctx context.Context, id, adminID string, req leave.UpdateLeaveRequest, actor audit.ActorContext) (leave.LeaveResponse, error) {
	return leave.LeaveResponse{}, nil
}
func (f *fakeService) Delete(ctx context.Context, id, adminID, reason string, actor audit.ActorContext) error {
	return nil
}
func (f *fakeService) ListForUser(ctx context.Context, userID string, filter leave.ListLeavesFilter) ([]leave.LeaveResponse, error) {
	return f.listForUserFn(ctx, userID, filter)
}
func (f *fakeService) ListForAdmin(ctx context.Context, filter leave.ListLeavesFilter) ([]leave.LeaveResponse, error) {
	return f.listForAdminFn(ctx, filter)
}
func (f *fakeService) StatsForUser(ctx context.Context, userID string, year, month int) (leave.Stats, error) {
	return leave.Stats{}, nil
}
func (f *fakeService) StatsForAdmin(ctx context.Context, year, month int) (leave.Stats, error) {
	return leave.Stats{}, nil
}
func (f *fakeService) Recent(ctx context.Context, limit int) ([]leave.LeaveResponse, error) {
	return f.recentFn(ctx, limit)
}
func (f *fakeService) PendingCount(ctx context.Context) (int64, error) {
	return f.pendingCountFn(ctx)
}
func (f *fakeService) FilterUsers(ctx context.Context) ([]leave.FilterUserResponse, error) {
	return nil, nil
}
func (f *fakeService) AuditTrail(ctx context.Context, id string, limit int) ([]leave.AuditEntryResponse, error) {
	return f.auditTrailFn(ctx, id, limit)
}
func (f *fakeService) MarkAdminNotified(ctx context.Context, id string) error { return nil }
func (f *fakeService) MarkUserNotified(ctx context.Context, id string) error  { return nil }

func TestHandler_Create(t *testing.T) {
	gin.SetMode(gin.TestMode)
	userID := uuid.New().String()

	svc := &fakeService{
		createFn: func(ctx context.Context, uid string, req leave.CreateLeaveRequest, actor audit.ActorContext) (leave.CreateLeaveResponse, error) {
			assert.Equal(t, userID, uid)
			assert.Equal(t, "2025-03-17", req.FromDate)
			assert.NotEmpty(t, actor.UserAgent)
			return leave.CreateLeaveResponse{ID: uuid.New().String(), Status: "PENDING", TotalDays: 3}, nil
		},
	}
	h := leave.NewHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("user_id", userID)
	c.Request = httptest.NewRequest(http.MethodPost, "/leaves",
		strings.NewReader(`{"from_date":"2025-03-17","to_date":"2025-03-19","leave_type":"PLANNED","notes":"trip"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.Header.Set("User-Agent", "go-test")
	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "PENDING")
}

func TestHandler_Create_BadPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := leave.NewHandler(&fakeService{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("user_id", uuid.New().String())
	c.Request = httptest.NewRequest(http.MethodPost, "/leaves",
		strings.NewReader(`{"from_date":"2025-03-17"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
}

func TestHandler_Update_WindowExpired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	leaveID := uuid.New().String()

	svc := &fakeService{
		updateByOwnerFn: func(ctx context.Context, id, userID string, req leave.UpdateLeaveRequest, actor audit.ActorContext) (leave.LeaveResponse, error) {
			return leave.LeaveResponse{}, leaveerrors.WindowExpired("10-Mar-2025 09:10 UTC")
		},
	}
	h := leave.NewHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("user_id", uuid.New().String())
	c.Params = gin.Params{{Key: "id", Value: leaveID}}
	c.Request = httptest.NewRequest(http.MethodPut, "/leaves/"+leaveID,
		strings.NewReader(`{"from_date":"2025-03-18","to_date":"2025-03-21","leave_type":"CASUAL"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	h.Update(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "Edit window expired at")
}

func TestHandler_Cancel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	leaveID := uuid.New().String()

	svc := &fakeService{
		cancelByOwnerFn: func(ctx context.Context, id, userID, reason string, actor audit.ActorContext) (leave.LeaveResponse, error) {
			assert.Equal(t, leaveID, id)
			assert.Equal(t, "changed my mind", reason)
			return leave.LeaveResponse{ID: id, Status: "CANCELLED"}, nil
		},
	}
	h := leave.NewHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("user_id", uuid.New().String())
	c.Params = gin.Params{{Key: "id", Value: leaveID}}
	c.Request = httptest.NewRequest(http.MethodPost, "/leaves/"+leaveID+"/cancel",
		strings.NewReader(`{"reason":"changed my mind"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	h.Cancel(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "CANCELLED")
}

func TestHandler_EditWindow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	leaveID := uuid.New().String()

	svc := &fakeService{
		checkEditWindowFn: func(ctx context.Context, id, userID string) (leave.EditWindowResponse, error) {
			return leave.EditWindowResponse{Editable: true, Message: "Editable", SecondsRemaining: 240}, nil
		},
	}
	h := leave.NewHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("user_id", uuid.New().String())
	c.Params = gin.Params{{Key: "id", Value: leaveID}}
	c.Request = httptest.NewRequest(http.MethodGet, "/leaves/"+leaveID+"/edit-window", nil)
	h.EditWindow(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "\"seconds_remaining\":240")
}

func TestHandler_Approve_Conflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	leaveID := uuid.New().String()

	svc := &fakeService{
		approveFn: func(ctx context.Context, id, adminID string, req leave.ApproveLeaveRequest, actor audit.ActorContext) (leave.LeaveResponse, error) {
			return leave.LeaveResponse{}, leaveerrors.CannotApprove("REJECTED")
		},
	}
	h := leave.NewHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("user_id", uuid.New().String())
	c.Params = gin.Params{{Key: "id", Value: leaveID}}
	c.Request = httptest.NewRequest(http.MethodPost, "/admin/leaves/"+leaveID+"/approve", strings.NewReader(`{}`))
	c.Request.Header.Set("Content-Type", "application/json")
	h.Approve(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "Cannot approve - status is already REJECTED")
}

func TestHandler_Reject_MissingReason(t *testing.T) {
	gin.SetMode(gin.TestMode)
	leaveID := uuid.New().String()

	h := leave.NewHandler(&fakeService{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("user_id", uuid.New().String())
	c.Params = gin.Params{{Key: "id", Value: leaveID}}
	c.Request = httptest.NewRequest(http.MethodPost, "/admin/leaves/"+leaveID+"/reject", strings.NewReader(`{}`))
	c.Request.Header.Set("Content-Type", "application/json")
	h.Reject(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
}

func TestHandler_AdminList_Paginates(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rows := make([]leave.LeaveResponse, 5)
	for i := range rows {
		rows[i] = leave.LeaveResponse{ID: uuid.New().String(), Status: "PENDING"}
	}
	svc := &fakeService{
		listForAdminFn: func(ctx context.Context, f leave.ListLeavesFilter) ([]leave.LeaveResponse, error) {
			assert.Equal(t, 2025, f.Year)
			assert.Equal(t, 3, f.Month)
			return rows, nil
		},
	}
	h := leave.NewHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("user_id", uuid.New().String())
	c.Request = httptest.NewRequest(http.MethodGet, "/admin/leaves?year=2025&month=3&page=1&page_size=2", nil)
	h.AdminList(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "\"meta\"")
	assert.Contains(t, w.Body.String(), "\"total\":5")
}

func TestHandler_AdminRecent(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := &fakeService{
		recentFn: func(ctx context.Context, limit int) ([]leave.LeaveResponse, error) {
			assert.Equal(t, 10, limit)
			return []leave.LeaveResponse{{ID: uuid.New().String()}}, nil
		},
		pendingCountFn: func(ctx context.Context) (int64, error) { return 7, nil },
	}
	h := leave.NewHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("user_id", uuid.New().String())
	c.Request = httptest.NewRequest(http.MethodGet, "/admin/leaves/recent", nil)
	h.AdminRecent(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "\"pending_count\":7")
}

func TestHandler_AuditTrail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	leaveID := uuid.New().String()

	svc := &fakeService{
		auditTrailFn: func(ctx context.Context, id string, limit int) ([]leave.AuditEntryResponse, error) {
			assert.Equal(t, leaveID, id)
			return []leave.AuditEntryResponse{
				{ID: 2, Action: "APPROVED", ActorRole: "ADMIN", ActorName: "Priya"},
				{ID: 1, Action: "CREATED", ActorRole: "USER", ActorName: "Asha"},
			}, nil
		},
	}
	h := leave.NewHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("user_id", uuid.New().String())
	c.Params = gin.Params{{Key: "id", Value: leaveID}}
	c.Request = httptest.NewRequest(http.MethodGet, "/admin/leaves/"+leaveID+"/audit", nil)
	h.AuditTrail(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "APPROVED")
	assert.Contains(t, w.Body.String(), "Priya")
}
