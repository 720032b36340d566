package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/pk2025teslead/smartlogx-app/internal/domain"
	"github.com/pk2025teslead/smartlogx-app/internal/middleware"
	"github.com/pk2025teslead/smartlogx-app/internal/middleware/mock"
)

func performWithRole(t *testing.T, svc middleware.RBACService, role string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	_, r := gin.CreateTestContext(w)
	r.Use(func(c *gin.Context) {
		if role != "" {
			c.Set("role", role)
		}
	})
	r.GET("/leaves", middleware.RBACAuthorize(svc, "leave", "read"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/leaves", nil)
	r.ServeHTTP(w, req)
	return w
}

func TestRBACAuthorize_Allowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mock.NewMockRBACService(ctrl)
	svc.EXPECT().
		Enforce(domain.EnforceRequest{Role: "USER", Resource: "leave", Action: "read"}).
		Return(true, nil)

	w := performWithRole(t, svc, "USER")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRBACAuthorize_Forbidden(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mock.NewMockRBACService(ctrl)
	svc.EXPECT().Enforce(gomock.Any()).Return(false, nil)

	w := performWithRole(t, svc, "USER")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "leave:read")
}

func TestRBACAuthorize_MissingRole(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mock.NewMockRBACService(ctrl)

	w := performWithRole(t, svc, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRBACAuthorize_EnforcerError(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mock.NewMockRBACService(ctrl)
	svc.EXPECT().Enforce(gomock.Any()).Return(false, errors.New("policy store unavailable"))

	w := performWithRole(t, svc, "ADMIN")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
