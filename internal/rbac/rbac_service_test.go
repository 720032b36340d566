package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pk2025teslead/smartlogx-app/internal/domain"
	"github.com/pk2025teslead/smartlogx-app/internal/rbac/infra"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	enforcer, err := infra.NewEnforcer()
	require.NoError(t, err)
	svc, err := NewService(enforcer)
	require.NoError(t, err)
	return svc
}

func TestService_Enforce_UserPermissions(t *testing.T) {
	svc := newTestService(t)

	allowed, err := svc.Enforce(domain.EnforceRequest{Role: "USER", Resource: "leave", Action: "create"})
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = svc.Enforce(domain.EnforceRequest{Role: "USER", Resource: "leave_admin", Action: "decide"})
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestService_Enforce_AdminInheritsUser(t *testing.T) {
	svc := newTestService(t)

	// Admins keep the whole user surface.
	allowed, err := svc.Enforce(domain.EnforceRequest{Role: "ADMIN", Resource: "leave", Action: "update"})
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = svc.Enforce(domain.EnforceRequest{Role: "ADMIN", Resource: "leave_admin", Action: "delete"})
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestService_Enforce_UnknownRole(t *testing.T) {
	svc := newTestService(t)

	allowed, err := svc.Enforce(domain.EnforceRequest{Role: "GUEST", Resource: "leave", Action: "read"})
	require.NoError(t, err)
	assert.False(t, allowed)
}
