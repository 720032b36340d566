package leave

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTotalDaysBetween(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC)
	}

	// Both endpoints count.
	assert.Equal(t, 1, TotalDaysBetween(day(17), day(17)))
	assert.Equal(t, 3, TotalDaysBetween(day(17), day(19)))
	assert.Equal(t, 31, TotalDaysBetween(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)))
}

func TestStatus(t *testing.T) {
	assert.True(t, StatusPending.Valid())
	assert.True(t, StatusCancelled.Valid())
	assert.False(t, Status("DRAFT").Valid())

	assert.False(t, StatusPending.Terminal())
	assert.True(t, StatusApproved.Terminal())
	assert.True(t, StatusRejected.Terminal())
	assert.True(t, StatusCancelled.Terminal())
}

func TestLeaveType(t *testing.T) {
	for _, lt := range []LeaveType{TypePlanned, TypeCasual, TypeEmergency, TypeSick} {
		assert.True(t, lt.Valid())
	}
	assert.False(t, LeaveType("UNPAID").Valid())
}
