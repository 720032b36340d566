package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultTimezone(t *testing.T) {
	t.Setenv("APP_TIMEZONE", "")
	c := New()
	assert.Equal(t, DefaultTimezone, c.Now().Location().String())
}

func TestNew_OverrideAndFallback(t *testing.T) {
	t.Setenv("APP_TIMEZONE", "Europe/Berlin")
	assert.Equal(t, "Europe/Berlin", New().Now().Location().String())

	t.Setenv("APP_TIMEZONE", "Mars/Olympus")
	assert.Equal(t, "UTC", New().Now().Location().String())
}

func TestFixed_Advance(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	f := NewFixed(base)
	require.Equal(t, base, f.Now())

	f.Advance(10 * time.Minute)
	assert.Equal(t, base.Add(10*time.Minute), f.Now())
}
