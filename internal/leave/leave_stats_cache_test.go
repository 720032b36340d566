package leave

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pk2025teslead/smartlogx-app/internal/shared/clock"
)

func TestService_StatsForUser_CacheHit(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()

	rdb, redisMock := redismock.NewClientMock()
	userID := uuid.New().String()
	key := "leave:stats:user:" + userID + ":2025-03"

	want := Stats{Total: 4, Approved: 2, Pending: 1, Rejected: 1}
	payload, err := json.Marshal(want)
	require.NoError(t, err)
	redisMock.ExpectGet(key).SetVal(string(payload))

	repo := &fakeRepo{
		statsByMonthFn: func(ctx context.Context, year, month int, userID *string) (Stats, error) {
			t.Fatal("repository queried despite cache hit")
			return Stats{}, nil
		},
	}
	svc := NewServiceWithNotifier(db, repo, &fakeAuditRepo{}, clock.NewFixed(baseTime), DefaultConfig(), nil, rdb)

	got, err := svc.StatsForUser(context.Background(), userID, 2025, 3)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestService_StatsForAdmin_CacheMissLoadsAndStores(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()

	rdb, redisMock := redismock.NewClientMock()
	key := "leave:stats:admin:2025-03"

	want := Stats{Total: 9, Approved: 5, Rejected: 1, Pending: 2, Cancelled: 1}
	payload, err := json.Marshal(want)
	require.NoError(t, err)

	redisMock.ExpectGet(key).RedisNil()
	redisMock.ExpectSet(key, payload, 5*time.Minute).SetVal("OK")

	var queried bool
	repo := &fakeRepo{
		statsByMonthFn: func(ctx context.Context, year, month int, userID *string) (Stats, error) {
			queried = true
			assert.Equal(t, 2025, year)
			assert.Equal(t, 3, month)
			assert.Nil(t, userID)
			return want, nil
		},
	}
	svc := NewServiceWithNotifier(db, repo, &fakeAuditRepo{}, clock.NewFixed(baseTime), DefaultConfig(), nil, rdb)

	got, err := svc.StatsForAdmin(context.Background(), 2025, 3)
	require.NoError(t, err)
	assert.True(t, queried)
	assert.Equal(t, want, got)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestService_StatsForAdmin_LoadErrorBypassesCache(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()

	rdb, redisMock := redismock.NewClientMock()
	redisMock.ExpectGet("leave:stats:admin:2025-04").RedisNil()

	repo := &fakeRepo{
		statsByMonthFn: func(ctx context.Context, year, month int, userID *string) (Stats, error) {
			return Stats{}, errors.New("connection reset")
		},
	}
	svc := NewServiceWithNotifier(db, repo, &fakeAuditRepo{}, clock.NewFixed(baseTime), DefaultConfig(), nil, rdb)

	_, err := svc.StatsForAdmin(context.Background(), 2025, 4)
	assert.Error(t, err)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}
