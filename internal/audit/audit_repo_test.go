package audit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_Append_ResolvesActorName(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	actorID := uuid.New().String()
	leaveID := uuid.New().String()

	mock.ExpectQuery("SELECT name FROM users").
		WithArgs(actorID).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Asha Verma"))

	mock.ExpectQuery("INSERT INTO leave_audit").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	newData, _ := json.Marshal(map[string]string{"status": "PENDING"})
	id, err := repo.Append(context.Background(), Entry{
		LeaveID:   leaveID,
		Action:    ActionCreated,
		ActorID:   actorID,
		ActorRole: RoleUser,
		NewData:   newData,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Append_UnknownActor(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	actorID := uuid.New().String()

	// No matching user row: the entry is still written, with the fallback name.
	mock.ExpectQuery("SELECT name FROM users").
		WithArgs(actorID).
		WillReturnRows(sqlmock.NewRows([]string{"name"}))

	mock.ExpectQuery("INSERT INTO leave_audit").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	_, err = repo.Append(context.Background(), Entry{
		LeaveID:   uuid.New().String(),
		Action:    ActionDeleted,
		ActorID:   actorID,
		ActorRole: RoleAdmin,
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListForLeave(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	leaveID := uuid.New().String()
	now := time.Now()

	rows := sqlmock.NewRows([]string{
		"id", "leave_id", "action", "actor_id", "actor_role", "actor_name",
		"old_data", "new_data", "reason", "ip_address", "user_agent", "created_at",
	}).
		AddRow(int64(2), leaveID, "APPROVED", uuid.New().String(), "ADMIN", "Priya",
			[]byte(`{"status":"PENDING"}`), []byte(`{"status":"APPROVED"}`), nil, nil, nil, now).
		AddRow(int64(1), leaveID, "CREATED", uuid.New().String(), "USER", "Asha",
			nil, []byte(`{"status":"PENDING"}`), nil, nil, nil, now.Add(-time.Hour))

	mock.ExpectQuery("FROM leave_audit").
		WithArgs(leaveID, 50).
		WillReturnRows(rows)

	entries, err := repo.ListForLeave(context.Background(), leaveID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ActionApproved, entries[0].Action)
	assert.Equal(t, "Priya", entries[0].ActorName)
	assert.Equal(t, ActionCreated, entries[1].Action)
	assert.NotEmpty(t, entries[1].NewData)
	assert.Empty(t, entries[1].OldData)
	assert.NoError(t, mock.ExpectationsWereMet())
}
